package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"workwave-backend/internal/domain"
	"workwave-backend/pkg/apperror"
	"workwave-backend/pkg/logger"
	"workwave-backend/pkg/metrics"
	"workwave-backend/pkg/security"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// FileOptions configures upload handling shared by the employee and
// employer usecases.
type FileOptions struct {
	MaxBytes     int64
	SignedURLTTL time.Duration
}

type employeeUsecase struct {
	repo     domain.EmployeeRepository
	blobs    domain.BlobStore
	validate *validator.Validate
	policy   security.FilePolicy
	ttl      time.Duration
	metrics  metrics.Recorder
}

func NewEmployeeUsecase(
	repo domain.EmployeeRepository,
	blobs domain.BlobStore,
	validate *validator.Validate,
	opts FileOptions,
	recorder metrics.Recorder,
) domain.EmployeeUsecase {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &employeeUsecase{
		repo:     repo,
		blobs:    blobs,
		validate: validate,
		policy:   security.ResumePolicy(opts.MaxBytes),
		ttl:      opts.SignedURLTTL,
		metrics:  recorder,
	}
}

func (u *employeeUsecase) GetProfile(ctx context.Context) (*domain.EmployeeProfile, error) {
	caller, err := callerWithRole(ctx, domain.RoleEmployee)
	if err != nil {
		return nil, err
	}
	profile, err := u.repo.GetByAccountID(ctx, caller.ID)
	if err != nil {
		return nil, storeError(err, "Employee profile not found", "")
	}
	return profile, nil
}

func (u *employeeUsecase) UpdateProfile(ctx context.Context, details domain.EmployeeDetails) (*domain.EmployeeProfile, error) {
	caller, err := callerWithRole(ctx, domain.RoleEmployee)
	if err != nil {
		return nil, err
	}
	details = details.Normalize()
	if err := u.validate.Struct(details); err != nil {
		return nil, invalid(err)
	}
	profile, err := u.repo.UpdateDetails(ctx, caller.ID, details)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return profile, nil
}

// UploadResume stores the new blob, points the profile at it, then removes
// the blob it replaced. Removing the old blob is best effort.
func (u *employeeUsecase) UploadResume(ctx context.Context, file domain.Upload) (resume *domain.ResumeFile, err error) {
	defer func() { u.metrics.RecordUpload("resume", metrics.Outcome(err)) }()

	caller, err := callerWithRole(ctx, domain.RoleEmployee)
	if err != nil {
		return nil, err
	}
	check := u.policy.Validate(file.FileName, file.Data)
	if !check.Valid {
		return nil, apperror.BadRequest(check.Error)
	}

	key := fmt.Sprintf("resumes/%s/%s%s", caller.ID.Hex(), uuid.NewString(), check.Extension)
	if err := u.blobs.Put(ctx, key, check.ContentType(), file.Data); err != nil {
		return nil, apperror.Internal(err)
	}

	next := domain.ResumeFile{
		Key:         key,
		FileName:    filepath.Base(file.FileName),
		ContentType: check.ContentType(),
		Size:        int64(len(file.Data)),
		UploadedAt:  time.Now().UTC(),
	}
	prev, err := u.repo.SetResume(ctx, caller.ID, next)
	if err != nil {
		u.discard(ctx, key)
		return nil, storeError(err, "Employee profile not found", "")
	}
	if prev != nil && prev.Key != "" && prev.Key != key {
		u.discard(ctx, prev.Key)
	}
	return &next, nil
}

func (u *employeeUsecase) ResumeURL(ctx context.Context) (string, error) {
	profile, err := u.GetProfile(ctx)
	if err != nil {
		return "", err
	}
	if profile.Resume == nil || profile.Resume.Key == "" {
		return "", apperror.NotFound("Resume not found")
	}
	url, err := u.blobs.SignedURL(ctx, profile.Resume.Key, u.ttl)
	if err != nil {
		return "", apperror.Internal(err)
	}
	return url, nil
}

func (u *employeeUsecase) DeleteResume(ctx context.Context) error {
	caller, err := callerWithRole(ctx, domain.RoleEmployee)
	if err != nil {
		return err
	}
	prev, err := u.repo.ClearResume(ctx, caller.ID)
	if err != nil {
		return storeError(err, "Resume not found", "")
	}
	u.discard(ctx, prev.Key)
	return nil
}

func (u *employeeUsecase) discard(ctx context.Context, key string) {
	if err := u.blobs.Delete(ctx, key); err != nil {
		logger.Log.Warn("failed to delete resume blob", "key", key, "error", err)
	}
}
