package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"workwave-backend/internal/domain"
	"workwave-backend/pkg/apperror"
	"workwave-backend/pkg/logger"
	"workwave-backend/pkg/metrics"
	"workwave-backend/pkg/security"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	logoMaxSide     = 512
	logoJPEGQuality = 85
	maxDescription  = 5000
)

type employerUsecase struct {
	repo      domain.EmployerRepository
	blobs     domain.BlobStore
	validate  *validator.Validate
	sanitizer *security.Sanitizer
	policy    security.FilePolicy
	ttl       time.Duration
	metrics   metrics.Recorder
}

func NewEmployerUsecase(
	repo domain.EmployerRepository,
	blobs domain.BlobStore,
	validate *validator.Validate,
	sanitizer *security.Sanitizer,
	opts FileOptions,
	recorder metrics.Recorder,
) domain.EmployerUsecase {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &employerUsecase{
		repo:      repo,
		blobs:     blobs,
		validate:  validate,
		sanitizer: sanitizer,
		policy:    security.ImagePolicy(opts.MaxBytes),
		ttl:       opts.SignedURLTTL,
		metrics:   recorder,
	}
}

const msgEmployerNotFound = "Employer profile not found"

func (u *employerUsecase) GetProfile(ctx context.Context) (*domain.EmployerProfile, error) {
	caller, err := callerWithRole(ctx, domain.RoleEmployer)
	if err != nil {
		return nil, err
	}
	profile, err := u.repo.GetByAccountID(ctx, caller.ID)
	if err != nil {
		return nil, storeError(err, msgEmployerNotFound, "")
	}
	return profile, nil
}

func (u *employerUsecase) UpsertProfile(ctx context.Context, details domain.EmployerDetails) (*domain.EmployerProfile, error) {
	caller, err := callerWithRole(ctx, domain.RoleEmployer)
	if err != nil {
		return nil, err
	}
	details = details.Normalize()
	details.Description = u.sanitizer.Text(details.Description)
	if err := u.validate.Struct(details); err != nil {
		return nil, invalid(err)
	}
	profile, err := u.repo.Upsert(ctx, caller.ID, details)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return profile, nil
}

func (u *employerUsecase) patch(ctx context.Context, patch domain.EmployerPatch) (*domain.EmployerProfile, error) {
	caller, err := callerWithRole(ctx, domain.RoleEmployer)
	if err != nil {
		return nil, err
	}
	profile, err := u.repo.Patch(ctx, caller.ID, patch)
	if err != nil {
		return nil, storeError(err, msgEmployerNotFound, "")
	}
	return profile, nil
}

func (u *employerUsecase) UpdateLocation(ctx context.Context, location domain.EmployerLocation) (*domain.EmployerProfile, error) {
	location = location.Normalize()
	if err := u.validate.Struct(location); err != nil {
		return nil, invalid(err)
	}
	return u.patch(ctx, domain.EmployerPatch{Location: &location})
}

func (u *employerUsecase) UpdateHR(ctx context.Context, hr domain.HRContact) (*domain.EmployerProfile, error) {
	hr = hr.Normalize()
	if err := u.validate.Struct(hr); err != nil {
		return nil, invalid(err)
	}
	return u.patch(ctx, domain.EmployerPatch{HR: &hr})
}

func (u *employerUsecase) UpdateDescription(ctx context.Context, description string) (*domain.EmployerProfile, error) {
	description = u.sanitizer.Text(strings.TrimSpace(description))
	if len(description) > maxDescription {
		return nil, apperror.BadRequest(fmt.Sprintf("Description must be at most %d characters", maxDescription))
	}
	return u.patch(ctx, domain.EmployerPatch{Description: &description})
}

func (u *employerUsecase) DeleteProfile(ctx context.Context) error {
	caller, err := callerWithRole(ctx, domain.RoleEmployer)
	if err != nil {
		return err
	}
	profile, err := u.repo.Delete(ctx, caller.ID)
	if err != nil {
		return storeError(err, msgEmployerNotFound, "")
	}
	if profile.LogoKey != "" {
		u.discard(ctx, profile.LogoKey)
	}
	return nil
}

// UploadLogo normalizes the image to a bounded JPEG before storing it.
func (u *employerUsecase) UploadLogo(ctx context.Context, file domain.Upload) (profile *domain.EmployerProfile, err error) {
	defer func() { u.metrics.RecordUpload("logo", metrics.Outcome(err)) }()

	caller, err := callerWithRole(ctx, domain.RoleEmployer)
	if err != nil {
		return nil, err
	}
	check := u.policy.Validate(file.FileName, file.Data)
	if !check.Valid {
		return nil, apperror.BadRequest(check.Error)
	}
	data, err := security.NormalizeImage(file.Data, logoMaxSide, logoJPEGQuality)
	if err != nil {
		return nil, apperror.BadRequest("Logo could not be read as an image")
	}

	key := fmt.Sprintf("logos/%s/%s.jpg", caller.ID.Hex(), uuid.NewString())
	if err := u.blobs.Put(ctx, key, "image/jpeg", data); err != nil {
		return nil, apperror.Internal(err)
	}
	prev, err := u.repo.SetLogo(ctx, caller.ID, key)
	if err != nil {
		u.discard(ctx, key)
		return nil, storeError(err, msgEmployerNotFound, "")
	}
	if prev != "" && prev != key {
		u.discard(ctx, prev)
	}

	profile, err = u.repo.GetByAccountID(ctx, caller.ID)
	if err != nil {
		return nil, storeError(err, msgEmployerNotFound, "")
	}
	return profile, nil
}

func (u *employerUsecase) LogoURL(ctx context.Context) (string, error) {
	profile, err := u.GetProfile(ctx)
	if err != nil {
		return "", err
	}
	if profile.LogoKey == "" {
		return "", apperror.NotFound("Logo not found")
	}
	url, err := u.blobs.SignedURL(ctx, profile.LogoKey, u.ttl)
	if err != nil {
		return "", apperror.Internal(err)
	}
	return url, nil
}

func (u *employerUsecase) discard(ctx context.Context, key string) {
	if err := u.blobs.Delete(ctx, key); err != nil {
		logger.Log.Warn("failed to delete logo blob", "key", key, "error", err)
	}
}
