package usecase

import (
	"context"

	"workwave-backend/internal/domain"
	"workwave-backend/pkg/metrics"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// subResourceUsecase runs the add/edit/delete protocol for one collection of
// the caller's employee profile. Duplicate detection happens in the store as
// part of the write.
type subResourceUsecase[T domain.SubResource[T]] struct {
	repo       domain.EmployeeRepository
	kind       domain.SubResourceKind
	validate   *validator.Validate
	collection func(*domain.EmployeeProfile) []T
	metrics    metrics.Recorder
}

func NewSubResourceUsecase[T domain.SubResource[T]](
	repo domain.EmployeeRepository,
	kind domain.SubResourceKind,
	validate *validator.Validate,
	collection func(*domain.EmployeeProfile) []T,
	recorder metrics.Recorder,
) domain.SubResourceUsecase[T] {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &subResourceUsecase[T]{
		repo:       repo,
		kind:       kind,
		validate:   validate,
		collection: collection,
		metrics:    recorder,
	}
}

func (u *subResourceUsecase[T]) record(op string, err error) {
	u.metrics.RecordMutation(u.kind.Field, op, metrics.Outcome(err))
}

func (u *subResourceUsecase[T]) prepare(entry T) (T, error) {
	entry = entry.Normalize()
	if err := u.validate.Struct(entry); err != nil {
		return entry, invalid(err)
	}
	return entry, nil
}

func (u *subResourceUsecase[T]) Add(ctx context.Context, entry T) (list []T, err error) {
	defer func() { u.record("add", err) }()

	caller, err := callerWithRole(ctx, domain.RoleEmployee)
	if err != nil {
		return nil, err
	}
	entry, err = u.prepare(entry)
	if err != nil {
		return nil, err
	}
	entry = entry.WithID(primitive.NewObjectID())

	profile, err := u.repo.PushEntry(ctx, caller.ID, u.kind, entry, entry.DuplicateKey())
	if err != nil {
		return nil, storeError(err, "", u.kind.Label+" already added")
	}
	return u.collection(profile), nil
}

func (u *subResourceUsecase[T]) Edit(ctx context.Context, entryID primitive.ObjectID, entry T) (list []T, err error) {
	defer func() { u.record("edit", err) }()

	caller, err := callerWithRole(ctx, domain.RoleEmployee)
	if err != nil {
		return nil, err
	}
	entry, err = u.prepare(entry)
	if err != nil {
		return nil, err
	}
	entry = entry.WithID(entryID)

	profile, err := u.repo.ReplaceEntry(ctx, caller.ID, u.kind, entryID, entry, entry.DuplicateKey())
	if err != nil {
		return nil, storeError(err, u.kind.Label+" not found", u.kind.Label+" already added")
	}
	return u.collection(profile), nil
}

func (u *subResourceUsecase[T]) Delete(ctx context.Context, entryID primitive.ObjectID) (list []T, err error) {
	defer func() { u.record("delete", err) }()

	caller, err := callerWithRole(ctx, domain.RoleEmployee)
	if err != nil {
		return nil, err
	}
	profile, err := u.repo.PullEntry(ctx, caller.ID, u.kind, entryID)
	if err != nil {
		return nil, storeError(err, u.kind.Label+" not found", "")
	}
	return u.collection(profile), nil
}

// ProfileCollections bundles the usecase of every employee profile collection.
type ProfileCollections struct {
	Education      domain.SubResourceUsecase[domain.Education]
	Experience     domain.SubResourceUsecase[domain.Experience]
	Skills         domain.SubResourceUsecase[domain.Skill]
	Certifications domain.SubResourceUsecase[domain.Certification]
	Languages      domain.SubResourceUsecase[domain.Language]
	JobPreferences domain.SubResourceUsecase[domain.JobPreference]
}

func NewProfileCollections(repo domain.EmployeeRepository, validate *validator.Validate, recorder metrics.Recorder) ProfileCollections {
	return ProfileCollections{
		Education: NewSubResourceUsecase(repo, domain.KindEducation, validate,
			func(p *domain.EmployeeProfile) []domain.Education { return p.Education }, recorder),
		Experience: NewSubResourceUsecase(repo, domain.KindExperience, validate,
			func(p *domain.EmployeeProfile) []domain.Experience { return p.Experience }, recorder),
		Skills: NewSubResourceUsecase(repo, domain.KindSkill, validate,
			func(p *domain.EmployeeProfile) []domain.Skill { return p.Skills }, recorder),
		Certifications: NewSubResourceUsecase(repo, domain.KindCertification, validate,
			func(p *domain.EmployeeProfile) []domain.Certification { return p.Certifications }, recorder),
		Languages: NewSubResourceUsecase(repo, domain.KindLanguage, validate,
			func(p *domain.EmployeeProfile) []domain.Language { return p.Languages }, recorder),
		JobPreferences: NewSubResourceUsecase(repo, domain.KindJobPreference, validate,
			func(p *domain.EmployeeProfile) []domain.JobPreference { return p.JobPreferences }, recorder),
	}
}
