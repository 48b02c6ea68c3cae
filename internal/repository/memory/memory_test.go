package memory

import (
	"context"
	"sync"
	"testing"

	"workwave-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAccountRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()

	a := &domain.Account{Email: "A@x.com", Provider: domain.ProviderLocal, Role: domain.RoleUnset, PasswordHash: "h"}
	require.NoError(t, repo.Create(ctx, a))
	assert.Equal(t, "a@x.com", a.Email)

	err := repo.Create(ctx, &domain.Account{Email: "a@X.com", Provider: domain.ProviderLocal, Role: domain.RoleUnset})
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := repo.GetByEmail(ctx, " A@X.COM ")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = repo.GetByFederatedID(ctx, domain.IssuerGoogle, "sub-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	linked, err := repo.LinkFederatedID(ctx, a.ID, domain.IssuerGoogle, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "sub-1", linked.FederatedID)

	got, err = repo.GetByFederatedID(ctx, domain.IssuerGoogle, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	withRole, err := repo.AssignRole(ctx, a.ID, domain.RoleEmployee)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEmployee, withRole.Role)

	again, err := repo.AssignRole(ctx, a.ID, domain.RoleEmployer)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEmployee, again.Role)

	_, err = repo.AssignRole(ctx, primitive.NewObjectID(), domain.RoleEmployee)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEmployeeRepository_EntryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewEmployeeRepository()
	owner := primitive.NewObjectID()

	first := domain.Education{ID: primitive.NewObjectID(), Degree: "BSc", Course: "CS"}
	p, err := repo.PushEntry(ctx, owner, domain.KindEducation, first, first.DuplicateKey())
	require.NoError(t, err)
	require.Len(t, p.Education, 1)

	dup := domain.Education{ID: primitive.NewObjectID(), Degree: "BSc", Course: "CS"}
	_, err = repo.PushEntry(ctx, owner, domain.KindEducation, dup, dup.DuplicateKey())
	assert.ErrorIs(t, err, domain.ErrConflict)

	second := domain.Education{ID: primitive.NewObjectID(), Degree: "MSc", Course: "CS"}
	_, err = repo.PushEntry(ctx, owner, domain.KindEducation, second, second.DuplicateKey())
	require.NoError(t, err)

	// Editing the second entry onto the first one's key collides.
	clash := domain.Education{ID: second.ID, Degree: "BSc", Course: "CS"}
	_, err = repo.ReplaceEntry(ctx, owner, domain.KindEducation, second.ID, clash, clash.DuplicateKey())
	assert.ErrorIs(t, err, domain.ErrConflict)

	// Re-saving an entry with its own key is allowed.
	same := domain.Education{ID: second.ID, Degree: "MSc", Course: "CS"}
	p, err = repo.ReplaceEntry(ctx, owner, domain.KindEducation, second.ID, same, same.DuplicateKey())
	require.NoError(t, err)
	assert.Len(t, p.Education, 2)

	_, err = repo.ReplaceEntry(ctx, owner, domain.KindEducation, primitive.NewObjectID(), same, same.DuplicateKey())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	p, err = repo.PullEntry(ctx, owner, domain.KindEducation, first.ID)
	require.NoError(t, err)
	require.Len(t, p.Education, 1)
	assert.Equal(t, second.ID, p.Education[0].ID)

	_, err = repo.PullEntry(ctx, owner, domain.KindEducation, first.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.PullEntry(ctx, primitive.NewObjectID(), domain.KindEducation, first.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEmployeeRepository_RejectedMutationLeavesProfileUntouched(t *testing.T) {
	ctx := context.Background()
	repo := NewEmployeeRepository()
	owner := primitive.NewObjectID()

	skill := domain.Skill{ID: primitive.NewObjectID(), Name: "Go"}
	_, err := repo.PushEntry(ctx, owner, domain.KindSkill, skill, skill.DuplicateKey())
	require.NoError(t, err)

	_, err = repo.PushEntry(ctx, owner, domain.KindSkill, skill.WithID(primitive.NewObjectID()), skill.DuplicateKey())
	require.ErrorIs(t, err, domain.ErrConflict)

	p, err := repo.GetByAccountID(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, p.Skills, 1)
}

func TestEmployeeRepository_ConcurrentDuplicateAdds(t *testing.T) {
	ctx := context.Background()
	repo := NewEmployeeRepository()
	owner := primitive.NewObjectID()

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lang := domain.Language{ID: primitive.NewObjectID(), Name: "English"}
			_, err := repo.PushEntry(ctx, owner, domain.KindLanguage, lang, lang.DuplicateKey())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, domain.ErrConflict)
		}
	}
	assert.Equal(t, 1, ok)

	p, err := repo.GetByAccountID(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, p.Languages, 1)
}

func TestEmployeeRepository_Resume(t *testing.T) {
	ctx := context.Background()
	repo := NewEmployeeRepository()
	owner := primitive.NewObjectID()

	_, err := repo.SetResume(ctx, owner, domain.ResumeFile{Key: "a"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.Provision(ctx, owner)
	require.NoError(t, err)

	prev, err := repo.SetResume(ctx, owner, domain.ResumeFile{Key: "a"})
	require.NoError(t, err)
	assert.Nil(t, prev)

	prev, err = repo.SetResume(ctx, owner, domain.ResumeFile{Key: "b"})
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, "a", prev.Key)

	cleared, err := repo.ClearResume(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "b", cleared.Key)

	_, err = repo.ClearResume(ctx, owner)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestJobRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewJobRepository()
	employer := primitive.NewObjectID()

	job := &domain.Job{JobKey: "go-dev-1", Title: "go dev", EmployerID: employer, IsActive: true}
	require.NoError(t, repo.Create(ctx, job))

	err := repo.Create(ctx, &domain.Job{JobKey: "go-dev-2", Title: "go dev", EmployerID: employer})
	assert.ErrorIs(t, err, domain.ErrConflict)

	// Another employer may reuse the title.
	require.NoError(t, repo.Create(ctx, &domain.Job{JobKey: "go-dev-3", Title: "go dev", EmployerID: primitive.NewObjectID()}))

	other := &domain.Job{JobKey: "rust-dev-1", Title: "rust dev", EmployerID: employer}
	require.NoError(t, repo.Create(ctx, other))

	_, err = repo.Update(ctx, &domain.Job{ID: other.ID, Title: "go dev", EmployerID: employer})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = repo.Update(ctx, &domain.Job{ID: other.ID, Title: "rust dev", EmployerID: primitive.NewObjectID()})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	applicant := primitive.NewObjectID()
	require.NoError(t, repo.AddApplicant(ctx, job.ID, applicant))
	assert.ErrorIs(t, repo.AddApplicant(ctx, job.ID, applicant), domain.ErrConflict)
	assert.ErrorIs(t, repo.AddApplicant(ctx, primitive.NewObjectID(), applicant), domain.ErrNotFound)

	got, err := repo.GetByKey(ctx, "go-dev-1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.ApplicantsCount)

	assert.ErrorIs(t, repo.Delete(ctx, primitive.NewObjectID(), job.ID), domain.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, employer, job.ID))
	_, err = repo.GetByID(ctx, job.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
