package usecase_test

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"workwave-backend/internal/domain"
	"workwave-backend/internal/repository/memory"
	"workwave-backend/internal/usecase"
	"workwave-backend/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type jobFixture struct {
	uc        domain.JobUsecase
	jobs      *memory.JobRepository
	employers *memory.EmployerRepository
	employees *memory.EmployeeRepository
	accounts  *memory.AccountRepository
	recorder  *fakeRecorder
}

func newJobFixture() *jobFixture {
	f := &jobFixture{
		jobs:      memory.NewJobRepository(),
		employers: memory.NewEmployerRepository(),
		employees: memory.NewEmployeeRepository(),
		accounts:  memory.NewAccountRepository(),
		recorder:  &fakeRecorder{},
	}
	f.uc = usecase.NewJobUsecase(f.jobs, f.employers, f.employees, f.accounts, validation.New(), f.recorder)
	return f
}

func (f *jobFixture) employer(t *testing.T) primitive.ObjectID {
	t.Helper()
	id := primitive.NewObjectID()
	_, err := f.employers.Provision(context.Background(), id)
	require.NoError(t, err)
	return id
}

func (f *jobFixture) employee(t *testing.T, email, name string) primitive.ObjectID {
	t.Helper()
	account := &domain.Account{Email: email, Provider: domain.ProviderLocal, Role: domain.RoleEmployee}
	require.NoError(t, f.accounts.Create(context.Background(), account))
	_, err := f.employees.UpdateDetails(context.Background(), account.ID, domain.EmployeeDetails{
		UserName: name,
		Phone:    "9876543210",
		Location: &domain.EmployeeLocation{CityState: "Pune"},
	})
	require.NoError(t, err)
	return account.ID
}

func backendJob() domain.JobInput {
	return domain.JobInput{
		Title:       " Backend Engineer ",
		Description: "Build APIs",
		Type:        []string{"full-time"},
		Location:    "Pune",
		Skills:      []string{"Go", " MongoDB "},
	}
}

func TestJobKey(t *testing.T) {
	at := time.UnixMilli(1700000000000)

	assert.Equal(t, "backend-engineer-loyw3v28", usecase.JobKey("Backend Engineer!!", at))
	assert.Equal(t, "c-net-dev-loyw3v28", usecase.JobKey("  C#/.NET   dev ", at))
	assert.Equal(t, "job-loyw3v28", usecase.JobKey("🚀🚀", at))
	assert.LessOrEqual(t, len(strings.Split(usecase.JobKey(strings.Repeat("word ", 40), at), "-loyw3v28")[0]), 40)
}

func TestJobPostingLifecycle(t *testing.T) {
	f := newJobFixture()
	owner := f.employer(t)
	ctx := asEmployer(owner)

	job, err := f.uc.CreateJob(ctx, backendJob())
	require.NoError(t, err)
	assert.Equal(t, "backend engineer", job.Title)
	assert.Equal(t, "pune", job.Location)
	assert.Equal(t, domain.DefaultSalaryRange, job.SalaryRange)
	assert.Equal(t, []string{"Go", "MongoDB"}, job.Skills)
	assert.True(t, job.IsActive)
	assert.True(t, strings.HasPrefix(job.JobKey, "backend-engineer-"))

	employer, err := f.employers.GetByAccountID(context.Background(), owner)
	require.NoError(t, err)
	assert.Contains(t, employer.JobPosted, job.ID)

	t.Run("Should reject a second posting with the same title", func(t *testing.T) {
		in := backendJob()
		in.Title = "BACKEND ENGINEER"
		_, err := f.uc.CreateJob(ctx, in)
		assertAppError(t, err, http.StatusConflict, "You have already posted a job with this title")
	})

	t.Run("Should let another employer reuse the title", func(t *testing.T) {
		// Job keys carry millisecond time.
		time.Sleep(2 * time.Millisecond)
		_, err := f.uc.CreateJob(asEmployer(f.employer(t)), backendJob())
		assert.NoError(t, err)
	})

	t.Run("Should require an employer profile", func(t *testing.T) {
		_, err := f.uc.CreateJob(asEmployer(primitive.NewObjectID()), backendJob())
		assertAppError(t, err, http.StatusNotFound, "Employer profile not found")
	})

	t.Run("Should reject an unknown job type", func(t *testing.T) {
		in := backendJob()
		in.Title = "Other"
		in.Type = []string{"gig"}
		_, err := f.uc.CreateJob(ctx, in)
		assertAppError(t, err, http.StatusBadRequest, "")
	})

	t.Run("Should find the job by key", func(t *testing.T) {
		got, err := f.uc.GetJobByKey(context.Background(), job.JobKey)
		require.NoError(t, err)
		assert.Equal(t, job.ID, got.ID)

		_, err = f.uc.GetJobByKey(context.Background(), "missing-key")
		assertAppError(t, err, http.StatusNotFound, "Job not found")
	})

	t.Run("Should update and keep the active flag when omitted", func(t *testing.T) {
		in := backendJob()
		in.SalaryRange = "10-20 LPA"
		updated, err := f.uc.UpdateJob(ctx, job.ID, in)
		require.NoError(t, err)
		assert.Equal(t, "10-20 LPA", updated.SalaryRange)
		assert.True(t, updated.IsActive)
		assert.Equal(t, job.JobKey, updated.JobKey)
	})

	t.Run("Should hide jobs owned by someone else", func(t *testing.T) {
		_, err := f.uc.UpdateJob(asEmployer(f.employer(t)), job.ID, backendJob())
		assertAppError(t, err, http.StatusNotFound, "Job not found")

		err = f.uc.DeleteJob(asEmployer(f.employer(t)), job.ID)
		assertAppError(t, err, http.StatusNotFound, "Job not found")
	})

	t.Run("Should forbid employees from posting", func(t *testing.T) {
		_, err := f.uc.CreateJob(asEmployee(owner), backendJob())
		assertAppError(t, err, http.StatusForbidden, "Access denied")
	})
}

func TestJobApplications(t *testing.T) {
	f := newJobFixture()
	owner := f.employer(t)
	job, err := f.uc.CreateJob(asEmployer(owner), backendJob())
	require.NoError(t, err)

	priya := f.employee(t, "priya@example.com", "Priya Sharma")
	ctx := asEmployee(priya)

	require.NoError(t, f.uc.Apply(ctx, job.ID))

	profile, err := f.employees.GetByAccountID(context.Background(), priya)
	require.NoError(t, err)
	assert.Contains(t, profile.AppliedJobs, job.ID)

	t.Run("Should refuse a second application", func(t *testing.T) {
		err := f.uc.Apply(ctx, job.ID)
		assertAppError(t, err, http.StatusConflict, "You have already applied to this job")
	})

	t.Run("Should report an unknown job", func(t *testing.T) {
		err := f.uc.Apply(ctx, primitive.NewObjectID())
		assertAppError(t, err, http.StatusNotFound, "Job not found")
	})

	t.Run("Should require an employee profile", func(t *testing.T) {
		err := f.uc.Apply(asEmployee(primitive.NewObjectID()), job.ID)
		assertAppError(t, err, http.StatusNotFound, "Employee profile not found")
	})

	t.Run("Should refuse closed postings", func(t *testing.T) {
		in := backendJob()
		in.Title = "Closed role"
		closed := false
		in.IsActive = &closed
		inactive, err := f.uc.CreateJob(asEmployer(owner), in)
		require.NoError(t, err)
		assert.False(t, inactive.IsActive)

		err = f.uc.Apply(ctx, inactive.ID)
		assertAppError(t, err, http.StatusBadRequest, "This job is no longer accepting applications")
	})

	assert.Equal(t, "ok", f.recorder.applications[0])
	assert.Contains(t, f.recorder.applications, "error")

	t.Run("Should detach the job everywhere when it is deleted", func(t *testing.T) {
		require.NoError(t, f.uc.DeleteJob(asEmployer(owner), job.ID))

		profile, err := f.employees.GetByAccountID(context.Background(), priya)
		require.NoError(t, err)
		assert.NotContains(t, profile.AppliedJobs, job.ID)

		employer, err := f.employers.GetByAccountID(context.Background(), owner)
		require.NoError(t, err)
		assert.NotContains(t, employer.JobPosted, job.ID)

		_, err = f.uc.GetJobByKey(context.Background(), job.JobKey)
		assertAppError(t, err, http.StatusNotFound, "Job not found")
	})
}

func TestJobExportApplicants(t *testing.T) {
	f := newJobFixture()
	owner := f.employer(t)
	job, err := f.uc.CreateJob(asEmployer(owner), backendJob())
	require.NoError(t, err)

	priya := f.employee(t, "priya@example.com", "Priya Sharma")
	arjun := f.employee(t, "arjun@example.com", "Arjun Rao")
	cols := usecase.NewProfileCollections(f.employees, validation.New(), nil)
	_, err = cols.Skills.Add(asEmployee(priya), domain.Skill{Name: "Go"})
	require.NoError(t, err)
	_, err = cols.Skills.Add(asEmployee(priya), domain.Skill{Name: "Kafka"})
	require.NoError(t, err)
	_, err = f.employees.SetResume(context.Background(), priya, domain.ResumeFile{Key: "resumes/x.pdf", FileName: "cv.pdf"})
	require.NoError(t, err)

	require.NoError(t, f.uc.Apply(asEmployee(priya), job.ID))
	require.NoError(t, f.uc.Apply(asEmployee(arjun), job.ID))

	t.Run("Should only export for the owner", func(t *testing.T) {
		_, _, err := f.uc.ExportApplicants(asEmployer(f.employer(t)), job.ID)
		assertAppError(t, err, http.StatusNotFound, "Job not found")
	})

	data, filename, err := f.uc.ExportApplicants(asEmployer(owner), job.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filename, "applicants_"+job.JobKey+"_"))
	assert.True(t, strings.HasSuffix(filename, ".xlsx"))

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows("Applicants")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"EMAIL", "NAME", "PHONE", "CITY", "SKILLS", "RESUME"}, rows[0])
	assert.Equal(t, []string{"priya@example.com", "Priya Sharma", "9876543210", "Pune", "Go, Kafka", "YES"}, rows[1])
	assert.Equal(t, "arjun@example.com", rows[2][0])
	assert.Equal(t, "NO", rows[2][5])
}
