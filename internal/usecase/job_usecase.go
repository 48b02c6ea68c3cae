package usecase

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"workwave-backend/internal/domain"
	"workwave-backend/pkg/apperror"
	"workwave-backend/pkg/logger"
	"workwave-backend/pkg/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	msgJobNotFound  = "Job not found"
	jobKeySlugLimit = 40
)

type jobUsecase struct {
	jobs      domain.JobRepository
	employers domain.EmployerRepository
	employees domain.EmployeeRepository
	accounts  domain.AccountRepository
	validate  *validator.Validate
	metrics   metrics.Recorder
	now       func() time.Time
}

func NewJobUsecase(
	jobs domain.JobRepository,
	employers domain.EmployerRepository,
	employees domain.EmployeeRepository,
	accounts domain.AccountRepository,
	validate *validator.Validate,
	recorder metrics.Recorder,
) domain.JobUsecase {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &jobUsecase{
		jobs:      jobs,
		employers: employers,
		employees: employees,
		accounts:  accounts,
		validate:  validate,
		metrics:   recorder,
		now:       time.Now,
	}
}

// JobKey builds the public key of a posting: a slug of the title followed by
// the creation time in base 36.
func JobKey(title string, at time.Time) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
		if b.Len() >= jobKeySlugLimit {
			break
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "job"
	}
	return slug + "-" + strconv.FormatInt(at.UnixMilli(), 36)
}

func (u *jobUsecase) prepare(input domain.JobInput) (domain.JobInput, error) {
	input = input.Normalize()
	if err := u.validate.Struct(input); err != nil {
		return input, invalid(err)
	}
	return input, nil
}

func (u *jobUsecase) CreateJob(ctx context.Context, input domain.JobInput) (*domain.Job, error) {
	caller, err := callerWithRole(ctx, domain.RoleEmployer)
	if err != nil {
		return nil, err
	}
	input, err = u.prepare(input)
	if err != nil {
		return nil, err
	}
	if _, err := u.employers.GetByAccountID(ctx, caller.ID); err != nil {
		return nil, storeError(err, msgEmployerNotFound, "")
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}
	job := &domain.Job{
		JobKey:      JobKey(input.Title, u.now()),
		Title:       input.Title,
		Description: input.Description,
		Type:        input.Type,
		Experience:  input.Experience,
		Location:    input.Location,
		SalaryRange: input.SalaryRange,
		Skills:      input.Skills,
		EmployerID:  caller.ID,
		IsActive:    active,
	}
	if err := u.jobs.Create(ctx, job); err != nil {
		return nil, storeError(err, "", "You have already posted a job with this title")
	}
	if err := u.employers.AddJob(ctx, caller.ID, job.ID); err != nil {
		logger.Log.Warn("failed to record posted job on employer", "job_id", job.ID.Hex(), "error", err)
	}
	job.EnsureCollections()
	return job, nil
}

func (u *jobUsecase) ownedJob(ctx context.Context, employerID, jobID primitive.ObjectID) (*domain.Job, error) {
	job, err := u.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, storeError(err, msgJobNotFound, "")
	}
	if job.EmployerID != employerID {
		return nil, apperror.NotFound(msgJobNotFound)
	}
	return job, nil
}

func (u *jobUsecase) UpdateJob(ctx context.Context, jobID primitive.ObjectID, input domain.JobInput) (*domain.Job, error) {
	caller, err := callerWithRole(ctx, domain.RoleEmployer)
	if err != nil {
		return nil, err
	}
	input, err = u.prepare(input)
	if err != nil {
		return nil, err
	}
	job, err := u.ownedJob(ctx, caller.ID, jobID)
	if err != nil {
		return nil, err
	}

	job.Title = input.Title
	job.Description = input.Description
	job.Type = input.Type
	job.Experience = input.Experience
	job.Location = input.Location
	job.SalaryRange = input.SalaryRange
	job.Skills = input.Skills
	if input.IsActive != nil {
		job.IsActive = *input.IsActive
	}

	updated, err := u.jobs.Update(ctx, job)
	if err != nil {
		return nil, storeError(err, msgJobNotFound, "You have already posted a job with this title")
	}
	return updated, nil
}

func (u *jobUsecase) DeleteJob(ctx context.Context, jobID primitive.ObjectID) error {
	caller, err := callerWithRole(ctx, domain.RoleEmployer)
	if err != nil {
		return err
	}
	if err := u.jobs.Delete(ctx, caller.ID, jobID); err != nil {
		return storeError(err, msgJobNotFound, "")
	}
	if err := u.employers.RemoveJob(ctx, caller.ID, jobID); err != nil {
		logger.Log.Warn("failed to remove job from employer", "job_id", jobID.Hex(), "error", err)
	}
	if err := u.employees.RemoveAppliedJob(ctx, jobID); err != nil {
		logger.Log.Warn("failed to remove job from applicants", "job_id", jobID.Hex(), "error", err)
	}
	return nil
}

func (u *jobUsecase) GetJobByKey(ctx context.Context, jobKey string) (*domain.Job, error) {
	jobKey = strings.TrimSpace(jobKey)
	if jobKey == "" {
		return nil, apperror.BadRequest("Job key is required")
	}
	job, err := u.jobs.GetByKey(ctx, jobKey)
	if err != nil {
		return nil, storeError(err, msgJobNotFound, "")
	}
	return job, nil
}

func (u *jobUsecase) Apply(ctx context.Context, jobID primitive.ObjectID) (err error) {
	defer func() { u.metrics.RecordApplication(metrics.Outcome(err)) }()

	caller, err := callerWithRole(ctx, domain.RoleEmployee)
	if err != nil {
		return err
	}
	profile, err := u.employees.GetByAccountID(ctx, caller.ID)
	if err != nil {
		return storeError(err, "Employee profile not found", "")
	}
	job, err := u.jobs.GetByID(ctx, jobID)
	if err != nil {
		return storeError(err, msgJobNotFound, "")
	}
	if !job.IsActive {
		return apperror.BadRequest("This job is no longer accepting applications")
	}
	if err := u.jobs.AddApplicant(ctx, jobID, profile.ID); err != nil {
		return storeError(err, msgJobNotFound, "You have already applied to this job")
	}
	if err := u.employees.AddAppliedJob(ctx, profile.ID, jobID); err != nil {
		logger.Log.Warn("failed to record applied job on profile", "job_id", jobID.Hex(), "error", err)
	}
	return nil
}

func (u *jobUsecase) ExportApplicants(ctx context.Context, jobID primitive.ObjectID) ([]byte, string, error) {
	caller, err := callerWithRole(ctx, domain.RoleEmployer)
	if err != nil {
		return nil, "", err
	}
	job, err := u.ownedJob(ctx, caller.ID, jobID)
	if err != nil {
		return nil, "", err
	}
	applicants, err := u.applicants(ctx, job)
	if err != nil {
		return nil, "", apperror.Internal(err)
	}
	data, err := exportApplicantsExcel(applicants)
	if err != nil {
		return nil, "", apperror.Internal(err)
	}
	filename := fmt.Sprintf("applicants_%s_%s.xlsx", job.JobKey, u.now().Format("20060102_150405"))
	return data, filename, nil
}

// applicants resolves profile ids to rows, in application order.
func (u *jobUsecase) applicants(ctx context.Context, job *domain.Job) ([]domain.Applicant, error) {
	profiles, err := u.employees.FindByIDs(ctx, job.Applicants)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]domain.EmployeeProfile, len(profiles))
	accountIDs := make([]primitive.ObjectID, 0, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
		accountIDs = append(accountIDs, p.AccountID)
	}
	accounts, err := u.accounts.FindByIDs(ctx, accountIDs)
	if err != nil {
		return nil, err
	}
	emails := make(map[primitive.ObjectID]string, len(accounts))
	for _, a := range accounts {
		emails[a.ID] = a.Email
	}

	rows := make([]domain.Applicant, 0, len(job.Applicants))
	for _, id := range job.Applicants {
		p, ok := byID[id]
		if !ok {
			continue
		}
		row := domain.Applicant{
			Email:     emails[p.AccountID],
			Name:      p.UserName,
			Phone:     p.Phone,
			HasResume: p.Resume != nil,
		}
		if p.Location != nil {
			row.City = p.Location.CityState
		}
		for _, s := range p.Skills {
			row.Skills = append(row.Skills, s.Name)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func exportApplicantsExcel(applicants []domain.Applicant) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Applicants"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	headers := []string{"EMAIL", "NAME", "PHONE", "CITY", "SKILLS", "RESUME"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, h)
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#1E3A5F"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	endCell, _ := excelize.CoordinatesToCellName(len(headers), 1)
	f.SetCellStyle(sheetName, "A1", endCell, headerStyle)

	for rowIdx, a := range applicants {
		resume := "NO"
		if a.HasResume {
			resume = "YES"
		}
		values := []interface{}{a.Email, a.Name, a.Phone, a.City, strings.Join(a.Skills, ", "), resume}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, v)
		}
	}

	for i := range headers {
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 24)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}
