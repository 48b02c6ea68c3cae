package domain

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultSalaryRange = "Not Disclosed"

type Job struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	JobKey      string               `bson:"jobKey" json:"jobKey"`
	Title       string               `bson:"title" json:"title"`
	Description string               `bson:"description" json:"description"`
	Type        []string             `bson:"type" json:"type"`
	Experience  string               `bson:"experience,omitempty" json:"experience"`
	Location    string               `bson:"location,omitempty" json:"location"`
	SalaryRange string               `bson:"salaryRange" json:"salaryRange"`
	Skills      []string             `bson:"skills" json:"skills"`
	EmployerID  primitive.ObjectID   `bson:"employerId" json:"employerId"`
	Applicants  []primitive.ObjectID `bson:"applicants" json:"-"`
	IsActive    bool                 `bson:"isActive" json:"isActive"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`

	ApplicantsCount int `bson:"-" json:"applicantsCount"`
}

func (j *Job) EnsureCollections() {
	if j.Type == nil {
		j.Type = []string{}
	}
	if j.Skills == nil {
		j.Skills = []string{}
	}
	if j.Applicants == nil {
		j.Applicants = []primitive.ObjectID{}
	}
	j.ApplicantsCount = len(j.Applicants)
}

// JobInput is the create and update form for a posting.
type JobInput struct {
	Title       string   `json:"title" validate:"required,min=2,max=120"`
	Description string   `json:"description" validate:"required,max=10000"`
	Type        []string `json:"type" validate:"required,min=1,dive,oneof=full-time part-time internship contract"`
	Experience  string   `json:"experience" validate:"max=60"`
	Location    string   `json:"location" validate:"max=120"`
	SalaryRange string   `json:"salaryRange" validate:"max=60"`
	Skills      []string `json:"skills" validate:"max=50,dive,required,max=60"`
	IsActive    *bool    `json:"isActive"`
}

// Normalize lower-cases title and location so that duplicate detection and
// lookups are case-insensitive.
func (in JobInput) Normalize() JobInput {
	in.Title = strings.ToLower(strings.TrimSpace(in.Title))
	in.Description = strings.TrimSpace(in.Description)
	in.Experience = strings.TrimSpace(in.Experience)
	in.Location = strings.ToLower(strings.TrimSpace(in.Location))
	in.SalaryRange = strings.TrimSpace(in.SalaryRange)
	if in.SalaryRange == "" {
		in.SalaryRange = DefaultSalaryRange
	}
	in.Type = trimAll(in.Type)
	in.Skills = trimAll(in.Skills)
	if in.Skills == nil {
		in.Skills = []string{}
	}
	return in
}

// Applicant is one row of the applicant export.
type Applicant struct {
	Email     string
	Name      string
	Phone     string
	City      string
	Skills    []string
	HasResume bool
}

type JobRepository interface {
	// Create fails with ErrConflict when the employer already has a job with
	// the same title.
	Create(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*Job, error)
	GetByKey(ctx context.Context, jobKey string) (*Job, error)
	// Update only touches jobs owned by job.EmployerID. ErrNotFound when
	// absent or foreign, ErrConflict on a title taken by another posting.
	Update(ctx context.Context, job *Job) (*Job, error)
	Delete(ctx context.Context, employerID, jobID primitive.ObjectID) error
	// AddApplicant is ErrNotFound for an unknown job and ErrConflict when
	// the applicant is already listed.
	AddApplicant(ctx context.Context, jobID, applicantID primitive.ObjectID) error
}

type JobUsecase interface {
	CreateJob(ctx context.Context, input JobInput) (*Job, error)
	UpdateJob(ctx context.Context, jobID primitive.ObjectID, input JobInput) (*Job, error)
	DeleteJob(ctx context.Context, jobID primitive.ObjectID) error
	GetJobByKey(ctx context.Context, jobKey string) (*Job, error)
	Apply(ctx context.Context, jobID primitive.ObjectID) error
	// ExportApplicants renders the applicants of an owned job as an XLSX
	// workbook and returns it with a suggested file name.
	ExportApplicants(ctx context.Context, jobID primitive.ObjectID) ([]byte, string, error)
}
