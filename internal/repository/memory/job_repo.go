package memory

import (
	"context"
	"sync"
	"time"

	"workwave-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type JobRepository struct {
	mu   sync.RWMutex
	jobs map[primitive.ObjectID]domain.Job
}

func NewJobRepository() *JobRepository {
	return &JobRepository{jobs: make(map[primitive.ObjectID]domain.Job)}
}

// taken reports whether another posting already uses the employer's title
// or the job key. Callers hold the lock.
func (r *JobRepository) taken(job *domain.Job) bool {
	for id, other := range r.jobs {
		if id == job.ID {
			continue
		}
		if other.EmployerID == job.EmployerID && other.Title == job.Title {
			return true
		}
		if job.JobKey != "" && other.JobKey == job.JobKey {
			return true
		}
	}
	return false
}

func (r *JobRepository) Create(_ context.Context, job *domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job.ID.IsZero() {
		job.ID = primitive.NewObjectID()
	}
	if r.taken(job) {
		return domain.ErrConflict
	}
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	job.EnsureCollections()
	r.jobs[job.ID] = *job
	return nil
}

func (r *JobRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	j.EnsureCollections()
	return &j, nil
}

func (r *JobRepository) GetByKey(_ context.Context, jobKey string) (*domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, j := range r.jobs {
		if j.JobKey == jobKey {
			j.EnsureCollections()
			return &j, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *JobRepository) Update(_ context.Context, job *domain.Job) (*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.jobs[job.ID]
	if !ok || current.EmployerID != job.EmployerID {
		return nil, domain.ErrNotFound
	}
	probe := *job
	probe.JobKey = ""
	if r.taken(&probe) {
		return nil, domain.ErrConflict
	}
	current.Title = job.Title
	current.Description = job.Description
	current.Type = job.Type
	current.Experience = job.Experience
	current.Location = job.Location
	current.SalaryRange = job.SalaryRange
	current.Skills = job.Skills
	current.IsActive = job.IsActive
	current.UpdatedAt = time.Now().UTC()
	r.jobs[job.ID] = current
	current.EnsureCollections()
	return &current, nil
}

func (r *JobRepository) Delete(_ context.Context, employerID, jobID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[jobID]
	if !ok || j.EmployerID != employerID {
		return domain.ErrNotFound
	}
	delete(r.jobs, jobID)
	return nil
}

func (r *JobRepository) AddApplicant(_ context.Context, jobID, applicantID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	for _, id := range j.Applicants {
		if id == applicantID {
			return domain.ErrConflict
		}
	}
	j.Applicants = append(append([]primitive.ObjectID{}, j.Applicants...), applicantID)
	j.UpdatedAt = time.Now().UTC()
	r.jobs[jobID] = j
	return nil
}
