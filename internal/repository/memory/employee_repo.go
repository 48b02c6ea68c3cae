package memory

import (
	"context"
	"sync"
	"time"

	"workwave-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EmployeeRepository is the in-process employee profile store. Every
// mutation runs its check and write under one lock.
type EmployeeRepository struct {
	mu       sync.RWMutex
	profiles map[primitive.ObjectID]domain.EmployeeProfile // by account id
}

func NewEmployeeRepository() *EmployeeRepository {
	return &EmployeeRepository{profiles: make(map[primitive.ObjectID]domain.EmployeeProfile)}
}

func newEmployeeProfile(accountID primitive.ObjectID) domain.EmployeeProfile {
	now := time.Now().UTC()
	p := domain.EmployeeProfile{
		ID:        primitive.NewObjectID(),
		AccountID: accountID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.EnsureCollections()
	return p
}

func (r *EmployeeRepository) GetByAccountID(_ context.Context, accountID primitive.ObjectID) (*domain.EmployeeProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[accountID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *EmployeeRepository) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.EmployeeProfile, error) {
	want := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.EmployeeProfile{}
	for _, p := range r.profiles {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *EmployeeRepository) Provision(_ context.Context, accountID primitive.ObjectID) (*domain.EmployeeProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[accountID]
	if !ok {
		p = newEmployeeProfile(accountID)
		r.profiles[accountID] = p
	}
	return &p, nil
}

func (r *EmployeeRepository) UpdateDetails(_ context.Context, accountID primitive.ObjectID, details domain.EmployeeDetails) (*domain.EmployeeProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[accountID]
	if !ok {
		p = newEmployeeProfile(accountID)
	}
	p.UserName = details.UserName
	p.Phone = details.Phone
	if details.Location != nil {
		loc := *details.Location
		p.Location = &loc
	}
	p.UpdatedAt = time.Now().UTC()
	r.profiles[accountID] = p
	return &p, nil
}

// mutate runs fn on a copy of the profile and stores the copy only when fn
// succeeds. With upsert a missing profile is created first.
func (r *EmployeeRepository) mutate(accountID primitive.ObjectID, upsert bool, fn func(p *domain.EmployeeProfile) error) (*domain.EmployeeProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[accountID]
	if !ok {
		if !upsert {
			return nil, domain.ErrNotFound
		}
		p = newEmployeeProfile(accountID)
	}
	if err := fn(&p); err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Now().UTC()
	r.profiles[accountID] = p
	return &p, nil
}

func (r *EmployeeRepository) PushEntry(_ context.Context, accountID primitive.ObjectID, kind domain.SubResourceKind, entry interface{}, dupKey bson.M) (*domain.EmployeeProfile, error) {
	return r.mutate(accountID, true, func(p *domain.EmployeeProfile) error {
		return applyPush(p, kind, entry, dupKey)
	})
}

func (r *EmployeeRepository) ReplaceEntry(_ context.Context, accountID primitive.ObjectID, kind domain.SubResourceKind, entryID primitive.ObjectID, entry interface{}, dupKey bson.M) (*domain.EmployeeProfile, error) {
	return r.mutate(accountID, false, func(p *domain.EmployeeProfile) error {
		return applyReplace(p, kind, entryID, entry, dupKey)
	})
}

func (r *EmployeeRepository) PullEntry(_ context.Context, accountID primitive.ObjectID, kind domain.SubResourceKind, entryID primitive.ObjectID) (*domain.EmployeeProfile, error) {
	return r.mutate(accountID, false, func(p *domain.EmployeeProfile) error {
		return applyPull(p, kind, entryID)
	})
}

func (r *EmployeeRepository) SetResume(_ context.Context, accountID primitive.ObjectID, resume domain.ResumeFile) (*domain.ResumeFile, error) {
	var prev *domain.ResumeFile
	_, err := r.mutate(accountID, false, func(p *domain.EmployeeProfile) error {
		prev = p.Resume
		next := resume
		p.Resume = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return prev, nil
}

func (r *EmployeeRepository) ClearResume(_ context.Context, accountID primitive.ObjectID) (*domain.ResumeFile, error) {
	var prev *domain.ResumeFile
	_, err := r.mutate(accountID, false, func(p *domain.EmployeeProfile) error {
		if p.Resume == nil {
			return domain.ErrNotFound
		}
		prev = p.Resume
		p.Resume = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	return prev, nil
}

func (r *EmployeeRepository) AddAppliedJob(_ context.Context, profileID, jobID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for accountID, p := range r.profiles {
		if p.ID != profileID {
			continue
		}
		for _, id := range p.AppliedJobs {
			if id == jobID {
				return nil
			}
		}
		p.AppliedJobs = append(append([]primitive.ObjectID{}, p.AppliedJobs...), jobID)
		p.UpdatedAt = time.Now().UTC()
		r.profiles[accountID] = p
		return nil
	}
	return domain.ErrNotFound
}

func (r *EmployeeRepository) RemoveAppliedJob(_ context.Context, jobID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for accountID, p := range r.profiles {
		kept := make([]primitive.ObjectID, 0, len(p.AppliedJobs))
		for _, id := range p.AppliedJobs {
			if id != jobID {
				kept = append(kept, id)
			}
		}
		if len(kept) != len(p.AppliedJobs) {
			p.AppliedJobs = kept
			r.profiles[accountID] = p
		}
	}
	return nil
}
