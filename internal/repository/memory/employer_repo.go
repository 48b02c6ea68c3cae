package memory

import (
	"context"
	"sync"
	"time"

	"workwave-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EmployerRepository struct {
	mu       sync.RWMutex
	profiles map[primitive.ObjectID]domain.EmployerProfile // by account id
}

func NewEmployerRepository() *EmployerRepository {
	return &EmployerRepository{profiles: make(map[primitive.ObjectID]domain.EmployerProfile)}
}

func newEmployerProfile(accountID primitive.ObjectID) domain.EmployerProfile {
	now := time.Now().UTC()
	p := domain.EmployerProfile{
		ID:        primitive.NewObjectID(),
		AccountID: accountID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.EnsureCollections()
	return p
}

func (r *EmployerRepository) GetByAccountID(_ context.Context, accountID primitive.ObjectID) (*domain.EmployerProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[accountID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.EnsureCollections()
	return &p, nil
}

func (r *EmployerRepository) Provision(_ context.Context, accountID primitive.ObjectID) (*domain.EmployerProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[accountID]
	if !ok {
		p = newEmployerProfile(accountID)
		r.profiles[accountID] = p
	}
	return &p, nil
}

func (r *EmployerRepository) Upsert(_ context.Context, accountID primitive.ObjectID, d domain.EmployerDetails) (*domain.EmployerProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[accountID]
	if !ok {
		p = newEmployerProfile(accountID)
	}
	p.UserName = d.UserName
	p.CompanyName = d.CompanyName
	p.Industry = d.Industry
	p.CompanySize = d.CompanySize
	p.Website = d.Website
	p.Description = d.Description
	p.HRContact = d.HRContact
	if d.Location != nil {
		loc := *d.Location
		p.Location = &loc
	}
	p.UpdatedAt = time.Now().UTC()
	r.profiles[accountID] = p
	p.EnsureCollections()
	return &p, nil
}

func (r *EmployerRepository) Patch(_ context.Context, accountID primitive.ObjectID, patch domain.EmployerPatch) (*domain.EmployerProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[accountID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if patch.Location != nil {
		loc := *patch.Location
		p.Location = &loc
	}
	if patch.HR != nil {
		p.HRContact = *patch.HR
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	p.UpdatedAt = time.Now().UTC()
	r.profiles[accountID] = p
	p.EnsureCollections()
	return &p, nil
}

func (r *EmployerRepository) Delete(_ context.Context, accountID primitive.ObjectID) (*domain.EmployerProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[accountID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	delete(r.profiles, accountID)
	p.EnsureCollections()
	return &p, nil
}

func (r *EmployerRepository) SetLogo(_ context.Context, accountID primitive.ObjectID, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[accountID]
	if !ok {
		return "", domain.ErrNotFound
	}
	prev := p.LogoKey
	p.LogoKey = key
	p.UpdatedAt = time.Now().UTC()
	r.profiles[accountID] = p
	return prev, nil
}

func (r *EmployerRepository) AddJob(_ context.Context, accountID, jobID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[accountID]
	if !ok {
		return domain.ErrNotFound
	}
	for _, id := range p.JobPosted {
		if id == jobID {
			return nil
		}
	}
	p.JobPosted = append(append([]primitive.ObjectID{}, p.JobPosted...), jobID)
	r.profiles[accountID] = p
	return nil
}

func (r *EmployerRepository) RemoveJob(_ context.Context, accountID, jobID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[accountID]
	if !ok {
		return nil
	}
	kept := make([]primitive.ObjectID, 0, len(p.JobPosted))
	for _, id := range p.JobPosted {
		if id != jobID {
			kept = append(kept, id)
		}
	}
	p.JobPosted = kept
	r.profiles[accountID] = p
	return nil
}
