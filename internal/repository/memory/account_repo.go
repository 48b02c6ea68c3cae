package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"workwave-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccountRepository keeps accounts in process. Lookups return copies so
// callers never share state with the store.
type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[primitive.ObjectID]domain.Account
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{accounts: make(map[primitive.ObjectID]domain.Account)}
}

func (r *AccountRepository) Create(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account.Email = strings.ToLower(strings.TrimSpace(account.Email))
	for _, existing := range r.accounts {
		if existing.Email == account.Email {
			return domain.ErrConflict
		}
		if account.FederatedID != "" && existing.FederatedIssuer == account.FederatedIssuer && existing.FederatedID == account.FederatedID {
			return domain.ErrConflict
		}
	}
	if account.ID.IsZero() {
		account.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	r.accounts[account.ID] = *account
	return nil
}

func (r *AccountRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (r *AccountRepository) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.accounts {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *AccountRepository) GetByFederatedID(_ context.Context, issuer, federatedID string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.accounts {
		if a.FederatedID != "" && a.FederatedIssuer == issuer && a.FederatedID == federatedID {
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *AccountRepository) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.Account{}
	for _, id := range ids {
		if a, ok := r.accounts[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *AccountRepository) LinkFederatedID(_ context.Context, id primitive.ObjectID, issuer, federatedID string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	for otherID, other := range r.accounts {
		if otherID != id && other.FederatedIssuer == issuer && other.FederatedID == federatedID {
			return nil, domain.ErrConflict
		}
	}
	a.FederatedIssuer = issuer
	a.FederatedID = federatedID
	a.UpdatedAt = time.Now().UTC()
	r.accounts[id] = a
	return &a, nil
}

func (r *AccountRepository) AssignRole(_ context.Context, id primitive.ObjectID, role string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if a.Role == domain.RoleUnset || a.Role == "" {
		a.Role = role
		a.UpdatedAt = time.Now().UTC()
		r.accounts[id] = a
	}
	return &a, nil
}

// Remove deletes an account. Used by tests to simulate an account that
// disappears while its tokens are still valid.
func (r *AccountRepository) Remove(id primitive.ObjectID) {
	r.mu.Lock()
	delete(r.accounts, id)
	r.mu.Unlock()
}
