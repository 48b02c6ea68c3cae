package domain

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUnset    = "unset"
	RoleEmployee = "employee"
	RoleEmployer = "employer"
)

const (
	ProviderLocal     = "local"
	ProviderFederated = "federated"
)

// IssuerGoogle is the only federated issuer currently wired.
const IssuerGoogle = "google"

// Account is a login identity. PasswordHash is empty exactly when Provider
// is ProviderFederated.
type Account struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email           string             `bson:"email" json:"email"`
	PasswordHash    string             `bson:"passwordHash,omitempty" json:"-"`
	Provider        string             `bson:"provider" json:"provider"`
	FederatedIssuer string             `bson:"federatedIssuer,omitempty" json:"-"`
	FederatedID     string             `bson:"federatedId,omitempty" json:"-"`
	DisplayName     string             `bson:"displayName,omitempty" json:"displayName,omitempty"`
	Role            string             `bson:"role" json:"role"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (a *Account) IsFederatedOnly() bool {
	return a.Provider == ProviderFederated
}

func (a *Account) HasRole() bool {
	return a.Role == RoleEmployee || a.Role == RoleEmployer
}

// FederatedIdentity is what an external identity provider vouches for.
type FederatedIdentity struct {
	Issuer  string
	Subject string
	Email   string
	Name    string
}

// AuthResult is returned by every flow that ends with a fresh token.
type AuthResult struct {
	User  AccountView `json:"user"`
	Token string      `json:"token"`
}

// AccountView is the public projection of an Account.
type AccountView struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Provider string `json:"provider"`
}

func NewAccountView(a *Account) AccountView {
	return AccountView{
		ID:       a.ID.Hex(),
		Email:    a.Email,
		Role:     a.Role,
		Provider: a.Provider,
	}
}

type AccountRepository interface {
	// Create stores a new account and fills in its ID. ErrConflict on a taken
	// email or federated id.
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByFederatedID(ctx context.Context, issuer, federatedID string) (*Account, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]Account, error)
	LinkFederatedID(ctx context.Context, id primitive.ObjectID, issuer, federatedID string) (*Account, error)
	// AssignRole moves an account out of RoleUnset. An account that already
	// holds a role is returned unchanged.
	AssignRole(ctx context.Context, id primitive.ObjectID, role string) (*Account, error)
}

// TokenIssuer signs bearer tokens for accounts.
type TokenIssuer interface {
	Issue(subject, email, role string) (string, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

type AuthUsecase interface {
	Register(ctx context.Context, email, password string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	FederatedLogin(ctx context.Context, identity FederatedIdentity) (*AuthResult, error)
	// AssignRole acts on the identity carried by ctx.
	AssignRole(ctx context.Context, role string) (*AuthResult, error)
	GetCurrentUser(ctx context.Context, id primitive.ObjectID) (*Account, error)
}
