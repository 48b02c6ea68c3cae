package usecase

import (
	"context"
	"errors"
	"strings"

	"workwave-backend/internal/domain"
	"workwave-backend/pkg/apperror"
	"workwave-backend/pkg/metrics"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	msgInvalidCredentials = "Invalid email or password"
	msgFederatedOnly      = "This account uses Google sign-in"
)

type authUsecase struct {
	accounts  domain.AccountRepository
	employees domain.EmployeeRepository
	employers domain.EmployerRepository
	hasher    domain.PasswordHasher
	tokens    domain.TokenIssuer
	metrics   metrics.Recorder
}

func NewAuthUsecase(
	accounts domain.AccountRepository,
	employees domain.EmployeeRepository,
	employers domain.EmployerRepository,
	hasher domain.PasswordHasher,
	tokens domain.TokenIssuer,
	recorder metrics.Recorder,
) domain.AuthUsecase {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &authUsecase{
		accounts:  accounts,
		employees: employees,
		employers: employers,
		hasher:    hasher,
		tokens:    tokens,
		metrics:   recorder,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *authUsecase) result(account *domain.Account) (*domain.AuthResult, error) {
	token, err := u.tokens.Issue(account.ID.Hex(), account.Email, account.Role)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &domain.AuthResult{User: domain.NewAccountView(account), Token: token}, nil
}

func (u *authUsecase) Register(ctx context.Context, email, password string) (res *domain.AuthResult, err error) {
	defer func() { u.metrics.RecordAuth("register", metrics.Outcome(err)) }()

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperror.BadRequest("Email and password are required")
	}

	digest, err := u.hasher.Hash(password)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	account := &domain.Account{
		Email:        email,
		PasswordHash: digest,
		Provider:     domain.ProviderLocal,
		Role:         domain.RoleUnset,
	}
	if err := u.accounts.Create(ctx, account); err != nil {
		return nil, storeError(err, "", "Email already registered")
	}
	return u.result(account)
}

func (u *authUsecase) Login(ctx context.Context, email, password string) (res *domain.AuthResult, err error) {
	defer func() { u.metrics.RecordAuth("login", metrics.Outcome(err)) }()

	account, err := u.accounts.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperror.Unauthorized(msgInvalidCredentials)
		}
		return nil, apperror.Internal(err)
	}
	if account.IsFederatedOnly() || account.PasswordHash == "" {
		return nil, apperror.Unauthorized(msgFederatedOnly)
	}
	if !u.hasher.Verify(password, account.PasswordHash) {
		return nil, apperror.Unauthorized(msgInvalidCredentials)
	}
	return u.result(account)
}

// FederatedLogin signs in by (issuer, subject). An unknown subject is linked
// to an existing account with the same email, or a new account is created.
// No profile is provisioned here.
func (u *authUsecase) FederatedLogin(ctx context.Context, identity domain.FederatedIdentity) (res *domain.AuthResult, err error) {
	defer func() { u.metrics.RecordAuth("federated", metrics.Outcome(err)) }()

	identity.Email = normalizeEmail(identity.Email)
	if identity.Issuer == "" || identity.Subject == "" || identity.Email == "" {
		return nil, apperror.BadRequest("Incomplete federated identity")
	}

	account, err := u.accounts.GetByFederatedID(ctx, identity.Issuer, identity.Subject)
	if err == nil {
		return u.result(account)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, apperror.Internal(err)
	}

	account, err = u.accounts.GetByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		if account.FederatedID != "" {
			return nil, apperror.Conflict("Email is linked to another Google account")
		}
		account, err = u.accounts.LinkFederatedID(ctx, account.ID, identity.Issuer, identity.Subject)
		if err != nil {
			return nil, storeError(err, "Account not found", "Google account already linked")
		}
		return u.result(account)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, apperror.Internal(err)
	}

	account = &domain.Account{
		Email:           identity.Email,
		Provider:        domain.ProviderFederated,
		FederatedIssuer: identity.Issuer,
		FederatedID:     identity.Subject,
		DisplayName:     strings.TrimSpace(identity.Name),
		Role:            domain.RoleUnset,
	}
	if err := u.accounts.Create(ctx, account); err != nil {
		if !errors.Is(err, domain.ErrConflict) {
			return nil, apperror.Internal(err)
		}
		// A concurrent callback for the same subject won the insert.
		existing, gerr := u.accounts.GetByFederatedID(ctx, identity.Issuer, identity.Subject)
		if gerr != nil {
			return nil, storeError(gerr, "Account not found", "")
		}
		account = existing
	}
	return u.result(account)
}

func (u *authUsecase) AssignRole(ctx context.Context, role string) (res *domain.AuthResult, err error) {
	defer func() { u.metrics.RecordAuth("assign_role", metrics.Outcome(err)) }()

	caller, err := callerWithRole(ctx, "")
	if err != nil {
		return nil, err
	}
	role = strings.ToLower(strings.TrimSpace(role))
	if role != domain.RoleEmployee && role != domain.RoleEmployer {
		return nil, apperror.BadRequest("Role must be employee or employer")
	}

	account, err := u.accounts.AssignRole(ctx, caller.ID, role)
	if err != nil {
		return nil, storeError(err, "Account not found", "")
	}
	if account.Role != role {
		return nil, apperror.Conflict("Role already assigned")
	}

	switch role {
	case domain.RoleEmployee:
		_, err = u.employees.Provision(ctx, account.ID)
	case domain.RoleEmployer:
		_, err = u.employers.Provision(ctx, account.ID)
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return u.result(account)
}

func (u *authUsecase) GetCurrentUser(ctx context.Context, id primitive.ObjectID) (*domain.Account, error) {
	account, err := u.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Account not found", "")
	}
	return account, nil
}
