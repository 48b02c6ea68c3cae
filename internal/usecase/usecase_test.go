package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"workwave-backend/internal/domain"
	"workwave-backend/internal/repository/memory"
	"workwave-backend/internal/usecase"
	"workwave-backend/pkg/apperror"
	"workwave-backend/pkg/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// Mock Repositories
type MockAccountRepo struct {
	mock.Mock
}

func (m *MockAccountRepo) Create(ctx context.Context, account *domain.Account) error {
	return m.Called(ctx, account).Error(0)
}

func (m *MockAccountRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepo) GetByFederatedID(ctx context.Context, issuer, federatedID string) (*domain.Account, error) {
	args := m.Called(ctx, issuer, federatedID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepo) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Account, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepo) LinkFederatedID(ctx context.Context, id primitive.ObjectID, issuer, federatedID string) (*domain.Account, error) {
	args := m.Called(ctx, id, issuer, federatedID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepo) AssignRole(ctx context.Context, id primitive.ObjectID, role string) (*domain.Account, error) {
	args := m.Called(ctx, id, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

type recordedMutation struct {
	kind, op, outcome string
}

// fakeRecorder keeps what usecases record so tests can assert on it.
type fakeRecorder struct {
	auth         []string
	mutations    []recordedMutation
	uploads      []string
	applications []string
}

func (f *fakeRecorder) RecordHTTPRequest(string, string, int, time.Duration) {}
func (f *fakeRecorder) RecordAuth(flow, outcome string)                      { f.auth = append(f.auth, flow+":"+outcome) }
func (f *fakeRecorder) RecordMutation(kind, op, outcome string) {
	f.mutations = append(f.mutations, recordedMutation{kind, op, outcome})
}
func (f *fakeRecorder) RecordUpload(kind, outcome string) { f.uploads = append(f.uploads, kind+":"+outcome) }
func (f *fakeRecorder) RecordApplication(outcome string)  { f.applications = append(f.applications, outcome) }

func asEmployee(id primitive.ObjectID) context.Context {
	return domain.WithIdentity(context.Background(), domain.Identity{ID: id, Email: "worker@example.com", Role: domain.RoleEmployee})
}

func asEmployer(id primitive.ObjectID) context.Context {
	return domain.WithIdentity(context.Background(), domain.Identity{ID: id, Email: "hr@example.com", Role: domain.RoleEmployer})
}

func asUnset(id primitive.ObjectID) context.Context {
	return domain.WithIdentity(context.Background(), domain.Identity{ID: id, Email: "new@example.com", Role: domain.RoleUnset})
}

func assertAppError(t *testing.T, err error, code int, message string) {
	t.Helper()
	require.Error(t, err)
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T", err)
	assert.Equal(t, code, appErr.Code)
	if message != "" {
		assert.Equal(t, message, appErr.Message)
	}
}

type authFixture struct {
	uc        domain.AuthUsecase
	accounts  *memory.AccountRepository
	employees *memory.EmployeeRepository
	employers *memory.EmployerRepository
	tokens    *auth.TokenService
	recorder  *fakeRecorder
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		accounts:  memory.NewAccountRepository(),
		employees: memory.NewEmployeeRepository(),
		employers: memory.NewEmployerRepository(),
		tokens:    auth.NewTokenService("test-secret", "workwave", time.Hour),
		recorder:  &fakeRecorder{},
	}
	f.uc = usecase.NewAuthUsecase(f.accounts, f.employees, f.employers,
		auth.NewPasswordHasher(bcrypt.MinCost), f.tokens, f.recorder)
	return f
}

func TestAuthRegisterAndLogin(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	res, err := f.uc.Register(ctx, "  Ada@Example.com ", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", res.User.Email)
	assert.Equal(t, domain.RoleUnset, res.User.Role)
	assert.Equal(t, domain.ProviderLocal, res.User.Provider)

	claims, err := f.tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.Subject)

	t.Run("Should reject a second registration of the same email", func(t *testing.T) {
		_, err := f.uc.Register(ctx, "ADA@example.com", "another-pass")
		assertAppError(t, err, http.StatusConflict, "Email already registered")
	})

	t.Run("Should reject empty credentials", func(t *testing.T) {
		_, err := f.uc.Register(ctx, " ", "")
		assertAppError(t, err, http.StatusBadRequest, "Email and password are required")
	})

	t.Run("Should log in with the right password", func(t *testing.T) {
		res, err := f.uc.Login(ctx, "ada@example.com", "s3cret-pass")
		require.NoError(t, err)
		assert.NotEmpty(t, res.Token)
	})

	t.Run("Should give the same answer for a wrong password and an unknown email", func(t *testing.T) {
		_, err := f.uc.Login(ctx, "ada@example.com", "wrong")
		assertAppError(t, err, http.StatusUnauthorized, "Invalid email or password")

		_, err = f.uc.Login(ctx, "nobody@example.com", "s3cret-pass")
		assertAppError(t, err, http.StatusUnauthorized, "Invalid email or password")
	})

	assert.Contains(t, f.recorder.auth, "register:ok")
	assert.Contains(t, f.recorder.auth, "register:error")
	assert.Contains(t, f.recorder.auth, "login:error")
}

func TestAuthLoginFederatedOnlyAccount(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	_, err := f.uc.FederatedLogin(ctx, domain.FederatedIdentity{
		Issuer: domain.IssuerGoogle, Subject: "g-1", Email: "fed@example.com", Name: "Fed",
	})
	require.NoError(t, err)

	_, err = f.uc.Login(ctx, "fed@example.com", "anything")
	assertAppError(t, err, http.StatusUnauthorized, "This account uses Google sign-in")
}

func TestAuthLoginStoreFailure(t *testing.T) {
	repo := new(MockAccountRepo)
	uc := usecase.NewAuthUsecase(repo, nil, nil, auth.NewPasswordHasher(bcrypt.MinCost),
		auth.NewTokenService("secret", "workwave", time.Hour), nil)

	repo.On("GetByEmail", mock.Anything, "ada@example.com").Return(nil, errors.New("connection reset"))

	_, err := uc.Login(context.Background(), "Ada@example.com", "pass")
	assertAppError(t, err, http.StatusInternalServerError, "")
	repo.AssertExpectations(t)
}

func TestAuthFederatedLogin(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	identity := domain.FederatedIdentity{Issuer: domain.IssuerGoogle, Subject: "g-100", Email: "New@Example.com", Name: " New User "}

	first, err := f.uc.FederatedLogin(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", first.User.Email)
	assert.Equal(t, domain.ProviderFederated, first.User.Provider)
	assert.Equal(t, domain.RoleUnset, first.User.Role)

	t.Run("Should not provision any profile", func(t *testing.T) {
		id, _ := primitive.ObjectIDFromHex(first.User.ID)
		_, err := f.employees.GetByAccountID(ctx, id)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = f.employers.GetByAccountID(ctx, id)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Should return the same account on the next sign-in", func(t *testing.T) {
		again, err := f.uc.FederatedLogin(ctx, identity)
		require.NoError(t, err)
		assert.Equal(t, first.User.ID, again.User.ID)
	})

	t.Run("Should link a local account with the same email", func(t *testing.T) {
		local, err := f.uc.Register(ctx, "local@example.com", "pass-1234")
		require.NoError(t, err)

		linked, err := f.uc.FederatedLogin(ctx, domain.FederatedIdentity{
			Issuer: domain.IssuerGoogle, Subject: "g-200", Email: "local@example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, local.User.ID, linked.User.ID)

		// Password sign-in keeps working after linking.
		_, err = f.uc.Login(ctx, "local@example.com", "pass-1234")
		assert.NoError(t, err)
	})

	t.Run("Should refuse an email already linked to another subject", func(t *testing.T) {
		_, err := f.uc.FederatedLogin(ctx, domain.FederatedIdentity{
			Issuer: domain.IssuerGoogle, Subject: "g-999", Email: "new@example.com",
		})
		assertAppError(t, err, http.StatusConflict, "Email is linked to another Google account")
	})

	t.Run("Should reject an incomplete identity", func(t *testing.T) {
		_, err := f.uc.FederatedLogin(ctx, domain.FederatedIdentity{Issuer: domain.IssuerGoogle, Email: "x@example.com"})
		assertAppError(t, err, http.StatusBadRequest, "")
	})
}

func TestAuthFederatedLoginCreateRace(t *testing.T) {
	repo := new(MockAccountRepo)
	uc := usecase.NewAuthUsecase(repo, nil, nil, auth.NewPasswordHasher(bcrypt.MinCost),
		auth.NewTokenService("secret", "workwave", time.Hour), nil)
	winner := &domain.Account{ID: primitive.NewObjectID(), Email: "race@example.com", Provider: domain.ProviderFederated, Role: domain.RoleUnset}

	repo.On("GetByFederatedID", mock.Anything, domain.IssuerGoogle, "g-race").Return(nil, domain.ErrNotFound).Once()
	repo.On("GetByEmail", mock.Anything, "race@example.com").Return(nil, domain.ErrNotFound).Once()
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Account")).Return(domain.ErrConflict).Once()
	repo.On("GetByFederatedID", mock.Anything, domain.IssuerGoogle, "g-race").Return(winner, nil).Once()

	res, err := uc.FederatedLogin(context.Background(), domain.FederatedIdentity{
		Issuer: domain.IssuerGoogle, Subject: "g-race", Email: "race@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, winner.ID.Hex(), res.User.ID)
	repo.AssertExpectations(t)
}

func TestAuthAssignRole(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	reg, err := f.uc.Register(ctx, "role@example.com", "pass-1234")
	require.NoError(t, err)
	id, err := primitive.ObjectIDFromHex(reg.User.ID)
	require.NoError(t, err)

	t.Run("Should fail safely without an identity", func(t *testing.T) {
		_, err := f.uc.AssignRole(ctx, domain.RoleEmployee)
		assertAppError(t, err, http.StatusUnauthorized, "User not authenticated")
	})

	t.Run("Should reject an unknown role", func(t *testing.T) {
		_, err := f.uc.AssignRole(asUnset(id), "admin")
		assertAppError(t, err, http.StatusBadRequest, "Role must be employee or employer")
	})

	t.Run("Should assign the role and provision the profile", func(t *testing.T) {
		res, err := f.uc.AssignRole(asUnset(id), " Employee ")
		require.NoError(t, err)
		assert.Equal(t, domain.RoleEmployee, res.User.Role)

		claims, err := f.tokens.Verify(res.Token)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleEmployee, claims.Role)

		profile, err := f.employees.GetByAccountID(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, profile.Education)
	})

	t.Run("Should be idempotent for the same role", func(t *testing.T) {
		res, err := f.uc.AssignRole(asEmployee(id), domain.RoleEmployee)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleEmployee, res.User.Role)
	})

	t.Run("Should refuse to change an assigned role", func(t *testing.T) {
		_, err := f.uc.AssignRole(asEmployee(id), domain.RoleEmployer)
		assertAppError(t, err, http.StatusConflict, "Role already assigned")

		_, err = f.employers.GetByAccountID(ctx, id)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Should report a vanished account as not found", func(t *testing.T) {
		f.accounts.Remove(id)
		_, err := f.uc.AssignRole(asEmployee(id), domain.RoleEmployee)
		assertAppError(t, err, http.StatusNotFound, "Account not found")
	})
}

func TestAuthGetCurrentUser(t *testing.T) {
	repo := new(MockAccountRepo)
	uc := usecase.NewAuthUsecase(repo, nil, nil, nil, nil, nil)
	known := &domain.Account{ID: primitive.NewObjectID(), Email: "me@example.com", Role: domain.RoleEmployer}
	missing := primitive.NewObjectID()

	repo.On("GetByID", mock.Anything, known.ID).Return(known, nil)
	repo.On("GetByID", mock.Anything, missing).Return(nil, domain.ErrNotFound)

	got, err := uc.GetCurrentUser(context.Background(), known.ID)
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", got.Email)

	_, err = uc.GetCurrentUser(context.Background(), missing)
	assertAppError(t, err, http.StatusNotFound, "Account not found")
}

func TestHealthCheck(t *testing.T) {
	ok := usecase.PingFunc(func(context.Context) error { return nil })
	down := usecase.PingFunc(func(context.Context) error { return errors.New("refused") })

	healthy, status := usecase.NewHealthUsecase(map[string]usecase.Pinger{"mongo": ok}).Check(context.Background())
	assert.True(t, healthy)
	assert.Equal(t, map[string]string{"status": "ok", "mongo": "up"}, status)

	healthy, status = usecase.NewHealthUsecase(map[string]usecase.Pinger{"mongo": ok, "redis": down}).Check(context.Background())
	assert.False(t, healthy)
	assert.Equal(t, "degraded", status["status"])
	assert.Equal(t, "down", status["redis"])
}
