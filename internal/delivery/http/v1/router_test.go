package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"workwave-backend/config"
	"workwave-backend/docs"
	v1 "workwave-backend/internal/delivery/http/v1"
	"workwave-backend/internal/domain"
	"workwave-backend/internal/repository/memory"
	"workwave-backend/internal/usecase"
	"workwave-backend/pkg/auth"
	"workwave-backend/pkg/security"
	"workwave-backend/pkg/storage"
	"workwave-backend/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

func testConfig() *config.Config {
	return &config.Config{
		GinMode:                  gin.TestMode,
		AppEnv:                   "test",
		JWTSecret:                "test-secret",
		JWTIssuer:                "workwave",
		JWTTTL:                   time.Hour,
		FrontendURL:              "http://localhost:5173",
		AllowedOrigins:           []string{"http://localhost:5173"},
		RateLimitWindowSeconds:   60,
		RateLimitLoginThreshold:  100,
		RateLimitGlobalThreshold: 1000,
		MaxUploadBytes:           1 << 20,
		SignedURLTTL:             time.Minute,
	}
}

func newTestRouter(t *testing.T, cfg *config.Config, health map[string]usecase.Pinger, opts ...func(*v1.RouterDeps)) *gin.Engine {
	t.Helper()
	accounts := memory.NewAccountRepository()
	employees := memory.NewEmployeeRepository()
	employers := memory.NewEmployerRepository()
	jobs := memory.NewJobRepository()
	files := storage.NewMemoryStore("/api/files", []byte(cfg.JWTSecret))
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	validate := validation.New()
	fileOpts := usecase.FileOptions{MaxBytes: cfg.MaxUploadBytes, SignedURLTTL: cfg.SignedURLTTL}

	authUC := usecase.NewAuthUsecase(accounts, employees, employers, auth.NewPasswordHasher(bcrypt.MinCost), tokens, nil)
	deps := v1.RouterDeps{
		AuthUC:      authUC,
		EmployeeUC:  usecase.NewEmployeeUsecase(employees, files, validate, fileOpts, nil),
		Collections: usecase.NewProfileCollections(employees, validate, nil),
		EmployerUC:  usecase.NewEmployerUsecase(employers, files, validate, security.NewSanitizer(), fileOpts, nil),
		JobUC:       usecase.NewJobUsecase(jobs, employers, employees, accounts, validate, nil),
		HealthUC:    usecase.NewHealthUsecase(health),
		Tokens:      tokens,
		Files:       files,
		Config:      cfg,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	return v1.NewRouter(deps)
}

func do(t *testing.T, r http.Handler, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func register(t *testing.T, r http.Handler, email string) string {
	t.Helper()
	w, env := do(t, r, http.MethodPost, "/api/auth/register", "", gin.H{"email": email, "password": "secret123"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var res domain.AuthResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, domain.RoleUnset, res.User.Role)
	return res.Token
}

func registerAs(t *testing.T, r http.Handler, email, role string) string {
	t.Helper()
	token := register(t, r, email)
	w, _ := do(t, r, http.MethodPost, "/api/auth/role", token, gin.H{"role": role})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return token
}

func TestAuthRoutes(t *testing.T) {
	r := newTestRouter(t, testConfig(), nil)
	token := register(t, r, "Asha@Example.com")

	t.Run("Should reject a second registration", func(t *testing.T) {
		w, env := do(t, r, http.MethodPost, "/api/auth/register", "", gin.H{"email": "asha@example.com", "password": "secret123"})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.False(t, env.Success)
	})

	t.Run("Should reject a short password", func(t *testing.T) {
		w, _ := do(t, r, http.MethodPost, "/api/auth/register", "", gin.H{"email": "new@example.com", "password": "123"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Should log in with the registered credentials", func(t *testing.T) {
		w, env := do(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"email": "asha@example.com", "password": "secret123"})
		require.Equal(t, http.StatusOK, w.Code)
		var res domain.AuthResult
		require.NoError(t, json.Unmarshal(env.Data, &res))
		assert.NotEmpty(t, res.Token)
		assert.Equal(t, "asha@example.com", res.User.Email)
	})

	t.Run("Should not reveal which credential was wrong", func(t *testing.T) {
		_, wrongPassword := do(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"email": "asha@example.com", "password": "nope-nope"})
		w, unknownEmail := do(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"email": "ghost@example.com", "password": "secret123"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Invalid email or password", wrongPassword.Message)
		assert.Equal(t, wrongPassword.Message, unknownEmail.Message)
	})

	t.Run("Should return the current account", func(t *testing.T) {
		w, env := do(t, r, http.MethodGet, "/api/auth/me", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var view domain.AccountView
		require.NoError(t, json.Unmarshal(env.Data, &view))
		assert.Equal(t, "asha@example.com", view.Email)
	})

	t.Run("Should require a bearer token", func(t *testing.T) {
		w, env := do(t, r, http.MethodGet, "/api/auth/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Missing token", env.Message)

		w, env = do(t, r, http.MethodGet, "/api/auth/me", "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Invalid token", env.Message)
	})

	t.Run("Should reject an unknown role", func(t *testing.T) {
		w, _ := do(t, r, http.MethodPost, "/api/auth/role", token, gin.H{"role": "admin"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Should not offer Google sign-in when unconfigured", func(t *testing.T) {
		w, _ := do(t, r, http.MethodGet, "/api/auth/google", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestProfileCollectionFlow(t *testing.T) {
	r := newTestRouter(t, testConfig(), nil)
	token := register(t, r, "ravi@example.com")
	entry := gin.H{"degree": "B.Tech", "course": "Computer Science"}

	w, env := do(t, r, http.MethodPost, "/api/employee/education", token, entry)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Access denied", env.Message)

	w, _ = do(t, r, http.MethodPost, "/api/auth/role", token, gin.H{"role": domain.RoleEmployee})
	require.Equal(t, http.StatusOK, w.Code)

	// The role is read from the account, so the pre-role token keeps working.
	w, env = do(t, r, http.MethodPost, "/api/employee/education", token, entry)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var list []domain.Education
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	id := list[0].ID.Hex()

	w, env = do(t, r, http.MethodPost, "/api/employee/education", token, gin.H{"degree": " B.Tech ", "course": "Computer Science"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Education already added", env.Message)

	w, env = do(t, r, http.MethodPut, "/api/employee/education/"+id, token, gin.H{"degree": "M.Tech", "course": "Computer Science"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "M.Tech", list[0].Degree)
	assert.Equal(t, id, list[0].ID.Hex())

	w, _ = do(t, r, http.MethodPut, "/api/employee/education/not-an-id", token, entry)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodPost, "/api/employee/education", token, gin.H{"degree": "", "course": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = do(t, r, http.MethodDelete, "/api/employee/education/"+id, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Empty(t, list)

	w, env = do(t, r, http.MethodDelete, "/api/employee/education/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Education not found", env.Message)

	w, env = do(t, r, http.MethodGet, "/api/employee/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var profile domain.EmployeeProfile
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Empty(t, profile.Education)
}

func TestExperienceAcceptsCalendarDates(t *testing.T) {
	r := newTestRouter(t, testConfig(), nil)
	token := registerAs(t, r, "meera@example.com", domain.RoleEmployee)
	entry := gin.H{
		"company":     "Acme",
		"title":       "Backend Engineer",
		"startDate":   "2020-01-01",
		"endDate":     "2021-01-01",
		"description": "Payments team",
	}

	w, env := do(t, r, http.MethodPost, "/api/employee/experience", token, entry)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Experience added", env.Message)
	var list []domain.Experience
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), list[0].StartDate)
	assert.Equal(t, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), list[0].EndDate)

	entry["endDate"] = "2022-06-30T12:00:00+05:30"
	w, env = do(t, r, http.MethodPut, "/api/employee/experience/"+list[0].ID.Hex(), token, entry)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, time.Date(2022, 6, 30, 6, 30, 0, 0, time.UTC), list[0].EndDate)

	entry["startDate"] = "01/02/2020"
	w, _ = do(t, r, http.MethodPost, "/api/employee/experience", token, entry)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoleGroupsAreSeparated(t *testing.T) {
	r := newTestRouter(t, testConfig(), nil)
	employer := registerAs(t, r, "hr@acme.example", domain.RoleEmployer)
	employee := registerAs(t, r, "dev@example.com", domain.RoleEmployee)

	w, _ := do(t, r, http.MethodPost, "/api/employee/skills", employer, gin.H{"name": "Go"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = do(t, r, http.MethodGet, "/api/employer", employee, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = do(t, r, http.MethodPost, "/api/job", employee, gin.H{"title": "Anything"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := do(t, r, http.MethodPost, "/api/auth/role", employee, gin.H{"role": domain.RoleEmployer})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Role already assigned", env.Message)
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestResumeUploadAndDownload(t *testing.T) {
	r := newTestRouter(t, testConfig(), nil)
	token := registerAs(t, r, "meera@example.com", domain.RoleEmployee)
	pdf := []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n")

	body, contentType := multipartBody(t, "resume", "meera.pdf", pdf)
	req := httptest.NewRequest(http.MethodPost, "/api/employee/resume", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, _ = do(t, r, http.MethodGet, "/api/employee/resume", token, nil)
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	location := w.Header().Get("Location")
	require.True(t, strings.HasPrefix(location, "/api/files?"), location)

	req = httptest.NewRequest(http.MethodGet, location, nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pdf, w.Body.Bytes())

	t.Run("Should refuse a tampered link", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, location+"0", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Should refuse a file that is not a resume", func(t *testing.T) {
		body, contentType := multipartBody(t, "resume", "notes.txt", []byte("hello"))
		req := httptest.NewRequest(http.MethodPost, "/api/employee/resume", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	w, _ = do(t, r, http.MethodDelete, "/api/employee/resume", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, r, http.MethodGet, "/api/employee/resume", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestJobRoutes(t *testing.T) {
	r := newTestRouter(t, testConfig(), nil)
	employer := registerAs(t, r, "hr@acme.example", domain.RoleEmployer)
	employee := registerAs(t, r, "dev@example.com", domain.RoleEmployee)

	w, env := do(t, r, http.MethodPost, "/api/job", employer, gin.H{
		"title":       "Backend Engineer",
		"description": "Build APIs",
		"type":        []string{"full-time"},
		"location":    "Pune",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var job domain.Job
	require.NoError(t, json.Unmarshal(env.Data, &job))
	require.NotEmpty(t, job.JobKey)

	w, env = do(t, r, http.MethodGet, "/api/job/"+job.JobKey, employee, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched domain.Job
	require.NoError(t, json.Unmarshal(env.Data, &fetched))
	assert.Equal(t, job.ID, fetched.ID)

	w, _ = do(t, r, http.MethodPost, "/api/job/apply/"+job.ID.Hex(), employee, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, _ = do(t, r, http.MethodPost, "/api/job/apply/"+job.ID.Hex(), employee, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = do(t, r, http.MethodGet, "/api/job/"+job.ID.Hex()+"/applicants/export", employer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment; filename=\"applicants_"+job.JobKey)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))

	w, _ = do(t, r, http.MethodDelete, "/api/job/"+job.ID.Hex(), employer, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, r, http.MethodGet, "/api/job/"+job.JobKey, employee, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthRoute(t *testing.T) {
	t.Run("Should report ok", func(t *testing.T) {
		r := newTestRouter(t, testConfig(), map[string]usecase.Pinger{
			"mongo": usecase.PingFunc(func(context.Context) error { return nil }),
		})
		w, env := do(t, r, http.MethodGet, "/api/health", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok","mongo":"up"}`, string(env.Data))
	})

	t.Run("Should report degraded", func(t *testing.T) {
		r := newTestRouter(t, testConfig(), map[string]usecase.Pinger{
			"redis": usecase.PingFunc(func(context.Context) error { return errors.New("down") }),
		})
		w, env := do(t, r, http.MethodGet, "/api/health", "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.JSONEq(t, `{"status":"degraded","redis":"down"}`, string(env.Error))
	})
}

func TestLoginRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitLoginThreshold = 2
	r := newTestRouter(t, cfg, nil)

	creds := gin.H{"email": "ghost@example.com", "password": "secret123"}
	for i := 0; i < 2; i++ {
		w, _ := do(t, r, http.MethodPost, "/api/auth/login", "", creds)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w, _ := do(t, r, http.MethodPost, "/api/auth/login", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

type fakeGoogle struct {
	user *auth.GoogleUser
	err  error
}

func (f *fakeGoogle) LoginURL(state string) string {
	return "https://accounts.example/o/oauth2/auth?state=" + state
}

func (f *fakeGoogle) Exchange(_ context.Context, code string) (*auth.GoogleUser, error) {
	if code != "good-code" {
		return nil, errors.New("bad code")
	}
	return f.user, f.err
}

func TestGoogleSignIn(t *testing.T) {
	google := &fakeGoogle{user: &auth.GoogleUser{
		Subject:       "g-123",
		Email:         "Nia@Example.com",
		EmailVerified: true,
		Name:          "Nia",
	}}
	r := newTestRouter(t, testConfig(), nil, func(d *v1.RouterDeps) { d.Google = google })

	start := func(t *testing.T) *http.Cookie {
		t.Helper()
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/google", nil))
		require.Equal(t, http.StatusTemporaryRedirect, w.Code)
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Contains(t, w.Header().Get("Location"), "state="+cookies[0].Value)
		return cookies[0]
	}
	callback := func(state, code string, cookie *http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?state="+state+"&code="+code, nil)
		if cookie != nil {
			req.AddCookie(cookie)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("Should redirect with a token on success", func(t *testing.T) {
		cookie := start(t)
		w := callback(cookie.Value, "good-code", cookie)
		require.Equal(t, http.StatusFound, w.Code)
		location := w.Header().Get("Location")
		require.True(t, strings.HasPrefix(location, "http://localhost:5173/auth/callback?token="), location)

		token := strings.TrimPrefix(location, "http://localhost:5173/auth/callback?token=")
		w, env := do(t, r, http.MethodGet, "/api/auth/me", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var view domain.AccountView
		require.NoError(t, json.Unmarshal(env.Data, &view))
		assert.Equal(t, "nia@example.com", view.Email)
		assert.Equal(t, domain.ProviderFederated, view.Provider)
		assert.Equal(t, domain.RoleUnset, view.Role)
	})

	failures := []struct {
		name   string
		state  func(cookie *http.Cookie) string
		code   string
		cookie bool
	}{
		{"missing state cookie", func(c *http.Cookie) string { return c.Value }, "good-code", false},
		{"state mismatch", func(*http.Cookie) string { return "forged" }, "good-code", true},
		{"failed exchange", func(c *http.Cookie) string { return c.Value }, "bad-code", true},
	}
	for _, tt := range failures {
		t.Run("Should redirect to login on "+tt.name, func(t *testing.T) {
			cookie := start(t)
			var sent *http.Cookie
			if tt.cookie {
				sent = cookie
			}
			w := callback(tt.state(cookie), tt.code, sent)
			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, "http://localhost:5173/login?error=oauth_failed", w.Header().Get("Location"))
		})
	}

	t.Run("Should refuse an unverified email", func(t *testing.T) {
		google.user = &auth.GoogleUser{Subject: "g-456", Email: "x@example.com", Name: "X"}
		cookie := start(t)
		w := callback(cookie.Value, "good-code", cookie)
		assert.Equal(t, "http://localhost:5173/login?error=oauth_failed", w.Header().Get("Location"))
	})
}

func TestSwaggerDocumentCoversRoutes(t *testing.T) {
	r := newTestRouter(t, testConfig(), nil, func(d *v1.RouterDeps) { d.Google = &fakeGoogle{} })

	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(docs.SwaggerInfo.ReadDoc()), &doc))

	undocumented := map[string]bool{"/api/health": true, "/api/swagger/*any": true, "/metrics": true}
	for _, route := range r.Routes() {
		if undocumented[route.Path] {
			continue
		}
		path := strings.TrimPrefix(route.Path, "/api")
		path = strings.ReplaceAll(path, ":id", "{id}")
		ops, ok := doc.Paths[path]
		if assert.True(t, ok, "%s is not documented", route.Path) {
			assert.Contains(t, ops, strings.ToLower(route.Method), "%s %s is not documented", route.Method, route.Path)
		}
	}
}
