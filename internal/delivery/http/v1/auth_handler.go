package v1

import (
	"context"
	"net/http"
	"net/url"

	"workwave-backend/config"
	"workwave-backend/internal/delivery/http/middleware"
	"workwave-backend/internal/delivery/http/response"
	"workwave-backend/internal/domain"
	"workwave-backend/pkg/apperror"
	"workwave-backend/pkg/auth"
	"workwave-backend/pkg/logger"
	"workwave-backend/pkg/security"

	"github.com/gin-gonic/gin"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStateMaxAge = 600
)

// GoogleAuth is the part of the Google OAuth client the handler drives.
type GoogleAuth interface {
	LoginURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GoogleUser, error)
}

type AuthHandler struct {
	authUC  domain.AuthUsecase
	google  GoogleAuth
	tracker *security.LoginTracker
	secLog  *security.SecurityLogger
	config  *config.Config
}

// NewAuthHandler registers the auth routes. The Google routes exist only
// when google is not nil.
func NewAuthHandler(public, protected *gin.RouterGroup, strict gin.HandlerFunc, authUC domain.AuthUsecase, google GoogleAuth, tracker *security.LoginTracker, secLog *security.SecurityLogger, cfg *config.Config) {
	if tracker == nil {
		tracker = security.NewLoginTracker(nil, security.DefaultLoginTrackerConfig(), secLog)
	}
	if secLog == nil {
		secLog = security.NopLogger()
	}
	handler := &AuthHandler{
		authUC:  authUC,
		google:  google,
		tracker: tracker,
		secLog:  secLog,
		config:  cfg,
	}

	publicAuth := public.Group("/auth")
	{
		publicAuth.POST("/register", strict, handler.Register)
		publicAuth.POST("/login", strict, handler.Login)
		if google != nil {
			publicAuth.GET("/google", handler.GoogleLogin)
			publicAuth.GET("/google/callback", handler.GoogleCallback)
		}
	}

	protectedAuth := protected.Group("/auth")
	{
		protectedAuth.POST("/role", handler.AssignRole)
		protectedAuth.GET("/me", handler.Me)
	}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AssignRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// Register godoc
// @Summary      Register with email and password
// @Description  Creates an account without a role and returns a token for it.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        register  body      RegisterRequest  true  "Credentials"
// @Success      201  {object}  response.Response{data=domain.AuthResult}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("A valid email and a password of 6 to 72 characters are required"))
		return
	}

	res, err := h.authUC.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.Error(err)
		return
	}
	h.secLog.LogAccountEvent(c.Request.Context(), security.EventAccountRegistered, res.User.ID, middleware.RequestMeta(c), nil)
	response.Success(c, http.StatusCreated, "Registered successfully", res)
}

// Login godoc
// @Summary      Log in with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        login  body      LoginRequest  true  "Credentials"
// @Success      200  {object}  response.Response{data=domain.AuthResult}
// @Failure      401  {object}  response.Response
// @Failure      429  {object}  response.Response
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Email and password are required"))
		return
	}
	ctx := c.Request.Context()
	meta := middleware.RequestMeta(c)

	blocked, err := h.tracker.IsBlocked(ctx, req.Email, meta.IP)
	if err != nil {
		logger.Log.Warn("login tracker unavailable", "error", err)
	}
	if blocked {
		h.secLog.LogLoginBlocked(ctx, req.Email, meta)
		c.Error(apperror.TooManyRequests("Too many failed login attempts. Please try again later."))
		return
	}

	res, err := h.authUC.Login(ctx, req.Email, req.Password)
	if err != nil {
		if apperror.CodeOf(err) == http.StatusUnauthorized {
			if _, _, terr := h.tracker.RecordFailedAttempt(ctx, req.Email, meta); terr != nil {
				logger.Log.Warn("failed to record login attempt", "error", terr)
			}
		}
		c.Error(err)
		return
	}

	if err := h.tracker.ClearAttempts(ctx, req.Email, meta.IP); err != nil {
		logger.Log.Warn("failed to clear login attempts", "error", err)
	}
	h.secLog.LogAccountEvent(ctx, security.EventLoginSuccess, res.User.ID, meta, nil)
	response.Success(c, http.StatusOK, "Logged in successfully", res)
}

// AssignRole godoc
// @Summary      Choose the account role
// @Description  Sets the role of an account that has none yet and provisions its empty profile.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        role  body      AssignRoleRequest  true  "employee or employer"
// @Success      200  {object}  response.Response{data=domain.AuthResult}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /auth/role [post]
// @Security     BearerAuth
func (h *AuthHandler) AssignRole(c *gin.Context) {
	var req AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Role is required"))
		return
	}

	res, err := h.authUC.AssignRole(c.Request.Context(), req.Role)
	if err != nil {
		c.Error(err)
		return
	}
	h.secLog.LogAccountEvent(c.Request.Context(), security.EventRoleAssigned, res.User.ID, middleware.RequestMeta(c),
		map[string]interface{}{"role": res.User.Role})
	response.Success(c, http.StatusOK, "Role assigned successfully", res)
}

// Me godoc
// @Summary      Current account
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response{data=domain.AccountView}
// @Failure      401  {object}  response.Response
// @Router       /auth/me [get]
// @Security     BearerAuth
func (h *AuthHandler) Me(c *gin.Context) {
	identity, ok := domain.IdentityFromContext(c.Request.Context())
	if !ok {
		c.Error(apperror.Unauthorized("User not authenticated"))
		return
	}
	account, err := h.authUC.GetCurrentUser(c.Request.Context(), identity.ID)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Account retrieved", domain.NewAccountView(account))
}

// GoogleLogin godoc
// @Summary      Start Google sign-in
// @Tags         auth
// @Success      307
// @Router       /auth/google [get]
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	state, err := auth.NewState()
	if err != nil {
		c.Error(apperror.Internal(err))
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, oauthStateMaxAge, "/api/auth/google", "", h.config.IsProduction(), true)
	c.Redirect(http.StatusTemporaryRedirect, h.google.LoginURL(state))
}

// GoogleCallback godoc
// @Summary      Google sign-in callback
// @Description  Always answers with a redirect to the frontend, carrying a token on success.
// @Tags         auth
// @Param        state  query  string  true  "OAuth state"
// @Param        code   query  string  true  "Authorization code"
// @Success      302
// @Router       /auth/google/callback [get]
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	ctx := c.Request.Context()
	meta := middleware.RequestMeta(c)

	expected, _ := c.Cookie(oauthStateCookie)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, "", -1, "/api/auth/google", "", h.config.IsProduction(), true)

	fail := func(reason string, err error) {
		h.secLog.Log(ctx, security.SecurityEvent{
			Event:     security.EventFederatedFailed,
			IP:        meta.IP,
			UserAgent: meta.UserAgent,
			RequestID: meta.RequestID,
			Details:   map[string]interface{}{"reason": reason},
		})
		if err != nil {
			logger.Log.Warn("google sign-in failed", "reason", reason, "error", err)
		}
		c.Redirect(http.StatusFound, h.config.FrontendURL+"/login?error=oauth_failed")
	}

	if expected == "" || c.Query("state") != expected {
		fail("state_mismatch", nil)
		return
	}
	user, err := h.google.Exchange(ctx, c.Query("code"))
	if err != nil {
		fail("exchange_failed", err)
		return
	}
	if !user.EmailVerified {
		fail("email_unverified", nil)
		return
	}

	res, err := h.authUC.FederatedLogin(ctx, domain.FederatedIdentity{
		Issuer:  domain.IssuerGoogle,
		Subject: user.Subject,
		Email:   user.Email,
		Name:    user.Name,
	})
	if err != nil {
		fail("federated_login_rejected", err)
		return
	}

	h.secLog.LogAccountEvent(ctx, security.EventFederatedLogin, res.User.ID, meta, nil)
	c.Redirect(http.StatusFound, h.config.FrontendURL+"/auth/callback?token="+url.QueryEscape(res.Token))
}
