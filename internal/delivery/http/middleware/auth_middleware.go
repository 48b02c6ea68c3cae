package middleware

import (
	"errors"
	"net/http"
	"strings"

	"workwave-backend/internal/delivery/http/response"
	"workwave-backend/internal/domain"
	"workwave-backend/pkg/apperror"
	"workwave-backend/pkg/auth"
	"workwave-backend/pkg/security"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TokenVerifier checks a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// RequestMeta extracts what security events record about a request.
func RequestMeta(c *gin.Context) security.RequestMeta {
	return security.RequestMeta{
		IP:        c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
		RequestID: c.GetString(response.RequestIDKey),
		Path:      c.FullPath(),
	}
}

// AuthMiddleware resolves the bearer token to an Identity. The role is read
// from the stored account, not from the token, so a freshly assigned role
// takes effect before the old token expires.
func AuthMiddleware(tokens TokenVerifier, authUC domain.AuthUsecase, secLog *security.SecurityLogger) gin.HandlerFunc {
	if secLog == nil {
		secLog = security.NopLogger()
	}
	deny := func(c *gin.Context, message string) {
		secLog.LogAccessDenied(c.Request.Context(), security.EventUnauthorizedAccess, RequestMeta(c), message)
		response.Error(c, http.StatusUnauthorized, message, nil)
		c.Abort()
	}

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, tokenString, found := strings.Cut(header, " ")
		tokenString = strings.TrimSpace(tokenString)
		if !found || !strings.EqualFold(scheme, "Bearer") || tokenString == "" {
			deny(c, "Missing token")
			return
		}

		claims, err := tokens.Verify(tokenString)
		if err != nil {
			deny(c, "Invalid token")
			return
		}
		accountID, err := primitive.ObjectIDFromHex(claims.Subject)
		if err != nil {
			deny(c, "Invalid token")
			return
		}

		account, err := authUC.GetCurrentUser(c.Request.Context(), accountID)
		if err != nil {
			var appErr *apperror.AppError
			if errors.As(err, &appErr) && appErr.Code == http.StatusNotFound {
				deny(c, "Account not found")
				return
			}
			c.Error(err)
			c.Abort()
			return
		}

		identity := domain.Identity{ID: account.ID, Email: account.Email, Role: account.Role}
		c.Set(string(domain.KeyIdentity), identity)
		c.Request = c.Request.WithContext(domain.WithIdentity(c.Request.Context(), identity))
		c.Next()
	}
}

// RequireRole lets the request through only when the caller currently holds
// one of roles.
func RequireRole(secLog *security.SecurityLogger, roles ...string) gin.HandlerFunc {
	if secLog == nil {
		secLog = security.NopLogger()
	}
	return func(c *gin.Context) {
		identity, ok := domain.IdentityFromContext(c.Request.Context())
		if !ok {
			secLog.LogAccessDenied(c.Request.Context(), security.EventUnauthorizedAccess, RequestMeta(c), "no identity")
			response.Error(c, http.StatusUnauthorized, "User not authenticated", nil)
			c.Abort()
			return
		}
		for _, role := range roles {
			if identity.Role == role {
				c.Next()
				return
			}
		}
		secLog.LogAccessDenied(c.Request.Context(), security.EventForbiddenAccess, RequestMeta(c), "role "+identity.Role)
		response.Error(c, http.StatusForbidden, "Access denied", nil)
		c.Abort()
	}
}
