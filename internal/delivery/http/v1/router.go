package v1

import (
	"net/http"
	"time"

	"workwave-backend/config"
	"workwave-backend/internal/delivery/http/middleware"
	"workwave-backend/internal/delivery/http/response"
	"workwave-backend/internal/domain"
	"workwave-backend/internal/usecase"
	"workwave-backend/pkg/metrics"
	"workwave-backend/pkg/security"
	"workwave-backend/pkg/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	AuthUC      domain.AuthUsecase
	EmployeeUC  domain.EmployeeUsecase
	Collections usecase.ProfileCollections
	EmployerUC  domain.EmployerUsecase
	JobUC       domain.JobUsecase
	HealthUC    usecase.HealthUsecase

	Tokens middleware.TokenVerifier
	// Google is nil when Google sign-in is not configured.
	Google GoogleAuth

	LoginTracker   *security.LoginTracker
	UploadLimiter  *security.UploadLimiter
	SecurityLogger *security.SecurityLogger
	// Redis is optional; rate limits fall back to per-instance buckets.
	Redis *goredis.Client

	Recorder metrics.Recorder
	Gatherer prometheus.Gatherer
	// Files is set when uploads live in memory and must be served locally.
	Files *storage.MemoryStore

	Config *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	if deps.Recorder == nil {
		deps.Recorder = metrics.Nop{}
	}
	if deps.SecurityLogger == nil {
		deps.SecurityLogger = security.NopLogger()
	}
	if deps.UploadLimiter == nil {
		deps.UploadLimiter = security.NewUploadLimiter(nil, 0, 0)
	}
	window := time.Duration(cfg.RateLimitWindowSeconds) * time.Second

	r := gin.New()

	// Global Middlewares
	r.Use(middleware.RequestID())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins, cfg.IsProduction()))
	r.Use(middleware.SecurityHeadersMiddleware(cfg.IsProduction()))
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Metrics(deps.Recorder))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimitMiddleware(deps.Redis, middleware.GlobalRateLimitConfig(cfg.RateLimitGlobalThreshold, window), deps.SecurityLogger))

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(deps.Gatherer)))
	}

	api := r.Group("/api")

	// Health Check
	api.GET("/health", func(c *gin.Context) {
		healthy, checks := true, map[string]string{}
		if deps.HealthUC != nil {
			healthy, checks = deps.HealthUC.Check(c.Request.Context())
		}
		if !healthy {
			response.Error(c, http.StatusServiceUnavailable, "System degraded", checks)
			return
		}
		response.Success(c, http.StatusOK, "System operational", checks)
	})

	// Swagger
	api.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if deps.Files != nil {
		NewFileHandler(api, deps.Files)
	}

	strict := middleware.RateLimitMiddleware(deps.Redis, middleware.AuthRateLimitConfig(cfg.RateLimitLoginThreshold, window), deps.SecurityLogger)
	uploads := uploadReader{limiter: deps.UploadLimiter, maxBytes: cfg.MaxUploadBytes}

	// Protected routes
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(deps.Tokens, deps.AuthUC, deps.SecurityLogger))
	{
		NewAuthHandler(api, protected, strict, deps.AuthUC, deps.Google, deps.LoginTracker, deps.SecurityLogger, cfg)

		employee := protected.Group("/employee", middleware.RequireRole(deps.SecurityLogger, domain.RoleEmployee))
		NewEmployeeHandler(employee, deps.EmployeeUC, uploads)
		NewProfileCollectionHandlers(employee, deps.Collections)

		employer := protected.Group("/employer", middleware.RequireRole(deps.SecurityLogger, domain.RoleEmployer))
		NewEmployerHandler(employer, deps.EmployerUC, uploads)

		NewJobHandler(protected, deps.JobUC, deps.SecurityLogger)
	}

	return r
}
