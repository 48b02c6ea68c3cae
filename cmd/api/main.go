package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"workwave-backend/config"
	_ "workwave-backend/docs" // Important for Swagger
	v1 "workwave-backend/internal/delivery/http/v1"
	"workwave-backend/internal/domain"
	"workwave-backend/internal/repository/memory"
	"workwave-backend/internal/repository/mongodb"
	"workwave-backend/internal/usecase"
	"workwave-backend/pkg/auth"
	"workwave-backend/pkg/database"
	"workwave-backend/pkg/logger"
	"workwave-backend/pkg/metrics"
	redisclient "workwave-backend/pkg/redis"
	"workwave-backend/pkg/security"
	"workwave-backend/pkg/storage"
	"workwave-backend/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"golang.org/x/crypto/bcrypt"
)

type repositories struct {
	accounts  domain.AccountRepository
	employees domain.EmployeeRepository
	employers domain.EmployerRepository
	jobs      domain.JobRepository
}

// @title           WorkWave Backend API
// @version         1.0
// @description     Job portal backend: accounts, employee and employer profiles, job postings.
// @host            localhost:8080
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	// 2. Setup Loggers
	logger.Init(cfg.LogLevel)
	logger.Log.Info("Starting workwave backend", "port", cfg.Port, "env", cfg.AppEnv)
	secLog := security.NewSecurityLogger("workwave-backend", cfg.AppEnv)

	ctx := context.Background()
	health := map[string]usecase.Pinger{}
	var cleanups []func()

	// 3. Setup Document Store
	var repos repositories
	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, db, err := database.NewMongoConnection(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			logger.Log.Error("Failed to connect to MongoDB", "error", err)
			os.Exit(1)
		}
		cleanups = append(cleanups, func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Log.Warn("MongoDB disconnect failed", "error", err)
			}
		})
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			logger.Log.Error("Failed to create indexes", "error", err)
			os.Exit(1)
		}
		repos = repositories{
			accounts:  mongodb.NewAccountRepository(db),
			employees: mongodb.NewEmployeeRepository(db),
			employers: mongodb.NewEmployerRepository(db),
			jobs:      mongodb.NewJobRepository(db),
		}
		health["mongo"] = usecase.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		})
	default:
		logger.Log.Warn("Using the in-memory store; data is lost on restart")
		repos = repositories{
			accounts:  memory.NewAccountRepository(),
			employees: memory.NewEmployeeRepository(),
			employers: memory.NewEmployerRepository(),
			jobs:      memory.NewJobRepository(),
		}
	}

	// 4. Setup Redis (optional)
	redisClient, err := redisclient.NewClient(ctx, redisclient.Config{
		URL:      cfg.UpstashRedisURL,
		Password: cfg.UpstashRedisPassword,
	})
	switch {
	case errors.Is(err, redisclient.ErrNotConfigured):
		redisClient = nil
	case err != nil:
		logger.Log.Warn("Redis unavailable, using in-memory rate limiting", "error", err)
		redisClient = nil
	default:
		cleanups = append(cleanups, func() { _ = redisClient.Close() })
		health["redis"] = usecase.PingFunc(func(ctx context.Context) error {
			return redisclient.HealthCheck(ctx, redisClient)
		})
	}

	// 5. Setup Security Event Persistence (optional)
	if cfg.SecurityEventsDBURL != "" && cfg.SecurityLogToDB {
		if err := database.RunMigrations(cfg.SecurityEventsDBURL); err != nil {
			logger.Log.Error("Failed to migrate security events schema", "error", err)
			os.Exit(1)
		}
		pool, err := database.NewPostgresConnection(ctx, cfg.SecurityEventsDBURL)
		if err != nil {
			logger.Log.Error("Failed to connect to security events database", "error", err)
			os.Exit(1)
		}
		cleanups = append(cleanups, pool.Close)
		secLog.SetPersistFunc(security.NewSecurityEventRepository(pool).PersistEvent)
		health["security_events"] = usecase.PingFunc(pool.Ping)
	}

	// 6. Setup Blob Storage
	var (
		blobs domain.BlobStore
		files *storage.MemoryStore
	)
	switch cfg.StorageDriver {
	case config.StorageS3:
		s3Store, err := storage.NewS3Store(ctx, storage.S3Config{
			Provider:        storage.Provider(cfg.S3Provider),
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			Endpoint:        cfg.S3Endpoint,
		})
		if err != nil {
			logger.Log.Error("Failed to configure S3 storage", "error", err)
			os.Exit(1)
		}
		blobs = s3Store
		health["storage"] = s3Store
	default:
		files = storage.NewMemoryStore("http://localhost:"+cfg.Port+"/api/files", []byte(cfg.JWTSecret))
		blobs = files
	}

	// 7. Setup Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewCollector(registry)

	// 8. Setup UseCases
	validate := validation.New()
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	fileOpts := usecase.FileOptions{MaxBytes: cfg.MaxUploadBytes, SignedURLTTL: cfg.SignedURLTTL}

	authUC := usecase.NewAuthUsecase(repos.accounts, repos.employees, repos.employers,
		auth.NewPasswordHasher(bcrypt.DefaultCost), tokens, recorder)
	employeeUC := usecase.NewEmployeeUsecase(repos.employees, blobs, validate, fileOpts, recorder)
	collections := usecase.NewProfileCollections(repos.employees, validate, recorder)
	employerUC := usecase.NewEmployerUsecase(repos.employers, blobs, validate, security.NewSanitizer(), fileOpts, recorder)
	jobUC := usecase.NewJobUsecase(repos.jobs, repos.employers, repos.employees, repos.accounts, validate, recorder)

	trackerCfg := security.DefaultLoginTrackerConfig()
	trackerCfg.MaxAttempts = cfg.FailedLoginMaxAttempts
	trackerCfg.MaxIPAttempts = cfg.FailedLoginMaxIPAttempts
	trackerCfg.BlockDuration = time.Duration(cfg.FailedLoginBlockMinutes) * time.Minute

	deps := v1.RouterDeps{
		AuthUC:         authUC,
		EmployeeUC:     employeeUC,
		Collections:    collections,
		EmployerUC:     employerUC,
		JobUC:          jobUC,
		HealthUC:       usecase.NewHealthUsecase(health),
		Tokens:         tokens,
		LoginTracker:   security.NewLoginTracker(redisClient, trackerCfg, secLog),
		UploadLimiter:  security.NewUploadLimiter(redisClient, 10, 50),
		SecurityLogger: secLog,
		Redis:          redisClient,
		Recorder:       recorder,
		Gatherer:       registry,
		Files:          files,
		Config:         cfg,
	}

	// 9. Setup Google Sign-In (optional)
	if cfg.GoogleEnabled() {
		deps.Google = auth.NewGoogleProvider(auth.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
		})
	}

	// 10. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           v1.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Listen failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
	_ = secLog.Close()

	logger.Log.Info("Server exiting")
}
