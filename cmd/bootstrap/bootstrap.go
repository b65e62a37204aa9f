package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"visit-tracking-service/config"
	deliveryHttp "visit-tracking-service/internal/delivery/http"
	"visit-tracking-service/internal/delivery/http/handler"
	"visit-tracking-service/internal/delivery/http/middleware"
	domainRepo "visit-tracking-service/internal/domain/repository"
	"visit-tracking-service/internal/infrastructure/cache"
	"visit-tracking-service/internal/infrastructure/database"
	"visit-tracking-service/internal/repository"
	"visit-tracking-service/internal/repository/memory"
	"visit-tracking-service/internal/seed"
	"visit-tracking-service/internal/service"
	"visit-tracking-service/internal/usecase"
	"visit-tracking-service/pkg/validator"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	LockService *service.DoctorLockService
	Server      *http.Server
}

// Repositories is the storage port for either driver
type Repositories struct {
	Patients  domainRepo.PatientRepository
	Doctors   domainRepo.DoctorRepository
	Visits    domainRepo.VisitRepository
	AuditLogs domainRepo.AuditLogRepository
	Seed      domainRepo.SeedRepository
}

// Load reads configuration and configures the logger
func Load() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := setupLogger(cfg)
	log.Info("Configuration loaded successfully")
	return cfg, log, nil
}

// setupLogger configures the logrus standard logger
func setupLogger(cfg *config.Config) *logrus.Logger {
	if cfg.IsProduction() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logrus.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	return logrus.StandardLogger()
}

// CanonicalLocation resolves APP_CANONICAL_TIMEZONE; "Local" or empty means the host zone
func CanonicalLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid canonical timezone %q: %w", name, err)
	}
	return loc, nil
}

// OpenPostgres connects and, when migrate is set, applies pending migrations
func OpenPostgres(cfg *config.Config, log *logrus.Logger, migrate bool) (*gorm.DB, error) {
	db, err := database.NewPostgresConnection(cfg.DB, cfg.IsProduction())
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := RunMigration(db, log, "up"); err != nil {
			closeDB(db)
			return nil, err
		}
	}
	return db, nil
}

// RunMigration executes up, down or version against db
func RunMigration(db *gorm.DB, log *logrus.Logger, action string) error {
	migrator, err := database.NewMigrator(db, log)
	if err != nil {
		return err
	}
	defer migrator.Close()

	switch action {
	case "up":
		return migrator.Up()
	case "down":
		return migrator.Down()
	case "version":
		version, dirty, ok, err := migrator.Version()
		if err != nil {
			return err
		}
		if !ok {
			log.Info("No migrations applied")
			return nil
		}
		log.Infof("Schema version %d (dirty=%t)", version, dirty)
		return nil
	default:
		return fmt.Errorf("unknown migrate action %q", action)
	}
}

// NewPostgresRepositories wires the gorm adapters
func NewPostgresRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Patients:  repository.NewPatientRepository(db),
		Doctors:   repository.NewDoctorRepository(db),
		Visits:    repository.NewVisitRepository(db),
		AuditLogs: repository.NewAuditLogRepository(db),
		Seed:      repository.NewSeedRepository(db),
	}
}

// NewMemoryRepositories wires a fresh in-memory store
func NewMemoryRepositories() *Repositories {
	store := memory.NewStore()
	return &Repositories{
		Patients:  store.Patients(),
		Doctors:   store.Doctors(),
		Visits:    store.Visits(),
		AuditLogs: store.AuditLogs(),
		Seed:      store.Seed(),
	}
}

// RunSeed loads fixtures through repos
func RunSeed(ctx context.Context, log *logrus.Logger, repos *Repositories, timeConverter *service.TimeConverter, opts seed.Options) error {
	result, err := seed.NewGenerator(log, repos.Seed, timeConverter).Run(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to seed data: %w", err)
	}
	if !result.Skipped {
		log.Infof("Seed complete: %d doctors, %d patients, %d visits", result.Doctors, result.Patients, result.Visits)
	}
	return nil
}

// SeedOptions maps the seed config section
func SeedOptions(cfg config.SeedConfig) seed.Options {
	return seed.Options{
		Doctors:    cfg.Doctors,
		Patients:   cfg.Patients,
		Visits:     cfg.Visits,
		RandomSeed: cfg.RandomSeed,
	}
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	cfg, log, err := Load()
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Log: log}

	canonical, err := CanonicalLocation(cfg.App.CanonicalTimezone)
	if err != nil {
		return nil, err
	}
	timeConverter := service.NewTimeConverter(canonical)
	log.Infof("Canonical timezone: %s", canonical)

	// Initialize storage
	var repos *Repositories
	switch cfg.App.StorageDriver {
	case config.StorageDriverMemory:
		repos = NewMemoryRepositories()
		log.Warn("Using in-memory storage, data is lost on restart")
	case config.StorageDriverPostgres:
		db, err := OpenPostgres(cfg, log, cfg.DB.AutoMigrate)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		app.DB = db
		repos = NewPostgresRepositories(db)
		log.Info("Database connected successfully")
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.App.StorageDriver)
	}

	// Initialize Redis
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		app.RedisClient = redisClient
		log.Info("Redis connected successfully")
	}

	if cfg.App.SeedOnStartup {
		if err := RunSeed(context.Background(), log, repos, timeConverter, SeedOptions(cfg.Seed)); err != nil {
			app.Close()
			return nil, err
		}
	}

	app.LockService = service.NewDoctorLockService(app.RedisClient, log, service.DoctorLockConfig{
		TTL:           cfg.Lock.TTL,
		WaitTimeout:   cfg.Lock.WaitTimeout,
		RetryInterval: cfg.Lock.RetryInterval,
	})

	app.Server = app.initializeServer(repos, timeConverter)

	return app, nil
}

// initializeServer creates and configures the HTTP server
func (app *App) initializeServer(repos *Repositories, timeConverter *service.TimeConverter) *http.Server {
	log := app.Log

	// Initialize validator
	customValidator := validator.NewValidator()

	// Initialize services
	auditService := service.NewAuditService(log, repos.AuditLogs)

	// Initialize usecases
	visitUsecase := usecase.NewVisitUsecase(log, repos.Patients, repos.Doctors, repos.Visits, timeConverter, app.LockService, auditService)
	patientUsecase := usecase.NewPatientUsecase(log, repos.Patients, repos.Doctors, repos.Visits, timeConverter)

	// Initialize handlers
	visitHandler := handler.NewVisitHandler(visitUsecase, patientUsecase, customValidator)
	healthHandler := handler.NewHealthHandler(app.healthChecks())

	// Initialize middleware
	corsMiddleware := middleware.NewCORSMiddleware()
	requestLogger := middleware.NewRequestLogger(log)

	// Initialize router
	router := deliveryHttp.NewRouter(visitHandler, healthHandler, corsMiddleware, requestLogger)
	httpRouter := router.Setup()

	// Create server
	serverAddr := fmt.Sprintf(":%s", app.Config.App.Port)
	return &http.Server{
		Addr:              serverAddr,
		Handler:           httpRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (app *App) healthChecks() map[string]handler.HealthCheck {
	checks := make(map[string]handler.HealthCheck)
	if app.DB != nil {
		checks["postgres"] = func(ctx context.Context) error {
			sqlDB, err := app.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	if app.RedisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return app.RedisClient.Ping(ctx).Err()
		}
	}
	return checks
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() error {
	serverErr := make(chan error, 1)

	// Start server in goroutine
	go func() {
		app.Log.Infof("Server starting on port %s", app.Config.App.Port)
		app.Log.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	return app.waitForShutdown(serverErr)
}

// waitForShutdown blocks until an interrupt signal is received or the server fails
func (app *App) waitForShutdown(serverErr <-chan error) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-quit:
		app.Log.Info("Shutting down server...")
	case err := <-serverErr:
		runErr = fmt.Errorf("failed to start server: %w", err)
	}

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		app.Log.Errorf("Server forced to shutdown: %v", err)
	}

	// Close connections
	app.Close()

	app.Log.Info("Server shutdown complete")
	return runErr
}

// Close stops background work and closes all connections
func (app *App) Close() {
	if app.LockService != nil {
		app.LockService.Stop()
	}

	// Close database connection
	if app.DB != nil {
		closeDB(app.DB)
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}

func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err == nil {
		sqlDB.Close()
	}
}
