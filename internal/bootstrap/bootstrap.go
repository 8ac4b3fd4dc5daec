package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appControllers "github.com/yigit/librarium/internal/app/controllers"
	appMigrations "github.com/yigit/librarium/internal/app/migrations"
	appRepos "github.com/yigit/librarium/internal/app/repositories"
	appRoutes "github.com/yigit/librarium/internal/app/routes"
	appServices "github.com/yigit/librarium/internal/app/services"
	"github.com/yigit/librarium/internal/config"
	"github.com/yigit/librarium/internal/db"
	appMiddleware "github.com/yigit/librarium/internal/middleware"
	pkgAuth "github.com/yigit/librarium/internal/pkg/auth"
	"github.com/yigit/librarium/internal/pkg/cache"
	"github.com/yigit/librarium/internal/pkg/email"
	"github.com/yigit/librarium/internal/pkg/filestorage"
	"github.com/yigit/librarium/internal/pkg/logger"
	"github.com/yigit/librarium/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Config *config.Config
	Logger zerolog.Logger
	DB     *db.PostgresDB
	Repos  *appRepos.Repositories

	Cache       cache.Store
	Revoker     *cache.TokenRevoker
	JWTService  *pkgAuth.JWTService
	Notifier    *email.Notifier
	FileStorage filestorage.Storage

	AuthService     *appServices.AuthService
	UserBookService *appServices.UserBookService
	BookService     *appServices.BookService
	ForumService    *appServices.ForumService
	StatsService    *appServices.StatsService

	Controllers    appRoutes.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware

	closers []func() error
}

// Close releases the resources opened by BuildDependencies. The database is
// owned by the caller.
func (d *Dependencies) Close() error {
	var err error
	for i := len(d.closers) - 1; i >= 0; i-- {
		err = errors.Join(err, d.closers[i]())
	}
	d.closers = nil
	return err
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath, envFile string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath, envFile)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	lgr := logger.Configure(logger.FromConfig(cfg.Logging.Level, cfg.Logging.Format))
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// ConnectDatabase opens the connection pool
func ConnectDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Str("host", cfg.Database.Host).Str("database", cfg.Database.DBName).Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")
	return database, nil
}

// RunMigrations applies every pending migration of the configured directory
func RunMigrations(ctx context.Context, cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) error {
	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); err != nil {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	lgr.Info().Str("path", migrationsDir).Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.Pool, lgr)
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")
	return nil
}

// SetupDatabase connects, migrates and seeds the database
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	database, err := ConnectDatabase(ctx, cfg, lgr)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, cfg, database, lgr); err != nil {
		database.Close()
		return nil, err
	}

	if err := seed.CreateDefaultData(ctx, appRepos.NewBookRepository(database.Pool), lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}
	return database, nil
}

// SetupCache connects to Redis when an address is configured and falls back
// to the in-process store otherwise
func SetupCache(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (cache.Store, func() error, error) {
	if cfg.Redis.Addr == "" {
		lgr.Info().Msg("Redis address not configured, using in-memory cache")
		return cache.NewMemoryStore(), func() error { return nil }, nil
	}

	store, err := cache.NewRedisStore(ctx, cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Redis.Prefix,
	})
	if err != nil {
		lgr.Error().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to Redis")
		return nil, nil, err
	}
	lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Redis cache connected")
	return store, store.Close, nil
}

// SetupStorage initializes the configured photo storage backend
func SetupStorage(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (filestorage.Storage, error) {
	storageLogger := lgr.With().Str("component", "filestorage").Logger()

	switch strings.ToLower(cfg.Storage.Driver) {
	case "minio":
		m := cfg.Storage.MinIO
		return filestorage.NewMinIOStorage(ctx, filestorage.MinIOConfig{
			Endpoint:  m.Endpoint,
			AccessKey: m.AccessKey,
			SecretKey: m.SecretKey,
			Bucket:    m.Bucket,
			UseSSL:    m.UseSSL,
			URLExpiry: m.URLExpiry,
		}, storageLogger)
	default:
		return filestorage.NewLocalStorage(cfg.Storage.LocalPath, cfg.Storage.PublicURL, storageLogger)
	}
}

// SetupNotifier builds the notifier over the configured mail transport
func SetupNotifier(cfg *config.Config, lgr zerolog.Logger) *email.Notifier {
	var transport email.Transport
	switch strings.ToLower(cfg.Mail.Driver) {
	case "smtp":
		transport = email.NewSMTPTransport(email.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			UseTLS:   cfg.Mail.UseTLS,
			UseSSL:   cfg.Mail.UseSSL,
		})
		lgr.Info().Str("host", cfg.Mail.Host).Int("port", cfg.Mail.Port).Msg("SMTP mail transport configured")
	default:
		transport = email.NewLogTransport(lgr)
		lgr.Info().Msg("Mail transport logs messages instead of sending them")
	}

	return email.NewNotifier(transport, email.NotifierConfig{
		From:    cfg.Mail.DefaultSender,
		Timeout: cfg.Mail.Timeout,
	}, lgr)
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(ctx context.Context, cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Config: cfg, Logger: lgr, DB: database}
	deps.Repos = appRepos.NewRepositories(database.Pool)

	store, closeCache, err := SetupCache(ctx, cfg, lgr)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	deps.Cache = store
	deps.closers = append(deps.closers, closeCache)

	deps.FileStorage, err = SetupStorage(ctx, cfg, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		_ = deps.Close()
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.Notifier = SetupNotifier(cfg, lgr)
	deps.Revoker = cache.NewTokenRevoker(deps.Cache)
	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: cfg.JWT.AccessTokenExpiration,
		TokenIssuer:    cfg.JWT.Issuer,
	})

	repos := deps.Repos
	deps.AuthService = appServices.NewAuthService(database, repos.UserRepository, deps.JWTService, deps.Revoker, deps.Notifier, lgr)
	deps.UserBookService = appServices.NewUserBookService(database, repos.UserBookRepository, deps.Notifier, appServices.UTCClock, lgr)
	deps.BookService = appServices.NewBookService(database, repos.BookRepository, repos.BorrowedBookRepository, repos.ReviewRepository, appServices.UTCClock, lgr)
	deps.ForumService = appServices.NewForumService(database, repos.ForumRepository, deps.FileStorage, lgr)
	deps.StatsService = appServices.NewStatsService(repos.StatsRepository, repos.BookRepository, deps.Cache, cfg.Redis.StatsTTL, lgr)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, deps.Revoker, lgr)
	deps.Controllers = appRoutes.Controllers{
		Auth:     appControllers.NewAuthController(deps.AuthService, lgr),
		UserBook: appControllers.NewUserBookController(deps.UserBookService, appServices.UTCClock, lgr),
		Book:     appControllers.NewBookController(deps.BookService, lgr),
		Forum:    appControllers.NewForumController(deps.ForumService, lgr),
		Stats:    appControllers.NewStatsController(deps.StatsService, database.Pool, lgr),
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.MaxMultipartMemory = cfg.Server.MaxUploadBytes
	router.Use(gin.Recovery(), appMiddleware.RequestID(), appMiddleware.RequestLogger(lgr))

	// Local uploads are served by the API itself under the public prefix
	if strings.EqualFold(cfg.Storage.Driver, "local") && strings.HasPrefix(cfg.Storage.PublicURL, "/") {
		router.Static(cfg.Storage.PublicURL, cfg.Storage.LocalPath)
		lgr.Info().Str("path", cfg.Storage.LocalPath).Str("url", cfg.Storage.PublicURL).Msg("Static file serving configured for uploads directory")
	}

	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)
	return router
}
