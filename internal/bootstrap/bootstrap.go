// Package bootstrap wires configuration, storage, services and HTTP routing together
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appAuth "github.com/yigit/studentmanagement/internal/app/auth"
	appControllers "github.com/yigit/studentmanagement/internal/app/controllers"
	appMigrations "github.com/yigit/studentmanagement/internal/app/migrations"
	appRepos "github.com/yigit/studentmanagement/internal/app/repositories"
	appRoutes "github.com/yigit/studentmanagement/internal/app/routes"
	appServices "github.com/yigit/studentmanagement/internal/app/services"
	"github.com/yigit/studentmanagement/internal/config"
	"github.com/yigit/studentmanagement/internal/db"
	appMiddleware "github.com/yigit/studentmanagement/internal/middleware"
	pkgAuth "github.com/yigit/studentmanagement/internal/pkg/auth"
	"github.com/yigit/studentmanagement/internal/pkg/helpers"
	"github.com/yigit/studentmanagement/internal/pkg/logger"
	"github.com/yigit/studentmanagement/internal/pkg/metrics"
	"github.com/yigit/studentmanagement/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	UserService       appServices.UserService
	AssignmentService appServices.AssignmentService
	AuthService       appServices.AuthService
	AuthController    *appControllers.AuthController
	AdminController   *appControllers.AdminController
	UserController    *appControllers.UserController
	HealthController  *appControllers.HealthController
	AuthMiddleware    *appMiddleware.AuthMiddleware
	Repos             *appRepos.Repositories
	JWTService        *pkgAuth.JWTService
	AuthzService      *appAuth.AuthorizationService
	Metrics           *metrics.Metrics
	Logger            zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	lgr := logger.Configure(logger.ConfigFrom(cfg.Logging.Level, cfg.Logging.Format))
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}

	if err := RunMigrations(ctx, database.Pool, lgr); err != nil {
		database.Close()
		return nil, err
	}

	return database, nil
}

// RunMigrations applies the embedded schema migrations
func RunMigrations(ctx context.Context, conn appMigrations.DB, lgr zerolog.Logger) error {
	lgr.Info().Msg("Running database migrations...")
	applied, err := appMigrations.NewMigrator(conn, lgr).Up(ctx)
	if err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Int("applied", applied).Msg("Database migrations successfully applied.")
	return nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, conn appRepos.DB, lgr zerolog.Logger) *Dependencies {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(conn)
	deps.Metrics = metrics.New()

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 24*time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})
	hasher := pkgAuth.NewBcryptHasher(cfg.Security.BcryptCost)

	deps.AuthzService = appAuth.NewAuthorizationService(deps.Repos.UserRepository, logger.Component("authz"))

	deps.UserService = appServices.NewUserService(deps.Repos.UserRepository, hasher, deps.AuthzService, logger.Component("users"))
	deps.AssignmentService = appServices.NewAssignmentService(deps.Repos.UserRepository, deps.AuthzService, logger.Component("assignments"))
	deps.AuthService = appServices.NewAuthService(deps.Repos.UserRepository, hasher, deps.JWTService, deps.Metrics, logger.Component("auth"))

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, lgr)

	deps.AuthController = appControllers.NewAuthController(deps.AuthService, lgr)
	deps.AdminController = appControllers.NewAdminController(deps.UserService, deps.AssignmentService, lgr)
	deps.UserController = appControllers.NewUserController(deps.UserService)
	deps.HealthController = appControllers.NewHealthController()

	return deps
}

// SeedData creates the default admin and demo roster when enabled and the store is empty
func SeedData(ctx context.Context, cfg *config.Config, deps *Dependencies) error {
	if !cfg.Seed.Enabled {
		deps.Logger.Info().Msg("Seeding disabled")
		return nil
	}

	seeder := seed.NewSeeder(deps.Repos.UserRepository, deps.UserService, deps.AssignmentService, logger.Component("seed"))
	if _, err := seeder.Run(ctx, seed.OptionsFrom(cfg)); err != nil {
		return fmt.Errorf("failed to seed data: %w", err)
	}
	return nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		deps.Logger.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		deps.Logger.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(
		appMiddleware.Recovery(deps.Logger),
		appMiddleware.RequestLogger(deps.Logger),
		appMiddleware.Metrics(deps.Metrics),
	)

	appRoutes.SetupRouter(router, appRoutes.Handlers{
		Auth:   deps.AuthController,
		Admin:  deps.AdminController,
		User:   deps.UserController,
		Health: deps.HealthController,
	}, deps.AuthMiddleware, deps.Metrics.Handler())

	appRoutes.SetupSwagger(router, "localhost:"+cfg.Server.Port)

	return router
}
