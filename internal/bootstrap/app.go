package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"career-backend/internal/account"
	googleauth "career-backend/internal/auth"
	"career-backend/internal/coverletters"
	"career-backend/internal/llm"
	openai "career-backend/internal/llm/openai"
	"career-backend/internal/navigation"
	"career-backend/internal/services/health"
	"career-backend/internal/shared/config"
	"career-backend/internal/shared/server"
	"career-backend/internal/shared/storage/db"
	"career-backend/internal/shared/telemetry"
	"career-backend/internal/usage"
	"career-backend/internal/users"
)

// App holds shared dependencies and the HTTP router.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Gorm   *gorm.DB
	States googleauth.StateStore

	UsersRepo        users.Repo
	CoverLettersRepo coverletters.Repo

	UsersService       *users.Service
	CoverLetterService *coverletters.Service
	UsageService       *usage.Service
	AccountService     *account.Service
	NavigationService  *navigation.Service
	Generator          llm.TextGenerator
	UsersHandler       *users.Handler
	CoverLetterHandler *coverletters.Handler
	UsageHandler       *usage.Handler
	AccountHandler     *account.Handler
	NavigationHandler  *navigation.Handler
	GoogleAuth         *googleauth.GoogleService
	Health             *health.Service

	closers []io.Closer
}

// Options lets callers replace dependencies, mainly in tests.
type Options struct {
	Generator llm.TextGenerator
}

// Build prepares shared dependencies and wires routes.
func Build(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if !cfg.IsDevLike() && strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.New("JWT_SECRET is required outside dev")
	}

	app := &App{Config: cfg}

	if err := app.buildStorage(ctx); err != nil {
		return nil, err
	}
	if err := app.buildStates(ctx); err != nil {
		app.Close()
		return nil, err
	}

	gen := opts.Generator
	if gen == nil {
		var err error
		gen, err = buildGenerator(cfg)
		if err != nil {
			app.Close()
			return nil, err
		}
	}
	app.Generator = gen

	app.buildServices()

	app.Router = server.NewRouter(server.RouterDeps{
		Config:             app.Config,
		UserHandler:        app.UsersHandler,
		CoverLetterHandler: app.CoverLetterHandler,
		NavHandler:         app.NavigationHandler,
		UsageHandler:       app.UsageHandler,
		AccountHandler:     app.AccountHandler,
		GoogleAuth:         app.GoogleAuth,
		Health:             app.Health,
	})
	return app, nil
}

// Close releases database and cache connections.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
	a.closers = nil
}

// buildStorage picks Postgres, then SQLite, then in-memory repositories.
func (a *App) buildStorage(ctx context.Context) error {
	cfg := a.Config
	switch {
	case cfg.DatabaseURL != "":
		sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			if cfg.IsDevLike() {
				telemetry.Warn("bootstrap.db_fallback", map[string]any{"error": err})
				return a.useMemory()
			}
			return err
		}
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			return fmt.Errorf("run migrations: %w", err)
		}
		a.DB = sqlDB
		a.closers = append(a.closers, sqlDB)
		a.UsersRepo = &users.PGRepo{DB: sqlDB}
		a.CoverLettersRepo = &coverletters.PGRepo{DB: sqlDB}
		telemetry.Info("bootstrap.storage", map[string]any{"driver": "postgres"})
		return nil

	case cfg.SQLitePath != "":
		gdb, err := db.OpenSQLite(cfg.SQLitePath, &users.Record{}, &coverletters.Record{}, &usage.Record{})
		if err != nil {
			return err
		}
		if sqlDB, err := gdb.DB(); err == nil {
			a.closers = append(a.closers, sqlDB)
		}
		a.Gorm = gdb
		a.UsersRepo = &users.GormRepo{DB: gdb}
		a.CoverLettersRepo = &coverletters.GormRepo{DB: gdb}
		telemetry.Info("bootstrap.storage", map[string]any{"driver": "sqlite", "path": cfg.SQLitePath})
		return nil

	default:
		if !cfg.IsDevLike() {
			return errors.New("DATABASE_URL or SQLITE_PATH is required")
		}
		return a.useMemory()
	}
}

func (a *App) useMemory() error {
	a.UsersRepo = users.NewMemoryRepo()
	a.CoverLettersRepo = coverletters.NewMemoryRepo()
	telemetry.Info("bootstrap.storage", map[string]any{"driver": "memory"})
	return nil
}

func (a *App) buildStates(ctx context.Context) error {
	if a.Config.RedisURL == "" {
		a.States = googleauth.NewMemoryStateStore()
		return nil
	}
	store, err := googleauth.NewRedisStateStore(ctx, a.Config.RedisURL)
	if err != nil {
		if a.Config.IsDevLike() {
			telemetry.Warn("bootstrap.redis_fallback", map[string]any{"error": err})
			a.States = googleauth.NewMemoryStateStore()
			return nil
		}
		return err
	}
	a.closers = append(a.closers, store)
	a.States = store
	return nil
}

func buildGenerator(cfg config.Config) (llm.TextGenerator, error) {
	switch cfg.LLMProvider {
	case "openai":
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" && cfg.IsDevLike() {
			telemetry.Warn("bootstrap.llm_placeholder", map[string]any{"reason": "OPENAI_API_KEY empty"})
			return llm.PlaceholderGenerator{}, nil
		}
		return openai.NewClient(openai.Options{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.LLMModel,
			BaseURL: cfg.OpenAIBaseURL,
			Timeout: cfg.OpenAITimeout,
		})
	case "none":
		return llm.PlaceholderGenerator{}, nil
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLMProvider)
	}
}

func (a *App) buildServices() {
	switch {
	case a.DB != nil:
		a.UsageService = usage.NewPostgresService(usage.NewPGStore(a.DB, a.Config.UsageWeeklyLimit))
	case a.Gorm != nil:
		a.UsageService = usage.NewGormService(usage.NewGormStore(a.Gorm, a.Config.UsageWeeklyLimit))
	default:
		a.UsageService = usage.NewService(a.Config.UsageWeeklyLimit)
	}

	a.UsersService = users.NewService(a.UsersRepo)
	a.CoverLetterService = coverletters.NewService(a.CoverLettersRepo, a.UsersService, a.Generator, a.UsageService)
	a.AccountService = account.NewService(a.CoverLettersRepo, a.UsersRepo, a.UsageService)
	a.NavigationService = navigation.NewService(navigation.Brand{
		Name:    a.Config.BrandName,
		LogoURL: a.Config.BrandLogoURL,
		Href:    "/",
	}, a.UsersService)

	a.GoogleAuth = googleauth.NewGoogleService(googleauth.GoogleOptions{
		ClientID:     a.Config.GoogleClientID,
		ClientSecret: a.Config.GoogleClientSecret,
		RedirectURL:  a.Config.GoogleRedirectURL,
		UIRedirect:   a.Config.UIRedirectURL,
		States:       a.States,
		Users:        a.UsersService,
	})

	a.Health = health.NewService()
	if a.DB != nil {
		a.Health.Add("database", a.DB.PingContext)
	}
	if a.Gorm != nil {
		if sqlDB, err := a.Gorm.DB(); err == nil {
			a.Health.Add("database", sqlDB.PingContext)
		}
	}
	if rs, ok := a.States.(*googleauth.RedisStateStore); ok {
		a.Health.Add("redis", func(ctx context.Context) error {
			return rs.Client.Ping(ctx).Err()
		})
	}

	a.UsersHandler = users.NewHandler(a.UsersService)
	a.CoverLetterHandler = coverletters.NewHandler(a.CoverLetterService)
	a.UsageHandler = usage.NewHandler(a.UsageService)
	a.AccountHandler = account.NewHandler(a.AccountService)
	a.NavigationHandler = navigation.NewHandler(a.NavigationService)
}
