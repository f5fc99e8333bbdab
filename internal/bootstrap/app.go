package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"igma-backend/internal/assessments"
	"igma-backend/internal/catalog"
	"igma-backend/internal/engine"
	"igma-backend/internal/queue"
	"igma-backend/internal/services/health"
	"igma-backend/internal/shared/config"
	"igma-backend/internal/shared/server"
	"igma-backend/internal/shared/storage/db"
	"igma-backend/internal/shared/storage/object"
	localstore "igma-backend/internal/shared/storage/object/local"
	s3store "igma-backend/internal/shared/storage/object/s3"
	"igma-backend/internal/shared/telemetry"
)

const defaultRegion = "us-east-1"

// App holds shared dependencies.
type App struct {
	Config             config.Config
	Router             *gin.Engine
	DB                 *sql.DB
	Store              object.ObjectStore
	Queue              queue.Client
	CatalogRepo        catalog.Repo
	Catalog            catalog.Reader
	AssessmentsRepo    assessments.Repo
	AssessmentsService *assessments.Service
	Processor          AssessmentProcessor
	Health             *health.Service
}

// AssessmentProcessor allows callers to override assessment processing for tests.
type AssessmentProcessor interface {
	ProcessAssessment(ctx context.Context, assessmentID string) error
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	return BuildContext(context.Background(), cfg)
}

// BuildContext is Build with a caller-supplied context for connection setup.
func BuildContext(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	if strings.TrimSpace(cfg.AWSRegion) == "" {
		cfg.AWSRegion = defaultRegion
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
	}

	if err := buildCatalog(app); err != nil {
		return nil, err
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:            app.Config,
		Health:            app.Health,
		CatalogHandler:    catalog.NewHandler(app.Catalog),
		AssessmentHandler: assessments.NewHandler(app.AssessmentsService),
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.database", map[string]any{"mode": "memory", "reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.database", map[string]any{"mode": "memory", "error": err})
			return nil, nil
		}
		return nil, err
	}
	if isDevLike(cfg.Env) {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.QueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.QueueURL, cfg.AWSRegion)
}

// buildCatalog serves the stored catalog, falling back to CATALOG_PATH or the
// embedded reference catalog while storage is empty.
func buildCatalog(app *App) error {
	fallback := catalog.Default()
	source := "embedded"
	if path := strings.TrimSpace(app.Config.CatalogPath); path != "" {
		loaded, err := catalog.LoadFile(path)
		if err != nil {
			return fmt.Errorf("load catalog %s: %w", path, err)
		}
		fallback = loaded
		source = path
	}
	if problems := catalog.ValidateAll(fallback); len(problems) > 0 {
		telemetry.Warn("bootstrap.catalog_invalid", map[string]any{
			"source":   source,
			"problems": len(problems),
		})
	}

	if app.DB != nil {
		app.CatalogRepo = &catalog.PGRepo{DB: app.DB}
	} else {
		app.CatalogRepo = catalog.NewMemoryRepo(fallback...)
	}
	app.Catalog = catalog.WithFallback(app.CatalogRepo, fallback)
	telemetry.Info("bootstrap.catalog", map[string]any{
		"source":     source,
		"indicators": len(fallback),
	})
	return nil
}

func buildServices(app *App) {
	if app.DB != nil {
		app.AssessmentsRepo = &assessments.PGRepo{DB: app.DB}
	} else {
		app.AssessmentsRepo = assessments.NewMemoryRepo()
	}

	app.AssessmentsService = &assessments.Service{
		Repo:    app.AssessmentsRepo,
		Catalog: app.Catalog,
		Engine: engine.Engine{
			Concurrency: app.Config.Concurrency,
			Epsilon:     app.Config.EvolutionEpsilon,
		},
		Store:    app.Store,
		JobQueue: app.Queue,
	}
	app.Processor = app.AssessmentsService

	var pinger health.Pinger
	if app.DB != nil {
		pinger = app.DB
	}
	app.Health = health.NewService(pinger, app.Catalog)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
