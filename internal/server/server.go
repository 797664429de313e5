package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/weft-labs/weft/backend/internal/queue"
	mid "github.com/weft-labs/weft/backend/internal/server/middleware"
	"github.com/weft-labs/weft/backend/internal/util"
	"github.com/weft-labs/weft/backend/pkg/cache"
	"github.com/weft-labs/weft/backend/pkg/logger"
	"github.com/weft-labs/weft/backend/pkg/resolve"
	cachestorage "github.com/weft-labs/weft/backend/pkg/store/pgx"
	"github.com/weft-labs/weft/backend/pkg/wikidata"

	"github.com/go-playground/validator"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	databaseURL := util.GetEnv("DATABASE_URL")
	if util.GetEnvBool("AUTO_MIGRATE", true) {
		runMigrations(databaseURL)
	}

	conn, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer conn.Close()

	client := NewGraphClientFromEnv()

	cacheSvc := cache.NewService(
		cachestorage.NewCacheDBStorage(conn),
		cache.WithTTL(time.Duration(util.GetEnvInt("CACHE_TTL_HOURS", 24))*time.Hour),
	)

	resolverOpts := []resolve.Option{}

	app := &mid.App{
		DBConn:       conn,
		MasterAPIKey: util.GetEnv("MASTER_API_KEY"),
	}

	// The refresh queue is optional; without a broker all claim fetches
	// happen on the request path.
	if util.GetEnvString("RABBITMQ_HOST", "") != "" {
		que := queue.Init(ctx)
		defer que.Close()
		ch, err := que.Channel()
		if err != nil {
			logger.Fatal("Failed to open channel", "err", err)
		}

		if err := queue.SetupQueues(ch, []string{queue.RefreshQueue}); err != nil {
			logger.Fatal("Failed to set up queues", "err", err)
		}

		app.Queue = ch
		resolverOpts = append(resolverOpts, resolve.WithRefreshPublisher(queue.NewRefreshPublisher(ch)))
	}

	app.Resolver = resolve.NewService(client, cacheSvc, resolverOpts...)

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())

	RegisterRoutes(e)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}

// NewGraphClientFromEnv builds the Wikidata client configured by the
// WIKIDATA_* environment variables. Also used by the worker entrypoint.
func NewGraphClientFromEnv() *wikidata.Client {
	return wikidata.NewClient(wikidata.NewClientParams{
		APIURL:      util.GetEnvString("WIKIDATA_API_URL", ""),
		SPARQLURL:   util.GetEnvString("WIKIDATA_SPARQL_URL", ""),
		Language:    util.GetEnvString("WIKIDATA_LANGUAGE", "en"),
		Timeout:     time.Duration(util.GetEnvInt("WIKIDATA_TIMEOUT_SECONDS", 30)) * time.Second,
		MaxParallel: util.GetEnvInt("WIKIDATA_MAX_PARALLEL", 1),
	})
}

func runMigrations(databaseURL string) {
	dir := util.GetEnvString("MIGRATIONS_DIR", "internal/db/migrations")
	m, err := migrate.New("file://"+dir, databaseURL)
	if err != nil {
		logger.Fatal("Failed to load migrations", "dir", dir, "err", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		logger.Fatal("Failed to run migrations", "err", err)
	}
	logger.Info("Database migrations applied")
}
