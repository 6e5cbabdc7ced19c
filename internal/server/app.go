// Package server initializes and runs the auth server. It opens the
// database and optional Redis connection, applies migrations, seeds the
// admin account, and runs the HTTP API, the gRPC health endpoint and the
// purge loop until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fakhri2406/creadev/internal/cryptox"
	"github.com/fakhri2406/creadev/internal/logging"
	"github.com/fakhri2406/creadev/internal/server/config"
	gs "github.com/fakhri2406/creadev/internal/server/grpc"
	"github.com/fakhri2406/creadev/internal/server/httpapi"
	"github.com/fakhri2406/creadev/internal/server/repositories/repomanager"
	"github.com/fakhri2406/creadev/internal/server/repositories/revokedtokens"
	"github.com/fakhri2406/creadev/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
)

const startupTimeout = 30 * time.Second

type App struct {
	config        *config.Config
	logger        logging.Logger
	db            *sql.DB
	redis         *redis.Client
	repomanager   repomanager.RepositoryManager
	authService   *services.AuthService
	authenticator *services.Authenticator
	maintenance   *services.Maintenance
}

func NewApp(c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, rdb, rm, err := OpenStores(c)
	if err != nil {
		return nil, err
	}

	hasher, err := cryptox.NewHasher(c.PasswordHasher)
	if err != nil {
		CloseStores(db, rdb)
		return nil, err
	}

	as := services.NewAuthService(db, rm, hasher, c, logger)

	return &App{
		config:        c,
		logger:        logger,
		db:            db,
		redis:         rdb,
		repomanager:   rm,
		authService:   as,
		authenticator: services.NewAuthenticator(db, rm, as.Codec(), logger),
		maintenance:   services.NewMaintenance(db, rm, logger),
	}, nil
}

// OpenStores opens the database and, for the redis revocation backend, the
// Redis client, and builds the repository manager over them. Nothing is
// contacted until first use.
func OpenStores(c *config.Config) (*sql.DB, *redis.Client, repomanager.RepositoryManager, error) {
	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("db init error: %w", err)
	}

	var (
		opts []repomanager.Option
		rdb  *redis.Client
	)
	switch c.RevocationBackend {
	case "", config.RevocationPostgres:
	case config.RevocationRedis:
		ro, err := redis.ParseURL(c.RedisURL)
		if err != nil {
			db.Close()
			return nil, nil, nil, fmt.Errorf("invalid redis url: %w", err)
		}
		rdb = redis.NewClient(ro)
		opts = append(opts, repomanager.WithRevocationStore(revokedtokens.NewRedisRepository(rdb)))
	default:
		db.Close()
		return nil, nil, nil, fmt.Errorf("unknown revocation backend %q", c.RevocationBackend)
	}

	rm, err := repomanager.NewPostgresRepositoryManager(db, opts...)
	if err != nil {
		CloseStores(db, rdb)
		return nil, nil, nil, fmt.Errorf("repository init error: %w", err)
	}
	return db, rdb, rm, nil
}

// CloseStores releases what OpenStores opened.
func CloseStores(db *sql.DB, rdb *redis.Client) {
	if rdb != nil {
		_ = rdb.Close()
	}
	_ = db.Close()
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// prepare checks connectivity, migrates the schema and seeds the admin account.
func (app *App) prepare(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	if err := app.db.PingContext(ctx); err != nil {
		return fmt.Errorf("db ping error: %w", err)
	}
	if app.redis != nil {
		if err := app.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping error: %w", err)
		}
	}
	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	created, err := services.NewSeeder(app.authService, app.config, app.logger).Run(ctx)
	if err != nil {
		return fmt.Errorf("seed error: %w", err)
	}
	if created {
		app.logger.Info(ctx, "admin account created", "username", app.config.AdminUsername)
	}
	return nil
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s, err := httpapi.New(httpapi.Deps{
		Address:                 app.config.EndpointAddrHTTP,
		Auth:                    app.authService,
		Authenticator:           app.authenticator,
		Maintenance:             app.maintenance,
		DB:                      app.db,
		LoginRateLimitPerMinute: app.config.LoginRateLimitPerMinute,
		TrustProxyHeaders:       app.config.TrustProxyHeaders,
		Logger:                  app.logger,
	})

	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	} else {

		if err := s.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s, err := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.authenticator)

	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	} else {

		if err := s.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}
}

func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer CloseStores(app.db, app.redis)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if err := app.prepare(ctx); err != nil {
		app.logger.Error(ctx, "startup failed", "error", err)
		return err
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.maintenance.RunPurgeLoop(ctx, app.config.PurgeInterval)
	}()

	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")
	return nil
}
