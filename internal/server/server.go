// Package server wires the configured stores, clients and services into an
// HTTP kernel and runs it until the process is signalled.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/souq/app/controllers"
	"github.com/shashiranjanraj/souq/app/gateway"
	"github.com/shashiranjanraj/souq/app/repositories"
	"github.com/shashiranjanraj/souq/app/routes"
	"github.com/shashiranjanraj/souq/app/services"
	"github.com/shashiranjanraj/souq/config"
	_ "github.com/shashiranjanraj/souq/database/migrations"
	"github.com/shashiranjanraj/souq/internal/kernel"
	"github.com/shashiranjanraj/souq/pkg/auth"
	"github.com/shashiranjanraj/souq/pkg/cache"
	"github.com/shashiranjanraj/souq/pkg/database"
	"github.com/shashiranjanraj/souq/pkg/event"
	"github.com/shashiranjanraj/souq/pkg/logger"
	"github.com/shashiranjanraj/souq/pkg/migration"
	"github.com/shashiranjanraj/souq/pkg/storage"
	"github.com/shashiranjanraj/souq/pkg/workerpool"
)

const shutdownTimeout = 15 * time.Second

// App is one wired instance of the API.
type App struct {
	Settings *config.Settings
	Kernel   *kernel.HTTPKernel
	SQL      *gorm.DB
	Users    repositories.UserRepository
	Store    *repositories.Store

	mongo   *mongo.Client
	closers []func() error
}

// Stores opens the SQL identity store, applies pending migrations and
// selects the document store named by DATA_DRIVER.
func Stores(ctx context.Context, s *config.Settings) (*App, error) {
	a := &App{Settings: s}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	db, err := database.Connect(ctx, s.SQL)
	if err != nil {
		return nil, err
	}
	a.SQL = db
	a.closers = append(a.closers, func() error { return database.Close(db) })

	if err := migration.New(db, io.Discard).Run(); err != nil {
		return nil, err
	}
	a.Users = repositories.NewUserRepository(db)

	switch s.App.DataDriver {
	case "memory":
		a.Store = repositories.NewMemoryStore(nil)
		logger.Warn("server: using the in-memory document store; data is lost on exit")
	default:
		client, mdb, err := database.ConnectMongo(ctx, s.Mongo)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { return client.Disconnect(context.Background()) })

		a.Store = repositories.NewMongoStore(mdb)
		if err := a.Store.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		if err := attachMongoLogs(ctx, a, mdb, s); err != nil {
			return nil, err
		}
		a.mongo = client
	}

	ok = true
	return a, nil
}

// Build wires every component on top of Stores.
func Build(ctx context.Context, s *config.Settings) (*App, error) {
	a, err := Stores(ctx, s)
	if err != nil {
		return nil, err
	}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	var productCache *cache.Store
	if s.Redis.Addr != "" {
		productCache, err = cache.Connect(ctx, s.Redis.Addr, s.Redis.Password, "souq:")
		if err != nil {
			logger.Warn("server: redis unavailable, product cache disabled", "error", err)
		} else {
			a.closers = append(a.closers, productCache.Close)
		}
	}

	events := event.NewDispatcher()
	if len(s.Kafka.Brokers) > 0 {
		fwd := event.NewKafkaForwarder(event.NewKafkaWriter(s.Kafka.Brokers, s.Kafka.Topic), 5*time.Second)
		a.closers = append(a.closers, fwd.Close)
		publish := fwd.Handler(services.OrderEventKey)
		for _, name := range []string{services.EventOrderCreated, services.EventOrderStatusUpdated, services.EventOrderDeleted} {
			events.Listen(name, publish)
		}
	}

	disks, err := storage.NewManager(ctx, s.Storage)
	if err != nil {
		return nil, err
	}
	var files http.Handler
	if s.Storage.Disk == "local" {
		files = http.FileServer(http.Dir(disks.Local().Root()))
	}

	pool := workerpool.New(s.Uploads.Workers)
	a.closers = append(a.closers, func() error { pool.Shutdown(); return nil })

	tokens := auth.NewIssuer(s.Auth.Secret, s.Auth.TTL)
	uploads := services.NewUploadService(disks.Default(), pool)
	catalog := services.NewCatalogService(a.Store.Products, a.Store.Reviews, productCache, s.Redis.TTL)
	orders := services.NewOrderService(a.Store.Orders, events)
	payments := services.NewPaymentService(gateway.New(s.Gateway), a.Store.Orders, events, s.Gateway)
	accounts := services.NewAuthService(a.Users, tokens)

	a.Kernel = kernel.NewHTTPKernel(ctx, s.App, routes.API{
		Products: controllers.NewProductController(catalog, uploads),
		Orders:   controllers.NewOrderController(orders),
		Checkout: controllers.NewCheckoutController(payments),
		Uploads:  controllers.NewUploadController(uploads),
		Auth:     controllers.NewAuthController(accounts, s.Auth.TTL, config.IsProduction()),
		Health:   controllers.NewHealthController(a.healthChecks(productCache)),
		Tokens:   tokens,
		Files:    files,
	})

	ok = true
	return a, nil
}

func (a *App) healthChecks(c *cache.Store) map[string]controllers.HealthCheck {
	checks := map[string]controllers.HealthCheck{
		"sql": func(ctx context.Context) error {
			sqlDB, err := a.SQL.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"cache": c.Ping,
	}
	if a.mongo != nil {
		checks["mongo"] = func(ctx context.Context) error { return a.mongo.Ping(ctx, readpref.Primary()) }
	}
	return checks
}

func attachMongoLogs(ctx context.Context, a *App, db *mongo.Database, s *config.Settings) error {
	if s.LogMongo == "" {
		return nil
	}
	col := db.Collection(s.LogMongo)
	if err := logger.EnsureLogIndex(ctx, col); err != nil {
		return fmt.Errorf("server: log index: %w", err)
	}
	h := logger.NewMongoHandler(col, slog.LevelInfo)
	logger.Configure(s.App.Env, os.Stdout, h)
	a.closers = append(a.closers, func() error { h.Close(); return nil })
	return nil
}

// Close releases everything Build opened, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Start serves the API on APP_PORT until ctx ends or SIGINT/SIGTERM
// arrives, then drains in-flight requests.
func Start(ctx context.Context, s *config.Settings) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := Build(ctx, s)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              ":" + s.App.Port,
		Handler:           a.Kernel.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("server: listening", "addr", srv.Addr, "env", s.App.Env, "data_driver", s.App.DataDriver)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("server: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
