// Package server wires configuration, storage, services and transports into
// a runnable application: the gRPC endpoint plus the Prometheus listener.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/bookkeeper/internal/logging"
	"github.com/dmitrijs2005/bookkeeper/internal/server/archive"
	"github.com/dmitrijs2005/bookkeeper/internal/server/config"
	"github.com/dmitrijs2005/bookkeeper/internal/server/events"
	"github.com/dmitrijs2005/bookkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bookkeeper/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/bookkeeper/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	grpc     *gs.GRPCServer
	recorder *metrics.Recorder
	closers  []io.Closer
}

// openDB is a seam for tests.
var openDB = func(dsn string) (*sql.DB, error) { return sql.Open("pgx", dsn) }

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(os.Stdout, c.LogLevel, c.LogFormat)
	if err != nil {
		return nil, err
	}
	return newApp(ctx, c, logger, repomanager.NewPostgresRepositoryManager())
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, repos repomanager.RepositoryManager) (*App, error) {
	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app := &App{config: c, logger: logger, db: db}

	if err := db.PingContext(ctx); err != nil {
		app.close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	if err := repos.RunMigrations(ctx, db); err != nil {
		app.close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.recorder = metrics.New(reg)

	opts := []services.AccountOption{services.WithRecorder(app.recorder)}

	if c.ArchiveEnabled() {
		a, err := archive.New(ctx, archive.Options{
			Bucket:     c.S3Bucket,
			Region:     c.S3Region,
			Endpoint:   c.S3BaseEndpoint,
			AccessKey:  c.S3RootUser,
			SecretKey:  c.S3RootPassword,
			PresignTTL: c.PresignTTL,
			Passphrase: c.ArchivePassphrase,
		})
		if err != nil {
			app.close()
			return nil, fmt.Errorf("archive init error: %w", err)
		}
		opts = append(opts, services.WithArchive(a))
	}

	if c.EventsEnabled() {
		p, err := events.Dial(c.AMQPURL, c.AMQPExchange, c.AMQPQueue)
		if err != nil {
			// Audit events are best effort; the server runs without them.
			logger.Error(ctx, "AMQP unavailable", "error", err)
		} else {
			app.closers = append(app.closers, p)
			opts = append(opts, services.WithEvents(p))
		}
	}

	users := services.NewUserService(db, repos, c)
	accounts := services.NewAccountService(db, repos, logger, opts...)
	app.grpc = gs.NewGRPCServer(c.EndpointAddrGRPC, logger, users, accounts, c.SecretKey,
		gs.WithMaxMessageSize(c.MaxMessageSize))

	return app, nil
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives. The first
// server error stops the others.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer app.close()

	app.logger.Info(ctx, "Starting app...")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.grpc.Run(ctx)
	})

	if app.config.MetricsAddr != "" {
		srv := &http.Server{Addr: app.config.MetricsAddr, Handler: app.metricsMux()}
		g.Go(func() error {
			app.logger.Info(ctx, "Starting metrics server", "address", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.config.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err := g.Wait()
	if err != nil {
		app.logger.Error(ctx, "server stopped", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
	return err
}

func (app *App) metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", app.recorder.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := app.db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (app *App) close() {
	for _, c := range app.closers {
		if err := c.Close(); err != nil {
			app.logger.Warn(context.Background(), "close failed", "error", err)
		}
	}
	app.closers = nil
	if app.db != nil {
		_ = app.db.Close()
	}
}
