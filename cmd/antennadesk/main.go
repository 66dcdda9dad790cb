// Command antennadesk serves the request lifecycle API and the notification
// WebSocket hub.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sliea/antennadesk/internal/api"
	"github.com/sliea/antennadesk/internal/auth"
	"github.com/sliea/antennadesk/internal/config"
	"github.com/sliea/antennadesk/internal/db"
	"github.com/sliea/antennadesk/internal/db/migrations"
	"github.com/sliea/antennadesk/internal/dbpool"
	"github.com/sliea/antennadesk/internal/service"
	"github.com/sliea/antennadesk/internal/store"
	"github.com/sliea/antennadesk/internal/ws"
)

const (
	shutdownTimeout   = 15 * time.Second
	readHeaderTimeout = 10 * time.Second
	poolStatsInterval = 15 * time.Second
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := run(log); err != nil {
		log.WithError(err).Fatal("antennadesk exited")
	}
}

func run(log *logrus.Logger) error {
	if _, err := config.LoadEnvFiles(".env"); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}

	log.SetLevel(level)

	if os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value(), dbpool.Options{
		MaxConns:         cfg.DBMaxConns,
		StatementTimeout: cfg.DBStatementTimeout,
	})
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		return err
	}

	base := store.Base{Pool: pool, Log: log}
	requests := store.NewRequestStore(base)
	equipment := store.NewEquipmentStore(base)

	hub := ws.NewHub(ws.Config{
		MaxConnections:  cfg.WSMaxConnections,
		MaxPerPrincipal: cfg.WSMaxPerPrincipal,
		MaxLifetime:     cfg.WSMaxLifetime,
	}, log)

	svc := service.NewRequestService(requests, service.Registries{
		Equipment: equipment,
		Plans:     store.NewPlanStore(base),
		Users:     store.NewUserStore(base),
	}, hub, log)

	router := api.NewRouter(ctx, &api.RouterDeps{
		Log:           log,
		DB:            pool,
		Schema:        db.NewVersionReader(pool),
		Hub:           hub,
		Requests:      svc,
		Equipment:     equipment,
		Verifier:      auth.NewVerifier(cfg.JWTSecret.Value(), cfg.JWTIssuer, cfg.JWTLeeway),
		CORSOrigins:   cfg.CORSOrigins,
		Version:       config.Version,
		SchemaVersion: int64(db.SchemaVersion()),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	metricsSrv := &http.Server{
		Addr:              cfg.MetricsAddr(),
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)

		return nil
	})

	g.Go(func() error {
		log.WithFields(logrus.Fields{"addr": srv.Addr, "version": config.Version}).Info("API listening")

		return serve(srv)
	})

	g.Go(func() error {
		log.WithField("addr", metricsSrv.Addr).Info("metrics listening")

		return serve(metricsSrv)
	})

	g.Go(func() error {
		pool.ReportStats(gctx, poolStatsInterval)

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		// Drain WebSocket clients before the HTTP server stops accepting.
		hub.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return errors.Join(srv.Shutdown(shutdownCtx), metricsSrv.Shutdown(shutdownCtx))
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("shutdown complete")

	return nil
}

func serve(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving %s: %w", srv.Addr, err)
	}

	return nil
}
