package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"example.com/campaignai/internal/config"
	"example.com/campaignai/internal/ingest"
	"example.com/campaignai/internal/recommend"
	"example.com/campaignai/internal/registry"
	spg "example.com/campaignai/internal/storage/postgres"
	"example.com/campaignai/internal/stream"
	transport "example.com/campaignai/internal/transport/http"
)

func runServe(parent context.Context, opts *rootOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	deps := &transport.ServerDeps{
		Cfg:          cfg,
		Registry:     registry.New(),
		Responder:    &stream.Responder{Unit: cfg.PacingUnit, NewGenerator: recommend.NewRandom},
		NewGenerator: recommend.NewRandom,
		Log:          log,
		Now:          func() time.Time { return time.Now().UTC() },
	}

	// Runs after the HTTP server has drained; in-flight handlers may still
	// record activities until then.
	var afterShutdown func()

	if cfg.ActivityEnabled() {
		db, err := openActivityLog(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer db.Close()

		ingestor := ingest.NewIngestor(spg.NewWriter(db), cfg.QueueMaxSize, cfg.BatchMaxSize, cfg.BatchMaxWait, log)
		ingCtx, stopIngest := context.WithCancel(context.WithoutCancel(ctx))
		defer stopIngest()
		ingestor.Start(ingCtx)
		afterShutdown = func() {
			stopIngest()
			<-ingestor.Done()
		}
		log.Info("activity log enabled",
			zap.Int("queue", cfg.QueueMaxSize),
			zap.Int("batch", cfg.BatchMaxSize),
			zap.Duration("wait", cfg.BatchMaxWait))

		deps.Activity = ingestor
		deps.DB = db
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           deps.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		if afterShutdown != nil {
			afterShutdown()
		}
		return fmt.Errorf("listen %s: %w", srv.Addr, err)
	}
	log.Info("listening", zap.String("addr", ln.Addr().String()), zap.Duration("pacing_unit", cfg.PacingUnit))

	err = serveHTTP(ctx, srv, ln, log, afterShutdown)
	log.Info("stopped")
	return err
}

// serveHTTP serves on ln until ctx is done or Serve fails, then shuts srv
// down and calls afterShutdown once every in-flight request has finished.
func serveHTTP(ctx context.Context, srv *http.Server, ln net.Listener, log *zap.Logger, afterShutdown func()) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown", zap.Error(err))
		}
		if afterShutdown != nil {
			afterShutdown()
		}
		return nil
	})
	return g.Wait()
}

func openActivityLog(ctx context.Context, cfg config.Config, log *zap.Logger) (*spg.DB, error) {
	db, err := spg.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigration(ctx, cfg.MigrationPath); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("db: migration applied", zap.String("path", cfg.MigrationPath))
	return db, nil
}
