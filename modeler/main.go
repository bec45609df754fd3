package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/loftcad-labs/loftcad-go/internal/cad"
	"github.com/loftcad-labs/loftcad-go/internal/platform/auth"
	"github.com/loftcad-labs/loftcad-go/internal/platform/env"
	"github.com/loftcad-labs/loftcad-go/internal/platform/httpserver"
	"github.com/loftcad-labs/loftcad-go/internal/platform/objectstore"
	"github.com/loftcad-labs/loftcad-go/internal/platform/postgres"
	repopg "github.com/loftcad-labs/loftcad-go/internal/repo/postgres"
	"github.com/loftcad-labs/loftcad-go/internal/resolve"
	"github.com/loftcad-labs/loftcad-go/internal/service/runs"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := env.String("MODELER_HTTP_ADDR", ":8080")
	shutdownTimeout, err := env.Duration("MODELER_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}

	dbCfg, err := postgres.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid database config", "error", err)
		os.Exit(2)
	}
	db, err := postgres.Open(ctx, dbCfg)
	if err != nil {
		logger.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	startupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := repopg.EnsureSchema(startupCtx, db); err != nil {
		cancel()
		logger.Error("schema bootstrap failed", "error", err)
		os.Exit(1)
	}
	cancel()

	storeCfg, err := objectstore.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid object store config", "error", err)
		os.Exit(2)
	}
	storeClient, err := objectstore.NewMinIOClient(storeCfg)
	if err != nil {
		logger.Error("object store client init failed", "error", err)
		os.Exit(2)
	}
	startupCtx, cancel = context.WithTimeout(ctx, 5*time.Second)
	if err := objectstore.EnsureBucket(startupCtx, storeClient, storeCfg); err != nil {
		cancel()
		logger.Error("object store unavailable", "error", err)
		os.Exit(1)
	}
	cancel()

	cadCfg, err := cad.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid cad config", "error", err)
		os.Exit(2)
	}
	cadClient, err := cad.NewClient(
		cadCfg.BaseURL,
		cad.WithTokenSource(cadCfg.TokenSource()),
		cad.WithHTTPClient(&http.Client{Timeout: cadCfg.Timeout}),
		cad.WithLogger(logger),
	)
	if err != nil {
		logger.Error("cad client init failed", "error", err)
		os.Exit(2)
	}

	planeTable, err := resolve.PlaneTableFromEnv()
	if err != nil {
		logger.Error("invalid plane table", "error", err)
		os.Exit(2)
	}
	resolver, err := resolve.New(cadClient, planeTable, logger)
	if err != nil {
		logger.Error("resolver init failed", "error", err)
		os.Exit(2)
	}

	runStore := repopg.NewRunStore(db)
	exporter := &runs.ObjectStoreExporter{Client: storeClient, Bucket: storeCfg.BucketTranscripts}
	svc, err := runs.New(cadClient, resolver, runStore, exporter, logger)
	if err != nil {
		logger.Error("run service init failed", "error", err)
		os.Exit(2)
	}

	authCfg, err := auth.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid auth config", "error", err)
		os.Exit(2)
	}
	authenticator, err := auth.FromConfig(ctx, authCfg)
	if err != nil {
		logger.Error("auth init failed", "error", err)
		os.Exit(2)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", httpserver.Healthz("modeler"))
	mux.HandleFunc(
		"/readyz",
		httpserver.Readyz(
			"modeler",
			httpserver.ReadinessCheck{
				Name: "postgres",
				Check: func(ctx context.Context) error {
					checkCtx, cancel := context.WithTimeout(ctx, 750*time.Millisecond)
					defer cancel()
					return db.PingContext(checkCtx)
				},
			},
			httpserver.ReadinessCheck{
				Name: "minio",
				Check: func(ctx context.Context) error {
					checkCtx, cancel := context.WithTimeout(ctx, 750*time.Millisecond)
					defer cancel()
					return objectstore.CheckBucket(checkCtx, storeClient, storeCfg)
				},
			},
		),
	)

	api := newModelerAPI(logger, db, svc, storeClient, storeCfg)
	api.register(mux)

	handler := auth.Middleware{
		Logger:        logger,
		Authenticator: authenticator,
		SkipPrefixes:  []string{"/healthz", "/readyz"},
	}.Wrap(mux)

	cfg := httpserver.Config{
		Service:         "modeler",
		Addr:            addr,
		ShutdownTimeout: shutdownTimeout,
	}

	if err := httpserver.Run(ctx, logger, cfg, httpserver.Wrap(logger, "modeler", handler)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
