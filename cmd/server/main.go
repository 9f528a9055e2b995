package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/invdash/internal/api"
	"github.com/andresuchdata/invdash/internal/cache"
	"github.com/andresuchdata/invdash/internal/config"
	"github.com/andresuchdata/invdash/internal/dataset"
	"github.com/andresuchdata/invdash/internal/derive"
	"github.com/andresuchdata/invdash/internal/domain"
	"github.com/andresuchdata/invdash/internal/service"
	"github.com/andresuchdata/invdash/internal/session"
	"github.com/andresuchdata/invdash/internal/storage"
	"github.com/andresuchdata/invdash/internal/table"
	"github.com/andresuchdata/invdash/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.Configure(os.Stdout, cfg.Server.LogJSON)
	logger.SetLevel(cfg.Server.LogLevel)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := newObjectStorage(cfg.Storage)

	snapshotCache, err := cache.NewSnapshotCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Snapshot cache unavailable, continuing without it")
		snapshotCache = cache.NewNoopSnapshotCache()
	}

	source, closeSource, err := dataset.OpenSource(ctx, cfg, store)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to open dataset source")
	}
	defer closeSource()

	policy, err := domain.ParseReorderPolicy(cfg.Dashboard.ReorderPolicy)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Invalid reorder policy")
	}
	scope, err := table.ParseSearchScope(cfg.Dashboard.SearchScope)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Invalid search scope")
	}

	svc := service.NewDashboardService(dataset.NewLoader(source, cfg.Dataset.Strict), service.Options{
		TargetRate:   cfg.Dashboard.TargetRate,
		Calculator:   derive.NewInventoryCalculator(policy),
		Cache:        snapshotCache,
		Storage:      store,
		ExportPrefix: cfg.Storage.ExportPrefix,
		Sessions: session.NewRegistry(cfg.Dashboard.MaxSessions,
			table.WithReorderPolicy(policy),
			table.WithSearchScope(scope),
		),
	})

	if err := svc.Reload(ctx); err != nil {
		// the API answers 503 until a later reload succeeds
		logger.Log.Error().Err(err).Str("source", source.Name()).Msg("Initial dataset load failed")
	}

	if cfg.Dataset.Watch && isFileSource(cfg.Dataset.Source) {
		go func() {
			err := dataset.Watch(ctx, cfg.Dataset.Path, cfg.Dataset.Debounce(), func() {
				if err := svc.Reload(ctx); err != nil {
					logger.Log.Error().Err(err).Msg("Dataset reload failed")
				}
			})
			if err != nil {
				logger.Log.Error().Err(err).Msg("Dataset watcher stopped")
			}
		}()
	}

	router := api.NewRouter(svc, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

func newObjectStorage(cfg config.StorageConfig) storage.ObjectStorage {
	if !cfg.Enabled {
		return storage.Noop{}
	}

	client, err := storage.NewMinioClient(storage.MinioConfig{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
		UseSSL:    cfg.UseSSL,
	})
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Object storage disabled")
		return storage.Noop{}
	}
	return client
}

func isFileSource(source string) bool {
	switch strings.ToLower(strings.TrimSpace(source)) {
	case "", "file":
		return true
	}
	return false
}
