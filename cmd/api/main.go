package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/backstage-cms/uploadcare-media/api/routes"
	"github.com/backstage-cms/uploadcare-media/internal/media"
	"github.com/backstage-cms/uploadcare-media/internal/observer"
	"github.com/backstage-cms/uploadcare-media/internal/repair"
	"github.com/backstage-cms/uploadcare-media/pkg/config"
	"github.com/backstage-cms/uploadcare-media/pkg/db"
	"github.com/backstage-cms/uploadcare-media/pkg/logger"
	"github.com/backstage-cms/uploadcare-media/pkg/metrics"
	"github.com/backstage-cms/uploadcare-media/pkg/migrate"
	"github.com/backstage-cms/uploadcare-media/pkg/redis"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	repo := media.NewRepository(dbClient.DB())
	repairMetrics := metrics.NewRepairMetrics(prometheus.DefaultRegisterer)
	resolver := media.NewResolver(repo, cfg.Media, logg).WithMetrics(repairMetrics)
	synchronizer := media.NewSynchronizer(dbClient, media.NewRelationshipRepository(dbClient.DB()), logg)
	runner := repair.NewRunner(repair.RunnerParams{
		Conn:     dbClient.DB(),
		Resolver: resolver,
		Sync:     synchronizer,
		Config:   cfg.Repair,
		Media:    cfg.Media,
		Logger:   logg,
		Metrics:  repairMetrics,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			media.NewService(repo, cfg.Media, logg),
			media.NewIngestor(repo, resolver, cfg.Media, logg),
			observer.New(dbClient.DB(), resolver, synchronizer, logg),
			runner,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
