package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/backstage-cms/uploadcare-media/internal/media"
	"github.com/backstage-cms/uploadcare-media/internal/repair"
	"github.com/backstage-cms/uploadcare-media/pkg/config"
	"github.com/backstage-cms/uploadcare-media/pkg/db"
	"github.com/backstage-cms/uploadcare-media/pkg/logger"
)

// One-shot repair pass, for operators who want to run it by hand instead of
// waiting on the cron worker.
func main() {
	logg := logger.New(logger.Options{ServiceName: "repair"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "repair",
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

	repo := media.NewRepository(dbClient.DB())
	runner := repair.NewRunner(repair.RunnerParams{
		Conn:     dbClient.DB(),
		Resolver: media.NewResolver(repo, cfg.Media, logg),
		Sync:     media.NewSynchronizer(dbClient, media.NewRelationshipRepository(dbClient.DB()), logg),
		Config:   cfg.Repair,
		Media:    cfg.Media,
		Logger:   logg,
	})

	ctx := logg.WithField(context.Background(), "env", cfg.App.Env)
	logg.Info(ctx, "starting repair pass")

	if err := repair.NewJob(runner, logg).Run(ctx); err != nil {
		logg.Error(ctx, "repair pass failed", err)
		os.Exit(1)
	}

	logg.Info(ctx, "repair pass complete")
}
