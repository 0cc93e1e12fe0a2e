// Command ledger-snapshot recomputes every project's budget snapshot once and exits.
// Schedule it with cron or a Kubernetes CronJob.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"project-ledger/internal/app"
	"project-ledger/internal/config"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}

	start := time.Now()
	rows, snapshotErr := application.Service().SnapshotBudgets(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
	}

	if snapshotErr != nil {
		log.Fatal().Err(snapshotErr).Msg("Budget snapshot failed")
	}
	log.Info().Int("projects", rows).Dur("took", time.Since(start)).Msg("Budget snapshot completed")
}
