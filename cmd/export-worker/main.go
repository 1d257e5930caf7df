package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog/log"

	"hr.backoffice/internal/config"
	"hr.backoffice/internal/core"
	"hr.backoffice/internal/ports/repository"
	"hr.backoffice/internal/worker"
	"hr.backoffice/internal/worker/export"
	"hr.backoffice/internal/worker/legacyapi"
	"hr.backoffice/pkg/aws"
	"hr.backoffice/pkg/database"
	"hr.backoffice/pkg/logger"
	"hr.backoffice/pkg/telemetry"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}

	logger.Setup(cfg.IsLocalDev)

	shutdownTracer, err := telemetry.InitTracer("hr-backoffice-export-worker", cfg.OTELEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init tracer")
	}
	defer func() {
		_ = shutdownTracer(context.Background())
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewInstrumentedConnection(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening database")
	}
	defer db.Close()
	log.Info().Msg("Successfully connected to the database.")

	awsCfg, err := aws.NewAWSConfig(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load SDK config")
	}

	payrolls := core.NewPayrollService(repository.NewPayrollLedgerRepository(db), nil)
	processor := export.NewProcessor(payrolls, legacyapi.NewHTTPClient(cfg.LegacyAPIURL))

	app := worker.NewWorker(sqs.NewFromConfig(awsCfg), cfg.ExportSQSQueue, processor, cfg.WorkerPoolSize)
	app.Start(ctx)

	log.Info().Msg("Worker exited gracefully")
}
