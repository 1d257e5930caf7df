// Entry point for REST API
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"hr.backoffice/internal/api"
	"hr.backoffice/internal/config"
	"hr.backoffice/internal/core"
	"hr.backoffice/internal/ports/messaging"
	"hr.backoffice/internal/ports/repository"
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

	shutdownTracer, err := telemetry.InitTracer("hr-backoffice-api", cfg.OTELEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init tracer")
	}
	defer func() {
		_ = shutdownTracer(context.Background())
	}()

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid time zone")
	}

	db, err := database.NewInstrumentedConnection(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening database")
	}
	defer db.Close()
	log.Info().Msg("Successfully connected to the database.")

	awsCfg, err := aws.NewAWSConfig(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load SDK config")
	}

	sessionRepo := repository.NewAttendanceSessionRepository(db)
	directory := repository.NewDirectoryLookupRepository(db)
	producer := messaging.NewSQSProducer(sqs.NewFromConfig(awsCfg), cfg.ExportSQSQueue, cfg.EmailSQSQueueURL)

	router := api.NewRouter(api.Services{
		Sessions:    core.NewSessionService(sessionRepo),
		Attendances: core.NewCheckInService(sessionRepo, repository.NewAttendanceRecordRepository(db), directory, loc),
		Leaves:      core.NewLeaveService(repository.NewLeaveLedgerRepository(db), directory),
		Payrolls:    core.NewPayrollService(repository.NewPayrollLedgerRepository(db), producer),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           otelhttp.NewHandler(router, "api"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.ServerPort).Str("timezone", loc.String()).Msg("API Service starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	// In-flight requests get 5 seconds to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
