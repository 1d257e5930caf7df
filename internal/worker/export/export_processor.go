package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"hr.backoffice/internal/core/model"
	"hr.backoffice/internal/ports/messaging"
	"hr.backoffice/internal/worker"
	"hr.backoffice/internal/worker/legacyapi"
)

// uncommittedDeliveries bounds how often a message for a payroll still in
// draft is retried. The event is published before the finalizing edit
// commits, so the first delivery can race the commit; a payroll that stays
// draft had its edit rolled back.
const uncommittedDeliveries = 5

// PayrollStore is what the processor needs from the payroll side.
type PayrollStore interface {
	GetPayroll(ctx context.Context, id int64) (*model.Payroll, error)
	UpdateExportStatus(ctx context.Context, id int64, status model.DeliveryStatus, retryCount int) error
}

// Processor exports finalized payrolls to the legacy system behind a
// circuit breaker.
type Processor struct {
	store  PayrollStore
	legacy legacyapi.Client
	cb     *gobreaker.CircuitBreaker
}

func NewProcessor(store PayrollStore, legacy legacyapi.Client) *Processor {
	settings := gobreaker.Settings{
		Name:        "Legacy-API",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip at a 50% failure rate over at least 10 requests.
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
	}

	return &Processor{
		store:  store,
		legacy: legacy,
		cb:     gobreaker.NewCircuitBreaker(settings),
	}
}

func (p *Processor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	if msg.Body == nil {
		return false, 0, errors.New("empty message body")
	}
	var event messaging.PayrollFinalizedEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal payroll event")
		return false, 0, err
	}
	logger := log.Ctx(ctx).With().Int64("payroll_id", event.PayrollID).Str("event_id", event.EventID).Logger()

	payroll, err := p.store.GetPayroll(ctx, event.PayrollID)
	if errors.Is(err, model.ErrNotFound) {
		return false, 0, err
	}
	if err != nil {
		return true, 10, fmt.Errorf("failed to get payroll from db: %w", err)
	}

	switch {
	case payroll.ExportStatus == model.DeliveryCompleted:
		logger.Info().Msg("Payroll already exported. Skipping.")
		return false, 0, nil
	case payroll.Status == model.PayrollDraft:
		if worker.ReceiveCount(msg) >= uncommittedDeliveries {
			logger.Warn().Msg("Payroll never left draft. Dropping event.")
			return false, 0, nil
		}
		return true, 10, fmt.Errorf("payroll %d is not finalized yet", payroll.ID)
	}

	_, err = p.cb.Execute(func() (interface{}, error) {
		return nil, p.legacy.ExportPayroll(ctx, *payroll)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			logger.Warn().Msg("Circuit breaker is open; skipping legacy API call")
		}
		newCount := payroll.ExportRetryCount + 1
		if uErr := p.store.UpdateExportStatus(ctx, payroll.ID, model.DeliveryPending, newCount); uErr != nil {
			logger.Error().Err(uErr).Msg("Failed to record export retry")
		}
		return true, worker.Backoff(newCount), err
	}

	if err := p.store.UpdateExportStatus(ctx, payroll.ID, model.DeliveryCompleted, payroll.ExportRetryCount); err != nil {
		return true, 10, fmt.Errorf("failed to mark payroll exported: %w", err)
	}
	return false, 0, nil
}
