package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"

	"hr.backoffice/internal/core"
	"hr.backoffice/internal/core/model"
	"hr.backoffice/internal/ports/messaging"
	"hr.backoffice/internal/worker"
)

const uncommittedDeliveries = 5

type PayrollStore interface {
	GetPayroll(ctx context.Context, id int64) (*model.Payroll, error)
	UpdateEmailStatus(ctx context.Context, id int64, status model.DeliveryStatus, retryCount int) error
}

type EmployeeDirectory interface {
	GetEmployee(ctx context.Context, code string) (*model.Employee, error)
}

// Processor mails the payslip of a finalized payroll to its employee.
type Processor struct {
	emailService core.EmailService
	store        PayrollStore
	directory    EmployeeDirectory
	// fallbackDomain builds <employee code>@<domain> for employees without an address.
	fallbackDomain string
}

func NewProcessor(emailService core.EmailService, store PayrollStore, directory EmployeeDirectory, fallbackDomain string) *Processor {
	return &Processor{
		emailService:   emailService,
		store:          store,
		directory:      directory,
		fallbackDomain: fallbackDomain,
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
		return true, 10, fmt.Errorf("failed to get payroll from db for email processing: %w", err)
	}

	switch {
	case payroll.EmailStatus == model.DeliveryCompleted:
		logger.Info().Msg("Payslip already sent. Skipping.")
		return false, 0, nil
	case payroll.Status == model.PayrollDraft:
		if worker.ReceiveCount(msg) >= uncommittedDeliveries {
			logger.Warn().Msg("Payroll never left draft. Dropping event.")
			return false, 0, nil
		}
		return true, 10, fmt.Errorf("payroll %d is not finalized yet", payroll.ID)
	}

	employee, err := p.directory.GetEmployee(ctx, payroll.EmployeeCode)
	if errors.Is(err, model.ErrNotFound) {
		return false, 0, err
	}
	if err != nil {
		return true, 10, fmt.Errorf("failed to get employee for payslip: %w", err)
	}
	if employee.Email == "" {
		if p.fallbackDomain == "" {
			logger.Warn().Str("employee_code", employee.Code).Msg("Employee has no email address. Skipping payslip.")
			return false, 0, p.store.UpdateEmailStatus(ctx, payroll.ID, model.DeliveryFailed, payroll.EmailRetryCount)
		}
		employee.Email = employee.Code + "@" + p.fallbackDomain
	}

	if err := p.emailService.SendPayslip(ctx, *employee, *payroll); err != nil {
		newCount := payroll.EmailRetryCount + 1
		if uErr := p.store.UpdateEmailStatus(ctx, payroll.ID, model.DeliveryPending, newCount); uErr != nil {
			logger.Error().Err(uErr).Msg("Failed to record email retry")
		}
		return true, worker.Backoff(newCount), err
	}

	if err := p.store.UpdateEmailStatus(ctx, payroll.ID, model.DeliveryCompleted, payroll.EmailRetryCount); err != nil {
		return true, 10, fmt.Errorf("failed to mark payslip sent: %w", err)
	}
	return false, 0, nil
}
