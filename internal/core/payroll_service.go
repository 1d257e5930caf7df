package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"hr.backoffice/internal/core/model"
	"hr.backoffice/internal/ports/messaging"
	"hr.backoffice/internal/ports/repository"
)

type PayrollService struct {
	repo     repository.PayrollRepository
	producer messaging.PayrollEventProducer
	now      func() time.Time
}

// NewPayrollService wires the payroll generator and period registry. producer
// may be nil, in which case finalizing a payroll publishes nothing.
func NewPayrollService(repo repository.PayrollRepository, producer messaging.PayrollEventProducer) *PayrollService {
	return &PayrollService{
		repo:     repo,
		producer: producer,
		now:      time.Now,
	}
}

// NewPeriod is the input for creating a payroll period.
type NewPeriod struct {
	StartDate model.Date `json:"startDate"`
	EndDate   model.Date `json:"endDate"`
}

// PayrollChanges holds the fields an edit may touch. Nil fields keep their value.
type PayrollChanges struct {
	BaseSalary      *decimal.Decimal     `json:"baseSalary"`
	TotalWorkDays   *int                 `json:"totalWorkDays"`
	TotalLeaveDays  *int                 `json:"totalLeaveDays"`
	TotalDeductions *decimal.Decimal     `json:"totalDeductions"`
	Status          *model.PayrollStatus `json:"status"`
}

func (c PayrollChanges) validate() error {
	vErr := &model.ValidationError{}
	if c.BaseSalary != nil && c.BaseSalary.IsNegative() {
		vErr.Add("baseSalary", "must not be negative")
	}
	if c.TotalDeductions != nil && c.TotalDeductions.IsNegative() {
		vErr.Add("totalDeductions", "must not be negative")
	}
	if c.TotalWorkDays != nil && *c.TotalWorkDays < 0 {
		vErr.Add("totalWorkDays", "must not be negative")
	}
	if c.TotalLeaveDays != nil && *c.TotalLeaveDays < 0 {
		vErr.Add("totalLeaveDays", "must not be negative")
	}
	if c.Status != nil && !c.Status.Valid() {
		vErr.Add("status", "must be draft, finalized or paid")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

// CreatePeriod registers an open payroll period.
func (s *PayrollService) CreatePeriod(ctx context.Context, in NewPeriod) (period *model.PayrollPeriod, err error) {
	defer func() {
		logOutcome(ctx, "create_payroll_period", err, func(e *zerolog.Event) {
			e.Str("start_date", in.StartDate.String()).Str("end_date", in.EndDate.String())
		})
	}()

	vErr := &model.ValidationError{}
	if in.StartDate.IsZero() {
		vErr.Add("startDate", "is required")
	}
	if in.EndDate.IsZero() {
		vErr.Add("endDate", "is required")
	}
	if !vErr.HasErrors() && in.EndDate.Before(in.StartDate) {
		vErr.Add("endDate", "must not be before startDate")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}
	return s.repo.CreatePeriod(ctx, model.PayrollPeriod{StartDate: in.StartDate, EndDate: in.EndDate, Status: model.PeriodOpen})
}

func (s *PayrollService) GetPeriod(ctx context.Context, id int64) (*model.PayrollPeriod, error) {
	return s.repo.GetPeriod(ctx, id)
}

func (s *PayrollService) ListPeriods(ctx context.Context) ([]model.PayrollPeriod, error) {
	return s.repo.ListPeriods(ctx)
}

// UpdatePeriodStatus moves a period between open, locked and closed.
func (s *PayrollService) UpdatePeriodStatus(ctx context.Context, id int64, status model.PeriodStatus) (period *model.PayrollPeriod, err error) {
	defer func() {
		logOutcome(ctx, "update_payroll_period", err, func(e *zerolog.Event) {
			e.Int64("payroll_period_id", id).Str("status", string(status))
		})
	}()

	if !status.Valid() {
		vErr := &model.ValidationError{}
		vErr.Add("status", "must be open, locked or closed")
		return nil, vErr
	}
	return s.repo.UpdatePeriodStatus(ctx, id, status)
}

// DeletePeriod removes a period no payroll references.
func (s *PayrollService) DeletePeriod(ctx context.Context, id int64) (err error) {
	defer func() {
		logOutcome(ctx, "delete_payroll_period", err, func(e *zerolog.Event) { e.Int64("payroll_period_id", id) })
	}()
	return s.repo.DeletePeriod(ctx, id)
}

// Generate computes the period's payroll for every active employee in one
// transaction. Rows that already left draft are not touched.
func (s *PayrollService) Generate(ctx context.Context, periodID int64) (processed int64, err error) {
	defer func() {
		logOutcome(ctx, "generate_payroll", err, func(e *zerolog.Event) {
			e.Int64("payroll_period_id", periodID).Int64("processed", processed)
		})
	}()
	return s.repo.GeneratePayrolls(ctx, periodID, ComputePayrolls)
}

func (s *PayrollService) GetPayroll(ctx context.Context, id int64) (*model.Payroll, error) {
	return s.repo.GetPayroll(ctx, id)
}

func (s *PayrollService) ListPayrolls(ctx context.Context, periodID int64) ([]model.Payroll, error) {
	return s.repo.ListPayrolls(ctx, periodID)
}

// Edit applies changes to a draft payroll and recomputes its net salary.
// Finalizing publishes a PayrollFinalizedEvent before the edit commits, so a
// failed publish leaves the payroll in draft.
func (s *PayrollService) Edit(ctx context.Context, id int64, changes PayrollChanges) (payroll *model.Payroll, err error) {
	defer func() {
		logOutcome(ctx, "edit_payroll", err, func(e *zerolog.Event) {
			e.Int64("payroll_id", id)
			if payroll != nil {
				e.Str("employee_code", payroll.EmployeeCode).Str("status", string(payroll.Status))
			}
		})
	}()

	if err := changes.validate(); err != nil {
		return nil, err
	}

	finalizing := false
	mutate := func(p *model.Payroll) error {
		if changes.BaseSalary != nil {
			p.BaseSalary = changes.BaseSalary.Round(moneyPlaces)
		}
		if changes.TotalDeductions != nil {
			p.TotalDeductions = changes.TotalDeductions.Round(moneyPlaces)
		}
		if changes.TotalWorkDays != nil {
			p.TotalWorkDays = *changes.TotalWorkDays
		}
		if changes.TotalLeaveDays != nil {
			p.TotalLeaveDays = *changes.TotalLeaveDays
		}
		p.NetSalary = NetSalary(p.BaseSalary, p.TotalDeductions)

		if changes.Status != nil {
			p.Status = *changes.Status
		}
		if p.Status == model.PayrollFinalized && s.producer != nil {
			finalizing = true
			p.ExportStatus = model.DeliveryPending
			p.EmailStatus = model.DeliveryPending
		}
		return nil
	}

	publish := func(ctx context.Context, p model.Payroll) error {
		if !finalizing {
			return nil
		}
		event := messaging.PayrollFinalizedEvent{
			EventID:      uuid.NewString(),
			PayrollID:    p.ID,
			PeriodID:     p.PeriodID,
			EmployeeCode: p.EmployeeCode,
			NetSalary:    p.NetSalary,
			FinalizedAt:  s.now().UTC(),
		}
		if err := s.producer.PublishPayrollFinalized(ctx, event); err != nil {
			return fmt.Errorf("failed to publish payroll finalized event: %w", err)
		}
		return nil
	}

	return s.repo.UpdateDraftPayroll(ctx, id, mutate, publish)
}

// Delete removes a draft payroll.
func (s *PayrollService) Delete(ctx context.Context, id int64) (err error) {
	defer func() {
		logOutcome(ctx, "delete_payroll", err, func(e *zerolog.Event) { e.Int64("payroll_id", id) })
	}()
	return s.repo.DeleteDraftPayroll(ctx, id)
}

// UpdateExportStatus is a pass-through used by the export worker.
func (s *PayrollService) UpdateExportStatus(ctx context.Context, id int64, status model.DeliveryStatus, retryCount int) error {
	return s.repo.UpdateExportStatus(ctx, id, status, retryCount)
}

// UpdateEmailStatus is a pass-through used by the email worker.
func (s *PayrollService) UpdateEmailStatus(ctx context.Context, id int64, status model.DeliveryStatus, retryCount int) error {
	return s.repo.UpdateEmailStatus(ctx, id, status, retryCount)
}
