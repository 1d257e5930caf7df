package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"hr.backoffice/internal/core/model"
)

const periodColumns = `id, start_date, end_date, status, created_at, updated_at`

const payrollColumns = `id, payroll_period_id, employee_code, base_salary, total_work_days, total_leave_days,
              total_deductions, net_salary, status, generated_at, export_status, export_retry_count,
              email_status, email_retry_count, created_at, updated_at`

// Attendance predicates shared by payroll work days and the monthly attendance
// summary. closedSessionInRange binds the date range to $1 and $2.
const (
	closedSessionInRange = `s.status = 'closed' AND s.date BETWEEN $1 AND $2`
	presentCheckIn       = `a.check_in_status IN ('in-time', 'late')`
)

// payrollInputsQuery aggregates one row per active employee holding a position;
// employees without one have no base salary and are skipped. Work days count
// in-time and late check-ins on closed sessions; leave days and deductions
// come from approved requests that lie entirely inside the period.
const payrollInputsQuery = `
SELECT e.employee_code,
       p.base_salary,
       COALESCE(w.work_days, 0),
       COALESCE(l.leave_days, 0),
       COALESCE(l.deductions, 0)
FROM master_employees e
JOIN master_positions p ON p.id = e.position_id
LEFT JOIN (
    SELECT a.employee_code, COUNT(*) AS work_days
    FROM attendances a
    JOIN attendance_sessions s ON s.session_code = a.session_code
    WHERE ` + closedSessionInRange + `
      AND ` + presentCheckIn + `
    GROUP BY a.employee_code
) w ON w.employee_code = e.employee_code
LEFT JOIN (
    SELECT r.employee_code,
           SUM(r.total_days) AS leave_days,
           SUM(r.total_days * t.deduction) AS deductions
    FROM leave_requests r
    JOIN master_leave_types t ON t.type_code = r.type_code
    WHERE r.status = 'Approved'
      AND r.start_date >= $1
      AND r.end_date <= $2
    GROUP BY r.employee_code
) l ON l.employee_code = e.employee_code
WHERE e.is_active
ORDER BY e.employee_code`

// payrollUpsertQuery writes a whole generation run in one statement. Rows that
// already left draft are excluded by the conflict predicate.
const payrollUpsertQuery = `
INSERT INTO payrolls (payroll_period_id, employee_code, base_salary, total_work_days, total_leave_days,
                      total_deductions, net_salary, status, generated_at)
SELECT $1, u.employee_code, u.base_salary::numeric, u.total_work_days, u.total_leave_days,
       u.total_deductions::numeric, u.net_salary::numeric, 'draft', now()
FROM unnest($2::text[], $3::text[], $4::bigint[], $5::bigint[], $6::text[], $7::text[])
     AS u(employee_code, base_salary, total_work_days, total_leave_days, total_deductions, net_salary)
ON CONFLICT (payroll_period_id, employee_code) DO UPDATE
SET base_salary = EXCLUDED.base_salary,
    total_work_days = EXCLUDED.total_work_days,
    total_leave_days = EXCLUDED.total_leave_days,
    total_deductions = EXCLUDED.total_deductions,
    net_salary = EXCLUDED.net_salary,
    generated_at = EXCLUDED.generated_at,
    updated_at = now()
WHERE payrolls.status = 'draft'`

// PayrollLedgerRepository is the PostgreSQL implementation of PayrollRepository.
type PayrollLedgerRepository struct {
	DB *sql.DB
}

// NewPayrollLedgerRepository create new instance
func NewPayrollLedgerRepository(db *sql.DB) *PayrollLedgerRepository {
	return &PayrollLedgerRepository{DB: db}
}

func scanPeriod(row rowScanner) (*model.PayrollPeriod, error) {
	p := &model.PayrollPeriod{}
	if err := row.Scan(&p.ID, &p.StartDate, &p.EndDate, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func scanPayroll(row rowScanner) (*model.Payroll, error) {
	p := &model.Payroll{}
	err := row.Scan(&p.ID, &p.PeriodID, &p.EmployeeCode, &p.BaseSalary, &p.TotalWorkDays, &p.TotalLeaveDays,
		&p.TotalDeductions, &p.NetSalary, &p.Status, &p.GeneratedAt, &p.ExportStatus, &p.ExportRetryCount,
		&p.EmailStatus, &p.EmailRetryCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CreatePeriod inserts an open payroll period.
func (r *PayrollLedgerRepository) CreatePeriod(ctx context.Context, p model.PayrollPeriod) (*model.PayrollPeriod, error) {
	status := p.Status
	if status == "" {
		status = model.PeriodOpen
	}
	query := `INSERT INTO payroll_periods (start_date, end_date, status)
              VALUES ($1, $2, $3)
              RETURNING ` + periodColumns

	created, err := scanPeriod(r.DB.QueryRowContext(ctx, query, p.StartDate, p.EndDate, status))
	if err != nil {
		return nil, translateWriteError(err, nil)
	}
	return created, nil
}

// GetPeriod fetches a period by id.
func (r *PayrollLedgerRepository) GetPeriod(ctx context.Context, id int64) (*model.PayrollPeriod, error) {
	p, err := scanPeriod(r.DB.QueryRowContext(ctx, `SELECT `+periodColumns+` FROM payroll_periods WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFoundf("payroll period %d", id)
	}
	return p, err
}

// ListPeriods returns every period, latest first.
func (r *PayrollLedgerRepository) ListPeriods(ctx context.Context) ([]model.PayrollPeriod, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+periodColumns+` FROM payroll_periods ORDER BY start_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []model.PayrollPeriod
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, *p)
	}
	return periods, rows.Err()
}

// UpdatePeriodStatus moves a period to status.
func (r *PayrollLedgerRepository) UpdatePeriodStatus(ctx context.Context, id int64, status model.PeriodStatus) (*model.PayrollPeriod, error) {
	query := `UPDATE payroll_periods SET status = $2, updated_at = now()
              WHERE id = $1
              RETURNING ` + periodColumns
	p, err := scanPeriod(r.DB.QueryRowContext(ctx, query, id, status))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFoundf("payroll period %d", id)
	}
	if err != nil {
		return nil, translateWriteError(err, nil)
	}
	return p, nil
}

// DeletePeriod removes a period no payroll references.
func (r *PayrollLedgerRepository) DeletePeriod(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM payroll_periods WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return model.ErrPeriodInUse
		}
		return fmt.Errorf("failed to delete payroll period: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.NotFoundf("payroll period %d", id)
	}
	return nil
}

// GeneratePayrolls locks the period, aggregates every active employee's inputs,
// hands them to compute and upserts the result as draft rows. The whole run is
// one transaction. It returns the number of rows inserted or refreshed.
func (r *PayrollLedgerRepository) GeneratePayrolls(ctx context.Context, periodID int64, compute PayrollComputeFunc) (int64, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int64("app.payrollPeriodId", periodID))

	var processed int64
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		period, err := scanPeriod(tx.QueryRowContext(ctx,
			`SELECT `+periodColumns+` FROM payroll_periods WHERE id = $1 FOR UPDATE`, periodID))
		if errors.Is(err, sql.ErrNoRows) {
			return model.NotFoundf("payroll period %d", periodID)
		}
		if err != nil {
			return err
		}

		inputs, err := loadPayrollInputs(ctx, tx, *period)
		if err != nil {
			return err
		}

		payrolls := compute(*period, inputs)
		if len(payrolls) == 0 {
			return nil
		}

		codes := make([]string, len(payrolls))
		bases := make([]string, len(payrolls))
		workDays := make([]int64, len(payrolls))
		leaveDays := make([]int64, len(payrolls))
		deductions := make([]string, len(payrolls))
		nets := make([]string, len(payrolls))
		for i, p := range payrolls {
			codes[i] = p.EmployeeCode
			bases[i] = p.BaseSalary.String()
			workDays[i] = int64(p.TotalWorkDays)
			leaveDays[i] = int64(p.TotalLeaveDays)
			deductions[i] = p.TotalDeductions.String()
			nets[i] = p.NetSalary.String()
		}

		res, err := tx.ExecContext(ctx, payrollUpsertQuery, period.ID, codes, bases, workDays, leaveDays, deductions, nets)
		if err != nil {
			return translateWriteError(err, nil)
		}
		processed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return processed, nil
}

func loadPayrollInputs(ctx context.Context, db DBTX, period model.PayrollPeriod) ([]model.PayrollInput, error) {
	rows, err := db.QueryContext(ctx, payrollInputsQuery, period.StartDate, period.EndDate)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate payroll inputs: %w", err)
	}
	defer rows.Close()

	var inputs []model.PayrollInput
	for rows.Next() {
		var in model.PayrollInput
		var base, deductions decimal.Decimal
		if err := rows.Scan(&in.EmployeeCode, &base, &in.TotalWorkDays, &in.TotalLeaveDays, &deductions); err != nil {
			return nil, err
		}
		in.BaseSalary = base
		in.TotalDeductions = deductions
		inputs = append(inputs, in)
	}
	return inputs, rows.Err()
}

// GetPayroll fetches a payroll row by id.
func (r *PayrollLedgerRepository) GetPayroll(ctx context.Context, id int64) (*model.Payroll, error) {
	return getPayroll(ctx, r.DB, id, "")
}

func getPayroll(ctx context.Context, db DBTX, id int64, lock string) (*model.Payroll, error) {
	query := `SELECT ` + payrollColumns + ` FROM payrolls WHERE id = $1` + lock
	p, err := scanPayroll(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFoundf("payroll %d", id)
	}
	return p, err
}

// ListPayrolls returns the payrolls of a period ordered by employee code.
func (r *PayrollLedgerRepository) ListPayrolls(ctx context.Context, periodID int64) ([]model.Payroll, error) {
	query := `SELECT ` + payrollColumns + ` FROM payrolls WHERE payroll_period_id = $1 ORDER BY employee_code`
	rows, err := r.DB.QueryContext(ctx, query, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payrolls []model.Payroll
	for rows.Next() {
		p, err := scanPayroll(rows)
		if err != nil {
			return nil, err
		}
		payrolls = append(payrolls, *p)
	}
	return payrolls, rows.Err()
}

// UpdateDraftPayroll locks a draft row, applies mutate and writes it back.
// beforeCommit, when set, sees the written row inside the transaction.
func (r *PayrollLedgerRepository) UpdateDraftPayroll(ctx context.Context, id int64, mutate PayrollMutateFunc, beforeCommit PayrollHookFunc) (*model.Payroll, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int64("app.payrollId", id))

	query := `UPDATE payrolls
              SET base_salary = $2, total_work_days = $3, total_leave_days = $4, total_deductions = $5,
                  net_salary = $6, status = $7, export_status = $8, email_status = $9, updated_at = now()
              WHERE id = $1
              RETURNING ` + payrollColumns

	var updated *model.Payroll
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		current, err := getPayroll(ctx, tx, id, " FOR UPDATE")
		if err != nil {
			return err
		}
		if current.Status != model.PayrollDraft {
			return model.ErrPayrollNotDraft
		}
		if err := mutate(current); err != nil {
			return err
		}

		p, err := scanPayroll(tx.QueryRowContext(ctx, query, id,
			current.BaseSalary, current.TotalWorkDays, current.TotalLeaveDays, current.TotalDeductions,
			current.NetSalary, current.Status, current.ExportStatus, current.EmailStatus))
		if err != nil {
			return translateWriteError(err, nil)
		}
		if beforeCommit != nil {
			if err := beforeCommit(ctx, *p); err != nil {
				return err
			}
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteDraftPayroll removes a payroll that is still draft.
func (r *PayrollLedgerRepository) DeleteDraftPayroll(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM payrolls WHERE id = $1 AND status = 'draft'`, id)
	if err != nil {
		return fmt.Errorf("failed to delete payroll: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if _, err := getPayroll(ctx, r.DB, id, ""); err != nil {
		return err
	}
	return model.ErrPayrollNotDraft
}

// UpdateExportStatus records the legacy export outcome of a payroll.
func (r *PayrollLedgerRepository) UpdateExportStatus(ctx context.Context, id int64, status model.DeliveryStatus, retryCount int) error {
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int64("app.payrollId", id))

	query := `UPDATE payrolls
              SET export_status = $2,
                  export_retry_count = $3,
                  updated_at = now()
              WHERE id = $1`
	_, err := r.DB.ExecContext(ctx, query, id, status, retryCount)
	if err != nil {
		return fmt.Errorf("failed to update export status: %w", err)
	}
	return nil
}

// UpdateEmailStatus records the payslip email outcome of a payroll.
func (r *PayrollLedgerRepository) UpdateEmailStatus(ctx context.Context, id int64, status model.DeliveryStatus, retryCount int) error {
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int64("app.payrollId", id))

	query := `UPDATE payrolls
              SET email_status = $2,
                  email_retry_count = $3,
                  updated_at = now()
              WHERE id = $1`
	_, err := r.DB.ExecContext(ctx, query, id, status, retryCount)
	if err != nil {
		return fmt.Errorf("failed to update email status: %w", err)
	}
	return nil
}
