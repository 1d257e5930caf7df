package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"hr.backoffice/internal/core/model"
)

const balanceColumns = `id, balance_code, employee_code, type_code, year, balance, created_at, updated_at`

const requestColumns = `id, request_code, employee_code, type_code, start_date, end_date, total_days, reason,
              status, approved_by, approval_date, created_at, updated_at`

// LeaveLedgerRepository is the PostgreSQL implementation of LeaveRepository.
// Every balance change is a single statement so concurrent writers cannot lose updates.
type LeaveLedgerRepository struct {
	DB *sql.DB
}

// NewLeaveLedgerRepository create new instance
func NewLeaveLedgerRepository(db *sql.DB) *LeaveLedgerRepository {
	return &LeaveLedgerRepository{DB: db}
}

func scanBalance(row rowScanner) (*model.LeaveBalance, error) {
	b := &model.LeaveBalance{}
	err := row.Scan(&b.ID, &b.Code, &b.EmployeeCode, &b.TypeCode, &b.Year, &b.Balance, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func scanLeaveRequest(row rowScanner) (*model.LeaveRequest, error) {
	lr := &model.LeaveRequest{}
	var approvedBy sql.NullString
	var approvalDate sql.NullTime
	err := row.Scan(&lr.ID, &lr.Code, &lr.EmployeeCode, &lr.TypeCode, &lr.StartDate, &lr.EndDate, &lr.TotalDays,
		&lr.Reason, &lr.Status, &approvedBy, &approvalDate, &lr.CreatedAt, &lr.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if approvedBy.Valid {
		lr.ApprovedBy = &approvedBy.String
	}
	if approvalDate.Valid {
		lr.ApprovalDate = &approvalDate.Time
	}
	return lr, nil
}

func balanceSpan(ctx context.Context, key BalanceKey) {
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("app.employeeCode", key.EmployeeCode),
		attribute.String("app.leaveTypeCode", key.TypeCode),
		attribute.Int("app.leaveYear", key.Year),
	)
}

// GrantBalance adds amount to the balance, creating the row on first grant.
func (r *LeaveLedgerRepository) GrantBalance(ctx context.Context, key BalanceKey, amount int) (*model.LeaveBalance, error) {
	balanceSpan(ctx, key)

	query := `INSERT INTO leave_balances (employee_code, type_code, year, balance)
              VALUES ($1, $2, $3, $4)
              ON CONFLICT (employee_code, type_code, year)
              DO UPDATE SET balance = leave_balances.balance + EXCLUDED.balance, updated_at = now()
              RETURNING ` + balanceColumns

	b, err := scanBalance(r.DB.QueryRowContext(ctx, query, key.EmployeeCode, key.TypeCode, key.Year, amount))
	if err != nil {
		return nil, translateWriteError(err, nil)
	}
	return b, nil
}

// SetBalance overwrites the balance, creating the row when missing.
func (r *LeaveLedgerRepository) SetBalance(ctx context.Context, key BalanceKey, amount int) (*model.LeaveBalance, error) {
	balanceSpan(ctx, key)

	query := `INSERT INTO leave_balances (employee_code, type_code, year, balance)
              VALUES ($1, $2, $3, $4)
              ON CONFLICT (employee_code, type_code, year)
              DO UPDATE SET balance = EXCLUDED.balance, updated_at = now()
              RETURNING ` + balanceColumns

	b, err := scanBalance(r.DB.QueryRowContext(ctx, query, key.EmployeeCode, key.TypeCode, key.Year, amount))
	if err != nil {
		return nil, translateWriteError(err, nil)
	}
	return b, nil
}

// DeductBalance subtracts days when the balance covers them.
func (r *LeaveLedgerRepository) DeductBalance(ctx context.Context, key BalanceKey, days int) (*model.LeaveBalance, error) {
	balanceSpan(ctx, key)
	return deductBalance(ctx, r.DB, key, days)
}

// deductBalance is a conditional update. A missing row and a short balance
// both leave zero rows affected and report ErrInsufficientBalance.
func deductBalance(ctx context.Context, db DBTX, key BalanceKey, days int) (*model.LeaveBalance, error) {
	query := `UPDATE leave_balances
              SET balance = balance - $4, updated_at = now()
              WHERE employee_code = $1 AND type_code = $2 AND year = $3 AND balance >= $4
              RETURNING ` + balanceColumns

	b, err := scanBalance(db.QueryRowContext(ctx, query, key.EmployeeCode, key.TypeCode, key.Year, days))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrInsufficientBalance
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// BulkGrantBalances grants amount to every active employee in one statement.
// Either every employee is credited or none is.
func (r *LeaveLedgerRepository) BulkGrantBalances(ctx context.Context, typeCode string, year, amount int) (int64, error) {
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("app.leaveTypeCode", typeCode),
		attribute.Int("app.leaveYear", year),
	)

	query := `INSERT INTO leave_balances (employee_code, type_code, year, balance)
              SELECT e.employee_code, $1, $2, $3
              FROM master_employees e
              WHERE e.is_active
              ON CONFLICT (employee_code, type_code, year)
              DO UPDATE SET balance = leave_balances.balance + EXCLUDED.balance, updated_at = now()`

	var affected int64
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, typeCode, year, amount)
		if err != nil {
			return translateWriteError(err, nil)
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// BulkDeleteBalances purges every balance of a type for a year.
func (r *LeaveLedgerRepository) BulkDeleteBalances(ctx context.Context, typeCode string, year int) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM leave_balances WHERE type_code = $1 AND year = $2`, typeCode, year)
	if err != nil {
		return 0, fmt.Errorf("failed to delete leave balances: %w", err)
	}
	return res.RowsAffected()
}

// GetBalance fetches one balance row.
func (r *LeaveLedgerRepository) GetBalance(ctx context.Context, key BalanceKey) (*model.LeaveBalance, error) {
	query := `SELECT ` + balanceColumns + ` FROM leave_balances
              WHERE employee_code = $1 AND type_code = $2 AND year = $3`
	b, err := scanBalance(r.DB.QueryRowContext(ctx, query, key.EmployeeCode, key.TypeCode, key.Year))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFoundf("leave balance %s/%s/%d", key.EmployeeCode, key.TypeCode, key.Year)
	}
	return b, err
}

// ListBalances returns an employee's balances. A zero year lists every year.
func (r *LeaveLedgerRepository) ListBalances(ctx context.Context, employeeCode string, year int) ([]model.LeaveBalance, error) {
	query := `SELECT ` + balanceColumns + ` FROM leave_balances WHERE employee_code = $1`
	args := []any{employeeCode}
	if year != 0 {
		query += ` AND year = $2`
		args = append(args, year)
	}
	query += ` ORDER BY year DESC, type_code`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []model.LeaveBalance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, err
		}
		balances = append(balances, *b)
	}
	return balances, rows.Err()
}

// CreateLeaveRequest stores a pending request.
func (r *LeaveLedgerRepository) CreateLeaveRequest(ctx context.Context, lr model.LeaveRequest) (*model.LeaveRequest, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeCode", lr.EmployeeCode))

	query := `INSERT INTO leave_requests (employee_code, type_code, start_date, end_date, total_days, reason, status)
              VALUES ($1, $2, $3, $4, $5, $6, $7)
              RETURNING ` + requestColumns

	created, err := scanLeaveRequest(r.DB.QueryRowContext(ctx, query,
		lr.EmployeeCode, lr.TypeCode, lr.StartDate, lr.EndDate, lr.TotalDays, lr.Reason, model.LeavePending))
	if err != nil {
		return nil, translateWriteError(err, nil)
	}
	return created, nil
}

// GetLeaveRequest fetches a request by its code.
func (r *LeaveLedgerRepository) GetLeaveRequest(ctx context.Context, code string) (*model.LeaveRequest, error) {
	return getLeaveRequest(ctx, r.DB, code)
}

func getLeaveRequest(ctx context.Context, db DBTX, code string) (*model.LeaveRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM leave_requests WHERE request_code = $1`
	lr, err := scanLeaveRequest(db.QueryRowContext(ctx, query, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFoundf("leave request %s", code)
	}
	return lr, err
}

// ListLeaveRequests returns requests matching the filter, newest first.
func (r *LeaveLedgerRepository) ListLeaveRequests(ctx context.Context, filter LeaveRequestFilter) ([]model.LeaveRequest, error) {
	var where []string
	var args []any
	if filter.EmployeeCode != "" {
		args = append(args, filter.EmployeeCode)
		where = append(where, "employee_code = $"+strconv.Itoa(len(args)))
	}
	if filter.TypeCode != "" {
		args = append(args, filter.TypeCode)
		where = append(where, "type_code = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + requestColumns + ` FROM leave_requests`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.LeaveRequest
	for rows.Next() {
		lr, err := scanLeaveRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *lr)
	}
	return out, rows.Err()
}

// DecideLeaveRequest records the decision on a pending request. Approval deducts
// the request's days from the balance of the start date's year in the same
// transaction, so an insufficient balance leaves the request pending.
func (r *LeaveLedgerRepository) DecideLeaveRequest(ctx context.Context, d Decision) (*model.LeaveRequest, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.leaveRequestCode", d.Code))

	query := `UPDATE leave_requests
              SET status = $2, approved_by = $3, approval_date = $4, updated_at = now()
              WHERE request_code = $1 AND status = 'Pending'
              RETURNING ` + requestColumns

	var decided *model.LeaveRequest
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		lr, err := scanLeaveRequest(tx.QueryRowContext(ctx, query, d.Code, d.Status, d.ApprovedBy, d.At))
		if errors.Is(err, sql.ErrNoRows) {
			if _, getErr := getLeaveRequest(ctx, tx, d.Code); getErr != nil {
				return getErr
			}
			return model.ErrRequestDecided
		}
		if err != nil {
			return err
		}

		if lr.Status == model.LeaveApproved {
			key := BalanceKey{EmployeeCode: lr.EmployeeCode, TypeCode: lr.TypeCode, Year: lr.StartDate.Year}
			if _, err := deductBalance(ctx, tx, key, lr.TotalDays); err != nil {
				return err
			}
		}
		decided = lr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decided, nil
}

// CountPendingRequests counts requests filed between from and to, inclusive,
// that still await a decision.
func (r *LeaveLedgerRepository) CountPendingRequests(ctx context.Context, from, to model.Date) (int, error) {
	query := `SELECT COUNT(*) FROM leave_requests
              WHERE status = $1 AND created_at >= $2 AND created_at < $3`

	var total int
	if err := r.DB.QueryRowContext(ctx, query, model.LeavePending, from, to.AddDays(1)).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count pending leave requests: %w", err)
	}
	return total, nil
}
