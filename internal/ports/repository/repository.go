package repository

import (
	"context"
	"database/sql"
	"time"

	"hr.backoffice/internal/core/model"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so queries run inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SessionRepository contract for attendance sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, s model.AttendanceSession) (*model.AttendanceSession, error)
	GetSessionByID(ctx context.Context, id int64) (*model.AttendanceSession, error)
	GetSessionByCode(ctx context.Context, code string) (*model.AttendanceSession, error)
	GetSessionByDate(ctx context.Context, date model.Date) (*model.AttendanceSession, error)
	ListSessions(ctx context.Context) ([]model.AttendanceSession, error)
	UpdateOpenSession(ctx context.Context, s model.AttendanceSession) (*model.AttendanceSession, error)
	CloseSession(ctx context.Context, code string) (*model.AttendanceSession, error)
	DeleteSession(ctx context.Context, code string) error
}

// AttendanceFilter narrows attendance listings. Empty fields match everything.
type AttendanceFilter struct {
	SessionCode  string
	EmployeeCode string
}

// AttendanceRepository contract for check-in/check-out rows.
type AttendanceRepository interface {
	CreateCheckIn(ctx context.Context, a model.Attendance) (*model.Attendance, error)
	UpdateCheckOut(ctx context.Context, employeeCode, sessionCode string, at time.Time, status model.CheckOutStatus) (*model.Attendance, error)
	ListAttendances(ctx context.Context, filter AttendanceFilter) ([]model.Attendance, error)
	CountMonthlyAttendance(ctx context.Context, employeeCode string, from, to model.Date) (closedSessions, present int, err error)
	CountSessionAttendances(ctx context.Context, sessionCode string) (int, error)
}

// DirectoryRepository exposes the employee and leave-type lookups owned by the CRUD side.
type DirectoryRepository interface {
	GetEmployee(ctx context.Context, code string) (*model.Employee, error)
	GetLeaveType(ctx context.Context, code string) (*model.LeaveType, error)
	CountActiveEmployees(ctx context.Context) (int, error)
}

// BalanceKey identifies one leave balance row.
type BalanceKey struct {
	EmployeeCode string
	TypeCode     string
	Year         int
}

// LeaveRequestFilter narrows leave request listings. Empty fields match everything.
type LeaveRequestFilter struct {
	EmployeeCode string
	TypeCode     string
	Status       model.LeaveRequestStatus
}

// Decision is the outcome recorded on a pending leave request.
type Decision struct {
	Code       string
	Status     model.LeaveRequestStatus
	ApprovedBy string
	At         time.Time
}

// LeaveRepository contract for the balance ledger and leave requests.
type LeaveRepository interface {
	GrantBalance(ctx context.Context, key BalanceKey, amount int) (*model.LeaveBalance, error)
	SetBalance(ctx context.Context, key BalanceKey, amount int) (*model.LeaveBalance, error)
	DeductBalance(ctx context.Context, key BalanceKey, days int) (*model.LeaveBalance, error)
	BulkGrantBalances(ctx context.Context, typeCode string, year, amount int) (int64, error)
	BulkDeleteBalances(ctx context.Context, typeCode string, year int) (int64, error)
	GetBalance(ctx context.Context, key BalanceKey) (*model.LeaveBalance, error)
	ListBalances(ctx context.Context, employeeCode string, year int) ([]model.LeaveBalance, error)

	CreateLeaveRequest(ctx context.Context, r model.LeaveRequest) (*model.LeaveRequest, error)
	GetLeaveRequest(ctx context.Context, code string) (*model.LeaveRequest, error)
	ListLeaveRequests(ctx context.Context, filter LeaveRequestFilter) ([]model.LeaveRequest, error)
	DecideLeaveRequest(ctx context.Context, d Decision) (*model.LeaveRequest, error)
	CountPendingRequests(ctx context.Context, from, to model.Date) (int, error)
}

// PayrollComputeFunc turns aggregated inputs into payroll rows inside a generation transaction.
type PayrollComputeFunc func(period model.PayrollPeriod, inputs []model.PayrollInput) []model.Payroll

// PayrollMutateFunc edits a locked draft payroll. Returning an error rolls the edit back.
type PayrollMutateFunc func(p *model.Payroll) error

// PayrollHookFunc runs after an edited payroll is written and before the
// transaction commits. Returning an error rolls the edit back.
type PayrollHookFunc func(ctx context.Context, p model.Payroll) error

// PayrollRepository contract for payroll periods and payroll rows.
type PayrollRepository interface {
	CreatePeriod(ctx context.Context, p model.PayrollPeriod) (*model.PayrollPeriod, error)
	GetPeriod(ctx context.Context, id int64) (*model.PayrollPeriod, error)
	ListPeriods(ctx context.Context) ([]model.PayrollPeriod, error)
	UpdatePeriodStatus(ctx context.Context, id int64, status model.PeriodStatus) (*model.PayrollPeriod, error)
	DeletePeriod(ctx context.Context, id int64) error

	GeneratePayrolls(ctx context.Context, periodID int64, compute PayrollComputeFunc) (int64, error)
	GetPayroll(ctx context.Context, id int64) (*model.Payroll, error)
	ListPayrolls(ctx context.Context, periodID int64) ([]model.Payroll, error)
	UpdateDraftPayroll(ctx context.Context, id int64, mutate PayrollMutateFunc, beforeCommit PayrollHookFunc) (*model.Payroll, error)
	DeleteDraftPayroll(ctx context.Context, id int64) error
	UpdateExportStatus(ctx context.Context, id int64, status model.DeliveryStatus, retryCount int) error
	UpdateEmailStatus(ctx context.Context, id int64, status model.DeliveryStatus, retryCount int) error
}
