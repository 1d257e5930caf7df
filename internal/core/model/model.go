package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SessionStatus is the lifecycle state of an attendance session.
type SessionStatus string

const (
	SessionOpen   SessionStatus = "open"
	SessionClosed SessionStatus = "closed"
)

// CheckInStatus classifies a check-in against the session window.
type CheckInStatus string

const (
	CheckInInTime CheckInStatus = "in-time"
	CheckInLate   CheckInStatus = "late"
	CheckInAbsent CheckInStatus = "absent"
)

// CheckOutStatus classifies a check-out against the session window.
type CheckOutStatus string

const (
	CheckOutInTime   CheckOutStatus = "in-time"
	CheckOutEarly    CheckOutStatus = "early"
	CheckOutOvertime CheckOutStatus = "overtime"
	CheckOutMissed   CheckOutStatus = "missed"
)

// LeaveRequestStatus is the decision state of a leave request.
type LeaveRequestStatus string

const (
	LeavePending  LeaveRequestStatus = "Pending"
	LeaveApproved LeaveRequestStatus = "Approved"
	LeaveRejected LeaveRequestStatus = "Rejected"
)

// PayrollStatus is the lifecycle state of a payroll row.
type PayrollStatus string

const (
	PayrollDraft     PayrollStatus = "draft"
	PayrollFinalized PayrollStatus = "finalized"
	PayrollPaid      PayrollStatus = "paid"
)

// Valid reports whether s is a known payroll status.
func (s PayrollStatus) Valid() bool {
	switch s {
	case PayrollDraft, PayrollFinalized, PayrollPaid:
		return true
	}
	return false
}

// PeriodStatus is the lifecycle state of a payroll period.
type PeriodStatus string

const (
	PeriodOpen   PeriodStatus = "open"
	PeriodLocked PeriodStatus = "locked"
	PeriodClosed PeriodStatus = "closed"
)

// Valid reports whether s is a known period status.
func (s PeriodStatus) Valid() bool {
	switch s {
	case PeriodOpen, PeriodLocked, PeriodClosed:
		return true
	}
	return false
}

// DeliveryStatus tracks asynchronous processing of a finalized payroll
// (export to the legacy accounting system, payslip email).
type DeliveryStatus string

const (
	DeliveryNone      DeliveryStatus = "NONE"
	DeliveryPending   DeliveryStatus = "PENDING"
	DeliveryCompleted DeliveryStatus = "COMPLETED"
	DeliveryFailed    DeliveryStatus = "FAILED"
)

// AttendanceSession is the per-calendar-day configuration of attendance windows.
type AttendanceSession struct {
	ID         int64         `json:"id"`
	Code       string        `json:"sessionCode"`
	Date       Date          `json:"date"`
	Status     SessionStatus `json:"status"`
	OpenTime   ClockTime     `json:"openTime"`
	CutoffTime ClockTime     `json:"cutoffTime"`
	CloseTime  ClockTime     `json:"closeTime"`
	CreatedBy  string        `json:"createdBy"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// Window anchors the session clock times on the session date in loc.
func (s AttendanceSession) Window(loc *time.Location) Window {
	return Window{
		Open:   s.OpenTime.On(s.Date, loc),
		Cutoff: s.CutoffTime.On(s.Date, loc),
		Close:  s.CloseTime.On(s.Date, loc),
	}
}

// Window is a session's absolute open/cutoff/close instants.
type Window struct {
	Open   time.Time
	Cutoff time.Time
	Close  time.Time
}

// Attendance is one employee's record for one session.
type Attendance struct {
	ID             int64           `json:"id"`
	Code           string          `json:"attendanceCode"`
	EmployeeCode   string          `json:"employeeCode"`
	SessionCode    string          `json:"sessionCode"`
	CheckInTime    time.Time       `json:"checkInTime"`
	CheckInStatus  CheckInStatus   `json:"checkInStatus"`
	CheckOutTime   *time.Time      `json:"checkOutTime,omitempty"`
	CheckOutStatus *CheckOutStatus `json:"checkOutStatus,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// AttendanceSummary counts an employee's attendance over one month's closed
// sessions. Absent is the closed sessions without an in-time or late check-in.
type AttendanceSummary struct {
	EmployeeCode   string     `json:"employeeCode"`
	Year           int        `json:"year"`
	Month          time.Month `json:"month"`
	ClosedSessions int        `json:"closedSessions"`
	Present        int        `json:"totalAttendance"`
	Absent         int        `json:"totalNotAttend"`
}

// DailyAttendance is the head count for the session held on one date.
// SessionCode is empty when no session exists for the date.
type DailyAttendance struct {
	Date            Date          `json:"date"`
	SessionCode     string        `json:"sessionCode,omitempty"`
	SessionStatus   SessionStatus `json:"sessionStatus,omitempty"`
	TotalEmployees  int           `json:"totalEmployees"`
	TotalAttendance int           `json:"totalAttendance"`
}

// Employee is the directory view the core consumes.
type Employee struct {
	Code       string          `json:"employeeCode"`
	FullName   string          `json:"fullName"`
	Email      string          `json:"email"`
	IsActive   bool            `json:"isActive"`
	BaseSalary decimal.Decimal `json:"baseSalary"`
}

// LeaveType is the lookup view of a leave type.
type LeaveType struct {
	Code      string          `json:"typeCode"`
	Name      string          `json:"name"`
	Deduction decimal.Decimal `json:"deduction"`
}

// LeaveBalance is the per (employee, leave type, year) counter.
type LeaveBalance struct {
	ID           int64     `json:"id"`
	Code         string    `json:"balanceCode"`
	EmployeeCode string    `json:"employeeCode"`
	TypeCode     string    `json:"typeCode"`
	Year         int       `json:"year"`
	Balance      int       `json:"balance"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// LeaveRequest is an employee's request for leave days.
type LeaveRequest struct {
	ID           int64              `json:"id"`
	Code         string             `json:"requestCode"`
	EmployeeCode string             `json:"employeeCode"`
	TypeCode     string             `json:"typeCode"`
	StartDate    Date               `json:"startDate"`
	EndDate      Date               `json:"endDate"`
	TotalDays    int                `json:"totalDays"`
	Reason       string             `json:"reason"`
	Status       LeaveRequestStatus `json:"status"`
	ApprovedBy   *string            `json:"approvedBy,omitempty"`
	ApprovalDate *time.Time         `json:"approvalDate,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

// PayrollPeriod is the date range a payroll run covers.
type PayrollPeriod struct {
	ID        int64        `json:"id"`
	StartDate Date         `json:"startDate"`
	EndDate   Date         `json:"endDate"`
	Status    PeriodStatus `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Payroll is one employee's computed salary for one period.
type Payroll struct {
	ID               int64           `json:"id"`
	PeriodID         int64           `json:"payrollPeriodId"`
	EmployeeCode     string          `json:"employeeCode"`
	BaseSalary       decimal.Decimal `json:"baseSalary"`
	TotalWorkDays    int             `json:"totalWorkDays"`
	TotalLeaveDays   int             `json:"totalLeaveDays"`
	TotalDeductions  decimal.Decimal `json:"totalDeductions"`
	NetSalary        decimal.Decimal `json:"netSalary"`
	Status           PayrollStatus   `json:"status"`
	GeneratedAt      time.Time       `json:"generatedAt"`
	ExportStatus     DeliveryStatus  `json:"exportStatus"`
	ExportRetryCount int             `json:"exportRetryCount"`
	EmailStatus      DeliveryStatus  `json:"emailStatus"`
	EmailRetryCount  int             `json:"emailRetryCount"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// PayrollInput is the aggregated per-employee data a generation run computes from.
type PayrollInput struct {
	EmployeeCode    string
	BaseSalary      decimal.Decimal
	TotalWorkDays   int
	TotalLeaveDays  int
	TotalDeductions decimal.Decimal
}
