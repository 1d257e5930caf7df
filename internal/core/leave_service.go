package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"hr.backoffice/internal/core/model"
	"hr.backoffice/internal/ports/repository"
)

// LeaveService owns the leave balance ledger and the leave request lifecycle.
type LeaveService struct {
	repo      repository.LeaveRepository
	directory repository.DirectoryRepository
}

func NewLeaveService(repo repository.LeaveRepository, directory repository.DirectoryRepository) *LeaveService {
	return &LeaveService{repo: repo, directory: directory}
}

// NewLeaveRequest is an employee's leave submission.
type NewLeaveRequest struct {
	EmployeeCode string     `json:"-"`
	TypeCode     string     `json:"typeCode"`
	StartDate    model.Date `json:"startDate"`
	EndDate      model.Date `json:"endDate"`
	Reason       string     `json:"reason"`
}

// CountLeaveDays counts the days from start to end inclusive, skipping Sundays.
func CountLeaveDays(start, end model.Date) int {
	days := 0
	for d := start; !d.After(end); d = d.AddDays(1) {
		if d.Weekday() != time.Sunday {
			days++
		}
	}
	return days
}

func validateTypeYear(vErr *model.ValidationError, typeCode string, year int) {
	if typeCode == "" {
		vErr.Add("typeCode", "is required")
	}
	if year < 1 || year > 9999 {
		vErr.Add("year", "must be between 1 and 9999")
	}
}

func validateBalanceKey(key repository.BalanceKey) *model.ValidationError {
	vErr := &model.ValidationError{}
	if key.EmployeeCode == "" {
		vErr.Add("employeeCode", "is required")
	}
	validateTypeYear(vErr, key.TypeCode, key.Year)
	return vErr
}

func balanceFields(key repository.BalanceKey) func(e *zerolog.Event) {
	return func(e *zerolog.Event) {
		e.Str("employee_code", key.EmployeeCode).Str("type_code", key.TypeCode).Int("year", key.Year)
	}
}

// Grant adds amount days to the balance, creating it on first grant.
func (s *LeaveService) Grant(ctx context.Context, key repository.BalanceKey, amount int) (balance *model.LeaveBalance, err error) {
	defer func() { logOutcome(ctx, "grant_leave_balance", err, balanceFields(key)) }()

	vErr := validateBalanceKey(key)
	if amount <= 0 {
		vErr.Add("amount", "must be positive")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}
	return s.repo.GrantBalance(ctx, key, amount)
}

// Set overwrites the balance with amount.
func (s *LeaveService) Set(ctx context.Context, key repository.BalanceKey, amount int) (balance *model.LeaveBalance, err error) {
	defer func() { logOutcome(ctx, "set_leave_balance", err, balanceFields(key)) }()

	vErr := validateBalanceKey(key)
	if amount < 0 {
		vErr.Add("amount", "must not be negative")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}
	return s.repo.SetBalance(ctx, key, amount)
}

// Deduct takes days off the balance. It fails with ErrInsufficientBalance
// rather than letting the balance go negative.
func (s *LeaveService) Deduct(ctx context.Context, key repository.BalanceKey, days int) (balance *model.LeaveBalance, err error) {
	defer func() { logOutcome(ctx, "deduct_leave_balance", err, balanceFields(key)) }()

	vErr := validateBalanceKey(key)
	if days <= 0 {
		vErr.Add("days", "must be positive")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}
	return s.repo.DeductBalance(ctx, key, days)
}

// BulkGrant grants amount days to every active employee, all or nothing.
func (s *LeaveService) BulkGrant(ctx context.Context, typeCode string, year, amount int) (affected int64, err error) {
	defer func() {
		logOutcome(ctx, "bulk_grant_leave_balance", err, func(e *zerolog.Event) {
			e.Str("type_code", typeCode).Int("year", year).Int64("affected", affected)
		})
	}()

	vErr := &model.ValidationError{}
	validateTypeYear(vErr, typeCode, year)
	if amount <= 0 {
		vErr.Add("amount", "must be positive")
	}
	if vErr.HasErrors() {
		return 0, vErr
	}
	return s.repo.BulkGrantBalances(ctx, typeCode, year, amount)
}

// BulkDelete purges every balance of a leave type for a year.
func (s *LeaveService) BulkDelete(ctx context.Context, typeCode string, year int) (deleted int64, err error) {
	defer func() {
		logOutcome(ctx, "bulk_delete_leave_balance", err, func(e *zerolog.Event) {
			e.Str("type_code", typeCode).Int("year", year).Int64("deleted", deleted)
		})
	}()

	vErr := &model.ValidationError{}
	validateTypeYear(vErr, typeCode, year)
	if vErr.HasErrors() {
		return 0, vErr
	}
	return s.repo.BulkDeleteBalances(ctx, typeCode, year)
}

func (s *LeaveService) GetBalance(ctx context.Context, key repository.BalanceKey) (*model.LeaveBalance, error) {
	return s.repo.GetBalance(ctx, key)
}

// ListBalances lists an employee's balances; year 0 means every year.
func (s *LeaveService) ListBalances(ctx context.Context, employeeCode string, year int) ([]model.LeaveBalance, error) {
	return s.repo.ListBalances(ctx, employeeCode, year)
}

// SubmitRequest files a pending leave request. The balance check here only
// gives early feedback; approval re-checks it atomically.
func (s *LeaveService) SubmitRequest(ctx context.Context, in NewLeaveRequest) (request *model.LeaveRequest, err error) {
	defer func() {
		logOutcome(ctx, "submit_leave_request", err, func(e *zerolog.Event) {
			e.Str("employee_code", in.EmployeeCode).Str("type_code", in.TypeCode)
			if request != nil {
				e.Str("request_code", request.Code)
			}
		})
	}()

	vErr := &model.ValidationError{}
	if in.EmployeeCode == "" {
		vErr.Add("employeeCode", "is required")
	}
	if in.TypeCode == "" {
		vErr.Add("typeCode", "is required")
	}
	if in.StartDate.IsZero() {
		vErr.Add("startDate", "is required")
	}
	if in.EndDate.IsZero() {
		vErr.Add("endDate", "is required")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}
	if in.EndDate.Before(in.StartDate) {
		vErr.Add("endDate", "must not be before startDate")
		return nil, vErr
	}
	days := CountLeaveDays(in.StartDate, in.EndDate)
	if days == 0 {
		vErr.Add("endDate", "request must cover at least one working day")
		return nil, vErr
	}

	if _, err := s.directory.GetEmployee(ctx, in.EmployeeCode); err != nil {
		return nil, err
	}
	key := repository.BalanceKey{EmployeeCode: in.EmployeeCode, TypeCode: in.TypeCode, Year: in.StartDate.Year}
	balance, err := s.repo.GetBalance(ctx, key)
	if errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("no %s allocation for %d: %w", in.TypeCode, key.Year, model.ErrInsufficientBalance)
	}
	if err != nil {
		return nil, err
	}
	if balance.Balance < days {
		return nil, fmt.Errorf("%d days left, %d requested: %w", balance.Balance, days, model.ErrInsufficientBalance)
	}

	return s.repo.CreateLeaveRequest(ctx, model.LeaveRequest{
		EmployeeCode: in.EmployeeCode,
		TypeCode:     in.TypeCode,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		TotalDays:    days,
		Reason:       in.Reason,
		Status:       model.LeavePending,
	})
}

// Decide approves or rejects a pending request. Approval deducts the
// request's days exactly once, in the same transaction as the status change.
func (s *LeaveService) Decide(ctx context.Context, code string, status model.LeaveRequestStatus, approverCode string, now time.Time) (request *model.LeaveRequest, err error) {
	defer func() {
		logOutcome(ctx, "decide_leave_request", err, func(e *zerolog.Event) {
			e.Str("request_code", code).Str("status", string(status)).Str("approved_by", approverCode)
		})
	}()

	vErr := &model.ValidationError{}
	if status != model.LeaveApproved && status != model.LeaveRejected {
		vErr.Add("status", "must be Approved or Rejected")
	}
	if approverCode == "" {
		vErr.Add("approvedBy", "is required")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	return s.repo.DecideLeaveRequest(ctx, repository.Decision{
		Code:       code,
		Status:     status,
		ApprovedBy: approverCode,
		At:         now,
	})
}

func (s *LeaveService) GetRequest(ctx context.Context, code string) (*model.LeaveRequest, error) {
	return s.repo.GetLeaveRequest(ctx, code)
}

func (s *LeaveService) ListRequests(ctx context.Context, filter repository.LeaveRequestFilter) ([]model.LeaveRequest, error) {
	return s.repo.ListLeaveRequests(ctx, filter)
}

// PendingRequestCount counts the requests filed in a month that still await a decision.
func (s *LeaveService) PendingRequestCount(ctx context.Context, year int, month time.Month) (int, error) {
	vErr := &model.ValidationError{}
	validateMonth(vErr, year, month)
	if vErr.HasErrors() {
		return 0, vErr
	}
	from, to := model.MonthRange(year, month)
	return s.repo.CountPendingRequests(ctx, from, to)
}
