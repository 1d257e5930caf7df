package core

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"hr.backoffice/internal/core/model"
	"hr.backoffice/internal/ports/repository"
)

type CheckInService struct {
	sessions    repository.SessionRepository
	attendances repository.AttendanceRepository
	directory   repository.DirectoryRepository
	loc         *time.Location
}

// NewCheckInService creates the check-in/check-out recorder. loc decides which
// calendar day, and so which session, a wall-clock instant belongs to.
func NewCheckInService(sessions repository.SessionRepository, attendances repository.AttendanceRepository,
	directory repository.DirectoryRepository, loc *time.Location) *CheckInService {
	return &CheckInService{
		sessions:    sessions,
		attendances: attendances,
		directory:   directory,
		loc:         loc,
	}
}

// todaysSession resolves the employee and the session covering now.
func (s *CheckInService) todaysSession(ctx context.Context, employeeCode string, now time.Time) (*model.AttendanceSession, error) {
	if employeeCode == "" {
		vErr := &model.ValidationError{}
		vErr.Add("employeeCode", "is required")
		return nil, vErr
	}
	if _, err := s.directory.GetEmployee(ctx, employeeCode); err != nil {
		return nil, err
	}
	return s.sessions.GetSessionByDate(ctx, model.DateOf(now.In(s.loc)))
}

// CheckIn records the employee's arrival in today's session.
func (s *CheckInService) CheckIn(ctx context.Context, employeeCode string, now time.Time) (attendance *model.Attendance, err error) {
	defer func() {
		logOutcome(ctx, "check_in", err, func(e *zerolog.Event) {
			e.Str("employee_code", employeeCode)
			if attendance != nil {
				e.Str("session_code", attendance.SessionCode).Str("check_in_status", string(attendance.CheckInStatus))
			}
		})
	}()

	session, err := s.todaysSession(ctx, employeeCode, now)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionOpen {
		return nil, model.ErrSessionClosed
	}

	verdict := Classify(PunchIn, now, session.Window(s.loc))
	if verdict == VerdictRejected {
		return nil, model.ErrSessionNotYetOpen
	}

	return s.attendances.CreateCheckIn(ctx, model.Attendance{
		EmployeeCode:  employeeCode,
		SessionCode:   session.Code,
		CheckInTime:   now,
		CheckInStatus: checkInStatus(verdict),
	})
}

// CheckOut stamps the departure on the employee's open attendance in today's session.
func (s *CheckInService) CheckOut(ctx context.Context, employeeCode string, now time.Time) (attendance *model.Attendance, err error) {
	defer func() {
		logOutcome(ctx, "check_out", err, func(e *zerolog.Event) {
			e.Str("employee_code", employeeCode)
			if attendance != nil && attendance.CheckOutStatus != nil {
				e.Str("session_code", attendance.SessionCode).Str("check_out_status", string(*attendance.CheckOutStatus))
			}
		})
	}()

	session, err := s.todaysSession(ctx, employeeCode, now)
	if err != nil {
		return nil, err
	}

	verdict := Classify(PunchOut, now, session.Window(s.loc))
	return s.attendances.UpdateCheckOut(ctx, employeeCode, session.Code, now, checkOutStatus(verdict))
}

// ListAttendances is a pass-through used by the admin and employee listings.
func (s *CheckInService) ListAttendances(ctx context.Context, filter repository.AttendanceFilter) ([]model.Attendance, error) {
	return s.attendances.ListAttendances(ctx, filter)
}

func validateMonth(vErr *model.ValidationError, year int, month time.Month) {
	if year < 1 || year > 9999 {
		vErr.Add("year", "must be between 1 and 9999")
	}
	if month < time.January || month > time.December {
		vErr.Add("month", "must be between 1 and 12")
	}
}

// MonthlySummary counts the employee's present and absent days over the closed
// sessions of a month. A zero year or month means the one containing now.
func (s *CheckInService) MonthlySummary(ctx context.Context, employeeCode string, year int, month time.Month, now time.Time) (*model.AttendanceSummary, error) {
	today := now.In(s.loc)
	if year == 0 {
		year = today.Year()
	}
	if month == 0 {
		month = today.Month()
	}

	vErr := &model.ValidationError{}
	if employeeCode == "" {
		vErr.Add("employeeCode", "is required")
	}
	validateMonth(vErr, year, month)
	if vErr.HasErrors() {
		return nil, vErr
	}
	if _, err := s.directory.GetEmployee(ctx, employeeCode); err != nil {
		return nil, err
	}

	from, to := model.MonthRange(year, month)
	closed, present, err := s.attendances.CountMonthlyAttendance(ctx, employeeCode, from, to)
	if err != nil {
		return nil, err
	}
	return &model.AttendanceSummary{
		EmployeeCode:   employeeCode,
		Year:           year,
		Month:          month,
		ClosedSessions: closed,
		Present:        present,
		Absent:         max(closed-present, 0),
	}, nil
}

// DailyAttendance reports the active head count and the check-ins recorded for
// the session held on date, or on today when date is zero. A date without a
// session reports zero attendance.
func (s *CheckInService) DailyAttendance(ctx context.Context, date model.Date, now time.Time) (*model.DailyAttendance, error) {
	if date.IsZero() {
		date = model.DateOf(now.In(s.loc))
	}

	employees, err := s.directory.CountActiveEmployees(ctx)
	if err != nil {
		return nil, err
	}
	out := &model.DailyAttendance{Date: date, TotalEmployees: employees}

	session, err := s.sessions.GetSessionByDate(ctx, date)
	if errors.Is(err, model.ErrNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	out.SessionCode, out.SessionStatus = session.Code, session.Status

	out.TotalAttendance, err = s.attendances.CountSessionAttendances(ctx, session.Code)
	if err != nil {
		return nil, err
	}
	return out, nil
}
