package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"hr.backoffice/internal/core/model"
)

const attendanceColumns = `id, attendance_code, employee_code, session_code, check_in_time, check_in_status,
              check_out_time, check_out_status, created_at, updated_at`

// AttendanceRecordRepository is the PostgreSQL implementation of AttendanceRepository.
type AttendanceRecordRepository struct {
	DB *sql.DB
}

// NewAttendanceRecordRepository create new instance
func NewAttendanceRecordRepository(db *sql.DB) *AttendanceRecordRepository {
	return &AttendanceRecordRepository{DB: db}
}

func scanAttendance(row rowScanner) (*model.Attendance, error) {
	a := &model.Attendance{}
	var checkOut sql.NullTime
	var checkOutStatus sql.NullString
	err := row.Scan(&a.ID, &a.Code, &a.EmployeeCode, &a.SessionCode, &a.CheckInTime, &a.CheckInStatus,
		&checkOut, &checkOutStatus, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if checkOut.Valid {
		t := checkOut.Time
		a.CheckOutTime = &t
	}
	if checkOutStatus.Valid {
		s := model.CheckOutStatus(checkOutStatus.String)
		a.CheckOutStatus = &s
	}
	return a, nil
}

// CreateCheckIn inserts the attendance row. The (employee, session) unique
// constraint decides concurrent duplicate check-ins.
func (r *AttendanceRecordRepository) CreateCheckIn(ctx context.Context, a model.Attendance) (*model.Attendance, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeCode", a.EmployeeCode))

	query := `INSERT INTO attendances (employee_code, session_code, check_in_time, check_in_status)
              VALUES ($1, $2, $3, $4)
              RETURNING ` + attendanceColumns

	created, err := scanAttendance(r.DB.QueryRowContext(ctx, query, a.EmployeeCode, a.SessionCode, a.CheckInTime, a.CheckInStatus))
	if err != nil {
		return nil, translateWriteError(err, model.ErrDuplicateCheckIn)
	}
	return created, nil
}

// UpdateCheckOut stamps the check-out on a row that has none yet.
func (r *AttendanceRecordRepository) UpdateCheckOut(ctx context.Context, employeeCode, sessionCode string, at time.Time, status model.CheckOutStatus) (*model.Attendance, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeCode", employeeCode))

	query := `UPDATE attendances
              SET check_out_time = $3,
                  check_out_status = $4,
                  updated_at = now()
              WHERE employee_code = $1 AND session_code = $2 AND check_out_time IS NULL
              RETURNING ` + attendanceColumns

	updated, err := scanAttendance(r.DB.QueryRowContext(ctx, query, employeeCode, sessionCode, at, status))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotCheckedIn
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListAttendances returns attendance rows matching the filter, latest check-in first.
func (r *AttendanceRecordRepository) ListAttendances(ctx context.Context, filter AttendanceFilter) ([]model.Attendance, error) {
	var where []string
	var args []any
	if filter.SessionCode != "" {
		args = append(args, filter.SessionCode)
		where = append(where, "session_code = $"+strconv.Itoa(len(args)))
	}
	if filter.EmployeeCode != "" {
		args = append(args, filter.EmployeeCode)
		where = append(where, "employee_code = $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + attendanceColumns + ` FROM attendances`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY check_in_time DESC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Attendance
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// monthlyAttendanceQuery counts the closed sessions in the range and the
// employee's present days among them.
const monthlyAttendanceQuery = `
SELECT (SELECT COUNT(*) FROM attendance_sessions s WHERE ` + closedSessionInRange + `),
       (SELECT COUNT(*)
        FROM attendances a
        JOIN attendance_sessions s ON s.session_code = a.session_code
        WHERE a.employee_code = $3
          AND ` + closedSessionInRange + `
          AND ` + presentCheckIn + `)`

// CountMonthlyAttendance counts closed sessions dated from..to and how many of
// them the employee attended.
func (r *AttendanceRecordRepository) CountMonthlyAttendance(ctx context.Context, employeeCode string, from, to model.Date) (closedSessions, present int, err error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeCode", employeeCode))

	err = r.DB.QueryRowContext(ctx, monthlyAttendanceQuery, from, to, employeeCode).Scan(&closedSessions, &present)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count monthly attendance: %w", err)
	}
	return closedSessions, present, nil
}

// CountSessionAttendances counts the check-ins recorded for a session.
func (r *AttendanceRecordRepository) CountSessionAttendances(ctx context.Context, sessionCode string) (int, error) {
	var total int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM attendances WHERE session_code = $1`, sessionCode).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count session attendances: %w", err)
	}
	return total, nil
}
