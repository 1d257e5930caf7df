package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"hr.backoffice/internal/core/model"
)

func TestCreateCheckIn(t *testing.T) {
	ctx := context.Background()
	checkIn := time.Date(2025, 1, 10, 1, 5, 0, 0, time.UTC)
	a := model.Attendance{
		EmployeeCode:  "EMP0000001",
		SessionCode:   "SSA0000001",
		CheckInTime:   checkIn,
		CheckInStatus: model.CheckInInTime,
	}

	t.Run("stores the check-in", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery("INSERT INTO attendances").
			WithArgs("EMP0000001", "SSA0000001", checkIn, "in-time").
			WillReturnRows(attendanceRows().AddRow(int64(7), "ATT0000007", "EMP0000001", "SSA0000001",
				checkIn, "in-time", nil, nil, fixedNow, fixedNow))

		got, err := NewAttendanceRecordRepository(db).CreateCheckIn(ctx, a)
		if err != nil {
			t.Fatalf("CreateCheckIn: %v", err)
		}
		if got.Code != "ATT0000007" || got.CheckOutTime != nil || got.CheckOutStatus != nil {
			t.Fatalf("unexpected attendance %+v", got)
		}
	})

	t.Run("second check-in is a conflict", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery("INSERT INTO attendances").
			WillReturnError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "uni_attendances_employee_session"})

		_, err := NewAttendanceRecordRepository(db).CreateCheckIn(ctx, a)
		if !errors.Is(err, model.ErrDuplicateCheckIn) {
			t.Fatalf("expected ErrDuplicateCheckIn, got %v", err)
		}
	})

	t.Run("unknown employee is an integrity violation", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery("INSERT INTO attendances").
			WillReturnError(&pgconn.PgError{
				Code:   pgForeignKeyViolation,
				Detail: `Key (employee_code)=(EMP0000001) is not present in table "master_employees".`,
			})

		_, err := NewAttendanceRecordRepository(db).CreateCheckIn(ctx, a)
		var iErr *model.IntegrityError
		if !errors.As(err, &iErr) || iErr.Field != "employeeCode" {
			t.Fatalf("expected IntegrityError on employeeCode, got %v", err)
		}
	})
}

func TestUpdateCheckOut(t *testing.T) {
	ctx := context.Background()
	checkIn := time.Date(2025, 1, 10, 1, 5, 0, 0, time.UTC)
	checkOut := time.Date(2025, 1, 10, 10, 30, 0, 0, time.UTC)

	t.Run("stamps the check-out", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery("UPDATE attendances").
			WithArgs("EMP0000001", "SSA0000001", checkOut, "overtime").
			WillReturnRows(attendanceRows().AddRow(int64(7), "ATT0000007", "EMP0000001", "SSA0000001",
				checkIn, "in-time", checkOut, "overtime", fixedNow, fixedNow))

		got, err := NewAttendanceRecordRepository(db).UpdateCheckOut(ctx, "EMP0000001", "SSA0000001", checkOut, model.CheckOutOvertime)
		if err != nil {
			t.Fatalf("UpdateCheckOut: %v", err)
		}
		if got.CheckOutTime == nil || !got.CheckOutTime.Equal(checkOut) {
			t.Fatalf("check-out time not scanned: %+v", got)
		}
		if got.CheckOutStatus == nil || *got.CheckOutStatus != model.CheckOutOvertime {
			t.Fatalf("check-out status not scanned: %+v", got)
		}
	})

	t.Run("no open attendance is a conflict", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery("UPDATE attendances").WillReturnRows(attendanceRows())

		_, err := NewAttendanceRecordRepository(db).UpdateCheckOut(ctx, "EMP0000001", "SSA0000001", checkOut, model.CheckOutInTime)
		if !errors.Is(err, model.ErrNotCheckedIn) {
			t.Fatalf("expected ErrNotCheckedIn, got %v", err)
		}
		if model.KindOf(err) != model.KindConflict {
			t.Fatalf("expected conflict kind, got %s", model.KindOf(err))
		}
	})
}

func TestListAttendancesFilters(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("WHERE session_code = \\$1 AND employee_code = \\$2").
		WithArgs("SSA0000001", "EMP0000001").
		WillReturnRows(attendanceRows())

	got, err := NewAttendanceRecordRepository(db).ListAttendances(context.Background(),
		AttendanceFilter{SessionCode: "SSA0000001", EmployeeCode: "EMP0000001"})
	if err != nil {
		t.Fatalf("ListAttendances: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no rows, got %d", len(got))
	}
}

func TestCountMonthlyAttendance(t *testing.T) {
	ctx := context.Background()
	from, to := model.MonthRange(2025, time.February)

	t.Run("counts closed sessions and present check-ins", func(t *testing.T) {
		closedThenPresent := `FROM attendance_sessions s WHERE s\.status = 'closed' AND s\.date BETWEEN \$1 AND \$2\)` +
			`.*a\.employee_code = \$3 .*a\.check_in_status IN \('in-time', 'late'\)`
		db, mock := newMock(t)
		mock.ExpectQuery(closedThenPresent).
			WithArgs("2025-02-01", "2025-02-28", "EMP0000001").
			WillReturnRows(sqlmock.NewRows([]string{"closed_sessions", "present"}).AddRow(int64(19), int64(17)))

		closed, present, err := NewAttendanceRecordRepository(db).CountMonthlyAttendance(ctx, "EMP0000001", from, to)
		if err != nil {
			t.Fatalf("CountMonthlyAttendance: %v", err)
		}
		if closed != 19 || present != 17 {
			t.Fatalf("closed = %d, present = %d", closed, present)
		}
	})

	t.Run("query failure is returned", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery("FROM attendance_sessions").WillReturnError(errors.New("connection reset"))

		if _, _, err := NewAttendanceRecordRepository(db).CountMonthlyAttendance(ctx, "EMP0000001", from, to); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestCountSessionAttendances(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM attendances WHERE session_code = \\$1").
		WithArgs("SSA0000001").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(42)))

	got, err := NewAttendanceRecordRepository(db).CountSessionAttendances(context.Background(), "SSA0000001")
	if err != nil {
		t.Fatalf("CountSessionAttendances: %v", err)
	}
	if got != 42 {
		t.Fatalf("count = %d, want 42", got)
	}
}
