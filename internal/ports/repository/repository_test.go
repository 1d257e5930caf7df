package repository

import (
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

// arrayConverter lets slice arguments through to the mock the way the pgx
// stdlib driver accepts them.
type arrayConverter struct{}

func (arrayConverter) ConvertValue(v any) (driver.Value, error) {
	switch v.(type) {
	case []string, []int64:
		return v, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(arrayConverter{}))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

var fixedNow = time.Date(2025, 1, 10, 1, 0, 0, 0, time.UTC)

func sessionRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "session_code", "date", "status", "open_time", "cutoff_time",
		"close_time", "created_by", "created_at", "updated_at"})
}

func attendanceRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "attendance_code", "employee_code", "session_code", "check_in_time",
		"check_in_status", "check_out_time", "check_out_status", "created_at", "updated_at"})
}

func balanceRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "balance_code", "employee_code", "type_code", "year", "balance",
		"created_at", "updated_at"})
}

func requestRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "request_code", "employee_code", "type_code", "start_date", "end_date",
		"total_days", "reason", "status", "approved_by", "approval_date", "created_at", "updated_at"})
}

func periodRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "start_date", "end_date", "status", "created_at", "updated_at"})
}

func payrollRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "payroll_period_id", "employee_code", "base_salary", "total_work_days",
		"total_leave_days", "total_deductions", "net_salary", "status", "generated_at", "export_status",
		"export_retry_count", "email_status", "email_retry_count", "created_at", "updated_at"})
}
