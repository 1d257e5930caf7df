package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"hr.backoffice/internal/core/model"
)

// DirectoryLookupRepository reads the employee and leave-type master tables.
type DirectoryLookupRepository struct {
	DB *sql.DB
}

// NewDirectoryLookupRepository create new instance
func NewDirectoryLookupRepository(db *sql.DB) *DirectoryLookupRepository {
	return &DirectoryLookupRepository{DB: db}
}

// GetEmployee returns the employee profile with the base salary of its position.
func (r *DirectoryLookupRepository) GetEmployee(ctx context.Context, code string) (*model.Employee, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeCode", code))

	query := `SELECT e.employee_code, e.full_name, e.email, e.is_active, COALESCE(p.base_salary, 0)
              FROM master_employees e
              LEFT JOIN master_positions p ON p.id = e.position_id
              WHERE e.employee_code = $1`

	e := &model.Employee{}
	err := r.DB.QueryRowContext(ctx, query, code).Scan(&e.Code, &e.FullName, &e.Email, &e.IsActive, &e.BaseSalary)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFoundf("employee %s", code)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// GetLeaveType returns the leave type with its per-day deduction.
func (r *DirectoryLookupRepository) GetLeaveType(ctx context.Context, code string) (*model.LeaveType, error) {
	query := `SELECT type_code, name, deduction FROM master_leave_types WHERE type_code = $1`

	lt := &model.LeaveType{}
	err := r.DB.QueryRowContext(ctx, query, code).Scan(&lt.Code, &lt.Name, &lt.Deduction)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFoundf("leave type %s", code)
	}
	if err != nil {
		return nil, err
	}
	return lt, nil
}

// CountActiveEmployees counts the employees still on the books.
func (r *DirectoryLookupRepository) CountActiveEmployees(ctx context.Context) (int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM master_employees WHERE is_active`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count employees: %w", err)
	}
	return total, nil
}
