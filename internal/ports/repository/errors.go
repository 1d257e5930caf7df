package repository

import (
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"hr.backoffice/internal/core/model"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// keyDetail matches the DETAIL postgres attaches to key violations:
// Key (employee_code)=(EMP0000009) is not present in table "master_employees".
var keyDetail = regexp.MustCompile(`Key \(([^)]+)\)=\(([^)]*)\)`)

func pgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

func isUniqueViolation(err error) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == pgUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == pgForeignKeyViolation
}

// translateWriteError maps constraint failures on insert/update onto domain errors.
// unique is the conflict returned for a unique violation; nil leaves those untouched.
func translateWriteError(err error, unique error) error {
	pgErr, ok := pgError(err)
	if !ok {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		if unique != nil {
			return unique
		}
	case pgForeignKeyViolation:
		field, value := keyFromDetail(pgErr.Detail)
		return &model.IntegrityError{Field: field, Value: value, Err: err}
	case pgCheckViolation:
		vErr := &model.ValidationError{}
		vErr.Add(pgErr.ConstraintName, pgErr.Message)
		return vErr
	}
	return err
}

func keyFromDetail(detail string) (field, value string) {
	m := keyDetail.FindStringSubmatch(detail)
	if m == nil {
		return "unknown", ""
	}
	return columnToField(m[1]), m[2]
}

// columnToField turns employee_code into employeeCode.
func columnToField(column string) string {
	parts := strings.Split(strings.TrimSpace(column), "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}
