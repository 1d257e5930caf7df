package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when a session, employee, balance, request, payroll or period does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when an operation collides with the current state of a record.
	ErrConflict = errors.New("conflict")
)

// Conflict flavours. Each wraps ErrConflict.
var (
	ErrDuplicateSession    = fmt.Errorf("attendance session already exists for this date: %w", ErrConflict)
	ErrSessionClosed       = fmt.Errorf("attendance session is closed: %w", ErrConflict)
	ErrSessionNotYetOpen   = fmt.Errorf("attendance session is not yet open: %w", ErrConflict)
	ErrSessionInUse        = fmt.Errorf("attendance session has attendance records: %w", ErrConflict)
	ErrDuplicateCheckIn    = fmt.Errorf("duplicate check-in: %w", ErrConflict)
	ErrNotCheckedIn        = fmt.Errorf("not checked in, or already checked out: %w", ErrConflict)
	ErrInsufficientBalance = fmt.Errorf("insufficient leave balance: %w", ErrConflict)
	ErrRequestDecided      = fmt.Errorf("leave request is no longer pending: %w", ErrConflict)
	ErrPayrollNotDraft     = fmt.Errorf("payroll is not in draft status: %w", ErrConflict)
	ErrPeriodInUse         = fmt.Errorf("payroll period has payrolls: %w", ErrConflict)
)

// ValidationError captures field level issues with caller input.
type ValidationError struct {
	FieldErrors map[string]string
}

func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field, msg := range v.FieldErrors {
		fields = append(fields, field+": "+msg)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, "; ")
}

// Add records a field level message.
func (v *ValidationError) Add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// IntegrityError reports a referenced code or id that does not exist.
type IntegrityError struct {
	Field string
	Value string
	Err   error
}

func (e *IntegrityError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("integrity violation on %s", e.Field)
	}
	return fmt.Sprintf("integrity violation on %s: %q does not exist", e.Field, e.Value)
}

func (e *IntegrityError) Unwrap() error { return e.Err }

// Kind groups errors the way the boundary maps them.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindIntegrity  Kind = "integrity"
	KindInternal   Kind = "internal"
)

// KindOf classifies err. A nil error has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var vErr *ValidationError
	var iErr *IntegrityError
	switch {
	case errors.As(err, &vErr):
		return KindValidation
	case errors.As(err, &iErr):
		return KindIntegrity
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	}
	return KindInternal
}

// NotFoundf wraps ErrNotFound with a description of the missing record.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}
