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

const sessionColumns = `id, session_code, date, status, open_time, cutoff_time, close_time, created_by, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// AttendanceSessionRepository is the PostgreSQL implementation of SessionRepository.
type AttendanceSessionRepository struct {
	DB *sql.DB
}

// NewAttendanceSessionRepository create new instance
func NewAttendanceSessionRepository(db *sql.DB) *AttendanceSessionRepository {
	return &AttendanceSessionRepository{DB: db}
}

func scanSession(row rowScanner) (*model.AttendanceSession, error) {
	s := &model.AttendanceSession{}
	err := row.Scan(&s.ID, &s.Code, &s.Date, &s.Status, &s.OpenTime, &s.CutoffTime, &s.CloseTime,
		&s.CreatedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// CreateSession inserts an open session. The session code comes from a database sequence.
func (r *AttendanceSessionRepository) CreateSession(ctx context.Context, s model.AttendanceSession) (*model.AttendanceSession, error) {
	query := `INSERT INTO attendance_sessions (date, status, open_time, cutoff_time, close_time, created_by)
              VALUES ($1, $2, $3, $4, $5, $6)
              RETURNING ` + sessionColumns

	created, err := scanSession(r.DB.QueryRowContext(ctx, query,
		s.Date, model.SessionOpen, s.OpenTime, s.CutoffTime, s.CloseTime, s.CreatedBy))
	if err != nil {
		return nil, translateWriteError(err, model.ErrDuplicateSession)
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.sessionCode", created.Code))
	return created, nil
}

// GetSessionByID fetches a session by its storage id.
func (r *AttendanceSessionRepository) GetSessionByID(ctx context.Context, id int64) (*model.AttendanceSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM attendance_sessions WHERE id = $1`
	s, err := scanSession(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFoundf("attendance session %d", id)
	}
	return s, err
}

// GetSessionByCode fetches a session by its business code.
func (r *AttendanceSessionRepository) GetSessionByCode(ctx context.Context, code string) (*model.AttendanceSession, error) {
	return getSessionByCode(ctx, r.DB, code)
}

func getSessionByCode(ctx context.Context, db DBTX, code string) (*model.AttendanceSession, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.sessionCode", code))
	query := `SELECT ` + sessionColumns + ` FROM attendance_sessions WHERE session_code = $1`
	s, err := scanSession(db.QueryRowContext(ctx, query, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFoundf("attendance session %s", code)
	}
	return s, err
}

// GetSessionByDate fetches the session for a calendar day.
func (r *AttendanceSessionRepository) GetSessionByDate(ctx context.Context, date model.Date) (*model.AttendanceSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM attendance_sessions WHERE date = $1`
	s, err := scanSession(r.DB.QueryRowContext(ctx, query, date))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFoundf("attendance session on %s", date)
	}
	return s, err
}

// ListSessions returns every session, newest date first.
func (r *AttendanceSessionRepository) ListSessions(ctx context.Context) ([]model.AttendanceSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM attendance_sessions ORDER BY date DESC`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.AttendanceSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// UpdateOpenSession rewrites the date and window of a session that is still open.
func (r *AttendanceSessionRepository) UpdateOpenSession(ctx context.Context, s model.AttendanceSession) (*model.AttendanceSession, error) {
	query := `UPDATE attendance_sessions
              SET date = $2, open_time = $3, cutoff_time = $4, close_time = $5, updated_at = now()
              WHERE session_code = $1 AND status = 'open'
              RETURNING ` + sessionColumns

	updated, err := scanSession(r.DB.QueryRowContext(ctx, query, s.Code, s.Date, s.OpenTime, s.CutoffTime, s.CloseTime))
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := getSessionByCode(ctx, r.DB, s.Code); getErr != nil {
			return nil, getErr
		}
		return nil, model.ErrSessionClosed
	}
	if err != nil {
		return nil, translateWriteError(err, model.ErrDuplicateSession)
	}
	return updated, nil
}

// CloseSession moves an open session to closed. Closing a closed session returns it unchanged.
func (r *AttendanceSessionRepository) CloseSession(ctx context.Context, code string) (*model.AttendanceSession, error) {
	query := `UPDATE attendance_sessions
              SET status = 'closed', updated_at = now()
              WHERE session_code = $1 AND status = 'open'
              RETURNING ` + sessionColumns

	closed, err := scanSession(r.DB.QueryRowContext(ctx, query, code))
	if errors.Is(err, sql.ErrNoRows) {
		return getSessionByCode(ctx, r.DB, code)
	}
	return closed, err
}

// DeleteSession removes a session that no attendance row references.
func (r *AttendanceSessionRepository) DeleteSession(ctx context.Context, code string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM attendance_sessions WHERE session_code = $1`, code)
	if err != nil {
		if isForeignKeyViolation(err) {
			return model.ErrSessionInUse
		}
		return fmt.Errorf("failed to delete attendance session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.NotFoundf("attendance session %s", code)
	}
	return nil
}
