package core

import (
	"context"

	"github.com/rs/zerolog"

	"hr.backoffice/internal/core/model"
	"hr.backoffice/internal/ports/repository"
)

// SessionService is the attendance session registry.
type SessionService struct {
	repo repository.SessionRepository
}

// NewSessionService wires the registry to its storage.
func NewSessionService(repo repository.SessionRepository) *SessionService {
	return &SessionService{repo: repo}
}

// NewSession is the input for creating a session.
type NewSession struct {
	Date       model.Date      `json:"date"`
	OpenTime   model.ClockTime `json:"openTime"`
	CutoffTime model.ClockTime `json:"cutoffTime"`
	CloseTime  model.ClockTime `json:"closeTime"`
	CreatedBy  string          `json:"-"`
}

// SessionChanges holds the fields an update may touch. Nil fields keep their value.
type SessionChanges struct {
	Date       *model.Date      `json:"date"`
	OpenTime   *model.ClockTime `json:"openTime"`
	CutoffTime *model.ClockTime `json:"cutoffTime"`
	CloseTime  *model.ClockTime `json:"closeTime"`
}

func validateWindow(vErr *model.ValidationError, s model.AttendanceSession) {
	if s.Date.IsZero() {
		vErr.Add("date", "is required")
	}
	if s.CutoffTime <= s.OpenTime {
		vErr.Add("cutoffTime", "must be after openTime")
	}
}

// CreateSession registers an open session for a calendar day.
func (s *SessionService) CreateSession(ctx context.Context, in NewSession) (session *model.AttendanceSession, err error) {
	defer func() {
		logOutcome(ctx, "create_session", err, func(e *zerolog.Event) {
			e.Str("date", in.Date.String())
			if session != nil {
				e.Str("session_code", session.Code)
			}
		})
	}()

	candidate := model.AttendanceSession{
		Date:       in.Date,
		OpenTime:   in.OpenTime,
		CutoffTime: in.CutoffTime,
		CloseTime:  in.CloseTime,
		CreatedBy:  in.CreatedBy,
	}
	vErr := &model.ValidationError{}
	validateWindow(vErr, candidate)
	if in.CreatedBy == "" {
		vErr.Add("createdBy", "is required")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}
	return s.repo.CreateSession(ctx, candidate)
}

func (s *SessionService) GetSessionByID(ctx context.Context, id int64) (*model.AttendanceSession, error) {
	return s.repo.GetSessionByID(ctx, id)
}

func (s *SessionService) GetSessionByCode(ctx context.Context, code string) (*model.AttendanceSession, error) {
	return s.repo.GetSessionByCode(ctx, code)
}

func (s *SessionService) GetSessionByDate(ctx context.Context, date model.Date) (*model.AttendanceSession, error) {
	return s.repo.GetSessionByDate(ctx, date)
}

func (s *SessionService) ListSessions(ctx context.Context) ([]model.AttendanceSession, error) {
	return s.repo.ListSessions(ctx)
}

// UpdateSession merges changes into an open session. The merged window must
// still have its cutoff after its open time.
func (s *SessionService) UpdateSession(ctx context.Context, code string, changes SessionChanges) (session *model.AttendanceSession, err error) {
	defer func() {
		logOutcome(ctx, "update_session", err, func(e *zerolog.Event) { e.Str("session_code", code) })
	}()

	current, err := s.repo.GetSessionByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if current.Status != model.SessionOpen {
		return nil, model.ErrSessionClosed
	}

	merged := *current
	if changes.Date != nil {
		merged.Date = *changes.Date
	}
	if changes.OpenTime != nil {
		merged.OpenTime = *changes.OpenTime
	}
	if changes.CutoffTime != nil {
		merged.CutoffTime = *changes.CutoffTime
	}
	if changes.CloseTime != nil {
		merged.CloseTime = *changes.CloseTime
	}

	vErr := &model.ValidationError{}
	validateWindow(vErr, merged)
	if vErr.HasErrors() {
		return nil, vErr
	}
	return s.repo.UpdateOpenSession(ctx, merged)
}

// CloseSession moves a session to closed. Closing a closed session is a no-op.
func (s *SessionService) CloseSession(ctx context.Context, code string) (session *model.AttendanceSession, err error) {
	defer func() {
		logOutcome(ctx, "close_session", err, func(e *zerolog.Event) { e.Str("session_code", code) })
	}()
	return s.repo.CloseSession(ctx, code)
}

// DeleteSession removes a session without attendance rows.
func (s *SessionService) DeleteSession(ctx context.Context, code string) (err error) {
	defer func() {
		logOutcome(ctx, "delete_session", err, func(e *zerolog.Event) { e.Str("session_code", code) })
	}()
	return s.repo.DeleteSession(ctx, code)
}
