package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"hr.backoffice/internal/core"
	"hr.backoffice/internal/core/model"
)

type SessionService interface {
	CreateSession(ctx context.Context, in core.NewSession) (*model.AttendanceSession, error)
	GetSessionByCode(ctx context.Context, code string) (*model.AttendanceSession, error)
	GetSessionByDate(ctx context.Context, date model.Date) (*model.AttendanceSession, error)
	ListSessions(ctx context.Context) ([]model.AttendanceSession, error)
	UpdateSession(ctx context.Context, code string, changes core.SessionChanges) (*model.AttendanceSession, error)
	CloseSession(ctx context.Context, code string) (*model.AttendanceSession, error)
	DeleteSession(ctx context.Context, code string) error
}

type SessionHandler struct {
	Service SessionService
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userCode, err := requireHeader(r, UserCodeHeader)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req core.NewSession
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.CreatedBy = userCode

	session, err := h.Service.CreateSession(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// List returns every session, or the single session of ?date=YYYY-MM-DD.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("date"); raw != "" {
		date, err := model.ParseDate(raw)
		if err != nil {
			writeError(w, r, fieldError("date", "must be YYYY-MM-DD"))
			return
		}
		session, err := h.Service.GetSessionByDate(r.Context(), date)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, []model.AttendanceSession{*session})
		return
	}

	sessions, err := h.Service.ListSessions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []model.AttendanceSession{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.Service.GetSessionByCode(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *SessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var changes core.SessionChanges
	if err := decode(r, &changes); err != nil {
		writeError(w, r, err)
		return
	}
	session, err := h.Service.UpdateSession(r.Context(), mux.Vars(r)["code"], changes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	session, err := h.Service.CloseSession(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteSession(r.Context(), mux.Vars(r)["code"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
