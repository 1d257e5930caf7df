package handler

import (
	"context"
	"net/http"
	"time"

	"hr.backoffice/internal/core/model"
	"hr.backoffice/internal/ports/repository"
)

type AttendanceService interface {
	CheckIn(ctx context.Context, employeeCode string, now time.Time) (*model.Attendance, error)
	CheckOut(ctx context.Context, employeeCode string, now time.Time) (*model.Attendance, error)
	ListAttendances(ctx context.Context, filter repository.AttendanceFilter) ([]model.Attendance, error)
	MonthlySummary(ctx context.Context, employeeCode string, year int, month time.Month, now time.Time) (*model.AttendanceSummary, error)
	DailyAttendance(ctx context.Context, date model.Date, now time.Time) (*model.DailyAttendance, error)
}

// AttendanceHandler records punches at the server clock; callers cannot
// choose their own timestamp.
type AttendanceHandler struct {
	Service AttendanceService
	Now     func() time.Time
}

func (h *AttendanceHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *AttendanceHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	employeeCode, err := requireHeader(r, EmployeeCodeHeader)
	if err != nil {
		writeError(w, r, err)
		return
	}
	attendance, err := h.Service.CheckIn(r.Context(), employeeCode, h.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, attendance)
}

func (h *AttendanceHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	employeeCode, err := requireHeader(r, EmployeeCodeHeader)
	if err != nil {
		writeError(w, r, err)
		return
	}
	attendance, err := h.Service.CheckOut(r.Context(), employeeCode, h.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attendance)
}

func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := h.Service.ListAttendances(r.Context(), repository.AttendanceFilter{
		SessionCode:  q.Get("sessionCode"),
		EmployeeCode: q.Get("employeeCode"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []model.Attendance{}
	}
	writeJSON(w, http.StatusOK, rows)
}
