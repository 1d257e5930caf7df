package handler

import (
	"context"
	"net/http"

	"hr.backoffice/internal/core"
	"hr.backoffice/internal/core/model"
)

type PayrollService interface {
	CreatePeriod(ctx context.Context, in core.NewPeriod) (*model.PayrollPeriod, error)
	GetPeriod(ctx context.Context, id int64) (*model.PayrollPeriod, error)
	ListPeriods(ctx context.Context) ([]model.PayrollPeriod, error)
	UpdatePeriodStatus(ctx context.Context, id int64, status model.PeriodStatus) (*model.PayrollPeriod, error)
	DeletePeriod(ctx context.Context, id int64) error
	Generate(ctx context.Context, periodID int64) (int64, error)
	GetPayroll(ctx context.Context, id int64) (*model.Payroll, error)
	ListPayrolls(ctx context.Context, periodID int64) ([]model.Payroll, error)
	Edit(ctx context.Context, id int64, changes core.PayrollChanges) (*model.Payroll, error)
	Delete(ctx context.Context, id int64) error
}

type PayrollHandler struct {
	Service PayrollService
}

type PeriodStatusRequest struct {
	Status model.PeriodStatus `json:"status"`
}

type GenerateResponse struct {
	PeriodID  int64 `json:"payrollPeriodId"`
	Processed int64 `json:"processed"`
}

func (h *PayrollHandler) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	var req core.NewPeriod
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	period, err := h.Service.CreatePeriod(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, period)
}

func (h *PayrollHandler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.Service.ListPeriods(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if periods == nil {
		periods = []model.PayrollPeriod{}
	}
	writeJSON(w, http.StatusOK, periods)
}

func (h *PayrollHandler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	period, err := h.Service.GetPeriod(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, period)
}

func (h *PayrollHandler) UpdatePeriodStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req PeriodStatusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	period, err := h.Service.UpdatePeriodStatus(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, period)
}

func (h *PayrollHandler) DeletePeriod(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.DeletePeriod(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PayrollHandler) Generate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	processed, err := h.Service.Generate(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, GenerateResponse{PeriodID: id, Processed: processed})
}

func (h *PayrollHandler) ListPayrolls(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	payrolls, err := h.Service.ListPayrolls(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if payrolls == nil {
		payrolls = []model.Payroll{}
	}
	writeJSON(w, http.StatusOK, payrolls)
}

func (h *PayrollHandler) GetPayroll(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	payroll, err := h.Service.GetPayroll(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payroll)
}

func (h *PayrollHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var changes core.PayrollChanges
	if err := decode(r, &changes); err != nil {
		writeError(w, r, err)
		return
	}
	payroll, err := h.Service.Edit(r.Context(), id, changes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payroll)
}

func (h *PayrollHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
