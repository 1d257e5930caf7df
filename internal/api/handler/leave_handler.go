package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"hr.backoffice/internal/core"
	"hr.backoffice/internal/core/model"
	"hr.backoffice/internal/ports/repository"
)

type LeaveService interface {
	Grant(ctx context.Context, key repository.BalanceKey, amount int) (*model.LeaveBalance, error)
	Set(ctx context.Context, key repository.BalanceKey, amount int) (*model.LeaveBalance, error)
	Deduct(ctx context.Context, key repository.BalanceKey, days int) (*model.LeaveBalance, error)
	BulkGrant(ctx context.Context, typeCode string, year, amount int) (int64, error)
	BulkDelete(ctx context.Context, typeCode string, year int) (int64, error)
	GetBalance(ctx context.Context, key repository.BalanceKey) (*model.LeaveBalance, error)
	ListBalances(ctx context.Context, employeeCode string, year int) ([]model.LeaveBalance, error)
	SubmitRequest(ctx context.Context, in core.NewLeaveRequest) (*model.LeaveRequest, error)
	Decide(ctx context.Context, code string, status model.LeaveRequestStatus, approverCode string, now time.Time) (*model.LeaveRequest, error)
	GetRequest(ctx context.Context, code string) (*model.LeaveRequest, error)
	ListRequests(ctx context.Context, filter repository.LeaveRequestFilter) ([]model.LeaveRequest, error)
	PendingRequestCount(ctx context.Context, year int, month time.Month) (int, error)
}

type LeaveHandler struct {
	Service LeaveService
	Now     func() time.Time
}

// BalanceRequest addresses one balance and carries the amount to apply.
type BalanceRequest struct {
	EmployeeCode string `json:"employeeCode"`
	TypeCode     string `json:"typeCode"`
	Year         int    `json:"year"`
	Amount       int    `json:"amount"`
}

func (b BalanceRequest) key() repository.BalanceKey {
	return repository.BalanceKey{EmployeeCode: b.EmployeeCode, TypeCode: b.TypeCode, Year: b.Year}
}

// BulkRequest targets every active employee for one leave type and year.
type BulkRequest struct {
	TypeCode string `json:"typeCode"`
	Year     int    `json:"year"`
	Amount   int    `json:"amount"`
}

type AffectedResponse struct {
	Affected int64 `json:"affected"`
}

type DecisionRequest struct {
	Status model.LeaveRequestStatus `json:"status"`
}

func (h *LeaveHandler) balanceOp(op func(context.Context, repository.BalanceKey, int) (*model.LeaveBalance, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BalanceRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		balance, err := op(r.Context(), req.key(), req.Amount)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, balance)
	}
}

func (h *LeaveHandler) Grant(w http.ResponseWriter, r *http.Request) {
	h.balanceOp(h.Service.Grant)(w, r)
}

func (h *LeaveHandler) Set(w http.ResponseWriter, r *http.Request) {
	h.balanceOp(h.Service.Set)(w, r)
}

func (h *LeaveHandler) Deduct(w http.ResponseWriter, r *http.Request) {
	h.balanceOp(h.Service.Deduct)(w, r)
}

func (h *LeaveHandler) BulkGrant(w http.ResponseWriter, r *http.Request) {
	var req BulkRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	n, err := h.Service.BulkGrant(r.Context(), req.TypeCode, req.Year, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AffectedResponse{Affected: n})
}

// BulkDelete purges ?typeCode=&year= for every employee.
func (h *LeaveHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year")
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := h.Service.BulkDelete(r.Context(), r.URL.Query().Get("typeCode"), year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AffectedResponse{Affected: n})
}

func (h *LeaveHandler) ListBalances(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year")
	if err != nil {
		writeError(w, r, err)
		return
	}
	balances, err := h.Service.ListBalances(r.Context(), mux.Vars(r)["employeeCode"], year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if balances == nil {
		balances = []model.LeaveBalance{}
	}
	writeJSON(w, http.StatusOK, balances)
}

func (h *LeaveHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	year, err := strconv.Atoi(vars["year"])
	if err != nil {
		writeError(w, r, fieldError("year", "must be an integer"))
		return
	}
	balance, err := h.Service.GetBalance(r.Context(), repository.BalanceKey{
		EmployeeCode: vars["employeeCode"],
		TypeCode:     vars["typeCode"],
		Year:         year,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

func (h *LeaveHandler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	employeeCode, err := requireHeader(r, EmployeeCodeHeader)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req core.NewLeaveRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.EmployeeCode = employeeCode

	request, err := h.Service.SubmitRequest(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, request)
}

func (h *LeaveHandler) Decide(w http.ResponseWriter, r *http.Request) {
	approver, err := requireHeader(r, UserCodeHeader)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req DecisionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	request, err := h.Service.Decide(r.Context(), mux.Vars(r)["code"], req.Status, approver, now)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, request)
}

func (h *LeaveHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	request, err := h.Service.GetRequest(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, request)
}

func (h *LeaveHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	requests, err := h.Service.ListRequests(r.Context(), repository.LeaveRequestFilter{
		EmployeeCode: q.Get("employeeCode"),
		TypeCode:     q.Get("typeCode"),
		Status:       model.LeaveRequestStatus(q.Get("status")),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if requests == nil {
		requests = []model.LeaveRequest{}
	}
	writeJSON(w, http.StatusOK, requests)
}
