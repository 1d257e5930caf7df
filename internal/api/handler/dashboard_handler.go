package handler

import (
	"net/http"
	"time"

	"hr.backoffice/internal/core/model"
)

// AdminMetrics is the admin dashboard: today's head count and the month's
// pending leave requests.
type AdminMetrics struct {
	model.DailyAttendance
	Year                 int        `json:"year"`
	Month                time.Month `json:"month"`
	PendingLeaveRequests int        `json:"pendingLeaveRequests"`
}

// EmployeeMetrics is the caller's monthly attendance and the leave balances of that year.
type EmployeeMetrics struct {
	model.AttendanceSummary
	LeaveBalances []model.LeaveBalance `json:"leaveBalances"`
}

type DashboardHandler struct {
	Attendances AttendanceService
	Leaves      LeaveService
	Now         func() time.Time
}

func (h *DashboardHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func queryMonth(r *http.Request) (year int, month time.Month, err error) {
	if year, err = queryInt(r, "year"); err != nil {
		return 0, 0, err
	}
	m, err := queryInt(r, "month")
	if err != nil {
		return 0, 0, err
	}
	return year, time.Month(m), nil
}

// Admin serves ?date=YYYY-MM-DD&year=&month=, each defaulting to today.
func (h *DashboardHandler) Admin(w http.ResponseWriter, r *http.Request) {
	var date model.Date
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := model.ParseDate(raw)
		if err != nil {
			writeError(w, r, fieldError("date", "must be YYYY-MM-DD"))
			return
		}
		date = parsed
	}
	year, month, err := queryMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	daily, err := h.Attendances.DailyAttendance(r.Context(), date, h.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if year == 0 {
		year = daily.Date.Year
	}
	if month == 0 {
		month = daily.Date.Month
	}

	pending, err := h.Leaves.PendingRequestCount(r.Context(), year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AdminMetrics{
		DailyAttendance:      *daily,
		Year:                 year,
		Month:                month,
		PendingLeaveRequests: pending,
	})
}

// Employee serves the caller's metrics for ?year=&month=, defaulting to the current month.
func (h *DashboardHandler) Employee(w http.ResponseWriter, r *http.Request) {
	employeeCode, err := requireHeader(r, EmployeeCodeHeader)
	if err != nil {
		writeError(w, r, err)
		return
	}
	year, month, err := queryMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	summary, err := h.Attendances.MonthlySummary(r.Context(), employeeCode, year, month, h.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	balances, err := h.Leaves.ListBalances(r.Context(), employeeCode, summary.Year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if balances == nil {
		balances = []model.LeaveBalance{}
	}
	writeJSON(w, http.StatusOK, EmployeeMetrics{AttendanceSummary: *summary, LeaveBalances: balances})
}
