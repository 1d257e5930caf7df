package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"hr.backoffice/internal/api/handler"
)

// Services groups the core services the HTTP boundary exposes.
type Services struct {
	Sessions    handler.SessionService
	Attendances handler.AttendanceService
	Leaves      handler.LeaveService
	Payrolls    handler.PayrollService
}

// NewRouter sets up the gorilla/mux router and defines all API routes.
func NewRouter(s Services) *mux.Router {
	sessions := handler.SessionHandler{Service: s.Sessions}
	attendances := handler.AttendanceHandler{Service: s.Attendances}
	leaves := handler.LeaveHandler{Service: s.Leaves}
	payrolls := handler.PayrollHandler{Service: s.Payrolls}
	dashboard := handler.DashboardHandler{Attendances: s.Attendances, Leaves: s.Leaves}

	r := mux.NewRouter()
	r.Use(RequestIDMiddleware, AccessLogMiddleware)

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/sessions", sessions.Create).Methods(http.MethodPost)
	api.HandleFunc("/sessions", sessions.List).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{code}", sessions.Get).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{code}", sessions.Update).Methods(http.MethodPatch)
	api.HandleFunc("/sessions/{code}", sessions.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{code}/close", sessions.Close).Methods(http.MethodPost)

	api.HandleFunc("/attendances/check-in", attendances.CheckIn).Methods(http.MethodPost)
	api.HandleFunc("/attendances/check-out", attendances.CheckOut).Methods(http.MethodPost)
	api.HandleFunc("/attendances", attendances.List).Methods(http.MethodGet)

	api.HandleFunc("/leave-balances/grant", leaves.Grant).Methods(http.MethodPost)
	api.HandleFunc("/leave-balances/deduct", leaves.Deduct).Methods(http.MethodPost)
	api.HandleFunc("/leave-balances/bulk-grant", leaves.BulkGrant).Methods(http.MethodPost)
	api.HandleFunc("/leave-balances", leaves.Set).Methods(http.MethodPut)
	api.HandleFunc("/leave-balances", leaves.BulkDelete).Methods(http.MethodDelete)
	api.HandleFunc("/leave-balances/{employeeCode}", leaves.ListBalances).Methods(http.MethodGet)
	api.HandleFunc("/leave-balances/{employeeCode}/{typeCode}/{year:[0-9]+}", leaves.GetBalance).Methods(http.MethodGet)

	api.HandleFunc("/leave-requests", leaves.SubmitRequest).Methods(http.MethodPost)
	api.HandleFunc("/leave-requests", leaves.ListRequests).Methods(http.MethodGet)
	api.HandleFunc("/leave-requests/{code}", leaves.GetRequest).Methods(http.MethodGet)
	api.HandleFunc("/leave-requests/{code}/decision", leaves.Decide).Methods(http.MethodPost)

	api.HandleFunc("/payroll-periods", payrolls.CreatePeriod).Methods(http.MethodPost)
	api.HandleFunc("/payroll-periods", payrolls.ListPeriods).Methods(http.MethodGet)
	api.HandleFunc("/payroll-periods/{id:[0-9]+}", payrolls.GetPeriod).Methods(http.MethodGet)
	api.HandleFunc("/payroll-periods/{id:[0-9]+}", payrolls.UpdatePeriodStatus).Methods(http.MethodPatch)
	api.HandleFunc("/payroll-periods/{id:[0-9]+}", payrolls.DeletePeriod).Methods(http.MethodDelete)
	api.HandleFunc("/payroll-periods/{id:[0-9]+}/generate", payrolls.Generate).Methods(http.MethodPost)
	api.HandleFunc("/payroll-periods/{id:[0-9]+}/payrolls", payrolls.ListPayrolls).Methods(http.MethodGet)

	api.HandleFunc("/payrolls/{id:[0-9]+}", payrolls.GetPayroll).Methods(http.MethodGet)
	api.HandleFunc("/payrolls/{id:[0-9]+}", payrolls.Edit).Methods(http.MethodPatch)
	api.HandleFunc("/payrolls/{id:[0-9]+}", payrolls.Delete).Methods(http.MethodDelete)

	api.HandleFunc("/dashboard/admin", dashboard.Admin).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/employee", dashboard.Employee).Methods(http.MethodGet)

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Service is operational."))
	}).Methods(http.MethodGet)

	return r
}
