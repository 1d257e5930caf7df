package main

import (
	"encoding/json"
	"net/http"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"hr.backoffice/internal/worker/legacyapi"
)

// seen remembers idempotency keys so redelivered exports are acknowledged
// without being booked twice, like the real accounting system.
var (
	mu   sync.Mutex
	seen = map[string]bool{}
)

func payrollHandler(w http.ResponseWriter, r *http.Request) {
	var record legacyapi.PayrollRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	key := r.Header.Get("Idempotency-Key")
	mu.Lock()
	duplicate := seen[key]
	seen[key] = true
	mu.Unlock()

	log.Info().
		Int64("payroll_id", record.PayrollID).
		Str("employee_code", record.EmployeeCode).
		Str("net_salary", record.NetSalary.StringFixed(2)).
		Bool("duplicate", duplicate).
		Msg("Received payroll export")
	w.WriteHeader(http.StatusOK)
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	http.HandleFunc("/", payrollHandler)
	log.Info().Msg("Legacy API mock server starting on port 8081...")
	log.Fatal().Err(http.ListenAndServe(":8081", nil)).Msg("server stopped")
}
