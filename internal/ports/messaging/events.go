package messaging

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayrollFinalizedEvent is the JSON payload sent to the export and email queues
// once a payroll leaves draft as finalized.
type PayrollFinalizedEvent struct {
	EventID      string          `json:"eventId"`
	PayrollID    int64           `json:"payrollId"`
	PeriodID     int64           `json:"payrollPeriodId"`
	EmployeeCode string          `json:"employeeCode"`
	NetSalary    decimal.Decimal `json:"netSalary"`
	FinalizedAt  time.Time       `json:"finalizedAt"`
}
