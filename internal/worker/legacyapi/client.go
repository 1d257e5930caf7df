package legacyapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"hr.backoffice/internal/core/model"
)

// Client is the contract of the legacy payroll system.
type Client interface {
	ExportPayroll(ctx context.Context, payroll model.Payroll) error
}

// PayrollRecord is the body the legacy system accepts.
type PayrollRecord struct {
	PayrollID       int64           `json:"payrollId"`
	PeriodID        int64           `json:"payrollPeriodId"`
	EmployeeCode    string          `json:"employeeCode"`
	BaseSalary      decimal.Decimal `json:"baseSalary"`
	TotalWorkDays   int             `json:"totalWorkDays"`
	TotalLeaveDays  int             `json:"totalLeaveDays"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`
	NetSalary       decimal.Decimal `json:"netSalary"`
}

// HTTPClient posts payroll records over HTTP.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: baseURL,
	}
}

// ExportPayroll posts one finalized payroll. The payroll id doubles as the
// idempotency key so redelivered messages are not booked twice.
func (c *HTTPClient) ExportPayroll(ctx context.Context, p model.Payroll) error {
	payload, err := json.Marshal(PayrollRecord{
		PayrollID:       p.ID,
		PeriodID:        p.PeriodID,
		EmployeeCode:    p.EmployeeCode,
		BaseSalary:      p.BaseSalary,
		TotalWorkDays:   p.TotalWorkDays,
		TotalLeaveDays:  p.TotalLeaveDays,
		TotalDeductions: p.TotalDeductions,
		NetSalary:       p.NetSalary,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal legacy api payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create legacy api request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", "payroll-"+strconv.FormatInt(p.ID, 10))

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call legacy api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("legacy api returned non-successful status code: %d", resp.StatusCode)
	}

	log.Ctx(ctx).Info().Int64("payroll_id", p.ID).Str("employee_code", p.EmployeeCode).Msg("Payroll exported to legacy system")
	return nil
}
