package export

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/shopspring/decimal"

	"hr.backoffice/internal/core/model"
	"hr.backoffice/internal/ports/messaging"
)

type fakeStore struct {
	payrolls map[int64]*model.Payroll
	getErr   error
}

func (s *fakeStore) GetPayroll(_ context.Context, id int64) (*model.Payroll, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	p, ok := s.payrolls[id]
	if !ok {
		return nil, model.NotFoundf("payroll %d", id)
	}
	out := *p
	return &out, nil
}

func (s *fakeStore) UpdateExportStatus(_ context.Context, id int64, status model.DeliveryStatus, retryCount int) error {
	s.payrolls[id].ExportStatus = status
	s.payrolls[id].ExportRetryCount = retryCount
	return nil
}

type fakeLegacy struct {
	calls int
	err   error
}

func (f *fakeLegacy) ExportPayroll(context.Context, model.Payroll) error {
	f.calls++
	return f.err
}

func finalizedPayroll() *model.Payroll {
	return &model.Payroll{
		ID:           7,
		PeriodID:     3,
		EmployeeCode: "EMP0000001",
		NetSalary:    decimal.NewFromInt(7800000),
		Status:       model.PayrollFinalized,
		ExportStatus: model.DeliveryPending,
		EmailStatus:  model.DeliveryPending,
	}
}

func eventMessage(t *testing.T, payrollID int64) types.Message {
	t.Helper()
	body, err := json.Marshal(messaging.PayrollFinalizedEvent{EventID: "e-1", PayrollID: payrollID, EmployeeCode: "EMP0000001"})
	if err != nil {
		t.Fatal(err)
	}
	return types.Message{Body: aws.String(string(body))}
}

func TestProcess(t *testing.T) {
	ctx := context.Background()

	t.Run("exports and completes", func(t *testing.T) {
		store := &fakeStore{payrolls: map[int64]*model.Payroll{7: finalizedPayroll()}}
		legacy := &fakeLegacy{}
		retry, _, err := NewProcessor(store, legacy).Process(ctx, eventMessage(t, 7))
		if err != nil || retry {
			t.Fatalf("Process = %v, %v", retry, err)
		}
		if legacy.calls != 1 || store.payrolls[7].ExportStatus != model.DeliveryCompleted {
			t.Fatalf("calls = %d, status = %s", legacy.calls, store.payrolls[7].ExportStatus)
		}
	})

	t.Run("already exported is skipped", func(t *testing.T) {
		p := finalizedPayroll()
		p.ExportStatus = model.DeliveryCompleted
		legacy := &fakeLegacy{}
		retry, _, err := NewProcessor(&fakeStore{payrolls: map[int64]*model.Payroll{7: p}}, legacy).Process(ctx, eventMessage(t, 7))
		if err != nil || retry || legacy.calls != 0 {
			t.Fatalf("Process = %v, %v, calls = %d", retry, err, legacy.calls)
		}
	})

	t.Run("legacy failure backs off", func(t *testing.T) {
		store := &fakeStore{payrolls: map[int64]*model.Payroll{7: finalizedPayroll()}}
		legacy := &fakeLegacy{err: errors.New("502")}
		retry, delay, err := NewProcessor(store, legacy).Process(ctx, eventMessage(t, 7))
		if err == nil || !retry || delay != 20 {
			t.Fatalf("Process = %v, %d, %v", retry, delay, err)
		}
		if store.payrolls[7].ExportRetryCount != 1 || store.payrolls[7].ExportStatus != model.DeliveryPending {
			t.Fatalf("retry not recorded: %+v", store.payrolls[7])
		}
	})

	t.Run("draft payroll is retried until the budget runs out", func(t *testing.T) {
		p := finalizedPayroll()
		p.Status = model.PayrollDraft
		store := &fakeStore{payrolls: map[int64]*model.Payroll{7: p}}
		proc := NewProcessor(store, &fakeLegacy{})

		msg := eventMessage(t, 7)
		if retry, _, err := proc.Process(ctx, msg); err == nil || !retry {
			t.Fatalf("expected retry, got %v, %v", retry, err)
		}
		msg.Attributes = map[string]string{"ApproximateReceiveCount": "5"}
		if retry, _, err := proc.Process(ctx, msg); err != nil || retry {
			t.Fatalf("expected drop, got %v, %v", retry, err)
		}
	})

	t.Run("malformed body is not retried", func(t *testing.T) {
		retry, _, err := NewProcessor(&fakeStore{}, &fakeLegacy{}).Process(ctx, types.Message{Body: aws.String("{")})
		if err == nil || retry {
			t.Fatalf("Process = %v, %v", retry, err)
		}
	})

	t.Run("database failure is retried", func(t *testing.T) {
		store := &fakeStore{getErr: errors.New("connection refused")}
		retry, _, err := NewProcessor(store, &fakeLegacy{}).Process(ctx, eventMessage(t, 7))
		if err == nil || !retry {
			t.Fatalf("Process = %v, %v", retry, err)
		}
	})
}
