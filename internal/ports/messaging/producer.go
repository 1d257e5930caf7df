package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// EventTypePayrollFinalized is set as the EventType message attribute.
const EventTypePayrollFinalized = "PAYROLL_FINALIZED"

type Producer struct {
	sender         MessageSender
	exportQueueURL string
	emailQueueURL  string
}

func NewProducer(sender MessageSender, exportQueueURL, emailQueueURL string) *Producer {
	return &Producer{
		sender:         sender,
		exportQueueURL: exportQueueURL,
		emailQueueURL:  emailQueueURL,
	}
}

func NewSQSProducer(client SQSClient, exportQueueURL, emailQueueURL string) *Producer {
	return NewProducer(&SQSSender{client: client}, exportQueueURL, emailQueueURL)
}

// PublishPayrollFinalized fans the event out to the export queue and the email queue.
func (p *Producer) PublishPayrollFinalized(ctx context.Context, event PayrollFinalizedEvent) error {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("app.employeeCode", event.EmployeeCode),
		attribute.Int64("app.payrollId", event.PayrollID),
	)

	if err := p.publish(ctx, p.exportQueueURL, event); err != nil {
		return fmt.Errorf("export queue: %w", err)
	}
	if err := p.publish(ctx, p.emailQueueURL, event); err != nil {
		return fmt.Errorf("email queue: %w", err)
	}
	return nil
}

func (p *Producer) publish(ctx context.Context, destination string, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	if err := p.sender.SendMessage(ctx, destination, EventTypePayrollFinalized, b); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
