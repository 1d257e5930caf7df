package core

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"hr.backoffice/internal/core/model"
	"hr.backoffice/pkg/telemetry"
)

type EmailService interface {
	SendPayslip(ctx context.Context, employee model.Employee, payroll model.Payroll) error
}

// SESClient is the part of the SES client the payslip mailer uses.
type SESClient interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESEmailService struct {
	client SESClient
	sender string
}

func NewSESEmailService(client SESClient, sender string) *SESEmailService {
	return &SESEmailService{client: client, sender: sender}
}

// PayslipBody renders the plain-text payslip summary.
func PayslipBody(employee model.Employee, p model.Payroll) string {
	return fmt.Sprintf("Hello %s,\n\n"+
		"Your payroll for period %d has been finalized.\n\n"+
		"Base salary:      %s\n"+
		"Work days:        %d\n"+
		"Leave days:       %d\n"+
		"Total deductions: %s\n"+
		"Net salary:       %s\n",
		employee.FullName, p.PeriodID,
		p.BaseSalary.StringFixed(moneyPlaces), p.TotalWorkDays, p.TotalLeaveDays,
		p.TotalDeductions.StringFixed(moneyPlaces), p.NetSalary.StringFixed(moneyPlaces))
}

func (s *SESEmailService) SendPayslip(ctx context.Context, employee model.Employee, payroll model.Payroll) error {
	tracer := otel.Tracer("ses-email-service")
	ctx, span := tracer.Start(ctx, "send_payslip", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if code := telemetry.GetEmployeeCodeFromContext(ctx); code != "" {
		span.SetAttributes(attribute.String("app.employeeCode", code))
	}

	input := &ses.SendEmailInput{
		Source: aws.String(s.sender),
		Destination: &types.Destination{
			ToAddresses: []string{employee.Email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(fmt.Sprintf("Payslip for period %d", payroll.PeriodID)),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(PayslipBody(employee, payroll)),
				},
			},
		},
	}

	_, err := s.client.SendEmail(ctx, input)
	return err
}
