package messaging

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"

	"hr.backoffice/pkg/telemetry"
)

// SQSSender sends payroll events to SQS queues, carrying the trace context and
// the event type as message attributes.
type SQSSender struct {
	client SQSClient
}

func (s *SQSSender) SendMessage(ctx context.Context, queueURL, eventType string, body []byte) error {
	attributes := telemetry.InjectTraceContext(ctx)
	attributes["EventType"] = types.MessageAttributeValue{
		DataType:    aws.String("String"),
		StringValue: aws.String(eventType),
	}

	out, err := s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:          aws.String(queueURL),
		MessageBody:       aws.String(string(body)),
		MessageAttributes: attributes,
	})
	if err != nil {
		return fmt.Errorf("sqs send to %s: %w", queueURL, err)
	}

	log.Ctx(ctx).Debug().
		Str("queue_url", queueURL).
		Str("event_type", eventType).
		Str("message_id", aws.ToString(out.MessageId)).
		Msg("event sent")
	return nil
}
