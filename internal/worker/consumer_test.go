package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type fakeQueue struct {
	mu         sync.Mutex
	pending    []types.Message
	deleted    []string
	visibility map[string]int32
}

func (q *fakeQueue) ReceiveMessage(ctx context.Context, _ *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	q.mu.Lock()
	if len(q.pending) > 0 {
		msgs := q.pending
		q.pending = nil
		q.mu.Unlock()
		return &sqs.ReceiveMessageOutput{Messages: msgs}, nil
	}
	q.mu.Unlock()
	<-ctx.Done()
	return nil, ctx.Err()
}

func (q *fakeQueue) DeleteMessage(_ context.Context, params *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.deleted = append(q.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func (q *fakeQueue) ChangeMessageVisibility(_ context.Context, params *sqs.ChangeMessageVisibilityInput, _ ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.visibility == nil {
		q.visibility = map[string]int32{}
	}
	q.visibility[aws.ToString(params.ReceiptHandle)] = params.VisibilityTimeout
	return &sqs.ChangeMessageVisibilityOutput{}, nil
}

type processorFunc func(ctx context.Context, msg types.Message) (bool, int32, error)

func (f processorFunc) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	return f(ctx, msg)
}

func message(handle string) types.Message {
	return types.Message{
		MessageId:     aws.String("id-" + handle),
		ReceiptHandle: aws.String(handle),
		Body:          aws.String(`{"payrollId":1,"employeeCode":"EMP0000001"}`),
	}
}

func TestHandleSingleMessage(t *testing.T) {
	tests := []struct {
		name        string
		retry       bool
		delay       int32
		err         error
		wantDeleted bool
		wantDelay   int32
	}{
		{name: "success deletes", wantDeleted: true},
		{name: "retryable failure delays", retry: true, delay: 40, err: errors.New("smtp down"), wantDelay: 40},
		{name: "unrecoverable failure keeps", err: errors.New("bad body")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &fakeQueue{}
			w := NewWorker(q, "queue", processorFunc(func(context.Context, types.Message) (bool, int32, error) {
				return tt.retry, tt.delay, tt.err
			}), 1)

			w.handleSingleMessage(context.Background(), message("h1"))

			if got := len(q.deleted) == 1; got != tt.wantDeleted {
				t.Fatalf("deleted = %v, want %v", q.deleted, tt.wantDeleted)
			}
			if got := q.visibility["h1"]; got != tt.wantDelay {
				t.Fatalf("visibility = %d, want %d", got, tt.wantDelay)
			}
		})
	}
}

func TestStartDrainsAndStops(t *testing.T) {
	q := &fakeQueue{pending: []types.Message{message("a"), message("b"), message("c")}}

	var mu sync.Mutex
	seen := map[string]bool{}
	done := make(chan struct{})
	w := NewWorker(q, "queue", processorFunc(func(_ context.Context, msg types.Message) (bool, int32, error) {
		mu.Lock()
		defer mu.Unlock()
		seen[aws.ToString(msg.ReceiptHandle)] = true
		if len(seen) == 3 {
			close(done)
		}
		return false, 0, nil
	}), 2)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(stopped)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("messages were not processed")
	}
	cancel()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.deleted) != 3 {
		t.Fatalf("deleted = %v", q.deleted)
	}
}

func TestBackoff(t *testing.T) {
	tests := map[int]int32{1: 20, 2: 40, 5: 320, 9: 3600, 30: 3600}
	for retry, want := range tests {
		if got := Backoff(retry); got != want {
			t.Errorf("Backoff(%d) = %d, want %d", retry, got, want)
		}
	}
}

func TestReceiveCount(t *testing.T) {
	msg := message("h")
	if got := ReceiveCount(msg); got != 0 {
		t.Fatalf("missing attribute = %d, want 0", got)
	}
	msg.Attributes = map[string]string{"ApproximateReceiveCount": "3"}
	if got := ReceiveCount(msg); got != 3 {
		t.Fatalf("ReceiveCount = %d, want 3", got)
	}
}
