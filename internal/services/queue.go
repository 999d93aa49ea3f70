package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/Samir899/SpendVolt/internal/outbox"
)

// maxDequeue is the most messages Azure Queue Storage returns per call.
const maxDequeue = 32

// QueueService keeps undelivered changes in Azure Queue Storage so they
// survive a restart.
type QueueService struct {
	queue *azqueue.QueueClient

	once sync.Once
}

var _ outbox.Outbox = (*QueueService)(nil)

// NewQueueService creates a QueueService for QUEUE_SERVICE_URL. The queue name
// comes from OUTBOX_QUEUE.
func NewQueueService() (*QueueService, error) {
	queueURL := os.Getenv("QUEUE_SERVICE_URL")
	if queueURL == "" {
		return nil, fmt.Errorf("QUEUE_SERVICE_URL environment variable is required")
	}
	queueName := os.Getenv("OUTBOX_QUEUE")
	if queueName == "" {
		queueName = "spendvolt-outbox"
	}

	slog.Info("initializing queue service", "queue_url", queueURL, "queue", queueName)
	var client *azqueue.ServiceClient

	if isLocal(queueURL) {
		slog.Info("using Azurite shared key credentials for queue service")
		name, key := azuriteCredentials()
		cred, err := azqueue.NewSharedKeyCredential(name, key)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		client, err = azqueue.NewServiceClientWithSharedKeyCredential(queueURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create queue service client with shared key: %w", err)
		}
	} else {
		cred, err := newDefaultAzureCredential()
		if err != nil {
			return nil, fmt.Errorf("failed to create default azure credential: %w", err)
		}
		client, err = azqueue.NewServiceClient(queueURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create queue service client: %w", err)
		}
	}

	slog.Info("queue service initialized successfully")
	return &QueueService{queue: client.NewQueueClient(queueName)}, nil
}

func (s *QueueService) ensureQueue(ctx context.Context) {
	s.once.Do(func() {
		_, err := s.queue.Create(ctx, nil)
		if err != nil && !hasErrorCode(err, "QueueAlreadyExists") {
			slog.Warn("failed to create queue", "error", err)
		}
	})
}

func encodeOp(op outbox.Op) (string, error) {
	data, err := json.Marshal(op)
	if err != nil {
		return "", fmt.Errorf("failed to marshal op: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func decodeOp(text string) (outbox.Op, error) {
	var op outbox.Op
	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return op, fmt.Errorf("failed to decode message: %w", err)
	}
	if err := json.Unmarshal(data, &op); err != nil {
		return op, fmt.Errorf("failed to unmarshal op: %w", err)
	}
	return op, nil
}

// Enqueue stores op as a base64 encoded JSON message.
func (s *QueueService) Enqueue(ctx context.Context, op outbox.Op) error {
	s.ensureQueue(ctx)

	msg, err := encodeOp(op)
	if err != nil {
		return err
	}
	if _, err := s.queue.EnqueueMessage(ctx, msg, nil); err != nil {
		slog.Error("failed to enqueue op", "op", op.String(), "error", err)
		return fmt.Errorf("failed to enqueue op: %w", err)
	}
	slog.Info("queued op for retry", "op", op.String(), "attempts", op.Attempts)
	return nil
}

// Drain dequeues and deletes up to max messages. Messages that cannot be
// decoded are deleted and skipped.
func (s *QueueService) Drain(ctx context.Context, max int) ([]outbox.Op, error) {
	s.ensureQueue(ctx)

	var ops []outbox.Op
	for max <= 0 || len(ops) < max {
		n := maxDequeue
		if max > 0 && max-len(ops) < n {
			n = max - len(ops)
		}
		resp, err := s.queue.DequeueMessages(ctx, &azqueue.DequeueMessagesOptions{
			NumberOfMessages:  to.Ptr(int32(n)),
			VisibilityTimeout: to.Ptr(int32(60)),
		})
		if err != nil {
			return ops, fmt.Errorf("failed to dequeue ops: %w", err)
		}
		if len(resp.Messages) == 0 {
			break
		}

		for _, msg := range resp.Messages {
			if msg == nil || msg.MessageID == nil || msg.PopReceipt == nil {
				continue
			}
			text := ""
			if msg.MessageText != nil {
				text = *msg.MessageText
			}
			op, decodeErr := decodeOp(text)
			if _, err := s.queue.DeleteMessage(ctx, *msg.MessageID, *msg.PopReceipt, nil); err != nil {
				// Still invisible; it will be handed out again later.
				slog.Warn("failed to delete dequeued op", "message_id", *msg.MessageID, "error", err)
				continue
			}
			if decodeErr != nil {
				slog.Error("dropping unreadable op", "message_id", *msg.MessageID, "error", decodeErr)
				continue
			}
			ops = append(ops, op)
		}
	}
	return ops, nil
}
