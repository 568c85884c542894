package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/firestation/dutybot/internal/application/port"
	"github.com/firestation/dutybot/internal/domain/entity"
)

// NotificationWorkerConfig holds configuration for the notification worker
type NotificationWorkerConfig struct {
	PollInterval time.Duration
	BatchSize    int
	SendTimeout  time.Duration
}

// DefaultNotificationWorkerConfig returns default configuration
func DefaultNotificationWorkerConfig() NotificationWorkerConfig {
	return NotificationWorkerConfig{
		PollInterval: 5 * time.Second,
		BatchSize:    20,
		SendTimeout:  15 * time.Second,
	}
}

// NotificationWorker drains the outbox. Each poll picks up pending rows and
// attempts delivery through the messenger; a failed send marks the row failed
// with the error recorded, it is not retried. Delivery happens outside any
// business transaction, so a messenger outage never rolls back the operation
// that enqueued the row.
type NotificationWorker struct {
	config NotificationWorkerConfig

	outbox    port.NotificationRepository
	messenger port.Messenger
	logger    *zap.Logger

	mu        sync.Mutex
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc
	sentCount int
	failCount int
}

// NewNotificationWorker creates a new notification delivery worker
func NewNotificationWorker(
	config NotificationWorkerConfig,
	outbox port.NotificationRepository,
	messenger port.Messenger,
	logger *zap.Logger,
) *NotificationWorker {
	return &NotificationWorker{
		config:    config,
		outbox:    outbox,
		messenger: messenger,
		logger:    logger,
	}
}

// Start begins the polling loop
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return fmt.Errorf("notification worker already running")
	}
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.isRunning = true
	w.mu.Unlock()

	w.logger.Info("notification worker started",
		zap.Duration("poll_interval", w.config.PollInterval),
		zap.Int("batch_size", w.config.BatchSize))

	go w.pollLoop()
	return nil
}

// Stop gracefully terminates the worker
func (w *NotificationWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
	}

	w.logger.Info("notification worker stopped",
		zap.Int("sent_count", w.sentCount),
		zap.Int("fail_count", w.failCount))
	return nil
}

// Name returns the worker name for identification
func (w *NotificationWorker) Name() string {
	return "NotificationWorker"
}

func (w *NotificationWorker) pollLoop() {
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			if err := w.DeliverPending(w.ctx); err != nil {
				w.logger.Error("failed to deliver pending notifications", zap.Error(err))
			}
		}
	}
}

// DeliverPending processes one batch of pending outbox rows. Exported so a
// caller can flush the outbox outside the polling schedule.
func (w *NotificationWorker) DeliverPending(ctx context.Context) error {
	pending, err := w.outbox.GetPending(ctx, w.config.BatchSize)
	if err != nil {
		return fmt.Errorf("get pending notifications: %w", err)
	}

	for _, n := range pending {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		w.deliver(ctx, n)
	}
	return nil
}

func (w *NotificationWorker) deliver(ctx context.Context, n *entity.Notification) {
	sendCtx, cancel := context.WithTimeout(ctx, w.config.SendTimeout)
	defer cancel()

	err := w.send(sendCtx, n)
	if err != nil {
		w.logger.Warn("notification delivery failed",
			zap.Int64("notification_id", n.ID),
			zap.Int64("recipient_id", n.RecipientID),
			zap.Error(err))
		if markErr := w.outbox.MarkFailed(ctx, n.ID, err.Error()); markErr != nil {
			w.logger.Error("failed to mark notification failed",
				zap.Int64("notification_id", n.ID),
				zap.Error(markErr))
		}
		w.mu.Lock()
		w.failCount++
		w.mu.Unlock()
		return
	}

	if markErr := w.outbox.MarkSent(ctx, n.ID); markErr != nil {
		w.logger.Error("failed to mark notification sent",
			zap.Int64("notification_id", n.ID),
			zap.Error(markErr))
		return
	}
	w.mu.Lock()
	w.sentCount++
	w.mu.Unlock()
}

func (w *NotificationWorker) send(ctx context.Context, n *entity.Notification) error {
	if n.Kind == entity.NotificationKindDispatchDecision && n.OrderID != nil {
		options := []port.Option{
			{Label: "Approve", Data: fmt.Sprintf("dispatch_approve_%d", *n.OrderID)},
			{Label: "Reject", Data: fmt.Sprintf("dispatch_reject_%d", *n.OrderID)},
		}
		return w.messenger.SendOptions(ctx, n.RecipientID, n.Text, options)
	}
	return w.messenger.SendText(ctx, n.RecipientID, n.Text)
}

// Verify interface compliance
var _ Worker = (*NotificationWorker)(nil)
