package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/firestation/dutybot/internal/application/port"
	"github.com/firestation/dutybot/internal/domain/entity"
	"github.com/firestation/dutybot/internal/infrastructure/persistence/sqlite"
)

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification outbox repository
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{db: db, logger: logger}
}

func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	query := `INSERT INTO notifications (recipient_id, text, kind, order_id, status, attempts, sent_at, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		n.RecipientID, n.Text, n.Kind, nullInt64(n.OrderID),
		n.Status, n.Attempts, nullTime(n.SentAt), n.ErrorMessage, n.CreatedAt)
	if err != nil {
		r.logger.Error("failed to create notification", zap.Int64("recipient_id", n.RecipientID), zap.Error(err))
		return fmt.Errorf("create notification: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("get notification id: %w", err)
	}
	n.ID = id
	return nil
}

func (r *NotificationRepository) GetPending(ctx context.Context, limit int) ([]*entity.Notification, error) {
	query := `SELECT id, recipient_id, text, kind, order_id, status, attempts, sent_at, error_message, created_at
		FROM notifications WHERE status = ? ORDER BY created_at LIMIT ?`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, entity.NotificationPending, limit)
	if err != nil {
		r.logger.Error("failed to list pending notifications", zap.Error(err))
		return nil, fmt.Errorf("list pending notifications: %w", err)
	}
	defer rows.Close()

	var out []*entity.Notification
	for rows.Next() {
		var n entity.Notification
		var orderID sql.NullInt64
		var sentAt sql.NullTime
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Text, &n.Kind, &orderID, &n.Status, &n.Attempts, &sentAt, &n.ErrorMessage, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		if orderID.Valid {
			n.OrderID = &orderID.Int64
		}
		if sentAt.Valid {
			n.SentAt = &sentAt.Time
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (r *NotificationRepository) MarkSent(ctx context.Context, id int64) error {
	query := `UPDATE notifications SET status = ?, sent_at = ?, attempts = attempts + 1, error_message = '' WHERE id = ?`
	if _, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, entity.NotificationSent, time.Now(), id); err != nil {
		r.logger.Error("failed to mark notification sent", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("mark notification sent: %w", err)
	}
	return nil
}

func (r *NotificationRepository) MarkFailed(ctx context.Context, id int64, errorMsg string) error {
	query := `UPDATE notifications SET status = ?, attempts = attempts + 1, error_message = ? WHERE id = ?`
	if _, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, entity.NotificationFailed, errorMsg, id); err != nil {
		r.logger.Error("failed to mark notification failed", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("mark notification failed: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.NotificationRepository = (*NotificationRepository)(nil)
