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

// DispatchRepository implements port.DispatchRepository
type DispatchRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDispatchRepository creates a new dispatch order repository
func NewDispatchRepository(db *sql.DB, logger *zap.Logger) port.DispatchRepository {
	return &DispatchRepository{db: db, logger: logger}
}

const dispatchColumns = `id, dispatcher_id, address, reason, creation_time, status,
	commander_id, approval_time, assigned_personnel, assigned_vehicles,
	victims_count, fatalities_count, casualties_details, notes, last_edited_by, last_edited_at`

func (r *DispatchRepository) Create(ctx context.Context, order *entity.DispatchOrder) error {
	query := `INSERT INTO dispatch_orders (dispatcher_id, address, reason, creation_time, status,
		commander_id, approval_time, assigned_personnel, assigned_vehicles,
		victims_count, fatalities_count, casualties_details, notes, last_edited_by, last_edited_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		order.DispatcherID, order.Address, order.Reason, order.CreationTime, order.Status,
		nullInt64(order.CommanderID), nullTime(order.ApprovalTime),
		order.AssignedPersonnel, order.AssignedVehicles,
		order.VictimsCount, order.FatalitiesCount, order.CasualtiesDetails, order.Notes,
		nullInt64(order.LastEditedBy), nullTime(order.LastEditedAt))
	if err != nil {
		r.logger.Error("failed to create dispatch order", zap.Int64("dispatcher_id", order.DispatcherID), zap.Error(err))
		return fmt.Errorf("create dispatch order: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("get dispatch order id: %w", err)
	}
	order.ID = id
	return nil
}

func (r *DispatchRepository) GetByID(ctx context.Context, id int64) (*entity.DispatchOrder, error) {
	query := `SELECT ` + dispatchColumns + ` FROM dispatch_orders WHERE id = ?`
	return r.scanOne(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
}

func (r *DispatchRepository) Update(ctx context.Context, order *entity.DispatchOrder) error {
	query := `UPDATE dispatch_orders SET address = ?, reason = ?, status = ?,
		commander_id = ?, approval_time = ?, assigned_personnel = ?, assigned_vehicles = ?,
		victims_count = ?, fatalities_count = ?, casualties_details = ?, notes = ?,
		last_edited_by = ?, last_edited_at = ?
		WHERE id = ?`

	if _, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		order.Address, order.Reason, order.Status,
		nullInt64(order.CommanderID), nullTime(order.ApprovalTime),
		order.AssignedPersonnel, order.AssignedVehicles,
		order.VictimsCount, order.FatalitiesCount, order.CasualtiesDetails, order.Notes,
		nullInt64(order.LastEditedBy), nullTime(order.LastEditedAt),
		order.ID); err != nil {
		r.logger.Error("failed to update dispatch order", zap.Int64("id", order.ID), zap.Error(err))
		return fmt.Errorf("update dispatch order: %w", err)
	}
	return nil
}

func (r *DispatchRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE dispatch_orders SET status = ? WHERE id = ?`
	if _, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, status, id); err != nil {
		r.logger.Error("failed to update dispatch order status", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("update dispatch order status: %w", err)
	}
	return nil
}

func (r *DispatchRepository) ListEditable(ctx context.Context, limit int) ([]*entity.DispatchOrder, error) {
	query := `SELECT ` + dispatchColumns + ` FROM dispatch_orders
		WHERE status IN (?, ?, ?, ?) ORDER BY creation_time DESC LIMIT ?`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query,
		entity.DispatchPendingApproval, entity.DispatchApproved,
		entity.DispatchDispatched, entity.DispatchInProgress, limit)
	if err != nil {
		r.logger.Error("failed to list editable dispatch orders", zap.Error(err))
		return nil, fmt.Errorf("list editable dispatch orders: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *DispatchRepository) ListByPeriod(ctx context.Context, from, to time.Time) ([]*entity.DispatchOrder, error) {
	query := `SELECT ` + dispatchColumns + ` FROM dispatch_orders
		WHERE creation_time >= ? AND creation_time < ? ORDER BY creation_time`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, from, to)
	if err != nil {
		r.logger.Error("failed to list dispatch orders by period", zap.Error(err))
		return nil, fmt.Errorf("list dispatch orders by period: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *DispatchRepository) scanOne(row *sql.Row) (*entity.DispatchOrder, error) {
	d, err := scanDispatch(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to scan dispatch order", zap.Error(err))
		return nil, fmt.Errorf("scan dispatch order: %w", err)
	}
	return d, nil
}

func (r *DispatchRepository) scanAll(rows *sql.Rows) ([]*entity.DispatchOrder, error) {
	var out []*entity.DispatchOrder
	for rows.Next() {
		d, err := scanDispatch(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan dispatch order: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanDispatch(scan func(dest ...interface{}) error) (*entity.DispatchOrder, error) {
	var d entity.DispatchOrder
	var commanderID, editedBy sql.NullInt64
	var approvalTime, editedAt sql.NullTime

	err := scan(&d.ID, &d.DispatcherID, &d.Address, &d.Reason, &d.CreationTime, &d.Status,
		&commanderID, &approvalTime, &d.AssignedPersonnel, &d.AssignedVehicles,
		&d.VictimsCount, &d.FatalitiesCount, &d.CasualtiesDetails, &d.Notes,
		&editedBy, &editedAt)
	if err != nil {
		return nil, err
	}

	if commanderID.Valid {
		d.CommanderID = &commanderID.Int64
	}
	if approvalTime.Valid {
		d.ApprovalTime = &approvalTime.Time
	}
	if editedBy.Valid {
		d.LastEditedBy = &editedBy.Int64
	}
	if editedAt.Valid {
		d.LastEditedAt = &editedAt.Time
	}
	return &d, nil
}

// Verify interface compliance
var _ port.DispatchRepository = (*DispatchRepository)(nil)
