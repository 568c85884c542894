package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/firestation/dutybot/internal/application/port"
	"github.com/firestation/dutybot/internal/domain/entity"
	"github.com/firestation/dutybot/internal/infrastructure/persistence/sqlite"
)

// EquipmentRepository implements port.EquipmentRepository
type EquipmentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEquipmentRepository creates a new equipment repository
func NewEquipmentRepository(db *sql.DB, logger *zap.Logger) port.EquipmentRepository {
	return &EquipmentRepository{db: db, logger: logger}
}

const equipmentColumns = `id, name, type, inventory_number, status, current_holder_id`

func (r *EquipmentRepository) GetByID(ctx context.Context, id int64) (*entity.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE id = ?`
	return r.scanOne(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
}

func (r *EquipmentRepository) GetByInventoryNumber(ctx context.Context, equipmentType, number string) (*entity.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE type = ? AND inventory_number = ?`
	return r.scanOne(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, equipmentType, number))
}

func (r *EquipmentRepository) ListByStatus(ctx context.Context, statuses ...string) ([]*entity.Equipment, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(statuses))
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE status IN (` +
		placeholders[:len(placeholders)-1] + `) ORDER BY name`

	args := make([]interface{}, len(statuses))
	for i, s := range statuses {
		args[i] = s
	}

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list equipment by status", zap.Error(err))
		return nil, fmt.Errorf("list equipment by status: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *EquipmentRepository) ListServiceable(ctx context.Context) ([]*entity.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE status != ? ORDER BY name`
	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, entity.EquipmentDecommissioned)
	if err != nil {
		r.logger.Error("failed to list serviceable equipment", zap.Error(err))
		return nil, fmt.Errorf("list serviceable equipment: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *EquipmentRepository) SetStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE equipment SET status = ? WHERE id = ?`
	if _, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, status, id); err != nil {
		r.logger.Error("failed to set equipment status", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("set equipment status: %w", err)
	}
	return nil
}

func (r *EquipmentRepository) SetHolder(ctx context.Context, id int64, holderID *int64) error {
	query := `UPDATE equipment SET current_holder_id = ? WHERE id = ?`
	var holder sql.NullInt64
	if holderID != nil {
		holder = sql.NullInt64{Int64: *holderID, Valid: true}
	}
	if _, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, holder, id); err != nil {
		r.logger.Error("failed to set equipment holder", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("set equipment holder: %w", err)
	}
	return nil
}

func (r *EquipmentRepository) Update(ctx context.Context, eq *entity.Equipment) error {
	query := `UPDATE equipment SET name = ?, type = ?, inventory_number = ?, status = ?, current_holder_id = ? WHERE id = ?`
	var holder sql.NullInt64
	if eq.CurrentHolderID != nil {
		holder = sql.NullInt64{Int64: *eq.CurrentHolderID, Valid: true}
	}
	if _, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		eq.Name, eq.Type, eq.InventoryNumber, eq.Status, holder, eq.ID); err != nil {
		r.logger.Error("failed to update equipment", zap.Int64("id", eq.ID), zap.Error(err))
		return fmt.Errorf("update equipment: %w", err)
	}
	return nil
}

func (r *EquipmentRepository) scanOne(row *sql.Row) (*entity.Equipment, error) {
	var e entity.Equipment
	var holder sql.NullInt64
	err := row.Scan(&e.ID, &e.Name, &e.Type, &e.InventoryNumber, &e.Status, &holder)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to scan equipment", zap.Error(err))
		return nil, fmt.Errorf("scan equipment: %w", err)
	}
	if holder.Valid {
		e.CurrentHolderID = &holder.Int64
	}
	return &e, nil
}

func (r *EquipmentRepository) scanAll(rows *sql.Rows) ([]*entity.Equipment, error) {
	var out []*entity.Equipment
	for rows.Next() {
		var e entity.Equipment
		var holder sql.NullInt64
		if err := rows.Scan(&e.ID, &e.Name, &e.Type, &e.InventoryNumber, &e.Status, &holder); err != nil {
			return nil, fmt.Errorf("scan equipment: %w", err)
		}
		if holder.Valid {
			e.CurrentHolderID = &holder.Int64
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// Verify interface compliance
var _ port.EquipmentRepository = (*EquipmentRepository)(nil)
