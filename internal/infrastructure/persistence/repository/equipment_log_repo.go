package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/firestation/dutybot/internal/application/port"
	"github.com/firestation/dutybot/internal/domain/entity"
	"github.com/firestation/dutybot/internal/infrastructure/persistence/sqlite"
)

// EquipmentLogRepository implements port.EquipmentLogRepository
type EquipmentLogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEquipmentLogRepository creates a new equipment log repository
func NewEquipmentLogRepository(db *sql.DB, logger *zap.Logger) port.EquipmentLogRepository {
	return &EquipmentLogRepository{db: db, logger: logger}
}

func (r *EquipmentLogRepository) Create(ctx context.Context, log *entity.EquipmentLog) error {
	query := `INSERT INTO equipment_logs (employee_id, equipment_id, action, notes, shift_log_id, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`

	res, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		log.EmployeeID, log.EquipmentID, log.Action, log.Notes,
		nullInt64(log.ShiftLogID), log.Timestamp)
	if err != nil {
		r.logger.Error("failed to create equipment log", zap.Int64("equipment_id", log.EquipmentID), zap.Error(err))
		return fmt.Errorf("create equipment log: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("get equipment log id: %w", err)
	}
	log.ID = id
	return nil
}

func (r *EquipmentLogRepository) GetByEquipmentID(ctx context.Context, equipmentID int64, limit int) ([]*entity.EquipmentLog, error) {
	query := `SELECT id, employee_id, equipment_id, action, notes, shift_log_id, timestamp
		FROM equipment_logs WHERE equipment_id = ? ORDER BY timestamp DESC LIMIT ?`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, equipmentID, limit)
	if err != nil {
		r.logger.Error("failed to list equipment logs", zap.Int64("equipment_id", equipmentID), zap.Error(err))
		return nil, fmt.Errorf("list equipment logs: %w", err)
	}
	defer rows.Close()

	var out []*entity.EquipmentLog
	for rows.Next() {
		var l entity.EquipmentLog
		var shiftID sql.NullInt64
		if err := rows.Scan(&l.ID, &l.EmployeeID, &l.EquipmentID, &l.Action, &l.Notes, &shiftID, &l.Timestamp); err != nil {
			return nil, fmt.Errorf("scan equipment log: %w", err)
		}
		if shiftID.Valid {
			l.ShiftLogID = &shiftID.Int64
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

// Verify interface compliance
var _ port.EquipmentLogRepository = (*EquipmentLogRepository)(nil)
