package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/firestation/dutybot/internal/application/port"
	"github.com/firestation/dutybot/internal/domain/entity"
	"github.com/firestation/dutybot/internal/infrastructure/persistence/sqlite"
)

// VehicleRepository implements port.VehicleRepository
type VehicleRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewVehicleRepository creates a new vehicle repository
func NewVehicleRepository(db *sql.DB, logger *zap.Logger) port.VehicleRepository {
	return &VehicleRepository{db: db, logger: logger}
}

const vehicleColumns = `id, plate, model, fuel_rate, status, last_check`

func (r *VehicleRepository) GetByID(ctx context.Context, id int64) (*entity.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = ?`
	return r.scanOne(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
}

func (r *VehicleRepository) List(ctx context.Context) ([]*entity.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles ORDER BY plate`
	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to list vehicles", zap.Error(err))
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *VehicleRepository) ListByStatus(ctx context.Context, status string) ([]*entity.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE status = ? ORDER BY plate`
	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, status)
	if err != nil {
		r.logger.Error("failed to list vehicles by status", zap.String("status", status), zap.Error(err))
		return nil, fmt.Errorf("list vehicles by status: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *VehicleRepository) ListByIDs(ctx context.Context, ids []int64) ([]*entity.Vehicle, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id IN (` +
		placeholders[:len(placeholders)-1] + `) ORDER BY id`

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list vehicles by ids", zap.Error(err))
		return nil, fmt.Errorf("list vehicles by ids: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *VehicleRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE vehicles SET status = ? WHERE id = ?`
	if _, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, status, id); err != nil {
		r.logger.Error("failed to update vehicle status", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("update vehicle status: %w", err)
	}
	return nil
}

func (r *VehicleRepository) SetLastCheck(ctx context.Context, id int64, t time.Time) error {
	query := `UPDATE vehicles SET last_check = ? WHERE id = ?`
	if _, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, t, id); err != nil {
		r.logger.Error("failed to set vehicle last check", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("set vehicle last check: %w", err)
	}
	return nil
}

func (r *VehicleRepository) scanOne(row *sql.Row) (*entity.Vehicle, error) {
	var v entity.Vehicle
	var lastCheck sql.NullTime
	err := row.Scan(&v.ID, &v.Plate, &v.Model, &v.FuelRate, &v.Status, &lastCheck)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to scan vehicle", zap.Error(err))
		return nil, fmt.Errorf("scan vehicle: %w", err)
	}
	if lastCheck.Valid {
		v.LastCheck = &lastCheck.Time
	}
	return &v, nil
}

func (r *VehicleRepository) scanAll(rows *sql.Rows) ([]*entity.Vehicle, error) {
	var out []*entity.Vehicle
	for rows.Next() {
		var v entity.Vehicle
		var lastCheck sql.NullTime
		if err := rows.Scan(&v.ID, &v.Plate, &v.Model, &v.FuelRate, &v.Status, &lastCheck); err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		if lastCheck.Valid {
			v.LastCheck = &lastCheck.Time
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}

// Verify interface compliance
var _ port.VehicleRepository = (*VehicleRepository)(nil)
