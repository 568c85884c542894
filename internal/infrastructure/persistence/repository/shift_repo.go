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

// ShiftRepository implements port.ShiftRepository
type ShiftRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewShiftRepository creates a new shift repository
func NewShiftRepository(db *sql.DB, logger *zap.Logger) port.ShiftRepository {
	return &ShiftRepository{db: db, logger: logger}
}

const shiftColumns = `id, employee_id, shift_number, start_time, end_time, status,
	vehicle_id, operational_priority, start_odometer, start_fuel_level, end_odometer, end_fuel_level,
	sizod_number, sizod_condition_start, sizod_notes_start, sizod_condition_end, sizod_notes_end`

func (r *ShiftRepository) Create(ctx context.Context, shift *entity.ShiftLog) error {
	query := `INSERT INTO shift_logs (employee_id, shift_number, start_time, end_time, status,
		vehicle_id, operational_priority, start_odometer, start_fuel_level, end_odometer, end_fuel_level,
		sizod_number, sizod_condition_start, sizod_notes_start, sizod_condition_end, sizod_notes_end)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		shift.EmployeeID, shift.ShiftNumber, shift.StartTime, nullTime(shift.EndTime), shift.Status,
		nullInt64(shift.VehicleID), nullInt(shift.OperationalPriority),
		nullFloat(shift.StartOdometer), nullFloat(shift.StartFuelLevel),
		nullFloat(shift.EndOdometer), nullFloat(shift.EndFuelLevel),
		shift.SIZODNumber, shift.SIZODConditionStart, shift.SIZODNotesStart,
		shift.SIZODConditionEnd, shift.SIZODNotesEnd)
	if err != nil {
		r.logger.Error("failed to create shift log", zap.Int64("employee_id", shift.EmployeeID), zap.Error(err))
		return fmt.Errorf("create shift log: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("get shift log id: %w", err)
	}
	shift.ID = id
	return nil
}

func (r *ShiftRepository) GetByID(ctx context.Context, id int64) (*entity.ShiftLog, error) {
	query := `SELECT ` + shiftColumns + ` FROM shift_logs WHERE id = ?`
	return r.scanOne(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
}

func (r *ShiftRepository) GetActiveByEmployee(ctx context.Context, employeeID int64) (*entity.ShiftLog, error) {
	query := `SELECT ` + shiftColumns + ` FROM shift_logs WHERE employee_id = ? AND status = ?`
	return r.scanOne(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, employeeID, entity.ShiftActive))
}

func (r *ShiftRepository) Update(ctx context.Context, shift *entity.ShiftLog) error {
	query := `UPDATE shift_logs SET shift_number = ?, start_time = ?, end_time = ?, status = ?,
		vehicle_id = ?, operational_priority = ?, start_odometer = ?, start_fuel_level = ?,
		end_odometer = ?, end_fuel_level = ?,
		sizod_number = ?, sizod_condition_start = ?, sizod_notes_start = ?,
		sizod_condition_end = ?, sizod_notes_end = ?
		WHERE id = ?`

	if _, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		shift.ShiftNumber, shift.StartTime, nullTime(shift.EndTime), shift.Status,
		nullInt64(shift.VehicleID), nullInt(shift.OperationalPriority),
		nullFloat(shift.StartOdometer), nullFloat(shift.StartFuelLevel),
		nullFloat(shift.EndOdometer), nullFloat(shift.EndFuelLevel),
		shift.SIZODNumber, shift.SIZODConditionStart, shift.SIZODNotesStart,
		shift.SIZODConditionEnd, shift.SIZODNotesEnd,
		shift.ID); err != nil {
		r.logger.Error("failed to update shift log", zap.Int64("id", shift.ID), zap.Error(err))
		return fmt.Errorf("update shift log: %w", err)
	}
	return nil
}

func (r *ShiftRepository) scanOne(row *sql.Row) (*entity.ShiftLog, error) {
	var s entity.ShiftLog
	var endTime sql.NullTime
	var vehicleID, priority sql.NullInt64
	var startOdo, startFuel, endOdo, endFuel sql.NullFloat64

	err := row.Scan(&s.ID, &s.EmployeeID, &s.ShiftNumber, &s.StartTime, &endTime, &s.Status,
		&vehicleID, &priority, &startOdo, &startFuel, &endOdo, &endFuel,
		&s.SIZODNumber, &s.SIZODConditionStart, &s.SIZODNotesStart,
		&s.SIZODConditionEnd, &s.SIZODNotesEnd)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to scan shift log", zap.Error(err))
		return nil, fmt.Errorf("scan shift log: %w", err)
	}

	if endTime.Valid {
		s.EndTime = &endTime.Time
	}
	if vehicleID.Valid {
		s.VehicleID = &vehicleID.Int64
	}
	if priority.Valid {
		p := int(priority.Int64)
		s.OperationalPriority = &p
	}
	if startOdo.Valid {
		s.StartOdometer = &startOdo.Float64
	}
	if startFuel.Valid {
		s.StartFuelLevel = &startFuel.Float64
	}
	if endOdo.Valid {
		s.EndOdometer = &endOdo.Float64
	}
	if endFuel.Valid {
		s.EndFuelLevel = &endFuel.Float64
	}
	return &s, nil
}

// Verify interface compliance
var _ port.ShiftRepository = (*ShiftRepository)(nil)
