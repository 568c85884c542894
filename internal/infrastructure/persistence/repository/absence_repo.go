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

// AbsenceRepository implements port.AbsenceRepository
type AbsenceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAbsenceRepository creates a new absence log repository
func NewAbsenceRepository(db *sql.DB, logger *zap.Logger) port.AbsenceRepository {
	return &AbsenceRepository{db: db, logger: logger}
}

func (r *AbsenceRepository) Create(ctx context.Context, absence *entity.AbsenceLog) error {
	query := `INSERT INTO absence_logs (reporter_id, shift_number, absent_full_name, absent_position, absent_rank, reason, reported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	res, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		absence.ReporterID, nullInt(absence.ShiftNumber),
		absence.AbsentFullName, absence.AbsentPosition, absence.AbsentRank,
		absence.Reason, absence.ReportedAt)
	if err != nil {
		r.logger.Error("failed to create absence log", zap.Int64("reporter_id", absence.ReporterID), zap.Error(err))
		return fmt.Errorf("create absence log: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("get absence log id: %w", err)
	}
	absence.ID = id
	return nil
}

func (r *AbsenceRepository) ListByPeriod(ctx context.Context, from, to time.Time) ([]*entity.AbsenceLog, error) {
	query := `SELECT id, reporter_id, shift_number, absent_full_name, absent_position, absent_rank, reason, reported_at
		FROM absence_logs WHERE reported_at >= ? AND reported_at < ? ORDER BY reported_at`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, from, to)
	if err != nil {
		r.logger.Error("failed to list absence logs by period", zap.Error(err))
		return nil, fmt.Errorf("list absence logs by period: %w", err)
	}
	defer rows.Close()

	var out []*entity.AbsenceLog
	for rows.Next() {
		var a entity.AbsenceLog
		var shiftNumber sql.NullInt64
		if err := rows.Scan(&a.ID, &a.ReporterID, &shiftNumber, &a.AbsentFullName, &a.AbsentPosition, &a.AbsentRank, &a.Reason, &a.ReportedAt); err != nil {
			return nil, fmt.Errorf("scan absence log: %w", err)
		}
		if shiftNumber.Valid {
			n := int(shiftNumber.Int64)
			a.ShiftNumber = &n
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// Verify interface compliance
var _ port.AbsenceRepository = (*AbsenceRepository)(nil)
