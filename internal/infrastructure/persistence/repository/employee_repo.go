// Package repository implements the persistence ports over sqlite.
// Repositories resolve their executor from the context, so queries made
// inside a transaction join it automatically.
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

// EmployeeRepository implements port.EmployeeRepository
type EmployeeRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *sql.DB, logger *zap.Logger) port.EmployeeRepository {
	return &EmployeeRepository{db: db, logger: logger}
}

const employeeColumns = `id, chat_id, full_name, position, rank, contacts, is_ready, created_at`

func (r *EmployeeRepository) GetByID(ctx context.Context, id int64) (*entity.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = ?`
	return r.scanOne(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
}

func (r *EmployeeRepository) GetByChatID(ctx context.Context, chatID int64) (*entity.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE chat_id = ?`
	return r.scanOne(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, chatID))
}

func (r *EmployeeRepository) List(ctx context.Context) ([]*entity.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees ORDER BY id`
	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to list employees", zap.Error(err))
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *EmployeeRepository) ListDispatchable(ctx context.Context) ([]*entity.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees
		WHERE is_ready = 1 AND position IN (?, ?) ORDER BY full_name`
	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query,
		entity.PositionFirefighter, entity.PositionDriver)
	if err != nil {
		r.logger.Error("failed to list dispatchable employees", zap.Error(err))
		return nil, fmt.Errorf("list dispatchable employees: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *EmployeeRepository) ListByIDs(ctx context.Context, ids []int64) ([]*entity.Employee, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id IN (` +
		placeholders[:len(placeholders)-1] + `) ORDER BY id`

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list employees by ids", zap.Error(err))
		return nil, fmt.Errorf("list employees by ids: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *EmployeeRepository) SetReadiness(ctx context.Context, id int64, ready bool) error {
	query := `UPDATE employees SET is_ready = ? WHERE id = ?`
	if _, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, ready, id); err != nil {
		r.logger.Error("failed to set readiness", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("set readiness: %w", err)
	}
	return nil
}

func (r *EmployeeRepository) scanOne(row *sql.Row) (*entity.Employee, error) {
	var e entity.Employee
	err := row.Scan(&e.ID, &e.ChatID, &e.FullName, &e.Position, &e.Rank, &e.Contacts, &e.IsReady, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to scan employee", zap.Error(err))
		return nil, fmt.Errorf("scan employee: %w", err)
	}
	return &e, nil
}

func (r *EmployeeRepository) scanAll(rows *sql.Rows) ([]*entity.Employee, error) {
	var out []*entity.Employee
	for rows.Next() {
		var e entity.Employee
		if err := rows.Scan(&e.ID, &e.ChatID, &e.FullName, &e.Position, &e.Rank, &e.Contacts, &e.IsReady, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// Verify interface compliance
var _ port.EmployeeRepository = (*EmployeeRepository)(nil)
