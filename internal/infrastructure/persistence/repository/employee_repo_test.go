package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/firestation/dutybot/internal/domain/entity"
)

func TestEmployeeRepository_GetByChatID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewEmployeeRepository(db, zap.NewNop())

	created := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "chat_id", "full_name", "position", "rank", "contacts", "is_ready", "created_at"}).
		AddRow(3, 555, "Fiona Hale", entity.PositionFirefighter, "sergeant", "", true, created)
	mock.ExpectQuery("SELECT (.+) FROM employees WHERE chat_id").
		WithArgs(int64(555)).
		WillReturnRows(rows)

	emp, err := repo.GetByChatID(context.Background(), 555)
	require.NoError(t, err)
	require.NotNil(t, emp)
	assert.Equal(t, int64(3), emp.ID)
	assert.Equal(t, "Fiona Hale", emp.FullName)
	assert.True(t, emp.IsReady)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepository_GetByChatID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewEmployeeRepository(db, zap.NewNop())

	mock.ExpectQuery("SELECT (.+) FROM employees WHERE chat_id").
		WithArgs(int64(999)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "chat_id", "full_name", "position", "rank", "contacts", "is_ready", "created_at"}))

	emp, err := repo.GetByChatID(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, emp)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepository_SetReadiness(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewEmployeeRepository(db, zap.NewNop())

	mock.ExpectExec("UPDATE employees SET is_ready").
		WithArgs(false, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetReadiness(context.Background(), 3, false))
	assert.NoError(t, mock.ExpectationsWereMet())
}
