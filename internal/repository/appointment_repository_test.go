package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltswap/battery-swap-api/internal/model"
)

func TestCancelByUser(t *testing.T) {
	cancelRe := regexp.QuoteMeta(`UPDATE appointments SET status=?, updated_at=NOW()`)

	t.Run("cancels a pending appointment", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewAppointmentRepo(db)

		mock.ExpectExec(cancelRe).
			WithArgs(model.StatusCancelled, uint64(7), "user-1", model.StatusPending, model.StatusInProgress).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.CancelByUser(context.Background(), 7, "user-1"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("conflict when the appointment already completed", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewAppointmentRepo(db)

		mock.ExpectExec(cancelRe).
			WithArgs(model.StatusCancelled, uint64(7), "user-1", model.StatusPending, model.StatusInProgress).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(uint64(7), "user-1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		assert.ErrorIs(t, repo.CancelByUser(context.Background(), 7, "user-1"), ErrConflict)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found for a foreign appointment", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewAppointmentRepo(db)

		mock.ExpectExec(cancelRe).
			WithArgs(model.StatusCancelled, uint64(7), "user-2", model.StatusPending, model.StatusInProgress).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(uint64(7), "user-2").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		assert.ErrorIs(t, repo.CancelByUser(context.Background(), 7, "user-2"), sql.ErrNoRows)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetForCompanyTxNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAppointmentRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM appointments WHERE id=? AND company_id=? FOR UPDATE`)).
		WithArgs(uint64(9), "comp-2").
		WillReturnError(sql.ErrNoRows)

	tx, err := db.Begin()
	require.NoError(t, err)
	_, err = repo.GetForCompanyTx(context.Background(), tx, 9, "comp-2")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDetailForViewer(t *testing.T) {
	detailRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{
			"id", "user_id", "user_name", "company_id", "company_name",
			"battery_name", "notes", "status", "created_at", "updated_at",
		}).AddRow(3, "user-1", "Ada", "comp-1", "VoltCo",
			"PowerCell 5000", nil, model.StatusPending,
			"2026-08-30T10:00:00Z", "2026-08-30T10:00:00Z")
	}

	t.Run("participant sees the appointment", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewAppointmentRepo(db)

		mock.ExpectQuery(`FROM appointments ap`).WithArgs(uint64(3)).WillReturnRows(detailRows())

		d, err := repo.GetDetailForViewer(context.Background(), 3, "comp-1")
		require.NoError(t, err)
		assert.Equal(t, "Ada", d.UserName)
		assert.Equal(t, "VoltCo", d.CompanyName)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("outsider is forbidden", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewAppointmentRepo(db)

		mock.ExpectQuery(`FROM appointments ap`).WithArgs(uint64(3)).WillReturnRows(detailRows())

		_, err := repo.GetDetailForViewer(context.Background(), 3, "someone-else")
		assert.ErrorIs(t, err, ErrForbidden)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCountByCompanyAndStatus(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAppointmentRepo(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM appointments`).
		WithArgs("comp-1", model.StatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	n, err := repo.CountByCompanyAndStatus(context.Background(), "comp-1", model.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	require.NoError(t, mock.ExpectationsWereMet())
}
