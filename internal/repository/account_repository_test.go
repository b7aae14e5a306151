package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyDuplicate(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{
			"username collision",
			errors.New("Error 1062 (23000): Duplicate entry 'ada' for key 'accounts.uq_accounts_username'"),
			ErrUsernameExists,
		},
		{
			"email collision",
			errors.New("Error 1062 (23000): Duplicate entry 'a@b.c' for key 'accounts.uq_accounts_email'"),
			ErrEmailExists,
		},
		{
			"cnpj collision",
			errors.New("Error 1062 (23000): Duplicate entry '12.345' for key 'accounts.uq_accounts_cnpj'"),
			ErrCnpjExists,
		},
		{
			"duplicate on unknown key",
			errors.New("Error 1062 (23000): Duplicate entry 'x' for key 'accounts.mystery'"),
			ErrConflict,
		},
		{"unrelated error", errors.New("Error 1146: Table 'x' doesn't exist"), nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyDuplicate(tc.err)
			if tc.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tc.want)
		})
	}
}

func TestAccountDelete(t *testing.T) {
	t.Run("restricted while appointments reference it", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewAccountRepo(db)

		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("acc-1", "acc-1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		assert.ErrorIs(t, repo.Delete(context.Background(), "acc-1"), ErrConflict)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deletes an unreferenced account", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewAccountRepo(db)

		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("acc-1", "acc-1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM accounts WHERE id=?`)).
			WithArgs("acc-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Delete(context.Background(), "acc-1"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing account", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewAccountRepo(db)

		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("ghost", "ghost").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM accounts WHERE id=?`)).
			WithArgs("ghost").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(context.Background(), "ghost"), sql.ErrNoRows)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
