package handler

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltswap/battery-swap-api/internal/model"
	"github.com/voltswap/battery-swap-api/internal/repository"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// newCompanyCtx builds an echo context carrying a COMPANY identity and
// the appointment id path param.
func newCompanyCtx(t *testing.T, method, body, apptID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(apptID)
	c.Set("account_id", "comp-1")
	c.Set("role", model.AccountCompany)
	return c, rec
}

func lockedApptRows(status string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "user_id", "company_id", "battery_name", "notes", "status", "created_at", "updated_at",
	}).AddRow(7, "user-1", "comp-1", "PowerCell 5000", nil, status, now, now)
}

const lockQueryRe = `FROM appointments WHERE id=\? AND company_id=\? FOR UPDATE`

func TestUpdateStatusRejectsInvalidTransition(t *testing.T) {
	db, mock := newMockDB(t)
	h := NewCompanyApptHandler(repository.NewAppointmentRepo(db), repository.NewBatteryRepo(db))

	mock.ExpectBegin()
	mock.ExpectQuery(lockQueryRe).
		WithArgs(uint64(7), "comp-1").
		WillReturnRows(lockedApptRows(model.StatusCompleted))
	mock.ExpectRollback()

	c, rec := newCompanyCtx(t, http.MethodPatch, `{"status":"InProgress"}`, "7")
	require.NoError(t, h.UpdateStatus(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "cannot transition")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusCompletionRefusedWithoutStock(t *testing.T) {
	db, mock := newMockDB(t)
	h := NewCompanyApptHandler(repository.NewAppointmentRepo(db), repository.NewBatteryRepo(db))

	mock.ExpectBegin()
	mock.ExpectQuery(lockQueryRe).
		WithArgs(uint64(7), "comp-1").
		WillReturnRows(lockedApptRows(model.StatusInProgress))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE batteries SET quantity = quantity - 1`)).
		WithArgs("comp-1", "PowerCell 5000").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("comp-1", "PowerCell 5000").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	c, rec := newCompanyCtx(t, http.MethodPatch, `{"status":"Completed"}`, "7")
	require.NoError(t, h.UpdateStatus(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient stock")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusAcceptsWork(t *testing.T) {
	db, mock := newMockDB(t)
	h := NewCompanyApptHandler(repository.NewAppointmentRepo(db), repository.NewBatteryRepo(db))

	mock.ExpectBegin()
	mock.ExpectQuery(lockQueryRe).
		WithArgs(uint64(7), "comp-1").
		WillReturnRows(lockedApptRows(model.StatusPending))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE appointments SET status=?, updated_at=NOW()`)).
		WithArgs(model.StatusInProgress, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`FROM appointments ap`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "user_name", "company_id", "company_name",
			"battery_name", "notes", "status", "created_at", "updated_at",
		}).AddRow(7, "user-1", "Ada", "comp-1", "VoltCo",
			"PowerCell 5000", nil, model.StatusInProgress,
			"2026-08-30T10:00:00Z", "2026-08-30T10:05:00Z"))

	c, rec := newCompanyCtx(t, http.MethodPatch, `{"status":"InProgress"}`, "7")
	require.NoError(t, h.UpdateStatus(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"InProgress"`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusUnknownStatus(t *testing.T) {
	db, _ := newMockDB(t)
	h := NewCompanyApptHandler(repository.NewAppointmentRepo(db), repository.NewBatteryRepo(db))

	c, rec := newCompanyCtx(t, http.MethodPatch, `{"status":"Done"}`, "7")
	require.NoError(t, h.UpdateStatus(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestForcedCancelOfCompletedRestoresStock(t *testing.T) {
	db, mock := newMockDB(t)
	h := NewCompanyApptHandler(repository.NewAppointmentRepo(db), repository.NewBatteryRepo(db))

	mock.ExpectBegin()
	mock.ExpectQuery(lockQueryRe).
		WithArgs(uint64(7), "comp-1").
		WillReturnRows(lockedApptRows(model.StatusCompleted))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE batteries SET quantity = quantity + 1`)).
		WithArgs("comp-1", "PowerCell 5000", 10000).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE appointments SET status=?, updated_at=NOW()`)).
		WithArgs(model.StatusCancelled, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := newCompanyCtx(t, http.MethodPost, ``, "7")
	require.NoError(t, h.Cancel(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"Cancelled"`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestForcedCancelAlreadyCancelled(t *testing.T) {
	db, mock := newMockDB(t)
	h := NewCompanyApptHandler(repository.NewAppointmentRepo(db), repository.NewBatteryRepo(db))

	mock.ExpectBegin()
	mock.ExpectQuery(lockQueryRe).
		WithArgs(uint64(7), "comp-1").
		WillReturnRows(lockedApptRows(model.StatusCancelled))
	mock.ExpectRollback()

	c, rec := newCompanyCtx(t, http.MethodPost, ``, "7")
	require.NoError(t, h.Cancel(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
