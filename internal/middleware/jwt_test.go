package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltswap/battery-swap-api/internal/utils"
)

const testSecret = "unit-test-secret"

func runJWT(t *testing.T, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	require.NoError(t, JWTAuth(testSecret)(next)(c))
	return rec, c
}

func TestJWTAuth(t *testing.T) {
	t.Run("valid token populates identity", func(t *testing.T) {
		at, err := utils.NewAccessToken(testSecret, "acc-123", "COMPANY", 5)
		require.NoError(t, err)

		rec, c := runJWT(t, "Bearer "+at.Token)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "acc-123", c.Get("account_id"))
		assert.Equal(t, "COMPANY", c.Get("role"))
	})

	t.Run("missing header", func(t *testing.T) {
		rec, _ := runJWT(t, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		at, err := utils.NewAccessToken("other-secret", "acc-123", "COMPANY", 5)
		require.NoError(t, err)

		rec, _ := runJWT(t, "Bearer "+at.Token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec, _ := runJWT(t, "Bearer not.a.jwt")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	run := func(role interface{}, allowed ...string) *httptest.ResponseRecorder {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != nil {
			c.Set("role", role)
		}
		require.NoError(t, RequireRole(allowed...)(next)(c))
		return rec
	}

	t.Run("allowed role passes", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, run("COMPANY", "COMPANY").Code)
	})
	t.Run("role not in set", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, run("INDIVIDUAL", "COMPANY").Code)
	})
	t.Run("missing role", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, run(nil, "COMPANY", "INDIVIDUAL").Code)
	})
	t.Run("non-string role claim", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, run(42, "COMPANY").Code)
	})
}
