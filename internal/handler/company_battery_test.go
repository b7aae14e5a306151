package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltswap/battery-swap-api/internal/repository"
)

func intPtr(n int) *int { return &n }

func TestBatteryReqValidate(t *testing.T) {
	valid := func() batteryReq {
		return batteryReq{Name: "PowerCell 5000", Type: "Li-Ion", Quantity: intPtr(5)}
	}

	t.Run("accepts a valid listing", func(t *testing.T) {
		req := valid()
		assert.Empty(t, req.validate())
	})

	t.Run("zero quantity is a valid listing", func(t *testing.T) {
		req := valid()
		req.Quantity = intPtr(0)
		assert.Empty(t, req.validate())
	})

	t.Run("quantity at the ceiling", func(t *testing.T) {
		req := valid()
		req.Quantity = intPtr(10000)
		assert.Empty(t, req.validate())
	})

	t.Run("quantity above the ceiling", func(t *testing.T) {
		req := valid()
		req.Quantity = intPtr(10001)
		assert.Contains(t, req.validate(), "quantity")
	})

	t.Run("negative quantity", func(t *testing.T) {
		req := valid()
		req.Quantity = intPtr(-1)
		assert.Contains(t, req.validate(), "quantity")
	})

	t.Run("quantity is required", func(t *testing.T) {
		req := valid()
		req.Quantity = nil
		assert.Contains(t, req.validate(), "quantity")
	})

	t.Run("name and type are required", func(t *testing.T) {
		errs := (&batteryReq{Quantity: intPtr(1)}).validate()
		assert.Contains(t, errs, "name")
		assert.Contains(t, errs, "type")
	})

	t.Run("overlong name", func(t *testing.T) {
		req := valid()
		req.Name = strings.Repeat("x", 101)
		assert.Contains(t, req.validate(), "name")
	})

	t.Run("overlong description", func(t *testing.T) {
		req := valid()
		req.Description = strings.Repeat("x", 501)
		assert.Contains(t, req.validate(), "description")
	})
}

func TestBatteryCreateRejectsInvalidBody(t *testing.T) {
	db, _ := newMockDB(t)
	h := NewBatteryHandler(repository.NewBatteryRepo(db))

	// Quantity above the ceiling never reaches the database.
	c, rec := newCompanyCtx(t, http.MethodPost,
		`{"name":"PowerCell 5000","type":"Li-Ion","quantity":20000}`, "")
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "quantity")
}
