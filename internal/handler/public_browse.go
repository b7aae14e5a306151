package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/voltswap/battery-swap-api/internal/repository"
)

// BrowseHandler serves the public, unauthenticated marketplace views:
// companies with their advertised batteries and single-battery detail.
type BrowseHandler struct {
	Batteries *repository.BatteryRepo
}

func NewBrowseHandler(b *repository.BatteryRepo) *BrowseHandler {
	return &BrowseHandler{Batteries: b}
}

// GetCompanies lists every company advertising at least one battery,
// optionally filtered with ?type= to companies stocking that battery
// type. The distinct type set rides along for filter UIs.
func (h *BrowseHandler) GetCompanies(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	listings, err := h.Batteries.CompaniesWithBatteries(ctx, c.QueryParam("type"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	types, err := h.Batteries.DistinctTypes(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"companies": listings, "types": types})
}

// GetCompany returns one company's public profile and battery list.
func (h *BrowseHandler) GetCompany(c echo.Context) error {
	companyID := c.Param("id")
	if companyID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid company id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	listing, err := h.Batteries.GetCompanyListing(ctx, companyID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "company not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, listing)
}

// GetBattery returns one battery with its owning company's public
// profile.
func (h *BrowseHandler) GetBattery(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid battery id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	battery, company, err := h.Batteries.GetDetail(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "battery not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"battery": battery, "company": company})
}
