package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/voltswap/battery-swap-api/internal/model"
	"github.com/voltswap/battery-swap-api/internal/repository"
)

// BatteryHandler serves the company-side inventory endpoints. Every
// operation is scoped to the authenticated company, so one company can
// never touch another's batteries.
type BatteryHandler struct {
	Batteries *repository.BatteryRepo
}

func NewBatteryHandler(b *repository.BatteryRepo) *BatteryHandler {
	return &BatteryHandler{Batteries: b}
}

type batteryReq struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Quantity    *int   `json:"quantity"`
}

// validate applies the inventory constraints: required name and type,
// bounded lengths, quantity in [0, 10000].
func (req *batteryReq) validate() fieldErrors {
	errs := fieldErrors{}
	errs.requireMax("name", req.Name, true, 100)
	errs.requireMax("type", req.Type, true, 50)
	errs.requireMax("description", req.Description, false, 500)
	if req.Quantity == nil {
		errs.add("quantity", "quantity is required")
	} else if *req.Quantity < 0 || *req.Quantity > model.BatteryQuantityMax {
		errs.add("quantity", "quantity must be between 0 and "+itoa(model.BatteryQuantityMax))
	}
	return errs
}

// Create registers a new battery listing for the company.
func (h *BatteryHandler) Create(c echo.Context) error {
	companyID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req batteryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if errs := req.validate(); !errs.empty() {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b := model.Battery{
		CompanyID:   companyID,
		Name:        strings.TrimSpace(req.Name),
		Type:        strings.TrimSpace(req.Type),
		Description: optional(req.Description),
		Quantity:    uint32(*req.Quantity),
	}
	if err := h.Batteries.Create(ctx, &b); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create battery failed"})
	}
	return c.JSON(http.StatusCreated, b)
}

// List returns all of the company's own batteries, newest first.
func (h *BatteryHandler) List(c echo.Context) error {
	companyID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	batteries, err := h.Batteries.ListByCompany(ctx, companyID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"batteries": batteries})
}

// Update rewrites an owned battery's listing fields.
func (h *BatteryHandler) Update(c echo.Context) error {
	companyID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid battery id"})
	}
	var req batteryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if errs := req.validate(); !errs.empty() {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err = h.Batteries.Update(ctx, companyID, id,
		strings.TrimSpace(req.Name), strings.TrimSpace(req.Type),
		optional(req.Description), uint32(*req.Quantity))
	if err != nil {
		// A foreign company's battery is indistinguishable from a
		// missing one on purpose.
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "battery not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update battery failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "battery updated"})
}

// Delete removes an owned battery. Appointments referencing its name
// are untouched; they simply stop matching stock at completion time.
func (h *BatteryHandler) Delete(c echo.Context) error {
	companyID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid battery id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Batteries.Delete(ctx, companyID, id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "battery not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete battery failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
