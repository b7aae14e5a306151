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

// CustomerApptHandler serves the requester side of appointments:
// booking a swap with a company, listing own bookings, viewing one and
// cancelling.
type CustomerApptHandler struct {
	Appointments *repository.AppointmentRepo
	Accounts     *repository.AccountRepo
	Batteries    *repository.BatteryRepo
}

func NewCustomerApptHandler(ap *repository.AppointmentRepo, ac *repository.AccountRepo, b *repository.BatteryRepo) *CustomerApptHandler {
	return &CustomerApptHandler{Appointments: ap, Accounts: ac, Batteries: b}
}

type createApptReq struct {
	CompanyID   string `json:"company_id"`
	BatteryName string `json:"battery_name"`
	Notes       string `json:"notes"`
}

// Create books a Pending appointment with a company for a named
// battery. Stock is checked for availability but not reserved; the
// unit is only taken when the company completes the swap.
func (h *CustomerApptHandler) Create(c echo.Context) error {
	userID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createApptReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	errs := fieldErrors{}
	errs.requireMax("company_id", req.CompanyID, true, 36)
	errs.requireMax("battery_name", req.BatteryName, true, 100)
	errs.requireMax("notes", req.Notes, false, 500)
	if !errs.empty() {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	companyID := strings.TrimSpace(req.CompanyID)
	if _, err := h.Accounts.GetCompanyByID(ctx, companyID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "company not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	name := strings.TrimSpace(req.BatteryName)
	available, err := h.Batteries.HasAvailable(ctx, companyID, name)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !available {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"errors": fieldErrors{"battery_name": {"battery is unavailable at this company"}},
		})
	}

	appt := model.Appointment{
		UserID:      userID,
		CompanyID:   companyID,
		BatteryName: name,
		Notes:       optional(req.Notes),
		Status:      model.StatusPending,
	}
	if err := h.Appointments.Create(ctx, &appt); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create appointment failed"})
	}
	return c.JSON(http.StatusCreated, appt)
}

// ListMine returns all appointments the caller has requested, newest
// first.
func (h *CustomerApptHandler) ListMine(c echo.Context) error {
	userID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	appts, err := h.Appointments.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"appointments": appts})
}

// GetDetail returns one appointment, visible only to its two
// participants.
func (h *CustomerApptHandler) GetDetail(c echo.Context) error {
	viewerID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid appointment id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	detail, err := h.Appointments.GetDetailForViewer(ctx, id, viewerID)
	if err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "appointment not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not a participant of this appointment"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, detail)
}

// Cancel withdraws the caller's own appointment. Only Pending and
// InProgress bookings can be withdrawn; once the swap completed, only
// the company can undo it (and restore the stock).
func (h *CustomerApptHandler) Cancel(c echo.Context) error {
	userID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid appointment id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Appointments.CancelByUser(ctx, id, userID); err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "appointment not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "appointment can no longer be cancelled"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": model.StatusCancelled})
}
