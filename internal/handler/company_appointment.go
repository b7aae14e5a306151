package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/voltswap/battery-swap-api/internal/model"
	"github.com/voltswap/battery-swap-api/internal/queue"
	"github.com/voltswap/battery-swap-api/internal/repository"
	queue_publisher "github.com/voltswap/battery-swap-api/internal/service"
)

// CompanyApptHandler serves the fulfiller side of appointments:
// listing the company's queue, advancing statuses and force-cancels.
// Transitions that move stock run in a single transaction so the
// appointment status and the battery quantity commit together.
type CompanyApptHandler struct {
	Appointments *repository.AppointmentRepo
	Batteries    *repository.BatteryRepo
}

func NewCompanyApptHandler(a *repository.AppointmentRepo, b *repository.BatteryRepo) *CompanyApptHandler {
	return &CompanyApptHandler{Appointments: a, Batteries: b}
}

type updateStatusReq struct {
	Status string `json:"status"`
}

// List returns the company's appointments, optionally filtered by
// exact status via ?status=.
func (h *CompanyApptHandler) List(c echo.Context) error {
	companyID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	statusFilter := c.QueryParam("status")
	if statusFilter != "" && !model.ValidStatus(statusFilter) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status filter"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	appts, err := h.Appointments.ListByCompany(ctx, companyID, statusFilter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"appointments": appts})
}

// UpdateStatus advances an appointment along the allowed transitions
// (Pending→InProgress|Cancelled, InProgress→Completed|Cancelled). A
// move to Completed takes one unit of the matching battery's stock in
// the same transaction and refuses the transition when none is left.
func (h *CompanyApptHandler) UpdateStatus(c echo.Context) error {
	companyID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid appointment id"})
	}
	var req updateStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if !model.ValidStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": fieldErrors{"status": {"status must be one of Pending, InProgress, Completed, Cancelled"}}})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tx, err := h.Appointments.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	appt, err := h.Appointments.GetForCompanyTx(ctx, tx, id, companyID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "appointment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !model.CanTransition(appt.Status, req.Status) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error": "cannot transition from " + appt.Status + " to " + req.Status,
		})
	}

	if req.Status == model.StatusCompleted {
		// Completion hands a unit over: decrement the matching battery
		// atomically, refusing to go below zero.
		affected, err := h.Batteries.TakeOneTx(ctx, tx, companyID, appt.BatteryName)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "stock update failed"})
		}
		if affected == 0 {
			// Distinguish an out-of-stock battery from one renamed or
			// deleted since the appointment was made.
			exists, err := h.Batteries.ExistsByNameTx(ctx, tx, companyID, appt.BatteryName)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "stock check failed"})
			}
			if exists {
				return c.JSON(http.StatusConflict, echo.Map{"error": "insufficient stock for battery " + appt.BatteryName})
			}
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no battery named " + appt.BatteryName + " in inventory"})
		}
	}

	if err := h.Appointments.UpdateStatusTx(ctx, tx, id, req.Status); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "status update failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	detail, err := h.Appointments.GetDetailForViewer(ctx, id, companyID)
	if err != nil {
		// The update is already committed; report it without the joined names.
		return c.JSON(http.StatusOK, echo.Map{"id": id, "status": req.Status})
	}

	if req.Status == model.StatusCompleted {
		// Best effort: a broker outage must not fail the request.
		_ = queue_publisher.PublishSwapCompleted(ctx, queue.SwapCompletedEvent{
			AppointmentID: detail.ID,
			UserID:        detail.UserID,
			UserName:      detail.UserName,
			CompanyID:     detail.CompanyID,
			CompanyName:   detail.CompanyName,
			BatteryName:   detail.BatteryName,
			CompletedAt:   time.Now().UTC().Format(time.RFC3339),
		})
	}

	return c.JSON(http.StatusOK, detail)
}

// Cancel force-cancels an appointment regardless of its current
// status. Cancelling a Completed appointment puts the handed-over
// unit back on the shelf (capped at the quantity ceiling).
func (h *CompanyApptHandler) Cancel(c echo.Context) error {
	companyID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid appointment id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tx, err := h.Appointments.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	appt, err := h.Appointments.GetForCompanyTx(ctx, tx, id, companyID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "appointment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if appt.Status == model.StatusCancelled {
		return c.JSON(http.StatusConflict, echo.Map{"error": "appointment is already cancelled"})
	}

	if appt.Status == model.StatusCompleted {
		// The swap already happened: return the unit. A battery that
		// was renamed or deleted since is not an error.
		if err := h.Batteries.RestoreOneTx(ctx, tx, companyID, appt.BatteryName); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "stock restore failed"})
		}
	}

	if err := h.Appointments.UpdateStatusTx(ctx, tx, id, model.StatusCancelled); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "status update failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": model.StatusCancelled})
}
