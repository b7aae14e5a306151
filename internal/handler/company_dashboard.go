package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/voltswap/battery-swap-api/internal/model"
	"github.com/voltswap/battery-swap-api/internal/repository"
)

// DashboardHandler aggregates the counters shown on a company's
// landing page: inventory size and appointments per status.
type DashboardHandler struct {
	Batteries    *repository.BatteryRepo
	Appointments *repository.AppointmentRepo
}

func NewDashboardHandler(b *repository.BatteryRepo, a *repository.AppointmentRepo) *DashboardHandler {
	return &DashboardHandler{Batteries: b, Appointments: a}
}

type dashboardResp struct {
	Batteries    int            `json:"batteries"`
	Appointments map[string]int `json:"appointments"`
}

// Get returns the company's current counters.
func (h *DashboardHandler) Get(c echo.Context) error {
	companyID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	resp := dashboardResp{Appointments: make(map[string]int, 4)}
	resp.Batteries, err = h.Batteries.CountByCompany(ctx, companyID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	for _, status := range []string{
		model.StatusPending, model.StatusInProgress, model.StatusCompleted, model.StatusCancelled,
	} {
		n, err := h.Appointments.CountByCompanyAndStatus(ctx, companyID, status)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		resp.Appointments[status] = n
	}
	return c.JSON(http.StatusOK, resp)
}
