package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/voltswap/battery-swap-api/internal/handler"    // company handlers
	"github.com/voltswap/battery-swap-api/internal/middleware" // JWT + role middlewares
)

// RegisterCompany registers COMPANY-scoped endpoints under /v1/company.
// All routes require a valid JWT and the COMPANY role.
func RegisterCompany(e *echo.Echo, b *handler.BatteryHandler, a *handler.CompanyApptHandler, d *handler.DashboardHandler, jwtSecret string) {
	// Attach middlewares at group construction time for clarity.
	g := e.Group(
		"/v1/company",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("COMPANY"),
	)

	// ---- Inventory ----
	g.POST("/batteries", b.Create)
	g.GET("/batteries", b.List)
	g.PUT("/batteries/:id", b.Update)
	g.PATCH("/batteries/:id", b.Update) // alias for clients that use PATCH
	g.DELETE("/batteries/:id", b.Delete)

	// ---- Appointments ----
	// Filterable with ?status=Pending|InProgress|Completed|Cancelled.
	g.GET("/appointments", a.List)
	// Advances along the allowed transitions; moving to Completed takes
	// a unit of stock in the same transaction.
	g.PATCH("/appointments/:id/status", a.UpdateStatus)
	// Force-cancel from any status; cancelling a Completed appointment
	// restores the unit.
	g.POST("/appointments/:id/cancel", a.Cancel)

	// ---- Dashboard ----
	g.GET("/dashboard", d.Get)
}
