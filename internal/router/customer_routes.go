package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/voltswap/battery-swap-api/internal/handler"    // requester-side handlers
	"github.com/voltswap/battery-swap-api/internal/middleware" // JWT + role middlewares
)

// RegisterCustomer registers the requester-side appointment endpoints
// under /v1.  Booking is reserved for INDIVIDUAL accounts; viewing a
// single appointment is open to both roles because the fulfilling
// company is a participant too.
func RegisterCustomer(e *echo.Echo, a *handler.CustomerApptHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("INDIVIDUAL"),
	)

	// Book a Pending appointment with a company for a named battery.
	g.POST("/appointments", a.Create)
	// All of the caller's own bookings, newest first.
	g.GET("/appointments", a.ListMine)
	// Withdraw an own booking (Pending or InProgress only).
	g.POST("/appointments/:id/cancel", a.Cancel)

	// Appointment detail is visible to both participants, so it gets
	// its own group accepting either role.
	shared := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("INDIVIDUAL", "COMPANY"),
	)
	shared.GET("/appointments/:id", a.GetDetail)
}
