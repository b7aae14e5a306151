package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/voltswap/battery-swap-api/internal/handler" // public browse handlers
)

// RegisterPublic registers the unauthenticated browse endpoints on the
// provided Echo instance.  These routes apply no JWT or role middleware
// and are intended for guests comparing companies before registering.
// The optional middleware (typically the Redis response cache) is
// applied to every browse route when non-nil.
func RegisterPublic(e *echo.Echo, p *handler.BrowseHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group("/v1", mw...)
	// Every company advertising batteries, filterable with ?type=.
	g.GET("/companies", p.GetCompanies)
	// One company's public profile and battery list.
	g.GET("/companies/:id", p.GetCompany)
	// One battery with its owning company's public profile.
	g.GET("/batteries/:id", p.GetBattery)
}
