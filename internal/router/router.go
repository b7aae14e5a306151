package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/voltswap/battery-swap-api/internal/handler"    // import the handlers that implement business logic
	"github.com/voltswap/battery-swap-api/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring systems use this endpoint to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies
// the necessary middleware.  Unauthenticated operations live under
// /v1/auth, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, p *handler.ProfileHandler, jwtSecret string) {
	// Operations that do not require an existing session: register,
	// login and the two refresh flavours.  Each handler generates or
	// exchanges tokens on its own.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token and returns a new pair.
	g.POST("/refresh", a.Refresh)
	// Issues a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout does not require JWT authentication: the handler accepts a
	// JSON body containing a refresh_token (revokes that session) or a
	// bearer access token (revokes every session of the account).
	g.POST("/logout", a.Logout)

	// Routes that require a valid access token.  All handlers on this
	// group run the JWTAuth middleware first; any known role may call
	// them.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("INDIVIDUAL", "COMPANY"))
	// Returns the authenticated account's id and role.
	auth.GET("/me", a.Me)
	// Own profile: read, edit and delete the account.  Deletion is
	// refused while the account has appointment history.
	auth.GET("/profile", p.Get)
	auth.PUT("/profile", p.Update)
	auth.DELETE("/me", p.Delete)

	// Alias so clients can call either /v1/auth/logout or /v1/logout
	// with a valid refresh token in the body to terminate a session.
	e.POST("/v1/logout", a.Logout)
}
