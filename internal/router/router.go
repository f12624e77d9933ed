// Package router registers the HTTP routes and applies the middleware
// chain for each route group.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/eldiiar/arena-lobby/internal/config"
	"github.com/eldiiar/arena-lobby/internal/handler"
	"github.com/eldiiar/arena-lobby/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication:
// the health check and the cached public event directory.
func RegisterRoutes(e *echo.Echo, ev *handler.EventHandler, rdb *redis.Client, cfg config.Config) {
	e.GET("/healthz", handler.Health)

	// Public directory. Cached briefly so polling clients do not hammer
	// the participant-count subquery.
	e.GET("/v1/events", ev.List, middleware.CacheJSON(rdb, cfg.ListCacheTTL))
}

// RegisterAuth registers the authentication endpoints. Register, login,
// refresh and logout live under /v1/auth and need no token; /v1/me
// requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("PLAYER", "ADMIN"))
	auth.GET("/me", a.Me)
}

// RegisterEvents registers the authenticated participant endpoints:
// joining an event, the roster, the current-event view and the reveal
// state. Join is rate limited per account so a stuck client retrying in a
// loop cannot flood the allocation transaction.
func RegisterEvents(e *echo.Echo, ev *handler.EventHandler, rdb *redis.Client, cfg config.Config) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(cfg.JWTSecret))
	g.Use(middleware.RequireRole("PLAYER", "ADMIN"))

	g.POST("/events/:id/join", ev.Join, middleware.RateLimit(rdb, cfg.JoinRatePerMin))
	g.GET("/events/:id/roster", ev.Roster)
	g.GET("/events/current", ev.Current)
	g.GET("/events/current/reveal", ev.Reveal)
}

// RegisterAdmin registers the operator endpoints under /v1/admin. Every
// route requires the ADMIN role.
func RegisterAdmin(e *echo.Echo, ad *handler.AdminHandler, cfg config.Config) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(cfg.JWTSecret))
	g.Use(middleware.RequireRole("ADMIN"))

	g.POST("/events", ad.CreateEvent)
	g.POST("/events/:id/credentials", ad.PublishCredentials)
	g.POST("/events/:id/archive", ad.Archive)
	g.DELETE("/events/:id", ad.Delete)
	g.POST("/accounts/:id/topup", ad.TopUp)
	g.POST("/accounts/:id/block", ad.Block)
}
