// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/hokurail/train-seat-reservation/internal/config"
	"github.com/hokurail/train-seat-reservation/internal/handler"
	"github.com/hokurail/train-seat-reservation/internal/middleware"
)

// RegisterRoutes registers routes that need no authentication or
// dependencies.  Currently that is only the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers signup/login under /api/auth and the profile
// endpoint under /api/user behind JWT validation.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/api/auth")
	g.POST("/signup", a.Signup)
	g.POST("/login", a.Login)

	user := e.Group("/api/user", middleware.JWTAuth(jwtSecret))
	user.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated browse endpoints: station
// listing, client settings, train search and seat maps.  Reference-data
// routes sit behind the Redis response cache since their payload is the
// same for every caller.
func RegisterPublic(e *echo.Echo, s *handler.StationHandler, set *handler.SettingsHandler, t *handler.TrainHandler, cacheCfg config.CacheConfig, rdb *redis.Client) {
	cached := middleware.NewRedisCache(cacheCfg, rdb)

	e.GET("/api/stations", s.List, cached)
	e.GET("/api/settings", set.Get, cached)
	e.GET("/api/train/search", t.Search)
	e.GET("/api/train/seats", t.SeatMap)
}

// RegisterReservation registers the booking lifecycle under JWT
// authentication.  The write endpoints additionally sit behind the
// token-bucket rate limiter so one client cannot monopolize a train.
func RegisterReservation(e *echo.Echo, r *handler.ReservationHandler, jwtSecret string, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	limited := middleware.NewTokenBucket(rlCfg, rdb)

	g := e.Group("/api", middleware.JWTAuth(jwtSecret))
	g.POST("/train/reservation", r.Reserve, limited)
	g.POST("/train/reservation/commit", r.Commit, limited)
	g.GET("/user/reservations", r.List)
	g.GET("/user/reservations/:item_id", r.Get)
	g.POST("/user/reservations/:item_id/cancel", r.Cancel, limited)
}
