package middleware

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/Zulfatok/mael/internal/api/metrics"
	"github.com/Zulfatok/mael/internal/core/ports"
)

// SessionCookieName is the cookie carrying the raw session token.
const SessionCookieName = "mael_session"

// SessionAuth resolves the session cookie to a user and injects the identity
// into the Echo context. It also triggers the opportunistic expiry sweep:
// best-effort, detached from the request, rate-limited to sweepEvery.
type SessionAuth struct {
	sessions   ports.SessionService
	log        zerolog.Logger
	sweepEvery time.Duration
	lastSweep  atomic.Int64 // unix nanos of the last sweep kick
}

func NewSessionAuth(sessions ports.SessionService, sweepEvery time.Duration, log zerolog.Logger) *SessionAuth {
	return &SessionAuth{
		sessions:   sessions,
		log:        log,
		sweepEvery: sweepEvery,
	}
}

// Middleware returns the echo middleware enforcing an authenticated session.
func (s *SessionAuth) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s.maybeSweep(c.Request().Context())

			cookie, err := c.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			user, err := s.sessions.Resolve(c.Request().Context(), cookie.Value)
			if err != nil {
				return err
			}
			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired session")
			}

			c.Set("user", user)
			c.Set("user_id", user.ID)
			c.Set("role", user.Role)

			return next(c)
		}
	}
}

// maybeSweep kicks an expiry sweep in a detached goroutine when the last one
// is older than sweepEvery. Failures are logged, never surfaced: the sweep
// must not affect the triggering request.
func (s *SessionAuth) maybeSweep(ctx context.Context) {
	now := time.Now()
	last := s.lastSweep.Load()
	if now.UnixNano()-last < s.sweepEvery.Nanoseconds() {
		return
	}
	if !s.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}

	go func() {
		sweepCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		swept, err := s.sessions.SweepExpired(sweepCtx, now)
		if err != nil {
			s.log.Warn().Err(err).Msg("session sweep failed")
			return
		}
		metrics.SessionsSweptTotal.Add(float64(swept))
	}()
}
