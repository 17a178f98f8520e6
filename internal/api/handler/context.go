package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Zulfatok/mael/internal/core/domain"
)

// ctxUser extracts the identity injected by the session middleware. Presence
// proves the middleware ran; a route wired without it fails closed here.
func ctxUser(c echo.Context) (*domain.User, error) {
	user, ok := c.Get("user").(*domain.User)
	if !ok || user == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
	}
	return user, nil
}
