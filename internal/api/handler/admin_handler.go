package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Zulfatok/mael/internal/core/ports"
)

// AdminHandler handles the admin-only account mutations.
type AdminHandler struct {
	accounts ports.AccountService
}

func NewAdminHandler(accounts ports.AccountService) *AdminHandler {
	return &AdminHandler{accounts: accounts}
}

type setAliasLimitRequest struct {
	AliasLimit *int `json:"alias_limit" validate:"required,gte=0"`
}

type setDisabledRequest struct {
	Disabled *bool `json:"disabled" validate:"required"`
}

// SetAliasLimit updates a user's alias quota.
//
// @Summary      Set a user's alias limit
// @Tags         admin
// @Accept       json
// @Param        id    path  string                true  "User id"
// @Param        body  body  setAliasLimitRequest  true  "New limit"
// @Success      204   "limit updated"
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /v1/admin/users/{id}/limit [patch]
func (h *AdminHandler) SetAliasLimit(c echo.Context) error {
	var req setAliasLimitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.accounts.SetAliasLimit(c.Request().Context(), c.Param("id"), *req.AliasLimit); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// SetDisabled enables or disables a user account. Disabling invalidates the
// account's existing sessions on their next resolution.
//
// @Summary      Disable or enable a user
// @Tags         admin
// @Accept       json
// @Param        id    path  string              true  "User id"
// @Param        body  body  setDisabledRequest  true  "Disabled flag"
// @Success      204   "flag updated"
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /v1/admin/users/{id}/disabled [patch]
func (h *AdminHandler) SetDisabled(c echo.Context) error {
	var req setDisabledRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.accounts.SetDisabled(c.Request().Context(), c.Param("id"), *req.Disabled); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
