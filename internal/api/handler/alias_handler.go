package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Zulfatok/mael/internal/core/domain"
	"github.com/Zulfatok/mael/internal/core/ports"
)

// AliasHandler handles alias CRUD for the authenticated user.
type AliasHandler struct {
	aliases    ports.AliasService
	mailDomain string
}

func NewAliasHandler(aliases ports.AliasService, mailDomain string) *AliasHandler {
	return &AliasHandler{aliases: aliases, mailDomain: mailDomain}
}

type createAliasRequest struct {
	LocalPart string `json:"local_part" validate:"required,min=1,max=64"`
}

type aliasResponse struct {
	Alias   *domain.Alias `json:"alias"`
	Address string        `json:"address"`
}

type listAliasesResponse struct {
	Aliases []aliasResponse `json:"aliases"`
}

// Create registers a new alias under the shared domain.
//
// @Summary      Create an alias
// @Tags         aliases
// @Accept       json
// @Produce      json
// @Param        body  body      createAliasRequest  true  "Alias local-part"
// @Success      201   {object}  aliasResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/aliases [post]
func (h *AliasHandler) Create(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	var req createAliasRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	alias, err := h.aliases.Create(c.Request().Context(), user.ID, req.LocalPart)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, aliasResponse{
		Alias:   alias,
		Address: alias.Address(h.mailDomain),
	})
}

// List returns the user's aliases.
//
// @Summary      List aliases
// @Tags         aliases
// @Produce      json
// @Success      200  {object}  listAliasesResponse
// @Router       /v1/aliases [get]
func (h *AliasHandler) List(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	aliases, err := h.aliases.List(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}

	out := make([]aliasResponse, 0, len(aliases))
	for i := range aliases {
		out = append(out, aliasResponse{
			Alias:   &aliases[i],
			Address: aliases[i].Address(h.mailDomain),
		})
	}
	return c.JSON(http.StatusOK, listAliasesResponse{Aliases: out})
}

// Delete removes an alias and its stored mail.
//
// @Summary      Delete an alias
// @Tags         aliases
// @Param        id   path  string  true  "Alias id"
// @Success      204  "alias deleted"
// @Failure      404  {object}  map[string]string
// @Router       /v1/aliases/{id} [delete]
func (h *AliasHandler) Delete(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	if err := h.aliases.Delete(c.Request().Context(), user.ID, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
