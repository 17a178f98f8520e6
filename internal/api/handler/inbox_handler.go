package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Zulfatok/mael/internal/core/domain"
	"github.com/Zulfatok/mael/internal/core/ports"
)

// InboxHandler serves the web inbox.
type InboxHandler struct {
	inbox ports.InboxService
}

func NewInboxHandler(inbox ports.InboxService) *InboxHandler {
	return &InboxHandler{inbox: inbox}
}

type listMessagesResponse struct {
	Messages []domain.Message `json:"messages"`
}

type messageResponse struct {
	Message *domain.Message `json:"message"`
	Raw     string          `json:"raw"`
}

// List returns the user's inbox, newest first.
//
// @Summary      List inbox messages
// @Tags         inbox
// @Produce      json
// @Success      200  {object}  listMessagesResponse
// @Router       /v1/inbox [get]
func (h *InboxHandler) List(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	messages, err := h.inbox.List(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return c.JSON(http.StatusOK, listMessagesResponse{Messages: messages})
}

// Get returns one message including its raw RFC822 source.
//
// @Summary      Get a message
// @Tags         inbox
// @Produce      json
// @Param        id   path      string  true  "Message id"
// @Success      200  {object}  messageResponse
// @Failure      404  {object}  map[string]string
// @Router       /v1/inbox/{id} [get]
func (h *InboxHandler) Get(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	msg, raw, err := h.inbox.Get(c.Request().Context(), user.ID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: msg, Raw: string(raw)})
}

// Delete removes a message from the inbox.
//
// @Summary      Delete a message
// @Tags         inbox
// @Param        id   path  string  true  "Message id"
// @Success      204  "message deleted"
// @Failure      404  {object}  map[string]string
// @Router       /v1/inbox/{id} [delete]
func (h *InboxHandler) Delete(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	if err := h.inbox.Delete(c.Request().Context(), user.ID, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
