package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Zulfatok/mael/internal/core/ports"
	"github.com/Zulfatok/mael/internal/infrastructure/queue"
)

// RecipientHeader carries the envelope recipient set by the delivery agent.
const RecipientHeader = "X-Mael-Recipient"

// IngestHandler accepts raw inbound messages from the delivery agent and
// hands them to the async ingestion pipeline.
type IngestHandler struct {
	dispatcher *queue.Dispatcher
	maxBytes   int64
}

func NewIngestHandler(dispatcher *queue.Dispatcher, maxBytes int64) *IngestHandler {
	return &IngestHandler{dispatcher: dispatcher, maxBytes: maxBytes}
}

// Ingest enqueues one inbound message.
//
// @Summary      Deliver an inbound message
// @Tags         ingest
// @Accept       application/octet-stream
// @Param        X-Mael-Recipient  header  string  true  "Envelope recipient address"
// @Success      202  "message accepted"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      413  {object}  map[string]string
// @Security     BearerAuth
// @Router       /v1/ingest [post]
func (h *IngestHandler) Ingest(c echo.Context) error {
	recipient := c.Request().Header.Get(RecipientHeader)
	if recipient == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing recipient header")
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, h.maxBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read message body")
	}
	if int64(len(raw)) > h.maxBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "message too large")
	}
	if len(raw) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "empty message body")
	}

	h.dispatcher.Enqueue(ports.IngestInput{
		Recipient:  recipient,
		Raw:        raw,
		ReceivedAt: time.Now().UTC(),
	})
	return c.NoContent(http.StatusAccepted)
}
