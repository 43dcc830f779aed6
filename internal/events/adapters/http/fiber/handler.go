package fiber

import (
	"context"
	"net/http"

	"pltv-feature-service/internal/events/core/usecase"

	"github.com/gofiber/fiber/v2"
)

type IngestEventsUseCase interface {
	Execute(ctx context.Context, rawEvents []map[string]any) (usecase.IngestResult, error)
}

type EventHandler struct {
	ingestUC IngestEventsUseCase
}

func NewEventHandler(ingestUC IngestEventsUseCase) *EventHandler {
	return &EventHandler{ingestUC: ingestUC}
}

// IngestEvent godoc
// @Summary Ingest one event or an event envelope
// @Description Normalizes the payload, stores the raw history and updates the customer's feature record
// @Tags Events
// @Accept json
// @Produce json
// @Success 202 {object} IngestResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /events [post]
func (h *EventHandler) IngestEvent(c *fiber.Ctx) error {
	rawEvents, err := extractRawEvents(c.Body())
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid_json",
		})
	}
	return h.ingest(c, rawEvents)
}

// BulkIngestEvents godoc
// @Summary Ingest a batch of events
// @Description Accepts {"events": [...]} and processes each event independently
// @Tags Events
// @Accept json
// @Produce json
// @Success 202 {object} IngestResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /events/bulk [post]
func (h *EventHandler) BulkIngestEvents(c *fiber.Ctx) error {
	rawEvents, err := extractRawEvents(c.Body())
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid_json",
		})
	}
	if len(rawEvents) == 0 {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error: "events_list_required",
		})
	}
	return h.ingest(c, rawEvents)
}

func (h *EventHandler) ingest(c *fiber.Ctx, rawEvents []map[string]any) error {
	if len(rawEvents) == 0 {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error: "events_list_required",
		})
	}

	res, err := h.ingestUC.Execute(c.UserContext(), rawEvents)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Error: "internal_server_error",
		})
	}

	// Nothing got through and at least one store write failed: surface it
	// as retryable instead of a silent 202.
	if res.Accepted == 0 && res.Failed > 0 {
		return c.Status(http.StatusServiceUnavailable).JSON(ErrorResponse{
			Error:   "store_unavailable",
			Message: "events were not stored, retry later",
		})
	}

	return c.Status(http.StatusAccepted).JSON(IngestResponse{
		Accepted: res.Accepted,
		Rejected: res.Rejected,
		Failed:   res.Failed,
	})
}
