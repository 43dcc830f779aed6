package usecase

import (
	"context"
	"log/slog"
	"time"

	"pltv-feature-service/internal/events/core/domain"
	"pltv-feature-service/internal/events/core/ports"

	"github.com/google/uuid"
)

// IngestEventsUseCase stores raw events and routes each one to the feature
// engine: non-purchase events take the incremental path, purchase events
// trigger a full recompute when the policy says so (purchases invalidate the
// non-additive fields).
type IngestEventsUseCase struct {
	history  ports.EventHistoryPort
	features ports.FeatureUpdaterPort
	logger   *slog.Logger

	// RecomputeOnPurchase replaces the incremental path with a full
	// recompute for purchase events.
	recomputeOnPurchase bool

	now func() time.Time
}

func NewIngestEventsUseCase(
	history ports.EventHistoryPort,
	features ports.FeatureUpdaterPort,
	logger *slog.Logger,
	recomputeOnPurchase bool,
) *IngestEventsUseCase {
	return &IngestEventsUseCase{
		history:             history,
		features:            features,
		logger:              logger,
		recomputeOnPurchase: recomputeOnPurchase,
		now:                 time.Now,
	}
}

type IngestResult struct {
	Accepted int // stored and routed to the feature engine
	Rejected int // unidentifiable events, skipped
	Failed   int // store failures, retryable
}

type customerBatch struct {
	customerID string
	raws       []map[string]any
	events     []domain.CanonicalEvent
}

// Execute processes a batch of raw event objects. Failures are scoped to the
// single event or customer: a rejected event or an unavailable store never
// aborts the rest of the batch.
func (uc *IngestEventsUseCase) Execute(ctx context.Context, rawEvents []map[string]any) (IngestResult, error) {
	var res IngestResult

	batchID := uuid.NewString()
	ingestedAt := uc.now().UTC()

	// Group per customer so each customer's history is appended in one
	// round trip and one failure stays scoped to that customer.
	order := make([]string, 0, len(rawEvents))
	batches := make(map[string]*customerBatch)

	for _, raw := range rawEvents {
		if raw == nil {
			res.Rejected++
			continue
		}

		// Ingestion-side timestamp, the last resort of the timestamp
		// fallback chain for this and any later recompute.
		raw[fieldAPITimestamp] = ingestedAt.UnixMicro()

		event, err := Normalize(raw, ingestedAt)
		if err != nil {
			uc.logger.Warn("event rejected",
				"batch_id", batchID,
				"reason", err.Error(),
				"event_name", asString(raw[fieldEventName]),
			)
			res.Rejected++
			continue
		}

		b, ok := batches[event.CustomerID]
		if !ok {
			b = &customerBatch{customerID: event.CustomerID}
			batches[event.CustomerID] = b
			order = append(order, event.CustomerID)
		}
		b.raws = append(b.raws, raw)
		b.events = append(b.events, event)
	}

	for _, customerID := range order {
		b := batches[customerID]

		if err := uc.history.AppendEvents(ctx, customerID, b.raws); err != nil {
			uc.logger.Error("append events failed",
				"batch_id", batchID,
				"customer_id", customerID,
				"error", err,
			)
			res.Failed += len(b.raws)
			continue
		}
		res.Accepted += len(b.raws)

		uc.updateFeatures(ctx, batchID, b)
	}

	return res, nil
}

// updateFeatures applies each stored event to the feature record. Purchase
// events are collapsed into one full recompute at the end so the recompute
// sees the complete appended history. Update failures are logged only: the
// raw history is already stored and the next recompute converges.
func (uc *IngestEventsUseCase) updateFeatures(ctx context.Context, batchID string, b *customerBatch) {
	recompute := false

	for _, event := range b.events {
		if event.IsPurchase() && uc.recomputeOnPurchase {
			recompute = true
			continue
		}
		if err := uc.features.ApplyEvent(ctx, event); err != nil {
			uc.logger.Error("incremental update failed",
				"batch_id", batchID,
				"customer_id", b.customerID,
				"event_kind", string(event.Kind),
				"error", err,
			)
		}
	}

	if recompute {
		if err := uc.features.RecomputeCustomer(ctx, b.customerID); err != nil {
			uc.logger.Error("recompute failed",
				"batch_id", batchID,
				"customer_id", b.customerID,
				"error", err,
			)
		}
	}
}
