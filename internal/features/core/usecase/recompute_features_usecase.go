package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	eventsdomain "pltv-feature-service/internal/events/core/domain"
	eventsports "pltv-feature-service/internal/events/core/ports"
	eventsusecase "pltv-feature-service/internal/events/core/usecase"
	"pltv-feature-service/internal/features/core/ports"
)

// RecomputeFeaturesUseCase rebuilds a customer's feature record from the
// complete raw event history. Safe to run at any time: the result is a plain
// upsert on customer_id.
type RecomputeFeaturesUseCase struct {
	history eventsports.EventHistoryPort
	store   ports.FeatureStorePort
	logger  *slog.Logger

	now func() time.Time
}

func NewRecomputeFeaturesUseCase(
	history eventsports.EventHistoryPort,
	store ports.FeatureStorePort,
	logger *slog.Logger,
) *RecomputeFeaturesUseCase {
	return &RecomputeFeaturesUseCase{
		history: history,
		store:   store,
		logger:  logger,
		now:     time.Now,
	}
}

// Execute recomputes one customer. A customer with no classifiable history
// simply produces no write.
func (uc *RecomputeFeaturesUseCase) Execute(ctx context.Context, customerID string) error {
	raws, err := uc.history.GetEvents(ctx, customerID)
	if err != nil {
		return fmt.Errorf("load history for %s: %w", customerID, err)
	}

	now := uc.now().UTC()
	events := uc.normalizeHistory(customerID, raws, now)

	records := ComputeFeatures(events, now)
	for i := range records {
		if err := uc.store.Upsert(ctx, &records[i]); err != nil {
			return fmt.Errorf("upsert features for %s: %w", records[i].CustomerID, err)
		}
	}
	return nil
}

// normalizeHistory turns stored raw events back into canonical ones. The row
// key fills in a missing customer id; events that still fail normalization
// are skipped, never fatal.
func (uc *RecomputeFeaturesUseCase) normalizeHistory(customerID string, raws []map[string]any, now time.Time) []eventsdomain.CanonicalEvent {
	events := make([]eventsdomain.CanonicalEvent, 0, len(raws))
	for _, raw := range raws {
		if raw == nil {
			continue
		}
		if eventsusecase.ResolveCustomerID(raw) == "" {
			raw["customer_id"] = customerID
		}
		event, err := eventsusecase.Normalize(raw, now)
		if err != nil {
			uc.logger.Warn("skipping unnormalizable history event",
				"customer_id", customerID,
				"reason", err.Error(),
			)
			continue
		}
		events = append(events, event)
	}
	return events
}

// FeatureUpdater bundles the two write paths behind the port the ingest flow
// consumes.
type FeatureUpdater struct {
	Incremental *IncrementalUpdateUseCase
	Recompute   *RecomputeFeaturesUseCase
}

var _ eventsports.FeatureUpdaterPort = (*FeatureUpdater)(nil)

func (u *FeatureUpdater) ApplyEvent(ctx context.Context, event eventsdomain.CanonicalEvent) error {
	return u.Incremental.Execute(ctx, event)
}

func (u *FeatureUpdater) RecomputeCustomer(ctx context.Context, customerID string) error {
	return u.Recompute.Execute(ctx, customerID)
}
