package usecase

import (
	"context"

	eventsdomain "pltv-feature-service/internal/events/core/domain"
	"pltv-feature-service/internal/features/core/domain"
	"pltv-feature-service/internal/features/core/ports"
)

// IncrementalUpdateUseCase applies one event's additive effect to the stored
// feature record in a single atomic store round trip. The non-additive fields
// (average_purchase_value, purchase_frequency, time_since_first_event) are
// left untouched and stay stale until the next full recompute.
type IncrementalUpdateUseCase struct {
	store ports.FeatureStorePort
}

func NewIncrementalUpdateUseCase(store ports.FeatureStorePort) *IncrementalUpdateUseCase {
	return &IncrementalUpdateUseCase{store: store}
}

// Execute dispatches on the event kind. Unrecognized kinds are a no-op and
// never an error.
func (uc *IncrementalUpdateUseCase) Execute(ctx context.Context, event eventsdomain.CanonicalEvent) error {
	adj := AdjustmentFor(event)
	if adj.Empty() {
		return nil
	}
	return uc.store.Increment(ctx, event.CustomerID, adj)
}

// AdjustmentFor is the dispatch table mapping an event kind to its delta.
// pltv tracks total_purchase_value by definition, so purchases carry the
// value into both.
func AdjustmentFor(event eventsdomain.CanonicalEvent) domain.FeatureAdjustment {
	switch event.Kind {
	case eventsdomain.KindPageView:
		return domain.FeatureAdjustment{
			Add: map[string]float64{domain.ColNumberOfPageViews: 1},
		}
	case eventsdomain.KindAddToCart:
		return domain.FeatureAdjustment{
			Add: map[string]float64{domain.ColAddToCartCount: 1},
		}
	case eventsdomain.KindBeginCheckout:
		return domain.FeatureAdjustment{
			Add: map[string]float64{domain.ColBeginCheckoutCount: 1},
		}
	case eventsdomain.KindPurchase:
		return domain.FeatureAdjustment{
			Add: map[string]float64{
				domain.ColNumberOfPurchases:  1,
				domain.ColTotalPurchaseValue: event.Value,
				domain.ColPLTV:               event.Value,
			},
			Set: map[string]float64{
				domain.ColDaysSinceLastPurchase: 0,
			},
		}
	default:
		return domain.FeatureAdjustment{}
	}
}
