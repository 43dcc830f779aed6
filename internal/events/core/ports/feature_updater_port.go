package ports

import (
	"context"

	"pltv-feature-service/internal/events/core/domain"
)

// FeatureUpdaterPort is how the ingest flow reaches the feature engine
// without depending on it directly.
//
// ApplyEvent is the low-latency incremental path; RecomputeCustomer rebuilds
// the full feature record from stored history.
type FeatureUpdaterPort interface {
	ApplyEvent(ctx context.Context, event domain.CanonicalEvent) error
	RecomputeCustomer(ctx context.Context, customerID string) error
}
