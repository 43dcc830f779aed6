package ports

import (
	"context"
	"errors"

	"pltv-feature-service/internal/features/core/domain"
)

// ErrFeatureRecordNotFound signals "no prediction possible yet", not a
// failure.
var ErrFeatureRecordNotFound = errors.New("no feature record for customer")

// FeatureStorePort is the keyed feature record store.
//
// Upsert replaces all writable fields atomically; columns outside the
// allow-list are dropped, a missing customer id is a fatal input error for
// that record. Increment applies an adjustment in a single atomic round trip,
// creating the row against a zero baseline when absent. Upsert and Increment
// are each atomic but not mutually serialized (see the fencing option on the
// postgres adapter).
type FeatureStorePort interface {
	Get(ctx context.Context, customerID string) (*domain.CustomerFeatureRecord, error)
	Upsert(ctx context.Context, record *domain.CustomerFeatureRecord) error
	Increment(ctx context.Context, customerID string, adj domain.FeatureAdjustment) error
}
