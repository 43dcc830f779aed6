package usecase

import (
	"context"
	"errors"

	"pltv-feature-service/internal/features/core/domain"
	"pltv-feature-service/internal/features/core/ports"
)

var ErrInvalidCustomerID = errors.New("customer id is required")

type GetFeaturesUseCase struct {
	store ports.FeatureStorePort
}

func NewGetFeaturesUseCase(store ports.FeatureStorePort) *GetFeaturesUseCase {
	return &GetFeaturesUseCase{store: store}
}

// Execute returns the stored feature record. A missing record surfaces as
// ports.ErrFeatureRecordNotFound: "no prediction possible yet", not a failure.
func (uc *GetFeaturesUseCase) Execute(ctx context.Context, customerID string) (*domain.CustomerFeatureRecord, error) {
	if customerID == "" {
		return nil, ErrInvalidCustomerID
	}
	return uc.store.Get(ctx, customerID)
}
