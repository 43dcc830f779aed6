package usecase_test

import (
	"context"
	"errors"
	"testing"

	"pltv-feature-service/internal/features/core/ports"
	"pltv-feature-service/internal/features/core/usecase"
)

func TestGetFeatures_EmptyCustomerID(t *testing.T) {
	uc := usecase.NewGetFeaturesUseCase(newMemoryStore())

	_, err := uc.Execute(context.Background(), "")
	if !errors.Is(err, usecase.ErrInvalidCustomerID) {
		t.Fatalf("expected ErrInvalidCustomerID, got %v", err)
	}
}

func TestGetFeatures_NotFoundPassesThrough(t *testing.T) {
	uc := usecase.NewGetFeaturesUseCase(newMemoryStore())

	_, err := uc.Execute(context.Background(), "c_unknown")
	if !errors.Is(err, ports.ErrFeatureRecordNotFound) {
		t.Fatalf("expected ErrFeatureRecordNotFound, got %v", err)
	}
}
