package fiber

import (
	"context"
	"errors"
	"net/http"

	"pltv-feature-service/internal/features/core/domain"
	"pltv-feature-service/internal/features/core/ports"
	"pltv-feature-service/internal/features/core/usecase"

	"github.com/gofiber/fiber/v2"
)

type GetFeaturesUseCase interface {
	Execute(ctx context.Context, customerID string) (*domain.CustomerFeatureRecord, error)
}

type RecomputeFeaturesUseCase interface {
	Execute(ctx context.Context, customerID string) error
}

type FeatureHandler struct {
	getUC       GetFeaturesUseCase
	recomputeUC RecomputeFeaturesUseCase
}

func NewFeatureHandler(getUC GetFeaturesUseCase, recomputeUC RecomputeFeaturesUseCase) *FeatureHandler {
	return &FeatureHandler{getUC: getUC, recomputeUC: recomputeUC}
}

// GetFeatures godoc
// @Summary Read a customer's feature record
// @Description Returns the current aggregate row; 404 means no prediction is possible yet
// @Tags Features
// @Produce json
// @Param customer_id path string true "Customer id"
// @Success 200 {object} FeatureRecordResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /features/{customer_id} [get]
func (h *FeatureHandler) GetFeatures(c *fiber.Ctx) error {
	customerID := c.Params("customer_id")

	rec, err := h.getUC.Execute(c.UserContext(), customerID)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidCustomerID):
			return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
				Error: "customer_id_required",
			})
		case errors.Is(err, ports.ErrFeatureRecordNotFound):
			return c.Status(http.StatusNotFound).JSON(ErrorResponse{
				Error:   "features_not_found",
				Message: "no features for customer yet",
			})
		default:
			return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
				Error: "internal_server_error",
			})
		}
	}

	return c.Status(http.StatusOK).JSON(FeatureRecordResponse{
		CustomerID:                rec.CustomerID,
		TotalPurchaseValue:        rec.TotalPurchaseValue,
		NumberOfPurchases:         rec.NumberOfPurchases,
		AveragePurchaseValue:      rec.AveragePurchaseValue,
		TotalItemsPurchased:       rec.TotalItemsPurchased,
		DistinctProductsPurchased: rec.DistinctProductsPurchased,
		DistinctBrandsPurchased:   rec.DistinctBrandsPurchased,
		DistinctProductsViewed:    rec.DistinctProductsViewed,
		DistinctBrandsViewed:      rec.DistinctBrandsViewed,
		NumberOfPageViews:         rec.NumberOfPageViews,
		AddToCartCount:            rec.AddToCartCount,
		BeginCheckoutCount:        rec.BeginCheckoutCount,
		DaysSinceLastPurchase:     rec.DaysSinceLastPurchase,
		TimeSinceFirstEvent:       rec.TimeSinceFirstEvent,
		PurchaseFrequency:         rec.PurchaseFrequency,
		PLTV:                      rec.PLTV,
		UpdatedAt:                 rec.UpdatedAt,
	})
}

// RecomputeFeatures godoc
// @Summary Rebuild one customer's feature record from raw history
// @Tags Features
// @Accept json
// @Produce json
// @Param request body RecomputeRequest true "Customer to recompute"
// @Success 200 {object} RecomputeResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /recompute [post]
func (h *FeatureHandler) RecomputeFeatures(c *fiber.Ctx) error {
	var req RecomputeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid_json",
		})
	}
	if req.CustomerID == "" {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error: "customer_id_required",
		})
	}

	if err := h.recomputeUC.Execute(c.UserContext(), req.CustomerID); err != nil {
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Error: "internal_server_error",
		})
	}

	return c.Status(http.StatusOK).JSON(RecomputeResponse{Status: "recomputed"})
}
