package fiber

import "time"

// FeatureRecordResponse mirrors the customer_features row
// @Description Customer feature vector
type FeatureRecordResponse struct {
	CustomerID                string    `json:"customer_id"`
	TotalPurchaseValue        float64   `json:"total_purchase_value"`
	NumberOfPurchases         int64     `json:"number_of_purchases"`
	AveragePurchaseValue      float64   `json:"average_purchase_value"`
	TotalItemsPurchased       int64     `json:"total_items_purchased"`
	DistinctProductsPurchased int64     `json:"distinct_products_purchased"`
	DistinctBrandsPurchased   int64     `json:"distinct_brands_purchased"`
	DistinctProductsViewed    int64     `json:"distinct_products_viewed"`
	DistinctBrandsViewed      int64     `json:"distinct_brands_viewed"`
	NumberOfPageViews         int64     `json:"number_of_page_views"`
	AddToCartCount            int64     `json:"add_to_cart_count"`
	BeginCheckoutCount        int64     `json:"begin_checkout_count"`
	DaysSinceLastPurchase     int64     `json:"days_since_last_purchase"`
	TimeSinceFirstEvent       int64     `json:"time_since_first_event"`
	PurchaseFrequency         float64   `json:"purchase_frequency"`
	PLTV                      float64   `json:"pltv"`
	UpdatedAt                 time.Time `json:"updated_at"`
}

type RecomputeRequest struct {
	CustomerID string `json:"customer_id"`
}

type RecomputeResponse struct {
	Status string `json:"status" example:"recomputed"`
}

type ErrorResponse struct {
	Error   string `json:"error" example:"features_not_found"`
	Message string `json:"message,omitempty"`
}
