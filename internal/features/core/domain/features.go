package domain

import "time"

// Column names of the customer_features table. The store only ever writes
// columns from AllowedColumns; anything else coming from upstream data is
// dropped.
const (
	ColCustomerID                = "customer_id"
	ColTotalPurchaseValue        = "total_purchase_value"
	ColNumberOfPurchases         = "number_of_purchases"
	ColAveragePurchaseValue      = "average_purchase_value"
	ColTotalItemsPurchased       = "total_items_purchased"
	ColDistinctProductsPurchased = "distinct_products_purchased"
	ColDistinctBrandsPurchased   = "distinct_brands_purchased"
	ColDistinctProductsViewed    = "distinct_products_viewed"
	ColDistinctBrandsViewed      = "distinct_brands_viewed"
	ColNumberOfPageViews         = "number_of_page_views"
	ColAddToCartCount            = "add_to_cart_count"
	ColBeginCheckoutCount        = "begin_checkout_count"
	ColDaysSinceLastPurchase     = "days_since_last_purchase"
	ColTimeSinceFirstEvent       = "time_since_first_event"
	ColPurchaseFrequency         = "purchase_frequency"
	ColPLTV                      = "pltv"
)

// AllowedColumns is the writable-column allow-list enforced by the store.
// customer_id and updated_at are handled separately (key and write stamp).
var AllowedColumns = map[string]bool{
	ColTotalPurchaseValue:        true,
	ColNumberOfPurchases:         true,
	ColAveragePurchaseValue:      true,
	ColTotalItemsPurchased:       true,
	ColDistinctProductsPurchased: true,
	ColDistinctBrandsPurchased:   true,
	ColDistinctProductsViewed:    true,
	ColDistinctBrandsViewed:      true,
	ColNumberOfPageViews:         true,
	ColAddToCartCount:            true,
	ColBeginCheckoutCount:        true,
	ColDaysSinceLastPurchase:     true,
	ColTimeSinceFirstEvent:       true,
	ColPurchaseFrequency:         true,
	ColPLTV:                      true,
}

// CustomerFeatureRecord is the fixed-schema aggregate row describing one
// customer's behavior to date. Exactly one row exists per customer id.
//
// AveragePurchaseValue, PurchaseFrequency, DaysSinceLastPurchase and
// TimeSinceFirstEvent are non-additive: only a full recompute maintains them
// correctly.
type CustomerFeatureRecord struct {
	CustomerID                string
	TotalPurchaseValue        float64
	NumberOfPurchases         int64
	AveragePurchaseValue      float64
	TotalItemsPurchased       int64
	DistinctProductsPurchased int64
	DistinctBrandsPurchased   int64
	DistinctProductsViewed    int64
	DistinctBrandsViewed      int64
	NumberOfPageViews         int64
	AddToCartCount            int64
	BeginCheckoutCount        int64
	DaysSinceLastPurchase     int64
	TimeSinceFirstEvent       int64
	PurchaseFrequency         float64
	PLTV                      float64
	UpdatedAt                 time.Time
}

// Columns returns the writable fields as a column->value map, the shape the
// store's allow-listed upsert consumes.
func (r *CustomerFeatureRecord) Columns() map[string]any {
	return map[string]any{
		ColTotalPurchaseValue:        r.TotalPurchaseValue,
		ColNumberOfPurchases:         r.NumberOfPurchases,
		ColAveragePurchaseValue:      r.AveragePurchaseValue,
		ColTotalItemsPurchased:       r.TotalItemsPurchased,
		ColDistinctProductsPurchased: r.DistinctProductsPurchased,
		ColDistinctBrandsPurchased:   r.DistinctBrandsPurchased,
		ColDistinctProductsViewed:    r.DistinctProductsViewed,
		ColDistinctBrandsViewed:      r.DistinctBrandsViewed,
		ColNumberOfPageViews:         r.NumberOfPageViews,
		ColAddToCartCount:            r.AddToCartCount,
		ColBeginCheckoutCount:        r.BeginCheckoutCount,
		ColDaysSinceLastPurchase:     r.DaysSinceLastPurchase,
		ColTimeSinceFirstEvent:       r.TimeSinceFirstEvent,
		ColPurchaseFrequency:         r.PurchaseFrequency,
		ColPLTV:                      r.PLTV,
	}
}

// FeatureAdjustment is one event's effect on the stored record: Add fields
// are incremented in place by the store, Set fields are overwritten. An
// empty adjustment is a no-op.
type FeatureAdjustment struct {
	Add map[string]float64
	Set map[string]float64
}

func (a FeatureAdjustment) Empty() bool {
	return len(a.Add) == 0 && len(a.Set) == 0
}
