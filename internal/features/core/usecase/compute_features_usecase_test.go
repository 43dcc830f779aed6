package usecase_test

import (
	"math"
	"reflect"
	"testing"
	"time"

	eventsdomain "pltv-feature-service/internal/events/core/domain"
	"pltv-feature-service/internal/features/core/usecase"
)

var now = time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

func ev(customerID string, kind eventsdomain.EventKind, at time.Time, value float64, items ...eventsdomain.Item) eventsdomain.CanonicalEvent {
	return eventsdomain.CanonicalEvent{
		CustomerID: customerID,
		Kind:       kind,
		OccurredAt: at,
		Value:      value,
		Items:      items,
	}
}

func item(id, brand string, qty int64) eventsdomain.Item {
	return eventsdomain.Item{ItemID: id, ItemBrand: brand, Quantity: qty}
}

// journey is the reference customer history used across tests: three page
// views, one view_item, one add_to_cart, one begin_checkout and two
// purchases worth 150 in total.
func journey(customerID string) []eventsdomain.CanonicalEvent {
	start := now.Add(-10 * 24 * time.Hour)
	return []eventsdomain.CanonicalEvent{
		ev(customerID, eventsdomain.KindPageView, start, 0),
		ev(customerID, eventsdomain.KindViewItem, start.Add(time.Minute), 0, item("SKU_123", "BrandA", 1)),
		ev(customerID, eventsdomain.KindPageView, start.Add(2*time.Minute), 0),
		ev(customerID, eventsdomain.KindAddToCart, start.Add(3*time.Minute), 0, item("SKU_456", "BrandB", 1)),
		ev(customerID, eventsdomain.KindBeginCheckout, start.Add(4*time.Minute), 0, item("SKU_456", "BrandB", 1)),
		ev(customerID, eventsdomain.KindPurchase, now.Add(-48*time.Hour), 100, item("SKU_123", "BrandA", 1)),
		ev(customerID, eventsdomain.KindPageView, now.Add(-2*time.Hour), 0),
		ev(customerID, eventsdomain.KindPurchase, now.Add(-time.Hour), 50, item("SKU_789", "BrandC", 2)),
	}
}

// ------------------------------------------------------------
// FULL JOURNEY SCENARIO
// ------------------------------------------------------------

func TestComputeFeatures_Journey(t *testing.T) {
	records := usecase.ComputeFeatures(journey("c_1"), now)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]

	if r.CustomerID != "c_1" {
		t.Fatalf("expected customer c_1, got %s", r.CustomerID)
	}
	if r.NumberOfPurchases != 2 {
		t.Fatalf("number_of_purchases: expected 2, got %d", r.NumberOfPurchases)
	}
	if r.TotalPurchaseValue != 150.0 {
		t.Fatalf("total_purchase_value: expected 150, got %v", r.TotalPurchaseValue)
	}
	if r.AveragePurchaseValue != 75.0 {
		t.Fatalf("average_purchase_value: expected 75, got %v", r.AveragePurchaseValue)
	}
	if r.NumberOfPageViews != 3 {
		t.Fatalf("number_of_page_views: expected 3, got %d", r.NumberOfPageViews)
	}
	if r.AddToCartCount != 1 {
		t.Fatalf("add_to_cart_count: expected 1, got %d", r.AddToCartCount)
	}
	if r.BeginCheckoutCount != 1 {
		t.Fatalf("begin_checkout_count: expected 1, got %d", r.BeginCheckoutCount)
	}
	if r.TotalItemsPurchased != 3 {
		t.Fatalf("total_items_purchased: expected 3, got %d", r.TotalItemsPurchased)
	}
	if r.DistinctProductsPurchased != 2 {
		t.Fatalf("distinct_products_purchased: expected 2, got %d", r.DistinctProductsPurchased)
	}
	if r.DistinctBrandsPurchased != 2 {
		t.Fatalf("distinct_brands_purchased: expected 2, got %d", r.DistinctBrandsPurchased)
	}
	// view_item(SKU_123/BrandA) + add_to_cart(SKU_456/BrandB); the
	// begin_checkout item list does not count as viewed.
	if r.DistinctProductsViewed != 2 {
		t.Fatalf("distinct_products_viewed: expected 2, got %d", r.DistinctProductsViewed)
	}
	if r.DistinctBrandsViewed != 2 {
		t.Fatalf("distinct_brands_viewed: expected 2, got %d", r.DistinctBrandsViewed)
	}
	if r.DaysSinceLastPurchase != 0 {
		t.Fatalf("days_since_last_purchase: expected 0, got %d", r.DaysSinceLastPurchase)
	}
	if r.TimeSinceFirstEvent != 10 {
		t.Fatalf("time_since_first_event: expected 10, got %d", r.TimeSinceFirstEvent)
	}
	if r.PurchaseFrequency != 0.2 {
		t.Fatalf("purchase_frequency: expected 0.2, got %v", r.PurchaseFrequency)
	}
	if r.PLTV != r.TotalPurchaseValue {
		t.Fatalf("pltv must equal total_purchase_value, got %v vs %v", r.PLTV, r.TotalPurchaseValue)
	}
}

// ------------------------------------------------------------
// DETERMINISM
// ------------------------------------------------------------

func TestComputeFeatures_Deterministic(t *testing.T) {
	events := append(journey("c_2"), journey("c_1")...)

	first := usecase.ComputeFeatures(events, now)
	second := usecase.ComputeFeatures(events, now)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical output for identical input and now")
	}
	if first[0].CustomerID != "c_1" || first[1].CustomerID != "c_2" {
		t.Fatalf("expected records sorted by customer id, got %s, %s",
			first[0].CustomerID, first[1].CustomerID)
	}
}

// ------------------------------------------------------------
// BOUNDARIES
// ------------------------------------------------------------

func TestComputeFeatures_EmptyInput(t *testing.T) {
	if records := usecase.ComputeFeatures(nil, now); len(records) != 0 {
		t.Fatalf("expected no records for empty input, got %d", len(records))
	}
}

func TestComputeFeatures_NoPurchaseCustomer(t *testing.T) {
	events := []eventsdomain.CanonicalEvent{
		ev("c_1", eventsdomain.KindPageView, now.Add(-5*24*time.Hour), 0),
		ev("c_1", eventsdomain.KindPageView, now.Add(-time.Hour), 0),
	}

	records := usecase.ComputeFeatures(events, now)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]

	if r.NumberOfPurchases != 0 || r.TotalPurchaseValue != 0 {
		t.Fatalf("expected zero purchase fields, got %+v", r)
	}
	if r.AveragePurchaseValue != 0 || r.PurchaseFrequency != 0 {
		t.Fatalf("expected zero derived fields, got %+v", r)
	}
	// Never purchased: days elapsed since the epoch, a deliberately large
	// sentinel, never an error.
	epochDays := int64(now.Sub(time.Unix(0, 0)) / (24 * time.Hour))
	if r.DaysSinceLastPurchase != epochDays {
		t.Fatalf("expected sentinel %d, got %d", epochDays, r.DaysSinceLastPurchase)
	}
	if r.NumberOfPageViews != 2 {
		t.Fatalf("expected 2 page views, got %d", r.NumberOfPageViews)
	}
}

func TestComputeFeatures_NoPurchaseCustomerKeptInMultiCustomerBatch(t *testing.T) {
	events := append(journey("c_buyer"),
		ev("c_browser", eventsdomain.KindPageView, now.Add(-time.Hour), 0))

	records := usecase.ComputeFeatures(events, now)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	// Sorted: c_browser first.
	if records[0].CustomerID != "c_browser" || records[0].NumberOfPurchases != 0 {
		t.Fatalf("no-purchase customer must receive a zero-filled record, got %+v", records[0])
	}
}

func TestComputeFeatures_DivisionSafetyZeroElapsed(t *testing.T) {
	events := []eventsdomain.CanonicalEvent{
		ev("c_1", eventsdomain.KindPageView, now, 0),
	}

	r := usecase.ComputeFeatures(events, now)[0]

	if r.TimeSinceFirstEvent != 1 {
		t.Fatalf("time_since_first_event must be floored at 1, got %d", r.TimeSinceFirstEvent)
	}
	if math.IsInf(r.PurchaseFrequency, 0) || math.IsNaN(r.PurchaseFrequency) {
		t.Fatalf("purchase_frequency must be finite, got %v", r.PurchaseFrequency)
	}
	if r.PurchaseFrequency != 0 {
		t.Fatalf("expected purchase_frequency 0, got %v", r.PurchaseFrequency)
	}
}

func TestComputeFeatures_UnrecognizedKindCountsGenerically(t *testing.T) {
	events := []eventsdomain.CanonicalEvent{
		ev("c_1", "first_visit", now.Add(-3*24*time.Hour), 0),
		ev("c_1", eventsdomain.KindPageView, now.Add(-time.Hour), 0),
	}

	r := usecase.ComputeFeatures(events, now)[0]

	// The unrecognized event anchors the first-event time without touching
	// any kind-specific count.
	if r.TimeSinceFirstEvent != 3 {
		t.Fatalf("expected time_since_first_event 3, got %d", r.TimeSinceFirstEvent)
	}
	if r.NumberOfPageViews != 1 {
		t.Fatalf("expected 1 page view, got %d", r.NumberOfPageViews)
	}
}

func TestComputeFeatures_EmptyItemIDsExcludedFromDistinct(t *testing.T) {
	events := []eventsdomain.CanonicalEvent{
		ev("c_1", eventsdomain.KindPurchase, now.Add(-time.Hour), 10,
			item("", "", 1), item("SKU_1", "BrandA", 1)),
	}

	r := usecase.ComputeFeatures(events, now)[0]

	if r.DistinctProductsPurchased != 1 || r.DistinctBrandsPurchased != 1 {
		t.Fatalf("empty ids must not count as distinct, got %+v", r)
	}
	if r.TotalItemsPurchased != 2 {
		t.Fatalf("quantities still sum for anonymous items, got %d", r.TotalItemsPurchased)
	}
}
