package usecase

import (
	"math"
	"sort"
	"time"

	eventsdomain "pltv-feature-service/internal/events/core/domain"
	"pltv-feature-service/internal/features/core/domain"
)

const day = 24 * time.Hour

// sentinelEpoch stands in for "never purchased": days_since_last_purchase
// becomes the days elapsed since the Unix epoch, a deliberately large value.
var sentinelEpoch = time.Unix(0, 0).UTC()

// customerAggregate collects the per-customer partial aggregates before the
// derived fields are computed.
type customerAggregate struct {
	firstEvent time.Time

	purchaseValue float64
	purchases     int64
	lastPurchase  time.Time

	itemsPurchased    int64
	productsPurchased map[string]bool
	brandsPurchased   map[string]bool
	productsViewed    map[string]bool
	brandsViewed      map[string]bool

	pageViews      int64
	addToCarts     int64
	beginCheckouts int64
}

// ComputeFeatures is the full-recompute path: it derives one
// CustomerFeatureRecord per customer present in events, even for customers
// with zero purchases. Deterministic for a fixed now; output is sorted by
// customer id. An empty input yields no records.
func ComputeFeatures(events []eventsdomain.CanonicalEvent, now time.Time) []domain.CustomerFeatureRecord {
	if len(events) == 0 {
		return nil
	}
	now = now.UTC()

	aggs := make(map[string]*customerAggregate)

	for _, e := range events {
		agg, ok := aggs[e.CustomerID]
		if !ok {
			agg = &customerAggregate{
				productsPurchased: make(map[string]bool),
				brandsPurchased:   make(map[string]bool),
				productsViewed:    make(map[string]bool),
				brandsViewed:      make(map[string]bool),
			}
			aggs[e.CustomerID] = agg
		}

		if agg.firstEvent.IsZero() || e.OccurredAt.Before(agg.firstEvent) {
			agg.firstEvent = e.OccurredAt
		}

		switch e.Kind {
		case eventsdomain.KindPurchase:
			agg.purchases++
			agg.purchaseValue += e.Value
			if e.OccurredAt.After(agg.lastPurchase) {
				agg.lastPurchase = e.OccurredAt
			}
			for _, item := range e.Items {
				agg.itemsPurchased += item.Quantity
				markDistinct(agg.productsPurchased, item.ItemID)
				markDistinct(agg.brandsPurchased, item.ItemBrand)
			}
		case eventsdomain.KindViewItem, eventsdomain.KindAddToCart:
			if e.Kind == eventsdomain.KindAddToCart {
				agg.addToCarts++
			}
			for _, item := range e.Items {
				markDistinct(agg.productsViewed, item.ItemID)
				markDistinct(agg.brandsViewed, item.ItemBrand)
			}
		case eventsdomain.KindPageView:
			agg.pageViews++
		case eventsdomain.KindBeginCheckout:
			agg.beginCheckouts++
		default:
			// Unrecognized kinds still anchor the customer and its
			// first-event time; nothing else to count.
		}
	}

	customerIDs := make([]string, 0, len(aggs))
	for id := range aggs {
		customerIDs = append(customerIDs, id)
	}
	sort.Strings(customerIDs)

	records := make([]domain.CustomerFeatureRecord, 0, len(customerIDs))
	for _, id := range customerIDs {
		records = append(records, deriveRecord(id, aggs[id], now))
	}
	return records
}

func deriveRecord(customerID string, agg *customerAggregate, now time.Time) domain.CustomerFeatureRecord {
	lastPurchase := agg.lastPurchase
	if lastPurchase.IsZero() {
		lastPurchase = sentinelEpoch
	}

	timeSinceFirst := daysBetween(now, agg.firstEvent)
	if timeSinceFirst < 1 {
		timeSinceFirst = 1
	}

	frequency := float64(agg.purchases) / float64(timeSinceFirst)
	if math.IsInf(frequency, 0) || math.IsNaN(frequency) {
		frequency = 0
	}

	var avg float64
	if agg.purchases > 0 {
		avg = agg.purchaseValue / float64(agg.purchases)
	}

	return domain.CustomerFeatureRecord{
		CustomerID:                customerID,
		TotalPurchaseValue:        agg.purchaseValue,
		NumberOfPurchases:         agg.purchases,
		AveragePurchaseValue:      avg,
		TotalItemsPurchased:       agg.itemsPurchased,
		DistinctProductsPurchased: int64(len(agg.productsPurchased)),
		DistinctBrandsPurchased:   int64(len(agg.brandsPurchased)),
		DistinctProductsViewed:    int64(len(agg.productsViewed)),
		DistinctBrandsViewed:      int64(len(agg.brandsViewed)),
		NumberOfPageViews:         agg.pageViews,
		AddToCartCount:            agg.addToCarts,
		BeginCheckoutCount:        agg.beginCheckouts,
		DaysSinceLastPurchase:     daysBetween(now, lastPurchase),
		TimeSinceFirstEvent:       timeSinceFirst,
		PurchaseFrequency:         frequency,
		PLTV:                      agg.purchaseValue,
		UpdatedAt:                 now,
	}
}

// daysBetween counts whole 24h periods from t up to now, never negative.
func daysBetween(now, t time.Time) int64 {
	if t.After(now) {
		return 0
	}
	return int64(now.Sub(t) / day)
}

// markDistinct skips empty keys: items without an id or brand do not count
// toward distinct totals.
func markDistinct(set map[string]bool, key string) {
	if key != "" {
		set[key] = true
	}
}
