package domain

import "time"

type EventKind string

const (
	KindPageView      EventKind = "page_view"
	KindViewItem      EventKind = "view_item"
	KindAddToCart     EventKind = "add_to_cart"
	KindBeginCheckout EventKind = "begin_checkout"
	KindPurchase      EventKind = "purchase"
)

// Item is one entry of an event's item list. Quantity defaults to 1 during
// normalization when absent or non-numeric.
type Item struct {
	ItemID    string
	ItemBrand string
	Quantity  int64
}

// CanonicalEvent is the normalized form of a raw ingested event. OccurredAt
// is always set (UTC); unresolvable timestamps fall back to ingestion time.
// Kind may be any string: unrecognized kinds pass through untouched, and an
// unclassifiable event carries an empty Kind.
type CanonicalEvent struct {
	CustomerID string
	Kind       EventKind
	OccurredAt time.Time
	Value      float64
	Items      []Item
}

func (e CanonicalEvent) IsPurchase() bool {
	return e.Kind == KindPurchase
}
