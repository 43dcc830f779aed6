package ports

import "context"

// EventHistoryPort is the raw event history store: one JSON event list per
// customer. Append must be atomic at the storage layer (no read-modify-write
// in the caller).
type EventHistoryPort interface {
	AppendEvents(ctx context.Context, customerID string, events []map[string]any) error
	GetEvents(ctx context.Context, customerID string) ([]map[string]any, error)
	ListCustomerIDs(ctx context.Context) ([]string, error)
}
