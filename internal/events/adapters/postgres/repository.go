package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"pltv-feature-service/internal/events/core/ports"
)

// EventHistoryRepository keeps one JSONB array of raw events per customer.
// Appends happen inside the database (jsonb concatenation), so concurrent
// ingests for the same customer never lose events to a read-modify-write
// race.
type EventHistoryRepository struct {
	db DB
}

func NewEventHistoryRepository(db DB) *EventHistoryRepository {
	return &EventHistoryRepository{db: db}
}

var _ ports.EventHistoryPort = (*EventHistoryRepository)(nil)

const createCustomersTableSQL = `
CREATE TABLE IF NOT EXISTS customers (
    customer_id VARCHAR(255) PRIMARY KEY,
    event_data JSONB NOT NULL DEFAULT '[]'::jsonb,
    created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
);
`

func (r *EventHistoryRepository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, createCustomersTableSQL)
	return err
}

const appendEventsSQL = `
INSERT INTO customers (customer_id, event_data)
VALUES ($1, $2::jsonb)
ON CONFLICT (customer_id)
DO UPDATE SET event_data = customers.event_data || EXCLUDED.event_data;
`

func (r *EventHistoryRepository) AppendEvents(ctx context.Context, customerID string, events []map[string]any) error {
	if customerID == "" {
		return fmt.Errorf("append events: empty customer id")
	}
	if len(events) == 0 {
		return nil
	}

	payload, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("marshal events: %w", err)
	}

	_, err = r.db.ExecContext(ctx, appendEventsSQL, customerID, payload)
	return err
}

func (r *EventHistoryRepository) GetEvents(ctx context.Context, customerID string) ([]map[string]any, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT event_data FROM customers WHERE customer_id = $1", customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	var raw []byte
	if err := rows.Scan(&raw); err != nil {
		return nil, err
	}

	var events []map[string]any
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, fmt.Errorf("decode history for %s: %w", customerID, err)
	}

	return events, rows.Err()
}

func (r *EventHistoryRepository) ListCustomerIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT customer_id FROM customers ORDER BY customer_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Clear deletes the whole raw history. Owned by the operator reset tool.
func (r *EventHistoryRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM customers")
	return err
}
