package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"pltv-feature-service/internal/features/core/domain"
	"pltv-feature-service/internal/features/core/ports"
)

var ErrMissingCustomerID = errors.New("feature record has no customer id")

// FeatureRepository stores customer_features rows. Increments are applied by
// the database in a single statement, so concurrent updates for the same
// customer never lose a delta. With fencing enabled, an upsert computed from
// an older history snapshot cannot overwrite a row a later write already
// touched (updated_at acts as the monotonic guard).
type FeatureRepository struct {
	db      DB
	fencing bool
}

func NewFeatureRepository(db DB, fencing bool) *FeatureRepository {
	return &FeatureRepository{db: db, fencing: fencing}
}

var _ ports.FeatureStorePort = (*FeatureRepository)(nil)

const createFeaturesTableSQL = `
CREATE TABLE IF NOT EXISTS customer_features (
    id SERIAL PRIMARY KEY,
    customer_id VARCHAR(255) UNIQUE NOT NULL,
    total_purchase_value DOUBLE PRECISION DEFAULT 0,
    number_of_purchases INTEGER DEFAULT 0,
    average_purchase_value DOUBLE PRECISION DEFAULT 0,
    total_items_purchased INTEGER DEFAULT 0,
    distinct_products_purchased INTEGER DEFAULT 0,
    distinct_brands_purchased INTEGER DEFAULT 0,
    distinct_products_viewed INTEGER DEFAULT 0,
    distinct_brands_viewed INTEGER DEFAULT 0,
    number_of_page_views INTEGER DEFAULT 0,
    add_to_cart_count INTEGER DEFAULT 0,
    begin_checkout_count INTEGER DEFAULT 0,
    days_since_last_purchase INTEGER DEFAULT 0,
    time_since_first_event INTEGER DEFAULT 0,
    purchase_frequency DOUBLE PRECISION DEFAULT 0,
    pltv DOUBLE PRECISION DEFAULT 0,
    updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
);
`

func (r *FeatureRepository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, createFeaturesTableSQL)
	return err
}

const selectFeaturesSQL = `
SELECT
    customer_id,
    total_purchase_value,
    number_of_purchases,
    average_purchase_value,
    total_items_purchased,
    distinct_products_purchased,
    distinct_brands_purchased,
    distinct_products_viewed,
    distinct_brands_viewed,
    number_of_page_views,
    add_to_cart_count,
    begin_checkout_count,
    days_since_last_purchase,
    time_since_first_event,
    purchase_frequency,
    pltv,
    updated_at
FROM customer_features
WHERE customer_id = $1
`

func (r *FeatureRepository) Get(ctx context.Context, customerID string) (*domain.CustomerFeatureRecord, error) {
	rows, err := r.db.QueryContext(ctx, selectFeaturesSQL, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ports.ErrFeatureRecordNotFound
	}

	var rec domain.CustomerFeatureRecord
	if err := rows.Scan(
		&rec.CustomerID,
		&rec.TotalPurchaseValue,
		&rec.NumberOfPurchases,
		&rec.AveragePurchaseValue,
		&rec.TotalItemsPurchased,
		&rec.DistinctProductsPurchased,
		&rec.DistinctBrandsPurchased,
		&rec.DistinctProductsViewed,
		&rec.DistinctBrandsViewed,
		&rec.NumberOfPageViews,
		&rec.AddToCartCount,
		&rec.BeginCheckoutCount,
		&rec.DaysSinceLastPurchase,
		&rec.TimeSinceFirstEvent,
		&rec.PurchaseFrequency,
		&rec.PLTV,
		&rec.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &rec, rows.Err()
}

// Upsert replaces all writable fields of the customer's row. The statement
// is built from the allow-list only; columns outside it are dropped without
// failing the write.
func (r *FeatureRepository) Upsert(ctx context.Context, record *domain.CustomerFeatureRecord) error {
	if record == nil || record.CustomerID == "" {
		return ErrMissingCustomerID
	}

	cols := allowedColumns(record.Columns())
	if len(cols) == 0 {
		return nil
	}

	insertCols := make([]string, 0, len(cols)+2)
	placeholders := make([]string, 0, len(cols)+2)
	updates := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+2)

	insertCols = append(insertCols, "customer_id")
	placeholders = append(placeholders, "$1")
	args = append(args, record.CustomerID)

	for i, c := range cols {
		insertCols = append(insertCols, c.name)
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+2))
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", c.name, c.name))
		args = append(args, c.value)
	}

	insertCols = append(insertCols, "updated_at")
	placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)+1))
	updates = append(updates, "updated_at = EXCLUDED.updated_at")
	args = append(args, record.UpdatedAt.UTC())

	query := fmt.Sprintf(`
INSERT INTO customer_features (%s)
VALUES (%s)
ON CONFLICT (customer_id) DO UPDATE SET %s`,
		strings.Join(insertCols, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)

	if r.fencing {
		query += "\nWHERE customer_features.updated_at <= EXCLUDED.updated_at"
	}

	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// Increment applies the adjustment in one round trip. A missing row is
// created with the deltas as initial values; an existing one is incremented
// in place by the database itself.
func (r *FeatureRepository) Increment(ctx context.Context, customerID string, adj domain.FeatureAdjustment) error {
	if customerID == "" {
		return ErrMissingCustomerID
	}

	adds := allowedFloatColumns(adj.Add)
	sets := allowedFloatColumns(adj.Set)
	if len(adds) == 0 && len(sets) == 0 {
		return nil
	}

	insertCols := []string{"customer_id"}
	placeholders := []string{"$1"}
	updates := make([]string, 0, len(adds)+len(sets)+1)
	args := []any{customerID}

	for _, c := range adds {
		insertCols = append(insertCols, c.name)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)+1))
		updates = append(updates, fmt.Sprintf("%s = customer_features.%s + EXCLUDED.%s", c.name, c.name, c.name))
		args = append(args, c.value)
	}
	for _, c := range sets {
		insertCols = append(insertCols, c.name)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)+1))
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", c.name, c.name))
		args = append(args, c.value)
	}

	insertCols = append(insertCols, "updated_at")
	placeholders = append(placeholders, "CURRENT_TIMESTAMP")
	updates = append(updates, "updated_at = CURRENT_TIMESTAMP")

	query := fmt.Sprintf(`
INSERT INTO customer_features (%s)
VALUES (%s)
ON CONFLICT (customer_id) DO UPDATE SET %s`,
		strings.Join(insertCols, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)

	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// Clear deletes every feature row. Owned by the operator reset tool.
func (r *FeatureRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM customer_features")
	return err
}

type column struct {
	name  string
	value any
}

func allowedColumns(fields map[string]any) []column {
	cols := make([]column, 0, len(fields))
	for name, value := range fields {
		if domain.AllowedColumns[name] {
			cols = append(cols, column{name: name, value: value})
		}
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].name < cols[j].name })
	return cols
}

func allowedFloatColumns(fields map[string]float64) []column {
	anyFields := make(map[string]any, len(fields))
	for name, value := range fields {
		anyFields[name] = value
	}
	return allowedColumns(anyFields)
}
