package usecase

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"pltv-feature-service/internal/events/core/domain"
)

var ErrNoCustomerID = errors.New("event has no resolvable customer id")

// Customer id is looked up in this order; the raw field names follow the
// GA4-style payloads the service receives.
const (
	fieldCustomerID     = "customer_id"
	fieldUserProperties = "user_properties"
	fieldClientInfo     = "client_info"
	fieldLegacyClientID = "client_id"

	fieldEventTimestamp  = "event_timestamp"
	fieldTimestampMicros = "timestamp_micros"
	fieldRequestStartMS  = "request_start_time_ms"
	fieldAPITimestamp    = "api_timestamp_micros"

	fieldEventName = "event_name"
	fieldEventType = "event_type"
)

// Normalize converts one raw event object into a CanonicalEvent.
// ingestedAt is the wall-clock fallback for events with no parseable
// timestamp; it also anchors the UTC normalization of epoch fields.
// The only rejection is a missing customer id.
func Normalize(raw map[string]any, ingestedAt time.Time) (domain.CanonicalEvent, error) {
	customerID := ResolveCustomerID(raw)
	if customerID == "" {
		return domain.CanonicalEvent{}, ErrNoCustomerID
	}

	return domain.CanonicalEvent{
		CustomerID: customerID,
		Kind:       resolveKind(raw),
		OccurredAt: resolveTimestamp(raw, ingestedAt),
		Value:      asFloat(raw["value"]),
		Items:      resolveItems(raw["items"]),
	}, nil
}

// ResolveCustomerID walks the identifier fallback chain:
// top-level customer_id, user_properties.user_id, client_info.client_id,
// then the legacy top-level client_id.
func ResolveCustomerID(raw map[string]any) string {
	if id := asString(raw[fieldCustomerID]); id != "" {
		return id
	}
	if props, ok := raw[fieldUserProperties].(map[string]any); ok {
		if id := asString(props["user_id"]); id != "" {
			return id
		}
	}
	if info, ok := raw[fieldClientInfo].(map[string]any); ok {
		if id := asString(info["client_id"]); id != "" {
			return id
		}
	}
	return asString(raw[fieldLegacyClientID])
}

// resolveTimestamp applies the timestamp precedence: event_timestamp,
// timestamp_micros, request_start_time_ms, api_timestamp_micros, then the
// ingestion clock. An unparseable field falls through to the next one.
func resolveTimestamp(raw map[string]any, ingestedAt time.Time) time.Time {
	if v, ok := raw[fieldEventTimestamp]; ok {
		if t, ok := parseEventTimestamp(v); ok {
			return t
		}
	}
	if v, ok := raw[fieldTimestampMicros]; ok {
		if us, ok := asInt(v); ok {
			return time.UnixMicro(us).UTC()
		}
	}
	if v, ok := raw[fieldRequestStartMS]; ok {
		if ms, ok := asInt(v); ok {
			return time.UnixMilli(ms).UTC()
		}
	}
	if v, ok := raw[fieldAPITimestamp]; ok {
		if us, ok := asInt(v); ok {
			return time.UnixMicro(us).UTC()
		}
	}
	return ingestedAt.UTC()
}

// parseEventTimestamp accepts RFC 3339 strings or epoch seconds.
func parseEventTimestamp(v any) (time.Time, bool) {
	if s := asString(v); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.UTC(), true
		}
	}
	if sec, ok := asInt(v); ok && sec > 0 {
		return time.Unix(sec, 0).UTC(), true
	}
	return time.Time{}, false
}

func resolveKind(raw map[string]any) domain.EventKind {
	name := asString(raw[fieldEventName])
	if name == "" {
		name = asString(raw[fieldEventType])
	}
	return domain.EventKind(strings.ToLower(strings.TrimSpace(name)))
}

func resolveItems(v any) []domain.Item {
	list, ok := v.([]any)
	if !ok {
		return nil
	}

	items := make([]domain.Item, 0, len(list))
	for _, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		qty := int64(1)
		if q, ok := asInt(m["quantity"]); ok {
			qty = q
		}
		items = append(items, domain.Item{
			ItemID:    asString(m["item_id"]),
			ItemBrand: asString(m["item_brand"]),
			Quantity:  qty,
		})
	}
	return items
}

func asString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// asFloat coerces the numeric shapes a decoded JSON payload can carry.
func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case float32:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return 0, false
			}
			return int64(f), true
		}
		return i, true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}
