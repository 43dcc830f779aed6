package fiber

import (
	"encoding/json"
	"errors"
)

var errNoEvents = errors.New("no events in payload")

// IngestResponse reports what happened to each event of the payload
// @Description Ingest result counts
type IngestResponse struct {
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
	Failed   int `json:"failed"`
}

type ErrorResponse struct {
	Error   string `json:"error" example:"invalid_json"`
	Message string `json:"message,omitempty"`
}

// extractRawEvents accepts the payload shapes the ingest endpoint sees in the
// wild:
//
//   - a bare event object
//   - a GA4-style batch: {"events": [...]}
//   - an envelope: {"customer_id": "...", "event_data": {"events": [...]}}
//
// The envelope's customer id is copied onto events that lack one.
func extractRawEvents(body []byte) ([]map[string]any, error) {
	var root map[string]any
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, err
	}

	if payload, ok := root["event_data"].(map[string]any); ok {
		events := eventList(payload["events"])
		if events == nil {
			// A bare event nested under event_data.
			events = []map[string]any{payload}
		}
		if id, ok := root["customer_id"].(string); ok && id != "" {
			for _, e := range events {
				if _, has := e["customer_id"]; !has {
					e["customer_id"] = id
				}
			}
		}
		return events, nil
	}

	if events := eventList(root["events"]); events != nil {
		return events, nil
	}

	if len(root) == 0 {
		return nil, errNoEvents
	}
	return []map[string]any{root}, nil
}

func eventList(v any) []map[string]any {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	events := make([]map[string]any, 0, len(list))
	for _, entry := range list {
		if m, ok := entry.(map[string]any); ok {
			events = append(events, m)
		}
	}
	return events
}
