package fiber

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"pltv-feature-service/internal/events/core/usecase"

	"github.com/gofiber/fiber/v2"
)

type fakeIngestUseCase struct {
	ExecuteFn func(ctx context.Context, rawEvents []map[string]any) (usecase.IngestResult, error)
	LastInput []map[string]any
}

func (f *fakeIngestUseCase) Execute(ctx context.Context, rawEvents []map[string]any) (usecase.IngestResult, error) {
	f.LastInput = rawEvents
	if f.ExecuteFn != nil {
		return f.ExecuteFn(ctx, rawEvents)
	}
	return usecase.IngestResult{Accepted: len(rawEvents)}, nil
}

// helper: create fiber app and routes
func setupTestApp(uc IngestEventsUseCase) *fiber.App {
	app := fiber.New()
	h := NewEventHandler(uc)

	app.Post("/events", h.IngestEvent)
	app.Post("/events/bulk", h.BulkIngestEvents)

	return app
}

// helper: send request
func doRequest(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		buf = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	_ = resp.Body.Close()

	return resp, respBody
}

// ------------------------------------------------------------
// SINGLE EVENT SHAPES
// ------------------------------------------------------------

func TestIngestEvent_BareEvent(t *testing.T) {
	uc := &fakeIngestUseCase{}
	app := setupTestApp(uc)

	resp, body := doRequest(t, app, http.MethodPost, "/events", map[string]any{
		"customer_id": "c_1",
		"event_name":  "page_view",
	})

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", resp.StatusCode, body)
	}
	if len(uc.LastInput) != 1 {
		t.Fatalf("expected 1 raw event, got %d", len(uc.LastInput))
	}

	var out IngestResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("invalid response json: %v", err)
	}
	if out.Accepted != 1 {
		t.Fatalf("expected accepted=1, got %+v", out)
	}
}

func TestIngestEvent_Envelope(t *testing.T) {
	uc := &fakeIngestUseCase{}
	app := setupTestApp(uc)

	resp, body := doRequest(t, app, http.MethodPost, "/events", map[string]any{
		"customer_id": "c_1",
		"event_data": map[string]any{
			"events": []any{
				map[string]any{"event_name": "page_view"},
				map[string]any{"event_name": "purchase", "value": 100.0},
			},
		},
	})

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", resp.StatusCode, body)
	}
	if len(uc.LastInput) != 2 {
		t.Fatalf("expected 2 raw events, got %d", len(uc.LastInput))
	}
	// The envelope id must land on events that lack one.
	if uc.LastInput[0]["customer_id"] != "c_1" {
		t.Fatalf("expected envelope customer_id to propagate, got %v", uc.LastInput[0])
	}
}

func TestIngestEvent_GA4Batch(t *testing.T) {
	uc := &fakeIngestUseCase{}
	app := setupTestApp(uc)

	resp, _ := doRequest(t, app, http.MethodPost, "/events", map[string]any{
		"events": []any{
			map[string]any{"client_id": "c_1", "event_name": "page_view"},
			map[string]any{"client_id": "c_2", "event_name": "page_view"},
		},
	})

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	if len(uc.LastInput) != 2 {
		t.Fatalf("expected 2 raw events, got %d", len(uc.LastInput))
	}
}

// ------------------------------------------------------------
// ERROR PATHS
// ------------------------------------------------------------

func TestIngestEvent_InvalidJSON(t *testing.T) {
	app := setupTestApp(&fakeIngestUseCase{})

	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestBulkIngestEvents_EmptyList(t *testing.T) {
	app := setupTestApp(&fakeIngestUseCase{})

	resp, body := doRequest(t, app, http.MethodPost, "/events/bulk", map[string]any{
		"events": []any{},
	})

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.StatusCode, body)
	}
}

func TestIngestEvent_StoreUnavailable(t *testing.T) {
	uc := &fakeIngestUseCase{
		ExecuteFn: func(ctx context.Context, rawEvents []map[string]any) (usecase.IngestResult, error) {
			return usecase.IngestResult{Failed: len(rawEvents)}, nil
		},
	}
	app := setupTestApp(uc)

	resp, body := doRequest(t, app, http.MethodPost, "/events", map[string]any{
		"customer_id": "c_1",
		"event_name":  "page_view",
	})

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", resp.StatusCode, body)
	}
}

func TestIngestEvent_PartialFailureStillAccepted(t *testing.T) {
	uc := &fakeIngestUseCase{
		ExecuteFn: func(ctx context.Context, rawEvents []map[string]any) (usecase.IngestResult, error) {
			return usecase.IngestResult{Accepted: 1, Failed: 1}, nil
		},
	}
	app := setupTestApp(uc)

	resp, body := doRequest(t, app, http.MethodPost, "/events/bulk", map[string]any{
		"events": []any{
			map[string]any{"customer_id": "c_1", "event_name": "page_view"},
			map[string]any{"customer_id": "c_2", "event_name": "page_view"},
		},
	})

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202 for partial success, got %d: %s", resp.StatusCode, body)
	}

	var out IngestResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("invalid response json: %v", err)
	}
	if out.Accepted != 1 || out.Failed != 1 {
		t.Fatalf("unexpected counts: %+v", out)
	}
}
