package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/megamart/order-payment-service/internal/repositories/memory"
)

func TestProcessingLocationHandlersListActive(t *testing.T) {
	store := memory.NewStore()
	handler := NewProcessingLocationHandlers(store.ProcessingLocations())
	router := chi.NewRouter()
	router.Route("/api/processing-locations", handler.Routes)

	req := httptest.NewRequest(http.MethodGet, "/api/processing-locations", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp []processingLocationPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp) == 0 {
		t.Fatal("expected seeded locations")
	}
	for _, location := range resp {
		if !location.Active {
			t.Fatalf("expected only active locations, got %#v", location)
		}
		if location.Name == "" {
			t.Fatalf("expected named location, got %#v", location)
		}
	}
}

func TestProcessingLocationHandlersUnconfigured(t *testing.T) {
	handler := NewProcessingLocationHandlers(nil)
	router := chi.NewRouter()
	router.Route("/api/processing-locations", handler.Routes)

	req := httptest.NewRequest(http.MethodGet, "/api/processing-locations", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
}
