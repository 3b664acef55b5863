package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/megamart/order-payment-service/internal/platform/httpx"
	"github.com/megamart/order-payment-service/internal/repositories"
)

// ProcessingLocationHandlers exposes the processing location catalogue.
type ProcessingLocationHandlers struct {
	locations repositories.ProcessingLocationRepository
}

// NewProcessingLocationHandlers constructs a new ProcessingLocationHandlers instance.
func NewProcessingLocationHandlers(locations repositories.ProcessingLocationRepository) *ProcessingLocationHandlers {
	return &ProcessingLocationHandlers{locations: locations}
}

// Routes registers the /api/processing-locations endpoints.
func (h *ProcessingLocationHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listActive)
}

func (h *ProcessingLocationHandlers) listActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.locations == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "location catalogue unavailable", http.StatusServiceUnavailable))
		return
	}

	locations, err := h.locations.ListActive(ctx)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("location_error", "failed to list processing locations", http.StatusInternalServerError))
		return
	}

	payload := make([]processingLocationPayload, 0, len(locations))
	for _, location := range locations {
		payload = append(payload, processingLocationPayload{
			ID:      location.ID,
			Name:    location.Name,
			Address: location.Address,
			City:    location.City,
			State:   location.State,
			Country: location.Country,
			Active:  location.Active,
		})
	}

	writeJSONResponse(w, http.StatusOK, payload)
}
