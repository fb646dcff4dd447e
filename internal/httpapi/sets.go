package httpapi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/julianbeese/estates/internal/compare"
	"github.com/julianbeese/estates/internal/domain"
	"github.com/julianbeese/estates/internal/idset"
)

type savedListings struct {
	IDs      []string         `json:"ids"`
	Listings []domain.Listing `json:"listings"`
}

type toggleResponse struct {
	ID      string   `json:"id"`
	Outcome string   `json:"outcome"`
	Active  bool     `json:"active"`
	IDs     []string `json:"ids"`
}

type compareResponse struct {
	IDs        []string      `json:"ids"`
	Remaining  int           `json:"remaining"`
	CanAddMore bool          `json:"canAddMore"`
	Table      compare.Table `json:"table"`
}

// GetFavorites handles GET /api/v1/favorites
func (h *Handler) GetFavorites(w http.ResponseWriter, r *http.Request) {
	ids := h.favorites.IDs()
	RespondWithJSON(w, http.StatusOK, savedListings{IDs: ids, Listings: h.state.Resolve(ids)})
}

// ToggleFavorite handles POST /api/v1/favorites/{id}/toggle
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	logger := LoggerFromContext(r.Context()).With("handler", "ToggleFavorite", "listing_id", id)

	outcome, err := h.favorites.Toggle(r.Context(), id)
	if err != nil {
		logger.Error("toggle favorite failed", "error", err)
		writeServerError(w, r, http.StatusInternalServerError, "Failed to update favorites")
		return
	}

	RespondWithJSON(w, http.StatusOK, toggleResponse{
		ID:      id,
		Outcome: outcome.String(),
		Active:  outcome == idset.Added,
		IDs:     h.favorites.IDs(),
	})
}

// ClearFavorites handles DELETE /api/v1/favorites
func (h *Handler) ClearFavorites(w http.ResponseWriter, r *http.Request) {
	if err := h.favorites.Clear(r.Context()); err != nil {
		LoggerFromContext(r.Context()).Error("clear favorites failed", "error", err)
		writeServerError(w, r, http.StatusInternalServerError, "Failed to clear favorites")
		return
	}
	RespondWithJSON(w, http.StatusOK, savedListings{IDs: h.favorites.IDs(), Listings: []domain.Listing{}})
}

// GetCompare handles GET /api/v1/compare
func (h *Handler) GetCompare(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, h.compareView())
}

// ToggleCompare handles POST /api/v1/compare/{id}/toggle. Adding to a full
// compare list is a conflict.
func (h *Handler) ToggleCompare(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	logger := LoggerFromContext(r.Context()).With("handler", "ToggleCompare", "listing_id", id)

	outcome, err := h.compare.Toggle(r.Context(), id)
	if err != nil {
		logger.Error("toggle compare failed", "error", err)
		writeServerError(w, r, http.StatusInternalServerError, "Failed to update compare list")
		return
	}
	if outcome == idset.CapacityExceeded {
		WriteJSONError(w, http.StatusConflict, fmt.Sprintf("You can compare up to %d properties", idset.MaxCompare))
		return
	}

	RespondWithJSON(w, http.StatusOK, toggleResponse{
		ID:      id,
		Outcome: outcome.String(),
		Active:  outcome == idset.Added,
		IDs:     h.compare.IDs(),
	})
}

// AddCompare handles PUT /api/v1/compare/{id}. Adding a member is a no-op.
func (h *Handler) AddCompare(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	outcome, err := h.compare.Add(r.Context(), id)
	if err != nil {
		LoggerFromContext(r.Context()).Error("add to compare failed", "listing_id", id, "error", err)
		writeServerError(w, r, http.StatusInternalServerError, "Failed to update compare list")
		return
	}
	if outcome == idset.CapacityExceeded {
		WriteJSONError(w, http.StatusConflict, fmt.Sprintf("You can compare up to %d properties", idset.MaxCompare))
		return
	}
	RespondWithJSON(w, http.StatusOK, h.compareView())
}

// RemoveCompare handles DELETE /api/v1/compare/{id}
func (h *Handler) RemoveCompare(w http.ResponseWriter, r *http.Request) {
	if err := h.compare.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		LoggerFromContext(r.Context()).Error("remove from compare failed", "error", err)
		writeServerError(w, r, http.StatusInternalServerError, "Failed to update compare list")
		return
	}
	RespondWithJSON(w, http.StatusOK, h.compareView())
}

// ClearCompare handles DELETE /api/v1/compare
func (h *Handler) ClearCompare(w http.ResponseWriter, r *http.Request) {
	if err := h.compare.Clear(r.Context()); err != nil {
		LoggerFromContext(r.Context()).Error("clear compare failed", "error", err)
		writeServerError(w, r, http.StatusInternalServerError, "Failed to clear compare list")
		return
	}
	RespondWithJSON(w, http.StatusOK, h.compareView())
}

func (h *Handler) compareView() compareResponse {
	ids := h.compare.IDs()
	return compareResponse{
		IDs:        ids,
		Remaining:  h.compare.Remaining(),
		CanAddMore: h.compare.CanAddMore(),
		Table:      compare.Build(h.state.Resolve(ids)),
	}
}

// GetRecent handles GET /api/v1/recent, most recent first
func (h *Handler) GetRecent(w http.ResponseWriter, r *http.Request) {
	ids := h.recent.IDs()
	RespondWithJSON(w, http.StatusOK, savedListings{IDs: ids, Listings: h.state.Resolve(ids)})
}

// RemoveRecent handles DELETE /api/v1/recent/{id}
func (h *Handler) RemoveRecent(w http.ResponseWriter, r *http.Request) {
	if err := h.recent.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		LoggerFromContext(r.Context()).Error("remove recent view failed", "error", err)
		writeServerError(w, r, http.StatusInternalServerError, "Failed to update recently viewed")
		return
	}
	ids := h.recent.IDs()
	RespondWithJSON(w, http.StatusOK, savedListings{IDs: ids, Listings: h.state.Resolve(ids)})
}

// ClearRecent handles DELETE /api/v1/recent
func (h *Handler) ClearRecent(w http.ResponseWriter, r *http.Request) {
	if err := h.recent.Clear(r.Context()); err != nil {
		LoggerFromContext(r.Context()).Error("clear recent views failed", "error", err)
		writeServerError(w, r, http.StatusInternalServerError, "Failed to clear recently viewed")
		return
	}
	RespondWithJSON(w, http.StatusOK, savedListings{IDs: h.recent.IDs(), Listings: []domain.Listing{}})
}
