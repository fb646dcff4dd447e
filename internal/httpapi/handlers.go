package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/julianbeese/estates/internal/contact"
	"github.com/julianbeese/estates/internal/domain"
	"github.com/julianbeese/estates/internal/idset"
	"github.com/julianbeese/estates/internal/mapview"
	"github.com/julianbeese/estates/internal/messenger"
	"github.com/julianbeese/estates/internal/metrics"
	"github.com/julianbeese/estates/internal/selection"
)

// Deps are the services behind the API. Metrics may be nil.
type Deps struct {
	State        *selection.State
	Favorites    *idset.Favorites
	Compare      *idset.Compare
	Recent       *idset.Recent
	Contact      *contact.Service
	Messages     *messenger.Generator
	Metrics      *metrics.Metrics
	MapPrecision uint
}

// Handler serves every API route
type Handler struct {
	state        *selection.State
	favorites    *idset.Favorites
	compare      *idset.Compare
	recent       *idset.Recent
	contact      *contact.Service
	messages     *messenger.Generator
	metrics      *metrics.Metrics
	mapPrecision uint
}

// NewHandler creates a handler over deps
func NewHandler(deps Deps) *Handler {
	precision := deps.MapPrecision
	if precision == 0 {
		precision = mapview.DefaultPrecision
	}
	return &Handler{
		state:        deps.State,
		favorites:    deps.Favorites,
		compare:      deps.Compare,
		recent:       deps.Recent,
		contact:      deps.Contact,
		messages:     deps.Messages,
		metrics:      deps.Metrics,
		mapPrecision: precision,
	}
}

type listingDetail struct {
	Listing    *domain.Listing `json:"listing"`
	IsFavorite bool            `json:"isFavorite"`
	InCompare  bool            `json:"inCompare"`
}

type listingCollection struct {
	Listings []domain.Listing `json:"listings"`
	Total    int              `json:"total"`
}

// Health reports liveness and the size of the held catalog
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"listings": h.state.Len(),
	})
}

// ListListings handles GET /api/v1/listings. The first call loads the
// catalog; a failed load is reported in the snapshot's error field.
func (h *Handler) ListListings(w http.ResponseWriter, r *http.Request) {
	logger := LoggerFromContext(r.Context()).With("handler", "ListListings")

	if err := h.state.EnsureLoaded(r.Context()); err != nil {
		logger.Warn("initial catalog load failed", "error", err)
	}

	snap := h.state.Snapshot()
	h.observeFiltered(len(snap.Filtered))
	RespondWithJSON(w, http.StatusOK, snap)
}

// AllListings handles GET /api/v1/listings/all
func (h *Handler) AllListings(w http.ResponseWriter, r *http.Request) {
	all := h.state.Listings()
	RespondWithJSON(w, http.StatusOK, listingCollection{Listings: all, Total: len(all)})
}

// RefreshListings handles POST /api/v1/listings/refresh
func (h *Handler) RefreshListings(w http.ResponseWriter, r *http.Request) {
	logger := LoggerFromContext(r.Context()).With("handler", "RefreshListings")

	if err := h.state.Fetch(r.Context()); err != nil {
		logger.Error("catalog refresh failed", "error", err)
		writeServerError(w, r, http.StatusBadGateway, "Failed to fetch listings")
		return
	}

	snap := h.state.Snapshot()
	h.observeFiltered(len(snap.Filtered))
	RespondWithJSON(w, http.StatusOK, snap)
}

// GetListing handles GET /api/v1/listings/{id}: selects the listing and
// records it as recently viewed.
func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	logger := LoggerFromContext(r.Context()).With("handler", "GetListing", "listing_id", id)

	listing, err := h.state.Select(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			WriteJSONError(w, http.StatusNotFound, "Listing not found")
			return
		}
		logger.Error("select listing failed", "error", err)
		writeServerError(w, r, http.StatusBadGateway, "Failed to load listing")
		return
	}

	// a lost recent entry must not fail the page
	if err := h.recent.Record(r.Context(), id); err != nil {
		logger.Warn("record recent view failed", "error", err)
	}

	RespondWithJSON(w, http.StatusOK, listingDetail{
		Listing:    listing,
		IsFavorite: h.favorites.Contains(id),
		InCompare:  h.compare.Contains(id),
	})
}

// ContactTemplate handles GET /api/v1/listings/{id}/contact-template
func (h *Handler) ContactTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	logger := LoggerFromContext(r.Context()).With("handler", "ContactTemplate", "listing_id", id)

	listing, ok := h.state.Lookup(id)
	if !ok {
		WriteJSONError(w, http.StatusNotFound, "Listing not found")
		return
	}

	msg, err := h.messages.Generate(listing)
	if err != nil {
		logger.Error("render contact template failed", "error", err)
		writeServerError(w, r, http.StatusInternalServerError, "Failed to prepare message")
		return
	}

	RespondWithJSON(w, http.StatusOK, map[string]string{
		"listingId": id,
		"message":   msg,
	})
}

// Map handles GET /api/v1/map over the filtered subset
func (h *Handler) Map(w http.ResponseWriter, r *http.Request) {
	precision := h.mapPrecision
	if raw := r.URL.Query().Get("precision"); raw != "" {
		p, err := strconv.ParseUint(raw, 10, 8)
		if err != nil || p < 1 || p > mapview.MaxPrecision {
			WriteJSONError(w, http.StatusBadRequest, "precision must be between 1 and 12")
			return
		}
		precision = uint(p)
	}

	RespondWithJSON(w, http.StatusOK, mapview.Build(h.state.Filtered(), precision))
}

// Contact handles POST /api/v1/contact
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	logger := LoggerFromContext(r.Context()).With("handler", "Contact")

	var req contact.Request
	if err := decodeJSON(w, r, &req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.contact.Submit(r.Context(), req)
	if err != nil {
		var verr *contact.ValidationError
		switch {
		case errors.As(err, &verr):
			writeValidationError(w, "Invalid contact form", verr.Fields)
		case errors.Is(err, domain.ErrNotFound):
			WriteJSONError(w, http.StatusNotFound, "Listing not found")
		default:
			logger.Error("contact submission failed", "error", err)
			h.observeInquiry(false)
			writeServerError(w, r, http.StatusInternalServerError, contact.MessageFailed)
		}
		return
	}

	h.observeInquiry(res.Success)
	if !res.Success {
		logger.Warn("inquiry not delivered", slog.String("inquiry_id", res.InquiryID))
		RespondWithJSON(w, http.StatusBadGateway, res)
		return
	}
	RespondWithJSON(w, http.StatusOK, res)
}

func (h *Handler) observeFiltered(n int) {
	if h.metrics != nil {
		h.metrics.SetFiltered(n)
	}
}

func (h *Handler) observeInquiry(success bool) {
	if h.metrics != nil {
		h.metrics.InquiryHandled(success)
	}
}
