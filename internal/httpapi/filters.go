package httpapi

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/julianbeese/estates/internal/domain"
)

var validate = validator.New()

func init() {
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
}

// criteriaBounds mirrors the numeric criteria for struct validation
type criteriaBounds struct {
	PriceMin *float64 `json:"priceMin" validate:"omitempty,gte=0"`
	PriceMax *float64 `json:"priceMax" validate:"omitempty,gte=0"`
	RoomsMin *int     `json:"roomsMin" validate:"omitempty,gte=0"`
	RoomsMax *int     `json:"roomsMax" validate:"omitempty,gte=0"`
	AreaMin  *float64 `json:"areaMin" validate:"omitempty,gte=0"`
	AreaMax  *float64 `json:"areaMax" validate:"omitempty,gte=0"`
}

var negativeMessages = map[string]string{
	"priceMin": "Minimum price must be 0 or greater",
	"priceMax": "Maximum price must be 0 or greater",
	"roomsMin": "Minimum rooms must be 0 or greater",
	"roomsMax": "Maximum rooms must be 0 or greater",
	"areaMin":  "Minimum area must be 0 or greater",
	"areaMax":  "Maximum area must be 0 or greater",
}

// criteriaError carries per-field problems of a rejected filter update
type criteriaError struct {
	fields map[string]string
}

func (e *criteriaError) Error() string { return "invalid filters" }

// validateCriteria checks merged criteria: known enum values, non-negative
// bounds and min <= max on every range.
func validateCriteria(c domain.Criteria) error {
	fields := map[string]string{}

	if c.Type != "" && !c.Type.Valid() {
		fields["type"] = "Unknown property type"
	}
	if c.Status != "" && !c.Status.Valid() {
		fields["status"] = "Unknown listing status"
	}

	err := validate.Struct(criteriaBounds{
		PriceMin: c.PriceMin, PriceMax: c.PriceMax,
		RoomsMin: c.RoomsMin, RoomsMax: c.RoomsMax,
		AreaMin: c.AreaMin, AreaMax: c.AreaMax,
	})
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields[fe.Field()] = negativeMessages[fe.Field()]
		}
	} else if err != nil {
		return err
	}

	if rangeInverted(c.PriceMin, c.PriceMax) {
		fields["priceMin"] = "Minimum price must be less than or equal to maximum price"
	}
	if rangeInverted(c.RoomsMin, c.RoomsMax) {
		fields["roomsMin"] = "Minimum rooms must be less than or equal to maximum rooms"
	}
	if rangeInverted(c.AreaMin, c.AreaMax) {
		fields["areaMin"] = "Minimum area must be less than or equal to maximum area"
	}

	if len(fields) > 0 {
		return &criteriaError{fields: fields}
	}
	return nil
}

func rangeInverted[T int | float64](lo, hi *T) bool {
	return lo != nil && hi != nil && *lo > *hi
}

type filtersResponse struct {
	Filters domain.Criteria `json:"filters"`
	Count   int             `json:"count"`
}

type option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type priceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type filterOptions struct {
	Cities     []string    `json:"cities"`
	Types      []option    `json:"types"`
	Statuses   []option    `json:"statuses"`
	PriceRange *priceRange `json:"priceRange"`
}

// GetFilters handles GET /api/v1/filters
func (h *Handler) GetFilters(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, filtersResponse{
		Filters: h.state.Criteria(),
		Count:   len(h.state.Filtered()),
	})
}

// PatchFilters handles PATCH /api/v1/filters. Absent fields keep their
// value, null clears them.
func (h *Handler) PatchFilters(w http.ResponseWriter, r *http.Request) {
	logger := LoggerFromContext(r.Context()).With("handler", "PatchFilters")

	var patch domain.CriteriaPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	criteria, err := h.state.TryUpdateFilters(patch, validateCriteria)
	if err != nil {
		var cerr *criteriaError
		if errors.As(err, &cerr) {
			writeValidationError(w, "Invalid filters", cerr.fields)
			return
		}
		logger.Error("filter validation failed", "error", err)
		writeServerError(w, r, http.StatusInternalServerError, "Failed to update filters")
		return
	}

	count := len(h.state.Filtered())
	h.observeFiltered(count)
	logger.Debug("filters updated", "count", count)
	RespondWithJSON(w, http.StatusOK, filtersResponse{Filters: criteria, Count: count})
}

// ResetFilters handles DELETE /api/v1/filters
func (h *Handler) ResetFilters(w http.ResponseWriter, r *http.Request) {
	h.state.ResetFilters()
	count := len(h.state.Filtered())
	h.observeFiltered(count)
	RespondWithJSON(w, http.StatusOK, filtersResponse{Filters: h.state.Criteria(), Count: count})
}

// FilterOptions handles GET /api/v1/filters/options
func (h *Handler) FilterOptions(w http.ResponseWriter, r *http.Request) {
	opts := filterOptions{
		Cities:   h.state.Cities(),
		Types:    make([]option, 0, len(domain.PropertyTypes)),
		Statuses: make([]option, 0, len(domain.ListingStatuses)),
	}
	for _, t := range domain.PropertyTypes {
		opts.Types = append(opts.Types, option{Value: string(t), Label: t.Label()})
	}
	for _, s := range domain.ListingStatuses {
		opts.Statuses = append(opts.Statuses, option{Value: string(s), Label: s.Label()})
	}
	if lo, hi, ok := h.state.PriceRange(); ok {
		opts.PriceRange = &priceRange{Min: lo, Max: hi}
	}

	RespondWithJSON(w, http.StatusOK, opts)
}
