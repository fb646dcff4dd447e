package filter

import (
	"strings"

	"github.com/julianbeese/estates/internal/domain"
	"golang.org/x/text/cases"
)

// Engine applies filter criteria to listings. It holds no state and is safe
// for concurrent use.
type Engine struct{}

// NewEngine creates a new filter engine
func NewEngine() *Engine {
	return &Engine{}
}

// FilterResult contains filtering outcome for a listing
type FilterResult struct {
	Passed  bool
	Reasons []string // Reasons for filtering out
}

// Matches reports whether the listing passes every active criterion
func (e *Engine) Matches(l *domain.Listing, c *domain.Criteria) bool {
	return Matches(l, c)
}

// Explain applies all matchers and collects every failing reason
func (e *Engine) Explain(l *domain.Listing, c *domain.Criteria) FilterResult {
	result := FilterResult{Passed: true}
	for _, matcher := range matchersFor(c) {
		if reason := matcher.Match(l); reason != "" {
			result.Passed = false
			result.Reasons = append(result.Reasons, reason)
		}
	}
	return result
}

// FilterListings returns the listings passing c, in their original order
func (e *Engine) FilterListings(listings []domain.Listing, c *domain.Criteria) []domain.Listing {
	filtered := make([]domain.Listing, 0, len(listings))
	for i := range listings {
		if Matches(&listings[i], c) {
			filtered = append(filtered, listings[i])
		}
	}
	return filtered
}

// Matches is the predicate behind the engine. It stops at the first failing
// matcher.
func Matches(l *domain.Listing, c *domain.Criteria) bool {
	for _, matcher := range matchersFor(c) {
		if matcher.Match(l) != "" {
			return false
		}
	}
	return true
}

func matchersFor(c *domain.Criteria) []Matcher {
	return []Matcher{
		&SearchMatcher{Query: c.Search},
		&LocationMatcher{City: c.City},
		&TypeMatcher{Type: c.Type},
		&StatusMatcher{Status: c.Status},
		&PriceMatcher{MinPrice: c.PriceMin, MaxPrice: c.PriceMax},
		&RoomsMatcher{MinRooms: c.RoomsMin, MaxRooms: c.RoomsMax},
		&AreaMatcher{MinArea: c.AreaMin, MaxArea: c.AreaMax},
	}
}

// Matcher interface for individual filter criteria
type Matcher interface {
	Match(listing *domain.Listing) string // Returns empty string if passes, reason if filtered
}

// SearchMatcher does a case-insensitive substring search over the text fields
type SearchMatcher struct {
	Query string
}

func (m *SearchMatcher) Match(l *domain.Listing) string {
	if m.Query == "" {
		return ""
	}
	// cases.Caser is stateful, so each match gets its own
	fold := cases.Fold()
	q := fold.String(m.Query)
	for _, field := range []string{l.Title, l.Description, l.Address.City, l.Address.District} {
		if strings.Contains(fold.String(field), q) {
			return ""
		}
	}
	return "no_search_match"
}

// LocationMatcher filters by exact city
type LocationMatcher struct {
	City string
}

func (m *LocationMatcher) Match(l *domain.Listing) string {
	if m.City != "" && l.Address.City != m.City {
		return "wrong_city"
	}
	return ""
}

// TypeMatcher filters by property type
type TypeMatcher struct {
	Type domain.PropertyType
}

func (m *TypeMatcher) Match(l *domain.Listing) string {
	if m.Type != "" && l.Type != m.Type {
		return "wrong_type"
	}
	return ""
}

// StatusMatcher filters by listing status
type StatusMatcher struct {
	Status domain.ListingStatus
}

func (m *StatusMatcher) Match(l *domain.Listing) string {
	if m.Status != "" && l.Status != m.Status {
		return "wrong_status"
	}
	return ""
}

// PriceMatcher filters by price range
type PriceMatcher struct {
	MinPrice *float64
	MaxPrice *float64
}

func (m *PriceMatcher) Match(l *domain.Listing) string {
	if m.MinPrice != nil && l.Price < *m.MinPrice {
		return "price_too_low"
	}
	if m.MaxPrice != nil && l.Price > *m.MaxPrice {
		return "price_too_high"
	}
	return ""
}

// RoomsMatcher filters by room count
type RoomsMatcher struct {
	MinRooms *int
	MaxRooms *int
}

func (m *RoomsMatcher) Match(l *domain.Listing) string {
	if m.MinRooms != nil && l.Features.Rooms < *m.MinRooms {
		return "too_few_rooms"
	}
	if m.MaxRooms != nil && l.Features.Rooms > *m.MaxRooms {
		return "too_many_rooms"
	}
	return ""
}

// AreaMatcher filters by living space
type AreaMatcher struct {
	MinArea *float64
	MaxArea *float64
}

func (m *AreaMatcher) Match(l *domain.Listing) string {
	if m.MinArea != nil && l.Features.Area < *m.MinArea {
		return "area_too_small"
	}
	if m.MaxArea != nil && l.Features.Area > *m.MaxArea {
		return "area_too_large"
	}
	return ""
}
