package filter

import (
	"testing"

	"github.com/julianbeese/estates/internal/domain"
	"github.com/julianbeese/estates/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func ids(listings []domain.Listing) []string {
	out := make([]string, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.ID)
	}
	return out
}

func TestEmptyCriteriaAlwaysPasses(t *testing.T) {
	e := NewEngine()
	for _, l := range testutil.FiveListings() {
		assert.True(t, e.Matches(&l, &domain.Criteria{}), l.ID)
	}
}

func TestSearchIsCaseInsensitiveAcrossFields(t *testing.T) {
	l := testutil.Listing("x",
		testutil.Title("Sunny Loft"),
		testutil.City("Brighton"),
		testutil.District("Kemptown"),
	)
	l.Description = "Close to the SEAFRONT"

	tests := []struct {
		query string
		want  bool
	}{
		{"sunny", true},
		{"SEAfront", true},
		{"brighton", true},
		{"kemp", true},
		{"castle", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(&l, &domain.Criteria{Search: tt.query}))
		})
	}
}

func TestExactMatchFields(t *testing.T) {
	l := testutil.Listing("x", testutil.City("London"), testutil.Type(domain.TypeVilla), testutil.Status(domain.StatusSold))

	assert.True(t, Matches(&l, &domain.Criteria{City: "London"}))
	assert.False(t, Matches(&l, &domain.Criteria{City: "london"}))
	assert.True(t, Matches(&l, &domain.Criteria{Type: domain.TypeVilla}))
	assert.False(t, Matches(&l, &domain.Criteria{Type: domain.TypeShop}))
	assert.True(t, Matches(&l, &domain.Criteria{Status: domain.StatusSold}))
	assert.False(t, Matches(&l, &domain.Criteria{Status: domain.StatusRented}))
}

func TestRangesAreInclusive(t *testing.T) {
	l := testutil.Listing("x", testutil.Price(200000), testutil.Rooms(3), testutil.Area(80))

	assert.True(t, Matches(&l, &domain.Criteria{PriceMin: ptr(200000.0), PriceMax: ptr(200000.0)}))
	assert.False(t, Matches(&l, &domain.Criteria{PriceMin: ptr(200000.01)}))
	assert.False(t, Matches(&l, &domain.Criteria{PriceMax: ptr(199999.0)}))
	assert.True(t, Matches(&l, &domain.Criteria{RoomsMin: ptr(3), RoomsMax: ptr(3)}))
	assert.False(t, Matches(&l, &domain.Criteria{RoomsMin: ptr(4)}))
	assert.False(t, Matches(&l, &domain.Criteria{RoomsMax: ptr(2)}))
	assert.True(t, Matches(&l, &domain.Criteria{AreaMin: ptr(80.0)}))
	assert.False(t, Matches(&l, &domain.Criteria{AreaMax: ptr(79.5)}))
}

func TestMatchesIsDeterministic(t *testing.T) {
	c := domain.Criteria{Search: "park", PriceMax: ptr(190000.0)}
	for _, l := range testutil.FiveListings() {
		first := Matches(&l, &c)
		assert.Equal(t, first, Matches(&l, &c), l.ID)
	}
}

func TestFilteringIsConjunctive(t *testing.T) {
	e := NewEngine()
	listings := testutil.FiveListings()

	both := e.FilterListings(listings, &domain.Criteria{City: "London", Type: domain.TypeApartment})
	byCity := e.FilterListings(listings, &domain.Criteria{City: "London"})
	byType := e.FilterListings(listings, &domain.Criteria{Type: domain.TypeApartment})

	var intersection []string
	for _, a := range ids(byCity) {
		for _, b := range ids(byType) {
			if a == b {
				intersection = append(intersection, a)
			}
		}
	}
	assert.Equal(t, intersection, ids(both))
	assert.Equal(t, []string{"1", "4"}, ids(both))
}

func TestLondonPriceScenario(t *testing.T) {
	e := NewEngine()
	got := e.FilterListings(testutil.FiveListings(), &domain.Criteria{
		City:     "London",
		PriceMin: ptr(100000.0),
		PriceMax: ptr(200000.0),
	})
	assert.Equal(t, []string{"1", "4"}, ids(got))
}

func TestExplainCollectsEveryReason(t *testing.T) {
	l := testutil.Listing("x", testutil.City("Leeds"), testutil.Price(50000), testutil.Rooms(1))
	res := NewEngine().Explain(&l, &domain.Criteria{
		City:     "London",
		PriceMin: ptr(100000.0),
		RoomsMin: ptr(2),
	})

	assert.False(t, res.Passed)
	assert.Equal(t, []string{"wrong_city", "price_too_low", "too_few_rooms"}, res.Reasons)
}
