// Package testutil holds listing fixtures shared by package tests.
package testutil

import (
	"time"

	"github.com/julianbeese/estates/internal/domain"
)

// Option mutates a fixture listing
type Option func(*domain.Listing)

// City sets the address city
func City(city string) Option {
	return func(l *domain.Listing) { l.Address.City = city }
}

// District sets the address district
func District(d string) Option {
	return func(l *domain.Listing) { l.Address.District = d }
}

// Price sets the price
func Price(p float64) Option {
	return func(l *domain.Listing) { l.Price = p }
}

// Rooms sets the room count
func Rooms(n int) Option {
	return func(l *domain.Listing) { l.Features.Rooms = n }
}

// Area sets the area in m²
func Area(a float64) Option {
	return func(l *domain.Listing) { l.Features.Area = a }
}

// Type sets the property type
func Type(t domain.PropertyType) Option {
	return func(l *domain.Listing) { l.Type = t }
}

// Status sets the listing status
func Status(s domain.ListingStatus) Option {
	return func(l *domain.Listing) { l.Status = s }
}

// Title sets the title
func Title(s string) Option {
	return func(l *domain.Listing) { l.Title = s }
}

// At sets coordinates
func At(lat, lng float64) Option {
	return func(l *domain.Listing) { l.Coordinates = &domain.Coordinates{Lat: lat, Lng: lng} }
}

// Listing builds a valid listing with sensible defaults
func Listing(id string, opts ...Option) domain.Listing {
	ts := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	l := domain.Listing{
		ID:          id,
		Title:       "Listing " + id,
		Description: "A property",
		Price:       250000,
		Currency:    "GBP",
		Type:        domain.TypeApartment,
		Status:      domain.StatusForSale,
		Address:     domain.Address{Street: "1 High Street", City: "Manchester", District: "Ancoats"},
		Features:    domain.Features{Rooms: 2, Bathrooms: 1, Area: 70},
		Images:      []string{"https://img.example.com/" + id + "/1.jpg"},
		Agent:       domain.Agent{ID: "agent-1", Name: "Sarah Collins", Phone: "+44 20 7946 0000", Email: "sarah@example.com"},
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	for _, opt := range opts {
		opt(&l)
	}
	return l
}

// FiveListings returns five listings, exactly two of which are in London
// with prices inside [100000, 200000].
func FiveListings() []domain.Listing {
	return []domain.Listing{
		Listing("1", City("London"), District("Camden"), Price(150000), Rooms(2), Area(60)),
		Listing("2", City("Manchester"), Price(120000), Rooms(3), Type(domain.TypeHouse)),
		Listing("3", City("London"), District("Hackney"), Price(900000), Rooms(4), Type(domain.TypeHouse)),
		Listing("4", City("London"), District("Islington"), Price(200000), Rooms(1), Area(45), Status(domain.StatusForRent)),
		Listing("5", City("Leeds"), Price(180000), Rooms(2), Title("Garden flat near park")),
	}
}
