// Package mapview projects listings onto map markers, per-city groups and
// geohash clusters.
package mapview

import (
	"github.com/julianbeese/estates/internal/domain"
	"github.com/mmcloughlin/geohash"
)

const (
	DefaultPrecision = 5
	MaxPrecision     = 12
)

// UKCentre is used when neither the listing nor its city has a position
var UKCentre = domain.Coordinates{Lat: 54.0, Lng: -2.0}

// CityCentres holds the positions of known cities
var CityCentres = map[string]domain.Coordinates{
	"London":     {Lat: 51.5074, Lng: -0.1278},
	"Manchester": {Lat: 53.4808, Lng: -2.2426},
	"Birmingham": {Lat: 52.4862, Lng: -1.8904},
	"Leeds":      {Lat: 53.8008, Lng: -1.5491},
	"Liverpool":  {Lat: 53.4084, Lng: -2.9916},
	"Bristol":    {Lat: 51.4545, Lng: -2.5879},
	"Sheffield":  {Lat: 53.3811, Lng: -1.4701},
	"Edinburgh":  {Lat: 55.9533, Lng: -3.1883},
	"Brighton":   {Lat: 50.8225, Lng: -0.1372},
	"Cambridge":  {Lat: 52.2053, Lng: 0.1218},
	"Guildford":  {Lat: 51.2362, Lng: -0.5704},
}

// Marker is one listing on the map
type Marker struct {
	ID       string             `json:"id"`
	Title    string             `json:"title"`
	City     string             `json:"city"`
	Price    float64            `json:"price"`
	Currency string             `json:"currency"`
	Position domain.Coordinates `json:"position"`
	// Approximate is set when the position is a city or country centre
	Approximate bool   `json:"approximate"`
	Geohash     string `json:"geohash"`
}

// Group is a set of listings shown under one marker
type Group struct {
	Key      string             `json:"key"`
	Position domain.Coordinates `json:"position"`
	Count    int                `json:"count"`
	IDs      []string           `json:"ids"`
}

// View is everything the map needs
type View struct {
	Centre    domain.Coordinates `json:"centre"`
	Precision uint               `json:"precision"`
	Total     int                `json:"total"`
	Markers   []Marker           `json:"markers"`
	Cities    []Group            `json:"cities"`
	Clusters  []Group            `json:"clusters"`
}

// Position returns where a listing is drawn and whether that is approximate
func Position(l *domain.Listing) (domain.Coordinates, bool) {
	if l.Coordinates != nil {
		return *l.Coordinates, false
	}
	if c, ok := CityCentres[l.Address.City]; ok {
		return c, true
	}
	return UKCentre, true
}

// Build projects listings. Groups appear in order of first occurrence. City
// groups sit at the position of their first listing; clusters at the centre
// of their geohash cell. Out-of-range precision falls back to the default.
func Build(listings []domain.Listing, precision uint) View {
	if precision == 0 || precision > MaxPrecision {
		precision = DefaultPrecision
	}

	v := View{
		Centre:    UKCentre,
		Precision: precision,
		Total:     len(listings),
		Markers:   make([]Marker, 0, len(listings)),
		Cities:    []Group{},
		Clusters:  []Group{},
	}

	cityIdx := map[string]int{}
	cellIdx := map[string]int{}

	for i := range listings {
		l := &listings[i]
		pos, approx := Position(l)
		hash := geohash.EncodeWithPrecision(pos.Lat, pos.Lng, precision)

		v.Markers = append(v.Markers, Marker{
			ID:          l.ID,
			Title:       l.Title,
			City:        l.Address.City,
			Price:       l.Price,
			Currency:    l.Currency,
			Position:    pos,
			Approximate: approx,
			Geohash:     hash,
		})

		if j, ok := cityIdx[l.Address.City]; ok {
			v.Cities[j].Count++
			v.Cities[j].IDs = append(v.Cities[j].IDs, l.ID)
		} else {
			cityIdx[l.Address.City] = len(v.Cities)
			v.Cities = append(v.Cities, Group{Key: l.Address.City, Position: pos, Count: 1, IDs: []string{l.ID}})
		}

		if j, ok := cellIdx[hash]; ok {
			v.Clusters[j].Count++
			v.Clusters[j].IDs = append(v.Clusters[j].IDs, l.ID)
		} else {
			lat, lng := geohash.DecodeCenter(hash)
			cellIdx[hash] = len(v.Clusters)
			v.Clusters = append(v.Clusters, Group{
				Key:      hash,
				Position: domain.Coordinates{Lat: lat, Lng: lng},
				Count:    1,
				IDs:      []string{l.ID},
			})
		}
	}
	return v
}
