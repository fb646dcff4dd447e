// Package compare builds the side-by-side comparison of the compare set.
package compare

import (
	"strconv"

	"github.com/julianbeese/estates/internal/domain"
	"github.com/julianbeese/estates/internal/messenger"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const missing = "-"

// Column heads one compared listing
type Column struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
	Image  string `json:"image,omitempty"`
}

// Row is one attribute across all compared listings
type Row struct {
	Label     string   `json:"label"`
	Values    []string `json:"values"`
	Highlight bool     `json:"highlight,omitempty"`
}

// Table is the full comparison
type Table struct {
	Columns []Column `json:"columns"`
	Rows    []Row    `json:"rows"`
}

type cell func(l *domain.Listing) string

var rows = []struct {
	label     string
	highlight bool
	value     cell
}{
	{"Price", true, func(l *domain.Listing) string { return messenger.FormatPrice(l.Price, l.Currency) }},
	{"Property Type", false, func(l *domain.Listing) string { return l.Type.Label() }},
	{"Location", false, func(l *domain.Listing) string { return orMissing(l.Address.City) }},
	{"Bedrooms", false, func(l *domain.Listing) string { return positive(l.Features.Rooms) }},
	{"Bathrooms", false, func(l *domain.Listing) string { return positive(l.Features.Bathrooms) }},
	{"Area", true, func(l *domain.Listing) string { return FormatArea(l.Features.Area) }},
	{"Floor", false, floor},
	{"Building Age", false, func(l *domain.Listing) string {
		if l.Features.BuildingAge == nil {
			return missing
		}
		return strconv.Itoa(*l.Features.BuildingAge) + " years"
	}},
	{"Heating", false, func(l *domain.Listing) string { return orMissing(l.Features.Heating) }},
	{"Parking", false, func(l *domain.Listing) string { return yesNo(l.Features.Parking) }},
	{"Furnished", false, func(l *domain.Listing) string { return yesNo(l.Features.Furnished) }},
	{"Balcony", false, func(l *domain.Listing) string { return yesNo(l.Features.Balcony) }},
	{"Elevator", false, func(l *domain.Listing) string { return yesNo(l.Features.Elevator) }},
}

// Build lays listings out column by column in the given order
func Build(listings []domain.Listing) Table {
	t := Table{
		Columns: make([]Column, 0, len(listings)),
		Rows:    make([]Row, 0, len(rows)),
	}
	for i := range listings {
		l := &listings[i]
		t.Columns = append(t.Columns, Column{
			ID:     l.ID,
			Title:  l.Title,
			Status: l.Status.Label(),
			Image:  l.PrimaryImage(),
		})
	}
	for _, r := range rows {
		values := make([]string, 0, len(listings))
		for i := range listings {
			values = append(values, r.value(&listings[i]))
		}
		t.Rows = append(t.Rows, Row{Label: r.label, Values: values, Highlight: r.highlight})
	}
	return t
}

var printer = message.NewPrinter(language.BritishEnglish)

// FormatArea renders an area in square metres, e.g. "1,250 m²"
func FormatArea(area float64) string {
	if area == float64(int64(area)) {
		return printer.Sprintf("%d m²", int64(area))
	}
	return printer.Sprintf("%.1f m²", area)
}

func floor(l *domain.Listing) string {
	if l.Features.Floor == nil {
		return missing
	}
	s := strconv.Itoa(*l.Features.Floor)
	if l.Features.TotalFloors != nil {
		s += "/" + strconv.Itoa(*l.Features.TotalFloors)
	}
	return s
}

func positive(n int) string {
	if n <= 0 {
		return missing
	}
	return strconv.Itoa(n)
}

func orMissing(s string) string {
	if s == "" {
		return missing
	}
	return s
}

func yesNo(b *bool) string {
	if b != nil && *b {
		return "Yes"
	}
	return "No"
}
