package domain

import (
	"bytes"
	"encoding/json"
)

// Criteria is the set of active filter constraints. A nil bound is unbounded
// on that side; an empty string matches everything.
type Criteria struct {
	Search   string        `json:"search"`
	City     string        `json:"city"`
	Type     PropertyType  `json:"type"`
	Status   ListingStatus `json:"status"`
	PriceMin *float64      `json:"priceMin"`
	PriceMax *float64      `json:"priceMax"`
	RoomsMin *int          `json:"roomsMin"`
	RoomsMax *int          `json:"roomsMax"`
	AreaMin  *float64      `json:"areaMin"`
	AreaMax  *float64      `json:"areaMax"`
}

// DefaultCriteria returns the all-unbounded criteria
func DefaultCriteria() Criteria {
	return Criteria{}
}

// IsEmpty reports whether no constraint is active
func (c Criteria) IsEmpty() bool {
	return c == Criteria{}
}

// Field is one slot of a CriteriaPatch. An unset field keeps the prior value;
// a set field with a nil Value clears it.
type Field[T any] struct {
	Set   bool
	Value *T
}

// SetTo returns a field that overwrites with v
func SetTo[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: &v}
}

// Clear returns a field that resets the slot to its zero/unbounded state
func Clear[T any]() Field[T] {
	return Field[T]{Set: true}
}

// UnmarshalJSON marks the field as present; JSON null clears it.
func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		f.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	f.Value = &v
	return nil
}

// CriteriaPatch is a partial criteria update
type CriteriaPatch struct {
	Search   Field[string]        `json:"search"`
	City     Field[string]        `json:"city"`
	Type     Field[PropertyType]  `json:"type"`
	Status   Field[ListingStatus] `json:"status"`
	PriceMin Field[float64]       `json:"priceMin"`
	PriceMax Field[float64]       `json:"priceMax"`
	RoomsMin Field[int]           `json:"roomsMin"`
	RoomsMax Field[int]           `json:"roomsMax"`
	AreaMin  Field[float64]       `json:"areaMin"`
	AreaMax  Field[float64]       `json:"areaMax"`
}

// Apply shallow-merges the patch into c and returns the result
func (p CriteriaPatch) Apply(c Criteria) Criteria {
	c.Search = mergeValue(c.Search, p.Search)
	c.City = mergeValue(c.City, p.City)
	c.Type = mergeValue(c.Type, p.Type)
	c.Status = mergeValue(c.Status, p.Status)
	c.PriceMin = mergeBound(c.PriceMin, p.PriceMin)
	c.PriceMax = mergeBound(c.PriceMax, p.PriceMax)
	c.RoomsMin = mergeBound(c.RoomsMin, p.RoomsMin)
	c.RoomsMax = mergeBound(c.RoomsMax, p.RoomsMax)
	c.AreaMin = mergeBound(c.AreaMin, p.AreaMin)
	c.AreaMax = mergeBound(c.AreaMax, p.AreaMax)
	return c
}

func mergeValue[T any](cur T, f Field[T]) T {
	if !f.Set {
		return cur
	}
	if f.Value == nil {
		var zero T
		return zero
	}
	return *f.Value
}

func mergeBound[T any](cur *T, f Field[T]) *T {
	if !f.Set {
		return cur
	}
	if f.Value == nil {
		return nil
	}
	v := *f.Value
	return &v
}
