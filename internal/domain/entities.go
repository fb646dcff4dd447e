package domain

import "time"

// PropertyType enumerates the kinds of property a listing can offer
type PropertyType string

const (
	TypeApartment PropertyType = "apartment"
	TypeHouse     PropertyType = "house"
	TypeVilla     PropertyType = "villa"
	TypeLand      PropertyType = "land"
	TypeOffice    PropertyType = "office"
	TypeShop      PropertyType = "shop"
)

// PropertyTypes lists every known property type in display order
var PropertyTypes = []PropertyType{TypeApartment, TypeHouse, TypeVilla, TypeLand, TypeOffice, TypeShop}

// Valid reports whether t is one of the known property types
func (t PropertyType) Valid() bool {
	for _, known := range PropertyTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Label returns the human readable name of the property type
func (t PropertyType) Label() string {
	switch t {
	case TypeApartment:
		return "Apartment"
	case TypeHouse:
		return "House"
	case TypeVilla:
		return "Villa"
	case TypeLand:
		return "Land"
	case TypeOffice:
		return "Office"
	case TypeShop:
		return "Shop"
	}
	return string(t)
}

// ListingStatus is the market state of a listing
type ListingStatus string

const (
	StatusForSale ListingStatus = "for-sale"
	StatusForRent ListingStatus = "for-rent"
	StatusSold    ListingStatus = "sold"
	StatusRented  ListingStatus = "rented"
)

// ListingStatuses lists every known status in display order
var ListingStatuses = []ListingStatus{StatusForSale, StatusForRent, StatusSold, StatusRented}

// Valid reports whether s is one of the known statuses
func (s ListingStatus) Valid() bool {
	for _, known := range ListingStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Label returns the human readable name of the status
func (s ListingStatus) Label() string {
	switch s {
	case StatusForSale:
		return "For Sale"
	case StatusForRent:
		return "For Rent"
	case StatusSold:
		return "Sold"
	case StatusRented:
		return "Rented"
	}
	return string(s)
}

// Address locates a listing
type Address struct {
	Street     string `json:"street" yaml:"street"`
	City       string `json:"city" yaml:"city"`
	District   string `json:"district" yaml:"district"`
	PostalCode string `json:"postalCode,omitempty" yaml:"postalCode,omitempty"`
}

// Coordinates is a WGS84 position
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Features describes the physical property
type Features struct {
	Rooms       int     `json:"rooms" yaml:"rooms"`
	Bathrooms   int     `json:"bathrooms" yaml:"bathrooms"`
	Area        float64 `json:"area" yaml:"area"` // m²
	Floor       *int    `json:"floor,omitempty" yaml:"floor,omitempty"`
	TotalFloors *int    `json:"totalFloors,omitempty" yaml:"totalFloors,omitempty"`
	BuildingAge *int    `json:"buildingAge,omitempty" yaml:"buildingAge,omitempty"`
	Heating     string  `json:"heating,omitempty" yaml:"heating,omitempty"`
	Furnished   *bool   `json:"furnished,omitempty" yaml:"furnished,omitempty"`
	Parking     *bool   `json:"parking,omitempty" yaml:"parking,omitempty"`
	Balcony     *bool   `json:"balcony,omitempty" yaml:"balcony,omitempty"`
	Elevator    *bool   `json:"elevator,omitempty" yaml:"elevator,omitempty"`
}

// Agent is the contact person responsible for a listing
type Agent struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Phone  string `json:"phone" yaml:"phone"`
	Email  string `json:"email" yaml:"email"`
	Avatar string `json:"avatar,omitempty" yaml:"avatar,omitempty"`
}

// Listing is one property offered for sale or rent. Listings are supplied by
// a catalog and treated as immutable once loaded.
type Listing struct {
	ID          string        `json:"id" yaml:"id"`
	Title       string        `json:"title" yaml:"title"`
	Description string        `json:"description" yaml:"description"`
	Price       float64       `json:"price" yaml:"price"`
	Currency    string        `json:"currency" yaml:"currency"`
	Type        PropertyType  `json:"type" yaml:"type"`
	Status      ListingStatus `json:"status" yaml:"status"`
	Address     Address       `json:"address" yaml:"address"`
	Coordinates *Coordinates  `json:"coordinates,omitempty" yaml:"coordinates,omitempty"`
	Features    Features      `json:"features" yaml:"features"`
	Images      []string      `json:"images" yaml:"images"`
	Agent       Agent         `json:"agent" yaml:"agent"`
	CreatedAt   time.Time     `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt" yaml:"updatedAt"`
}

// PrimaryImage returns the first image URL or "" when the listing has none
func (l *Listing) PrimaryImage() string {
	if len(l.Images) == 0 {
		return ""
	}
	return l.Images[0]
}

// Inquiry is a contact request sent to the agent of a listing
type Inquiry struct {
	ID        string    `json:"id"`
	ListingID string    `json:"listingId" validate:"required"`
	Name      string    `json:"name" validate:"required,min=2,max=50"`
	Email     string    `json:"email" validate:"required,email"`
	Phone     string    `json:"phone" validate:"required,min=10,max=15,phone"`
	Message   string    `json:"message" validate:"required,min=10,max=500"`
	Status    string    `json:"status"` // pending, sent, failed
	ErrorMsg  string    `json:"errorMsg,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ActivityLog for debugging and audit
type ActivityLog struct {
	ID         int64     `json:"id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type,omitempty"`
	EntityID   string    `json:"entity_id,omitempty"`
	Details    string    `json:"details,omitempty"`
	ErrorMsg   string    `json:"error_msg,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// InquiryStatus constants
const (
	InquiryStatusPending = "pending"
	InquiryStatusSent    = "sent"
	InquiryStatusFailed  = "failed"
)

// ActivityAction constants
const (
	ActionCatalogLoaded = "catalog_loaded"
	ActionFetchFailed   = "fetch_failed"
	ActionInquirySent   = "inquiry_sent"
	ActionInquiryFailed = "inquiry_failed"
)
