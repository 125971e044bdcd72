package model

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
)

// OfferType is how a listing is offered to buyers.
type OfferType string

const (
	OfferSale  OfferType = "sale"
	OfferLease OfferType = "lease"
)

// Label returns the Portuguese label shown to users.
func (o OfferType) Label() string {
	switch o {
	case OfferSale:
		return "Venda"
	case OfferLease:
		return "Arrendamento"
	}
	return string(o)
}

// Purpose is the productive vocation of a rural property.
type Purpose string

const (
	PurposeLivestock   Purpose = "Livestock"
	PurposeAgriculture Purpose = "Agriculture"
	PurposeDairy       Purpose = "Dairy"
	PurposeLeisure     Purpose = "Leisure"
	PurposeForestry    Purpose = "Forestry"
)

// Label returns the Portuguese label shown to users.
func (p Purpose) Label() string {
	switch p {
	case PurposeLivestock:
		return "Pecuária"
	case PurposeAgriculture:
		return "Agricultura"
	case PurposeDairy:
		return "Leiteira"
	case PurposeLeisure:
		return "Lazer"
	case PurposeForestry:
		return "Reflorestamento"
	}
	return string(p)
}

// StatusActive marks listings visible in the catalog.
const StatusActive = "active"

// CatalogEntry is a read-only snapshot of a listing as fetched from the catalog.
type CatalogEntry struct {
	ID       int64          `json:"id"`
	Title    string         `json:"title"`
	Category string         `json:"category"`
	Price    string         `json:"price"`
	Status   string         `json:"status"`
	Views    int            `json:"views"`
	Detail   *ListingDetail `json:"detail,omitempty"`
}

// ListingDetail is the rural-specific sub-record of a listing.
type ListingDetail struct {
	ListingID     int64     `json:"listing_id" db:"listing_id"`
	State         string    `json:"state" db:"state"`
	City          string    `json:"city" db:"city"`
	Address       string    `json:"address,omitempty" db:"address"`
	Coordinates   string    `json:"coordinates,omitempty" db:"coordinates"`
	Purposes      JSONArray `json:"purposes,omitempty" db:"purposes"`
	AreaHectares  *float64  `json:"area_hectares,omitempty" db:"area_hectares"`
	OfferType     OfferType `json:"offer_type,omitempty" db:"offer_type"`
	WaterSources  JSONArray `json:"water_sources,omitempty" db:"water_sources"`
	Energy        JSONArray `json:"energy,omitempty" db:"energy"`
	SoilTypes     JSONArray `json:"soil_types,omitempty" db:"soil_types"`
	Documentation string    `json:"documentation,omitempty" db:"documentation"`
	Structures    JSONArray `json:"structures,omitempty" db:"structures"`
}

// HasPurpose reports whether the detail lists the given purpose.
func (d *ListingDetail) HasPurpose(p Purpose) bool {
	if d == nil {
		return false
	}
	for _, v := range d.Purposes {
		if strings.EqualFold(v, string(p)) {
			return true
		}
	}
	return false
}

// ListingBase is the payload for creating the base listing record.
type ListingBase struct {
	Title    string `json:"title" db:"title"`
	Category string `json:"category" db:"category"`
	Price    string `json:"price" db:"price"`
	Status   string `json:"status" db:"status"`
}

// ScoredCandidate pairs a catalog entry with its relevance score.
type ScoredCandidate struct {
	Entry          CatalogEntry `json:"entry"`
	Score          float64      `json:"score"`
	MatchedReasons []string     `json:"matched_reasons"`
}

// JSONArray represents a JSON array field
type JSONArray []string

// Value implements driver.Valuer interface
func (j JSONArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONArray) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return json.Unmarshal([]byte(value.(string)), j)
	}
	return json.Unmarshal(bytes, j)
}
