package model

import (
	"encoding/json"
	"fmt"
)

// ValueType is the declared type of an intake field.
type ValueType int

const (
	ValueText ValueType = iota
	ValueNumber
	ValueCurrency
	ValueSingleChoice
	ValueMultiChoice
)

// IntakeField enumerates the listing fields collected by the intake wizard,
// in the order they are asked.
type IntakeField int

const (
	FieldTitle IntakeField = iota
	FieldAddress
	FieldPurpose
	FieldArea
	FieldOfferType
	FieldPrice
	FieldWaterSource
	FieldEnergy
	FieldSoilType
	FieldDocumentation
	FieldStructures

	fieldCount
)

// IntakeFields returns every field in wizard order.
func IntakeFields() []IntakeField {
	fields := make([]IntakeField, 0, fieldCount)
	for f := FieldTitle; f < fieldCount; f++ {
		fields = append(fields, f)
	}
	return fields
}

// Valid reports whether f is a declared field.
func (f IntakeField) Valid() bool {
	return f >= FieldTitle && f < fieldCount
}

// Key is the stable machine name of the field.
func (f IntakeField) Key() string {
	switch f {
	case FieldTitle:
		return "title"
	case FieldAddress:
		return "address"
	case FieldPurpose:
		return "purpose"
	case FieldArea:
		return "area"
	case FieldOfferType:
		return "offer_type"
	case FieldPrice:
		return "price"
	case FieldWaterSource:
		return "water_source"
	case FieldEnergy:
		return "energy"
	case FieldSoilType:
		return "soil_type"
	case FieldDocumentation:
		return "documentation"
	case FieldStructures:
		return "structures"
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// Label is the Portuguese name shown in prompts and summaries.
func (f IntakeField) Label() string {
	switch f {
	case FieldTitle:
		return "Título do anúncio"
	case FieldAddress:
		return "Endereço"
	case FieldPurpose:
		return "Finalidade"
	case FieldArea:
		return "Área (hectares)"
	case FieldOfferType:
		return "Tipo de oferta"
	case FieldPrice:
		return "Preço"
	case FieldWaterSource:
		return "Fontes de água"
	case FieldEnergy:
		return "Energia"
	case FieldSoilType:
		return "Tipo de solo"
	case FieldDocumentation:
		return "Documentação"
	case FieldStructures:
		return "Benfeitorias"
	}
	return f.Key()
}

// Type returns the declared value type of the field.
func (f IntakeField) Type() ValueType {
	switch f {
	case FieldTitle, FieldAddress, FieldDocumentation:
		return ValueText
	case FieldArea:
		return ValueNumber
	case FieldPrice:
		return ValueCurrency
	case FieldOfferType:
		return ValueSingleChoice
	case FieldPurpose, FieldWaterSource, FieldEnergy, FieldSoilType, FieldStructures:
		return ValueMultiChoice
	}
	return ValueText
}

// Mandatory reports whether the field must be filled before commit.
func (f IntakeField) Mandatory() bool {
	switch f {
	case FieldWaterSource, FieldEnergy, FieldDocumentation, FieldStructures:
		return true
	}
	return false
}

// FieldError is a validation failure scoped to one intake field.
type FieldError struct {
	Field  IntakeField
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field.Label(), e.Reason)
}

// ImageFile is an image attached to a draft, pending upload.
type ImageFile struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

// GeocodeResult is the outcome of validating a free-text address.
type GeocodeResult struct {
	Valid              bool            `json:"valid"`
	Coordinates        string          `json:"coordinates,omitempty"`
	DisplayAddress     string          `json:"display_address,omitempty"`
	City               string          `json:"city,omitempty"`
	State              string          `json:"state,omitempty"`
	Message            string          `json:"message,omitempty"`
	RawProviderPayload json.RawMessage `json:"-"`
}

// ListingDraft accumulates wizard answers before commit.
type ListingDraft struct {
	Title          string
	Address        string
	Purposes       []string
	AreaHectares   *float64
	OfferType      OfferType
	Price          string
	PriceValue     int64
	WaterSources   []string
	Energy         []string
	SoilTypes      []string
	Documentation  string
	Structures     []string
	City           string
	State          string
	Coordinates    string
	DisplayAddress string
	Images         []ImageFile

	// ListingID is set once the base record exists, so a retried commit
	// does not create it twice.
	ListingID *int64
}

// Populated reports whether the draft holds a value for the field.
func (d *ListingDraft) Populated(f IntakeField) bool {
	switch f {
	case FieldTitle:
		return d.Title != ""
	case FieldAddress:
		return d.Address != "" && d.Coordinates != ""
	case FieldPurpose:
		return len(d.Purposes) > 0
	case FieldArea:
		return d.AreaHectares != nil
	case FieldOfferType:
		return d.OfferType != ""
	case FieldPrice:
		return d.Price != ""
	case FieldWaterSource:
		return len(d.WaterSources) > 0
	case FieldEnergy:
		return len(d.Energy) > 0
	case FieldSoilType:
		return len(d.SoilTypes) > 0
	case FieldDocumentation:
		return d.Documentation != ""
	case FieldStructures:
		return len(d.Structures) > 0
	}
	return false
}

// Selections returns the multi-choice set held for f, or nil.
func (d *ListingDraft) Selections(f IntakeField) []string {
	switch f {
	case FieldPurpose:
		return d.Purposes
	case FieldWaterSource:
		return d.WaterSources
	case FieldEnergy:
		return d.Energy
	case FieldSoilType:
		return d.SoilTypes
	case FieldStructures:
		return d.Structures
	}
	return nil
}

// AddSelection adds value to the multi-choice set of f if absent.
func (d *ListingDraft) AddSelection(f IntakeField, value string) {
	target := d.selectionSlot(f)
	if target == nil {
		return
	}
	for _, v := range *target {
		if v == value {
			return
		}
	}
	*target = append(*target, value)
}

func (d *ListingDraft) selectionSlot(f IntakeField) *[]string {
	switch f {
	case FieldPurpose:
		return &d.Purposes
	case FieldWaterSource:
		return &d.WaterSources
	case FieldEnergy:
		return &d.Energy
	case FieldSoilType:
		return &d.SoilTypes
	case FieldStructures:
		return &d.Structures
	}
	return nil
}
