package model

// FilterSet represents structured search constraints extracted from free text.
// Nil fields are unconstrained.
type FilterSet struct {
	PropertyType *string    `json:"property_type,omitempty"`
	State        *string    `json:"state,omitempty"`
	City         *string    `json:"city,omitempty"`
	Purpose      *Purpose   `json:"purpose,omitempty"`
	OfferType    *OfferType `json:"offer_type,omitempty"`
	PriceCeiling *float64   `json:"price_ceiling,omitempty"`
	AreaFloor    *float64   `json:"area_floor,omitempty"`
}

// HasSearchDimension reports whether enough is known to run a guided search.
func (f FilterSet) HasSearchDimension() bool {
	return f.State != nil || f.City != nil || f.Purpose != nil || f.OfferType != nil
}

// IsEmpty reports whether no dimension is set.
func (f FilterSet) IsEmpty() bool {
	return f.PropertyType == nil && !f.HasSearchDimension() && f.PriceCeiling == nil && f.AreaFloor == nil
}

// Merge returns f with every dimension set in newer overwritten. Dimensions
// absent from newer keep their previous value.
func (f FilterSet) Merge(newer FilterSet) FilterSet {
	merged := f
	if newer.PropertyType != nil {
		merged.PropertyType = newer.PropertyType
	}
	if newer.State != nil {
		merged.State = newer.State
	}
	if newer.City != nil {
		merged.City = newer.City
	}
	if newer.Purpose != nil {
		merged.Purpose = newer.Purpose
	}
	if newer.OfferType != nil {
		merged.OfferType = newer.OfferType
	}
	if newer.PriceCeiling != nil {
		merged.PriceCeiling = newer.PriceCeiling
	}
	if newer.AreaFloor != nil {
		merged.AreaFloor = newer.AreaFloor
	}
	return merged
}
