package service

import (
	"strings"

	"ruralmatch/internal/model"
	"ruralmatch/internal/utils"
)

// ApplyHardFilters keeps the entries that satisfy every set dimension of f,
// in their original order. Entries without a detail record only pass when no
// detail-based dimension is set.
func ApplyHardFilters(f model.FilterSet, entries []model.CatalogEntry) []model.CatalogEntry {
	out := make([]model.CatalogEntry, 0, len(entries))
	for _, e := range entries {
		if matchesFilters(f, e) {
			out = append(out, e)
		}
	}
	return out
}

func matchesFilters(f model.FilterSet, e model.CatalogEntry) bool {
	d := e.Detail
	needsDetail := f.State != nil || f.City != nil || f.Purpose != nil || f.OfferType != nil || f.AreaFloor != nil
	if needsDetail && d == nil {
		return false
	}

	if f.State != nil && !strings.EqualFold(d.State, *f.State) {
		return false
	}
	if f.City != nil && utils.NormalizeJoined(d.City) != utils.NormalizeJoined(*f.City) {
		return false
	}
	if f.Purpose != nil && !d.HasPurpose(*f.Purpose) {
		return false
	}
	if f.OfferType != nil && d.OfferType != *f.OfferType {
		return false
	}
	if f.AreaFloor != nil && (d.AreaHectares == nil || *d.AreaHectares < *f.AreaFloor) {
		return false
	}
	if f.PriceCeiling != nil {
		price, ok := utils.ParseCurrencyAnswer(e.Price)
		if !ok || float64(price) > *f.PriceCeiling {
			return false
		}
	}
	return true
}
