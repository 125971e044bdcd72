package service

import (
	"sort"
	"strings"

	"ruralmatch/internal/model"
	"ruralmatch/internal/utils"

	"go.uber.org/zap"
)

// FilterExtractor turns free text into structured filters using the lexicon
// dictionaries and the numeric parser. It performs no I/O.
type FilterExtractor struct{}

// NewFilterExtractor creates a new filter extractor
func NewFilterExtractor() *FilterExtractor {
	return &FilterExtractor{}
}

// Extract detects filters in text and merges them into previous. Only
// dimensions found in text overwrite; see mergeFilters for location.
func (e *FilterExtractor) Extract(text string, previous model.FilterSet) model.FilterSet {
	detected := e.Detect(text)
	merged := mergeFilters(previous, detected)
	zap.L().Debug("filters extracted",
		zap.String("text", text),
		zap.Any("detected", detected),
		zap.Any("merged", merged),
	)
	return merged
}

// mergeFilters merges detected into previous. State and city form one
// location: naming a state the previous city is not in replaces the
// location, so the stale city goes with it.
func mergeFilters(previous, detected model.FilterSet) model.FilterSet {
	merged := previous.Merge(detected)
	if detected.State == nil || detected.City != nil || merged.City == nil {
		return merged
	}
	if st, ok := utils.CityState(*merged.City); ok && st != *detected.State {
		merged.City = nil
	}
	return merged
}

// Detect returns only the dimensions present in text.
func (e *FilterExtractor) Detect(text string) model.FilterSet {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.FilterSet{}
	}
	tokens := utils.Normalize(text)

	var f model.FilterSet
	if t, ok := utils.PropertyTypes.Last(tokens); ok {
		f.PropertyType = &t
	}

	// A known city implies its state unless a state is named explicitly.
	if city, ok := utils.Cities.Last(tokens); ok {
		f.City = &city
		if st, ok := utils.CityState(city); ok {
			f.State = &st
		}
	}
	if st, ok := utils.States.Last(tokens); ok {
		f.State = &st
	}

	if p, ok := utils.Purposes.Last(tokens); ok {
		purpose := model.Purpose(p)
		f.Purpose = &purpose
	}
	if o, ok := utils.OfferTypes.Last(tokens); ok {
		offer := model.OfferType(o)
		f.OfferType = &offer
	}

	f.PriceCeiling, f.AreaFloor = splitMagnitudes(utils.ExtractMagnitudes(tokens, true))
	return f
}

// splitMagnitudes assigns detected numbers to price and area. Numbers written
// with an area unit are areas. Of the rest, the largest is the price ceiling
// and, when no area unit was written, the next largest is the area floor.
// Unit-less numbers that count a named thing ("2 represas") are dropped.
// Two similarly sized unit-less numbers can be misread; this is a known
// precision limit of the heuristic.
func splitMagnitudes(mags []utils.Magnitude) (price, area *float64) {
	var others []float64
	for _, m := range mags {
		if m.Value <= 0 {
			continue
		}
		if m.Unit == utils.UnitArea {
			if area == nil {
				v := m.Value
				area = &v
			}
			continue
		}
		if m.Unit == utils.UnitNone && countsThings(m.Next) {
			continue
		}
		others = append(others, m.Value)
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(others)))
	if len(others) > 0 {
		v := others[0]
		price = &v
	}
	if area == nil && len(others) > 1 {
		v := others[1]
		area = &v
	}
	return price, area
}

// countsThings reports whether tok names something a number can count.
func countsThings(tok string) bool {
	if tok == "" {
		return false
	}
	one := []string{tok}
	if utils.CountedThings.Any(one) || utils.PropertyTypes.Any(one) {
		return true
	}
	for _, dict := range utils.KeywordCategories {
		if dict.Any(one) {
			return true
		}
	}
	return false
}
