package service

import (
	"testing"

	"ruralmatch/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestApplyHardFilters_StateAndPurpose(t *testing.T) {
	catalog := []model.CatalogEntry{
		entry(1, "A", "Fazenda", "GO", "Goiânia", "Livestock", model.OfferSale, "R$ 1.000.000", 100),
		entry(2, "B", "Fazenda", "MG", "Uberaba", "Livestock", model.OfferSale, "R$ 1.000.000", 100),
		entry(3, "C", "Fazenda", "MG", "Uberaba", "Agriculture", model.OfferSale, "R$ 1.000.000", 100),
		entry(4, "D", "Fazenda", "MG", "Araxá", "Livestock", model.OfferLease, "R$ 1.000.000", 100),
		entry(5, "E", "Sítio", "SP", "Barretos", "Leisure", model.OfferSale, "R$ 1.000.000", 100),
	}
	f := model.FilterSet{State: ptr("MG"), Purpose: ptr(model.PurposeLivestock)}

	got := ApplyHardFilters(f, catalog)
	assert.Equal(t, []int64{2, 4}, entryIDs(got))
}

func TestApplyHardFilters_Dimensions(t *testing.T) {
	catalog := fixtureCatalog()
	tests := []struct {
		name   string
		filter model.FilterSet
		want   []int64
	}{
		{"empty filter keeps all", model.FilterSet{}, []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
		{"city folded", model.FilterSet{City: ptr("uberlandia")}, []int64{5}},
		{"offer type", model.FilterSet{OfferType: ptr(model.OfferLease)}, []int64{5}},
		{"price ceiling", model.FilterSet{PriceCeiling: ptr(900000.0)}, []int64{3, 5, 6}},
		{"area floor", model.FilterSet{AreaFloor: ptr(1000.0)}, []int64{7, 10}},
		{"state ignores case", model.FilterSet{State: ptr("mg"), Purpose: ptr(model.PurposeDairy)}, []int64{4}},
		{"no match", model.FilterSet{State: ptr("RR")}, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, entryIDs(ApplyHardFilters(tt.filter, catalog)))
		})
	}
}

func TestApplyHardFilters_EntryWithoutDetail(t *testing.T) {
	bare := model.CatalogEntry{ID: 7, Title: "Sem detalhe", Price: "R$ 100.000"}

	assert.Len(t, ApplyHardFilters(model.FilterSet{PriceCeiling: ptr(200000.0)}, []model.CatalogEntry{bare}), 1)
	assert.Empty(t, ApplyHardFilters(model.FilterSet{State: ptr("MG")}, []model.CatalogEntry{bare}))
}

func TestApplyHardFilters_UnparseablePrice(t *testing.T) {
	e := entry(1, "A", "Fazenda", "MG", "Uberaba", "Livestock", model.OfferSale, "sob consulta", 100)
	assert.Empty(t, ApplyHardFilters(model.FilterSet{PriceCeiling: ptr(1e6)}, []model.CatalogEntry{e}))
	assert.Len(t, ApplyHardFilters(model.FilterSet{State: ptr("MG")}, []model.CatalogEntry{e}), 1)
}
