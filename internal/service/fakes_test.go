package service

import (
	"context"
	"fmt"
	"sync"

	"ruralmatch/internal/model"
	"ruralmatch/pkg/geocode"

	"github.com/rotisserie/eris"
)

type fakeCatalog struct {
	entries []model.CatalogEntry
	err     error
	calls   int
}

func (f *fakeCatalog) FetchActiveListings(_ context.Context) ([]model.CatalogEntry, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

type searchLogCall struct {
	query string
	count int
	ids   []int64
}

type fakeSearchLog struct {
	calls []searchLogCall
}

func (f *fakeSearchLog) LogSearch(_ context.Context, query string, _ model.FilterSet, count int, ids []int64) error {
	f.calls = append(f.calls, searchLogCall{query: query, count: count, ids: ids})
	return nil
}

type fakeWriter struct {
	nextID      int64
	createErr   error
	detailErr   error
	createCalls int
	detailCalls int
	bases       []model.ListingBase
	details     []model.ListingDetail
}

func (f *fakeWriter) CreateListing(_ context.Context, base model.ListingBase) (int64, error) {
	f.createCalls++
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.nextID++
	f.bases = append(f.bases, base)
	return f.nextID, nil
}

func (f *fakeWriter) CreateListingDetail(_ context.Context, _ int64, detail model.ListingDetail) error {
	f.detailCalls++
	if f.detailErr != nil {
		return f.detailErr
	}
	f.details = append(f.details, detail)
	return nil
}

type fakeImageStore struct {
	mu       sync.Mutex
	failAll  bool
	failName string
	uploads  []string
}

func (f *fakeImageStore) UploadImage(_ context.Context, listingID int64, file model.ImageFile) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failAll || file.Name == f.failName {
		return "", eris.Errorf("storage: upload %s failed", file.Name)
	}
	f.uploads = append(f.uploads, file.Name)
	return fmt.Sprintf("https://img.example.com/%d/%s", listingID, file.Name), nil
}

type fakeGeocoder struct {
	resp  *geocode.Response
	err   error
	calls int
}

func (f *fakeGeocoder) Geocode(_ context.Context, _ string) (*geocode.Response, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func ptr[T any](v T) *T { return &v }

func place(title, address string, lat, lng float64) geocode.Place {
	return geocode.Place{Title: title, Address: address, Latitude: ptr(lat), Longitude: ptr(lng)}
}

func entry(id int64, title, category, state, city, purpose string, offer model.OfferType, price string, area float64) model.CatalogEntry {
	return model.CatalogEntry{
		ID:       id,
		Title:    title,
		Category: category,
		Price:    price,
		Status:   model.StatusActive,
		Detail: &model.ListingDetail{
			ListingID:    id,
			State:        state,
			City:         city,
			Purposes:     model.JSONArray{purpose},
			OfferType:    offer,
			AreaHectares: ptr(area),
		},
	}
}

// fixtureCatalog has ten entries; 2, 5 and 9 are livestock properties in MG.
func fixtureCatalog() []model.CatalogEntry {
	return []model.CatalogEntry{
		entry(1, "Fazenda Santa Clara", "Fazenda", "GO", "Rio Verde", "Agriculture", model.OfferSale, "R$ 8.000.000", 900),
		entry(2, "Fazenda Boa Vista", "Fazenda", "MG", "Uberaba", "Livestock", model.OfferSale, "R$ 4.500.000", 350),
		entry(3, "Sítio Recanto", "Sítio", "SP", "Botucatu", "Leisure", model.OfferSale, "R$ 900.000", 12),
		entry(4, "Fazenda Leiteira Serra", "Fazenda", "MG", "Araxá", "Dairy", model.OfferSale, "R$ 3.200.000", 220),
		entry(5, "Fazenda Triângulo", "Fazenda", "MG", "Uberlândia", "Livestock", model.OfferLease, "R$ 60.000", 500),
		entry(6, "Chácara das Flores", "Chácara", "PR", "Londrina", "Leisure", model.OfferSale, "R$ 650.000", 3),
		entry(7, "Fazenda Pantanal", "Fazenda", "MS", "Corumbá", "Livestock", model.OfferSale, "R$ 12.000.000", 3000),
		entry(8, "Gleba Eucalipto", "Terreno", "MG", "Montes Claros", "Forestry", model.OfferSale, "R$ 1.800.000", 400),
		entry(9, "Fazenda Rio Grande", "Fazenda", "MG", "Patos de Minas", "Livestock", model.OfferSale, "R$ 6.100.000", 780),
		entry(10, "Fazenda Sorriso", "Fazenda", "MT", "Sorriso", "Agriculture", model.OfferSale, "R$ 25.000.000", 5000),
	}
}

func entryIDs(entries []model.CatalogEntry) []int64 {
	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}
