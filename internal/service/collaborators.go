package service

import (
	"context"

	"ruralmatch/internal/model"
	"ruralmatch/pkg/geocode"
)

// CatalogClient reads the active catalog. No filter pushdown: filtering and
// ranking happen in this package.
type CatalogClient interface {
	FetchActiveListings(ctx context.Context) ([]model.CatalogEntry, error)
}

// ListingWriter creates listing records in the catalog.
type ListingWriter interface {
	CreateListing(ctx context.Context, base model.ListingBase) (int64, error)
	CreateListingDetail(ctx context.Context, listingID int64, detail model.ListingDetail) error
}

// ImageStore uploads one listing image and returns its public URL.
type ImageStore interface {
	UploadImage(ctx context.Context, listingID int64, file model.ImageFile) (string, error)
}

// GeocodeClient resolves a free-text address through the geocoding provider.
type GeocodeClient interface {
	Geocode(ctx context.Context, address string) (*geocode.Response, error)
}

// SearchLogger records guided searches. Optional.
type SearchLogger interface {
	LogSearch(ctx context.Context, query string, filters model.FilterSet, resultCount int, listingIDs []int64) error
}
