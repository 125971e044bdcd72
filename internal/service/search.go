package service

import (
	"context"
	"time"

	"ruralmatch/internal/model"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ListingReader reads single catalog entries.
type ListingReader interface {
	GetListing(ctx context.Context, id int64) (*model.CatalogEntry, error)
}

// FeedbackLogger records buyer actions on listings.
type FeedbackLogger interface {
	LogFeedback(ctx context.Context, sessionID string, listingID int64, action string) error
}

// SearchService handles open-ended description search and listing reads
type SearchService struct {
	catalog   CatalogClient
	listings  ListingReader
	feedback  FeedbackLogger
	extractor *FilterExtractor
	ranker    *Ranker
	maxK      int
}

// NewSearchService creates a new search service. maxK caps the shortlist size
// a caller may ask for.
func NewSearchService(
	catalog CatalogClient,
	listings ListingReader,
	feedback FeedbackLogger,
	extractor *FilterExtractor,
	ranker *Ranker,
	maxK int,
) *SearchService {
	if maxK <= 0 {
		maxK = 20
	}
	return &SearchService{
		catalog:   catalog,
		listings:  listings,
		feedback:  feedback,
		extractor: extractor,
		ranker:    ranker,
		maxK:      maxK,
	}
}

// Search ranks the active catalog against a free-text description
func (s *SearchService) Search(ctx context.Context, req *model.SearchRequest) (*model.SearchResponse, error) {
	startTime := time.Now()

	entries, err := s.catalog.FetchActiveListings(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "search: fetch catalog")
	}

	k := req.TopK
	if k > s.maxK {
		k = s.maxK
	}
	q := NewRankQuery(req.Query, s.extractor)
	results := s.ranker.Rank(q, entries, k)
	took := time.Since(startTime).Milliseconds()

	zap.L().Debug("description search",
		zap.String("query", req.Query),
		zap.Int("catalog_size", len(entries)),
		zap.Int("results", len(results)),
		zap.Int64("took_ms", took),
	)

	return &model.SearchResponse{
		Results:          results,
		HasRelevantMatch: HasRelevantMatch(results),
		Filters:          q.Filters,
		Took:             took,
	}, nil
}

// GetListing retrieves a single listing by ID
func (s *SearchService) GetListing(ctx context.Context, listingID int64) (*model.CatalogEntry, error) {
	entry, err := s.listings.GetListing(ctx, listingID)
	if err != nil {
		return nil, eris.Wrapf(err, "search: get listing %d", listingID)
	}
	return entry, nil
}

// LogFeedback logs user feedback/action
func (s *SearchService) LogFeedback(ctx context.Context, sessionID string, listingID int64, action string) error {
	if !model.ValidFeedbackAction(action) {
		return eris.Errorf("search: unknown feedback action %q", action)
	}
	if err := s.feedback.LogFeedback(ctx, sessionID, listingID, action); err != nil {
		return eris.Wrap(err, "search: log feedback")
	}
	return nil
}
