package repository

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"ruralmatch/internal/model"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// SearchLogEntry is one guided search recorded by MemoryRepository.
type SearchLogEntry struct {
	Query       string
	Filters     model.FilterSet
	ResultCount int
	ListingIDs  []int64
	At          time.Time
}

// FeedbackEntry is one buyer action recorded by MemoryRepository.
type FeedbackEntry struct {
	SessionID string
	ListingID int64
	Action    string
	At        time.Time
}

// MemoryRepository is an in-process catalog for development and tests. It
// satisfies the same collaborator interfaces as PostgresRepository.
type MemoryRepository struct {
	mu       sync.RWMutex
	entries  []model.CatalogEntry
	nextID   int64
	searches []SearchLogEntry
	feedback []FeedbackEntry
}

// NewMemoryRepository creates a catalog seeded with entries.
func NewMemoryRepository(entries []model.CatalogEntry) *MemoryRepository {
	r := &MemoryRepository{nextID: 1}
	for _, e := range entries {
		r.entries = append(r.entries, cloneEntry(e))
		if e.ID >= r.nextID {
			r.nextID = e.ID + 1
		}
	}
	return r
}

// LoadCatalogFile reads catalog entries from a JSON array file.
func LoadCatalogFile(path string) ([]model.CatalogEntry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "repository: read catalog file %s", path)
	}

	var entries []model.CatalogEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, eris.Wrapf(err, "repository: decode catalog file %s", path)
	}
	for i := range entries {
		if entries[i].Status == "" {
			entries[i].Status = model.StatusActive
		}
		if entries[i].Detail != nil {
			entries[i].Detail.ListingID = entries[i].ID
		}
	}
	return entries, nil
}

// FetchActiveListings returns active entries in insertion order.
func (r *MemoryRepository) FetchActiveListings(ctx context.Context) ([]model.CatalogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "repository: fetch active listings")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.CatalogEntry, 0, len(r.entries))
	for _, e := range r.entries {
		if e.Status == model.StatusActive {
			out = append(out, cloneEntry(e))
		}
	}
	return out, nil
}

// GetListing returns an active entry, or nil when none exists.
func (r *MemoryRepository) GetListing(ctx context.Context, id int64) (*model.CatalogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 || r.entries[i].Status != model.StatusActive {
		return nil, nil
	}
	e := cloneEntry(r.entries[i])
	return &e, nil
}

// CreateListing appends a base record and returns its id.
func (r *MemoryRepository) CreateListing(ctx context.Context, base model.ListingBase) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, eris.Wrap(err, "repository: create listing")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	r.entries = append(r.entries, model.CatalogEntry{
		ID:       id,
		Title:    base.Title,
		Category: base.Category,
		Price:    base.Price,
		Status:   base.Status,
	})
	zap.L().Debug("listing created", zap.Int64("listing_id", id), zap.String("title", base.Title))
	return id, nil
}

// CreateListingDetail sets the detail record of an existing listing.
func (r *MemoryRepository) CreateListingDetail(ctx context.Context, listingID int64, detail model.ListingDetail) error {
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "repository: create listing detail")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(listingID)
	if i < 0 {
		return eris.Errorf("repository: listing %d not found", listingID)
	}
	detail.ListingID = listingID
	d := cloneDetail(&detail)
	r.entries[i].Detail = d
	return nil
}

// LogSearch records a guided search.
func (r *MemoryRepository) LogSearch(ctx context.Context, query string, filters model.FilterSet, resultCount int, listingIDs []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.searches = append(r.searches, SearchLogEntry{
		Query:       query,
		Filters:     filters,
		ResultCount: resultCount,
		ListingIDs:  append([]int64(nil), listingIDs...),
		At:          time.Now(),
	})
	return nil
}

// LogFeedback records a buyer action. Detail views increment the view counter.
func (r *MemoryRepository) LogFeedback(ctx context.Context, sessionID string, listingID int64, action string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(listingID)
	if i < 0 {
		return eris.Errorf("repository: listing %d not found", listingID)
	}
	r.feedback = append(r.feedback, FeedbackEntry{
		SessionID: sessionID,
		ListingID: listingID,
		Action:    action,
		At:        time.Now(),
	})
	if action == model.ActionViewDetails {
		r.entries[i].Views++
	}
	return nil
}

// Searches returns a copy of the search log.
func (r *MemoryRepository) Searches() []SearchLogEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]SearchLogEntry(nil), r.searches...)
}

// Feedback returns a copy of the feedback log.
func (r *MemoryRepository) Feedback() []FeedbackEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]FeedbackEntry(nil), r.feedback...)
}

func (r *MemoryRepository) indexOf(id int64) int {
	for i, e := range r.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func cloneEntry(e model.CatalogEntry) model.CatalogEntry {
	e.Detail = cloneDetail(e.Detail)
	return e
}

func cloneDetail(d *model.ListingDetail) *model.ListingDetail {
	if d == nil {
		return nil
	}
	c := *d
	c.Purposes = append(model.JSONArray(nil), d.Purposes...)
	c.WaterSources = append(model.JSONArray(nil), d.WaterSources...)
	c.Energy = append(model.JSONArray(nil), d.Energy...)
	c.SoilTypes = append(model.JSONArray(nil), d.SoilTypes...)
	c.Structures = append(model.JSONArray(nil), d.Structures...)
	if d.AreaHectares != nil {
		area := *d.AreaHectares
		c.AreaHectares = &area
	}
	return &c
}
