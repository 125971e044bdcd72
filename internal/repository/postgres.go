package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"ruralmatch/internal/model"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rotisserie/eris"
)

// PostgresRepository handles database operations
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	dsn, err := connString(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "repository: connect")
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, eris.Wrap(err, "repository: ping")
	}

	return &PostgresRepository{db: db}, nil
}

// connString returns dsn in lib/pq key=value form. URL-form DSNs are
// converted; key=value DSNs pass through untouched.
func connString(dsn string) (string, error) {
	dsn = strings.TrimSpace(dsn)
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return dsn, nil
	}
	kv, err := pq.ParseURL(dsn)
	if err != nil {
		return "", eris.Wrap(err, "repository: parse database url")
	}
	return kv, nil
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

const listingColumns = `
	l.id, l.title, l.category, l.price, l.status, l.views,
	d.listing_id AS detail_listing_id, d.state, d.city, d.address, d.coordinates,
	d.purposes, d.area_hectares, d.offer_type, d.water_sources, d.energy,
	d.soil_types, d.documentation, d.structures`

// listingRow is a listing joined with its optional detail record.
type listingRow struct {
	ID              int64           `db:"id"`
	Title           string          `db:"title"`
	Category        string          `db:"category"`
	Price           string          `db:"price"`
	Status          string          `db:"status"`
	Views           int             `db:"views"`
	DetailListingID sql.NullInt64   `db:"detail_listing_id"`
	State           sql.NullString  `db:"state"`
	City            sql.NullString  `db:"city"`
	Address         sql.NullString  `db:"address"`
	Coordinates     sql.NullString  `db:"coordinates"`
	Purposes        model.JSONArray `db:"purposes"`
	AreaHectares    sql.NullFloat64 `db:"area_hectares"`
	OfferType       sql.NullString  `db:"offer_type"`
	WaterSources    model.JSONArray `db:"water_sources"`
	Energy          model.JSONArray `db:"energy"`
	SoilTypes       model.JSONArray `db:"soil_types"`
	Documentation   sql.NullString  `db:"documentation"`
	Structures      model.JSONArray `db:"structures"`
}

func (row listingRow) toEntry() model.CatalogEntry {
	e := model.CatalogEntry{
		ID:       row.ID,
		Title:    row.Title,
		Category: row.Category,
		Price:    row.Price,
		Status:   row.Status,
		Views:    row.Views,
	}
	if !row.DetailListingID.Valid {
		return e
	}
	d := &model.ListingDetail{
		ListingID:     row.DetailListingID.Int64,
		State:         row.State.String,
		City:          row.City.String,
		Address:       row.Address.String,
		Coordinates:   row.Coordinates.String,
		Purposes:      row.Purposes,
		OfferType:     model.OfferType(row.OfferType.String),
		WaterSources:  row.WaterSources,
		Energy:        row.Energy,
		SoilTypes:     row.SoilTypes,
		Documentation: row.Documentation.String,
		Structures:    row.Structures,
	}
	if row.AreaHectares.Valid {
		area := row.AreaHectares.Float64
		d.AreaHectares = &area
	}
	e.Detail = d
	return e
}

// FetchActiveListings returns every active listing in creation order.
func (r *PostgresRepository) FetchActiveListings(ctx context.Context) ([]model.CatalogEntry, error) {
	query := `
		SELECT ` + listingColumns + `
		FROM listings l
		LEFT JOIN listing_details d ON d.listing_id = l.id
		WHERE l.status = $1
		ORDER BY l.id
	`
	var rows []listingRow
	if err := r.db.SelectContext(ctx, &rows, query, model.StatusActive); err != nil {
		return nil, eris.Wrap(err, "repository: fetch active listings")
	}

	entries := make([]model.CatalogEntry, len(rows))
	for i, row := range rows {
		entries[i] = row.toEntry()
	}
	return entries, nil
}

// GetListing retrieves a single active listing, or nil when none exists.
func (r *PostgresRepository) GetListing(ctx context.Context, id int64) (*model.CatalogEntry, error) {
	query := `
		SELECT ` + listingColumns + `
		FROM listings l
		LEFT JOIN listing_details d ON d.listing_id = l.id
		WHERE l.id = $1 AND l.status = $2
	`
	var row listingRow
	if err := r.db.GetContext(ctx, &row, query, id, model.StatusActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "repository: get listing")
	}
	e := row.toEntry()
	return &e, nil
}

// CreateListing inserts the base listing record and returns its id.
func (r *PostgresRepository) CreateListing(ctx context.Context, base model.ListingBase) (int64, error) {
	query := `
		INSERT INTO listings (title, category, price, status)
		VALUES (:title, :category, :price, :status)
		RETURNING id
	`
	stmt, err := r.db.PrepareNamedContext(ctx, query)
	if err != nil {
		return 0, eris.Wrap(err, "repository: prepare create listing")
	}
	defer stmt.Close()

	var id int64
	if err := stmt.GetContext(ctx, &id, base); err != nil {
		return 0, eris.Wrap(err, "repository: create listing")
	}
	return id, nil
}

// CreateListingDetail inserts the detail record of a listing.
func (r *PostgresRepository) CreateListingDetail(ctx context.Context, listingID int64, detail model.ListingDetail) error {
	detail.ListingID = listingID
	query := `
		INSERT INTO listing_details (
			listing_id, state, city, address, coordinates, purposes, area_hectares,
			offer_type, water_sources, energy, soil_types, documentation, structures
		) VALUES (
			:listing_id, :state, :city, :address, :coordinates, :purposes, :area_hectares,
			:offer_type, :water_sources, :energy, :soil_types, :documentation, :structures
		)
		ON CONFLICT (listing_id) DO UPDATE SET
			state = EXCLUDED.state, city = EXCLUDED.city, address = EXCLUDED.address,
			coordinates = EXCLUDED.coordinates, purposes = EXCLUDED.purposes,
			area_hectares = EXCLUDED.area_hectares, offer_type = EXCLUDED.offer_type,
			water_sources = EXCLUDED.water_sources, energy = EXCLUDED.energy,
			soil_types = EXCLUDED.soil_types, documentation = EXCLUDED.documentation,
			structures = EXCLUDED.structures
	`
	if _, err := r.db.NamedExecContext(ctx, query, detail); err != nil {
		return eris.Wrapf(err, "repository: create detail for listing %d", listingID)
	}
	return nil
}

// LogSearch logs a guided search and the listings it returned
func (r *PostgresRepository) LogSearch(ctx context.Context, query string, filters model.FilterSet, resultCount int, listingIDs []int64) error {
	filtersJSON, err := json.Marshal(filters)
	if err != nil {
		return eris.Wrap(err, "repository: encode search filters")
	}
	logQuery := `
		INSERT INTO search_logs (query, filters, result_count, returned_listing_ids)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, logQuery, query, filtersJSON, resultCount, pq.Array(listingIDs)); err != nil {
		return eris.Wrap(err, "repository: log search")
	}
	return nil
}

// LogFeedback records a buyer action on a listing. Detail views also count
// towards the listing's view counter.
func (r *PostgresRepository) LogFeedback(ctx context.Context, sessionID string, listingID int64, action string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "repository: begin feedback")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO listing_feedback (session_id, listing_id, action) VALUES ($1, $2, $3)`,
		sessionID, listingID, action,
	); err != nil {
		return eris.Wrap(err, "repository: log feedback")
	}

	if action == model.ActionViewDetails {
		if _, err := tx.ExecContext(ctx, `UPDATE listings SET views = views + 1 WHERE id = $1`, listingID); err != nil {
			return eris.Wrap(err, "repository: count view")
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "repository: commit feedback")
	}
	return nil
}
