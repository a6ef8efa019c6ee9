// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"errors"

	"compost-match-engine/internal/common/database"
	engineerrors "compost-match-engine/internal/common/errors"
	"compost-match-engine/internal/common/logger"
	"compost-match-engine/internal/models"
)

// PostgresStore reads listing and composter snapshots from the marketplace
// database and writes back enrichment results. It is the default
// matching.SnapshotSource.
type PostgresStore struct {
	db     *database.PostgresClient
	logger logger.Logger
}

func NewPostgresStore(db *database.PostgresClient, log logger.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: log}
}

const listingColumns = `
	id, title, waste_type, status, user_id, composter_id,
	pickup_location, city, state, country, latitude, longitude`

// GetListing fetches one listing snapshot. Returns (nil, nil) when the
// listing does not exist so callers can distinguish absence from failure.
func (s *PostgresStore) GetListing(ctx context.Context, id int64) (*models.WasteListing, error) {
	row := s.db.QueryRow(ctx, `
		SELECT`+listingColumns+`
		FROM waste_listings
		WHERE id = $1`, id)

	listing, err := scanListing(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, s.queryError(ctx, "get_listing", err)
	}
	return listing, nil
}

// ActiveComposters returns every active composter account.
func (s *PostgresStore) ActiveComposters(ctx context.Context) ([]models.Composter, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, email, location, city, state, country, latitude, longitude
		FROM users
		WHERE role = 'composter' AND is_active = TRUE
		ORDER BY id`)
	if err != nil {
		return nil, s.queryError(ctx, "active_composters", err)
	}
	defer rows.Close()

	var composters []models.Composter
	for rows.Next() {
		var (
			c        models.Composter
			email    sql.NullString
			location sql.NullString
			city     sql.NullString
			state    sql.NullString
			country  sql.NullString
			lat      sql.NullFloat64
			lng      sql.NullFloat64
		)
		if err := rows.Scan(&c.ID, &email, &location, &city, &state, &country, &lat, &lng); err != nil {
			return nil, s.queryError(ctx, "active_composters", err)
		}
		c.Email = email.String
		c.Active = true
		c.Location = buildLocation(location, city, state, country, lat, lng)
		composters = append(composters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, s.queryError(ctx, "active_composters", err)
	}
	return composters, nil
}

// OpenAssignmentCount counts listings assigned to the composter that are
// still in an open status.
func (s *PostgresStore) OpenAssignmentCount(ctx context.Context, composterID int64) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM waste_listings
		WHERE composter_id = $1 AND status IN ('available', 'pending_pickup')`,
		composterID).Scan(&count)
	if err != nil {
		return 0, s.queryError(ctx, "open_assignment_count", err)
	}
	return count, nil
}

// UpdateListingLocation persists enrichment results for a listing.
func (s *PostgresStore) UpdateListingLocation(ctx context.Context, id int64, loc *models.Location) error {
	_, err := s.db.Exec(ctx, `
		UPDATE waste_listings
		SET latitude = $2, longitude = $3, city = $4, state = $5, country = $6
		WHERE id = $1`,
		id, loc.Latitude, loc.Longitude,
		nullIfEmpty(loc.City), nullIfEmpty(loc.State), nullIfEmpty(loc.Country))
	if err != nil {
		return s.queryError(ctx, "update_listing_location", err)
	}
	return nil
}

// UpdateComposterLocation persists enrichment results for a composter account.
func (s *PostgresStore) UpdateComposterLocation(ctx context.Context, id int64, loc *models.Location) error {
	_, err := s.db.Exec(ctx, `
		UPDATE users
		SET latitude = $2, longitude = $3, city = $4, state = $5, country = $6
		WHERE id = $1`,
		id, loc.Latitude, loc.Longitude,
		nullIfEmpty(loc.City), nullIfEmpty(loc.State), nullIfEmpty(loc.Country))
	if err != nil {
		return s.queryError(ctx, "update_composter_location", err)
	}
	return nil
}

// ListingsMissingCoordinates returns listings that have a pickup location but
// no coordinates yet, for the enrichment sweeper.
func (s *PostgresStore) ListingsMissingCoordinates(ctx context.Context, limit int) ([]models.WasteListing, error) {
	rows, err := s.db.Query(ctx, `
		SELECT`+listingColumns+`
		FROM waste_listings
		WHERE pickup_location IS NOT NULL AND pickup_location <> ''
		  AND (latitude IS NULL OR longitude IS NULL)
		ORDER BY id
		LIMIT $1`, limit)
	if err != nil {
		return nil, s.queryError(ctx, "listings_missing_coordinates", err)
	}
	defer rows.Close()

	var listings []models.WasteListing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, s.queryError(ctx, "listings_missing_coordinates", err)
		}
		listings = append(listings, *listing)
	}
	if err := rows.Err(); err != nil {
		return nil, s.queryError(ctx, "listings_missing_coordinates", err)
	}
	return listings, nil
}

// CompostersMissingCoordinates returns composter accounts that have a
// location string but no coordinates yet.
func (s *PostgresStore) CompostersMissingCoordinates(ctx context.Context, limit int) ([]models.Composter, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, email, location, city, state, country, latitude, longitude
		FROM users
		WHERE role = 'composter'
		  AND location IS NOT NULL AND location <> ''
		  AND (latitude IS NULL OR longitude IS NULL)
		ORDER BY id
		LIMIT $1`, limit)
	if err != nil {
		return nil, s.queryError(ctx, "composters_missing_coordinates", err)
	}
	defer rows.Close()

	var composters []models.Composter
	for rows.Next() {
		var (
			c        models.Composter
			email    sql.NullString
			location sql.NullString
			city     sql.NullString
			state    sql.NullString
			country  sql.NullString
			lat      sql.NullFloat64
			lng      sql.NullFloat64
		)
		if err := rows.Scan(&c.ID, &email, &location, &city, &state, &country, &lat, &lng); err != nil {
			return nil, s.queryError(ctx, "composters_missing_coordinates", err)
		}
		c.Email = email.String
		c.Location = buildLocation(location, city, state, country, lat, lng)
		composters = append(composters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, s.queryError(ctx, "composters_missing_coordinates", err)
	}
	return composters, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanListing(row rowScanner) (*models.WasteListing, error) {
	var (
		l           models.WasteListing
		composterID sql.NullInt64
		pickup      sql.NullString
		city        sql.NullString
		state       sql.NullString
		country     sql.NullString
		lat         sql.NullFloat64
		lng         sql.NullFloat64
	)
	err := row.Scan(&l.ID, &l.Title, &l.WasteType, &l.Status, &l.OwnerID,
		&composterID, &pickup, &city, &state, &country, &lat, &lng)
	if err != nil {
		return nil, err
	}
	if composterID.Valid {
		l.ComposterID = &composterID.Int64
	}
	l.Location = buildLocation(pickup, city, state, country, lat, lng)
	return &l, nil
}

func buildLocation(raw, city, state, country sql.NullString, lat, lng sql.NullFloat64) models.Location {
	loc := models.Location{
		Address: raw.String,
		City:    city.String,
		State:   state.String,
		Country: country.String,
		Label:   raw.String,
	}
	if lat.Valid && lng.Valid {
		loc.SetCoordinates(lat.Float64, lng.Float64)
	}
	return loc
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func (s *PostgresStore) queryError(ctx context.Context, queryName string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return engineerrors.NewQueryTimeoutError(queryName)
	}
	return engineerrors.NewQueryExecutionFailedError(queryName, err)
}
