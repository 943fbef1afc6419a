package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/industria/api/internal/models"
)

// Default and maximum page sizes for list queries.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// ZoneFilter narrows ZoneRepository.List results.
type ZoneFilter struct {
	Status *models.Status
	Limit  int
	Offset int
}

// ZoneRepository defines the interface for zone data access operations.
type ZoneRepository interface {
	// FindByID returns the zone with the given id.
	// Returns nil, nil if no live zone exists.
	FindByID(ctx context.Context, id uuid.UUID) (*models.Zone, error)

	// List returns live zones ordered by name.
	List(ctx context.Context, filter ZoneFilter) ([]models.Zone, error)

	// Create inserts the zone, assigning an id when it has none.
	Create(ctx context.Context, zone *models.Zone) error

	// Save persists every mutable column of the zone.
	// Returns ErrNotFound if the zone does not exist.
	Save(ctx context.Context, zone *models.Zone) error

	// Delete removes the zone and, by cascade, its parcels.
	// Returns ErrNotFound if the zone does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

type zoneRepository struct {
	db DBTX
}

// NewZoneRepository creates a new instance of ZoneRepository.
func NewZoneRepository(db DBTX) ZoneRepository {
	return &zoneRepository{db: db}
}

const zoneColumns = `
	id,
	name,
	description,
	status,
	geometry,
	longitude,
	latitude,
	price,
	created_at,
	updated_at,
	deleted_at`

func scanZone(row pgx.Row, zone *models.Zone) error {
	return row.Scan(
		&zone.ID,
		&zone.Name,
		&zone.Description,
		&zone.Status,
		&zone.Geometry,
		&zone.Longitude,
		&zone.Latitude,
		&zone.Price,
		&zone.CreatedAt,
		&zone.UpdatedAt,
		&zone.DeletedAt,
	)
}

func (r *zoneRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Zone, error) {
	query := `SELECT` + zoneColumns + `
		FROM zones
		WHERE id = $1 AND deleted_at IS NULL`

	var zone models.Zone
	if err := scanZone(r.db.QueryRow(ctx, query, id), &zone); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query zone %s: %w", id, err)
	}

	return &zone, nil
}

func (r *zoneRepository) List(ctx context.Context, filter ZoneFilter) ([]models.Zone, error) {
	query := `SELECT` + zoneColumns + `
		FROM zones
		WHERE deleted_at IS NULL
		  AND ($1::text IS NULL OR status = $1)
		ORDER BY name, id
		LIMIT $2 OFFSET $3`

	limit, offset := pageBounds(filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, statusArg(filter.Status), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}
	defer rows.Close()

	zones := []models.Zone{}
	for rows.Next() {
		var zone models.Zone
		if err := scanZone(rows, &zone); err != nil {
			return nil, fmt.Errorf("failed to scan zone row: %w", err)
		}
		zones = append(zones, zone)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating zone rows: %w", err)
	}

	return zones, nil
}

func (r *zoneRepository) Create(ctx context.Context, zone *models.Zone) error {
	if zone.ID == uuid.Nil {
		zone.ID = uuid.New()
	}
	if zone.Status == "" {
		zone.Status = models.StatusFree
	}

	query := `
		INSERT INTO zones (id, name, description, status, geometry, longitude, latitude, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		zone.ID,
		zone.Name,
		zone.Description,
		zone.Status,
		zone.Geometry,
		zone.Longitude,
		zone.Latitude,
		zone.Price,
	).Scan(&zone.CreatedAt, &zone.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert zone %s: %w", zone.ID, translateError(err))
	}

	return nil
}

func (r *zoneRepository) Save(ctx context.Context, zone *models.Zone) error {
	query := `
		UPDATE zones
		SET name = $2,
		    description = $3,
		    status = $4,
		    geometry = $5,
		    longitude = $6,
		    latitude = $7,
		    price = $8,
		    updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		zone.ID,
		zone.Name,
		zone.Description,
		zone.Status,
		zone.Geometry,
		zone.Longitude,
		zone.Latitude,
		zone.Price,
	).Scan(&zone.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("zone %s: %w", zone.ID, ErrNotFound)
		}
		return fmt.Errorf("failed to update zone %s: %w", zone.ID, translateError(err))
	}

	return nil
}

func (r *zoneRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM zones WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("failed to delete zone %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("zone %s: %w", id, ErrNotFound)
	}
	return nil
}

// pageBounds clamps list pagination to sane values.
func pageBounds(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// statusArg converts an optional status filter into a nullable query argument.
func statusArg(status *models.Status) *string {
	if status == nil {
		return nil
	}
	s := string(*status)
	return &s
}
