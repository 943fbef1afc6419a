package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/industria/api/internal/models"
)

// ParcelFilter narrows ParcelRepository.List results.
type ParcelFilter struct {
	ZoneID *uuid.UUID
	Status *models.Status
	Limit  int
	Offset int
}

// ParcelRepository defines the interface for parcel data access operations.
type ParcelRepository interface {
	// FindByID returns the parcel with the given id.
	// Returns nil, nil if no live parcel exists.
	FindByID(ctx context.Context, id uuid.UUID) (*models.Parcel, error)

	// FindByZoneID returns every live parcel of the zone ordered by reference.
	// Returns an empty slice if the zone has no parcels.
	FindByZoneID(ctx context.Context, zoneID uuid.UUID) ([]models.Parcel, error)

	// List returns live parcels matching the filter.
	List(ctx context.Context, filter ParcelFilter) ([]models.Parcel, error)

	// Create inserts the parcel, assigning an id when it has none.
	// Returns ErrMissingReference if the zone does not exist and
	// ErrDuplicate if the reference is already used in the zone.
	Create(ctx context.Context, parcel *models.Parcel) error

	// Save persists every mutable column of the parcel.
	// Returns ErrNotFound if the parcel does not exist.
	Save(ctx context.Context, parcel *models.Parcel) error

	// Delete removes the parcel.
	// Returns ErrNotFound if the parcel does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

type parcelRepository struct {
	db DBTX
}

// NewParcelRepository creates a new instance of ParcelRepository.
func NewParcelRepository(db DBTX) ParcelRepository {
	return &parcelRepository{db: db}
}

const parcelColumns = `
	id,
	zone_id,
	reference,
	status,
	geometry,
	longitude,
	latitude,
	area,
	created_at,
	updated_at,
	deleted_at`

func scanParcel(row pgx.Row, parcel *models.Parcel) error {
	return row.Scan(
		&parcel.ID,
		&parcel.ZoneID,
		&parcel.Reference,
		&parcel.Status,
		&parcel.Geometry,
		&parcel.Longitude,
		&parcel.Latitude,
		&parcel.Area,
		&parcel.CreatedAt,
		&parcel.UpdatedAt,
		&parcel.DeletedAt,
	)
}

func (r *parcelRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Parcel, error) {
	query := `SELECT` + parcelColumns + `
		FROM parcels
		WHERE id = $1 AND deleted_at IS NULL`

	var parcel models.Parcel
	if err := scanParcel(r.db.QueryRow(ctx, query, id), &parcel); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query parcel %s: %w", id, err)
	}

	return &parcel, nil
}

func (r *parcelRepository) FindByZoneID(ctx context.Context, zoneID uuid.UUID) ([]models.Parcel, error) {
	query := `SELECT` + parcelColumns + `
		FROM parcels
		WHERE zone_id = $1 AND deleted_at IS NULL
		ORDER BY reference, id`

	rows, err := r.db.Query(ctx, query, zoneID)
	if err != nil {
		return nil, fmt.Errorf("failed to query parcels of zone %s: %w", zoneID, err)
	}

	return collectParcels(rows)
}

func (r *parcelRepository) List(ctx context.Context, filter ParcelFilter) ([]models.Parcel, error) {
	query := `SELECT` + parcelColumns + `
		FROM parcels
		WHERE deleted_at IS NULL
		  AND ($1::uuid IS NULL OR zone_id = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY reference, id
		LIMIT $3 OFFSET $4`

	limit, offset := pageBounds(filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, filter.ZoneID, statusArg(filter.Status), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list parcels: %w", err)
	}

	return collectParcels(rows)
}

func collectParcels(rows pgx.Rows) ([]models.Parcel, error) {
	defer rows.Close()

	parcels := []models.Parcel{}
	for rows.Next() {
		var parcel models.Parcel
		if err := scanParcel(rows, &parcel); err != nil {
			return nil, fmt.Errorf("failed to scan parcel row: %w", err)
		}
		parcels = append(parcels, parcel)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating parcel rows: %w", err)
	}

	return parcels, nil
}

func (r *parcelRepository) Create(ctx context.Context, parcel *models.Parcel) error {
	if parcel.ID == uuid.Nil {
		parcel.ID = uuid.New()
	}
	if parcel.Status == "" {
		parcel.Status = models.StatusFree
	}

	query := `
		INSERT INTO parcels (id, zone_id, reference, status, geometry, longitude, latitude, area)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		parcel.ID,
		parcel.ZoneID,
		parcel.Reference,
		parcel.Status,
		parcel.Geometry,
		parcel.Longitude,
		parcel.Latitude,
		parcel.Area,
	).Scan(&parcel.CreatedAt, &parcel.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert parcel %s: %w", parcel.ID, translateError(err))
	}

	return nil
}

func (r *parcelRepository) Save(ctx context.Context, parcel *models.Parcel) error {
	query := `
		UPDATE parcels
		SET zone_id = $2,
		    reference = $3,
		    status = $4,
		    geometry = $5,
		    longitude = $6,
		    latitude = $7,
		    area = $8,
		    updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		parcel.ID,
		parcel.ZoneID,
		parcel.Reference,
		parcel.Status,
		parcel.Geometry,
		parcel.Longitude,
		parcel.Latitude,
		parcel.Area,
	).Scan(&parcel.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("parcel %s: %w", parcel.ID, ErrNotFound)
		}
		return fmt.Errorf("failed to update parcel %s: %w", parcel.ID, translateError(err))
	}

	return nil
}

func (r *parcelRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM parcels WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("failed to delete parcel %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("parcel %s: %w", id, ErrNotFound)
	}
	return nil
}
