package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/industria/api/internal/geometry"
	"github.com/industria/api/internal/logger"
	"github.com/industria/api/internal/metrics"
	"github.com/industria/api/internal/models"
	"github.com/industria/api/internal/repository"
)

// ParcelInput holds the client-editable fields of a parcel.
type ParcelInput struct {
	Area     *float64
	Geometry GeometryInput
	// ZoneID is only honoured on create.
	ZoneID    uuid.UUID
	Reference string
	// Status is only honoured on create; empty means FREE.
	Status models.Status
}

// ParcelService defines the interface for parcel business logic operations.
type ParcelService interface {
	// GetParcel returns ErrParcelNotFound if the parcel does not exist.
	GetParcel(ctx context.Context, id uuid.UUID) (*models.Parcel, error)

	ListParcels(ctx context.Context, filter repository.ParcelFilter) ([]models.Parcel, error)

	// CreateParcel returns ErrZoneNotFound if the zone does not exist and
	// ErrDuplicateReference if the reference is taken within the zone.
	CreateParcel(ctx context.Context, in ParcelInput) (*models.Parcel, error)

	// UpdateParcel replaces the editable fields of a parcel. Status and zone
	// are untouched.
	UpdateParcel(ctx context.Context, id uuid.UUID, in ParcelInput) (*models.Parcel, error)

	DeleteParcel(ctx context.Context, id uuid.UUID) error

	// UpdateParcelStatus sets the parcel status and recomputes the owning
	// zone's status from all of its parcels in the same transaction.
	UpdateParcelStatus(ctx context.Context, id uuid.UUID, status models.Status) (*models.Parcel, error)
}

type parcelService struct {
	uow     repository.UnitOfWork
	deriver *geometry.Deriver
	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewParcelService creates a new instance of ParcelService.
func NewParcelService(uow repository.UnitOfWork, deriver *geometry.Deriver, log *logger.Logger, m *metrics.Metrics) ParcelService {
	return &parcelService{
		uow:     uow,
		deriver: deriver,
		log:     log,
		metrics: m,
	}
}

func (s *parcelService) GetParcel(ctx context.Context, id uuid.UUID) (*models.Parcel, error) {
	var parcel *models.Parcel
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		parcel, err = findParcel(ctx, repos, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return parcel, nil
}

func (s *parcelService) ListParcels(ctx context.Context, filter repository.ParcelFilter) ([]models.Parcel, error) {
	if filter.Status != nil {
		if err := validateStatus(*filter.Status); err != nil {
			return nil, err
		}
	}

	var parcels []models.Parcel
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		parcels, err = repos.Parcels.List(ctx, filter)
		return err
	})
	if err != nil {
		s.log.Error("Failed to list parcels", err, nil)
		return nil, fmt.Errorf("failed to list parcels: %w", err)
	}
	return parcels, nil
}

func (s *parcelService) CreateParcel(ctx context.Context, in ParcelInput) (*models.Parcel, error) {
	if err := validateParcelInput(in); err != nil {
		return nil, err
	}
	if in.ZoneID == uuid.Nil {
		return nil, fmt.Errorf("%w: zone id is required", ErrInvalidInput)
	}

	status := in.Status
	if status == "" {
		status = models.StatusFree
	}
	if err := validateStatus(status); err != nil {
		return nil, err
	}

	parcel := &models.Parcel{
		ZoneID:    in.ZoneID,
		Reference: strings.TrimSpace(in.Reference),
		Area:      in.Area,
		Status:    status,
	}

	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := findZone(ctx, repos, in.ZoneID); err != nil {
			return err
		}

		applyGeometry(s.deriver, parcel, &parcel.Geometry, in.Geometry)
		return repos.Parcels.Create(ctx, parcel)
	})
	if err != nil {
		return nil, s.writeError("create", parcel.ID, err)
	}

	s.log.Info("Parcel created", map[string]interface{}{
		"parcel_id": parcel.ID,
		"zone_id":   parcel.ZoneID,
		"reference": parcel.Reference,
	})
	return parcel, nil
}

func (s *parcelService) UpdateParcel(ctx context.Context, id uuid.UUID, in ParcelInput) (*models.Parcel, error) {
	if err := validateParcelInput(in); err != nil {
		return nil, err
	}

	var parcel *models.Parcel
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		if parcel, err = findParcel(ctx, repos, id); err != nil {
			return err
		}

		parcel.Reference = strings.TrimSpace(in.Reference)
		parcel.Area = in.Area
		if in.Geometry.Provided() {
			applyGeometry(s.deriver, parcel, &parcel.Geometry, in.Geometry)
		}

		return repos.Parcels.Save(ctx, parcel)
	})
	if err != nil {
		return nil, s.writeError("update", id, err)
	}

	s.log.Info("Parcel updated", map[string]interface{}{"parcel_id": id})
	return parcel, nil
}

func (s *parcelService) DeleteParcel(ctx context.Context, id uuid.UUID) error {
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		return repos.Parcels.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrParcelNotFound, id)
		}
		return s.writeError("delete", id, err)
	}

	s.log.Info("Parcel deleted", map[string]interface{}{"parcel_id": id})
	return nil
}

func (s *parcelService) UpdateParcelStatus(ctx context.Context, id uuid.UUID, status models.Status) (*models.Parcel, error) {
	if err := validateStatus(status); err != nil {
		return nil, err
	}

	start := time.Now()
	defer s.metrics.ObserveStatusUpdate("parcel", start)

	var (
		parcel  *models.Parcel
		zone    *models.Zone
		changed bool
	)
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		if parcel, err = findParcel(ctx, repos, id); err != nil {
			return err
		}
		// Both lookups happen before any write so a dangling zone
		// reference leaves nothing behind.
		if zone, err = findZone(ctx, repos, parcel.ZoneID); err != nil {
			return err
		}

		parcel.Status = status
		if err := repos.Parcels.Save(ctx, parcel); err != nil {
			return err
		}

		siblings, err := repos.Parcels.FindByZoneID(ctx, zone.ID)
		if err != nil {
			return err
		}

		derived, ok := DeriveZoneStatus(parcelStatuses(siblings))
		if !ok || derived == zone.Status {
			return nil
		}

		zone.Status = derived
		changed = true
		return repos.Zones.Save(ctx, zone)
	})
	if err != nil {
		if errors.Is(err, ErrParcelNotFound) || errors.Is(err, ErrZoneNotFound) {
			return nil, err
		}
		s.log.Error("Failed to update parcel status", err, map[string]interface{}{
			"parcel_id": id,
			"status":    status,
		})
		return nil, fmt.Errorf("failed to update parcel status: %w", err)
	}

	s.metrics.IncParcelStatusUpdate(string(status))
	s.metrics.IncZoneRecomputed(changed)
	s.log.Info("Parcel status updated", map[string]interface{}{
		"parcel_id":    id,
		"zone_id":      zone.ID,
		"status":       status,
		"zone_status":  zone.Status,
		"zone_changed": changed,
	})

	return parcel, nil
}

// writeError maps repository failures onto service errors.
func (s *parcelService) writeError(op string, id uuid.UUID, err error) error {
	switch {
	case errors.Is(err, ErrParcelNotFound), errors.Is(err, ErrZoneNotFound):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrParcelNotFound, id)
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%w: %v", ErrDuplicateReference, err)
	case errors.Is(err, repository.ErrMissingReference):
		return fmt.Errorf("%w: %v", ErrZoneNotFound, err)
	}

	s.log.Error("Failed to "+op+" parcel", err, map[string]interface{}{"parcel_id": id})
	return fmt.Errorf("failed to %s parcel: %w", op, err)
}

func findParcel(ctx context.Context, repos repository.Repositories, id uuid.UUID) (*models.Parcel, error) {
	parcel, err := repos.Parcels.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query parcel: %w", err)
	}
	if parcel == nil {
		return nil, fmt.Errorf("%w: %s", ErrParcelNotFound, id)
	}
	return parcel, nil
}

func validateParcelInput(in ParcelInput) error {
	if strings.TrimSpace(in.Reference) == "" {
		return fmt.Errorf("%w: reference is required", ErrInvalidInput)
	}
	if in.Area != nil && *in.Area < 0 {
		return fmt.Errorf("%w: area must not be negative", ErrInvalidInput)
	}
	return nil
}
