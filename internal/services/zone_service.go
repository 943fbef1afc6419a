package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/industria/api/internal/geometry"
	"github.com/industria/api/internal/logger"
	"github.com/industria/api/internal/metrics"
	"github.com/industria/api/internal/models"
	"github.com/industria/api/internal/repository"
)

// ZoneInput holds the client-editable fields of a zone.
type ZoneInput struct {
	Description *string
	Geometry    GeometryInput
	Price       decimal.Decimal
	Name        string
	// Status is only honoured on create; empty means FREE.
	Status models.Status
}

// ZoneService defines the interface for zone business logic operations.
type ZoneService interface {
	// GetZone returns ErrZoneNotFound if the zone does not exist.
	GetZone(ctx context.Context, id uuid.UUID) (*models.Zone, error)

	ListZones(ctx context.Context, filter repository.ZoneFilter) ([]models.Zone, error)

	// ListZoneParcels returns ErrZoneNotFound if the zone does not exist.
	ListZoneParcels(ctx context.Context, id uuid.UUID) ([]models.Parcel, error)

	// CreateZone stores a new zone and derives its centroid from the geometry.
	CreateZone(ctx context.Context, in ZoneInput) (*models.Zone, error)

	// UpdateZone replaces the editable fields of a zone. Status is untouched;
	// use UpdateZoneStatus so parcels follow.
	UpdateZone(ctx context.Context, id uuid.UUID, in ZoneInput) (*models.Zone, error)

	// DeleteZone removes the zone and its parcels.
	DeleteZone(ctx context.Context, id uuid.UUID) error

	// UpdateZoneStatus sets the zone status. FREE and UNDER_DEVELOPMENT are
	// copied onto every parcel of the zone; other statuses leave parcels
	// untouched. The zone write and all parcel writes share one transaction.
	UpdateZoneStatus(ctx context.Context, id uuid.UUID, status models.Status) (*models.Zone, error)
}

type zoneService struct {
	uow     repository.UnitOfWork
	deriver *geometry.Deriver
	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewZoneService creates a new instance of ZoneService.
func NewZoneService(uow repository.UnitOfWork, deriver *geometry.Deriver, log *logger.Logger, m *metrics.Metrics) ZoneService {
	return &zoneService{
		uow:     uow,
		deriver: deriver,
		log:     log,
		metrics: m,
	}
}

func (s *zoneService) GetZone(ctx context.Context, id uuid.UUID) (*models.Zone, error) {
	var zone *models.Zone
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		zone, err = findZone(ctx, repos, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return zone, nil
}

func (s *zoneService) ListZones(ctx context.Context, filter repository.ZoneFilter) ([]models.Zone, error) {
	if filter.Status != nil {
		if err := validateStatus(*filter.Status); err != nil {
			return nil, err
		}
	}

	var zones []models.Zone
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		zones, err = repos.Zones.List(ctx, filter)
		return err
	})
	if err != nil {
		s.log.Error("Failed to list zones", err, nil)
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}
	return zones, nil
}

func (s *zoneService) ListZoneParcels(ctx context.Context, id uuid.UUID) ([]models.Parcel, error) {
	var parcels []models.Parcel
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := findZone(ctx, repos, id); err != nil {
			return err
		}
		var err error
		parcels, err = repos.Parcels.FindByZoneID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return parcels, nil
}

func (s *zoneService) CreateZone(ctx context.Context, in ZoneInput) (*models.Zone, error) {
	if err := validateZoneInput(in); err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = models.StatusFree
	}
	if err := validateStatus(status); err != nil {
		return nil, err
	}

	zone := &models.Zone{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Status:      status,
	}

	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		outcome := applyGeometry(s.deriver, zone, &zone.Geometry, in.Geometry)
		s.log.Debug("Derived zone coordinates", map[string]interface{}{"outcome": outcome})
		return repos.Zones.Create(ctx, zone)
	})
	if err != nil {
		s.log.Error("Failed to create zone", err, map[string]interface{}{"name": zone.Name})
		return nil, fmt.Errorf("failed to create zone: %w", err)
	}

	s.log.Info("Zone created", map[string]interface{}{
		"zone_id": zone.ID,
		"name":    zone.Name,
		"status":  zone.Status,
	})
	return zone, nil
}

func (s *zoneService) UpdateZone(ctx context.Context, id uuid.UUID, in ZoneInput) (*models.Zone, error) {
	if err := validateZoneInput(in); err != nil {
		return nil, err
	}

	var zone *models.Zone
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		if zone, err = findZone(ctx, repos, id); err != nil {
			return err
		}

		zone.Name = strings.TrimSpace(in.Name)
		zone.Description = in.Description
		zone.Price = in.Price
		if in.Geometry.Provided() {
			applyGeometry(s.deriver, zone, &zone.Geometry, in.Geometry)
		}

		return repos.Zones.Save(ctx, zone)
	})
	if err != nil {
		if errors.Is(err, ErrZoneNotFound) {
			return nil, err
		}
		s.log.Error("Failed to update zone", err, map[string]interface{}{"zone_id": id})
		return nil, fmt.Errorf("failed to update zone: %w", err)
	}

	s.log.Info("Zone updated", map[string]interface{}{"zone_id": id})
	return zone, nil
}

func (s *zoneService) DeleteZone(ctx context.Context, id uuid.UUID) error {
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		return repos.Zones.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrZoneNotFound, id)
		}
		s.log.Error("Failed to delete zone", err, map[string]interface{}{"zone_id": id})
		return fmt.Errorf("failed to delete zone: %w", err)
	}

	s.log.Info("Zone deleted", map[string]interface{}{"zone_id": id})
	return nil
}

func (s *zoneService) UpdateZoneStatus(ctx context.Context, id uuid.UUID, status models.Status) (*models.Zone, error) {
	if err := validateStatus(status); err != nil {
		return nil, err
	}

	start := time.Now()
	defer s.metrics.ObserveStatusUpdate("zone", start)

	var (
		zone       *models.Zone
		propagated int
	)
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		if zone, err = findZone(ctx, repos, id); err != nil {
			return err
		}

		zone.Status = status
		if err := repos.Zones.Save(ctx, zone); err != nil {
			return err
		}

		if !propagatesToParcels(status) {
			return nil
		}

		parcels, err := repos.Parcels.FindByZoneID(ctx, zone.ID)
		if err != nil {
			return err
		}
		for i := range parcels {
			parcels[i].Status = status
			if err := repos.Parcels.Save(ctx, &parcels[i]); err != nil {
				return err
			}
		}
		propagated = len(parcels)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrZoneNotFound) {
			return nil, err
		}
		s.log.Error("Failed to update zone status", err, map[string]interface{}{
			"zone_id": id,
			"status":  status,
		})
		return nil, fmt.Errorf("failed to update zone status: %w", err)
	}

	s.metrics.IncZoneStatusUpdate(string(status))
	s.metrics.AddParcelsPropagated(propagated)
	s.log.Info("Zone status updated", map[string]interface{}{
		"zone_id":           id,
		"status":            status,
		"parcels_updated":   propagated,
		"propagated_status": propagatesToParcels(status),
	})

	return zone, nil
}

// propagatesToParcels reports whether a zone status is copied onto parcels.
func propagatesToParcels(status models.Status) bool {
	return status == models.StatusFree || status == models.StatusUnderDevelopment
}

func findZone(ctx context.Context, repos repository.Repositories, id uuid.UUID) (*models.Zone, error) {
	zone, err := repos.Zones.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query zone: %w", err)
	}
	if zone == nil {
		return nil, fmt.Errorf("%w: %s", ErrZoneNotFound, id)
	}
	return zone, nil
}

func validateZoneInput(in ZoneInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	return nil
}
