package services

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/industria/api/internal/models"
	"github.com/industria/api/internal/repository"
)

// MockZoneRepository is a mock implementation of ZoneRepository for testing
type MockZoneRepository struct {
	mock.Mock
}

func (m *MockZoneRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Zone, error) {
	args := m.Called(ctx, id)
	zone, _ := args.Get(0).(*models.Zone)
	return zone, args.Error(1)
}

func (m *MockZoneRepository) List(ctx context.Context, filter repository.ZoneFilter) ([]models.Zone, error) {
	args := m.Called(ctx, filter)
	zones, _ := args.Get(0).([]models.Zone)
	return zones, args.Error(1)
}

func (m *MockZoneRepository) Create(ctx context.Context, zone *models.Zone) error {
	return m.Called(ctx, zone).Error(0)
}

func (m *MockZoneRepository) Save(ctx context.Context, zone *models.Zone) error {
	return m.Called(ctx, zone).Error(0)
}

func (m *MockZoneRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockParcelRepository is a mock implementation of ParcelRepository for testing
type MockParcelRepository struct {
	mock.Mock
}

func (m *MockParcelRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Parcel, error) {
	args := m.Called(ctx, id)
	parcel, _ := args.Get(0).(*models.Parcel)
	return parcel, args.Error(1)
}

func (m *MockParcelRepository) FindByZoneID(ctx context.Context, zoneID uuid.UUID) ([]models.Parcel, error) {
	args := m.Called(ctx, zoneID)
	parcels, _ := args.Get(0).([]models.Parcel)
	return parcels, args.Error(1)
}

func (m *MockParcelRepository) List(ctx context.Context, filter repository.ParcelFilter) ([]models.Parcel, error) {
	args := m.Called(ctx, filter)
	parcels, _ := args.Get(0).([]models.Parcel)
	return parcels, args.Error(1)
}

func (m *MockParcelRepository) Create(ctx context.Context, parcel *models.Parcel) error {
	return m.Called(ctx, parcel).Error(0)
}

func (m *MockParcelRepository) Save(ctx context.Context, parcel *models.Parcel) error {
	return m.Called(ctx, parcel).Error(0)
}

func (m *MockParcelRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// mockUnitOfWork hands the mock repositories to every unit of work.
type mockUnitOfWork struct {
	zones   *MockZoneRepository
	parcels *MockParcelRepository
}

func newMockUnitOfWork() *mockUnitOfWork {
	return &mockUnitOfWork{
		zones:   new(MockZoneRepository),
		parcels: new(MockParcelRepository),
	}
}

func (u *mockUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	return fn(ctx, repository.Repositories{Zones: u.zones, Parcels: u.parcels})
}

// memoryStore is an in-memory UnitOfWork. Each Do works on a copy of the
// data that replaces the committed state only when fn succeeds.
type memoryStore struct {
	mu      sync.Mutex
	zones   map[uuid.UUID]models.Zone
	parcels map[uuid.UUID]models.Parcel

	// failParcelSave makes the nth parcel save of a unit of work fail.
	failParcelSave int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		zones:   map[uuid.UUID]models.Zone{},
		parcels: map[uuid.UUID]models.Parcel{},
	}
}

func (s *memoryStore) addZone(status models.Status) models.Zone {
	zone := models.Zone{ID: uuid.New(), Name: "zone", Status: status}
	s.zones[zone.ID] = zone
	return zone
}

func (s *memoryStore) addParcel(zoneID uuid.UUID, reference string, status models.Status) models.Parcel {
	parcel := models.Parcel{ID: uuid.New(), ZoneID: zoneID, Reference: reference, Status: status}
	s.parcels[parcel.ID] = parcel
	return parcel
}

func (s *memoryStore) zone(id uuid.UUID) models.Zone {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zones[id]
}

func (s *memoryStore) parcel(id uuid.UUID) models.Parcel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.parcels[id]
}

func (s *memoryStore) Do(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{
		zones:          make(map[uuid.UUID]models.Zone, len(s.zones)),
		parcels:        make(map[uuid.UUID]models.Parcel, len(s.parcels)),
		failParcelSave: s.failParcelSave,
	}
	for k, v := range s.zones {
		tx.zones[k] = v
	}
	for k, v := range s.parcels {
		tx.parcels[k] = v
	}

	if err := fn(ctx, repository.Repositories{Zones: memoryZones{tx}, Parcels: memoryParcels{tx}}); err != nil {
		return err
	}

	s.zones, s.parcels = tx.zones, tx.parcels
	return nil
}

type memoryTx struct {
	zones          map[uuid.UUID]models.Zone
	parcels        map[uuid.UUID]models.Parcel
	parcelSaves    int
	failParcelSave int
}

type memoryZones struct{ tx *memoryTx }

func (r memoryZones) FindByID(_ context.Context, id uuid.UUID) (*models.Zone, error) {
	zone, ok := r.tx.zones[id]
	if !ok {
		return nil, nil
	}
	return &zone, nil
}

func (r memoryZones) List(_ context.Context, _ repository.ZoneFilter) ([]models.Zone, error) {
	zones := []models.Zone{}
	for _, z := range r.tx.zones {
		zones = append(zones, z)
	}
	return zones, nil
}

func (r memoryZones) Create(_ context.Context, zone *models.Zone) error {
	if zone.ID == uuid.Nil {
		zone.ID = uuid.New()
	}
	r.tx.zones[zone.ID] = *zone
	return nil
}

func (r memoryZones) Save(_ context.Context, zone *models.Zone) error {
	if _, ok := r.tx.zones[zone.ID]; !ok {
		return repository.ErrNotFound
	}
	r.tx.zones[zone.ID] = *zone
	return nil
}

func (r memoryZones) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.tx.zones[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.tx.zones, id)
	for pid, p := range r.tx.parcels {
		if p.ZoneID == id {
			delete(r.tx.parcels, pid)
		}
	}
	return nil
}

type memoryParcels struct{ tx *memoryTx }

func (r memoryParcels) FindByID(_ context.Context, id uuid.UUID) (*models.Parcel, error) {
	parcel, ok := r.tx.parcels[id]
	if !ok {
		return nil, nil
	}
	return &parcel, nil
}

func (r memoryParcels) FindByZoneID(_ context.Context, zoneID uuid.UUID) ([]models.Parcel, error) {
	parcels := []models.Parcel{}
	for _, p := range r.tx.parcels {
		if p.ZoneID == zoneID {
			parcels = append(parcels, p)
		}
	}
	sort.Slice(parcels, func(i, j int) bool { return parcels[i].Reference < parcels[j].Reference })
	return parcels, nil
}

func (r memoryParcels) List(ctx context.Context, filter repository.ParcelFilter) ([]models.Parcel, error) {
	if filter.ZoneID != nil {
		return r.FindByZoneID(ctx, *filter.ZoneID)
	}
	parcels := []models.Parcel{}
	for _, p := range r.tx.parcels {
		parcels = append(parcels, p)
	}
	return parcels, nil
}

func (r memoryParcels) Create(_ context.Context, parcel *models.Parcel) error {
	if _, ok := r.tx.zones[parcel.ZoneID]; !ok {
		return repository.ErrMissingReference
	}
	if parcel.ID == uuid.Nil {
		parcel.ID = uuid.New()
	}
	r.tx.parcels[parcel.ID] = *parcel
	return nil
}

func (r memoryParcels) Save(_ context.Context, parcel *models.Parcel) error {
	r.tx.parcelSaves++
	if r.tx.failParcelSave > 0 && r.tx.parcelSaves == r.tx.failParcelSave {
		return errSaveFailed
	}
	if _, ok := r.tx.parcels[parcel.ID]; !ok {
		return repository.ErrNotFound
	}
	r.tx.parcels[parcel.ID] = *parcel
	return nil
}

func (r memoryParcels) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.tx.parcels[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.tx.parcels, id)
	return nil
}
