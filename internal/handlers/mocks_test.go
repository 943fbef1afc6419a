package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "github.com/industria/api/internal/errors"
	"github.com/industria/api/internal/models"
	"github.com/industria/api/internal/repository"
	"github.com/industria/api/internal/services"
)

func init() {
	SetupValidator()
}

// MockZoneService is a mock implementation of services.ZoneService.
type MockZoneService struct {
	mock.Mock
}

func (m *MockZoneService) GetZone(ctx context.Context, id uuid.UUID) (*models.Zone, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Zone), args.Error(1)
}

func (m *MockZoneService) ListZones(ctx context.Context, filter repository.ZoneFilter) ([]models.Zone, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Zone), args.Error(1)
}

func (m *MockZoneService) ListZoneParcels(ctx context.Context, id uuid.UUID) ([]models.Parcel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Parcel), args.Error(1)
}

func (m *MockZoneService) CreateZone(ctx context.Context, in services.ZoneInput) (*models.Zone, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Zone), args.Error(1)
}

func (m *MockZoneService) UpdateZone(ctx context.Context, id uuid.UUID, in services.ZoneInput) (*models.Zone, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Zone), args.Error(1)
}

func (m *MockZoneService) DeleteZone(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockZoneService) UpdateZoneStatus(ctx context.Context, id uuid.UUID, status models.Status) (*models.Zone, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Zone), args.Error(1)
}

// MockParcelService is a mock implementation of services.ParcelService.
type MockParcelService struct {
	mock.Mock
}

func (m *MockParcelService) GetParcel(ctx context.Context, id uuid.UUID) (*models.Parcel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Parcel), args.Error(1)
}

func (m *MockParcelService) ListParcels(ctx context.Context, filter repository.ParcelFilter) ([]models.Parcel, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Parcel), args.Error(1)
}

func (m *MockParcelService) CreateParcel(ctx context.Context, in services.ParcelInput) (*models.Parcel, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Parcel), args.Error(1)
}

func (m *MockParcelService) UpdateParcel(ctx context.Context, id uuid.UUID, in services.ParcelInput) (*models.Parcel, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Parcel), args.Error(1)
}

func (m *MockParcelService) DeleteParcel(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockParcelService) UpdateParcelStatus(ctx context.Context, id uuid.UUID, status models.Status) (*models.Parcel, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Parcel), args.Error(1)
}

// doJSON sends body (marshalled unless it is already a string) to router.
func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apierrors.ErrorResponse {
	t.Helper()
	var resp apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func strPtr(s string) *string {
	return &s
}
