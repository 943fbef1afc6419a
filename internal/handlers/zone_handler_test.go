package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "github.com/industria/api/internal/errors"
	"github.com/industria/api/internal/logger"
	"github.com/industria/api/internal/middleware"
	"github.com/industria/api/internal/models"
	"github.com/industria/api/internal/repository"
	"github.com/industria/api/internal/services"
)

// setupZoneTestRouter creates a test router with middleware and zone handlers.
func setupZoneTestRouter(handler *ZoneHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Nop()))

	v1 := router.Group("/api/v1")
	{
		zones := v1.Group("/zones")
		{
			zones.GET("", handler.List)
			zones.POST("", handler.Create)
			zones.GET("/:id", handler.Get)
			zones.PUT("/:id", handler.Update)
			zones.DELETE("/:id", handler.Delete)
			zones.PATCH("/:id/status", handler.UpdateStatus)
			zones.GET("/:id/parcels", handler.Parcels)
		}
	}

	return router
}

func newZoneFixture(name string) *models.Zone {
	return &models.Zone{
		ID:     uuid.New(),
		Name:   name,
		Status: models.StatusFree,
		Price:  decimal.RequireFromString("1250.50"),
	}
}

func TestZoneHandler_Create(t *testing.T) {
	t.Run("creates zone from vertices", func(t *testing.T) {
		svc := new(MockZoneService)
		router := setupZoneTestRouter(NewZoneHandler(svc))
		zone := newZoneFixture("Zone Ain Johra")

		svc.On("CreateZone", mock.Anything, mock.MatchedBy(func(in services.ZoneInput) bool {
			return in.Name == "Zone Ain Johra" &&
				in.Price.Equal(decimal.RequireFromString("1250.50")) &&
				len(in.Geometry.Vertices) == 3 &&
				in.Geometry.Text == nil &&
				in.Status == ""
		})).Return(zone, nil)

		w := doJSON(t, router, http.MethodPost, "/api/v1/zones", `{
			"name": "Zone Ain Johra",
			"price": "1250.50",
			"vertices": [{"x": 1, "y": 1, "seq": 0}, {"x": 2, "y": 1, "seq": 1}, {"x": 2, "y": 2, "seq": 2}]
		}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "/api/v1/zones/"+zone.ID.String(), w.Header().Get("Location"))

		var resp ZoneResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, zone.ID, resp.Zone.ID)
		assert.Equal(t, models.StatusFree, resp.Zone.Status)
		svc.AssertExpectations(t)
	})

	t.Run("creates zone from polygon text", func(t *testing.T) {
		svc := new(MockZoneService)
		router := setupZoneTestRouter(NewZoneHandler(svc))
		text := "POLYGON((1 1, 2 1, 2 2, 1 1))"

		svc.On("CreateZone", mock.Anything, mock.MatchedBy(func(in services.ZoneInput) bool {
			return in.Geometry.Vertices == nil && in.Geometry.Text != nil && *in.Geometry.Text == text &&
				in.Status == models.StatusReserved
		})).Return(newZoneFixture("Z"), nil)

		w := doJSON(t, router, http.MethodPost, "/api/v1/zones", map[string]interface{}{
			"name":     "Z",
			"price":    100,
			"status":   "RESERVED",
			"geometry": text,
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		svc.AssertExpectations(t)
	})

	tests := []struct {
		name      string
		body      interface{}
		wantCode  string
		wantField string
	}{
		{name: "missing name", body: map[string]interface{}{"price": 1}, wantCode: apierrors.ErrValidation, wantField: "name"},
		{name: "unknown status", body: map[string]interface{}{"name": "Z", "status": "OPEN"}, wantCode: apierrors.ErrValidation, wantField: "status"},
		{name: "malformed json", body: `{"name":`, wantCode: apierrors.ErrBadRequest},
		{name: "price is not a number", body: `{"name":"Z","price":"abc"}`, wantCode: apierrors.ErrBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockZoneService)
			router := setupZoneTestRouter(NewZoneHandler(svc))

			w := doJSON(t, router, http.MethodPost, "/api/v1/zones", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			if tt.wantField != "" {
				assert.Contains(t, resp.Error.Details, tt.wantField)
			}
			assert.NotEmpty(t, resp.Error.RequestID)
			svc.AssertNotCalled(t, "CreateZone", mock.Anything, mock.Anything)
		})
	}

	t.Run("service rejects input", func(t *testing.T) {
		svc := new(MockZoneService)
		router := setupZoneTestRouter(NewZoneHandler(svc))

		svc.On("CreateZone", mock.Anything, mock.Anything).
			Return(nil, errors.Join(services.ErrInvalidInput, errors.New("price must not be negative")))

		w := doJSON(t, router, http.MethodPost, "/api/v1/zones", map[string]interface{}{"name": "Z", "price": -1})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apierrors.ErrBadRequest, decodeError(t, w).Error.Code)
	})
}

func TestZoneHandler_Get(t *testing.T) {
	t.Run("returns zone", func(t *testing.T) {
		svc := new(MockZoneService)
		router := setupZoneTestRouter(NewZoneHandler(svc))
		zone := newZoneFixture("Z")

		svc.On("GetZone", mock.Anything, zone.ID).Return(zone, nil)

		w := doJSON(t, router, http.MethodGet, "/api/v1/zones/"+zone.ID.String(), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp ZoneResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Z", resp.Zone.Name)
	})

	t.Run("not found", func(t *testing.T) {
		svc := new(MockZoneService)
		router := setupZoneTestRouter(NewZoneHandler(svc))
		id := uuid.New()

		svc.On("GetZone", mock.Anything, id).Return(nil, services.ErrZoneNotFound)

		w := doJSON(t, router, http.MethodGet, "/api/v1/zones/"+id.String(), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, apierrors.ErrNotFound, resp.Error.Code)
		assert.Equal(t, "Zone not found", resp.Error.Message)
	})

	t.Run("malformed id", func(t *testing.T) {
		svc := new(MockZoneService)
		router := setupZoneTestRouter(NewZoneHandler(svc))

		w := doJSON(t, router, http.MethodGet, "/api/v1/zones/42", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "GetZone", mock.Anything, mock.Anything)
	})

	t.Run("unexpected error", func(t *testing.T) {
		svc := new(MockZoneService)
		router := setupZoneTestRouter(NewZoneHandler(svc))
		id := uuid.New()

		svc.On("GetZone", mock.Anything, id).Return(nil, errors.New("connection reset"))

		w := doJSON(t, router, http.MethodGet, "/api/v1/zones/"+id.String(), nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, apierrors.ErrInternalServer, resp.Error.Code)
		assert.NotContains(t, resp.Error.Message, "connection reset")
	})
}

func TestZoneHandler_List(t *testing.T) {
	t.Run("passes filters", func(t *testing.T) {
		svc := new(MockZoneService)
		router := setupZoneTestRouter(NewZoneHandler(svc))

		sold := models.StatusSold
		svc.On("ListZones", mock.Anything, repository.ZoneFilter{Status: &sold, Limit: 10, Offset: 20}).
			Return([]models.Zone{*newZoneFixture("A"), *newZoneFixture("B")}, nil)

		w := doJSON(t, router, http.MethodGet, "/api/v1/zones?status=SOLD&limit=10&offset=20", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp ZoneListResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Count)
		svc.AssertExpectations(t)
	})

	t.Run("rejects oversized limit", func(t *testing.T) {
		svc := new(MockZoneService)
		router := setupZoneTestRouter(NewZoneHandler(svc))

		w := doJSON(t, router, http.MethodGet, "/api/v1/zones?limit=5000", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeError(t, w).Error.Details, "limit")
	})
}

func TestZoneHandler_UpdateAndDelete(t *testing.T) {
	t.Run("update keeps geometry when none is sent", func(t *testing.T) {
		svc := new(MockZoneService)
		router := setupZoneTestRouter(NewZoneHandler(svc))
		zone := newZoneFixture("Renamed")

		svc.On("UpdateZone", mock.Anything, zone.ID, mock.MatchedBy(func(in services.ZoneInput) bool {
			return in.Name == "Renamed" && !in.Geometry.Provided() && *in.Description == "north block"
		})).Return(zone, nil)

		w := doJSON(t, router, http.MethodPut, "/api/v1/zones/"+zone.ID.String(), map[string]interface{}{
			"name":        "Renamed",
			"description": "north block",
			"price":       "10",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("delete", func(t *testing.T) {
		svc := new(MockZoneService)
		router := setupZoneTestRouter(NewZoneHandler(svc))
		id := uuid.New()

		svc.On("DeleteZone", mock.Anything, id).Return(nil).Once()
		assert.Equal(t, http.StatusNoContent, doJSON(t, router, http.MethodDelete, "/api/v1/zones/"+id.String(), nil).Code)

		svc.On("DeleteZone", mock.Anything, id).Return(services.ErrZoneNotFound).Once()
		assert.Equal(t, http.StatusNotFound, doJSON(t, router, http.MethodDelete, "/api/v1/zones/"+id.String(), nil).Code)
	})
}

func TestZoneHandler_UpdateStatus(t *testing.T) {
	t.Run("forwards status", func(t *testing.T) {
		svc := new(MockZoneService)
		router := setupZoneTestRouter(NewZoneHandler(svc))
		zone := newZoneFixture("Z")
		zone.Status = models.StatusUnderDevelopment

		svc.On("UpdateZoneStatus", mock.Anything, zone.ID, models.StatusUnderDevelopment).Return(zone, nil)

		w := doJSON(t, router, http.MethodPatch, "/api/v1/zones/"+zone.ID.String()+"/status",
			StatusRequest{Status: "UNDER_DEVELOPMENT"})

		assert.Equal(t, http.StatusOK, w.Code)
		var resp ZoneResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, models.StatusUnderDevelopment, resp.Zone.Status)
		svc.AssertExpectations(t)
	})

	for _, body := range []interface{}{StatusRequest{Status: "free"}, StatusRequest{}, `{}`} {
		svc := new(MockZoneService)
		router := setupZoneTestRouter(NewZoneHandler(svc))

		w := doJSON(t, router, http.MethodPatch, "/api/v1/zones/"+uuid.NewString()+"/status", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apierrors.ErrValidation, decodeError(t, w).Error.Code)
		svc.AssertNotCalled(t, "UpdateZoneStatus", mock.Anything, mock.Anything, mock.Anything)
	}

	t.Run("zone not found", func(t *testing.T) {
		svc := new(MockZoneService)
		router := setupZoneTestRouter(NewZoneHandler(svc))
		id := uuid.New()

		svc.On("UpdateZoneStatus", mock.Anything, id, models.StatusFree).Return(nil, services.ErrZoneNotFound)

		w := doJSON(t, router, http.MethodPatch, "/api/v1/zones/"+id.String()+"/status", StatusRequest{Status: "FREE"})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestZoneHandler_Parcels(t *testing.T) {
	svc := new(MockZoneService)
	router := setupZoneTestRouter(NewZoneHandler(svc))
	id := uuid.New()

	svc.On("ListZoneParcels", mock.Anything, id).Return([]models.Parcel{
		{ID: uuid.New(), ZoneID: id, Reference: "P1", Status: models.StatusFree},
	}, nil)

	w := doJSON(t, router, http.MethodGet, "/api/v1/zones/"+id.String()+"/parcels", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp ParcelListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Parcels, 1)
	assert.Equal(t, "P1", resp.Parcels[0].Reference)
}
