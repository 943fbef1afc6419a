package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/industria/api/internal/middleware"
	"github.com/industria/api/internal/models"
	"github.com/industria/api/internal/services"
)

// ZoneHandler handles zone-related HTTP requests.
type ZoneHandler struct {
	service services.ZoneService
}

// NewZoneHandler creates a new ZoneHandler instance.
func NewZoneHandler(service services.ZoneService) *ZoneHandler {
	return &ZoneHandler{
		service: service,
	}
}

// ZoneRequest is the body of the zone create and update endpoints.
// Status is ignored on update.
type ZoneRequest struct {
	GeometryFields

	Description *string         `json:"description" binding:"omitempty,max=4000"`
	Price       decimal.Decimal `json:"price"`
	Name        string          `json:"name" binding:"required,max=255"`
	Status      string          `json:"status" binding:"omitempty,oneof=FREE RESERVED UNAVAILABLE SOLD UNDER_DEVELOPMENT"`
}

func (r ZoneRequest) input() services.ZoneInput {
	return services.ZoneInput{
		Description: r.Description,
		Geometry:    r.GeometryFields.input(),
		Price:       r.Price,
		Name:        r.Name,
		Status:      models.Status(r.Status),
	}
}

// ZoneResponse wraps a single zone.
type ZoneResponse struct {
	Zone *models.Zone `json:"zone"`
}

// ZoneListResponse wraps a page of zones.
type ZoneListResponse struct {
	Zones []models.Zone `json:"zones"`
	Count int           `json:"count"`
}

// List handles GET /api/v1/zones.
func (h *ZoneHandler) List(c *gin.Context) {
	var q ListQuery
	if !bindQuery(c, &q) {
		return
	}

	zones, err := h.service.ListZones(c.Request.Context(), q.zoneFilter())
	if err != nil {
		writeServiceError(c, err, "Failed to list zones")
		return
	}

	c.JSON(http.StatusOK, ZoneListResponse{Zones: zones, Count: len(zones)})
}

// Get handles GET /api/v1/zones/:id.
func (h *ZoneHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	zone, err := h.service.GetZone(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err, "Failed to load zone")
		return
	}

	c.JSON(http.StatusOK, ZoneResponse{Zone: zone})
}

// Parcels handles GET /api/v1/zones/:id/parcels.
func (h *ZoneHandler) Parcels(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	parcels, err := h.service.ListZoneParcels(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err, "Failed to list zone parcels")
		return
	}

	c.JSON(http.StatusOK, ParcelListResponse{Parcels: parcels, Count: len(parcels)})
}

// Create handles POST /api/v1/zones.
func (h *ZoneHandler) Create(c *gin.Context) {
	var req ZoneRequest
	if !bindJSON(c, &req) {
		return
	}

	zone, err := h.service.CreateZone(c.Request.Context(), req.input())
	if err != nil {
		writeServiceError(c, err, "Failed to create zone")
		return
	}

	c.Header("Location", "/api/v1/zones/"+zone.ID.String())
	c.JSON(http.StatusCreated, ZoneResponse{Zone: zone})
}

// Update handles PUT /api/v1/zones/:id.
func (h *ZoneHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req ZoneRequest
	if !bindJSON(c, &req) {
		return
	}

	zone, err := h.service.UpdateZone(c.Request.Context(), id, req.input())
	if err != nil {
		writeServiceError(c, err, "Failed to update zone")
		return
	}

	c.JSON(http.StatusOK, ZoneResponse{Zone: zone})
}

// Delete handles DELETE /api/v1/zones/:id.
func (h *ZoneHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteZone(c.Request.Context(), id); err != nil {
		writeServiceError(c, err, "Failed to delete zone")
		return
	}

	c.Status(http.StatusNoContent)
}

// UpdateStatus handles PATCH /api/v1/zones/:id/status.
// FREE and UNDER_DEVELOPMENT are pushed down to every parcel of the zone.
func (h *ZoneHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req StatusRequest
	if !bindJSON(c, &req) {
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Updating zone status", map[string]interface{}{
			"zone_id": id.String(),
			"status":  req.Status,
		})
	}

	zone, err := h.service.UpdateZoneStatus(c.Request.Context(), id, models.Status(req.Status))
	if err != nil {
		writeServiceError(c, err, "Failed to update zone status")
		return
	}

	c.JSON(http.StatusOK, ZoneResponse{Zone: zone})
}
