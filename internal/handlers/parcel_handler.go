package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/industria/api/internal/middleware"
	"github.com/industria/api/internal/models"
	"github.com/industria/api/internal/repository"
	"github.com/industria/api/internal/services"
)

// ParcelHandler handles parcel-related HTTP requests.
type ParcelHandler struct {
	service services.ParcelService
}

// NewParcelHandler creates a new ParcelHandler instance.
func NewParcelHandler(service services.ParcelService) *ParcelHandler {
	return &ParcelHandler{
		service: service,
	}
}

// ParcelRequest is the body of the parcel update endpoint.
type ParcelRequest struct {
	GeometryFields

	Area      *float64 `json:"area" binding:"omitempty,gte=0"`
	Reference string   `json:"reference" binding:"required,max=64"`
}

// CreateParcelRequest is the body of the parcel create endpoint.
type CreateParcelRequest struct {
	ParcelRequest

	ZoneID string `json:"zoneId" binding:"required,uuid"`
	Status string `json:"status" binding:"omitempty,oneof=FREE RESERVED UNAVAILABLE SOLD UNDER_DEVELOPMENT"`
}

func (r ParcelRequest) input() services.ParcelInput {
	return services.ParcelInput{
		Area:      r.Area,
		Geometry:  r.GeometryFields.input(),
		Reference: r.Reference,
	}
}

// ParcelListQuery adds the zone filter to the shared list parameters.
type ParcelListQuery struct {
	ListQuery

	ZoneID string `form:"zone_id" binding:"omitempty,uuid"`
}

// ParcelResponse wraps a single parcel.
type ParcelResponse struct {
	Parcel *models.Parcel `json:"parcel"`
}

// ParcelListResponse wraps a list of parcels.
type ParcelListResponse struct {
	Parcels []models.Parcel `json:"parcels"`
	Count   int             `json:"count"`
}

// List handles GET /api/v1/parcels.
func (h *ParcelHandler) List(c *gin.Context) {
	var q ParcelListQuery
	if !bindQuery(c, &q) {
		return
	}

	filter := repository.ParcelFilter{Status: q.status(), Limit: q.Limit, Offset: q.Offset}
	if q.ZoneID != "" {
		zoneID := uuid.MustParse(q.ZoneID)
		filter.ZoneID = &zoneID
	}

	parcels, err := h.service.ListParcels(c.Request.Context(), filter)
	if err != nil {
		writeServiceError(c, err, "Failed to list parcels")
		return
	}

	c.JSON(http.StatusOK, ParcelListResponse{Parcels: parcels, Count: len(parcels)})
}

// Get handles GET /api/v1/parcels/:id.
func (h *ParcelHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	parcel, err := h.service.GetParcel(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err, "Failed to load parcel")
		return
	}

	c.JSON(http.StatusOK, ParcelResponse{Parcel: parcel})
}

// Create handles POST /api/v1/parcels.
func (h *ParcelHandler) Create(c *gin.Context) {
	var req CreateParcelRequest
	if !bindJSON(c, &req) {
		return
	}

	in := req.input()
	in.ZoneID = uuid.MustParse(req.ZoneID)
	in.Status = models.Status(req.Status)

	parcel, err := h.service.CreateParcel(c.Request.Context(), in)
	if err != nil {
		writeServiceError(c, err, "Failed to create parcel")
		return
	}

	c.Header("Location", "/api/v1/parcels/"+parcel.ID.String())
	c.JSON(http.StatusCreated, ParcelResponse{Parcel: parcel})
}

// Update handles PUT /api/v1/parcels/:id.
func (h *ParcelHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req ParcelRequest
	if !bindJSON(c, &req) {
		return
	}

	parcel, err := h.service.UpdateParcel(c.Request.Context(), id, req.input())
	if err != nil {
		writeServiceError(c, err, "Failed to update parcel")
		return
	}

	c.JSON(http.StatusOK, ParcelResponse{Parcel: parcel})
}

// Delete handles DELETE /api/v1/parcels/:id.
func (h *ParcelHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteParcel(c.Request.Context(), id); err != nil {
		writeServiceError(c, err, "Failed to delete parcel")
		return
	}

	c.Status(http.StatusNoContent)
}

// UpdateStatus handles PATCH /api/v1/parcels/:id/status.
// The owning zone's status is recomputed from all of its parcels.
func (h *ParcelHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req StatusRequest
	if !bindJSON(c, &req) {
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Updating parcel status", map[string]interface{}{
			"parcel_id": id.String(),
			"status":    req.Status,
		})
	}

	parcel, err := h.service.UpdateParcelStatus(c.Request.Context(), id, models.Status(req.Status))
	if err != nil {
		writeServiceError(c, err, "Failed to update parcel status")
		return
	}

	c.JSON(http.StatusOK, ParcelResponse{Parcel: parcel})
}
