package handlers

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	apierrors "github.com/industria/api/internal/errors"
	"github.com/industria/api/internal/models"
	"github.com/industria/api/internal/repository"
	"github.com/industria/api/internal/services"
)

// SetupValidator makes validation errors report JSON (or form) field names.
func SetupValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})
	}
}

// StatusRequest is the body of the status change endpoints.
type StatusRequest struct {
	Status string `json:"status" binding:"required,oneof=FREE RESERVED UNAVAILABLE SOLD UNDER_DEVELOPMENT"`
}

// GeometryFields are accepted on every create and update body.
// Vertices win over Geometry when both are sent.
type GeometryFields struct {
	Geometry *string         `json:"geometry" binding:"omitempty,max=1000000"`
	Vertices []models.Vertex `json:"vertices" binding:"omitempty,max=10000"`
}

func (g GeometryFields) input() services.GeometryInput {
	return services.GeometryInput{Vertices: g.Vertices, Text: g.Geometry}
}

// ListQuery holds the shared list query parameters.
type ListQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=FREE RESERVED UNAVAILABLE SOLD UNDER_DEVELOPMENT"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
}

func (q ListQuery) status() *models.Status {
	if q.Status == "" {
		return nil
	}
	s := models.Status(q.Status)
	return &s
}

func (q ListQuery) zoneFilter() repository.ZoneFilter {
	return repository.ZoneFilter{Status: q.status(), Limit: q.Limit, Offset: q.Offset}
}

// bindJSON binds the body and writes the error response on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeBindError(c, err, "Invalid request body")
		return false
	}
	return true
}

// bindQuery binds query parameters and writes the error response on failure.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		writeBindError(c, err, "Invalid query parameters")
		return false
	}
	return true
}

func writeBindError(c *gin.Context, err error, message string) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		apierrors.ValidationError(c, validationErrors)
		return
	}
	apierrors.BadRequest(c, message, map[string]interface{}{"error": err.Error()})
}

// parseID reads a UUID path parameter and writes a 400 when it is malformed.
func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		apierrors.BadRequest(c, "Invalid "+param, map[string]interface{}{param: c.Param(param)})
		return uuid.Nil, false
	}
	return id, true
}

// writeServiceError maps service errors onto API error responses.
func writeServiceError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, services.ErrZoneNotFound):
		apierrors.NotFound(c, "Zone not found")
	case errors.Is(err, services.ErrParcelNotFound):
		apierrors.NotFound(c, "Parcel not found")
	case errors.Is(err, services.ErrDuplicateReference):
		apierrors.Conflict(c, "Parcel reference already used in this zone")
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, models.ErrInvalidStatus):
		apierrors.BadRequest(c, err.Error(), nil)
	default:
		apierrors.InternalServerError(c, message, err)
	}
}
