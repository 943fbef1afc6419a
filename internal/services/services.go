package services

import (
	"errors"
	"fmt"
	"slices"

	"github.com/industria/api/internal/geometry"
	"github.com/industria/api/internal/models"
)

// Service-level errors
var (
	ErrZoneNotFound       = errors.New("zone not found")
	ErrParcelNotFound     = errors.New("parcel not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicateReference = errors.New("parcel reference already used in zone")
)

// GeometryInput carries client-supplied geometry. Vertices take precedence
// over Text. A non-nil empty Vertices slice or an empty Text clears the
// geometry; leaving both nil keeps the existing geometry on update.
type GeometryInput struct {
	Vertices []models.Vertex
	Text     *string
}

// Provided reports whether the client sent any geometry.
func (g GeometryInput) Provided() bool {
	return g.Vertices != nil || g.Text != nil
}

// applyGeometry stores the polygon on the entity's geometry field and runs
// the coordinate derivation. It must be called inside the write transaction.
func applyGeometry(d *geometry.Deriver, entity models.Georeferenced, target *models.Polygon, in GeometryInput) geometry.Outcome {
	if in.Vertices != nil {
		vertices := slices.Clone(in.Vertices)
		slices.SortStableFunc(vertices, func(a, b models.Vertex) int { return a.Seq - b.Seq })

		*target = models.NewPolygon(geometry.FormatPolygonText(vertices))
		return d.UpdateEntityCoordinates(entity, vertices)
	}

	if in.Text != nil {
		*target = models.NewPolygon(*in.Text)
	}
	return d.Apply(entity, *target)
}

func validateStatus(status models.Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", models.ErrInvalidStatus, status)
	}
	return nil
}
