package geometry

import (
	"fmt"

	"github.com/industria/api/internal/config"
	"github.com/industria/api/internal/logger"
	"github.com/industria/api/internal/metrics"
	"github.com/industria/api/internal/models"
)

// Outcome describes what UpdateEntityCoordinates wrote onto an entity.
type Outcome string

// Derivation outcomes.
const (
	// OutcomeDerived means a validated centroid was written.
	OutcomeDerived Outcome = "derived"
	// OutcomeCleared means there was no usable geometry.
	OutcomeCleared Outcome = "cleared"
	// OutcomeOutOfBounds means the centroid fell outside the configured bounds.
	OutcomeOutOfBounds Outcome = "out_of_bounds"
	// OutcomeFailed means derivation panicked and coordinates were cleared.
	OutcomeFailed Outcome = "failed"
)

// Deriver turns polygon geometry into a validated geographic centroid.
type Deriver struct {
	log         *logger.Logger
	metrics     *metrics.Metrics
	projection  Projection
	bounds      Bounds
	strictParse bool
}

// NewDeriver creates a Deriver from the geometry configuration.
func NewDeriver(cfg config.GeometryConfig, log *logger.Logger, m *metrics.Metrics) *Deriver {
	if log == nil {
		log = logger.Nop()
	}
	return &Deriver{
		log:     log,
		metrics: m,
		projection: Projection{
			CentralMeridian: cfg.CentralMeridian,
			CentralParallel: cfg.CentralParallel,
			FalseEasting:    cfg.FalseEasting,
			FalseNorthing:   cfg.FalseNorthing,
			ScaleFactor:     cfg.ScaleFactor,
		},
		bounds: Bounds{
			MinX:         cfg.MinX,
			MaxX:         cfg.MaxX,
			MinY:         cfg.MinY,
			MaxY:         cfg.MaxY,
			MinLongitude: cfg.MinLongitude,
			MaxLongitude: cfg.MaxLongitude,
			MinLatitude:  cfg.MinLatitude,
			MaxLatitude:  cfg.MaxLatitude,
		},
		strictParse: cfg.StrictParse,
	}
}

// Projection returns the configured projection.
func (d *Deriver) Projection() Projection {
	return d.projection
}

// Bounds returns the configured validation bounds.
func (d *Deriver) Bounds() Bounds {
	return d.bounds
}

// Vertices parses polygon text, logging skipped tokens.
// In strict mode any skipped token empties the result.
func (d *Deriver) Vertices(polygon models.Polygon) []models.Vertex {
	result := ParsePolygonText(polygon.WKT)
	if len(result.Skipped) == 0 {
		return result.Vertices
	}

	d.metrics.AddSkippedTokens(len(result.Skipped))
	for _, skipped := range result.Skipped {
		d.log.Warn("Skipping unparseable polygon vertex", map[string]interface{}{
			"seq":    skipped.Seq,
			"token":  skipped.Token,
			"reason": skipped.Reason,
		})
	}

	if d.strictParse {
		d.log.Warn("Discarding polygon with unparseable vertices", map[string]interface{}{
			"skipped": len(result.Skipped),
		})
		return []models.Vertex{}
	}
	return result.Vertices
}

// Apply parses the polygon and updates the entity's centroid from it.
func (d *Deriver) Apply(entity models.Georeferenced, polygon models.Polygon) Outcome {
	return d.UpdateEntityCoordinates(entity, d.Vertices(polygon))
}

// UpdateEntityCoordinates writes the geographic centroid of vertices onto
// entity. Longitude and latitude are either both set and within bounds or
// both nil. It never panics.
func (d *Deriver) UpdateEntityCoordinates(entity models.Georeferenced, vertices []models.Vertex) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			entity.SetCentroid(nil, nil)
			d.log.Error("Coordinate derivation failed", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"vertices": len(vertices),
			})
			outcome = OutcomeFailed
		}
		d.metrics.IncCoordinateDerivation(string(outcome))
	}()

	if len(vertices) == 0 {
		entity.SetCentroid(nil, nil)
		return OutcomeCleared
	}

	x, y := Centroid(vertices)
	if !d.bounds.ContainsProjected(x, y) {
		d.log.Warn("Projected centroid outside plausible bounds", map[string]interface{}{
			"x": x,
			"y": y,
		})
		entity.SetCentroid(nil, nil)
		return OutcomeOutOfBounds
	}

	lon, lat := d.projection.ToGeographic(x, y)
	if !d.bounds.ContainsGeographic(lon, lat) {
		d.log.Warn("Geographic centroid outside plausible bounds", map[string]interface{}{
			"x":         x,
			"y":         y,
			"longitude": lon,
			"latitude":  lat,
		})
		entity.SetCentroid(nil, nil)
		return OutcomeOutOfBounds
	}

	entity.SetCentroid(&lon, &lat)
	return OutcomeDerived
}
