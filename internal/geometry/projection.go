package geometry

import (
	"math"

	"github.com/industria/api/internal/models"
)

// Approximate metres per degree used by the linear projection.
const (
	metersPerDegreeLongitude = 111320.0
	metersPerDegreeLatitude  = 110540.0
)

// Projection converts projected coordinates to longitude/latitude with a
// linear offset-and-scale model around a reference point. It is an
// approximation, not a geodetic transform.
type Projection struct {
	CentralMeridian float64
	CentralParallel float64
	FalseEasting    float64
	FalseNorthing   float64
	// ScaleFactor divides the per-degree distances. Zero is treated as 1.
	ScaleFactor float64
}

// ToGeographic returns the longitude and latitude of (x, y), rounded to six
// decimal places.
func (p Projection) ToGeographic(x, y float64) (longitude, latitude float64) {
	k := p.ScaleFactor
	if k == 0 {
		k = 1
	}

	longitude = p.CentralMeridian + (x-p.FalseEasting)/(metersPerDegreeLongitude*k)
	latitude = p.CentralParallel + (y-p.FalseNorthing)/(metersPerDegreeLatitude*k)

	return roundMicro(longitude), roundMicro(latitude)
}

// Bounds holds the plausible coordinate ranges for the deployment region.
// All limits are inclusive.
type Bounds struct {
	MinX         float64
	MaxX         float64
	MinY         float64
	MaxY         float64
	MinLongitude float64
	MaxLongitude float64
	MinLatitude  float64
	MaxLatitude  float64
}

// ContainsProjected reports whether (x, y) lies inside the projected bounds.
func (b Bounds) ContainsProjected(x, y float64) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

// ContainsGeographic reports whether (longitude, latitude) lies inside the
// geographic bounds.
func (b Bounds) ContainsGeographic(longitude, latitude float64) bool {
	return longitude >= b.MinLongitude && longitude <= b.MaxLongitude &&
		latitude >= b.MinLatitude && latitude <= b.MaxLatitude
}

// Centroid returns the arithmetic mean of the vertex coordinates.
// An empty slice yields (0, 0), which callers must treat as "no geometry".
func Centroid(vertices []models.Vertex) (x, y float64) {
	if len(vertices) == 0 {
		return 0, 0
	}

	var sumX, sumY float64
	for _, v := range vertices {
		sumX += v.X
		sumY += v.Y
	}

	n := float64(len(vertices))
	return sumX / n, sumY / n
}

// roundMicro rounds half up to six decimal places.
// The explicit conversion keeps the multiply and add from being fused.
func roundMicro(v float64) float64 {
	return math.Floor(float64(v*1e6)+0.5) / 1e6
}
