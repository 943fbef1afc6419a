package geometry

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/industria/api/internal/models"
)

// ringClosureTolerance is the per-axis distance under which the last vertex
// is treated as the ring-closing copy of the first one.
const ringClosureTolerance = 0.001

const (
	polygonKeyword = "POLYGON"
	ringOpen       = "(("
	ringClose      = "))"
)

var errTooFewCoordinates = errors.New("expected two coordinates")

// SkippedToken describes a vertex token that could not be parsed.
type SkippedToken struct {
	Token  string
	Reason string
	Seq    int
}

// ParseResult is the best-effort outcome of parsing polygon text.
// Vertices keep the sequence index of the token they came from, so a
// skipped token leaves a gap in the sequence.
type ParseResult struct {
	Vertices []models.Vertex
	Skipped  []SkippedToken
}

// ParsePolygonText parses POLYGON((x1 y1, x2 y2, ..., xn yn)) text into
// vertices. It never fails: unparseable tokens are reported in Skipped and
// an empty or unusable input yields no vertices. A trailing vertex that
// duplicates the first one (ring closure) is dropped.
func ParsePolygonText(text string) ParseResult {
	result := ParseResult{Vertices: []models.Vertex{}}

	body := stripPolygonWrapper(text)
	if body == "" {
		return result
	}

	for seq, token := range strings.Split(body, ",") {
		vertex, err := parseVertexToken(seq, token)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedToken{
				Seq:    seq,
				Token:  strings.TrimSpace(token),
				Reason: err.Error(),
			})
			continue
		}
		result.Vertices = append(result.Vertices, vertex)
	}

	if n := len(result.Vertices); n > 1 && closesRing(result.Vertices[0], result.Vertices[n-1]) {
		result.Vertices = result.Vertices[:n-1]
	}

	return result
}

// FormatPolygonText renders vertices as POLYGON WKT text, appending the
// first vertex when the ring is not already closed.
// Returns an empty string when there are no vertices.
func FormatPolygonText(vertices []models.Vertex) string {
	if len(vertices) == 0 {
		return ""
	}

	pairs := make([]string, 0, len(vertices)+1)
	for _, v := range vertices {
		pairs = append(pairs, formatPair(v.X, v.Y))
	}

	first, last := vertices[0], vertices[len(vertices)-1]
	if len(vertices) == 1 || !closesRing(first, last) {
		pairs = append(pairs, formatPair(first.X, first.Y))
	}

	return polygonKeyword + ringOpen + strings.Join(pairs, ", ") + ringClose
}

// stripPolygonWrapper removes the POLYGON(( prefix and )) suffix.
func stripPolygonWrapper(text string) string {
	body := strings.TrimSpace(text)
	if len(body) >= len(polygonKeyword) && strings.EqualFold(body[:len(polygonKeyword)], polygonKeyword) {
		body = strings.TrimSpace(body[len(polygonKeyword):])
	}
	body = strings.TrimPrefix(body, ringOpen)
	body = strings.TrimSuffix(body, ringClose)
	return strings.TrimSpace(body)
}

// parseVertexToken parses a single "x y" pair.
// Extra ordinates (Z, M) are ignored.
func parseVertexToken(seq int, token string) (models.Vertex, error) {
	fields := strings.Fields(token)
	if len(fields) < 2 {
		return models.Vertex{}, errTooFewCoordinates
	}

	x, err := parseOrdinate(fields[0])
	if err != nil {
		return models.Vertex{}, fmt.Errorf("invalid x: %w", err)
	}
	y, err := parseOrdinate(fields[1])
	if err != nil {
		return models.Vertex{}, fmt.Errorf("invalid y: %w", err)
	}

	return models.Vertex{Seq: seq, X: x, Y: y}, nil
}

func parseOrdinate(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", raw)
	}
	return v, nil
}

func closesRing(first, last models.Vertex) bool {
	return math.Abs(last.X-first.X) < ringClosureTolerance &&
		math.Abs(last.Y-first.Y) < ringClosureTolerance
}

func formatPair(x, y float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64) + " " + strconv.FormatFloat(y, 'f', -1, 64)
}
