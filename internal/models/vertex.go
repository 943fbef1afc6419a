package models

// Vertex is a single polygon vertex in projected coordinates.
// Latitude and Longitude carry pre-computed geographic values when a caller
// already has them; they are never required.
type Vertex struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Seq       int      `json:"seq"`
}
