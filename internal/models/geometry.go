package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Polygon is a polygon geometry stored as WKT text, e.g.
// POLYGON((x1 y1, x2 y2, ..., x1 y1)).
// Coordinates are in the region's projected reference system; the zero value
// means "no geometry" and is persisted as NULL.
type Polygon struct {
	WKT string
}

// NewPolygon returns a Polygon holding the trimmed WKT text.
func NewPolygon(wkt string) Polygon {
	return Polygon{WKT: strings.TrimSpace(wkt)}
}

// IsEmpty reports whether the polygon carries no geometry text.
func (p Polygon) IsEmpty() bool {
	return strings.TrimSpace(p.WKT) == ""
}

// Scan implements sql.Scanner for reading the geometry text column.
func (p *Polygon) Scan(value interface{}) error {
	if value == nil {
		p.WKT = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		p.WKT = v
	case []byte:
		p.WKT = string(v)
	default:
		return fmt.Errorf("failed to scan Polygon: expected string or []byte, got %T", value)
	}

	return nil
}

// Value implements driver.Valuer for writing the geometry text column.
// An empty polygon is written as NULL.
func (p Polygon) Value() (driver.Value, error) {
	if p.IsEmpty() {
		return nil, nil
	}
	return p.WKT, nil
}

// MarshalJSON renders the polygon as its WKT string, or null when empty.
func (p Polygon) MarshalJSON() ([]byte, error) {
	if p.IsEmpty() {
		return []byte("null"), nil
	}
	return json.Marshal(p.WKT)
}

// UnmarshalJSON accepts a WKT string or null.
func (p *Polygon) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		p.WKT = ""
		return nil
	}

	var wkt string
	if err := json.Unmarshal(data, &wkt); err != nil {
		return fmt.Errorf("failed to unmarshal polygon: %w", err)
	}

	*p = NewPolygon(wkt)
	return nil
}
