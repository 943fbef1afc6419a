package models

import (
	"time"

	"github.com/google/uuid"
)

// Parcel is a subdivision of a zone with its own commercial status.
// A parcel references its zone; the zone holds no back-pointer.
type Parcel struct {
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	Area      *float64   `json:"area,omitempty"`
	Longitude *float64   `json:"longitude"`
	Latitude  *float64   `json:"latitude"`
	Geometry  Polygon    `json:"geometry"`
	Reference string     `json:"reference"`
	Status    Status     `json:"status"`
	ID        uuid.UUID  `json:"id"`
	ZoneID    uuid.UUID  `json:"zoneId"`
}

// SetCentroid implements Georeferenced.
func (p *Parcel) SetCentroid(longitude, latitude *float64) {
	p.Longitude = longitude
	p.Latitude = latitude
}
