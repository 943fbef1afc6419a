package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Georeferenced is implemented by entities carrying a derived centroid.
type Georeferenced interface {
	// SetCentroid stores the geographic centroid. Both values are nil when
	// the entity has no usable geometry.
	SetCentroid(longitude, latitude *float64)
}

// Zone is a commercially tracked industrial land area made of parcels.
// Nullable fields use pointers to distinguish between zero values and NULL.
type Zone struct {
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	DeletedAt   *time.Time      `json:"deletedAt,omitempty"`
	Description *string         `json:"description,omitempty"`
	Longitude   *float64        `json:"longitude"`
	Latitude    *float64        `json:"latitude"`
	Geometry    Polygon         `json:"geometry"`
	Price       decimal.Decimal `json:"price"`
	Name        string          `json:"name"`
	Status      Status          `json:"status"`
	ID          uuid.UUID       `json:"id"`
}

// SetCentroid implements Georeferenced.
func (z *Zone) SetCentroid(longitude, latitude *float64) {
	z.Longitude = longitude
	z.Latitude = latitude
}
