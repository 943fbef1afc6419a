package models

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the commercial status shared by zones and parcels.
// Zone and parcel statuses are independent values of the same enumeration.
type Status string

// Commercial statuses.
const (
	StatusFree             Status = "FREE"
	StatusReserved         Status = "RESERVED"
	StatusUnavailable      Status = "UNAVAILABLE"
	StatusSold             Status = "SOLD"
	StatusUnderDevelopment Status = "UNDER_DEVELOPMENT"
)

// ErrInvalidStatus is returned when a value is not one of the known statuses.
var ErrInvalidStatus = errors.New("invalid status")

// Statuses lists every valid status in declaration order.
var Statuses = []Status{
	StatusFree,
	StatusReserved,
	StatusUnavailable,
	StatusSold,
	StatusUnderDevelopment,
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusFree, StatusReserved, StatusUnavailable, StatusSold, StatusUnderDevelopment:
		return true
	}
	return false
}

// String implements fmt.Stringer.
func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a raw value into a Status.
// Matching is exact; surrounding whitespace is ignored.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.TrimSpace(raw))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}
