package services

import "github.com/industria/api/internal/models"

// DeriveZoneStatus computes a zone's status from a snapshot of its parcels'
// statuses. The second result is false when the zone status must be left
// unchanged, which is the case for an empty snapshot and for mixed states
// without any FREE parcel.
//
// The checks run in order and the first match wins:
// all RESERVED, all SOLD, all UNAVAILABLE, no FREE (unchanged), otherwise FREE.
func DeriveZoneStatus(statuses []models.Status) (models.Status, bool) {
	if len(statuses) == 0 {
		return "", false
	}

	switch {
	case allHave(statuses, models.StatusReserved):
		return models.StatusReserved, true
	case allHave(statuses, models.StatusSold):
		return models.StatusSold, true
	case allHave(statuses, models.StatusUnavailable):
		return models.StatusUnavailable, true
	case !anyHas(statuses, models.StatusFree):
		return "", false
	default:
		return models.StatusFree, true
	}
}

func allHave(statuses []models.Status, want models.Status) bool {
	for _, s := range statuses {
		if s != want {
			return false
		}
	}
	return true
}

func anyHas(statuses []models.Status, want models.Status) bool {
	for _, s := range statuses {
		if s == want {
			return true
		}
	}
	return false
}

func parcelStatuses(parcels []models.Parcel) []models.Status {
	statuses := make([]models.Status, len(parcels))
	for i, p := range parcels {
		statuses[i] = p.Status
	}
	return statuses
}
