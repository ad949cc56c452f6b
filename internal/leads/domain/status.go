package domain

import "strings"

// Status is the lifecycle bucket of a lead.
type Status string

const (
	StatusNew       Status = "new"
	StatusCold      Status = "cold"
	StatusWarm      Status = "warm"
	StatusHot       Status = "hot"
	StatusConverted Status = "converted"
)

// Canonical score thresholds. The same table drives stored status and the
// dashboard score distribution.
const (
	HotThreshold  = 80
	WarmThreshold = 50
	ColdThreshold = 20
)

var statusHeat = map[Status]int{
	StatusNew:       0,
	StatusCold:      1,
	StatusWarm:      2,
	StatusHot:       3,
	StatusConverted: 4,
}

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := statusHeat[s]
	return s, ok
}

// IsKnownStatus reports whether s is one of the five lead statuses.
func IsKnownStatus(s Status) bool {
	_, ok := statusHeat[s]
	return ok
}

// AllStatuses lists statuses from coldest to converted.
func AllStatuses() []Status {
	return []Status{StatusNew, StatusCold, StatusWarm, StatusHot, StatusConverted}
}

// DeriveStatus maps a score onto the threshold table. It never yields converted.
func DeriveStatus(score int) Status {
	switch {
	case score >= HotThreshold:
		return StatusHot
	case score >= WarmThreshold:
		return StatusWarm
	case score >= ColdThreshold:
		return StatusCold
	default:
		return StatusNew
	}
}

// NextStatus decides the stored status after a recompute. A locked or
// converted status is kept; otherwise the status only moves toward more heat.
func NextStatus(current Status, locked bool, score int) Status {
	if locked || current == StatusConverted {
		return current
	}
	derived := DeriveStatus(score)
	if statusHeat[derived] > statusHeat[current] {
		return derived
	}
	return current
}
