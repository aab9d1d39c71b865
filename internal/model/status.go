package model

import "time"

// EventStatus classifies an occurrence relative to a reference instant.
type EventStatus string

const (
	StatusUpcoming EventStatus = "upcoming"
	StatusOngoing  EventStatus = "ongoing"
	StatusPast     EventStatus = "past"
)

// DefaultDuration is assumed for occurrences with no explicit end.
const DefaultDuration = time.Hour

// StatusAt classifies an occurrence starting at start as seen from now,
// assuming the default one-hour duration.
func StatusAt(start, now time.Time) EventStatus {
	switch {
	case now.Before(start):
		return StatusUpcoming
	case now.After(start.Add(DefaultDuration)):
		return StatusPast
	default:
		return StatusOngoing
	}
}
