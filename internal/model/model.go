package model

import "time"

// MeetingRule is a recurring meeting pattern attached to a club: a weekday
// plus a wall-clock time. Frequency is a display label carried through
// as-is; projection treats every rule as weekly (see internal/schedule).
type MeetingRule struct {
	DayOfWeek string `yaml:"day" json:"day"`
	TimeOfDay string `yaml:"time" json:"time"`
	Frequency string `yaml:"frequency,omitempty" json:"frequency,omitempty"`
	Location  string `yaml:"location,omitempty" json:"location,omitempty"`
}

// Location is a display name with optional coordinates.
type Location struct {
	Name      string  `yaml:"name" json:"name"`
	Latitude  float64 `yaml:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude float64 `yaml:"longitude,omitempty" json:"longitude,omitempty"`
}

// Event is a one-off dated event attached to a club. Date is kept in its
// RFC 3339 wire form; the aggregation engine parses it per call and an
// unparsable value excludes the event from aggregation without failing.
type Event struct {
	ID          string   `yaml:"id,omitempty" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Date        string   `yaml:"date" json:"date"`
	Location    Location `yaml:"location,omitempty" json:"location,omitempty"`
}

// StartsAt parses the event's date. ok is false when the date is
// malformed.
func (e Event) StartsAt() (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, e.Date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Club bundles the recurring meeting rules and one-off events of a single
// club. The aggregation engine treats a []Club strictly as a read-only
// snapshot; ownership stays with the roster.
type Club struct {
	ID       string        `yaml:"id" json:"id"`
	Name     string        `yaml:"name" json:"name"`
	Meetings []MeetingRule `yaml:"meetings,omitempty" json:"meetings,omitempty"`
	Events   []Event       `yaml:"events,omitempty" json:"events,omitempty"`
}

// OccurrenceKind discriminates the two occurrence sources explicitly
// rather than by duck typing on optional fields.
type OccurrenceKind string

const (
	KindEvent   OccurrenceKind = "event"
	KindMeeting OccurrenceKind = "meeting"
)

// Occurrence is a single derived "something happens on this day" record,
// merged from one-off events and projected meetings. Occurrences are
// rebuilt fresh on every query and never persisted.
type Occurrence struct {
	Kind        OccurrenceKind
	ClubID      string
	ClubName    string
	Title       string
	Description string
	Location    string
	StartsAt    time.Time
}

// Day returns the calendar day the occurrence falls on.
func (o Occurrence) Day() Date {
	return DateOf(o.StartsAt)
}

// IsMeeting reports whether the occurrence was synthesized from a
// recurring meeting rule.
func (o Occurrence) IsMeeting() bool {
	return o.Kind == KindMeeting
}

// DayMark counts what falls on a single day. The zero value means an
// unmarked day.
type DayMark struct {
	Events   int `json:"events"`
	Meetings int `json:"meetings"`
}

// Marked reports whether anything occurs on the day.
func (m DayMark) Marked() bool {
	return m.Events > 0 || m.Meetings > 0
}

// DayMarkings maps every day of a computed window to its mark. Days with
// nothing scheduled are present with a zero DayMark.
type DayMarkings map[Date]DayMark
