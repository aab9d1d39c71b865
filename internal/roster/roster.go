// Package roster loads the joined-clubs snapshot the aggregation engine
// consumes. The snapshot is a YAML document held in a local file or
// behind an HTTP endpoint; the engine itself never fetches or caches it.
package roster

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	appLog "clubcal/internal/log"
	"clubcal/internal/model"
)

// document is the wire shape of a roster file.
type document struct {
	Clubs []model.Club `yaml:"clubs"`
}

// Snapshot is one loaded roster: the club list plus provenance.
type Snapshot struct {
	Clubs     []model.Club
	FetchedAt time.Time
	FromCache bool
}

// Parse decodes a roster document and normalizes it:
//
//   - clubs without an id or name are dropped (reported, not fatal)
//   - meeting rules with an unrecognized weekday or time are dropped
//   - recognized weekday names are canonicalized ("WED" -> "Wednesday")
//   - events without an id get one assigned
//
// Events with malformed dates are kept: the aggregation engine excludes
// them per call and the record may still be corrected upstream.
func Parse(body []byte) ([]model.Club, error) {
	if len(body) == 0 {
		return nil, errors.New("empty roster document")
	}

	var doc document
	if err := yaml.Unmarshal(body, &doc); err != nil {
		return nil, err
	}

	clubs := make([]model.Club, 0, len(doc.Clubs))
	for _, club := range doc.Clubs {
		if club.ID == "" || club.Name == "" {
			appLog.Warn("dropping club without id or name", "id", club.ID, "name", club.Name)
			continue
		}

		meetings := make([]model.MeetingRule, 0, len(club.Meetings))
		for _, rule := range club.Meetings {
			wd, err := model.ParseWeekday(rule.DayOfWeek)
			if err != nil {
				appLog.Warn("dropping meeting rule with unrecognized weekday",
					"club_id", club.ID, "day", rule.DayOfWeek)
				continue
			}
			if _, _, err := model.ParseClockTime(rule.TimeOfDay); err != nil {
				appLog.Warn("dropping meeting rule with unrecognized time",
					"club_id", club.ID, "time", rule.TimeOfDay)
				continue
			}
			rule.DayOfWeek = wd.String()
			meetings = append(meetings, rule)
		}
		club.Meetings = meetings

		events := make([]model.Event, 0, len(club.Events))
		for _, ev := range club.Events {
			if ev.ID == "" {
				ev.ID = uuid.NewString()
			}
			if _, ok := ev.StartsAt(); !ok {
				appLog.Warn("roster event has unparsable date; it will not be aggregated",
					"club_id", club.ID, "event_id", ev.ID, "date", ev.Date)
			}
			events = append(events, ev)
		}
		club.Events = events

		clubs = append(clubs, club)
	}

	return clubs, nil
}
