package schedule

import (
	"fmt"
	"sort"

	appLog "clubcal/internal/log"
	"clubcal/internal/model"
)

// DefaultWindowDays is the forward marking window used when the caller
// does not configure one (roughly three months).
const DefaultWindowDays = 90

// BuildDayMarkings computes a mark for every day in the inclusive window
// [today, today+windowDays]: how many one-off events and how many
// projected meetings fall on each day. Days with nothing scheduled are
// present with a zero mark.
//
// The computation is pure: it never mutates clubs, holds no state between
// calls, and two calls with equal inputs return deeply equal maps.
// Malformed rules and events are skipped with a warning; the only error
// returned is the caller contract violation of a negative window.
func BuildDayMarkings(clubs []model.Club, today model.Date, windowDays int) (model.DayMarkings, error) {
	if windowDays < 0 {
		return nil, fmt.Errorf("schedule: negative marking window (%d days)", windowDays)
	}

	end := today.AddDays(windowDays)

	marks := make(model.DayMarkings, windowDays+1)
	for i := 0; i <= windowDays; i++ {
		marks[today.AddDays(i)] = model.DayMark{}
	}

	for _, club := range clubs {
		for _, ev := range club.Events {
			t, ok := ev.StartsAt()
			if !ok {
				appLog.Warn("skipping event with unparsable date",
					"club_id", club.ID, "event_id", ev.ID, "date", ev.Date)
				continue
			}
			day := model.DateOf(t)
			if day.Before(today) || day.After(end) {
				continue
			}
			m := marks[day]
			m.Events++
			marks[day] = m
		}

		for _, rule := range club.Meetings {
			for day := range Dates(rule, today, end) {
				m := marks[day]
				m.Meetings++
				marks[day] = m
			}
		}
	}

	return marks, nil
}

// OccurrencesForDay returns everything happening on the given day across
// all clubs, ordered by time of day ascending. Ties keep insertion order:
// club list order, events before meeting rules within a club.
//
// Meetings are matched by a direct weekday comparison, which is
// equivalent to projecting the rule and filtering because projection
// emits every matching day including a same-day window start. The result
// is recomputed from scratch on every call and is empty, never nil or an
// error, when nothing matches.
func OccurrencesForDay(clubs []model.Club, day model.Date) []model.Occurrence {
	out := make([]model.Occurrence, 0)

	for _, club := range clubs {
		for _, ev := range club.Events {
			t, ok := ev.StartsAt()
			if !ok {
				appLog.Warn("skipping event with unparsable date",
					"club_id", club.ID, "event_id", ev.ID, "date", ev.Date)
				continue
			}
			if model.DateOf(t) != day {
				continue
			}
			out = append(out, model.Occurrence{
				Kind:        model.KindEvent,
				ClubID:      club.ID,
				ClubName:    club.Name,
				Title:       ev.Title,
				Description: ev.Description,
				Location:    ev.Location.Name,
				StartsAt:    t,
			})
		}

		for _, rule := range club.Meetings {
			wd, err := model.ParseWeekday(rule.DayOfWeek)
			if err != nil {
				appLog.Warn("skipping rule with unrecognized weekday",
					"club_id", club.ID, "day", rule.DayOfWeek)
				continue
			}
			if day.Weekday() != wd {
				continue
			}
			hour, minute, err := model.ParseClockTime(rule.TimeOfDay)
			if err != nil {
				appLog.Warn("skipping rule with unrecognized meeting time",
					"club_id", club.ID, "time", rule.TimeOfDay)
				continue
			}
			out = append(out, model.Occurrence{
				Kind:        model.KindMeeting,
				ClubID:      club.ID,
				ClubName:    club.Name,
				Title:       club.Name + " meeting",
				Description: meetingDescription(rule.Frequency),
				Location:    rule.Location,
				StartsAt:    day.At(hour, minute),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return minuteOfDay(out[i]) < minuteOfDay(out[j])
	})

	return out
}

// minuteOfDay orders occurrences by wall-clock time of day, so a 10:00
// event sorts before a 15:00 meeting regardless of how either instant is
// represented.
func minuteOfDay(o model.Occurrence) int {
	return o.StartsAt.Hour()*60 + o.StartsAt.Minute()
}

func meetingDescription(frequency string) string {
	if frequency == "" {
		return "Club meeting"
	}
	return "Recurring club meeting (" + frequency + ")"
}
