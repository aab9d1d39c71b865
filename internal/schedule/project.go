// Package schedule is the calendar aggregation engine: it projects
// recurring meeting rules onto concrete dates and merges them with one-off
// events into per-day markings and per-day occurrence lists.
package schedule

import (
	"iter"
	"time"

	"github.com/teambition/rrule-go"

	appLog "clubcal/internal/log"
	"clubcal/internal/model"
)

// Dates projects a single meeting rule over the inclusive window
// [start, end] and yields every date the rule fires on, in order. The
// sequence is finite and restartable.
//
// Every rule is projected on a flat 7-day step regardless of its
// Frequency label; "biweekly" and "monthly" rules fire weekly, matching
// the behavior the surrounding screens were built against. A window start
// that already falls on the rule's weekday is emitted, which keeps
// projection consistent with the weekday-existence check in
// OccurrencesForDay.
//
// A rule with an unrecognized weekday, or a window with start after end,
// yields nothing. Neither case is an error.
func Dates(rule model.MeetingRule, start, end model.Date) iter.Seq[model.Date] {
	return func(yield func(model.Date) bool) {
		if start.After(end) {
			return
		}

		wd, err := model.ParseWeekday(rule.DayOfWeek)
		if err != nil {
			appLog.Warn("skipping rule with unrecognized weekday",
				"day", rule.DayOfWeek, "time", rule.TimeOfDay)
			return
		}

		r, err := rrule.NewRRule(rrule.ROption{
			Freq:      rrule.WEEKLY,
			Dtstart:   start.Time(),
			Until:     end.Time(),
			Byweekday: []rrule.Weekday{rruleWeekday(wd)},
		})
		if err != nil {
			appLog.Error("failed to build recurrence rule", err, "day", rule.DayOfWeek)
			return
		}

		next := r.Iterator()
		for {
			t, ok := next()
			if !ok {
				return
			}
			// Normalize back to day granularity immediately; the
			// emitted instants are UTC midnights already, but markings
			// must never key on a timestamp.
			if !yield(model.DateOf(t)) {
				return
			}
		}
	}
}

func rruleWeekday(wd time.Weekday) rrule.Weekday {
	switch wd {
	case time.Monday:
		return rrule.MO
	case time.Tuesday:
		return rrule.TU
	case time.Wednesday:
		return rrule.WE
	case time.Thursday:
		return rrule.TH
	case time.Friday:
		return rrule.FR
	case time.Saturday:
		return rrule.SA
	default:
		return rrule.SU
	}
}
