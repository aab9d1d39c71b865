// Package ics turns aggregated occurrences into calendar interchange
// formats: an iCalendar feed and per-occurrence Google Calendar template
// links.
package ics

import (
	"fmt"
	"net/url"

	ical "github.com/arran4/golang-ical"

	"clubcal/internal/model"
)

const prodID = "-//clubcal//club calendar//EN"

// BuildCalendar serializes occurrences into an iCalendar document.
// Meetings get a deterministic per-instance UID derived from the club and
// the date, so re-exporting the same window yields an identical feed.
func BuildCalendar(occurrences []model.Occurrence) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(prodID)

	for _, occ := range occurrences {
		ev := cal.AddEvent(occurrenceUID(occ))
		ev.SetDtStampTime(occ.StartsAt)
		ev.SetStartAt(occ.StartsAt)
		ev.SetEndAt(occ.StartsAt.Add(model.DefaultDuration))
		ev.SetSummary(occ.Title)
		if occ.Description != "" {
			ev.SetDescription(occ.Description)
		}
		if occ.Location != "" {
			ev.SetLocation(occ.Location)
		}
	}

	return cal.Serialize()
}

func occurrenceUID(occ model.Occurrence) string {
	if occ.IsMeeting() {
		return fmt.Sprintf("meeting-%s-%s@clubcal", occ.ClubID, occ.Day())
	}
	return fmt.Sprintf("event-%s-%s@clubcal", occ.ClubID, occ.Day())
}

// GoogleCalendarLink builds an "add to calendar" template URL for a
// single occurrence, with the same one-hour default duration the club app
// used.
func GoogleCalendarLink(occ model.Occurrence) string {
	const stamp = "20060102T150405Z"
	start := occ.StartsAt.UTC()
	end := start.Add(model.DefaultDuration)

	params := url.Values{}
	params.Set("action", "TEMPLATE")
	params.Set("text", occ.Title)
	params.Set("details", occ.Description)
	params.Set("location", occ.Location)
	params.Set("dates", start.Format(stamp)+"/"+end.Format(stamp))

	return "https://calendar.google.com/calendar/render?" + params.Encode()
}
