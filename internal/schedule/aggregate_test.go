package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"clubcal/internal/model"
)

// testClubs mirrors the scenario the screens were built against: one club
// with a weekly Wednesday meeting and one club with a single dated event.
func testClubs() []model.Club {
	return []model.Club{
		{
			ID:   "club-a",
			Name: "Photography Club",
			Meetings: []model.MeetingRule{
				{DayOfWeek: "Wednesday", TimeOfDay: "15:00", Frequency: "weekly", Location: "Room 101"},
			},
		},
		{
			ID:   "club-b",
			Name: "Chess Club",
			Events: []model.Event{
				{
					ID:          "ev-1",
					Title:       "Blitz Tournament",
					Description: "Open to all skill levels",
					Date:        "2024-06-05T10:00:00Z",
					Location:    model.Location{Name: "Student Center"},
				},
			},
		},
	}
}

func monday() model.Date {
	return model.Date{Year: 2024, Month: time.June, Day: 3}
}

func TestOccurrencesForDayMergesAndOrders(t *testing.T) {
	wednesday := model.Date{Year: 2024, Month: time.June, Day: 5}

	occs := OccurrencesForDay(testClubs(), wednesday)
	require.Len(t, occs, 2)

	// 10:00 event before 15:00 meeting.
	require.Equal(t, model.KindEvent, occs[0].Kind)
	require.Equal(t, "club-b", occs[0].ClubID)
	require.Equal(t, "Blitz Tournament", occs[0].Title)
	require.Equal(t, time.Date(2024, time.June, 5, 10, 0, 0, 0, time.UTC), occs[0].StartsAt)

	require.Equal(t, model.KindMeeting, occs[1].Kind)
	require.Equal(t, "club-a", occs[1].ClubID)
	require.Equal(t, "Photography Club meeting", occs[1].Title)
	require.Equal(t, "Room 101", occs[1].Location)
	require.Equal(t, time.Date(2024, time.June, 5, 15, 0, 0, 0, time.UTC), occs[1].StartsAt)
	require.True(t, occs[1].IsMeeting())
}

func TestOccurrencesForDayOrderingAcrossClubs(t *testing.T) {
	clubs := []model.Club{
		{
			ID: "late", Name: "Late Club",
			Meetings: []model.MeetingRule{{DayOfWeek: "Monday", TimeOfDay: "15:00"}},
		},
		{
			ID: "early", Name: "Early Club",
			Meetings: []model.MeetingRule{{DayOfWeek: "Monday", TimeOfDay: "09:00"}},
		},
	}

	occs := OccurrencesForDay(clubs, monday())
	require.Len(t, occs, 2)
	require.Equal(t, "early", occs[0].ClubID)
	require.Equal(t, "late", occs[1].ClubID)
}

func TestOccurrencesForDayQuietDay(t *testing.T) {
	// A Tuesday with no rule and no event: empty, not nil, not an error.
	tuesday := monday().AddDays(1)
	occs := OccurrencesForDay(testClubs(), tuesday)
	require.NotNil(t, occs)
	require.Empty(t, occs)

	require.Empty(t, OccurrencesForDay(nil, tuesday))
}

func TestBuildDayMarkingsScenario(t *testing.T) {
	marks, err := BuildDayMarkings(testClubs(), monday(), 90)
	require.NoError(t, err)

	// Every day of the inclusive window has an entry.
	require.Len(t, marks, 91)

	// Every Wednesday in the window carries the meeting; June 5 also
	// carries the one-off event.
	june5 := model.Date{Year: 2024, Month: time.June, Day: 5}
	require.Equal(t, model.DayMark{Events: 1, Meetings: 1}, marks[june5])
	for d := june5.AddDays(7); !d.After(monday().AddDays(90)); d = d.AddDays(7) {
		require.Equal(t, model.DayMark{Meetings: 1}, marks[d], "day %s", d)
	}

	// A quiet day is present and unmarked.
	require.Equal(t, model.DayMark{}, marks[monday().AddDays(1)])
	require.False(t, marks[monday().AddDays(1)].Marked())
}

func TestBuildDayMarkingsDeterministic(t *testing.T) {
	clubs := testClubs()
	first, err := BuildDayMarkings(clubs, monday(), 90)
	require.NoError(t, err)
	second, err := BuildDayMarkings(clubs, monday(), 90)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestBuildDayMarkingsExcludesOutOfWindowEvents(t *testing.T) {
	clubs := []model.Club{
		{
			ID: "c", Name: "C",
			Events: []model.Event{
				{ID: "past", Title: "Past", Date: "2024-06-01T10:00:00Z"},
				{ID: "far", Title: "Far", Date: "2025-01-01T10:00:00Z"},
				{ID: "in", Title: "In", Date: "2024-06-10T10:00:00Z"},
			},
		},
	}

	marks, err := BuildDayMarkings(clubs, monday(), 30)
	require.NoError(t, err)

	total := 0
	for _, m := range marks {
		total += m.Events
	}
	require.Equal(t, 1, total)
	require.Equal(t, model.DayMark{Events: 1}, marks[model.Date{Year: 2024, Month: time.June, Day: 10}])
}

func TestGracefulDegradation(t *testing.T) {
	clubs := []model.Club{
		{
			ID: "broken", Name: "Broken Club",
			Meetings: []model.MeetingRule{{DayOfWeek: "Funday", TimeOfDay: "10:00"}},
			Events:   []model.Event{{ID: "bad", Title: "Bad", Date: "sometime soon"}},
		},
		{
			ID: "fine", Name: "Fine Club",
			Meetings: []model.MeetingRule{{DayOfWeek: "Monday", TimeOfDay: "18:00"}},
		},
	}

	marks, err := BuildDayMarkings(clubs, monday(), 28)
	require.NoError(t, err)
	// Mondays still marked for the valid club; nothing from the broken one.
	for i := 0; i <= 28; i += 7 {
		require.Equal(t, model.DayMark{Meetings: 1}, marks[monday().AddDays(i)])
	}
	totalEvents := 0
	for _, m := range marks {
		totalEvents += m.Events
	}
	require.Zero(t, totalEvents)

	occs := OccurrencesForDay(clubs, monday())
	require.Len(t, occs, 1)
	require.Equal(t, "fine", occs[0].ClubID)
}

func TestNoMutation(t *testing.T) {
	clubs := testClubs()
	before := make([]model.Club, len(clubs))
	copy(before, clubs)

	_, err := BuildDayMarkings(clubs, monday(), 90)
	require.NoError(t, err)
	_ = OccurrencesForDay(clubs, monday().AddDays(2))

	require.Equal(t, before, clubs)
}

func TestNegativeWindowIsCallerError(t *testing.T) {
	_, err := BuildDayMarkings(testClubs(), monday(), -1)
	require.Error(t, err)
}

func TestEmptyCollection(t *testing.T) {
	marks, err := BuildDayMarkings(nil, monday(), 7)
	require.NoError(t, err)
	require.Len(t, marks, 8)
	for _, m := range marks {
		require.False(t, m.Marked())
	}
}
