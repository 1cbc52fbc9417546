package schedule

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/MikeSquared-Agency/intake/internal/store"
)

func appt(status string, start time.Time) store.Appointment {
	return store.Appointment{
		ID:              uuid.New(),
		StartTime:       start,
		EndTime:         start.Add(30 * time.Minute),
		DurationMinutes: 30,
		Status:          status,
	}
}

func TestFilter_DayView(t *testing.T) {
	loc := time.UTC
	// Wednesday.
	day := time.Date(2026, 10, 14, 15, 0, 0, 0, loc)
	appts := []store.Appointment{
		appt(StatusScheduled, time.Date(2026, 10, 14, 16, 0, 0, 0, loc)),
		appt(StatusScheduled, time.Date(2026, 10, 13, 23, 59, 0, 0, loc)),
		appt(StatusConfirmed, time.Date(2026, 10, 14, 0, 0, 0, 0, loc)),
		appt(StatusScheduled, time.Date(2026, 10, 15, 0, 0, 0, 0, loc)),
	}

	got := Filter(appts, Query{View: ViewDay, Date: day, Location: loc})
	if assert.Len(t, got, 2) {
		assert.Equal(t, appts[2].ID, got[0].ID)
		assert.Equal(t, appts[0].ID, got[1].ID)
	}
}

func TestFilter_WeekStartsSunday(t *testing.T) {
	loc := time.UTC
	wednesday := time.Date(2026, 10, 14, 9, 0, 0, 0, loc)
	sunday := time.Date(2026, 10, 11, 0, 0, 0, 0, loc)
	saturdayLate := time.Date(2026, 10, 17, 23, 59, 59, 0, loc)
	nextSunday := time.Date(2026, 10, 18, 0, 0, 0, 0, loc)
	prevSaturday := time.Date(2026, 10, 10, 12, 0, 0, 0, loc)

	appts := []store.Appointment{
		appt(StatusScheduled, nextSunday),
		appt(StatusScheduled, saturdayLate),
		appt(StatusScheduled, prevSaturday),
		appt(StatusScheduled, sunday),
	}

	got := Filter(appts, Query{View: ViewWeek, Date: wednesday, Location: loc})
	if assert.Len(t, got, 2) {
		assert.Equal(t, sunday, got[0].StartTime)
		assert.Equal(t, saturdayLate, got[1].StartTime)
	}
}

func TestFilter_WeekFromSunday(t *testing.T) {
	loc := time.UTC
	sunday := time.Date(2026, 10, 11, 8, 0, 0, 0, loc)
	appts := []store.Appointment{appt(StatusScheduled, sunday.Add(2*time.Hour))}

	got := Filter(appts, Query{View: ViewWeek, Date: sunday, Location: loc})
	assert.Len(t, got, 1)
}

func TestFilter_Status(t *testing.T) {
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	appts := []store.Appointment{
		appt(StatusScheduled, now),
		appt(StatusCheckedIn, now.Add(time.Hour)),
		appt(StatusCheckedIn, now.Add(-time.Hour)),
	}

	got := Filter(appts, Query{Status: StatusCheckedIn})
	if assert.Len(t, got, 2) {
		assert.True(t, got[0].StartTime.Before(got[1].StartTime))
	}

	assert.Len(t, Filter(appts, Query{Status: StatusAll}), 3)
	assert.Len(t, Filter(appts, Query{}), 3)
}

func TestFilter_DoesNotModifyInput(t *testing.T) {
	now := time.Now()
	appts := []store.Appointment{
		appt(StatusScheduled, now.Add(time.Hour)),
		appt(StatusScheduled, now),
	}
	first := appts[0].ID

	Filter(appts, Query{})
	assert.Equal(t, first, appts[0].ID)
}

func TestFilter_Empty(t *testing.T) {
	got := Filter(nil, Query{View: ViewDay, Date: time.Now()})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{StatusScheduled, StatusCheckedIn, true},
		{StatusConfirmed, StatusCheckedIn, true},
		{StatusScheduled, StatusConfirmed, true},
		{StatusCheckedIn, StatusInProgress, true},
		{StatusCheckedIn, StatusCompleted, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusScheduled, StatusCancelled, true},
		{StatusInProgress, StatusNoShow, true},
		{StatusScheduled, StatusCompleted, false},
		{StatusCompleted, StatusCheckedIn, false},
		{StatusCancelled, StatusScheduled, false},
		{StatusCheckedIn, StatusCheckedIn, false},
		{"Unknown", StatusCheckedIn, false},
		{StatusScheduled, "Unknown", false},
	}
	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestKnownAndValidView(t *testing.T) {
	assert.True(t, Known(StatusNoShow))
	assert.False(t, Known("checked in"))
	assert.True(t, ValidView(""))
	assert.True(t, ValidView(ViewWeek))
	assert.False(t, ValidView("month"))
}
