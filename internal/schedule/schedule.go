// Package schedule filters the appointment board and guards status changes
// made from the check-in desk.
package schedule

import (
	"sort"
	"time"

	"github.com/MikeSquared-Agency/intake/internal/store"
)

const (
	StatusScheduled  = "Scheduled"
	StatusConfirmed  = "Confirmed"
	StatusCheckedIn  = "Checked In"
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"
	StatusCancelled  = "Cancelled"
	StatusNoShow     = "No Show"
)

const (
	ViewDay  = "day"
	ViewWeek = "week"
	ViewAll  = "all"
)

// StatusAll disables status filtering.
const StatusAll = "all"

var transitions = map[string][]string{
	StatusScheduled:  {StatusConfirmed, StatusCheckedIn, StatusCancelled, StatusNoShow},
	StatusConfirmed:  {StatusCheckedIn, StatusCancelled, StatusNoShow},
	StatusCheckedIn:  {StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow},
	StatusInProgress: {StatusCompleted, StatusCancelled, StatusNoShow},
	StatusCompleted:  nil,
	StatusCancelled:  nil,
	StatusNoShow:     nil,
}

// Query selects appointments for the board. Zero values mean "all statuses,
// all dates". Location defaults to time.Local.
type Query struct {
	Status   string
	View     string
	Date     time.Time
	Location *time.Location
}

// Filter returns the appointments matching q, sorted by start time.
// The input slice is not modified.
func Filter(appts []store.Appointment, q Query) []store.Appointment {
	loc := q.Location
	if loc == nil {
		loc = time.Local
	}

	var from, to time.Time
	switch q.View {
	case ViewDay:
		from = startOfDay(q.Date, loc)
		to = from.AddDate(0, 0, 1)
	case ViewWeek:
		day := startOfDay(q.Date, loc)
		from = day.AddDate(0, 0, -int(day.Weekday()))
		to = from.AddDate(0, 0, 7)
	}

	out := make([]store.Appointment, 0, len(appts))
	for _, a := range appts {
		if q.Status != "" && q.Status != StatusAll && a.Status != q.Status {
			continue
		}
		if !from.IsZero() && (a.StartTime.Before(from) || !a.StartTime.Before(to)) {
			continue
		}
		out = append(out, a)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

// CanTransition reports whether an appointment may move from one status to
// another. Unknown statuses never transition.
func CanTransition(from, to string) bool {
	next, ok := transitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// Known reports whether s is a recognised appointment status.
func Known(s string) bool {
	_, ok := transitions[s]
	return ok
}

// ValidView reports whether v is an accepted board view. Empty means all.
func ValidView(v string) bool {
	switch v {
	case "", ViewDay, ViewWeek, ViewAll:
		return true
	}
	return false
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
