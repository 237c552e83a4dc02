package event

import (
	"errors"
	"time"

	"github.com/schedra/schedra/pkg/recurrence"
)

var (
	ErrEventNotFound    = errors.New("event not found")
	ErrInvalidTimeRange = errors.New("event end must be after start")
	ErrRecurrenceNeeded = errors.New("recurrence configuration required for recurring events")
	ErrNotRecurring     = errors.New("event is not recurring")
	ErrNotAnOccurrence  = errors.New("instant is not an occurrence of this series")
	ErrPastOccurrence   = errors.New("occurrence is in the past")
)

// Event is one event or event series, exclusively owned by one user. For a
// recurring event the Schedule carries the compiled rule and Exceptions the
// cancelled occurrence starts; Start and End double as the recurrence anchor
// and the fixed occurrence duration.
type Event struct {
	ID          int64
	UserID      int
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Schedule    recurrence.Schedule
	Exceptions  recurrence.ExceptionSet
}

func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Draft carries the user-supplied fields for creating an event or replacing a
// whole series. Recurrence must be present when Recurring is set.
type Draft struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Recurring   bool
	Recurrence  *recurrence.Request
}

// OccurrencePatch overrides fields of the standalone event split off a series
// by ModifyOccurrence. Nil fields fall back to the series values.
type OccurrencePatch struct {
	Title       *string
	Description *string
	Start       *time.Time
	End         *time.Time
}
