package agenda

import (
	"fmt"
	"sort"
	"time"

	"github.com/schedra/schedra/pkg/event"
	"github.com/schedra/schedra/pkg/recurrence"
)

// Entry is one occurrence of one event, as presented in calendar and
// upcoming views.
type Entry struct {
	EventID     int64
	Title       string
	Description string
	IsRecurring bool
	Start       time.Time
	End         time.Time
}

// Aggregate expands every event over [from, to] and merges the results into
// one list sorted ascending by start; occurrences sharing a start instant are
// ordered by event id so the output is deterministic. A positive limit
// truncates the list after sorting, never before. Aggregation is pure: each
// event expands independently of the others.
func Aggregate(events []event.Event, from, to time.Time, limit int) ([]Entry, error) {
	entries := make([]Entry, 0, len(events))
	for _, ev := range events {
		occurrences, err := recurrence.Expand(ev.Schedule, ev.Start, ev.End, ev.Exceptions, from, to)
		if err != nil {
			return nil, fmt.Errorf("failed to expand event %d: %w", ev.ID, err)
		}
		for _, occ := range occurrences {
			entries = append(entries, Entry{
				EventID:     ev.ID,
				Title:       ev.Title,
				Description: ev.Description,
				IsRecurring: ev.Schedule.IsRecurring(),
				Start:       occ.Start,
				End:         occ.End,
			})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Start.Equal(entries[j].Start) {
			return entries[i].Start.Before(entries[j].Start)
		}
		return entries[i].EventID < entries[j].EventID
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
