package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func starts(occurrences []Occurrence) []time.Time {
	out := make([]time.Time, 0, len(occurrences))
	for _, o := range occurrences {
		out = append(out, o.Start)
	}
	return out
}

func TestExpand_SingleEvent(t *testing.T) {
	start := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	occurrences, err := Expand(Single(), start, end, nil,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, occurrences, 1)
	assert.Equal(t, Occurrence{Start: start, End: end}, occurrences[0])

	occurrences, err = Expand(Single(), start, end, nil,
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, occurrences)
}

func TestExpand_DailyWithUntil(t *testing.T) {
	// Daily at 09:00Z, one hour long, until Jan 5 midnight: Jan 1-4 recur,
	// Jan 5 09:00 already exceeds the until bound.
	anchor := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	until := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	sched := Recurring(Rule{Frequency: Daily, Interval: 1, Until: &until})

	occurrences, err := Expand(sched, anchor, anchor.Add(time.Hour), nil,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, occurrences, 4)
	for day, occ := range occurrences {
		wantStart := time.Date(2024, 1, 1+day, 9, 0, 0, 0, time.UTC)
		assert.True(t, occ.Start.Equal(wantStart), "occurrence %d start", day)
		assert.True(t, occ.End.Equal(wantStart.Add(time.Hour)), "occurrence %d end", day)
	}
}

func TestExpand_BiweeklyWeekdaySet(t *testing.T) {
	// Every other week on Monday and Wednesday, anchored on a Monday.
	// An 8-week window contains the anchor week and every second week after
	// it, never the off weeks.
	anchor := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC) // Monday
	sched := Recurring(Rule{
		Frequency: Weekly,
		Interval:  2,
		Weekdays:  []time.Weekday{time.Monday, time.Wednesday},
	})

	occurrences, err := Expand(sched, anchor, anchor.Add(30*time.Minute), nil,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 25, 23, 59, 59, 0, time.UTC))
	require.NoError(t, err)

	want := []time.Time{
		time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),  // Mon, week 0
		time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC),  // Wed, week 0
		time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), // Mon, week 2
		time.Date(2024, 1, 17, 10, 0, 0, 0, time.UTC), // Wed, week 2
		time.Date(2024, 1, 29, 10, 0, 0, 0, time.UTC), // Mon, week 4
		time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC), // Wed, week 4
		time.Date(2024, 2, 12, 10, 0, 0, 0, time.UTC), // Mon, week 6
		time.Date(2024, 2, 14, 10, 0, 0, 0, time.UTC), // Wed, week 6
	}
	assert.Equal(t, want, starts(occurrences))
}

func TestExpand_WeekdaySetSkipsDaysBeforeAnchor(t *testing.T) {
	// Anchored on a Wednesday with Monday+Wednesday listed: the Monday of the
	// anchor week precedes the anchor and must not be generated, and the
	// count starts at the anchor itself.
	anchor := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC) // Wednesday
	sched := Recurring(Rule{
		Frequency: Weekly,
		Interval:  1,
		Weekdays:  []time.Weekday{time.Monday, time.Wednesday},
		Count:     3,
	})

	occurrences, err := Expand(sched, anchor, anchor.Add(time.Hour), nil,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	want := []time.Time{
		time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, want, starts(occurrences))
}

func TestExpand_CountIgnoresWindow(t *testing.T) {
	// Count is a property of the rule: a window starting at the fourth
	// candidate sees only the fourth and fifth of a count=5 series.
	anchor := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	sched := Recurring(Rule{Frequency: Daily, Interval: 1, Count: 5})

	occurrences, err := Expand(sched, anchor, anchor.Add(time.Hour), nil,
		time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	want := []time.Time{
		time.Date(2024, 1, 4, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, want, starts(occurrences))
}

func TestExpand_MonthlyClampsShortMonths(t *testing.T) {
	// Monthly from Jan 31: February clamps to the 29th (2024 is a leap
	// year), April to the 30th.
	anchor := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	sched := Recurring(Rule{Frequency: Monthly, Interval: 1})

	occurrences, err := Expand(sched, anchor, anchor.Add(time.Hour), nil,
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	want := []time.Time{
		time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, want, starts(occurrences))
}

func TestExpand_YearlyClampsLeapDay(t *testing.T) {
	anchor := time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)
	sched := Recurring(Rule{Frequency: Yearly, Interval: 1})

	occurrences, err := Expand(sched, anchor, anchor.Add(time.Hour), nil,
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2028, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	want := []time.Time{
		time.Date(2025, 2, 28, 12, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC),
		time.Date(2027, 2, 28, 12, 0, 0, 0, time.UTC),
		time.Date(2028, 2, 29, 12, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, want, starts(occurrences))
}

func TestExpand_WindowBoundsAreInclusive(t *testing.T) {
	anchor := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	sched := Recurring(Rule{Frequency: Daily, Interval: 1})

	occurrences, err := Expand(sched, anchor, anchor.Add(time.Hour), nil,
		time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 4, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	want := []time.Time{
		time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 4, 9, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, want, starts(occurrences))
}

func TestExpand_SuppressesExceptions(t *testing.T) {
	anchor := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	until := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	sched := Recurring(Rule{Frequency: Daily, Interval: 1, Until: &until})

	var exceptions ExceptionSet
	exceptions = exceptions.Add(time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC))

	occurrences, err := Expand(sched, anchor, anchor.Add(time.Hour), exceptions,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	want := []time.Time{
		time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 4, 9, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, want, starts(occurrences))
}

func TestExpand_IsIdempotent(t *testing.T) {
	anchor := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	sched := Recurring(Rule{
		Frequency: Weekly,
		Interval:  2,
		Weekdays:  []time.Weekday{time.Monday, time.Wednesday},
	})
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	first, err := Expand(sched, anchor, anchor.Add(time.Hour), nil, from, to)
	require.NoError(t, err)
	second, err := Expand(sched, anchor, anchor.Add(time.Hour), nil, from, to)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExpand_FarFutureWindowDoesNotWalkFromAnchor(t *testing.T) {
	// An unbounded daily rule queried a millennium ahead must jump straight
	// to the window instead of stepping through every candidate since 2024.
	anchor := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	sched := Recurring(Rule{Frequency: Daily, Interval: 1})

	occurrences, err := Expand(sched, anchor, anchor.Add(time.Hour), nil,
		time.Date(2999, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2999, 6, 10, 23, 59, 59, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, occurrences, 10)
	assert.True(t, occurrences[0].Start.Equal(time.Date(2999, 6, 1, 9, 0, 0, 0, time.UTC)))
}

func TestExpand_WindowBeforeAnchor(t *testing.T) {
	anchor := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	sched := Recurring(Rule{Frequency: Daily, Interval: 1})

	occurrences, err := Expand(sched, anchor, anchor.Add(time.Hour), nil,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, occurrences)
}

func TestExpand_ReversedWindowFails(t *testing.T) {
	anchor := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	sched := Recurring(Rule{Frequency: Daily, Interval: 1})

	_, err := Expand(sched, anchor, anchor.Add(time.Hour), nil,
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err)
}

func TestExpand_CandidateCap(t *testing.T) {
	// A window wide enough to contain more candidates than the safety cap
	// must fail loudly instead of silently truncating.
	anchor := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	sched := Recurring(Rule{Frequency: Daily, Interval: 1})

	_, err := Expand(sched, anchor, anchor.Add(time.Hour), nil,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrExpansionLimit)
}
