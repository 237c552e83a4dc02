package recurrence

import (
	"fmt"
	"time"
)

// Occurrence is one concrete instance produced by expansion. Occurrences are
// derived values and are never stored.
type Occurrence struct {
	Start time.Time
	End   time.Time
}

// maxCandidates bounds how many candidates a single Expand call may examine.
// Generation skips directly to the query window, so the bound is only reached
// when the window itself contains an unreasonable number of occurrences.
const maxCandidates = 10000

// Expand produces every occurrence of the schedule falling within [from, to],
// both bounds inclusive, sorted ascending by start. start and end are the
// owning event's instants; every occurrence keeps the duration end-start.
// Instants listed in exceptions are suppressed from the result.
//
// Expansion is pure: identical arguments always yield identical sequences.
// The first candidate index is computed arithmetically from the window, so a
// window far beyond the anchor never walks candidates one by one to reach it.
func Expand(sched Schedule, start, end time.Time, exceptions ExceptionSet, from, to time.Time) ([]Occurrence, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("expand: window end %s precedes window start %s", to.Format(time.RFC3339), from.Format(time.RFC3339))
	}

	rule, recurring := sched.Rule()
	if !recurring {
		if !start.After(to) && !end.Before(from) {
			return []Occurrence{{Start: start, End: end}}, nil
		}
		return []Occurrence{}, nil
	}

	duration := end.Sub(start)
	gen := newGenerator(rule, start.UTC())
	from = from.UTC()
	to = to.UTC()

	occurrences := make([]Occurrence, 0)
	examined := 0
	for i := gen.firstIndexNear(from); ; i++ {
		if rule.Count > 0 && i >= int64(rule.Count) {
			break
		}
		examined++
		if examined > maxCandidates {
			return nil, fmt.Errorf("%w: window [%s, %s]", ErrExpansionLimit, from.Format(time.RFC3339), to.Format(time.RFC3339))
		}
		candidate := gen.at(i)
		if candidate.After(to) {
			break
		}
		if rule.Until != nil && candidate.After(*rule.Until) {
			break
		}
		if candidate.Before(from) {
			continue
		}
		if exceptions.Contains(candidate) {
			continue
		}
		occurrences = append(occurrences, Occurrence{Start: candidate, End: candidate.Add(duration)})
	}

	return occurrences, nil
}

// generator indexes the infinite candidate sequence of a rule. Candidate i is
// the (i+1)-th start instant the rule generates from its anchor, so Count
// termination is a comparison against i regardless of the query window.
type generator struct {
	rule   Rule
	anchor time.Time // UTC

	// daily and plain weekly: uniform step in seconds
	stepSecs int64

	// weekly with a weekday set: a grid of interval-spaced weeks, anchored at
	// the Monday of the anchor's week at the anchor's time of day
	gridBase    time.Time
	offsets     []int // day offsets into the week, ISO-sorted
	priorInWeek int64 // grid slots in week zero that precede the anchor
}

func newGenerator(rule Rule, anchor time.Time) generator {
	g := generator{rule: rule, anchor: anchor}

	switch {
	case rule.Frequency == Daily:
		g.stepSecs = int64(rule.Interval) * secondsPerDay
	case rule.Frequency == Weekly && len(rule.Weekdays) == 0:
		g.stepSecs = int64(rule.Interval) * 7 * secondsPerDay
	case rule.Frequency == Weekly:
		anchorOffset := isoWeekday(anchor.Weekday()) - 1
		g.gridBase = time.Date(
			anchor.Year(), anchor.Month(), anchor.Day()-anchorOffset,
			anchor.Hour(), anchor.Minute(), anchor.Second(), anchor.Nanosecond(),
			time.UTC,
		)
		for _, day := range rule.Weekdays {
			offset := isoWeekday(day) - 1
			g.offsets = append(g.offsets, offset)
			if offset < anchorOffset {
				g.priorInWeek++
			}
		}
	}
	return g
}

const secondsPerDay = 24 * 60 * 60

func (g generator) at(i int64) time.Time {
	switch g.rule.Frequency {
	case Monthly:
		months := int64(g.anchor.Year())*12 + int64(g.anchor.Month()) - 1 + i*int64(g.rule.Interval)
		year := int(months / 12)
		month := time.Month(months%12 + 1)
		return g.dateClamped(year, month)
	case Yearly:
		year := g.anchor.Year() + int(i)*g.rule.Interval
		return g.dateClamped(year, g.anchor.Month())
	case Weekly:
		if len(g.offsets) > 0 {
			slot := i + g.priorInWeek
			perWeek := int64(len(g.offsets))
			week, pos := slot/perWeek, slot%perWeek
			return g.gridBase.AddDate(0, 0, int(week)*g.rule.Interval*7+g.offsets[pos])
		}
	}
	return time.Unix(g.anchor.Unix()+i*g.stepSecs, int64(g.anchor.Nanosecond())).UTC()
}

// dateClamped places the anchor's day and time of day into the given month,
// clamping to its last day when the month is too short (Jan 31 -> Feb 29).
func (g generator) dateClamped(year int, month time.Month) time.Time {
	day := g.anchor.Day()
	if last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day(); day > last {
		day = last
	}
	return time.Date(
		year, month, day,
		g.anchor.Hour(), g.anchor.Minute(), g.anchor.Second(), g.anchor.Nanosecond(),
		time.UTC,
	)
}

// firstIndexNear returns a candidate index at or shortly before the first
// candidate >= t. It deliberately undershoots by one period; Expand skips the
// handful of stragglers, which keeps the index math simple and safe against
// rounding at period boundaries.
func (g generator) firstIndexNear(t time.Time) int64 {
	var idx int64
	switch g.rule.Frequency {
	case Monthly:
		months := int64(t.Year()-g.anchor.Year())*12 + int64(t.Month()) - int64(g.anchor.Month())
		idx = months/int64(g.rule.Interval) - 1
	case Yearly:
		idx = int64(t.Year()-g.anchor.Year())/int64(g.rule.Interval) - 1
	case Weekly:
		if len(g.offsets) > 0 {
			weekSecs := int64(g.rule.Interval) * 7 * secondsPerDay
			week := (t.Unix()-g.gridBase.Unix())/weekSecs - 1
			idx = week*int64(len(g.offsets)) - g.priorInWeek
		} else {
			idx = (t.Unix()-g.anchor.Unix())/g.stepSecs - 1
		}
	default:
		idx = (t.Unix()-g.anchor.Unix())/g.stepSecs - 1
	}
	if idx < 0 {
		return 0
	}
	return idx
}
