package recurrence

import (
	"sort"
	"time"
)

type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// Rule is a canonical recurrence description. It is a value: once compiled it
// is never mutated, so it can be shared and re-expanded against any window.
// Exactly one of Until/Count may be set; both zero means the rule is unbounded.
type Rule struct {
	Frequency Frequency
	Interval  int
	Weekdays  []time.Weekday // weekly only; empty means "same weekday as the anchor"
	Until     *time.Time
	Count     int
}

// Schedule is the recurring/one-time variant attached to an event. Expansion
// dispatches on it once instead of re-checking a boolean at every call site.
type Schedule struct {
	rule *Rule
}

// Single returns the schedule of a one-time event.
func Single() Schedule {
	return Schedule{}
}

// Recurring returns the schedule of an event repeating according to rule.
func Recurring(rule Rule) Schedule {
	return Schedule{rule: &rule}
}

func (s Schedule) IsRecurring() bool {
	return s.rule != nil
}

// Rule returns the recurrence rule and whether the schedule has one.
func (s Schedule) Rule() (Rule, bool) {
	if s.rule == nil {
		return Rule{}, false
	}
	return *s.rule, true
}

// isoWeekday maps time.Weekday to ISO-8601 numbering (Monday=1 .. Sunday=7).
func isoWeekday(d time.Weekday) int {
	if d == time.Sunday {
		return 7
	}
	return int(d)
}

func sortWeekdays(days []time.Weekday) {
	sort.Slice(days, func(i, j int) bool {
		return isoWeekday(days[i]) < isoWeekday(days[j])
	})
}
