package recurrence

import (
	"fmt"
	"time"
)

// Request is the structured recurrence configuration supplied on event
// creation. Weekdays use ISO numbering (1=Monday .. 7=Sunday). Until and
// Count are mutually exclusive; leaving both unset makes the rule unbounded.
type Request struct {
	Frequency string     `json:"frequency"`
	Interval  int        `json:"interval,omitempty"`
	Weekdays  []int      `json:"weekdays,omitempty"`
	Until     *time.Time `json:"until,omitempty"`
	Count     *int       `json:"count,omitempty"`
}

// Compile validates a recurrence request against its anchor start instant and
// produces a canonical Rule. It is a pure function: no clock, no side effects.
func Compile(req Request, anchor time.Time) (Rule, error) {
	var freq Frequency
	switch Frequency(req.Frequency) {
	case Daily, Weekly, Monthly, Yearly:
		freq = Frequency(req.Frequency)
	default:
		return Rule{}, validationErr("frequency", fmt.Sprintf("unknown frequency %q", req.Frequency))
	}

	interval := req.Interval
	if interval == 0 {
		interval = 1
	}
	if interval < 1 {
		return Rule{}, validationErr("interval", "interval must be a positive integer")
	}

	var weekdays []time.Weekday
	if len(req.Weekdays) > 0 {
		if freq != Weekly {
			return Rule{}, validationErr("weekdays", "weekdays are only valid for weekly frequency")
		}
		seen := make(map[int]bool, len(req.Weekdays))
		for _, day := range req.Weekdays {
			if day < 1 || day > 7 {
				return Rule{}, validationErr("weekdays", fmt.Sprintf("weekday %d is outside 1 (Monday) to 7 (Sunday)", day))
			}
			if seen[day] {
				continue
			}
			seen[day] = true
			if day == 7 {
				weekdays = append(weekdays, time.Sunday)
			} else {
				weekdays = append(weekdays, time.Weekday(day))
			}
		}
		sortWeekdays(weekdays)
	}

	if req.Until != nil && req.Count != nil {
		return Rule{}, validationErr("termination", "until and count are mutually exclusive")
	}

	rule := Rule{
		Frequency: freq,
		Interval:  interval,
		Weekdays:  weekdays,
	}

	if req.Until != nil {
		if req.Until.Before(anchor) {
			return Rule{}, validationErr("until", "until must not predate the event start")
		}
		until := req.Until.UTC()
		rule.Until = &until
	}
	if req.Count != nil {
		if *req.Count < 1 {
			return Rule{}, validationErr("count", "count must be a positive integer")
		}
		rule.Count = *req.Count
	}

	return rule, nil
}
