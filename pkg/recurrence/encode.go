package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Compact text form of a Rule for storage and transport. The grammar is the
// RRULE subset actually produced by compilation:
//
//	FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE;UNTIL=20240105T000000Z
//	FREQ=DAILY;INTERVAL=1;COUNT=10
//
// Parse also accepts an optional leading "RRULE:" marker.

const untilLayout = "20060102T150405Z"

var freqNames = map[Frequency]string{
	Daily:   "DAILY",
	Weekly:  "WEEKLY",
	Monthly: "MONTHLY",
	Yearly:  "YEARLY",
}

var weekdayTags = map[time.Weekday]string{
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
	time.Sunday:    "SU",
}

func (r Rule) String() string {
	parts := []string{
		"FREQ=" + freqNames[r.Frequency],
		"INTERVAL=" + strconv.Itoa(r.Interval),
	}
	if len(r.Weekdays) > 0 {
		tags := make([]string, 0, len(r.Weekdays))
		for _, day := range r.Weekdays {
			tags = append(tags, weekdayTags[day])
		}
		parts = append(parts, "BYDAY="+strings.Join(tags, ","))
	}
	if r.Until != nil {
		parts = append(parts, "UNTIL="+r.Until.UTC().Format(untilLayout))
	} else if r.Count > 0 {
		parts = append(parts, "COUNT="+strconv.Itoa(r.Count))
	}
	return strings.Join(parts, ";")
}

// Parse reads the compact text form back into a Rule.
func Parse(s string) (Rule, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "RRULE:")
	if s == "" {
		return Rule{}, validationErr("rule", "empty rule text")
	}

	rule := Rule{Interval: 1}
	seenFreq := false

	for _, part := range strings.Split(s, ";") {
		key, value, found := strings.Cut(part, "=")
		if !found {
			return Rule{}, validationErr("rule", fmt.Sprintf("malformed rule part %q", part))
		}
		switch strings.ToUpper(key) {
		case "FREQ":
			freq, err := parseFrequency(value)
			if err != nil {
				return Rule{}, err
			}
			rule.Frequency = freq
			seenFreq = true
		case "INTERVAL":
			interval, err := strconv.Atoi(value)
			if err != nil || interval < 1 {
				return Rule{}, validationErr("interval", fmt.Sprintf("invalid interval %q", value))
			}
			rule.Interval = interval
		case "BYDAY":
			days, err := parseWeekdayTags(value)
			if err != nil {
				return Rule{}, err
			}
			rule.Weekdays = days
		case "UNTIL":
			until, err := time.Parse(untilLayout, value)
			if err != nil {
				return Rule{}, validationErr("until", fmt.Sprintf("invalid until %q", value))
			}
			until = until.UTC()
			rule.Until = &until
		case "COUNT":
			count, err := strconv.Atoi(value)
			if err != nil || count < 1 {
				return Rule{}, validationErr("count", fmt.Sprintf("invalid count %q", value))
			}
			rule.Count = count
		default:
			return Rule{}, validationErr("rule", fmt.Sprintf("unsupported rule part %q", key))
		}
	}

	if !seenFreq {
		return Rule{}, validationErr("frequency", "missing FREQ")
	}
	if rule.Until != nil && rule.Count > 0 {
		return Rule{}, validationErr("termination", "until and count are mutually exclusive")
	}
	return rule, nil
}

func parseFrequency(value string) (Frequency, error) {
	for freq, name := range freqNames {
		if name == strings.ToUpper(value) {
			return freq, nil
		}
	}
	return "", validationErr("frequency", fmt.Sprintf("unknown frequency %q", value))
}

func parseWeekdayTags(value string) ([]time.Weekday, error) {
	tags := strings.Split(value, ",")
	days := make([]time.Weekday, 0, len(tags))
	for _, tag := range tags {
		matched := false
		for day, name := range weekdayTags {
			if name == strings.ToUpper(tag) {
				days = append(days, day)
				matched = true
				break
			}
		}
		if !matched {
			return nil, validationErr("weekdays", fmt.Sprintf("unknown weekday tag %q", tag))
		}
	}
	sortWeekdays(days)
	return days, nil
}
