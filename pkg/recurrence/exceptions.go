package recurrence

import (
	"fmt"
	"time"
)

// ExceptionSet holds the occurrence start instants permanently suppressed
// from a series. Instants are normalized to UTC on entry; order of first
// insertion is preserved.
type ExceptionSet []time.Time

// Add returns the set with instant included. Adding an instant that is
// already present is a no-op, so retried cancellations are safe.
func (s ExceptionSet) Add(instant time.Time) ExceptionSet {
	utc := instant.UTC()
	if s.Contains(utc) {
		return s
	}
	return append(s, utc)
}

// Contains reports exact-match membership after UTC normalization.
func (s ExceptionSet) Contains(instant time.Time) bool {
	utc := instant.UTC()
	for _, e := range s {
		if e.Equal(utc) {
			return true
		}
	}
	return false
}

// Strings renders the set as RFC3339 instants for storage.
func (s ExceptionSet) Strings() []string {
	out := make([]string, 0, len(s))
	for _, e := range s {
		out = append(out, e.Format(time.RFC3339Nano))
	}
	return out
}

// ParseExceptionSet reads a stored list of RFC3339 instants back into a set.
func ParseExceptionSet(values []string) (ExceptionSet, error) {
	set := make(ExceptionSet, 0, len(values))
	for _, v := range values {
		instant, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("invalid exception instant %q: %w", v, err)
		}
		set = set.Add(instant)
	}
	return set, nil
}
