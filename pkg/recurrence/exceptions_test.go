package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExceptionSet_AddIsIdempotent(t *testing.T) {
	instant := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)

	var set ExceptionSet
	set = set.Add(instant)
	once := set
	set = set.Add(instant)

	assert.Equal(t, once, set)
	assert.Len(t, set, 1)
}

func TestExceptionSet_NormalizesToUTC(t *testing.T) {
	warsaw, err := time.LoadLocation("Europe/Warsaw")
	require.NoError(t, err)

	// 10:00+01:00 is 09:00Z; both spellings name the same instant.
	local := time.Date(2024, 1, 3, 10, 0, 0, 0, warsaw)
	utc := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)

	var set ExceptionSet
	set = set.Add(local)

	assert.True(t, set.Contains(utc))
	assert.True(t, set.Contains(local))
	assert.Equal(t, time.UTC, set[0].Location())

	set = set.Add(utc)
	assert.Len(t, set, 1)
}

func TestExceptionSet_PreservesInsertionOrder(t *testing.T) {
	first := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	second := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

	var set ExceptionSet
	set = set.Add(first).Add(second).Add(first)

	require.Len(t, set, 2)
	assert.True(t, set[0].Equal(first))
	assert.True(t, set[1].Equal(second))
}

func TestExceptionSet_StringsRoundTrip(t *testing.T) {
	var set ExceptionSet
	set = set.Add(time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC))
	set = set.Add(time.Date(2024, 2, 7, 15, 30, 0, 0, time.UTC))

	parsed, err := ParseExceptionSet(set.Strings())
	require.NoError(t, err)
	assert.Equal(t, set, parsed)

	_, err = ParseExceptionSet([]string{"not-a-timestamp"})
	assert.Error(t, err)
}
