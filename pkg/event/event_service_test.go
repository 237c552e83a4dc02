package event

import (
	"context"
	"testing"
	"time"

	"github.com/schedra/schedra/internal/utils"
	"github.com/schedra/schedra/pkg/recurrence"
	"github.com/schedra/schedra/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServiceTest(now time.Time) (*ServiceImpl, *RepositoryStub, context.Context) {
	repo := NewRepositoryStub()
	service := NewService(repo)
	service.clock = &utils.MockClock{FixedNow: now}
	ctx := user.WithUser(context.Background(), user.User{Id: 1})
	return service, repo, ctx
}

func dailyDraft(anchor time.Time) Draft {
	return Draft{
		Title:       "Standup",
		Description: "Daily sync",
		Start:       anchor,
		End:         anchor.Add(time.Hour),
		Recurring:   true,
		Recurrence:  &recurrence.Request{Frequency: "daily"},
	}
}

func TestService_CreateEvent(t *testing.T) {
	anchor := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	service, _, ctx := setupServiceTest(anchor)

	created, err := service.CreateEvent(ctx, dailyDraft(anchor))
	require.NoError(t, err)

	assert.NotZero(t, created.ID)
	assert.Equal(t, 1, created.UserID)
	assert.True(t, created.Schedule.IsRecurring())
	rule, ok := created.Schedule.Rule()
	require.True(t, ok)
	assert.Equal(t, recurrence.Daily, rule.Frequency)
	assert.Empty(t, created.Exceptions)
}

func TestService_CreateEvent_Validation(t *testing.T) {
	anchor := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	service, _, ctx := setupServiceTest(anchor)

	_, err := service.CreateEvent(ctx, Draft{
		Title: "Backwards",
		Start: anchor,
		End:   anchor.Add(-time.Hour),
	})
	assert.ErrorIs(t, err, ErrInvalidTimeRange)

	_, err = service.CreateEvent(ctx, Draft{
		Title:     "No rule",
		Start:     anchor,
		End:       anchor.Add(time.Hour),
		Recurring: true,
	})
	assert.ErrorIs(t, err, ErrRecurrenceNeeded)

	_, err = service.CreateEvent(ctx, Draft{
		Title:      "Bad rule",
		Start:      anchor,
		End:        anchor.Add(time.Hour),
		Recurring:  true,
		Recurrence: &recurrence.Request{Frequency: "hourly"},
	})
	var validationErr *recurrence.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestService_CancelOccurrence(t *testing.T) {
	anchor := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	service, _, ctx := setupServiceTest(anchor)

	created, err := service.CreateEvent(ctx, dailyDraft(anchor))
	require.NoError(t, err)

	target := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)
	updated, err := service.CancelOccurrence(ctx, created.ID, target)
	require.NoError(t, err)
	assert.True(t, updated.Exceptions.Contains(target))

	// Expanding the series afterwards no longer yields the cancelled instant.
	occurrences, err := recurrence.Expand(updated.Schedule, updated.Start, updated.End, updated.Exceptions,
		anchor, anchor.AddDate(0, 0, 4))
	require.NoError(t, err)
	for _, occ := range occurrences {
		assert.False(t, occ.Start.Equal(target))
	}
	assert.Len(t, occurrences, 4)
}

func TestService_CancelOccurrence_IsIdempotent(t *testing.T) {
	anchor := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	service, repo, ctx := setupServiceTest(anchor)

	created, err := service.CreateEvent(ctx, dailyDraft(anchor))
	require.NoError(t, err)

	target := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)
	_, err = service.CancelOccurrence(ctx, created.ID, target)
	require.NoError(t, err)
	repeated, err := service.CancelOccurrence(ctx, created.ID, target)
	require.NoError(t, err)

	assert.Len(t, repeated.Exceptions, 1)
	stored, err := repo.FindByID(ctx, 1, created.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Exceptions, 1)
}

func TestService_CancelOccurrence_Rejections(t *testing.T) {
	anchor := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	now := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	service, _, ctx := setupServiceTest(now)

	series, err := service.CreateEvent(ctx, dailyDraft(anchor))
	require.NoError(t, err)
	oneTime, err := service.CreateEvent(ctx, Draft{
		Title: "One-off",
		Start: anchor,
		End:   anchor.Add(time.Hour),
	})
	require.NoError(t, err)

	testCases := []struct {
		name   string
		id     int64
		target time.Time
		want   error
	}{
		{
			name:   "past occurrence",
			id:     series.ID,
			target: time.Date(2024, 1, 12, 9, 0, 0, 0, time.UTC),
			want:   ErrPastOccurrence,
		},
		{
			name:   "instant the rule never generates",
			id:     series.ID,
			target: time.Date(2024, 1, 20, 10, 30, 0, 0, time.UTC),
			want:   ErrNotAnOccurrence,
		},
		{
			name:   "non-recurring event",
			id:     oneTime.ID,
			target: anchor,
			want:   ErrNotRecurring,
		},
		{
			name:   "unknown event",
			id:     9999,
			target: time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC),
			want:   ErrEventNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.CancelOccurrence(ctx, tc.id, tc.target)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestService_ModifyOccurrence(t *testing.T) {
	anchor := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	service, repo, ctx := setupServiceTest(anchor)

	series, err := service.CreateEvent(ctx, dailyDraft(anchor))
	require.NoError(t, err)

	target := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)
	newTitle := "Standup (moved room)"
	standalone, err := service.ModifyOccurrence(ctx, series.ID, target, OccurrencePatch{Title: &newTitle})
	require.NoError(t, err)

	// The standalone event takes the occurrence slot, keeps the series
	// duration and owner, and patched fields override inherited ones.
	assert.NotEqual(t, series.ID, standalone.ID)
	assert.False(t, standalone.Schedule.IsRecurring())
	assert.True(t, standalone.Start.Equal(target))
	assert.True(t, standalone.End.Equal(target.Add(time.Hour)))
	assert.Equal(t, newTitle, standalone.Title)
	assert.Equal(t, "Daily sync", standalone.Description)
	assert.Equal(t, series.UserID, standalone.UserID)

	// The series now carries the exception and no longer yields the instant.
	stored, err := repo.FindByID(ctx, 1, series.ID)
	require.NoError(t, err)
	assert.True(t, stored.Exceptions.Contains(target))

	occurrences, err := recurrence.Expand(stored.Schedule, stored.Start, stored.End, stored.Exceptions,
		anchor, anchor.AddDate(0, 0, 4))
	require.NoError(t, err)
	for _, occ := range occurrences {
		assert.False(t, occ.Start.Equal(target))
	}
}

func TestService_ModifyOccurrence_PatchOverridesTimes(t *testing.T) {
	anchor := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	service, _, ctx := setupServiceTest(anchor)

	series, err := service.CreateEvent(ctx, dailyDraft(anchor))
	require.NoError(t, err)

	target := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)
	newStart := time.Date(2024, 1, 3, 14, 0, 0, 0, time.UTC)
	newEnd := time.Date(2024, 1, 3, 14, 30, 0, 0, time.UTC)
	standalone, err := service.ModifyOccurrence(ctx, series.ID, target, OccurrencePatch{
		Start: &newStart,
		End:   &newEnd,
	})
	require.NoError(t, err)

	assert.True(t, standalone.Start.Equal(newStart))
	assert.True(t, standalone.End.Equal(newEnd))
}

func TestService_UpdateEvent_KeepsCancellations(t *testing.T) {
	anchor := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	service, _, ctx := setupServiceTest(anchor)

	series, err := service.CreateEvent(ctx, dailyDraft(anchor))
	require.NoError(t, err)
	target := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)
	_, err = service.CancelOccurrence(ctx, series.ID, target)
	require.NoError(t, err)

	draft := dailyDraft(anchor)
	draft.Title = "Standup (renamed)"
	updated, err := service.UpdateEvent(ctx, series.ID, draft)
	require.NoError(t, err)

	assert.Equal(t, "Standup (renamed)", updated.Title)
	assert.True(t, updated.Exceptions.Contains(target), "full-series edits never resurrect cancelled occurrences")
}

func TestService_EventsAreOwnerScoped(t *testing.T) {
	anchor := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	service, _, ctx := setupServiceTest(anchor)

	created, err := service.CreateEvent(ctx, dailyDraft(anchor))
	require.NoError(t, err)

	otherCtx := user.WithUser(context.Background(), user.User{Id: 2})
	_, err = service.GetEvent(otherCtx, created.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)
}
