package event

import (
	"context"
	"fmt"
	"time"

	"github.com/schedra/schedra/internal/utils"
	"github.com/schedra/schedra/pkg/recurrence"
	"github.com/schedra/schedra/pkg/user"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	CreateEvent(ctx context.Context, draft Draft) (Event, error)
	GetEvent(ctx context.Context, id int64) (Event, error)
	ListEvents(ctx context.Context) ([]Event, error)
	UpdateEvent(ctx context.Context, id int64, draft Draft) (Event, error)
	DeleteEvent(ctx context.Context, id int64) error

	// CancelOccurrence permanently suppresses one future occurrence of a
	// recurring event. Repeating the call for the same occurrence is a no-op.
	CancelOccurrence(ctx context.Context, id int64, occurrenceStart time.Time) (Event, error)

	// ModifyOccurrence splits one future occurrence out of its series: the
	// occurrence is cancelled on the series and a standalone one-time event
	// is created from the patch, falling back to the series' fields. The
	// standalone event is returned.
	ModifyOccurrence(ctx context.Context, id int64, occurrenceStart time.Time, patch OccurrencePatch) (Event, error)
}

type ServiceImpl struct {
	repo  Repository
	clock utils.Clock
}

func NewService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo, clock: &utils.SystemClock{}}
}

func (s *ServiceImpl) CreateEvent(ctx context.Context, draft Draft) (Event, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Event{}, fmt.Errorf("failed to get current user: %w", err)
	}

	event, err := eventFromDraft(draft)
	if err != nil {
		return Event{}, err
	}

	return s.repo.Create(ctx, userId, event)
}

func (s *ServiceImpl) GetEvent(ctx context.Context, id int64) (Event, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Event{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.FindByID(ctx, userId, id)
}

func (s *ServiceImpl) ListEvents(ctx context.Context) ([]Event, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.FindAll(ctx, userId)
}

// UpdateEvent replaces the whole event or series: the rule is recompiled from
// the draft, while previously cancelled occurrences stay cancelled.
func (s *ServiceImpl) UpdateEvent(ctx context.Context, id int64, draft Draft) (Event, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Event{}, fmt.Errorf("failed to get current user: %w", err)
	}

	existing, err := s.repo.FindByID(ctx, userId, id)
	if err != nil {
		return Event{}, err
	}

	updated, err := eventFromDraft(draft)
	if err != nil {
		return Event{}, err
	}
	updated.ID = existing.ID
	updated.UserID = existing.UserID
	updated.Exceptions = existing.Exceptions

	if err := s.repo.Update(ctx, userId, updated); err != nil {
		return Event{}, err
	}
	return updated, nil
}

func (s *ServiceImpl) DeleteEvent(ctx context.Context, id int64) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.Delete(ctx, userId, id)
}

func (s *ServiceImpl) CancelOccurrence(ctx context.Context, id int64, occurrenceStart time.Time) (Event, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Event{}, fmt.Errorf("failed to get current user: %w", err)
	}

	event, err := s.repo.FindByID(ctx, userId, id)
	if err != nil {
		return Event{}, err
	}
	if err := s.validateOccurrenceTarget(event, occurrenceStart); err != nil {
		return Event{}, err
	}

	before := len(event.Exceptions)
	event.Exceptions = event.Exceptions.Add(occurrenceStart)
	if len(event.Exceptions) == before {
		log.Debugf("occurrence %s of event %d already cancelled", occurrenceStart.Format(time.RFC3339), id)
		return event, nil
	}

	if err := s.repo.Update(ctx, userId, event); err != nil {
		return Event{}, err
	}
	return event, nil
}

func (s *ServiceImpl) ModifyOccurrence(ctx context.Context, id int64, occurrenceStart time.Time, patch OccurrencePatch) (Event, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Event{}, fmt.Errorf("failed to get current user: %w", err)
	}

	series, err := s.repo.FindByID(ctx, userId, id)
	if err != nil {
		return Event{}, err
	}
	if err := s.validateOccurrenceTarget(series, occurrenceStart); err != nil {
		return Event{}, err
	}

	// The cancellation must be durable before the standalone event exists,
	// otherwise a failure in between would duplicate the occurrence.
	series.Exceptions = series.Exceptions.Add(occurrenceStart)
	if err := s.repo.Update(ctx, userId, series); err != nil {
		return Event{}, err
	}

	standalone := splitOccurrence(series, occurrenceStart, patch)
	created, err := s.repo.Create(ctx, userId, standalone)
	if err != nil {
		return Event{}, fmt.Errorf("occurrence was cancelled but the replacement event could not be created: %w", err)
	}

	log.Debugf("split occurrence %s of event %d into standalone event %d",
		occurrenceStart.Format(time.RFC3339), series.ID, created.ID)
	return created, nil
}

// validateOccurrenceTarget applies the shared cancel/modify checks: the event
// must be recurring, the target must not be in the past relative to the
// service clock, and it must be an instant the rule actually generates.
func (s *ServiceImpl) validateOccurrenceTarget(event Event, occurrenceStart time.Time) error {
	if !event.Schedule.IsRecurring() {
		return ErrNotRecurring
	}
	if occurrenceStart.Before(s.clock.Now()) {
		return ErrPastOccurrence
	}

	// Membership is checked against the bare rule with a single-instant
	// window, ignoring recorded exceptions so that a repeated cancellation
	// stays valid (and idempotent).
	occurrences, err := recurrence.Expand(event.Schedule, event.Start, event.End, nil, occurrenceStart, occurrenceStart)
	if err != nil {
		return fmt.Errorf("failed to verify occurrence: %w", err)
	}
	if len(occurrences) == 0 {
		return ErrNotAnOccurrence
	}
	return nil
}

func splitOccurrence(series Event, occurrenceStart time.Time, patch OccurrencePatch) Event {
	start := occurrenceStart
	if patch.Start != nil {
		start = *patch.Start
	}
	end := start.Add(series.Duration())
	if patch.End != nil {
		end = *patch.End
	}

	standalone := Event{
		UserID:      series.UserID,
		Title:       series.Title,
		Description: series.Description,
		Start:       start,
		End:         end,
		Schedule:    recurrence.Single(),
	}
	if patch.Title != nil {
		standalone.Title = *patch.Title
	}
	if patch.Description != nil {
		standalone.Description = *patch.Description
	}
	return standalone
}

func eventFromDraft(draft Draft) (Event, error) {
	if !draft.End.After(draft.Start) {
		return Event{}, ErrInvalidTimeRange
	}

	schedule := recurrence.Single()
	if draft.Recurring {
		if draft.Recurrence == nil {
			return Event{}, ErrRecurrenceNeeded
		}
		rule, err := recurrence.Compile(*draft.Recurrence, draft.Start)
		if err != nil {
			return Event{}, err
		}
		schedule = recurrence.Recurring(rule)
	}

	return Event{
		Title:       draft.Title,
		Description: draft.Description,
		Start:       draft.Start,
		End:         draft.End,
		Schedule:    schedule,
	}, nil
}
