package agenda

import (
	"context"
	"fmt"
	"time"

	"github.com/schedra/schedra/internal/utils"
	"github.com/schedra/schedra/pkg/event"
	"github.com/schedra/schedra/pkg/user"
)

const (
	upcomingLookahead = 30 * 24 * time.Hour
	upcomingLimit     = 50
)

// EventSource supplies the current user's events whose occurrences may fall
// into a window.
type EventSource interface {
	FindForWindow(ctx context.Context, userId int, from, to time.Time) ([]event.Event, error)
}

type Service struct {
	events EventSource
	clock  utils.Clock
}

func NewService(events EventSource) *Service {
	return &Service{events: events, clock: &utils.SystemClock{}}
}

// Calendar returns every occurrence of the current user's events within
// [from, to], merged and sorted.
func (s *Service) Calendar(ctx context.Context, from, to time.Time) ([]Entry, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	events, err := s.events.FindForWindow(ctx, userId, from, to)
	if err != nil {
		return nil, err
	}
	return Aggregate(events, from, to, 0)
}

// Upcoming returns the current user's occurrences within the next 30 days,
// capped at 50 entries.
func (s *Service) Upcoming(ctx context.Context) ([]Entry, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	now := s.clock.Now()
	to := now.Add(upcomingLookahead)
	events, err := s.events.FindForWindow(ctx, userId, now, to)
	if err != nil {
		return nil, err
	}
	return Aggregate(events, now, to, upcomingLimit)
}
