package event

import (
	"context"
	"sync"
	"time"
)

// RepositoryStub is an in-memory Repository used by service tests.
type RepositoryStub struct {
	mu     sync.RWMutex
	events map[int64]Event
	owners map[int64]int
	nextId int64
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		events: make(map[int64]Event),
		owners: make(map[int64]int),
		nextId: 1,
	}
}

func (r *RepositoryStub) Create(ctx context.Context, userId int, event Event) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	event.ID = r.nextId
	event.UserID = userId
	r.nextId++
	r.events[event.ID] = event
	r.owners[event.ID] = userId
	return event, nil
}

func (r *RepositoryStub) FindByID(ctx context.Context, userId int, id int64) (Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	event, ok := r.events[id]
	if !ok || r.owners[id] != userId {
		return Event{}, ErrEventNotFound
	}
	return event, nil
}

func (r *RepositoryStub) FindAll(ctx context.Context, userId int) ([]Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := make([]Event, 0, len(r.events))
	for id, event := range r.events {
		if r.owners[id] == userId {
			events = append(events, event)
		}
	}
	return events, nil
}

func (r *RepositoryStub) FindForWindow(ctx context.Context, userId int, from, to time.Time) ([]Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := make([]Event, 0, len(r.events))
	for id, event := range r.events {
		if r.owners[id] != userId {
			continue
		}
		if event.Schedule.IsRecurring() || (!event.Start.After(to) && !event.End.Before(from)) {
			events = append(events, event)
		}
	}
	return events, nil
}

func (r *RepositoryStub) Update(ctx context.Context, userId int, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[event.ID]; !ok || r.owners[event.ID] != userId {
		return ErrEventNotFound
	}
	event.UserID = userId
	r.events[event.ID] = event
	return nil
}

func (r *RepositoryStub) Delete(ctx context.Context, userId int, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[id]; !ok || r.owners[id] != userId {
		return ErrEventNotFound
	}
	delete(r.events, id)
	delete(r.owners, id)
	return nil
}
