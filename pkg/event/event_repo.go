package event

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/schedra/schedra/pkg/recurrence"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	Create(ctx context.Context, userId int, event Event) (Event, error)
	FindByID(ctx context.Context, userId int, id int64) (Event, error)
	FindAll(ctx context.Context, userId int) ([]Event, error)
	// FindForWindow returns the events whose occurrences may intersect
	// [from, to]: every recurring event plus the one-time events overlapping
	// the window.
	FindForWindow(ctx context.Context, userId int, from, to time.Time) ([]Event, error)
	Update(ctx context.Context, userId int, event Event) error
	Delete(ctx context.Context, userId int, id int64) error
}

type RepositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const eventColumns = "id, title, description, start_time, end_time, recurrence_rule, exceptions"

func (r *RepositoryImpl) Create(ctx context.Context, userId int, event Event) (Event, error) {
	query := `INSERT INTO event (user_id, title, description, start_time, end_time, recurrence_rule, exceptions)
			  VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`

	ruleText, exceptionsJSON, err := encodeRecurrence(event)
	if err != nil {
		log.Error(err)
		return Event{}, err
	}

	var id int64
	err = r.db.QueryRowContext(ctx, query,
		userId,
		event.Title,
		event.Description,
		event.Start.UnixMilli(),
		event.End.UnixMilli(),
		ruleText,
		exceptionsJSON,
	).Scan(&id)
	if err != nil {
		err := fmt.Errorf("could not store event: %w", err)
		log.Error(err)
		return Event{}, err
	}

	event.ID = id
	event.UserID = userId
	return event, nil
}

func (r *RepositoryImpl) FindByID(ctx context.Context, userId int, id int64) (Event, error) {
	query := `SELECT ` + eventColumns + ` FROM event WHERE user_id = $1 AND id = $2`

	event, err := scanEvent(r.db.QueryRowContext(ctx, query, userId, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Event{}, ErrEventNotFound
	} else if err != nil {
		err := fmt.Errorf("could not load event %d: %w", id, err)
		log.Error(err)
		return Event{}, err
	}
	event.UserID = userId
	return event, nil
}

func (r *RepositoryImpl) FindAll(ctx context.Context, userId int) ([]Event, error) {
	query := `SELECT ` + eventColumns + ` FROM event WHERE user_id = $1 ORDER BY start_time`

	return r.queryEvents(ctx, userId, query, userId)
}

func (r *RepositoryImpl) FindForWindow(ctx context.Context, userId int, from, to time.Time) ([]Event, error) {
	query := `SELECT ` + eventColumns + ` FROM event
			  WHERE user_id = $1
				AND (recurrence_rule IS NOT NULL OR (start_time <= $2 AND end_time >= $3))
			  ORDER BY start_time`

	return r.queryEvents(ctx, userId, query, userId, to.UnixMilli(), from.UnixMilli())
}

func (r *RepositoryImpl) queryEvents(ctx context.Context, userId int, query string, args ...any) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		err := fmt.Errorf("could not query events: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	events := make([]Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			err := fmt.Errorf("could not scan event row: %w", err)
			log.Error(err)
			return nil, err
		}
		event.UserID = userId
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not read event rows: %w", err)
	}
	return events, nil
}

func (r *RepositoryImpl) Update(ctx context.Context, userId int, event Event) error {
	query := `UPDATE event SET title = $1, description = $2, start_time = $3, end_time = $4,
				recurrence_rule = $5, exceptions = $6
			  WHERE user_id = $7 AND id = $8`

	ruleText, exceptionsJSON, err := encodeRecurrence(event)
	if err != nil {
		log.Error(err)
		return err
	}

	result, err := r.db.ExecContext(ctx, query,
		event.Title,
		event.Description,
		event.Start.UnixMilli(),
		event.End.UnixMilli(),
		ruleText,
		exceptionsJSON,
		userId,
		event.ID,
	)
	if err != nil {
		err := fmt.Errorf("could not update event %d: %w", event.ID, err)
		log.Error(err)
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, userId int, id int64) error {
	query := `DELETE FROM event WHERE user_id = $1 AND id = $2`

	result, err := r.db.ExecContext(ctx, query, userId, id)
	if err != nil {
		err := fmt.Errorf("could not delete event %d: %w", id, err)
		log.Error(err)
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrEventNotFound
	}
	return nil
}

// encodeRecurrence renders the schedule and exception set into their stored
// forms: the compact rule text (NULL for one-time events) and a JSON array of
// RFC3339 instants.
func encodeRecurrence(event Event) (sql.NullString, string, error) {
	var ruleText sql.NullString
	if rule, ok := event.Schedule.Rule(); ok {
		ruleText = sql.NullString{String: rule.String(), Valid: true}
	}
	exceptionsJSON, err := json.Marshal(event.Exceptions.Strings())
	if err != nil {
		return sql.NullString{}, "", fmt.Errorf("could not encode exceptions: %w", err)
	}
	return ruleText, string(exceptionsJSON), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (Event, error) {
	var event Event
	var startMillis, endMillis int64
	var ruleText sql.NullString
	var exceptionsJSON string

	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&startMillis,
		&endMillis,
		&ruleText,
		&exceptionsJSON,
	)
	if err != nil {
		return Event{}, err
	}

	event.Start = time.UnixMilli(startMillis).UTC()
	event.End = time.UnixMilli(endMillis).UTC()

	if ruleText.Valid {
		rule, err := recurrence.Parse(ruleText.String)
		if err != nil {
			return Event{}, fmt.Errorf("stored rule is unreadable: %w", err)
		}
		event.Schedule = recurrence.Recurring(rule)
	} else {
		event.Schedule = recurrence.Single()
	}

	var exceptionStrings []string
	if exceptionsJSON != "" {
		if err := json.Unmarshal([]byte(exceptionsJSON), &exceptionStrings); err != nil {
			return Event{}, fmt.Errorf("stored exceptions are unreadable: %w", err)
		}
	}
	event.Exceptions, err = recurrence.ParseExceptionSet(exceptionStrings)
	if err != nil {
		return Event{}, fmt.Errorf("stored exceptions are unreadable: %w", err)
	}

	return event, nil
}
