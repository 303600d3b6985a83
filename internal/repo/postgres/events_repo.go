package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/meetups/internal/domain/event"
	"github.com/geocoder89/meetups/internal/domain/page"
	"github.com/geocoder89/meetups/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const eventColumns = `id, title, description, creation_date, start_date, end_date, event_type, organizer_id`

type EventsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

// constructor function

func NewEventsRepo(pool *pgxpool.Pool, prom *observability.Prom) *EventsRepo {
	return &EventsRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *EventsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *EventsRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *EventsRepo) Insert(ctx context.Context, e event.Event) (event.Event, error) {
	e.ID = uuid.NewString()

	err := r.observe("events.insert", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO events (`+eventColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			e.ID, e.Title, e.Description, e.CreationDate, e.StartDate, e.EndDate, string(e.Type), e.OrganizerID,
		)
		return err
	})

	if err != nil {
		// the unique index closes the gap between FindExisting and this insert
		if isConstraintViolation(err, codeUniqueViolation, constraintEventUniqueness) {
			return event.Event{}, event.ErrDuplicate
		}

		return event.Event{}, err
	}

	return e, nil
}

func (r *EventsRepo) GetByID(ctx context.Context, id string) (event.Event, error) {
	var e event.Event

	err := r.observe("events.get_by_id", func() error {
		return scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id), &e)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return event.Event{}, event.ErrNotFound
		}
		return event.Event{}, err
	}

	return e, nil
}

func (r *EventsRepo) Save(ctx context.Context, e event.Event) (event.Event, error) {
	var out event.Event

	err := r.observe("events.save", func() error {
		return scanEvent(r.pool.QueryRow(
			ctx,
			`UPDATE events
				SET title = $2,
					description = $3,
					start_date = $4,
					end_date = $5
			WHERE id = $1
			RETURNING `+eventColumns,
			e.ID,
			e.Title,
			e.Description,
			e.StartDate,
			e.EndDate,
		), &out)
	})

	if err != nil {
		// if there are no rows matching the id
		if errors.Is(err, pgx.ErrNoRows) {
			return event.Event{}, event.ErrNotFound
		}

		if isConstraintViolation(err, codeUniqueViolation, constraintEventUniqueness) {
			return event.Event{}, event.ErrDuplicate
		}

		return event.Event{}, err
	}

	return out, nil
}

func (r *EventsRepo) Delete(ctx context.Context, id string) error {
	var tag pgconn.CommandTag

	err := r.observe("events.delete", func() error {
		var err error
		tag, err = r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
		return err
	})

	if err != nil {
		// a registration slipped in after the service checked
		if isConstraintViolation(err, codeForeignKeyViolation, constraintRegistrationEvent) {
			return event.ErrHasActiveRegistrations
		}

		return err
	}

	// if no rows were deleted as a result return a not found error
	if tag.RowsAffected() == 0 {
		return event.ErrNotFound
	}

	return nil
}

func (r *EventsRepo) Find(ctx context.Context, filter event.Filter, req page.Request) (page.Page[event.Event], error) {
	conds := eventConditions(filter)

	var total int

	err := r.observe("events.find.count", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM events`+conds.where(), conds.args...).Scan(&total)
	})

	if err != nil {
		return page.Page[event.Event]{}, err
	}

	// stable ordering for pagination
	query := `SELECT ` + eventColumns + ` FROM events` + conds.where() +
		fmt.Sprintf(" ORDER BY start_date ASC, id ASC LIMIT $%d OFFSET $%d", conds.next(), conds.next()+1)

	args := append(conds.args, req.Limit(), req.Offset())

	output := make([]event.Event, 0, req.Limit())

	err = r.observe("events.find", func() error {
		rows, err := r.pool.Query(ctx, query, args...)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var e event.Event

			err = scanEvent(rows, &e)

			if err != nil {
				return err
			}

			output = append(output, e)
		}

		return rows.Err()
	})

	if err != nil {
		return page.Page[event.Event]{}, err
	}

	return page.Of(output, req, total), nil
}

func (r *EventsRepo) FindExisting(ctx context.Context, key event.Key) (event.Event, error) {
	var e event.Event

	err := r.observe("events.find_existing", func() error {
		return scanEvent(r.pool.QueryRow(ctx,
			`SELECT `+eventColumns+`
			FROM events
			WHERE title = $1 AND start_date = $2 AND end_date = $3 AND organizer_id = $4
			LIMIT 1`,
			key.Title, key.StartDate, key.EndDate, key.OrganizerID,
		), &e)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return event.Event{}, event.ErrNotFound
		}
		return event.Event{}, err
	}

	return e, nil
}

func eventConditions(f event.Filter) *conditions {
	c := &conditions{}

	// filtered conditional checks.
	if f.ID != nil {
		c.add("id = $%d", *f.ID)
	}

	if f.Title != nil {
		c.add(`title ILIKE $%d ESCAPE '\'`, containsPattern(*f.Title))
	}

	if f.Description != nil {
		c.add(`description ILIKE $%d ESCAPE '\'`, containsPattern(*f.Description))
	}

	if f.Type != nil {
		c.add("event_type = $%d", string(*f.Type))
	}

	if f.OrganizerID != nil {
		c.add("organizer_id = $%d", *f.OrganizerID)
	}

	if f.From != nil {
		c.add("start_date >= $%d", *f.From)
	}

	if f.To != nil {
		c.add("start_date <= $%d", *f.To)
	}

	return c
}

func scanEvent(row pgx.Row, e *event.Event) error {
	var eventType string

	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.CreationDate, &e.StartDate, &e.EndDate, &eventType, &e.OrganizerID)

	if err != nil {
		return err
	}

	e.Type = event.Type(eventType)
	e.CreationDate = e.CreationDate.UTC()
	e.StartDate = e.StartDate.UTC()
	e.EndDate = e.EndDate.UTC()

	return nil
}
