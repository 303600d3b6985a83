package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/geocoder89/meetups/internal/domain/event"
	"github.com/geocoder89/meetups/internal/domain/page"
	"github.com/geocoder89/meetups/internal/observability"
	"github.com/google/uuid"
)

const eventColumns = `id, title, description, creation_date, start_date, end_date, event_type, organizer_id`

type EventsRepo struct {
	db   *sql.DB
	prom *observability.Prom
}

func NewEventsRepo(db *sql.DB, prom *observability.Prom) *EventsRepo {
	return &EventsRepo{db: db, prom: prom}
}

func (r *EventsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *EventsRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *EventsRepo) Insert(ctx context.Context, e event.Event) (event.Event, error) {
	e.ID = uuid.NewString()

	err := r.observe("events.insert", func() error {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.Title, e.Description,
			encodeTime(e.CreationDate), encodeTime(e.StartDate), encodeTime(e.EndDate),
			string(e.Type), e.OrganizerID,
		)
		return err
	})

	if err != nil {
		if isUniqueViolation(err) {
			return event.Event{}, event.ErrDuplicate
		}

		return event.Event{}, err
	}

	return e, nil
}

func (r *EventsRepo) GetByID(ctx context.Context, id string) (event.Event, error) {
	return r.getOne(ctx, "events.get_by_id", `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
}

func (r *EventsRepo) Save(ctx context.Context, e event.Event) (event.Event, error) {
	var affected int64

	err := r.observe("events.save", func() error {
		res, err := r.db.ExecContext(ctx,
			`UPDATE events SET title = ?, description = ?, start_date = ?, end_date = ? WHERE id = ?`,
			e.Title, e.Description, encodeTime(e.StartDate), encodeTime(e.EndDate), e.ID,
		)

		if err != nil {
			return err
		}

		affected, err = res.RowsAffected()
		return err
	})

	if err != nil {
		if isUniqueViolation(err) {
			return event.Event{}, event.ErrDuplicate
		}

		return event.Event{}, err
	}

	if affected == 0 {
		return event.Event{}, event.ErrNotFound
	}

	return r.GetByID(ctx, e.ID)
}

func (r *EventsRepo) Delete(ctx context.Context, id string) error {
	var affected int64

	err := r.observe("events.delete", func() error {
		res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)

		if err != nil {
			return err
		}

		affected, err = res.RowsAffected()
		return err
	})

	if err != nil {
		if isForeignKeyViolation(err) {
			return event.ErrHasActiveRegistrations
		}

		return err
	}

	if affected == 0 {
		return event.ErrNotFound
	}

	return nil
}

func (r *EventsRepo) Find(ctx context.Context, filter event.Filter, req page.Request) (page.Page[event.Event], error) {
	conds := eventConditions(filter)

	var total int

	err := r.observe("events.find.count", func() error {
		return r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`+conds.where(), conds.args...).Scan(&total)
	})

	if err != nil {
		return page.Page[event.Event]{}, err
	}

	query := `SELECT ` + eventColumns + ` FROM events` + conds.where() + ` ORDER BY start_date ASC, id ASC LIMIT ? OFFSET ?`
	args := append(conds.args, req.Limit(), req.Offset())

	out := make([]event.Event, 0, req.Limit())

	err = r.observe("events.find", func() error {
		rows, err := r.db.QueryContext(ctx, query, args...)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var e event.Event

			if err := scanEvent(rows, &e); err != nil {
				return err
			}

			out = append(out, e)
		}

		return rows.Err()
	})

	if err != nil {
		return page.Page[event.Event]{}, err
	}

	return page.Of(out, req, total), nil
}

func (r *EventsRepo) FindExisting(ctx context.Context, key event.Key) (event.Event, error) {
	return r.getOne(ctx, "events.find_existing",
		`SELECT `+eventColumns+`
		FROM events
		WHERE title = ? AND start_date = ? AND end_date = ? AND organizer_id = ?
		LIMIT 1`,
		key.Title, encodeTime(key.StartDate), encodeTime(key.EndDate), key.OrganizerID,
	)
}

func (r *EventsRepo) getOne(ctx context.Context, op, query string, args ...any) (event.Event, error) {
	var e event.Event

	err := r.observe(op, func() error {
		return scanEvent(r.db.QueryRowContext(ctx, query, args...), &e)
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return event.Event{}, event.ErrNotFound
		}

		return event.Event{}, err
	}

	return e, nil
}

func eventConditions(f event.Filter) *conditions {
	c := &conditions{}

	if f.ID != nil {
		c.add("id = ?", *f.ID)
	}

	if f.Title != nil {
		c.add(foldFunc+`(title) LIKE ? ESCAPE '\'`, containsPattern(*f.Title))
	}

	if f.Description != nil {
		c.add(foldFunc+`(description) LIKE ? ESCAPE '\'`, containsPattern(*f.Description))
	}

	if f.Type != nil {
		c.add("event_type = ?", string(*f.Type))
	}

	if f.OrganizerID != nil {
		c.add("organizer_id = ?", *f.OrganizerID)
	}

	if f.From != nil {
		c.add("start_date >= ?", encodeTime(*f.From))
	}

	if f.To != nil {
		c.add("start_date <= ?", encodeTime(*f.To))
	}

	return c
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner, e *event.Event) error {
	var (
		eventType            string
		creation, start, end string
	)

	err := row.Scan(&e.ID, &e.Title, &e.Description, &creation, &start, &end, &eventType, &e.OrganizerID)

	if err != nil {
		return err
	}

	e.Type = event.Type(eventType)

	if e.CreationDate, err = decodeTime(creation); err != nil {
		return err
	}

	if e.StartDate, err = decodeTime(start); err != nil {
		return err
	}

	if e.EndDate, err = decodeTime(end); err != nil {
		return err
	}

	return nil
}
