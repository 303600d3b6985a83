package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/meetups/internal/domain/page"
	"github.com/geocoder89/meetups/internal/domain/registration"
	"github.com/geocoder89/meetups/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const registrationColumns = `id, event_id, name_tag, date_of_registration, participant_id`

type RegistrationRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewRegistrationsRepo(pool *pgxpool.Pool, prom *observability.Prom) *RegistrationRepo {
	return &RegistrationRepo{
		pool: pool,
		prom: prom,
	}
}

func (repo *RegistrationRepo) observe(op string, fn func() error) error {
	if repo.prom != nil {

		return repo.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (repo *RegistrationRepo) Insert(ctx context.Context, reg registration.Registration) (registration.Registration, error) {
	reg.ID = uuid.NewString()

	err := repo.observe("registrations.insert", func() error {
		_, e := repo.pool.Exec(ctx, `
		INSERT INTO registrations (`+registrationColumns+`)
		VALUES ($1,$2,$3,$4,$5)
	`, reg.ID, reg.EventID, reg.NameTag, reg.DateOfRegistration, reg.ParticipantID)
		return e
	})

	if err != nil {
		switch {
		case isConstraintViolation(err, codeUniqueViolation, constraintRegistrationUniqueness):
			return registration.Registration{}, registration.ErrDuplicate
		case isConstraintViolation(err, codeForeignKeyViolation, constraintRegistrationEvent):
			return registration.Registration{}, registration.ErrInvalidEventReference
		}

		return registration.Registration{}, err
	}

	return reg, nil
}

func (repo *RegistrationRepo) GetByID(ctx context.Context, id string) (registration.Registration, error) {
	var r registration.Registration

	err := repo.observe("registrations.get_by_id", func() error {
		return scanRegistration(repo.pool.QueryRow(ctx,
			`SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id,
		), &r)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return registration.Registration{}, registration.ErrNotFound
		}

		return registration.Registration{}, err
	}

	return r, nil
}

// Save writes the name tag; every other column is fixed at sign-up.
func (repo *RegistrationRepo) Save(ctx context.Context, reg registration.Registration) (registration.Registration, error) {
	var r registration.Registration

	err := repo.observe("registrations.save", func() error {
		return scanRegistration(repo.pool.QueryRow(ctx,
			`UPDATE registrations SET name_tag = $2 WHERE id = $1 RETURNING `+registrationColumns,
			reg.ID, reg.NameTag,
		), &r)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return registration.Registration{}, registration.ErrNotFound
		}

		return registration.Registration{}, err
	}

	return r, nil
}

// Delete removes a single registration; the event is left alone.
func (repo *RegistrationRepo) Delete(ctx context.Context, id string) (err error) {
	var tag pgconn.CommandTag
	op := "registrations.delete"
	err = repo.observe(op, func() error {
		var err error
		tag, err = repo.pool.Exec(ctx, `DELETE FROM registrations WHERE id = $1`, id)

		return err
	})

	if err != nil {
		return
	}

	if tag.RowsAffected() == 0 {
		err = registration.ErrNotFound

		return
	}

	return
}

func (repo *RegistrationRepo) Find(ctx context.Context, filter registration.Filter, req page.Request) (page.Page[registration.Registration], error) {
	conds := registrationConditions(filter)

	var total int

	err := repo.observe("registrations.find.count", func() error {
		return repo.pool.QueryRow(ctx, `SELECT COUNT(*) FROM registrations`+conds.where(), conds.args...).Scan(&total)
	})

	if err != nil {
		return page.Page[registration.Registration]{}, err
	}

	query := `SELECT ` + registrationColumns + ` FROM registrations` + conds.where() +
		fmt.Sprintf(" ORDER BY date_of_registration ASC, id ASC LIMIT $%d OFFSET $%d", conds.next(), conds.next()+1)

	args := append(conds.args, req.Limit(), req.Offset())

	out, err := repo.list(ctx, "registrations.find", query, args...)

	if err != nil {
		return page.Page[registration.Registration]{}, err
	}

	return page.Of(out, req, total), nil
}

func (repo *RegistrationRepo) FindExistingForEvent(ctx context.Context, eventID string, participantID int64) (registration.Registration, error) {
	var r registration.Registration

	err := repo.observe("registrations.find_existing_for_event", func() error {
		return scanRegistration(repo.pool.QueryRow(ctx,
			`SELECT `+registrationColumns+`
			FROM registrations
			WHERE event_id = $1 AND participant_id = $2`,
			eventID, participantID,
		), &r)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return registration.Registration{}, registration.ErrNotFound
		}

		return registration.Registration{}, err
	}

	return r, nil
}

func (repo *RegistrationRepo) ListByEvent(ctx context.Context, eventID string) ([]registration.Registration, error) {
	return repo.list(ctx, "registrations.list_by_event",
		`SELECT `+registrationColumns+`
		FROM registrations
		WHERE event_id = $1
		ORDER BY date_of_registration ASC, id ASC`,
		eventID,
	)
}

func (repo *RegistrationRepo) list(ctx context.Context, op, query string, args ...any) ([]registration.Registration, error) {
	regs := make([]registration.Registration, 0)

	err := repo.observe(op, func() error {
		rows, err := repo.pool.Query(ctx, query, args...)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var r registration.Registration

			if scanErr := scanRegistration(rows, &r); scanErr != nil {
				return scanErr
			}

			regs = append(regs, r)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return regs, nil
}

func registrationConditions(f registration.Filter) *conditions {
	c := &conditions{}

	if f.ID != nil {
		c.add("id = $%d", *f.ID)
	}

	if f.NameTag != nil {
		c.add(`name_tag ILIKE $%d ESCAPE '\'`, containsPattern(*f.NameTag))
	}

	if f.EventID != nil {
		c.add("event_id = $%d", *f.EventID)
	}

	if f.ParticipantID != nil {
		c.add("participant_id = $%d", *f.ParticipantID)
	}

	return c
}

func scanRegistration(row pgx.Row, r *registration.Registration) error {
	err := row.Scan(&r.ID, &r.EventID, &r.NameTag, &r.DateOfRegistration, &r.ParticipantID)

	if err != nil {
		return err
	}

	r.DateOfRegistration = r.DateOfRegistration.UTC()

	return nil
}
