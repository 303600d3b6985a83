package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/geocoder89/meetups/internal/domain/page"
	"github.com/geocoder89/meetups/internal/domain/registration"
	"github.com/geocoder89/meetups/internal/observability"
	"github.com/google/uuid"
)

const registrationColumns = `id, event_id, name_tag, date_of_registration, participant_id`

type RegistrationsRepo struct {
	db   *sql.DB
	prom *observability.Prom
}

func NewRegistrationsRepo(db *sql.DB, prom *observability.Prom) *RegistrationsRepo {
	return &RegistrationsRepo{db: db, prom: prom}
}

func (r *RegistrationsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *RegistrationsRepo) Insert(ctx context.Context, reg registration.Registration) (registration.Registration, error) {
	reg.ID = uuid.NewString()

	err := r.observe("registrations.insert", func() error {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO registrations (`+registrationColumns+`) VALUES (?, ?, ?, ?, ?)`,
			reg.ID, reg.EventID, reg.NameTag, encodeTime(reg.DateOfRegistration), reg.ParticipantID,
		)
		return err
	})

	if err != nil {
		switch {
		case isUniqueViolation(err):
			return registration.Registration{}, registration.ErrDuplicate
		case isForeignKeyViolation(err):
			return registration.Registration{}, registration.ErrInvalidEventReference
		}

		return registration.Registration{}, err
	}

	return reg, nil
}

func (r *RegistrationsRepo) GetByID(ctx context.Context, id string) (registration.Registration, error) {
	return r.getOne(ctx, "registrations.get_by_id", `SELECT `+registrationColumns+` FROM registrations WHERE id = ?`, id)
}

func (r *RegistrationsRepo) Save(ctx context.Context, reg registration.Registration) (registration.Registration, error) {
	var affected int64

	err := r.observe("registrations.save", func() error {
		res, err := r.db.ExecContext(ctx, `UPDATE registrations SET name_tag = ? WHERE id = ?`, reg.NameTag, reg.ID)

		if err != nil {
			return err
		}

		affected, err = res.RowsAffected()
		return err
	})

	if err != nil {
		return registration.Registration{}, err
	}

	if affected == 0 {
		return registration.Registration{}, registration.ErrNotFound
	}

	return r.GetByID(ctx, reg.ID)
}

func (r *RegistrationsRepo) Delete(ctx context.Context, id string) error {
	var affected int64

	err := r.observe("registrations.delete", func() error {
		res, err := r.db.ExecContext(ctx, `DELETE FROM registrations WHERE id = ?`, id)

		if err != nil {
			return err
		}

		affected, err = res.RowsAffected()
		return err
	})

	if err != nil {
		return err
	}

	if affected == 0 {
		return registration.ErrNotFound
	}

	return nil
}

func (r *RegistrationsRepo) Find(ctx context.Context, filter registration.Filter, req page.Request) (page.Page[registration.Registration], error) {
	conds := registrationConditions(filter)

	var total int

	err := r.observe("registrations.find.count", func() error {
		return r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM registrations`+conds.where(), conds.args...).Scan(&total)
	})

	if err != nil {
		return page.Page[registration.Registration]{}, err
	}

	query := `SELECT ` + registrationColumns + ` FROM registrations` + conds.where() +
		` ORDER BY date_of_registration ASC, id ASC LIMIT ? OFFSET ?`

	out, err := r.list(ctx, "registrations.find", query, append(conds.args, req.Limit(), req.Offset())...)

	if err != nil {
		return page.Page[registration.Registration]{}, err
	}

	return page.Of(out, req, total), nil
}

func (r *RegistrationsRepo) FindExistingForEvent(ctx context.Context, eventID string, participantID int64) (registration.Registration, error) {
	return r.getOne(ctx, "registrations.find_existing_for_event",
		`SELECT `+registrationColumns+` FROM registrations WHERE event_id = ? AND participant_id = ?`,
		eventID, participantID,
	)
}

func (r *RegistrationsRepo) ListByEvent(ctx context.Context, eventID string) ([]registration.Registration, error) {
	return r.list(ctx, "registrations.list_by_event",
		`SELECT `+registrationColumns+`
		FROM registrations
		WHERE event_id = ?
		ORDER BY date_of_registration ASC, id ASC`,
		eventID,
	)
}

func (r *RegistrationsRepo) getOne(ctx context.Context, op, query string, args ...any) (registration.Registration, error) {
	var reg registration.Registration

	err := r.observe(op, func() error {
		return scanRegistration(r.db.QueryRowContext(ctx, query, args...), &reg)
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return registration.Registration{}, registration.ErrNotFound
		}

		return registration.Registration{}, err
	}

	return reg, nil
}

func (r *RegistrationsRepo) list(ctx context.Context, op, query string, args ...any) ([]registration.Registration, error) {
	regs := make([]registration.Registration, 0)

	err := r.observe(op, func() error {
		rows, err := r.db.QueryContext(ctx, query, args...)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var reg registration.Registration

			if err := scanRegistration(rows, &reg); err != nil {
				return err
			}

			regs = append(regs, reg)
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
		c.add("id = ?", *f.ID)
	}

	if f.NameTag != nil {
		c.add(foldFunc+`(name_tag) LIKE ? ESCAPE '\'`, containsPattern(*f.NameTag))
	}

	if f.EventID != nil {
		c.add("event_id = ?", *f.EventID)
	}

	if f.ParticipantID != nil {
		c.add("participant_id = ?", *f.ParticipantID)
	}

	return c
}

func scanRegistration(row scanner, reg *registration.Registration) error {
	var registeredAt string

	err := row.Scan(&reg.ID, &reg.EventID, &reg.NameTag, &registeredAt, &reg.ParticipantID)

	if err != nil {
		return err
	}

	reg.DateOfRegistration, err = decodeTime(registeredAt)

	return err
}
