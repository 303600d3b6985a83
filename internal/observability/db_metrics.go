package observability

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// postgres SQLSTATEs worth their own label
var pgErrorClasses = map[string]string{
	"23505": "unique_violation",
	"23503": "foreign_key_violation",
	"22P02": "invalid_text_representation",
	"40001": "serialization_failure",
	"40P01": "deadlock",
	"57014": "query_canceled",
}

// sqlite only exposes constraint kinds through the message
var sqliteErrorClasses = []struct {
	fragment string
	class    string
}{
	{"unique constraint failed", "unique_violation"},
	{"foreign key constraint failed", "foreign_key_violation"},
	{"database is locked", "locked"},
}

// ObserveDB times one logical store operation. A missing row counts as an
// answer, so it is labelled no_rows and never reaches the error counter.
func (p *Prom) ObserveDB(op string, fn func() error) error {
	start := time.Now()
	err := fn()

	status := "ok"

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			status = "no_rows"
		} else {
			status = "error"
			p.DbErrorsTotal.WithLabelValues(op, classifyDBErr(err)).Inc()
		}
	}

	p.DbQueryDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())

	return err
}

func classifyDBErr(err error) string {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) {
		if class, ok := pgErrorClasses[pgErr.Code]; ok {
			return class
		}

		return "pg_" + pgErr.Code
	}

	msg := strings.ToLower(err.Error())

	for _, c := range sqliteErrorClasses {
		if strings.Contains(msg, c.fragment) {
			return c.class
		}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded) || strings.Contains(msg, "timeout"):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case strings.Contains(msg, "connection"):
		return "connection"
	default:
		return "unknown"
	}
}
