package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"

	constraintEventUniqueness        = "events_uniqueness_key"
	constraintRegistrationUniqueness = "registrations_event_participant_key"
	constraintRegistrationEvent      = "registrations_event_id_fkey"
)

func isConstraintViolation(err error, code, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code && pgErr.ConstraintName == constraint
}

// conditions collects WHERE clauses with numbered placeholders.
type conditions struct {
	clauses []string
	args    []any
}

// add takes a clause with one %d verb for the placeholder number.
func (c *conditions) add(clause string, arg any) {
	c.args = append(c.args, arg)
	c.clauses = append(c.clauses, fmt.Sprintf(clause, len(c.args)))
}

func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}

	return " WHERE " + strings.Join(c.clauses, " AND ")
}

// next is the placeholder number after the collected args.
func (c *conditions) next() int {
	return len(c.args) + 1
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
