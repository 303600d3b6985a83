// Package sqlite is the embedded store: same tables and constraints as the
// postgres schema, on modernc's pure-Go sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id            TEXT PRIMARY KEY,
	title         TEXT    NOT NULL,
	description   TEXT    NOT NULL DEFAULT '',
	creation_date TEXT    NOT NULL,
	start_date    TEXT    NOT NULL,
	end_date      TEXT    NOT NULL,
	event_type    TEXT    NOT NULL CHECK (event_type IN ('FACE_TO_FACE', 'ONLINE')),
	organizer_id  INTEGER NOT NULL,
	UNIQUE (title, start_date, end_date, organizer_id)
);

CREATE INDEX IF NOT EXISTS events_start_date_idx ON events (start_date, id);

CREATE TABLE IF NOT EXISTS registrations (
	id                   TEXT PRIMARY KEY,
	event_id             TEXT    NOT NULL REFERENCES events (id) ON DELETE RESTRICT,
	name_tag             TEXT    NOT NULL,
	date_of_registration TEXT    NOT NULL,
	participant_id       INTEGER NOT NULL,
	UNIQUE (event_id, participant_id)
);

CREATE INDEX IF NOT EXISTS registrations_event_date_idx ON registrations (event_id, date_of_registration, id);
`

// foldFunc replaces sqlite's lower(), which only folds ASCII. Patterns are
// folded with the same strings.ToLower, so both sides of LIKE agree.
const foldFunc = "fold"

func init() {
	sqlitedriver.MustRegisterDeterministicScalarFunction(foldFunc, 1, fold)
}

func fold(_ *sqlitedriver.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// Open connects to the database file at path (":memory:" works) and creates the schema.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// one connection: writers never see "database is locked", and :memory: stays a single database
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return db, nil
}

// fixed width and UTC, so text comparison orders like time does
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func decodeTime(s string) (time.Time, error) {
	return time.ParseInLocation(timeLayout, s, time.UTC)
}

func errorCode(err error) int {
	var sqliteErr *sqlitedriver.Error

	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()
	}

	return 0
}

func isUniqueViolation(err error) bool {
	return errorCode(err) == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

func isForeignKeyViolation(err error) bool {
	return errorCode(err) == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}

type conditions struct {
	clauses []string
	args    []any
}

func (c *conditions) add(clause string, arg any) {
	c.clauses = append(c.clauses, clause)
	c.args = append(c.args, arg)
}

func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}

	return " WHERE " + strings.Join(c.clauses, " AND ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
