package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies every embedded migration in name order. The scripts are
// idempotent, so running them on each start is safe.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")

	if err != nil {
		return err
	}

	sort.Strings(names)

	for _, name := range names {
		script, err := migrations.ReadFile(name)

		if err != nil {
			return err
		}

		// no arguments: pgx sends it over the simple protocol, so multiple statements are fine
		_, err = pool.Exec(ctx, string(script))

		if err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
	}

	return nil
}
