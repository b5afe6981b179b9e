package vstore_pg

import (
	"database/sql"
	"fmt"

	migrate "github.com/rubenv/sql-migrate"
)

// Migrate creates the backing table for a PostgresStore of the given name,
// including the uniqueness constraint on the natural key and the index
// backing the keyset ordering.
func Migrate(db *sql.DB, table string) error {
	source := &migrate.MemoryMigrationSource{
		Migrations: []*migrate.Migration{
			{
				Id: "001_create_" + table,
				Up: []string{
					fmt.Sprintf(`
						CREATE TABLE IF NOT EXISTS %[1]q (
							"id"          text    NOT NULL PRIMARY KEY,
							"version"     integer NOT NULL,
							"sort_ts"     bigint  NOT NULL,
							"natural_key" text    NOT NULL UNIQUE,
							"fields"      jsonb   NOT NULL
						)`, table),
					fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %q ON %q ("sort_ts" DESC, "id" DESC)`, table+"_page_idx", table),
				},
				Down: []string{
					fmt.Sprintf(`DROP TABLE %q`, table),
				},
			},
		},
	}

	if _, err := migrate.Exec(db, "postgres", source, migrate.Up); err != nil {
		return fmt.Errorf("migrate table %q: %w", table, err)
	}

	return nil
}
