package vstore_sqlite

import (
	"database/sql"
	"fmt"

	migrate "github.com/rubenv/sql-migrate"
)

// Migrate creates the backing table for a SqliteStore of the given name.
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
							"sort_ts"     integer NOT NULL,
							"natural_key" text    NOT NULL UNIQUE,
							"fields"      JSON    NOT NULL
						)`, table),
					fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %q ON %q ("sort_ts" DESC, "id" DESC)`, table+"_page_idx", table),
				},
				Down: []string{
					fmt.Sprintf(`DROP TABLE %q`, table),
				},
			},
		},
	}

	if _, err := migrate.Exec(db, "sqlite3", source, migrate.Up); err != nil {
		return fmt.Errorf("migrate table %q: %w", table, err)
	}

	return nil
}
