package database

import (
	"database/sql"
	"fmt"
)

// Migrations returns the schema statements for driver, one statement each.
// All statements are idempotent.
func Migrations(driver string) []string {
	id, jsonType := "SERIAL PRIMARY KEY", "JSONB"
	if driver == DriverSQLite {
		id, jsonType = "INTEGER PRIMARY KEY AUTOINCREMENT", "TEXT"
	}

	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            ` + id + `,
			phone_number  TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			wallet_cents  BIGINT NOT NULL DEFAULT 0,
			version       INTEGER NOT NULL DEFAULT 1,
			created_at    TIMESTAMP NOT NULL,
			updated_at    TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS history (
			id            ` + id + `,
			user_id       BIGINT NOT NULL REFERENCES users(id),
			type          TEXT NOT NULL,
			serial_number TEXT NOT NULL DEFAULT '',
			reference     TEXT NOT NULL DEFAULT '',
			token         TEXT NOT NULL DEFAULT '',
			amount_cents  BIGINT NOT NULL,
			status        TEXT NOT NULL,
			details       ` + jsonType + `,
			occurred_at   TIMESTAMP NOT NULL,
			version       INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_user_time ON history(user_id, occurred_at)`,
		`CREATE INDEX IF NOT EXISTS idx_history_serial ON history(user_id, serial_number)`,
	}
}

// Migrate applies the schema for driver.
func Migrate(db *sql.DB, driver string) error {
	for i, stmt := range Migrations(driver) {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
