package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS stores (
		store_id TEXT PRIMARY KEY,
		store_name TEXT NOT NULL,
		city TEXT NOT NULL,
		state TEXT NOT NULL,
		region TEXT NOT NULL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		sku TEXT PRIMARY KEY,
		style_id TEXT NOT NULL,
		product_name TEXT NOT NULL,
		category TEXT NOT NULL,
		subcategory TEXT NOT NULL,
		color TEXT NOT NULL,
		size TEXT NOT NULL,
		season TEXT NOT NULL,
		unit_price REAL NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS inventory (
		store_id TEXT NOT NULL REFERENCES stores(store_id),
		sku TEXT NOT NULL REFERENCES products(sku),
		on_hand INTEGER NOT NULL CHECK (on_hand >= 0),
		reserved INTEGER NOT NULL CHECK (reserved >= 0),
		reorder_point INTEGER NOT NULL,
		last_updated TEXT NOT NULL,
		PRIMARY KEY (store_id, sku)
	)`,
	`CREATE TABLE IF NOT EXISTS tickets (
		ticket_id TEXT PRIMARY KEY,
		opened_date TEXT NOT NULL,
		store_id TEXT NOT NULL REFERENCES stores(store_id),
		category TEXT NOT NULL,
		summary TEXT NOT NULL,
		severity TEXT NOT NULL,
		status TEXT NOT NULL,
		channel TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS transfers (
		transfer_id INTEGER PRIMARY KEY AUTOINCREMENT,
		from_store TEXT NOT NULL REFERENCES stores(store_id),
		to_store TEXT NOT NULL REFERENCES stores(store_id),
		sku TEXT NOT NULL REFERENCES products(sku),
		qty INTEGER NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		created_by_role TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS inbound_transfers (
		inbound_id INTEGER PRIMARY KEY AUTOINCREMENT,
		transfer_id INTEGER NOT NULL REFERENCES transfers(transfer_id),
		store_id TEXT NOT NULL REFERENCES stores(store_id),
		sku TEXT NOT NULL REFERENCES products(sku),
		qty INTEGER NOT NULL,
		expected_date TEXT NOT NULL,
		status TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		role TEXT NOT NULL,
		payload_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS confirm_tokens (
		token TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		payload_json TEXT NOT NULL,
		expires_at TEXT NOT NULL,
		used INTEGER NOT NULL DEFAULT 0
	)`,
}

var sqliteDialect = dialect{
	name:   "sqlite",
	schema: sqliteSchema,
	// SQLite has a single writer; the one pooled connection serializes units of work.
	lockSuffix: "",
	isDuplicate: func(err error) bool {
		var se sqlite3.Error
		if !errors.As(err, &se) {
			return false
		}
		return se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || se.ExtendedCode == sqlite3.ErrConstraintUnique
	},
}

// OpenSQLite opens (or creates) a database file. ":memory:" gives a private
// in-memory database that lives as long as the store.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// One connection: SQLite allows one writer, and an in-memory database
	// exists per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	s := newSQLStore(db, sqliteDialect)
	if err := s.applySchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}
