// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package zotero provides access to the target reference-manager SQLite
// database: schema verification, schema creation for fresh stores, and a
// transaction wrapper with the row-level writes the migration engine needs.
package zotero

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// requiredTables are the target tables the engine writes. A store missing
// any of them is structurally unusable and the run must not start.
var requiredTables = []string{
	"items",
	"itemData",
	"itemDataValues",
	"creators",
	"itemCreators",
	"tags",
	"itemTags",
	"collections",
	"collectionItems",
	"itemAttachments",
}

// Store manages the target SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens the target database with foreign keys enforced.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening target database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Verify checks that every table the engine writes exists. A missing table
// is reported as a single error naming all absent tables.
func (s *Store) Verify(ctx context.Context) error {
	var missing []string
	for _, table := range requiredTables {
		var n int
		err := s.db.QueryRowContext(ctx,
			`SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?`, table,
		).Scan(&n)
		if err != nil {
			return fmt.Errorf("checking table %s: %w", table, err)
		}
		if n == 0 {
			missing = append(missing, table)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("target schema missing table(s): %s", strings.Join(missing, ", "))
	}
	return nil
}

// Ensure creates the minimal target schema when the database is new.
// Existing tables are left untouched.
func (s *Store) Ensure(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS items (
			itemID INTEGER PRIMARY KEY AUTOINCREMENT,
			itemTypeID INTEGER NOT NULL,
			libraryID INTEGER NOT NULL DEFAULT 1,
			key TEXT NOT NULL UNIQUE,
			dateAdded TEXT,
			dateModified TEXT,
			version INTEGER NOT NULL DEFAULT 0,
			synced INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS itemDataValues (
			valueID INTEGER PRIMARY KEY AUTOINCREMENT,
			value TEXT UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS itemData (
			itemID INTEGER NOT NULL REFERENCES items(itemID) ON DELETE CASCADE,
			fieldID INTEGER NOT NULL,
			valueID INTEGER NOT NULL REFERENCES itemDataValues(valueID),
			PRIMARY KEY (itemID, fieldID)
		)`,
		`CREATE TABLE IF NOT EXISTS creators (
			creatorID INTEGER PRIMARY KEY AUTOINCREMENT,
			firstName TEXT,
			lastName TEXT,
			fieldMode INTEGER NOT NULL DEFAULT 0,
			UNIQUE (firstName, lastName, fieldMode)
		)`,
		`CREATE TABLE IF NOT EXISTS itemCreators (
			itemID INTEGER NOT NULL REFERENCES items(itemID) ON DELETE CASCADE,
			creatorID INTEGER NOT NULL REFERENCES creators(creatorID),
			creatorTypeID INTEGER NOT NULL,
			orderIndex INTEGER NOT NULL,
			PRIMARY KEY (itemID, orderIndex)
		)`,
		`CREATE TABLE IF NOT EXISTS tags (
			tagID INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS itemTags (
			itemID INTEGER NOT NULL REFERENCES items(itemID) ON DELETE CASCADE,
			tagID INTEGER NOT NULL REFERENCES tags(tagID),
			type INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (itemID, tagID)
		)`,
		`CREATE TABLE IF NOT EXISTS collections (
			collectionID INTEGER PRIMARY KEY AUTOINCREMENT,
			collectionName TEXT NOT NULL,
			parentCollectionID INTEGER REFERENCES collections(collectionID),
			libraryID INTEGER NOT NULL DEFAULT 1,
			key TEXT NOT NULL UNIQUE,
			version INTEGER NOT NULL DEFAULT 0,
			synced INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS collectionItems (
			collectionID INTEGER NOT NULL REFERENCES collections(collectionID) ON DELETE CASCADE,
			itemID INTEGER NOT NULL REFERENCES items(itemID) ON DELETE CASCADE,
			orderIndex INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (collectionID, itemID)
		)`,
		`CREATE TABLE IF NOT EXISTS itemAttachments (
			itemID INTEGER PRIMARY KEY REFERENCES items(itemID) ON DELETE CASCADE,
			parentItemID INTEGER REFERENCES items(itemID) ON DELETE CASCADE,
			linkMode INTEGER,
			contentType TEXT,
			path TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Begin opens the single transaction a migration run writes through.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// DB exposes the underlying handle for read-only verification queries.
func (s *Store) DB() *sql.DB {
	return s.db
}
