// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package zotero

import (
	"context"
	"database/sql"
	"fmt"
)

// Tx wraps one migration run's transaction. All writes go through it and
// become visible only on Commit; Rollback discards everything.
type Tx struct {
	tx *sql.Tx
}

// Commit makes the run's writes durable.
func (t *Tx) Commit() error {
	return t.tx.Commit()
}

// Rollback discards the run's writes. Safe to call after Commit.
func (t *Tx) Rollback() error {
	err := t.tx.Rollback()
	if err == sql.ErrTxDone {
		return nil
	}
	return err
}

// InsertCollection creates a collection row. parentID zero means a root
// collection (NULL parent).
func (t *Tx) InsertCollection(ctx context.Context, name, key string, parentID int64) (int64, error) {
	var parent sql.NullInt64
	if parentID != 0 {
		parent = sql.NullInt64{Int64: parentID, Valid: true}
	}
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO collections (collectionName, parentCollectionID, libraryID, key, version, synced)
		 VALUES (?, ?, ?, ?, 0, 0)`,
		name, parent, LibraryID, key,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting collection %q: %w", name, err)
	}
	return res.LastInsertId()
}

// InsertItem creates an item row of the given type.
func (t *Tx) InsertItem(ctx context.Context, itemTypeID int, key, dateAdded, dateModified string) (int64, error) {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO items (itemTypeID, libraryID, key, dateAdded, dateModified, version, synced)
		 VALUES (?, ?, ?, ?, ?, 0, 0)`,
		itemTypeID, LibraryID, key, dateAdded, dateModified,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting item %s: %w", key, err)
	}
	return res.LastInsertId()
}

// SetField attaches a metadata value to an item. Values are interned in
// itemDataValues and shared between items; setting a field a second time
// on the same item is a no-op.
func (t *Tx) SetField(ctx context.Context, itemID int64, field Field, value string) error {
	if value == "" {
		return nil
	}

	var valueID int64
	err := t.tx.QueryRowContext(ctx,
		`SELECT valueID FROM itemDataValues WHERE value = ?`, value,
	).Scan(&valueID)
	switch {
	case err == sql.ErrNoRows:
		res, insErr := t.tx.ExecContext(ctx,
			`INSERT INTO itemDataValues (value) VALUES (?)`, value)
		if insErr != nil {
			return fmt.Errorf("interning field value: %w", insErr)
		}
		valueID, _ = res.LastInsertId()
	case err != nil:
		return fmt.Errorf("looking up field value: %w", err)
	}

	_, err = t.tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO itemData (itemID, fieldID, valueID) VALUES (?, ?, ?)`,
		itemID, int(field), valueID,
	)
	if err != nil {
		return fmt.Errorf("setting field %d on item %d: %w", field, itemID, err)
	}
	return nil
}

// GetOrCreateCreator returns the creator row for a name, creating it if
// the store has none. Append-only stores may already hold the creator from
// an earlier run.
func (t *Tx) GetOrCreateCreator(ctx context.Context, firstName, lastName string) (int64, bool, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx,
		`SELECT creatorID FROM creators WHERE firstName = ? AND lastName = ? AND fieldMode = 0`,
		firstName, lastName,
	).Scan(&id)
	switch {
	case err == nil:
		return id, false, nil
	case err != sql.ErrNoRows:
		return 0, false, fmt.Errorf("looking up creator: %w", err)
	}

	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO creators (firstName, lastName, fieldMode) VALUES (?, ?, 0)`,
		firstName, lastName,
	)
	if err != nil {
		return 0, false, fmt.Errorf("inserting creator %s %s: %w", firstName, lastName, err)
	}
	id, _ = res.LastInsertId()
	return id, true, nil
}

// LinkCreator attaches a creator to an item at an explicit order index.
func (t *Tx) LinkCreator(ctx context.Context, itemID, creatorID int64, creatorTypeID, orderIndex int) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO itemCreators (itemID, creatorID, creatorTypeID, orderIndex)
		 VALUES (?, ?, ?, ?)`,
		itemID, creatorID, creatorTypeID, orderIndex,
	)
	if err != nil {
		return fmt.Errorf("linking creator %d to item %d: %w", creatorID, itemID, err)
	}
	return nil
}

// GetOrCreateTag returns the tag row for an exact name, creating it if absent.
func (t *Tx) GetOrCreateTag(ctx context.Context, name string) (int64, bool, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx,
		`SELECT tagID FROM tags WHERE name = ?`, name,
	).Scan(&id)
	switch {
	case err == nil:
		return id, false, nil
	case err != sql.ErrNoRows:
		return 0, false, fmt.Errorf("looking up tag: %w", err)
	}

	res, err := t.tx.ExecContext(ctx, `INSERT INTO tags (name) VALUES (?)`, name)
	if err != nil {
		return 0, false, fmt.Errorf("inserting tag %q: %w", name, err)
	}
	id, _ = res.LastInsertId()
	return id, true, nil
}

// LinkTag attaches a tag to an item. Relinking the same tag is a no-op.
func (t *Tx) LinkTag(ctx context.Context, itemID, tagID int64) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO itemTags (itemID, tagID, type) VALUES (?, ?, 0)`,
		itemID, tagID,
	)
	if err != nil {
		return fmt.Errorf("linking tag %d to item %d: %w", tagID, itemID, err)
	}
	return nil
}

// LinkCollectionItem records an item's membership in a collection.
func (t *Tx) LinkCollectionItem(ctx context.Context, collectionID, itemID int64) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO collectionItems (collectionID, itemID, orderIndex)
		 VALUES (?, ?, 0)`,
		collectionID, itemID,
	)
	if err != nil {
		return fmt.Errorf("linking item %d to collection %d: %w", itemID, collectionID, err)
	}
	return nil
}

// InsertAttachment creates an attachment child item pointing at a linked
// file. The attachment row cascades away with its parent item.
func (t *Tx) InsertAttachment(ctx context.Context, parentItemID int64, key, contentType, path string) (int64, error) {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO items (itemTypeID, libraryID, key, dateAdded, dateModified, version, synced)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP, 0, 0)`,
		AttachmentTypeID, LibraryID, key,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting attachment item %s: %w", key, err)
	}
	attachmentID, _ := res.LastInsertId()

	_, err = t.tx.ExecContext(ctx,
		`INSERT INTO itemAttachments (itemID, parentItemID, linkMode, contentType, path)
		 VALUES (?, ?, ?, ?, ?)`,
		attachmentID, parentItemID, LinkModeLinkedFile, contentType, path,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting attachment row for item %d: %w", parentItemID, err)
	}
	return attachmentID, nil
}
