// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package migrate

import (
	"context"

	"github.com/pdiddy/refmigrate/internal/zotero"
)

// Target is the write surface of one migration run. The live
// implementation is *zotero.Tx; dry runs substitute a no-write recorder
// that produces the same report shape.
type Target interface {
	InsertCollection(ctx context.Context, name, key string, parentID int64) (int64, error)
	InsertItem(ctx context.Context, itemTypeID int, key, dateAdded, dateModified string) (int64, error)
	SetField(ctx context.Context, itemID int64, field zotero.Field, value string) error
	GetOrCreateCreator(ctx context.Context, firstName, lastName string) (int64, bool, error)
	LinkCreator(ctx context.Context, itemID, creatorID int64, creatorTypeID, orderIndex int) error
	GetOrCreateTag(ctx context.Context, name string) (int64, bool, error)
	LinkTag(ctx context.Context, itemID, tagID int64) error
	LinkCollectionItem(ctx context.Context, collectionID, itemID int64) error
	InsertAttachment(ctx context.Context, parentItemID int64, key, contentType, path string) (int64, error)

	// Commit and Rollback bound the unit of work. Rollback after Commit
	// must be a no-op so the coordinator can defer it unconditionally.
	Commit() error
	Rollback() error
}

var _ Target = (*zotero.Tx)(nil)
