// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package migrate

import (
	"context"

	"github.com/pdiddy/refmigrate/internal/zotero"
)

// dryTarget satisfies Target without touching any database. Row IDs are
// allocated sequentially so that reference wiring (parents, memberships)
// exercises the same code paths as a live run.
type dryTarget struct {
	nextID   int64
	tags     map[string]int64
	creators map[string]int64
}

// NewDryTarget returns a Target that records nothing and writes nothing.
func NewDryTarget() Target {
	return &dryTarget{
		tags:     make(map[string]int64),
		creators: make(map[string]int64),
	}
}

func (d *dryTarget) alloc() int64 {
	d.nextID++
	return d.nextID
}

func (d *dryTarget) InsertCollection(_ context.Context, _, _ string, _ int64) (int64, error) {
	return d.alloc(), nil
}

func (d *dryTarget) InsertItem(_ context.Context, _ int, _, _, _ string) (int64, error) {
	return d.alloc(), nil
}

func (d *dryTarget) SetField(_ context.Context, _ int64, _ zotero.Field, _ string) error {
	return nil
}

func (d *dryTarget) GetOrCreateCreator(_ context.Context, firstName, lastName string) (int64, bool, error) {
	key := firstName + "|" + lastName
	if id, ok := d.creators[key]; ok {
		return id, false, nil
	}
	id := d.alloc()
	d.creators[key] = id
	return id, true, nil
}

func (d *dryTarget) LinkCreator(_ context.Context, _, _ int64, _, _ int) error {
	return nil
}

func (d *dryTarget) GetOrCreateTag(_ context.Context, name string) (int64, bool, error) {
	if id, ok := d.tags[name]; ok {
		return id, false, nil
	}
	id := d.alloc()
	d.tags[name] = id
	return id, true, nil
}

func (d *dryTarget) LinkTag(_ context.Context, _, _ int64) error {
	return nil
}

func (d *dryTarget) LinkCollectionItem(_ context.Context, _, _ int64) error {
	return nil
}

func (d *dryTarget) InsertAttachment(_ context.Context, _ int64, _, _, _ string) (int64, error) {
	return d.alloc(), nil
}

func (d *dryTarget) Commit() error   { return nil }
func (d *dryTarget) Rollback() error { return nil }
