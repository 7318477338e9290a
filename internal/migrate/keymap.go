// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package migrate implements the catalog migration engine: it remaps the
// source catalog's object graph onto the target schema inside a single
// transaction, and materializes attachment files into a human-readable
// tree with idempotent, fingerprint-gated copies.
package migrate

import (
	"fmt"
	"math/rand"
)

// keyAlphabet is the character set the target application accepts in its
// 8-character object keys. Ambiguous characters (0, 1, O) are excluded by
// the target's own validation rules.
const keyAlphabet = "23456789ABCDEFGHIJKLMNPQRSTUVWXYZ"

const keyLength = 8

// Class partitions the identifier map. Mappings for different classes are
// independent: the same source UUID may name a publication and (in a
// malformed catalog) a collection without the two colliding.
type Class int

const (
	ClassPublication Class = iota
	ClassCollection
	ClassAttachment
)

func (c Class) String() string {
	switch c {
	case ClassPublication:
		return "publication"
	case ClassCollection:
		return "collection"
	case ClassAttachment:
		return "attachment"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

type classedID struct {
	class Class
	id    string
}

// mapping is one target-space identity: the database row and its key.
type mapping struct {
	RowID int64
	Key   string
}

// KeyMap is the identifier remapper. It owns the mapping from source-space
// identifiers to freshly generated target-space identities, plus the key
// generator state. Not safe for concurrent use; the engine serializes all
// remapping within a run.
type KeyMap struct {
	entries map[classedID]mapping
	used    map[string]struct{}
	rng     *rand.Rand
}

// NewKeyMap returns an empty remapper seeded from src.
func NewKeyMap(src rand.Source) *KeyMap {
	return &KeyMap{
		entries: make(map[classedID]mapping),
		used:    make(map[string]struct{}),
		rng:     rand.New(src),
	}
}

// NewKey draws a fresh 8-character target key, unique within this run.
func (m *KeyMap) NewKey() string {
	buf := make([]byte, keyLength)
	for {
		for i := range buf {
			buf[i] = keyAlphabet[m.rng.Intn(len(keyAlphabet))]
		}
		key := string(buf)
		if _, taken := m.used[key]; !taken {
			m.used[key] = struct{}{}
			return key
		}
	}
}

// Resolve returns the target identity for (class, sourceID), invoking
// create exactly once to materialize it if no mapping exists yet. Repeated
// calls for the same pair return the stored identity unchanged, which is
// what lets container publications referenced from several records
// converge on a single target item regardless of encounter order.
func (m *KeyMap) Resolve(class Class, sourceID string, create func(key string) (int64, error)) (mapping, error) {
	k := classedID{class: class, id: sourceID}
	if entry, ok := m.entries[k]; ok {
		return entry, nil
	}

	key := m.NewKey()
	rowID, err := create(key)
	if err != nil {
		return mapping{}, err
	}
	entry := mapping{RowID: rowID, Key: key}
	m.entries[k] = entry
	return entry, nil
}

// Lookup returns the stored identity for (class, sourceID) without creating.
func (m *KeyMap) Lookup(class Class, sourceID string) (mapping, bool) {
	entry, ok := m.entries[classedID{class: class, id: sourceID}]
	return entry, ok
}

// Len reports the number of stored mappings across all classes.
func (m *KeyMap) Len() int {
	return len(m.entries)
}
