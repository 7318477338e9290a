// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package zotero

import (
	"fmt"

	"github.com/pdiddy/refmigrate/pkg/types"
)

// Numeric identifiers are fixed by the target application's bundled schema;
// they are constants of the wire format, not of this program.

// LibraryID is the default local library every migrated row belongs to.
const LibraryID = 1

// AttachmentTypeID is the item type of attachment child items.
const AttachmentTypeID = 3

// LinkModeLinkedFile marks an attachment row as pointing at a file outside
// the target application's own storage directory.
const LinkModeLinkedFile = 2

// itemTypeIDs maps source publication type codes to target item types.
// The table is total over the codes the source application can emit;
// anything else is an import error, never a silent default.
var itemTypeIDs = map[string]int{
	"article":    22, // journalArticle
	"periodical": 22, // containers import as journalArticle
	"book":       7,
	"report":     34,
	"patent":     29,
	"media":      14, // document
	"conference": 11, // conferencePaper
	"website":    40, // webpage
	"manual":     14, // document
	"thesis":     37,
}

// ItemTypeID resolves a source type code to a target item type ID.
func ItemTypeID(code string) (int, error) {
	id, ok := itemTypeIDs[code]
	if !ok {
		return 0, fmt.Errorf("unmapped publication type %q", code)
	}
	return id, nil
}

// Field identifies a target metadata field by its schema ID.
type Field int

const (
	FieldTitle            Field = 1
	FieldAbstract         Field = 2
	FieldPublicationTitle Field = 5
	FieldDate             Field = 6
	FieldPlace            Field = 7
	FieldURL              Field = 13
	FieldExtra            Field = 16
	FieldVolume           Field = 19
	FieldPublisher        Field = 20
	FieldPages            Field = 32
	FieldDOI              Field = 59
	FieldAccessDate       Field = 65
	FieldISBN             Field = 69
	FieldISSN             Field = 71
	FieldIssue            Field = 76
	FieldLanguage         Field = 78
	FieldShortTitle       Field = 115
)

// creatorTypeIDs maps source author roles to target creator types.
var creatorTypeIDs = map[types.AuthorRole]int{
	types.RoleAuthor:      8,
	types.RoleEditor:      10,
	types.RoleTranslator:  11,
	types.RoleContributor: 2,
}

// CreatorTypeID resolves a source role to a target creator type. Roles the
// target has no equivalent for (photographer, and anything unrecognized)
// fall back to plain author.
func CreatorTypeID(role types.AuthorRole) int {
	if id, ok := creatorTypeIDs[role]; ok {
		return id
	}
	return creatorTypeIDs[types.RoleAuthor]
}
