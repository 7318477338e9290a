// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package migrate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/refmigrate/internal/zotero"
	"github.com/pdiddy/refmigrate/pkg/types"
)

// containerType is the source type code containers are imported under when
// they exist only as bundle references, never as top-level records.
const containerType = "periodical"

// Importer converts one source publication at a time into target rows.
// It owns the in-run creator dedupe table; tag dedupe happens at the
// store level (tags are get-or-create by exact name).
type Importer struct {
	keys *KeyMap

	// creators caches "first|last" → creator row within the run, so each
	// distinct name is looked up against the store at most once.
	creators map[string]int64

	now func() time.Time
}

// NewImporter returns an Importer sharing the run's identifier map.
func NewImporter(keys *KeyMap) *Importer {
	return &Importer{
		keys:     keys,
		creators: make(map[string]int64),
		now:      time.Now,
	}
}

// ImportPublication imports one publication's metadata: the item row, its
// scalar fields, ordered creators, tags, collection memberships, and the
// lazily created bundle container. It returns the item's row ID and the
// naming metadata attachments are filed under.
//
// A returned error means this publication failed and was not imported;
// degradations that keep the item importable (unparsable date, unknown
// collection membership) are recorded on the report instead.
func (im *Importer) ImportPublication(ctx context.Context, tx Target, pub types.Publication, rep *Report) (int64, ItemNaming, error) {
	itemTypeID, err := zotero.ItemTypeID(pub.Type)
	if err != nil {
		return 0, ItemNaming{}, err
	}

	date, dateOK := normalizeDate(pub.PublicationDate)
	if !dateOK {
		rep.Fail(pub.UUID, "unparsable date %q, item imported without a date", pub.PublicationDate)
	}

	dateAdded := pub.CreatedAt
	if dateAdded == "" {
		dateAdded = im.now().UTC().Format(time.RFC3339)
	}
	dateModified := pub.UpdatedAt
	if dateModified == "" {
		dateModified = dateAdded
	}

	// resolve-or-create: the item may already exist as a container stub if
	// another publication referenced this one as its bundle first. In that
	// case the stub is enriched rather than duplicated.
	var createdHere bool
	entry, err := im.keys.Resolve(ClassPublication, pub.UUID, func(key string) (int64, error) {
		createdHere = true
		return tx.InsertItem(ctx, itemTypeID, key, dateAdded, dateModified)
	})
	if err != nil {
		return 0, ItemNaming{}, fmt.Errorf("creating item: %w", err)
	}
	itemID := entry.RowID
	if createdHere {
		rep.Items++
	}

	if err := im.setScalarFields(ctx, tx, itemID, pub, date); err != nil {
		return 0, ItemNaming{}, err
	}
	if err := im.linkCreators(ctx, tx, itemID, pub.Authors, rep); err != nil {
		return 0, ItemNaming{}, err
	}
	if err := im.linkTags(ctx, tx, itemID, pub, rep); err != nil {
		return 0, ItemNaming{}, err
	}
	im.linkCollections(ctx, tx, itemID, pub, rep)

	if pub.Bundle != "" {
		if err := im.resolveBundle(ctx, tx, itemID, pub, rep); err != nil {
			return 0, ItemNaming{}, err
		}
	}

	return itemID, ItemNaming{
		Title:   pub.Title,
		Surname: primarySurname(pub.Authors),
		Year:    yearOf(date),
	}, nil
}

func (im *Importer) setScalarFields(ctx context.Context, tx Target, itemID int64, pub types.Publication, date string) error {
	abstract := pub.Summary
	if abstract == "" {
		abstract = pub.Notes
	}

	pages := pub.Pages
	if pub.StartPage != "" && pub.EndPage != "" {
		pages = pub.StartPage + "-" + pub.EndPage
	}

	fields := []struct {
		field zotero.Field
		value string
	}{
		{zotero.FieldTitle, pub.Title},
		{zotero.FieldShortTitle, pub.Subtitle},
		{zotero.FieldAbstract, abstract},
		{zotero.FieldDate, date},
		{zotero.FieldDOI, pub.DOI},
		{zotero.FieldURL, pub.URL},
		{zotero.FieldVolume, pub.Volume},
		{zotero.FieldIssue, pub.Number},
		{zotero.FieldPublisher, pub.Publisher},
		{zotero.FieldLanguage, pub.Language},
		{zotero.FieldPages, pages},
		{zotero.FieldExtra, extraAnnotation(pub)},
	}
	for _, f := range fields {
		if err := tx.SetField(ctx, itemID, f.field, f.value); err != nil {
			return err
		}
	}
	return nil
}

func (im *Importer) linkCreators(ctx context.Context, tx Target, itemID int64, authors []types.Author, rep *Report) error {
	for idx, author := range authors {
		first, last := splitName(author)
		if first == "" && last == "" {
			continue
		}

		key := first + "|" + last
		creatorID, cached := im.creators[key]
		if !cached {
			id, created, err := tx.GetOrCreateCreator(ctx, first, last)
			if err != nil {
				return err
			}
			creatorID = id
			im.creators[key] = id
			if created {
				rep.Creators++
			}
		}

		if err := tx.LinkCreator(ctx, itemID, creatorID, zotero.CreatorTypeID(author.Role), idx); err != nil {
			return err
		}
	}
	return nil
}

func (im *Importer) linkTags(ctx context.Context, tx Target, itemID int64, pub types.Publication, rep *Report) error {
	names := make([]string, 0, len(pub.Keywords)+1)
	names = append(names, pub.Keywords...)
	if pub.Flagged {
		names = append(names, "Flagged")
	}

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		tagID, created, err := tx.GetOrCreateTag(ctx, name)
		if err != nil {
			return err
		}
		if created {
			rep.Tags++
		}
		if err := tx.LinkTag(ctx, itemID, tagID); err != nil {
			return err
		}
	}
	return nil
}

// linkCollections records collection memberships. The hierarchy builder
// runs before any publication, so every valid membership resolves through
// the identifier map; references to collections the catalog never declared
// are recorded and skipped.
func (im *Importer) linkCollections(ctx context.Context, tx Target, itemID int64, pub types.Publication, rep *Report) {
	for _, collUUID := range pub.Collections {
		entry, ok := im.keys.Lookup(ClassCollection, collUUID)
		if !ok {
			rep.Fail(pub.UUID, "membership in unknown collection %s skipped", collUUID)
			continue
		}
		if err := tx.LinkCollectionItem(ctx, entry.RowID, itemID); err != nil {
			rep.Fail(pub.UUID, "linking collection %s: %v", collUUID, err)
		}
	}
}

// resolveBundle lazily creates the container item the publication belongs
// to and records the container's title on the publication itself. Because
// the container goes through the same resolve-or-create path as any other
// publication, any number of references converge on one target item.
func (im *Importer) resolveBundle(ctx context.Context, tx Target, itemID int64, pub types.Publication, rep *Report) error {
	now := im.now().UTC().Format(time.RFC3339)
	_, err := im.keys.Resolve(ClassPublication, pub.Bundle, func(key string) (int64, error) {
		typeID, err := zotero.ItemTypeID(containerType)
		if err != nil {
			return 0, err
		}
		containerID, err := tx.InsertItem(ctx, typeID, key, now, now)
		if err != nil {
			return 0, err
		}
		if err := tx.SetField(ctx, containerID, zotero.FieldTitle, pub.BundleTitle); err != nil {
			return 0, err
		}
		if err := tx.SetField(ctx, containerID, zotero.FieldExtra, "Papers3 UUID: "+pub.Bundle); err != nil {
			return 0, err
		}
		rep.Items++
		return containerID, nil
	})
	if err != nil {
		return fmt.Errorf("resolving bundle container %s: %w", pub.Bundle, err)
	}

	return tx.SetField(ctx, itemID, zotero.FieldPublicationTitle, pub.BundleTitle)
}

// ImportAttachments materializes the publication's files and records
// attachment rows for those present on disk. File-level problems never
// fail the publication: metadata import and file copying are independent.
func (im *Importer) ImportAttachments(ctx context.Context, tx Target, mat *Materializer, pub types.Publication, itemID int64, naming ItemNaming, rep *Report) error {
	for _, att := range pub.Attachments {
		if att.Path == "" {
			continue
		}

		destPath, status, err := mat.Materialize(att.Path, strings.ToLower(att.Fingerprint), naming)
		if err != nil {
			rep.Fail(pub.UUID, "attachment %s: %v", att.Path, err)
			continue
		}

		switch status {
		case FileMissing:
			rep.FilesMissing++
			rep.Fail(pub.UUID, "attachment file missing: %s", att.Path)
			continue
		case FileCopied:
			rep.FilesCopied++
		case FileSkipped:
			rep.FilesSkipped++
		}

		contentType := att.MIMEType
		if contentType == "" {
			contentType = "application/pdf"
		}
		caption := att.Caption
		if caption == "" {
			caption = "PDF"
		}

		identity := att.UUID
		if identity == "" {
			identity = att.Fingerprint
		}
		if identity == "" {
			identity = att.Path
		}

		var created bool
		entry, err := im.keys.Resolve(ClassAttachment, identity, func(key string) (int64, error) {
			created = true
			return tx.InsertAttachment(ctx, itemID, key, contentType, destPath)
		})
		if err != nil {
			rep.Fail(pub.UUID, "attachment row for %s: %v", att.Path, err)
			continue
		}
		if !created {
			continue // same file listed twice on the record
		}
		if err := tx.SetField(ctx, entry.RowID, zotero.FieldTitle, caption); err != nil {
			rep.Fail(pub.UUID, "attachment title for %s: %v", att.Path, err)
		}
		rep.Attachments++
	}
	return nil
}

// normalizeDate reduces the source's date representations to a calendar
// date (YYYY-MM-DD) or a bare year. Empty input is valid emptiness; input
// that parses as nothing known degrades to the empty sentinel with ok=false
// so the caller can record the loss.
func normalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}

	if strings.Contains(s, "T") {
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format("2006-01-02"), true
			}
		}
		return "", false
	}

	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04:05", "2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(layout[:min(len(layout), 10)]), true
		}
	}
	return "", false
}

// yearOf extracts the four-digit year from a normalized date, or "".
func yearOf(date string) string {
	if len(date) >= 4 {
		year := date[:4]
		for _, r := range year {
			if r < '0' || r > '9' {
				return ""
			}
		}
		return year
	}
	return ""
}

// splitName reduces an author entry to the (first, last) pair the target
// schema stores. Records that carry only a display string are split on the
// "Last, First" convention the source application used.
func splitName(a types.Author) (first, last string) {
	if a.Surname != "" {
		return a.Prename, a.Surname
	}
	if a.FullName == "" {
		return "", ""
	}
	if i := strings.Index(a.FullName, ", "); i >= 0 {
		return a.FullName[i+2:], a.FullName[:i]
	}
	return "", a.FullName
}

// primarySurname names the directory level attachments are filed under.
func primarySurname(authors []types.Author) string {
	if len(authors) == 0 {
		return ""
	}
	_, last := splitName(authors[0])
	return last
}

// extraAnnotation folds source-application state with no target field into
// one free-text block, so nothing is dropped.
func extraAnnotation(pub types.Publication) string {
	var parts []string
	if pub.Rating > 0 {
		parts = append(parts, fmt.Sprintf("Rating: %d/5", pub.Rating))
	}
	if pub.ReadStatus != "" {
		parts = append(parts, "Read Status: "+pub.ReadStatus)
	}
	if pub.TimesCited > 0 {
		parts = append(parts, fmt.Sprintf("Times Cited: %d", pub.TimesCited))
	}
	parts = append(parts, "Papers3 UUID: "+pub.UUID)
	return strings.Join(parts, "\n")
}
