// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog reads the source application's JSON catalog exports and
// normalizes them into the record types the migration engine consumes.
// The exports are tolerant-format: several fields appear either as objects
// or as bare strings depending on the exporter version, so all shape
// handling lives here, at the boundary.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/pdiddy/refmigrate/pkg/types"
)

const (
	publicationsFullFile = "papers3_publications_full.json"
	publicationsFile     = "papers3_publications.json"
	collectionsFile      = "papers3_collections.json"
)

// Load reads the catalog exports from dir. The full publications export is
// preferred over the plain one; a missing collections file yields an empty
// forest, but a missing publications file is an error.
func Load(dir string) (*types.Catalog, error) {
	pubPath := filepath.Join(dir, publicationsFullFile)
	if _, err := os.Stat(pubPath); err != nil {
		pubPath = filepath.Join(dir, publicationsFile)
	}

	pubs, err := loadPublications(pubPath)
	if err != nil {
		return nil, err
	}

	var collections []types.Collection
	collPath := filepath.Join(dir, collectionsFile)
	if _, err := os.Stat(collPath); err == nil {
		collections, err = loadCollections(collPath)
		if err != nil {
			return nil, err
		}
	}

	return &types.Catalog{Publications: pubs, Collections: collections}, nil
}

// rawPublication is the on-disk shape. Fields whose representation varies
// between exporter versions are deferred to RawMessage and normalized below.
type rawPublication struct {
	UUID            string          `json:"uuid"`
	Type            string          `json:"type"`
	Subtype         string          `json:"subtype"`
	Title           string          `json:"title"`
	Subtitle        string          `json:"subtitle"`
	Summary         string          `json:"summary"`
	Notes           string          `json:"notes"`
	PublicationDate string          `json:"publication_date"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
	DOI             string          `json:"doi"`
	URL             string          `json:"url"`
	Volume          string          `json:"volume"`
	Number          string          `json:"number"`
	Publisher       string          `json:"publisher"`
	Language        string          `json:"language"`
	StartPage       string          `json:"startpage"`
	EndPage         string          `json:"endpage"`
	Pages           string          `json:"pages"`
	Authors         []rawAuthor     `json:"authors"`
	Keywords        []rawKeyword    `json:"keywords"`
	Collections     []rawMembership `json:"collections"`
	PDFs            []rawPDF        `json:"pdfs"`
	Bundle          string          `json:"bundle"`
	BundleDetails   *rawBundle      `json:"bundle_details"`
	Rating          int             `json:"rating"`
	ReadStatus      string          `json:"read_status"`
	TimesCited      int             `json:"times_cited"`
	Flagged         bool            `json:"flagged"`
}

type rawBundle struct {
	Title string `json:"title"`
}

// rawAuthor accepts either an object with prename/surname/type or a bare
// "Surname, Prename" string.
type rawAuthor struct {
	types.Author
}

func (a *rawAuthor) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		a.Author = types.Author{FullName: s, Role: types.RoleAuthor}
		return nil
	}
	var obj struct {
		Prename  string `json:"prename"`
		Surname  string `json:"surname"`
		FullName string `json:"fullname"`
		Type     string `json:"type"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	role := types.AuthorRole(obj.Type)
	if role == "" {
		role = types.RoleAuthor
	}
	a.Author = types.Author{
		Prename:  obj.Prename,
		Surname:  obj.Surname,
		FullName: obj.FullName,
		Role:     role,
	}
	return nil
}

// rawKeyword accepts {"name": ...} or a bare string.
type rawKeyword struct {
	Name string
}

func (k *rawKeyword) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &k.Name)
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	k.Name = obj.Name
	return nil
}

// rawMembership accepts {"collection_uuid": ...} or a bare UUID string.
type rawMembership struct {
	UUID string
}

func (m *rawMembership) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &m.UUID)
	}
	var obj struct {
		CollectionUUID string `json:"collection_uuid"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	m.UUID = obj.CollectionUUID
	return nil
}

type rawPDF struct {
	UUID         string `json:"uuid"`
	Path         string `json:"path"`
	OriginalPath string `json:"original_path"`
	Fingerprint  string `json:"fingerprint"`
	MD5          string `json:"md5"`
	Caption      string `json:"caption"`
	MIMEType     string `json:"mime_type"`
	Size         int64  `json:"size"`
}

func loadPublications(path string) ([]types.Publication, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading publications export: %w", err)
	}

	var export struct {
		Publications []rawPublication `json:"publications"`
	}
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}

	pubs := make([]types.Publication, 0, len(export.Publications))
	for i, raw := range export.Publications {
		pub, err := normalizePublication(raw)
		if err != nil {
			return nil, fmt.Errorf("publication %d (%q): %w", i, raw.Title, err)
		}
		pubs = append(pubs, pub)
	}
	return pubs, nil
}

func normalizePublication(raw rawPublication) (types.Publication, error) {
	id, err := normalizeUUID(raw.UUID)
	if err != nil {
		return types.Publication{}, err
	}

	pub := types.Publication{
		UUID:            id,
		Type:            strings.ToLower(strings.TrimSpace(raw.Type)),
		Subtype:         raw.Subtype,
		Title:           raw.Title,
		Subtitle:        raw.Subtitle,
		Summary:         raw.Summary,
		Notes:           raw.Notes,
		PublicationDate: raw.PublicationDate,
		CreatedAt:       raw.CreatedAt,
		UpdatedAt:       raw.UpdatedAt,
		DOI:             raw.DOI,
		URL:             raw.URL,
		Volume:          raw.Volume,
		Number:          raw.Number,
		Publisher:       raw.Publisher,
		Language:        raw.Language,
		StartPage:       raw.StartPage,
		EndPage:         raw.EndPage,
		Pages:           raw.Pages,
		Rating:          raw.Rating,
		ReadStatus:      raw.ReadStatus,
		TimesCited:      raw.TimesCited,
		Flagged:         raw.Flagged,
	}

	for _, a := range raw.Authors {
		pub.Authors = append(pub.Authors, a.Author)
	}
	for _, k := range raw.Keywords {
		if k.Name != "" {
			pub.Keywords = append(pub.Keywords, k.Name)
		}
	}
	for _, m := range raw.Collections {
		if m.UUID == "" {
			continue
		}
		if id, err := uuid.Parse(strings.TrimSpace(m.UUID)); err == nil {
			pub.Collections = append(pub.Collections, id.String())
		} else {
			pub.Collections = append(pub.Collections, strings.ToLower(m.UUID))
		}
	}
	for _, p := range raw.PDFs {
		path := p.Path
		if path == "" {
			path = p.OriginalPath
		}
		if path == "" {
			continue
		}
		fingerprint := p.MD5
		if fingerprint == "" {
			fingerprint = p.Fingerprint
		}
		pub.Attachments = append(pub.Attachments, types.Attachment{
			UUID:        strings.ToLower(p.UUID),
			Path:        path,
			Fingerprint: strings.ToLower(fingerprint),
			Caption:     p.Caption,
			MIMEType:    p.MIMEType,
			Size:        p.Size,
		})
	}

	if raw.Bundle != "" {
		// Bundle references occasionally point outside the export; keep
		// them resolvable rather than failing the record.
		if id, err := uuid.Parse(strings.TrimSpace(raw.Bundle)); err == nil {
			pub.Bundle = id.String()
		} else {
			pub.Bundle = strings.ToLower(strings.TrimSpace(raw.Bundle))
		}
		if raw.BundleDetails != nil {
			pub.BundleTitle = raw.BundleDetails.Title
		}
	}
	return pub, nil
}

// rawCollection mirrors the export's nested tree; the engine wants the
// flat parent-pointer form.
type rawCollection struct {
	UUID     string          `json:"uuid"`
	Name     string          `json:"name"`
	Children []rawCollection `json:"children"`
}

func loadCollections(path string) ([]types.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading collections export: %w", err)
	}

	var export struct {
		Collections []rawCollection `json:"collections"`
	}
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}

	var flat []types.Collection
	var walk func(c rawCollection, parent string) error
	walk = func(c rawCollection, parent string) error {
		id, err := normalizeUUID(c.UUID)
		if err != nil {
			return fmt.Errorf("collection %q: %w", c.Name, err)
		}
		flat = append(flat, types.Collection{
			UUID:       id,
			Name:       c.Name,
			ParentUUID: parent,
		})
		for _, child := range c.Children {
			if err := walk(child, id); err != nil {
				return err
			}
		}
		return nil
	}
	for _, root := range export.Collections {
		if err := walk(root, ""); err != nil {
			return nil, err
		}
	}
	return flat, nil
}

// normalizeUUID validates a source identifier and reduces it to the
// canonical lowercase form, so map lookups never miss on case.
func normalizeUUID(s string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("malformed identifier %q: %w", s, err)
	}
	return id.String(), nil
}
