// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the catalog records exchanged between the
// extractor boundary and the migration engine, plus configuration.
package types

// AuthorRole classifies an author entry in the source catalog.
type AuthorRole string

const (
	RoleAuthor       AuthorRole = "author"
	RoleEditor       AuthorRole = "editor"
	RoleTranslator   AuthorRole = "translator"
	RoleContributor  AuthorRole = "contributor"
	RolePhotographer AuthorRole = "photographer"
)

// Author is one ordered author entry on a publication. Order within
// Publication.Authors is significant and preserved through migration.
type Author struct {
	// Prename is the given name(s), possibly empty.
	Prename string `json:"prename" yaml:"prename"`

	// Surname is the family name. When the source record carried only a
	// single display string, the whole string lands here.
	Surname string `json:"surname" yaml:"surname"`

	// FullName is the source display name, when present.
	FullName string `json:"fullname,omitempty" yaml:"fullname,omitempty"`

	// Role is the source role code (author, editor, translator, ...).
	Role AuthorRole `json:"type" yaml:"type"`
}

// Attachment describes one file attached to a publication in the source
// catalog. Paths may be relative to the hash-bucketed library root.
type Attachment struct {
	// UUID identifies the attachment in source space. May be empty for
	// older catalogs; the fingerprint then serves as the identity.
	UUID string `json:"uuid,omitempty" yaml:"uuid,omitempty"`

	// Path is the file location, absolute or relative to the library root.
	Path string `json:"path" yaml:"path"`

	// Fingerprint is the MD5 content hash recorded by the source catalog,
	// lowercase hex. Also keys the two-level bucket layout under the
	// library root.
	Fingerprint string `json:"md5" yaml:"md5"`

	// Caption is the display label ("PDF" when the source had none).
	Caption string `json:"caption,omitempty" yaml:"caption,omitempty"`

	// MIMEType is the declared content type (default application/pdf).
	MIMEType string `json:"mime_type,omitempty" yaml:"mime_type,omitempty"`

	// Size is the byte size recorded by the source catalog, zero if unknown.
	Size int64 `json:"size,omitempty" yaml:"size,omitempty"`
}

// Publication is one immutable source record read from the catalog export.
// The engine never mutates these.
type Publication struct {
	// UUID is the stable source-space identifier, normalized to lowercase.
	UUID string `json:"uuid" yaml:"uuid"`

	// Type is the source type code (article, book, report, conference, ...).
	Type string `json:"type" yaml:"type"`

	// Subtype refines Type for some source records; informational only.
	Subtype string `json:"subtype,omitempty" yaml:"subtype,omitempty"`

	Title    string `json:"title" yaml:"title"`
	Subtitle string `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`

	// Summary and Notes both feed the abstract, summary preferred.
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`
	Notes   string `json:"notes,omitempty" yaml:"notes,omitempty"`

	// PublicationDate is the source date string: an ISO timestamp, a bare
	// year, or free text. Normalization happens in the importer.
	PublicationDate string `json:"publication_date,omitempty" yaml:"publication_date,omitempty"`

	// CreatedAt and UpdatedAt are the source record timestamps.
	CreatedAt string `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`

	DOI       string `json:"doi,omitempty" yaml:"doi,omitempty"`
	URL       string `json:"url,omitempty" yaml:"url,omitempty"`
	Volume    string `json:"volume,omitempty" yaml:"volume,omitempty"`
	Number    string `json:"number,omitempty" yaml:"number,omitempty"`
	Publisher string `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	Language  string `json:"language,omitempty" yaml:"language,omitempty"`

	// StartPage/EndPage form the page range when both are set; Pages is
	// the preformatted fallback.
	StartPage string `json:"startpage,omitempty" yaml:"startpage,omitempty"`
	EndPage   string `json:"endpage,omitempty" yaml:"endpage,omitempty"`
	Pages     string `json:"pages,omitempty" yaml:"pages,omitempty"`

	// Authors is the ordered author list.
	Authors []Author `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Keywords are plain tag strings, deduplicated per run by the importer.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`

	// Collections lists source-space collection identifiers this
	// publication is a member of.
	Collections []string `json:"collections,omitempty" yaml:"collections,omitempty"`

	// Attachments are the files to materialize under the destination root.
	Attachments []Attachment `json:"pdfs,omitempty" yaml:"pdfs,omitempty"`

	// Bundle identifies the container publication (journal, proceedings)
	// in source space, empty when the publication stands alone.
	Bundle string `json:"bundle,omitempty" yaml:"bundle,omitempty"`

	// BundleTitle is the container's display title, carried separately
	// because the container may never appear as a top-level record.
	BundleTitle string `json:"bundle_title,omitempty" yaml:"bundle_title,omitempty"`

	// Source-application state with no target field; folded into the
	// target item's extra annotation rather than dropped.
	Rating     int    `json:"rating,omitempty" yaml:"rating,omitempty"`
	ReadStatus string `json:"read_status,omitempty" yaml:"read_status,omitempty"`
	TimesCited int    `json:"times_cited,omitempty" yaml:"times_cited,omitempty"`
	Flagged    bool   `json:"flagged,omitempty" yaml:"flagged,omitempty"`
}

// Catalog is one loaded source export: every publication plus the
// flattened collection forest.
type Catalog struct {
	Publications []Publication `json:"publications" yaml:"publications"`
	Collections  []Collection  `json:"collections" yaml:"collections"`
}

// Collection is one node of the source collection forest.
type Collection struct {
	// UUID is the stable source-space identifier, normalized to lowercase.
	UUID string `json:"uuid" yaml:"uuid"`

	// Name is the display name.
	Name string `json:"name" yaml:"name"`

	// ParentUUID is empty for root collections.
	ParentUUID string `json:"parent_uuid,omitempty" yaml:"parent_uuid,omitempty"`
}
