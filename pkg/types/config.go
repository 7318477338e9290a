// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// CatalogConfig locates the source catalog export.
type CatalogConfig struct {
	// CatalogDir is the directory holding the catalog JSON exports
	// (publications and collections files).
	CatalogDir string `json:"catalog_dir" yaml:"catalog_dir"`
}

// TargetConfig locates the target reference-manager store.
type TargetConfig struct {
	// DatabasePath is the target SQLite database file.
	DatabasePath string `json:"database_path" yaml:"database_path"`

	// EnsureSchema creates the minimal target schema when the database
	// is new. Leave false when migrating into an existing library.
	EnsureSchema bool `json:"ensure_schema" yaml:"ensure_schema"`
}

// FilesConfig configures attachment materialization.
type FilesConfig struct {
	// LibraryRoot is the source file tree, bucketed by the first two hex
	// characters of each file's fingerprint.
	LibraryRoot string `json:"library_root" yaml:"library_root"`

	// DestDir is the destination root for the reorganized tree.
	DestDir string `json:"dest_dir" yaml:"dest_dir"`

	// MissingLog is the path of the line-oriented missing-file log.
	// Empty disables the log file.
	MissingLog string `json:"missing_log,omitempty" yaml:"missing_log,omitempty"`
}

// MigrationConfig holds the per-run operational switches.
type MigrationConfig struct {
	// DryRun resolves everything but writes nothing, to the database or
	// the filesystem.
	DryRun bool `json:"dry_run" yaml:"dry_run"`

	// Limit caps the number of publications processed; zero means all.
	Limit int `json:"limit" yaml:"limit"`

	// SkipAttachments imports metadata only and never touches files.
	SkipAttachments bool `json:"skip_attachments" yaml:"skip_attachments"`

	// FailFast aborts (and rolls back) the whole run on the first
	// per-publication failure instead of collecting and continuing.
	FailFast bool `json:"fail_fast" yaml:"fail_fast"`

	// ReportPath is where the run report YAML is written. Empty disables
	// the export.
	ReportPath string `json:"report_path,omitempty" yaml:"report_path,omitempty"`
}

// Config groups all stage configurations for the migrator.
type Config struct {
	Catalog   CatalogConfig   `json:"catalog" yaml:"catalog"`
	Target    TargetConfig    `json:"target" yaml:"target"`
	Files     FilesConfig     `json:"files" yaml:"files"`
	Migration MigrationConfig `json:"migration" yaml:"migration"`
}
