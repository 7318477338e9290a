// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package migrate

import (
	"fmt"
	"io"
	"os"

	"go.yaml.in/yaml/v3"
)

// Failure records one recoverable error: the source identifier of the
// record that failed and why.
type Failure struct {
	SourceID string `json:"source_id" yaml:"source_id"`
	Reason   string `json:"reason" yaml:"reason"`
}

// Report accumulates the counts and failures of one migration run. It is
// produced whether the run commits or rolls back, and is read-only after
// the run ends.
type Report struct {
	RunID string `json:"run_id" yaml:"run_id"`

	Collections int `json:"collections" yaml:"collections"`
	Items       int `json:"items" yaml:"items"`
	Creators    int `json:"creators" yaml:"creators"`
	Tags        int `json:"tags" yaml:"tags"`
	Attachments int `json:"attachments" yaml:"attachments"`

	FilesCopied  int `json:"files_copied" yaml:"files_copied"`
	FilesSkipped int `json:"files_skipped" yaml:"files_skipped"`
	FilesMissing int `json:"files_missing" yaml:"files_missing"`

	// DryRun marks reports produced without any writes.
	DryRun bool `json:"dry_run" yaml:"dry_run"`

	// Committed reports whether the database transaction was committed.
	Committed bool `json:"committed" yaml:"committed"`

	Failures []Failure `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// Fail appends one recoverable failure.
func (r *Report) Fail(sourceID, format string, args ...any) {
	r.Failures = append(r.Failures, Failure{
		SourceID: sourceID,
		Reason:   fmt.Sprintf(format, args...),
	})
}

// HasFailures reports whether any recoverable failure was recorded.
func (r *Report) HasFailures() bool {
	return len(r.Failures) > 0
}

// Summary prints the end-of-run block.
func (r *Report) Summary(w io.Writer) {
	fmt.Fprintf(w, "\n=== Migration summary ===\n")
	if r.DryRun {
		fmt.Fprintln(w, "mode: dry run, nothing written")
	} else if r.Committed {
		fmt.Fprintln(w, "mode: committed")
	} else {
		fmt.Fprintln(w, "mode: rolled back")
	}
	fmt.Fprintf(w, "collections: %d\n", r.Collections)
	fmt.Fprintf(w, "items:       %d\n", r.Items)
	fmt.Fprintf(w, "creators:    %d\n", r.Creators)
	fmt.Fprintf(w, "tags:        %d\n", r.Tags)
	fmt.Fprintf(w, "attachments: %d\n", r.Attachments)
	fmt.Fprintf(w, "files: %d copied, %d skipped, %d missing\n",
		r.FilesCopied, r.FilesSkipped, r.FilesMissing)
	fmt.Fprintf(w, "failures:    %d\n", len(r.Failures))

	const maxShown = 10
	for i, f := range r.Failures {
		if i == maxShown {
			fmt.Fprintf(w, "  ... and %d more\n", len(r.Failures)-maxShown)
			break
		}
		fmt.Fprintf(w, "  %s: %s\n", f.SourceID, f.Reason)
	}
}

// WriteYAML exports the report for downstream tooling.
func (r *Report) WriteYAML(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
