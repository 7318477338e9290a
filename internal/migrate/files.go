// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package migrate

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// FileStatus is the outcome of materializing one attachment.
type FileStatus int

const (
	// FileCopied: the destination did not hold the content yet and a full
	// byte-for-byte copy was performed (or would have been, in dry-run).
	FileCopied FileStatus = iota

	// FileSkipped: a destination file with an identical fingerprint was
	// already present. Zero writes; this is what makes re-runs safe.
	FileSkipped

	// FileMissing: the source file does not exist on disk.
	FileMissing
)

const maxNameLength = 120

// Materializer copies attachment files out of the fingerprint-bucketed
// source tree into a human-readable <year>/<surname>/<title>_<year>.<ext>
// layout. The source tree is never mutated. Copies are gated on content
// fingerprints so interrupted runs can simply be re-invoked.
type Materializer struct {
	libraryRoot string
	destDir     string
	dryRun      bool

	// missingLog receives one line per missing source file, for manual
	// follow-up. May be nil.
	missingLog io.Writer
}

// NewMaterializer returns a Materializer rooted at libraryRoot (source)
// and destDir (destination). In dry-run mode every resolution and
// collision check still happens, but nothing is written.
func NewMaterializer(libraryRoot, destDir string, dryRun bool, missingLog io.Writer) *Materializer {
	return &Materializer{
		libraryRoot: libraryRoot,
		destDir:     destDir,
		dryRun:      dryRun,
		missingLog:  missingLog,
	}
}

// ItemNaming carries the resolved metadata the destination path is built from.
type ItemNaming struct {
	Title   string
	Surname string // primary author's surname
	Year    string // four-digit year, or empty when unknown
}

// Materialize resolves the attachment's source file, computes its
// destination path, and copies it there unless an identical copy already
// exists. A missing source is reported via FileMissing, never an error;
// errors are reserved for read/write failures on files that do exist.
func (m *Materializer) Materialize(sourcePath, fingerprint string, naming ItemNaming) (string, FileStatus, error) {
	src, ok := m.resolveSource(sourcePath, fingerprint)
	if !ok {
		if m.missingLog != nil {
			fmt.Fprintf(m.missingLog, "%s\n", sourcePath)
		}
		return "", FileMissing, nil
	}

	if fingerprint == "" {
		sum, err := fileMD5(src)
		if err != nil {
			return "", 0, fmt.Errorf("fingerprinting %s: %w", src, err)
		}
		fingerprint = sum
	}

	dest, status, err := m.resolveDestination(src, fingerprint, naming)
	if err != nil {
		return "", 0, err
	}
	if status == FileSkipped {
		return dest, FileSkipped, nil
	}

	if m.dryRun {
		return dest, FileCopied, nil
	}
	if err := copyFile(src, dest); err != nil {
		return "", 0, err
	}
	return dest, FileCopied, nil
}

// resolveSource locates the attachment on disk. Absolute paths are taken
// as-is; relative paths are tried under the fingerprint bucket directory
// first, then directly under the library root (older catalogs stored
// pre-bucketed relative paths).
func (m *Materializer) resolveSource(path, fingerprint string) (string, bool) {
	candidates := make([]string, 0, 3)
	if filepath.IsAbs(path) {
		candidates = append(candidates, path)
	} else {
		if len(fingerprint) >= 2 {
			candidates = append(candidates,
				filepath.Join(m.libraryRoot, strings.ToLower(fingerprint[:2]), path))
		}
		candidates = append(candidates, filepath.Join(m.libraryRoot, path))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, true
		}
	}
	return "", false
}

// resolveDestination computes the target path, resolving name collisions
// with numeric suffixes. It returns FileSkipped when some candidate
// already holds identical content.
func (m *Materializer) resolveDestination(src, fingerprint string, naming ItemNaming) (string, FileStatus, error) {
	year := naming.Year
	if year == "" {
		year = "unknown"
	}
	surname := sanitizeName(naming.Surname)
	if surname == "" {
		surname = "unknown"
	}
	title := sanitizeName(naming.Title)
	if title == "" {
		title = "untitled"
	}

	ext := strings.ToLower(filepath.Ext(src))
	if ext == "" {
		ext = ".pdf"
	}

	dir := filepath.Join(m.destDir, year, surname)
	base := fmt.Sprintf("%s_%s", title, year)

	for n := 1; ; n++ {
		name := base
		if n > 1 {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		candidate := filepath.Join(dir, name+ext)

		info, err := os.Stat(candidate)
		if os.IsNotExist(err) {
			return candidate, FileCopied, nil
		}
		if err != nil {
			return "", 0, fmt.Errorf("checking destination %s: %w", candidate, err)
		}
		if info.IsDir() {
			continue
		}

		sum, err := fileMD5(candidate)
		if err != nil {
			return "", 0, fmt.Errorf("fingerprinting destination %s: %w", candidate, err)
		}
		if strings.EqualFold(sum, fingerprint) {
			return candidate, FileSkipped, nil
		}
		// Same name, different content: keep probing suffixes.
	}
}

// sanitizeName strips characters that are illegal on common filesystems,
// collapses runs of whitespace, and truncates to a bounded length.
func sanitizeName(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r), r < 0x20:
			r = ' '
		}
		if unicode.IsSpace(r) {
			if !lastSpace && b.Len() > 0 {
				b.WriteRune(' ')
			}
			lastSpace = true
			continue
		}
		lastSpace = false
		b.WriteRune(r)
	}

	out := strings.TrimSpace(b.String())
	runes := []rune(out)
	if len(runes) > maxNameLength {
		out = strings.TrimSpace(string(runes[:maxNameLength]))
	}
	// A name of only dots would collapse into directory traversal tokens.
	if strings.Trim(out, ".") == "" {
		return ""
	}
	return out
}

// fileMD5 returns the lowercase hex MD5 of a file's contents. MD5 is the
// fingerprint algorithm the source catalog records, so both sides of every
// comparison use it.
func fileMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// copyFile copies src to dest byte-for-byte through a temp file in the
// destination directory, renamed into place on success so readers never
// observe a half-written file.
func copyFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", filepath.Dir(dest), err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source %s: %w", src, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".migrate-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, copyErr := io.Copy(tmp, in)
	closeErr := tmp.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("copying to %s: %w", dest, copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming into place: %w", err)
	}
	return nil
}
