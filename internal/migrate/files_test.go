// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package migrate

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeBucketed places content in the fingerprint-bucketed source layout
// and returns the relative path and the content fingerprint.
func writeBucketed(t *testing.T, root, name string, content []byte) (string, string) {
	t.Helper()
	sum := md5.Sum(content)
	fingerprint := hex.EncodeToString(sum[:])
	dir := filepath.Join(root, fingerprint[:2])
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), content, 0o644))
	return name, fingerprint
}

func testNaming() ItemNaming {
	return ItemNaming{Title: "Example Article", Surname: "Doe", Year: "2019"}
}

func TestMaterializeCopies(t *testing.T) {
	srcRoot, destRoot := t.TempDir(), t.TempDir()
	m := NewMaterializer(srcRoot, destRoot, false, nil)

	content := []byte("pdf bytes")
	path, fp := writeBucketed(t, srcRoot, "paper.pdf", content)

	dest, status, err := m.Materialize(path, fp, testNaming())
	require.NoError(t, err)
	assert.Equal(t, FileCopied, status)
	assert.Equal(t, filepath.Join(destRoot, "2019", "Doe", "Example Article_2019.pdf"), dest)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	// Source tree is never mutated.
	_, err = os.Stat(filepath.Join(srcRoot, fp[:2], "paper.pdf"))
	assert.NoError(t, err)
}

func TestMaterializeSkipsIdenticalDestination(t *testing.T) {
	srcRoot, destRoot := t.TempDir(), t.TempDir()
	m := NewMaterializer(srcRoot, destRoot, false, nil)

	content := []byte("same content")
	path, fp := writeBucketed(t, srcRoot, "paper.pdf", content)

	first, status, err := m.Materialize(path, fp, testNaming())
	require.NoError(t, err)
	require.Equal(t, FileCopied, status)
	info, err := os.Stat(first)
	require.NoError(t, err)

	second, status, err := m.Materialize(path, fp, testNaming())
	require.NoError(t, err)
	assert.Equal(t, FileSkipped, status)
	assert.Equal(t, first, second)

	// Zero additional writes: same inode mtime as before.
	after, err := os.Stat(first)
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), after.ModTime())
}

func TestMaterializeResolvesCollisions(t *testing.T) {
	srcRoot, destRoot := t.TempDir(), t.TempDir()
	m := NewMaterializer(srcRoot, destRoot, false, nil)

	pathA, fpA := writeBucketed(t, srcRoot, "a.pdf", []byte("content A"))
	pathB, fpB := writeBucketed(t, srcRoot, "b.pdf", []byte("content B"))

	destA, statusA, err := m.Materialize(pathA, fpA, testNaming())
	require.NoError(t, err)
	require.Equal(t, FileCopied, statusA)

	destB, statusB, err := m.Materialize(pathB, fpB, testNaming())
	require.NoError(t, err)
	require.Equal(t, FileCopied, statusB)

	assert.NotEqual(t, destA, destB)
	assert.Equal(t, filepath.Join(destRoot, "2019", "Doe", "Example Article_2019_2.pdf"), destB)

	gotA, _ := os.ReadFile(destA)
	gotB, _ := os.ReadFile(destB)
	assert.Equal(t, []byte("content A"), gotA)
	assert.Equal(t, []byte("content B"), gotB)

	// Re-running either resolves to its own existing copy.
	destB2, statusB2, err := m.Materialize(pathB, fpB, testNaming())
	require.NoError(t, err)
	assert.Equal(t, FileSkipped, statusB2)
	assert.Equal(t, destB, destB2)
}

func TestMaterializeMissingSource(t *testing.T) {
	srcRoot, destRoot := t.TempDir(), t.TempDir()
	var log bytes.Buffer
	m := NewMaterializer(srcRoot, destRoot, false, &log)

	_, status, err := m.Materialize("gone.pdf", "aabbccdd", testNaming())
	require.NoError(t, err)
	assert.Equal(t, FileMissing, status)
	assert.Equal(t, "gone.pdf\n", log.String())
}

func TestMaterializeDryRunWritesNothing(t *testing.T) {
	srcRoot, destRoot := t.TempDir(), t.TempDir()
	m := NewMaterializer(srcRoot, destRoot, true, nil)

	path, fp := writeBucketed(t, srcRoot, "paper.pdf", []byte("pdf bytes"))

	dest, status, err := m.Materialize(path, fp, testNaming())
	require.NoError(t, err)
	assert.Equal(t, FileCopied, status)
	assert.NotEmpty(t, dest)

	entries, err := os.ReadDir(destRoot)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMaterializeUnknownNaming(t *testing.T) {
	srcRoot, destRoot := t.TempDir(), t.TempDir()
	m := NewMaterializer(srcRoot, destRoot, false, nil)

	path, fp := writeBucketed(t, srcRoot, "paper.pdf", []byte("x"))

	dest, status, err := m.Materialize(path, fp, ItemNaming{})
	require.NoError(t, err)
	assert.Equal(t, FileCopied, status)
	assert.Equal(t, filepath.Join(destRoot, "unknown", "unknown", "untitled_unknown.pdf"), dest)
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Plain Title", "Plain Title"},
		{`A/B\C:D*E?F"G<H>I|J`, "A B C D E F G H I J"},
		{"  spaced   out  ", "spaced out"},
		{"tab\tand\nnewline", "tab and newline"},
		{"...", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeName(tt.in), "input %q", tt.in)
	}

	long := make([]rune, 300)
	for i := range long {
		long[i] = 'x'
	}
	assert.Len(t, sanitizeName(string(long)), maxNameLength)
}

func TestYearOf(t *testing.T) {
	assert.Equal(t, "2019", yearOf("2019-05-01"))
	assert.Equal(t, "1995", yearOf("1995"))
	assert.Equal(t, "", yearOf(""))
	assert.Equal(t, "", yearOf("n.d."))
}
