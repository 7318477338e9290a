// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package migrate

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/pdiddy/refmigrate/pkg/types"
)

func TestRunRoundTrip(t *testing.T) {
	store := newTestStore(t)
	tx := beginTest(t, store)
	mat := NewMaterializer(t.TempDir(), t.TempDir(), false, nil)

	cat := &types.Catalog{
		Collections: []types.Collection{
			{UUID: "coll-1", Name: "Reviews"},
		},
		Publications: []types.Publication{
			{
				UUID:  "pub-1",
				Type:  "article",
				Title: "Example Article",
				Authors: []types.Author{
					{Prename: "Jane", Surname: "Doe", Role: types.RoleAuthor},
					{Prename: "John", Surname: "Smith", Role: types.RoleAuthor},
				},
				Keywords:    []string{"AI"},
				Collections: []string{"coll-1"},
			},
		},
	}

	var out bytes.Buffer
	rep, err := Run(context.Background(), cat, tx, mat, types.MigrationConfig{}, &out)
	if err != nil {
		t.Fatal(err)
	}
	if !rep.Committed {
		t.Fatal("run should have committed")
	}
	if rep.Collections != 1 || rep.Items != 1 || rep.Tags != 1 || rep.Creators != 2 {
		t.Fatalf("report = %+v", rep)
	}

	db := store.DB()
	if n := countRows(t, db, `SELECT count(*) FROM collections WHERE collectionName = 'Reviews'`); n != 1 {
		t.Errorf("Reviews collections = %d", n)
	}
	if n := countRows(t, db, `SELECT count(*) FROM items`); n != 1 {
		t.Errorf("items = %d", n)
	}
	if n := countRows(t, db, `SELECT count(*) FROM tags WHERE name = 'AI'`); n != 1 {
		t.Errorf("AI tags = %d", n)
	}
	if n := countRows(t, db, `SELECT count(*) FROM itemTags`); n != 1 {
		t.Errorf("itemTags = %d", n)
	}
	if n := countRows(t, db, `SELECT count(*) FROM collectionItems`); n != 1 {
		t.Errorf("collectionItems = %d", n)
	}

	// Creator order: Doe at index 0, Smith at index 1.
	var first, second string
	if err := db.QueryRow(`
		SELECT c.lastName FROM itemCreators ic JOIN creators c ON ic.creatorID = c.creatorID
		WHERE ic.orderIndex = 0`).Scan(&first); err != nil {
		t.Fatal(err)
	}
	if err := db.QueryRow(`
		SELECT c.lastName FROM itemCreators ic JOIN creators c ON ic.creatorID = c.creatorID
		WHERE ic.orderIndex = 1`).Scan(&second); err != nil {
		t.Fatal(err)
	}
	if first != "Doe" || second != "Smith" {
		t.Errorf("creator order = [%s %s], want [Doe Smith]", first, second)
	}
}

func TestRunFailFastRollsBackEverything(t *testing.T) {
	store := newTestStore(t)
	tx := beginTest(t, store)
	mat := NewMaterializer(t.TempDir(), t.TempDir(), false, nil)

	cat := &types.Catalog{
		Collections: []types.Collection{{UUID: "coll-1", Name: "Reviews"}},
		Publications: []types.Publication{
			samplePublication("pub-1"),
			func() types.Publication {
				p := samplePublication("pub-2")
				p.Type = "hologram" // unmapped, fails under fail-fast
				return p
			}(),
			samplePublication("pub-3"),
		},
	}

	var out bytes.Buffer
	rep, err := Run(context.Background(), cat, tx, mat, types.MigrationConfig{FailFast: true}, &out)
	if err == nil {
		t.Fatal("expected fail-fast run to error")
	}
	if rep.Committed {
		t.Fatal("failed run must not commit")
	}

	// The store after rollback looks exactly as before the run.
	db := store.DB()
	for _, table := range []string{"items", "collections", "tags", "creators", "itemData"} {
		if n := countRows(t, db, `SELECT count(*) FROM `+table); n != 0 {
			t.Errorf("%s has %d rows after rollback, want 0", table, n)
		}
	}
}

func TestRunCollectAndContinue(t *testing.T) {
	store := newTestStore(t)
	tx := beginTest(t, store)
	mat := NewMaterializer(t.TempDir(), t.TempDir(), false, nil)

	bad := samplePublication("pub-2")
	bad.Type = "hologram"
	cat := &types.Catalog{
		Publications: []types.Publication{samplePublication("pub-1"), bad, samplePublication("pub-3")},
	}

	var out bytes.Buffer
	rep, err := Run(context.Background(), cat, tx, mat, types.MigrationConfig{}, &out)
	if err != nil {
		t.Fatal(err)
	}
	if !rep.Committed {
		t.Fatal("collect-and-continue run should commit")
	}
	if rep.Items != 2 {
		t.Errorf("items imported = %d, want 2", rep.Items)
	}
	if len(rep.Failures) != 1 || rep.Failures[0].SourceID != "pub-2" {
		t.Errorf("failures = %+v", rep.Failures)
	}
}

func TestRunMissingAttachmentFile(t *testing.T) {
	store := newTestStore(t)
	tx := beginTest(t, store)
	mat := NewMaterializer(t.TempDir(), t.TempDir(), false, nil)

	pub := samplePublication("pub-1")
	pub.Attachments = []types.Attachment{
		{Path: "nowhere.pdf", Fingerprint: "aabbccdd"},
	}
	cat := &types.Catalog{Publications: []types.Publication{pub}}

	var out bytes.Buffer
	rep, err := Run(context.Background(), cat, tx, mat, types.MigrationConfig{}, &out)
	if err != nil {
		t.Fatal(err)
	}
	if !rep.Committed {
		t.Fatal("missing file must not prevent the metadata commit")
	}
	if rep.FilesMissing != 1 {
		t.Errorf("FilesMissing = %d", rep.FilesMissing)
	}
	if len(rep.Failures) != 1 {
		t.Errorf("failures = %+v", rep.Failures)
	}

	db := store.DB()
	if n := countRows(t, db, `SELECT count(*) FROM items WHERE itemTypeID != 3`); n != 1 {
		t.Errorf("publication items = %d, want 1", n)
	}
	if n := countRows(t, db, `SELECT count(*) FROM itemAttachments`); n != 0 {
		t.Errorf("attachment rows = %d, want 0", n)
	}
}

func TestRunAttachmentCopyAndRow(t *testing.T) {
	store := newTestStore(t)
	tx := beginTest(t, store)

	srcRoot, destRoot := t.TempDir(), t.TempDir()
	mat := NewMaterializer(srcRoot, destRoot, false, nil)

	path, fp := writeBucketed(t, srcRoot, "paper.pdf", []byte("pdf bytes"))
	pub := samplePublication("pub-1")
	pub.Attachments = []types.Attachment{{UUID: "att-1", Path: path, Fingerprint: fp}}
	cat := &types.Catalog{Publications: []types.Publication{pub}}

	var out bytes.Buffer
	rep, err := Run(context.Background(), cat, tx, mat, types.MigrationConfig{}, &out)
	if err != nil {
		t.Fatal(err)
	}
	if rep.FilesCopied != 1 || rep.Attachments != 1 {
		t.Fatalf("report = %+v", rep)
	}

	db := store.DB()
	var destPath string
	if err := db.QueryRow(`SELECT path FROM itemAttachments`).Scan(&destPath); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(destPath); err != nil {
		t.Errorf("recorded path %s does not exist: %v", destPath, err)
	}
}

func TestRunLimit(t *testing.T) {
	store := newTestStore(t)
	tx := beginTest(t, store)
	mat := NewMaterializer(t.TempDir(), t.TempDir(), false, nil)

	cat := &types.Catalog{
		Publications: []types.Publication{
			samplePublication("pub-1"),
			samplePublication("pub-2"),
			samplePublication("pub-3"),
		},
	}

	var out bytes.Buffer
	rep, err := Run(context.Background(), cat, tx, mat, types.MigrationConfig{Limit: 2}, &out)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Items != 2 {
		t.Errorf("items = %d, want 2", rep.Items)
	}
	if n := countRows(t, store.DB(), `SELECT count(*) FROM items`); n != 2 {
		t.Errorf("rows = %d, want 2", n)
	}
}

func TestRunSkipAttachments(t *testing.T) {
	store := newTestStore(t)
	tx := beginTest(t, store)

	srcRoot, destRoot := t.TempDir(), t.TempDir()
	mat := NewMaterializer(srcRoot, destRoot, false, nil)

	path, fp := writeBucketed(t, srcRoot, "paper.pdf", []byte("pdf bytes"))
	pub := samplePublication("pub-1")
	pub.Attachments = []types.Attachment{{Path: path, Fingerprint: fp}}
	cat := &types.Catalog{Publications: []types.Publication{pub}}

	var out bytes.Buffer
	rep, err := Run(context.Background(), cat, tx, mat, types.MigrationConfig{SkipAttachments: true}, &out)
	if err != nil {
		t.Fatal(err)
	}
	if rep.FilesCopied != 0 || rep.Attachments != 0 {
		t.Fatalf("report = %+v", rep)
	}
	entries, err := os.ReadDir(destRoot)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Error("skip-attachments run touched the destination tree")
	}
}

func TestRunDryRun(t *testing.T) {
	srcRoot, destRoot := t.TempDir(), t.TempDir()
	mat := NewMaterializer(srcRoot, destRoot, true, nil)

	path, fp := writeBucketed(t, srcRoot, "paper.pdf", []byte("pdf bytes"))
	pub := samplePublication("pub-1")
	pub.Attachments = []types.Attachment{{UUID: "att-1", Path: path, Fingerprint: fp}}
	cat := &types.Catalog{
		Collections:  []types.Collection{{UUID: "coll-1", Name: "Reviews"}},
		Publications: []types.Publication{pub},
	}

	var out bytes.Buffer
	rep, err := Run(context.Background(), cat, NewDryTarget(), mat, types.MigrationConfig{DryRun: true}, &out)
	if err != nil {
		t.Fatal(err)
	}
	if !rep.DryRun || rep.Committed {
		t.Fatalf("report = %+v", rep)
	}

	// Same report shape as a live run, zero writes.
	if rep.Collections != 1 || rep.Items != 1 || rep.FilesCopied != 1 || rep.Attachments != 1 {
		t.Fatalf("report = %+v", rep)
	}
	entries, err := os.ReadDir(destRoot)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Error("dry run wrote files")
	}
}

func TestRunReportSummaryAndExport(t *testing.T) {
	rep := &Report{RunID: "test", Items: 2, Committed: true}
	rep.Fail("pub-9", "unmapped publication type %q", "hologram")

	var buf bytes.Buffer
	rep.Summary(&buf)
	for _, want := range []string{"items:", "pub-9", "hologram", "committed"} {
		if !contains(buf.String(), want) {
			t.Errorf("summary missing %q:\n%s", want, buf.String())
		}
	}

	path := t.TempDir() + "/report.yaml"
	if err := rep.WriteYAML(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !contains(string(data), "items: 2") {
		t.Errorf("report yaml missing counts:\n%s", data)
	}
}
