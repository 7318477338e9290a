// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/pdiddy/refmigrate/pkg/types"
)

func writeExport(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// testUUIDs are fixed so assertions can reference them; Papers3 exports
// carry uppercase UUIDs, which the loader normalizes to lowercase.
var (
	pubUUID    = uuid.MustParse("5D1F0E77-1C4E-4B3A-9D47-2E7A11111111")
	collUUID   = uuid.MustParse("A0B1C2D3-E4F5-4A6B-8C7D-2E7A22222222")
	childUUID  = uuid.MustParse("A0B1C2D3-E4F5-4A6B-8C7D-2E7A33333333")
	bundleUUID = uuid.MustParse("A0B1C2D3-E4F5-4A6B-8C7D-2E7A44444444")
)

func TestLoadNormalizesPublications(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "papers3_publications.json", `{
		"publications": [{
			"uuid": "`+pubUUID.String()+`",
			"type": "Article",
			"title": "Example Article",
			"publication_date": "2019-03-14T00:00:00Z",
			"startpage": "10", "endpage": "20",
			"authors": [
				{"prename": "Jane", "surname": "Doe", "type": "author"},
				"Smith, John"
			],
			"keywords": [{"name": "AI"}, "ML"],
			"collections": [{"collection_uuid": "`+collUUID.String()+`"}],
			"pdfs": [{"uuid": "`+bundleUUID.String()+`", "path": "paper.pdf", "md5": "ABCDEF00", "caption": "Main PDF"}],
			"bundle": "`+bundleUUID.String()+`",
			"bundle_details": {"title": "Journal of Examples"},
			"rating": 4,
			"flagged": true
		}]
	}`)

	cat, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(cat.Publications) != 1 {
		t.Fatalf("publications = %d", len(cat.Publications))
	}

	pub := cat.Publications[0]
	if pub.UUID != pubUUID.String() {
		t.Errorf("uuid = %q", pub.UUID)
	}
	if pub.Type != "article" {
		t.Errorf("type = %q, want lowercased", pub.Type)
	}

	want := []types.Author{
		{Prename: "Jane", Surname: "Doe", Role: types.RoleAuthor},
		{FullName: "Smith, John", Role: types.RoleAuthor},
	}
	if len(pub.Authors) != 2 || pub.Authors[0] != want[0] || pub.Authors[1] != want[1] {
		t.Errorf("authors = %+v", pub.Authors)
	}

	if len(pub.Keywords) != 2 || pub.Keywords[0] != "AI" || pub.Keywords[1] != "ML" {
		t.Errorf("keywords = %v", pub.Keywords)
	}
	if len(pub.Collections) != 1 || pub.Collections[0] != collUUID.String() {
		t.Errorf("collections = %v", pub.Collections)
	}

	if len(pub.Attachments) != 1 {
		t.Fatalf("attachments = %+v", pub.Attachments)
	}
	att := pub.Attachments[0]
	if att.Path != "paper.pdf" || att.Fingerprint != "abcdef00" || att.Caption != "Main PDF" {
		t.Errorf("attachment = %+v", att)
	}

	if pub.Bundle != bundleUUID.String() || pub.BundleTitle != "Journal of Examples" {
		t.Errorf("bundle = %q title = %q", pub.Bundle, pub.BundleTitle)
	}
	if pub.Rating != 4 || !pub.Flagged {
		t.Errorf("rating = %d flagged = %v", pub.Rating, pub.Flagged)
	}
}

func TestLoadPrefersFullExport(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "papers3_publications.json",
		`{"publications": []}`)
	writeExport(t, dir, "papers3_publications_full.json",
		`{"publications": [{"uuid": "`+pubUUID.String()+`", "type": "article", "title": "From Full"}]}`)

	cat, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(cat.Publications) != 1 || cat.Publications[0].Title != "From Full" {
		t.Fatalf("publications = %+v", cat.Publications)
	}
}

func TestLoadFlattensCollectionTree(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "papers3_publications.json", `{"publications": []}`)
	writeExport(t, dir, "papers3_collections.json", `{
		"collections": [{
			"uuid": "`+collUUID.String()+`",
			"name": "Reviews",
			"children": [{"uuid": "`+childUUID.String()+`", "name": "Surveys"}]
		}]
	}`)

	cat, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(cat.Collections) != 2 {
		t.Fatalf("collections = %+v", cat.Collections)
	}
	root, child := cat.Collections[0], cat.Collections[1]
	if root.Name != "Reviews" || root.ParentUUID != "" {
		t.Errorf("root = %+v", root)
	}
	if child.Name != "Surveys" || child.ParentUUID != root.UUID {
		t.Errorf("child = %+v", child)
	}
}

func TestLoadMissingCollectionsFileIsEmptyForest(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "papers3_publications.json", `{"publications": []}`)

	cat, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(cat.Collections) != 0 {
		t.Fatalf("collections = %+v", cat.Collections)
	}
}

func TestLoadMissingPublicationsFileFails(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatal("expected missing publications export to fail")
	}
}

func TestLoadRejectsMalformedUUID(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "papers3_publications.json",
		`{"publications": [{"uuid": "not-a-uuid", "type": "article", "title": "Bad"}]}`)

	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected malformed identifier to fail the load")
	}
}
