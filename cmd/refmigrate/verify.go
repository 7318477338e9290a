// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/refmigrate/internal/zotero"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Sanity-check the target database after a migration",
	Long: `Verify runs read-only queries against the target database and prints
row counts, top-level collections, the most used tags, and how many items
carry their original catalog identifier in the extra field.`,
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	dbPath, _ := cmd.Flags().GetString("zotero-db")
	if dbPath == "" {
		dbPath = viper.GetString("target.database_path")
	}
	if dbPath == "" {
		dbPath = "zotero.sqlite"
	}
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("target database not found: %s", dbPath)
	}

	store, err := zotero.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Verify(ctx); err != nil {
		return err
	}
	db := store.DB()

	w := os.Stdout
	counts := []struct {
		label string
		query string
	}{
		{"items (publications)", `SELECT count(*) FROM items WHERE itemTypeID NOT IN (1, 3)`},
		{"attachments", `SELECT count(*) FROM items WHERE itemTypeID = 3`},
		{"collections", `SELECT count(*) FROM collections`},
		{"creators", `SELECT count(*) FROM creators`},
		{"tags", `SELECT count(*) FROM tags`},
		{"items in collections", `SELECT count(DISTINCT itemID) FROM collectionItems`},
		{"items with source UUID", `SELECT count(*) FROM itemData d
			JOIN itemDataValues v ON d.valueID = v.valueID
			WHERE d.fieldID = 16 AND v.value LIKE '%Papers3 UUID:%'`},
	}
	for _, c := range counts {
		var n int
		if err := db.QueryRowContext(ctx, c.query).Scan(&n); err != nil {
			return fmt.Errorf("counting %s: %w", c.label, err)
		}
		fmt.Fprintf(w, "%-24s %d\n", c.label+":", n)
	}

	if err := printTopCollections(ctx, db, w); err != nil {
		return err
	}
	return printTopTags(ctx, db, w)
}

func printTopCollections(ctx context.Context, db *sql.DB, w *os.File) error {
	rows, err := db.QueryContext(ctx, `
		SELECT c.collectionName,
		       (SELECT count(*) FROM collections c2 WHERE c2.parentCollectionID = c.collectionID),
		       (SELECT count(*) FROM collectionItems ci WHERE ci.collectionID = c.collectionID)
		FROM collections c
		WHERE c.parentCollectionID IS NULL
		ORDER BY c.collectionName
		LIMIT 10`)
	if err != nil {
		return fmt.Errorf("querying collections: %w", err)
	}
	defer rows.Close()

	fmt.Fprintln(w, "\ntop-level collections:")
	for rows.Next() {
		var name string
		var children, items int
		if err := rows.Scan(&name, &children, &items); err != nil {
			return err
		}
		fmt.Fprintf(w, "  %s (%d subcollections, %d items)\n", name, children, items)
	}
	return rows.Err()
}

func printTopTags(ctx context.Context, db *sql.DB, w *os.File) error {
	rows, err := db.QueryContext(ctx, `
		SELECT t.name, count(it.itemID)
		FROM tags t JOIN itemTags it ON t.tagID = it.tagID
		GROUP BY t.tagID
		ORDER BY count(it.itemID) DESC
		LIMIT 10`)
	if err != nil {
		return fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	fmt.Fprintln(w, "\nmost used tags:")
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return err
		}
		fmt.Fprintf(w, "  %s: %d\n", name, n)
	}
	return rows.Err()
}

func init() {
	verifyCmd.Flags().String("zotero-db", "", "path to the Zotero SQLite database")
	rootCmd.AddCommand(verifyCmd)
}
