// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/refmigrate/internal/catalog"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show what a migration of this catalog would import",
	Long: `Preview loads the catalog export and prints statistics: publication
counts by type, metadata completeness, collection and attachment totals.
It never touches the target database or the filesystem.`,
	RunE: runPreview,
}

func runPreview(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("catalog")
	if dir == "" {
		dir = viper.GetString("catalog.catalog_dir")
	}
	if dir == "" {
		dir = "catalog"
	}

	cat, err := catalog.Load(dir)
	if err != nil {
		return err
	}

	w := os.Stdout
	fmt.Fprintf(w, "publications: %d\n", len(cat.Publications))

	byType := make(map[string]int)
	var withDOI, withAbstract, withAuthors, attachments, keywords, bundles int
	for _, p := range cat.Publications {
		byType[p.Type]++
		if p.DOI != "" {
			withDOI++
		}
		if p.Summary != "" || p.Notes != "" {
			withAbstract++
		}
		if len(p.Authors) > 0 {
			withAuthors++
		}
		if p.Bundle != "" {
			bundles++
		}
		attachments += len(p.Attachments)
		keywords += len(p.Keywords)
	}

	typeNames := make([]string, 0, len(byType))
	for name := range byType {
		typeNames = append(typeNames, name)
	}
	sort.Strings(typeNames)
	fmt.Fprintln(w, "\nby type:")
	for _, name := range typeNames {
		fmt.Fprintf(w, "  %-12s %d\n", name, byType[name])
	}

	fmt.Fprintf(w, "\nwith DOI:      %d\n", withDOI)
	fmt.Fprintf(w, "with abstract: %d\n", withAbstract)
	fmt.Fprintf(w, "with authors:  %d\n", withAuthors)
	fmt.Fprintf(w, "with bundle:   %d\n", bundles)
	fmt.Fprintf(w, "keywords:      %d\n", keywords)
	fmt.Fprintf(w, "attachments:   %d\n", attachments)
	fmt.Fprintf(w, "collections:   %d\n", len(cat.Collections))
	return nil
}

func init() {
	previewCmd.Flags().String("catalog", "", "directory holding the catalog JSON exports")
	rootCmd.AddCommand(previewCmd)
}
