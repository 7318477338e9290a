// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/refmigrate/internal/catalog"
	"github.com/pdiddy/refmigrate/internal/migrate"
	"github.com/pdiddy/refmigrate/internal/zotero"
	"github.com/pdiddy/refmigrate/pkg/types"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run the catalog and file migration",
	Long: `Migrate loads the Papers3 catalog export, imports the collection
hierarchy and every publication into the Zotero database inside one
transaction, and copies attachment files into the destination tree.

Any fatal error rolls back every database change of the run. Copied files
are left in place: copies are skipped on re-runs when the destination
already holds identical content, so restarting after an interruption is
always safe.`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := migrateConfigFromFlags(cmd)

	cat, err := catalog.Load(cfg.Catalog.CatalogDir)
	if err != nil {
		return err
	}

	// The missing-file log survives the run regardless of commit outcome;
	// it exists for manual follow-up.
	var missingLog io.Writer
	if cfg.Files.MissingLog != "" && !cfg.Migration.DryRun && !cfg.Migration.SkipAttachments {
		f, err := os.OpenFile(cfg.Files.MissingLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening missing-file log: %w", err)
		}
		defer f.Close()
		missingLog = f
	}

	mat := migrate.NewMaterializer(cfg.Files.LibraryRoot, cfg.Files.DestDir, cfg.Migration.DryRun, missingLog)

	ctx := context.Background()

	var target migrate.Target
	if cfg.Migration.DryRun {
		target = migrate.NewDryTarget()
	} else {
		store, err := zotero.Open(cfg.Target.DatabasePath)
		if err != nil {
			return err
		}
		defer store.Close()

		if cfg.Target.EnsureSchema {
			if err := store.Ensure(ctx); err != nil {
				return err
			}
		}
		if err := store.Verify(ctx); err != nil {
			return err
		}
		tx, err := store.Begin(ctx)
		if err != nil {
			return err
		}
		target = tx
	}

	rep, runErr := migrate.Run(ctx, cat, target, mat, cfg.Migration, os.Stdout)
	rep.Summary(os.Stdout)

	if cfg.Migration.ReportPath != "" {
		if err := rep.WriteYAML(cfg.Migration.ReportPath); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}

	if runErr != nil {
		return runErr
	}
	if rep.HasFailures() {
		return fmt.Errorf("%d record(s) failed; see summary above", len(rep.Failures))
	}
	return nil
}

// migrateConfigFromFlags assembles the run configuration. Flags win over
// the config file; the config file wins over defaults.
func migrateConfigFromFlags(cmd *cobra.Command) types.Config {
	str := func(flag, key, def string) string {
		if v, _ := cmd.Flags().GetString(flag); v != "" {
			return v
		}
		if v := viper.GetString(key); v != "" {
			return v
		}
		return def
	}

	limit, _ := cmd.Flags().GetInt("limit")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	skipAttachments, _ := cmd.Flags().GetBool("skip-attachments")
	failFast, _ := cmd.Flags().GetBool("fail-fast")
	ensureSchema, _ := cmd.Flags().GetBool("ensure-schema")

	return types.Config{
		Catalog: types.CatalogConfig{
			CatalogDir: str("catalog", "catalog.catalog_dir", "catalog"),
		},
		Target: types.TargetConfig{
			DatabasePath: str("zotero-db", "target.database_path", "zotero.sqlite"),
			EnsureSchema: ensureSchema,
		},
		Files: types.FilesConfig{
			LibraryRoot: str("library-root", "files.library_root", "Library"),
			DestDir:     str("dest-dir", "files.dest_dir", "Papers"),
			MissingLog:  str("missing-log", "files.missing_log", "missing_files.log"),
		},
		Migration: types.MigrationConfig{
			DryRun:          dryRun,
			Limit:           limit,
			SkipAttachments: skipAttachments,
			FailFast:        failFast,
			ReportPath:      str("report", "migration.report_path", ""),
		},
	}
}

func init() {
	migrateCmd.Flags().String("catalog", "", "directory holding the catalog JSON exports")
	migrateCmd.Flags().String("zotero-db", "", "path to the Zotero SQLite database")
	migrateCmd.Flags().String("library-root", "", "source file tree, bucketed by fingerprint prefix")
	migrateCmd.Flags().String("dest-dir", "", "destination root for reorganized files")
	migrateCmd.Flags().String("missing-log", "", "line-oriented log of missing source files")
	migrateCmd.Flags().String("report", "", "write the run report YAML to this path")
	migrateCmd.Flags().Int("limit", 0, "process only the first N publications (0 = all)")
	migrateCmd.Flags().Bool("dry-run", false, "resolve everything, write nothing")
	migrateCmd.Flags().Bool("skip-attachments", false, "import metadata only, never touch files")
	migrateCmd.Flags().Bool("fail-fast", false, "abort and roll back on the first failure")
	migrateCmd.Flags().Bool("ensure-schema", false, "create the minimal target schema in a fresh database")

	rootCmd.AddCommand(migrateCmd)
}
