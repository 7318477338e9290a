// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the refmigrate CLI, which moves a
// Papers3 library (catalog metadata plus PDF files) into a Zotero database
// and a human-readable file tree.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the refmigrate CLI.
var rootCmd = &cobra.Command{
	Use:   "refmigrate",
	Short: "Migrate a Papers3 library into a Zotero database",
	Long: `refmigrate migrates a bibliographic catalog exported from Papers3 into
the Zotero relational schema, and relocates the attached PDF files from
Papers3's hash-bucketed storage into a year/author/title directory tree.

The whole catalog import runs inside a single database transaction: either
every collection, item, creator, tag, and attachment from the run commits
together, or none do. File copies are fingerprint-gated, so an interrupted
run can simply be re-invoked.

Use preview to inspect the catalog before migrating, migrate to run the
import, and verify to sanity-check the target database afterwards.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./refmigrate.yaml or ~/.config/refmigrate/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("refmigrate")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "refmigrate"))
		}
	}

	viper.SetEnvPrefix("REFMIGRATE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
