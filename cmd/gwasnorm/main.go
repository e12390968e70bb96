// Package main provides the gwasnorm command-line tool.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cobra.OnInitialize(initConfig)

	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gwasnorm",
		Short: "Normalize GWAS summary statistics for polygenic scoring",
		Long: `gwasnorm resolves GWAS variants named by rsID or genomic coordinate to one
canonical representation on hg38, applies quality-control filters, restricts
the result to an LD reference panel, and writes a fixed-format table plus a
per-run log.`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newNormalizeCmd())
	cmd.AddCommand(newDownloadCmd())
	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// initConfig reads ~/.gwasnorm.yaml if present. Config keys supply
// defaults for the resource-location flags.
func initConfig() {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	viper.AddConfigPath(home)
	viper.SetConfigName(".gwasnorm")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("GWASNORM")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig() // missing config file is fine
}

// defaultResourceDir returns ~/.gwasnorm, where downloaded resources live.
func defaultResourceDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".gwasnorm")
}
