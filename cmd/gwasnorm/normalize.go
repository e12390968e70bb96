package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gwaskit/gwasnorm/internal/normalize"
)

func newNormalizeCmd() *cobra.Command {
	var cfg normalize.Config

	cmd := &cobra.Command{
		Use:   "normalize <sumstats-file>",
		Short: "Normalize a summary-statistics file onto hg38",
		Long: `Normalize a GWAS summary-statistics file (tab-separated, optionally
gzipped; use '-' for stdin). Variants named by rsID are resolved through the
dbSNP reference index; coordinate-named variants on hg19 are lifted over to
hg38 using the chain file. Surviving records are QC-filtered, restricted to
the reference panel, and written sorted by chromosome and position.

A run log with per-stage counts and timings is written next to the output.`,
		Example: `  gwasnorm normalize -o height.norm.tsv.gz height.sumstats.tsv.gz
  gwasnorm normalize --build hg19 --chain hg19ToHg38.over.chain.gz -o out.tsv in.tsv.gz
  gwasnorm normalize --orientation flip -o out.tsv.gz in.tsv.gz`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.SumstatsPath = args[0]
			if !cmd.Flags().Changed("orientation") {
				if v := viper.GetString("orientation"); v != "" {
					cfg.Orientation = v
				}
			}
			return runNormalize(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&cfg.OutputPath, "output", "o", "", "Output path for the normalized table (required)")
	fs.StringVarP(&cfg.DBSNPDir, "dbsnp", "d", "", "Directory with dbSNP lookup parquet files (default from config)")
	fs.StringVarP(&cfg.ChainPath, "chain", "c", "", "hg19-to-hg38 chain file (default from config)")
	fs.StringVarP(&cfg.PanelPath, "panel", "p", "", "Reference panel variant list (default from config)")
	fs.StringVarP(&cfg.Build, "build", "b", normalize.TargetBuild, "Declared input build: hg19 or hg38")
	fs.StringVar(&cfg.Orientation, "orientation", "drop", "Panel allele-orientation policy: drop or flip")
	fs.IntVar(&cfg.Workers, "workers", 0, "Worker count (0 = all CPUs)")
	fs.BoolVar(&cfg.Force, "force", false, "Overwrite a pre-existing output file")
	fs.BoolVar(&cfg.AllowEmpty, "allow-empty", false, "Treat an empty final output as a warning instead of an error")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runNormalize(ctx context.Context, cfg normalize.Config) error {
	applyConfigDefaults(&cfg)

	if cfg.DBSNPDir == "" {
		return fmt.Errorf("no dbSNP directory: pass --dbsnp or set resources.dbsnp in ~/.gwasnorm.yaml")
	}
	if cfg.PanelPath == "" {
		return fmt.Errorf("no reference panel: pass --panel or set resources.panel in ~/.gwasnorm.yaml")
	}
	if cfg.Build == normalize.SourceHg19 && cfg.ChainPath == "" {
		return fmt.Errorf("build hg19 requires a chain file: pass --chain or set resources.chain in ~/.gwasnorm.yaml")
	}

	logPath := normalize.RunLogPath(cfg.OutputPath)
	logger, closeLog, err := normalize.NewRunLogger(logPath)
	if err != nil {
		return err
	}
	defer closeLog()

	if ctx == nil {
		ctx = context.Background()
	}

	summary, err := normalize.Run(ctx, cfg, logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Normalized %d of %d rows (%d dropped); output %s, log %s\n",
		summary.Counters.Output, summary.Counters.Input, summary.Counters.Dropped(),
		cfg.OutputPath, logPath)
	return nil
}

// applyConfigDefaults fills unset resource flags from viper config keys.
func applyConfigDefaults(cfg *normalize.Config) {
	if cfg.DBSNPDir == "" {
		cfg.DBSNPDir = viper.GetString("resources.dbsnp")
	}
	if cfg.ChainPath == "" {
		cfg.ChainPath = viper.GetString("resources.chain")
	}
	if cfg.PanelPath == "" {
		cfg.PanelPath = viper.GetString("resources.panel")
	}
	if cfg.Workers == 0 {
		cfg.Workers = viper.GetInt("workers")
	}
}
