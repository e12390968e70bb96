package normalize

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RunLogPath derives the run-log path from the output path, e.g.
// scores.tsv.gz -> scores.log.
func RunLogPath(outputPath string) string {
	base := strings.TrimSuffix(outputPath, ".gz")
	base = strings.TrimSuffix(base, ".tsv")
	base = strings.TrimSuffix(base, ".txt")
	return base + ".log"
}

// NewRunLogger creates a zap logger writing the plain-text run log to
// path, one file per run. The returned close function flushes and
// releases the sink.
func NewRunLogger(path string) (*zap.Logger, func(), error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("create run log %s: %w", path, err)
	}

	return logger, func() { _ = logger.Sync() }, nil
}

// logSummary writes the aggregate counts and per-stage timings required of
// the run log. Per-record drops are never logged individually; only these
// aggregates appear.
func logSummary(logger *zap.Logger, s *Summary) {
	c := &s.Counters
	logger.Info("input read",
		zap.Int64("rows", c.Input),
		zap.Int64("malformed_rows", c.MalformedRow),
	)
	logger.Info("identifier resolution",
		zap.Int64("unresolved_identifier", c.UnresolvedIdentifier),
		zap.Int64("unresolved_rsid", c.UnresolvedRsID),
		zap.Int64("multi_allelic_site", c.MultiAllelicSite),
		zap.Int64("unmapped_interval", c.UnmappedInterval),
		zap.Int64("multi_mapped_interval", c.MultiMappedInterval),
	)
	logger.Info("qc filters",
		zap.Int64("missing_essential_stat", c.MissingEssentialStat),
		zap.Int64("low_confidence_variant", c.LowConfidence),
		zap.Int64("ambiguous_allele_pair", c.AmbiguousAllelePair),
		zap.Int64("non_autosomal", c.NonAutosomal),
		zap.Int64("low_minor_allele_frequency", c.LowMAF),
	)
	logger.Info("panel join",
		zap.Int64("panel_mismatch", c.PanelMismatch),
		zap.Int64("orientation_flipped", c.OrientationFlipped),
	)
	logger.Info("run complete",
		zap.Int64("input_rows", c.Input),
		zap.Int64("output_rows", c.Output),
		zap.Int64("dropped", c.Dropped()),
		zap.Duration("load_resources", s.LoadDuration),
		zap.Duration("process", s.ProcessDuration),
		zap.Duration("sort_write", s.WriteDuration),
		zap.Duration("total", s.TotalDuration),
	)
}
