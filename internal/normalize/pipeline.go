package normalize

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/gwaskit/gwasnorm/internal/dbsnp"
	"github.com/gwaskit/gwasnorm/internal/liftover"
	"github.com/gwaskit/gwasnorm/internal/output"
	"github.com/gwaskit/gwasnorm/internal/panel"
	"github.com/gwaskit/gwasnorm/internal/qc"
	"github.com/gwaskit/gwasnorm/internal/sumstats"
)

// Supported genome builds. The pipeline always normalizes onto TargetBuild.
const (
	TargetBuild = "hg38"
	SourceHg19  = "hg19"
)

// Config describes one normalization run.
type Config struct {
	SumstatsPath string
	OutputPath   string
	DBSNPDir     string
	ChainPath    string // required when Build is hg19
	PanelPath    string
	Build        string // declared input build: hg19 or hg38
	Orientation  string // panel policy: drop (default) or flip
	Workers      int    // 0 means NumCPU
	Force        bool   // overwrite existing output
	AllowEmpty   bool   // empty final output is a warning, not fatal
}

// Summary reports the per-stage counts and timings of a completed (or
// empty) run.
type Summary struct {
	Counters        qc.Counters
	LoadDuration    time.Duration
	ProcessDuration time.Duration
	WriteDuration   time.Duration
	TotalDuration   time.Duration
}

// Run executes the full pipeline. Per-record failures are counted, never
// fatal; resource and setup failures abort before any row is processed.
func Run(ctx context.Context, cfg Config, logger *zap.Logger) (*Summary, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	start := time.Now()

	if cfg.Build != TargetBuild && cfg.Build != SourceHg19 {
		return nil, fmt.Errorf("initial build is %q but must be %s or %s", cfg.Build, SourceHg19, TargetBuild)
	}
	policy, err := panel.ParsePolicy(cfg.Orientation)
	if err != nil {
		return nil, err
	}

	reader, err := sumstats.NewReader(cfg.SumstatsPath)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	logger.Info("sumstats opened",
		zap.String("path", cfg.SumstatsPath),
		zap.Strings("header", reader.Header()),
	)

	loadStart := time.Now()
	engine, err := loadResources(ctx, cfg, policy, logger)
	if err != nil {
		return nil, err
	}
	loadDur := time.Since(loadStart)

	// Stream rows to the workers; the producer owns the reader-side
	// counters (input row and malformed-row counts).
	processStart := time.Now()
	records := make(chan *sumstats.Record, 256)
	readerCounters := &qc.Counters{}
	var readErr error

	go func() {
		defer close(records)
		for {
			rec, err := reader.Next()
			if err != nil {
				var rowErr *sumstats.RowError
				if errors.As(err, &rowErr) {
					readerCounters.Input++
					readerCounters.MalformedRow++
					continue
				}
				readErr = err
				return
			}
			if rec == nil {
				return
			}
			readerCounters.Input++
			select {
			case records <- rec:
			case <-ctx.Done():
				readErr = ctx.Err()
				return
			}
		}
	}()

	survivors, merged := engine.ProcessParallel(records, cfg.Workers)

	var kept []*sumstats.Record
	for rec := range survivors {
		kept = append(kept, rec)
	}

	summary := &Summary{}
	summary.Counters.Merge(merged())
	summary.Counters.Merge(readerCounters)
	summary.LoadDuration = loadDur
	summary.ProcessDuration = time.Since(processStart)

	if readErr != nil {
		return summary, fmt.Errorf("read sumstats: %w", readErr)
	}

	// Deterministic output order regardless of worker scheduling.
	writeStart := time.Now()
	sortRecords(kept)
	if err := writeRecords(cfg, kept); err != nil {
		return summary, err
	}
	summary.WriteDuration = time.Since(writeStart)
	summary.TotalDuration = time.Since(start)

	logSummary(logger, summary)

	if summary.Counters.Output == 0 {
		err := &EmptyOutputError{Input: summary.Counters.Input}
		if cfg.AllowEmpty {
			logger.Warn("empty output", zap.String("detail", err.Error()))
		} else {
			return summary, err
		}
	}

	return summary, nil
}

// loadResources loads the reference index, chain mapping and panel. All
// three are immutable afterwards and shared read-only by the workers.
func loadResources(ctx context.Context, cfg Config, policy panel.OrientationPolicy, logger *zap.Logger) (*Engine, error) {
	index, err := dbsnp.Open(cfg.DBSNPDir)
	if err != nil {
		return nil, &ResourceError{Resource: "dbSNP index", Path: cfg.DBSNPDir, Err: err}
	}
	if err := index.Load(ctx); err != nil {
		return nil, &ResourceError{Resource: "dbSNP index", Path: cfg.DBSNPDir, Err: err}
	}
	logger.Info("dbSNP index loaded",
		zap.Int("rsids", index.Len()),
		zap.Int("files", len(index.Files())),
	)

	var mapper CoordinateMapper
	if cfg.Build != TargetBuild {
		chain, err := liftover.Load(cfg.ChainPath)
		if err != nil {
			return nil, &ResourceError{Resource: "chain mapping", Path: cfg.ChainPath, Err: err}
		}
		if !coversAutosomes(chain) {
			return nil, &ResourceError{
				Resource: "chain mapping",
				Path:     cfg.ChainPath,
				Err:      fmt.Errorf("chain covers no autosome; no mapping can proceed"),
			}
		}
		mapper = chain
		logger.Info("chain mapping loaded",
			zap.String("path", cfg.ChainPath),
			zap.Strings("chromosomes", chain.Chromosomes()),
		)
	}

	set, err := panel.Load(cfg.PanelPath)
	if err != nil {
		return nil, &ResourceError{Resource: "reference panel", Path: cfg.PanelPath, Err: err}
	}
	logger.Info("reference panel loaded", zap.Int("variants", set.Len()))

	return NewEngine(index, mapper, set, policy), nil
}

// coversAutosomes reports whether the chain maps at least one of chr1..22.
func coversAutosomes(chain *liftover.Chain) bool {
	for i := 1; i <= 22; i++ {
		if chain.HasChromosome(fmt.Sprintf("%d", i)) {
			return true
		}
	}
	return false
}

// sortRecords orders output ascending by chromosome 1..22, then position,
// then alleles, so repeated runs are byte-identical.
func sortRecords(recs []*sumstats.Record) {
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if ca, cb := a.Autosome(), b.Autosome(); ca != cb {
			return ca < cb
		}
		if a.Pos != b.Pos {
			return a.Pos < b.Pos
		}
		if a.Ref != b.Ref {
			return a.Ref < b.Ref
		}
		return a.Alt < b.Alt
	})
}

func writeRecords(cfg Config, recs []*sumstats.Record) error {
	w, err := output.Create(cfg.OutputPath, cfg.Force)
	if err != nil {
		return err
	}
	if err := w.WriteHeader(); err != nil {
		w.Close()
		return fmt.Errorf("write output header: %w", err)
	}
	for _, rec := range recs {
		if err := w.WriteRecord(rec); err != nil {
			w.Close()
			return fmt.Errorf("write output record: %w", err)
		}
	}
	return w.Close()
}
