package normalize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwaskit/gwasnorm/internal/qc"
)

func TestRunLogPath(t *testing.T) {
	tests := []struct {
		output string
		want   string
	}{
		{"scores.tsv", "scores.log"},
		{"scores.tsv.gz", "scores.log"},
		{"scores.txt", "scores.log"},
		{"/data/out/height.tsv.gz", "/data/out/height.log"},
		{"results", "results.log"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RunLogPath(tt.output), tt.output)
	}
}

func TestNewRunLogger_WritesSummary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.log")

	logger, closeFn, err := NewRunLogger(path)
	require.NoError(t, err)

	s := &Summary{Counters: qc.Counters{Input: 10, Output: 7, LowMAF: 3}}
	logSummary(logger, s)
	closeFn()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	log := string(data)

	assert.Contains(t, log, "input read")
	assert.Contains(t, log, "run complete")
	assert.Contains(t, log, `"output_rows": 7`)
	assert.Contains(t, log, `"low_minor_allele_frequency": 3`)
}
