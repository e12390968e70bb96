package normalize

import (
	"runtime"
	"sync"

	"github.com/gwaskit/gwasnorm/internal/qc"
	"github.com/gwaskit/gwasnorm/internal/sumstats"
)

// ProcessParallel processes records using a pool of workers sharing the
// read-only Engine. Each worker owns a private counter set; Merged blocks
// until all workers finish and returns the combined counters. Survivors
// arrive on the returned channel in completion order - the writer sorts
// them, so ordering here does not matter.
// If workers is 0, runtime.NumCPU() is used.
func (e *Engine) ProcessParallel(records <-chan *sumstats.Record, workers int) (survivors <-chan *sumstats.Record, merged func() *qc.Counters) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	out := make(chan *sumstats.Record, 2*workers)
	subtotals := make([]*qc.Counters, workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for i := range workers {
		counters := &qc.Counters{}
		subtotals[i] = counters
		go func() {
			defer wg.Done()
			for rec := range records {
				if e.Process(rec, counters) {
					out <- rec
				}
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(out)
		close(done)
	}()

	merged = func() *qc.Counters {
		<-done
		total := &qc.Counters{}
		for _, c := range subtotals {
			total.Merge(c)
		}
		return total
	}

	return out, merged
}
