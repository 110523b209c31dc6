// parallel.go - Row-band fan-out for CPU-bound fills.
package generator

import (
	"runtime"
	"sync"
)

// minRowsPerBand keeps tiny images on the calling goroutine.
const minRowsPerBand = 64

// forEachRowBand splits [0, rows) into contiguous bands and runs fn on each
// band concurrently. Bands never overlap, so fn may write its rows freely.
func forEachRowBand(rows int, fn func(y0, y1 int)) {
	workers := min(runtime.GOMAXPROCS(0), rows/minRowsPerBand)
	if workers <= 1 {
		fn(0, rows)
		return
	}

	band := (rows + workers - 1) / workers
	var wg sync.WaitGroup
	for y0 := 0; y0 < rows; y0 += band {
		y1 := min(y0+band, rows)
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(y0, y1)
		}()
	}
	wg.Wait()
}
