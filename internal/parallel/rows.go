// Package parallel splits per-pixel passes into row bands processed by a
// fixed number of goroutines.
package parallel

import (
	"context"
	"runtime"
	"sync"
)

// Workers returns n when positive, otherwise the number of CPUs
func Workers(n int) int {
	if n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// Rows calls fn for every y in [0, height). Rows are handed out in contiguous
// bands, one per worker. The call returns after every band has finished; if
// ctx is cancelled the remaining rows are skipped and ctx.Err() is returned.
func Rows(ctx context.Context, height, workers int, fn func(y int)) error {
	if height <= 0 {
		return ctx.Err()
	}
	workers = Workers(workers)
	if workers > height {
		workers = height
	}

	if workers == 1 {
		for y := 0; y < height; y++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(y)
		}
		return nil
	}

	band := (height + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < height; start += band {
		end := min(start+band, height)
		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			for y := y0; y < y1; y++ {
				if ctx.Err() != nil {
					return
				}
				fn(y)
			}
		}(start, end)
	}
	wg.Wait()

	return ctx.Err()
}
