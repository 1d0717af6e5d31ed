// Package parallel provides the worker grid, the static work partitioner and
// the worker fan-out used by the tiled flip pipeline.
package parallel

import "sync"

// Run calls fn once for every worker of a that owns a non-empty range, each
// on its own goroutine, and waits for all of them.
//
// The returned slice is indexed like a.Workers; entry i is the error worker
// i returned, or nil. Workers with empty ranges are not started and report nil.
// A failing worker does not stop the others.
func Run(a *Assignment, fn func(w WorkerID, r Range) error) []error {
	errs := make([]error, len(a.Workers))

	var wg sync.WaitGroup
	for i, w := range a.Workers {
		r := a.Ranges[i]
		if r.Empty() {
			continue
		}
		wg.Add(1)
		go func(i int, w WorkerID, r Range) {
			defer wg.Done()
			errs[i] = fn(w, r)
		}(i, w, r)
	}
	wg.Wait()

	return errs
}

// Sequential is Run without goroutines, in enumeration order.
func Sequential(a *Assignment, fn func(w WorkerID, r Range) error) []error {
	errs := make([]error, len(a.Workers))
	for i, w := range a.Workers {
		if r := a.Ranges[i]; !r.Empty() {
			errs[i] = fn(w, r)
		}
	}
	return errs
}
