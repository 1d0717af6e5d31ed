package parallel

import (
	"fmt"

	"github.com/pkg/errors"
)

// Range is a half-open range [Start, End) of unit indices.
type Range struct {
	Start, End int
}

// Len returns the number of units in the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Empty reports whether the range holds no units.
func (r Range) Empty() bool {
	return r.End <= r.Start
}

// String returns the range as "[start,end)".
func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// Assignment maps each worker to the contiguous range of units it owns.
//
// Workers[i] owns Ranges[i]. The first Group1 workers own UnitsGroup1 units
// each and the rest own UnitsGroup2 = UnitsGroup1-1 (or all own UnitsGroup2
// when the split is even, in which case Group1 is 0).
type Assignment struct {
	TotalUnits  int
	Workers     []WorkerID
	Ranges      []Range
	Group1      int
	UnitsGroup1 int
	UnitsGroup2 int
}

// PartitionError reports an Assignment that does not partition [0, TotalUnits).
// It indicates a defect in the partitioner, never bad input.
type PartitionError struct {
	Worker  int // Enumeration index of the offending worker, -1 if none
	Details string
}

// Error implements the error interface.
func (e *PartitionError) Error() string {
	if e.Worker >= 0 {
		return fmt.Sprintf("partition invariant violated at worker %d: %s", e.Worker, e.Details)
	}
	return "partition invariant violated: " + e.Details
}

// Split assigns totalUnits across numWorkers workers numbered 0..numWorkers-1.
func Split(totalUnits, numWorkers int) (*Assignment, error) {
	if numWorkers <= 0 {
		return nil, errors.Wrapf(ErrNoWorkers, "cannot split %d units across %d workers", totalUnits, numWorkers)
	}
	workers := make([]WorkerID, numWorkers)
	for i := range workers {
		workers[i] = WorkerID{Index: i, X: i}
	}
	return SplitWorkers(workers, totalUnits)
}

// SplitGrid assigns totalUnits across every worker g enumerates.
func SplitGrid(g WorkerGrid, totalUnits int) (*Assignment, error) {
	workers := g.Workers()
	if capacity := g.MaxWorkers(); len(workers) > capacity {
		workers = workers[:capacity]
	}
	return SplitWorkers(workers, totalUnits)
}

// SplitWorkers assigns totalUnits across workers in the given order.
//
// With base = totalUnits / n and remainder = totalUnits % n, the first
// remainder workers get base+1 units and the rest get base. Workers beyond
// totalUnits get empty ranges.
//
// Example:
//
//	SplitWorkers(3 workers, 10) → [0,4) [4,7) [7,10)
func SplitWorkers(workers []WorkerID, totalUnits int) (*Assignment, error) {
	n := len(workers)
	if n == 0 {
		return nil, errors.Wrapf(ErrNoWorkers, "cannot split %d units", totalUnits)
	}
	if totalUnits < 0 {
		return nil, errors.Wrapf(ErrNegativeUnits, "got %d", totalUnits)
	}

	base, remainder := totalUnits/n, totalUnits%n
	a := &Assignment{
		TotalUnits:  totalUnits,
		Workers:     append([]WorkerID(nil), workers...),
		Ranges:      make([]Range, n),
		Group1:      remainder,
		UnitsGroup2: base,
	}
	if remainder > 0 {
		a.UnitsGroup1 = base + 1
	}

	start := 0
	for i := range a.Ranges {
		size := base
		if i < remainder {
			size++
		}
		a.Ranges[i] = Range{Start: start, End: start + size}
		start += size
	}

	if err := a.Verify(); err != nil {
		panic(err)
	}
	return a, nil
}

// Verify checks that the ranges exactly partition [0, TotalUnits) in
// enumeration order and that sizes follow the two-group rule.
func (a *Assignment) Verify() error {
	if len(a.Ranges) != len(a.Workers) {
		return &PartitionError{Worker: -1, Details: fmt.Sprintf("%d ranges for %d workers", len(a.Ranges), len(a.Workers))}
	}

	next := 0
	for i, r := range a.Ranges {
		if r.Start != next {
			return &PartitionError{Worker: i, Details: fmt.Sprintf("range %s starts at %d, want %d", r, r.Start, next)}
		}
		if r.End < r.Start {
			return &PartitionError{Worker: i, Details: fmt.Sprintf("range %s is inverted", r)}
		}

		want := a.UnitsGroup2
		if i < a.Group1 {
			want = a.UnitsGroup1
		}
		if r.Len() != want {
			return &PartitionError{Worker: i, Details: fmt.Sprintf("range %s has %d units, want %d", r, r.Len(), want)}
		}
		next = r.End
	}

	if next != a.TotalUnits {
		return &PartitionError{Worker: -1, Details: fmt.Sprintf("ranges cover [0,%d), want [0,%d)", next, a.TotalUnits)}
	}
	return nil
}

// ActiveWorkers returns the number of workers owning at least one unit.
func (a *Assignment) ActiveWorkers() int {
	n := 0
	for _, r := range a.Ranges {
		if !r.Empty() {
			n++
		}
	}
	return n
}

// Owner returns the enumeration index of the worker owning unit u, or -1.
func (a *Assignment) Owner(u int) int {
	for i, r := range a.Ranges {
		if u >= r.Start && u < r.End {
			return i
		}
	}
	return -1
}
