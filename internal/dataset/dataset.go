package dataset

import (
	"sort"
	"sync/atomic"
	"time"

	"visadash/internal/core"
)

// Dataset is an immutable snapshot of the loaded petition records plus the
// distinct values the filter controls need. Build one with New and never
// mutate it; refreshes produce a new snapshot and swap it into a Holder.
type Dataset struct {
	records    []core.Record
	years      []int
	industries []string
	loadedAt   time.Time
}

// New copies records into a fresh snapshot and precomputes the distinct
// sorted years and industries.
func New(records []core.Record) *Dataset {
	owned := make([]core.Record, len(records))
	copy(owned, records)

	yearSet := make(map[int]struct{})
	for _, r := range owned {
		yearSet[r.Year] = struct{}{}
	}
	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Ints(years)

	return &Dataset{
		records:    owned,
		years:      years,
		industries: core.DistinctIndustries(owned),
		loadedAt:   time.Now(),
	}
}

// Records returns the underlying record slice. Callers treat it as
// read-only; aggregation never mutates records.
func (d *Dataset) Records() []core.Record {
	return d.records
}

// Years returns the distinct fiscal years present, ascending.
func (d *Dataset) Years() []int {
	out := make([]int, len(d.years))
	copy(out, d.years)
	return out
}

// Industries returns the distinct industry labels present, sorted.
func (d *Dataset) Industries() []string {
	out := make([]string, len(d.industries))
	copy(out, d.industries)
	return out
}

// Len returns the number of records in the snapshot.
func (d *Dataset) Len() int {
	return len(d.records)
}

// LoadedAt reports when the snapshot was built. The HTTP layer folds it into
// cache keys so a refresh naturally invalidates stale aggregation results.
func (d *Dataset) LoadedAt() time.Time {
	return d.loadedAt
}

// Holder hands the current snapshot to concurrent readers and lets the
// refresh consumer swap in a new one atomically.
type Holder struct {
	current atomic.Pointer[Dataset]
}

func NewHolder(d *Dataset) *Holder {
	h := &Holder{}
	h.current.Store(d)
	return h
}

// Get returns the current snapshot.
func (h *Holder) Get() *Dataset {
	return h.current.Load()
}

// Swap replaces the current snapshot. Requests already holding the old
// snapshot keep aggregating over it unchanged.
func (h *Holder) Swap(d *Dataset) {
	h.current.Store(d)
}
