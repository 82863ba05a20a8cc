package sync

import (
	"fmt"
	"io"
	"sort"
	stdsync "sync"

	"github.com/dustin/go-humanize"
)

// Status is the per-path outcome of an executed plan.
type Status string

const (
	StatusSynced  Status = "synced"
	StatusSkipped Status = "skipped"
	StatusIgnored Status = "ignored"
	StatusFailed  Status = "failed"
)

// Outcome is one path's result.
type Outcome struct {
	Path     string
	Decision Decision
	Status   Status
	Size     int64
	Err      error
}

// Report accumulates per-path outcomes. It is safe for concurrent writers;
// the executor's workers record results directly.
type Report struct {
	mu       stdsync.Mutex
	outcomes map[string]*Outcome
}

func NewReport() *Report {
	return &Report{
		outcomes: make(map[string]*Outcome),
	}
}

func (r *Report) add(o *Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[o.Path] = o
}

// Outcome returns the recorded result for a path, or nil.
func (r *Report) Outcome(path string) *Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcomes[path]
}

// CountStatus returns how many paths ended with the given status.
func (r *Report) CountStatus(s Status) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, o := range r.outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Failed returns the number of per-path failures.
func (r *Report) Failed() int {
	return r.CountStatus(StatusFailed)
}

// Print writes every per-path outcome and a summary line.
func (r *Report) Print(w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	paths := make([]string, 0, len(r.outcomes))
	for path := range r.outcomes {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var synced, skipped, ignored, failed int
	for _, path := range paths {
		o := r.outcomes[path]
		switch o.Status {
		case StatusSynced:
			synced++
			fmt.Fprintf(w, "  %-10s %s (%s, %s)\n", o.Decision, o.Path, humanize.Bytes(uint64(o.Size)), o.Status)
		case StatusFailed:
			failed++
			fmt.Fprintf(w, "  %-10s %s: %v\n", o.Decision, o.Path, o.Err)
		case StatusSkipped:
			skipped++
		case StatusIgnored:
			ignored++
		}
	}

	fmt.Fprintf(w, "\n%d synced, %d unchanged, %d ignored, %d failed\n", synced, skipped, ignored, failed)
}
