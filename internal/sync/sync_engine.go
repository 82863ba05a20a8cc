package sync

import (
	"time"
)

// modTimeTolerance is how close two timestamps must be to count as equal.
// Remote listing times lag the actual edit (the server's listing is
// eventually consistent), so anything tighter produces false changes. A
// remote edit made moments before a sync may therefore go unobserved until
// the next run; that is inherent to timestamp-based detection, not something
// a shorter tolerance should paper over.
const modTimeTolerance = time.Minute

// BaselineLookup provides the recorded state of a path at the end of the
// last successful run, if any. A nil lookup means stateless operation.
type BaselineLookup interface {
	Lookup(path string) *BaselineEntry
}

// Engine classifies every path in the union of the two catalogs into one
// decision. It performs no I/O and mutates neither catalog.
type Engine struct {
	matcher  *IgnoreMatcher
	baseline BaselineLookup
}

func NewEngine(matcher *IgnoreMatcher, baseline BaselineLookup) *Engine {
	return &Engine{
		matcher:  matcher,
		baseline: baseline,
	}
}

// Diff produces the full bidirectional plan. Every path in the union of
// both key sets is assigned exactly one decision; exclusion patterns win
// over every other classification.
func (e *Engine) Diff(local, remote Catalog) *Plan {
	plan := NewPlan()

	allPaths := make(map[string]struct{}, len(local)+len(remote))
	for path := range local {
		allPaths[path] = struct{}{}
	}
	for path := range remote {
		allPaths[path] = struct{}{}
	}

	for path := range allPaths {
		localEntry, localExists := local[path]
		remoteEntry, remoteExists := remote[path]

		op := &Operation{
			Path:   path,
			Local:  localEntry,
			Remote: remoteEntry,
		}

		switch {
		case e.isIgnored(path, localEntry):
			op.Decision = Ignored
		case localExists && !remoteExists:
			op.Decision = CreateRemote
		case !localExists && remoteExists:
			op.Decision = CreateLocal
		default:
			op.Decision = e.classifyBoth(path, localEntry, remoteEntry)
		}

		plan.Ops[path] = op
	}

	return plan
}

// isIgnored tests the path against the exclusion rules. Local entries are
// tested by their real relative path so directory patterns apply; the
// flattened key covers remote-only files mirrored into the namespace.
func (e *Engine) isIgnored(path string, localEntry *FileEntry) bool {
	if localEntry != nil && e.matcher.Matches(localEntry.RelPath) {
		return true
	}
	return e.matcher.Matches(path)
}

// classifyBoth handles paths present in both catalogs.
//
// Content equality decides NoOp outright. For changed content, the recorded
// baseline (when present) tells which side moved. Without a baseline only
// two signals exist, size and modification time: if exactly one of them
// diverged the change is attributable to the newer side, but when both
// diverge no winner may be picked silently, so the path is a conflict.
func (e *Engine) classifyBoth(path string, local, remote *FileEntry) Decision {
	if local.ETag != "" && remote.ETag != "" && local.ETag == remote.ETag {
		return NoOp
	}

	sameSize := local.Size == remote.Size
	delta := local.ModifiedAt.Sub(remote.ModifiedAt)
	sameTime := delta > -modTimeTolerance && delta < modTimeTolerance

	if sameSize && sameTime && (local.ETag == "" || remote.ETag == "") {
		// Metadata equal and content unknown on a side: treat as in sync.
		return NoOp
	}

	if b := e.lookupBaseline(path); b != nil {
		localChanged := local.ETag != b.Hash
		remoteChanged := remote.ETag != b.Hash
		switch {
		case localChanged && remoteChanged:
			return Conflict
		case localChanged:
			return UploadLocal
		case remoteChanged:
			return DownloadRemote
		default:
			return NoOp
		}
	}

	switch {
	case sameSize && !sameTime && delta > 0:
		return UploadLocal
	case sameSize && !sameTime && delta < 0:
		return DownloadRemote
	default:
		// Both signals diverged, or neither orders the change.
		return Conflict
	}
}

func (e *Engine) lookupBaseline(path string) *BaselineEntry {
	if e.baseline == nil {
		return nil
	}
	return e.baseline.Lookup(path)
}
