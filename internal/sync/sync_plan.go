package sync

import (
	"sort"
)

// Mode restricts which direction of the plan is executed. The restriction is
// a pure post-filter over the full bidirectional plan.
type Mode string

const (
	ModeBidirectional Mode = "sync"
	ModeLocalOnly     Mode = "local-only"
	ModeRemoteOnly    Mode = "remote-only"
)

// Plan maps every path in the union of both catalogs to its operation. It is
// built once per run and, after the resolver finalizes conflicts, immutable.
type Plan struct {
	Ops  map[string]*Operation
	Mode Mode
}

func NewPlan() *Plan {
	return &Plan{
		Ops:  make(map[string]*Operation),
		Mode: ModeBidirectional,
	}
}

// Paths returns the plan's keys in sorted order, for deterministic prompting
// and reporting.
func (p *Plan) Paths() []string {
	paths := make([]string, 0, len(p.Ops))
	for path := range p.Ops {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Conflicts returns the unresolved conflict operations, sorted by path.
func (p *Plan) Conflicts() []*Operation {
	var ops []*Operation
	for _, path := range p.Paths() {
		if p.Ops[path].Decision == Conflict {
			ops = append(ops, p.Ops[path])
		}
	}
	return ops
}

// Count returns how many operations carry the given decision.
func (p *Plan) Count(d Decision) int {
	n := 0
	for _, op := range p.Ops {
		if op.Decision == d {
			n++
		}
	}
	return n
}

// HasChanges reports whether any operation would touch either side.
func (p *Plan) HasChanges() bool {
	for _, op := range p.Ops {
		switch op.Decision {
		case NoOp, Ignored:
		default:
			return true
		}
	}
	return false
}

// ApplyMode degrades operations that would mutate the protected side to
// NoOp. Conflicts degrade too: a one-directional run must never pick a
// winner or touch the other side.
func (p *Plan) ApplyMode(mode Mode) {
	p.Mode = mode

	for _, op := range p.Ops {
		switch mode {
		case ModeLocalOnly:
			switch op.Decision {
			case DownloadRemote, CreateLocal, Conflict:
				op.Decision = NoOp
			}
		case ModeRemoteOnly:
			switch op.Decision {
			case UploadLocal, CreateRemote, Conflict:
				op.Decision = NoOp
			}
		}
	}
}
