package sync

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrConflictUnresolved signals a Conflict entry that survived resolution.
// Executing it would silently pick a side, so it is treated as an internal
// invariant violation and aborts the run.
var ErrConflictUnresolved = errors.New("sync: unresolved conflict in plan")

// ConflictJudge decides the direction for one conflicting path. The engine
// can be driven by a terminal prompt, a fixed policy, or a test double.
type ConflictJudge interface {
	Judge(op *Operation) (Resolution, error)
}

// Resolver finalizes every Conflict entry in a plan. Decisions are
// independent; the order in which paths are judged does not matter, but a
// sorted order keeps interactive sessions deterministic.
type Resolver struct {
	judge ConflictJudge
}

func NewResolver(judge ConflictJudge) *Resolver {
	return &Resolver{judge: judge}
}

// Resolve blocks until every conflicting path has a decision. keep-local
// becomes UploadLocal, keep-remote becomes DownloadRemote, skip degrades to
// NoOp. After a successful return the plan holds no Conflict entries.
func (r *Resolver) Resolve(plan *Plan) error {
	for _, op := range plan.Conflicts() {
		resolution, err := r.judge.Judge(op)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", op.Path, err)
		}

		op.Resolution = resolution
		switch resolution {
		case KeepLocal:
			op.Decision = UploadLocal
		case KeepRemote:
			op.Decision = DownloadRemote
		case SkipPath:
			op.Decision = NoOp
		default:
			return fmt.Errorf("resolve %s: unknown resolution %q", op.Path, resolution)
		}

		slog.Info("conflict resolved", "path", op.Path, "resolution", resolution)
	}

	return nil
}

// PolicyJudge answers every conflict with a fixed resolution, for scripted
// runs.
type PolicyJudge struct {
	Policy Resolution
}

func (j *PolicyJudge) Judge(*Operation) (Resolution, error) {
	return j.Policy, nil
}
