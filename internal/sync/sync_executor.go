package sync

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/olsync/olsync/internal/utils"
)

const defaultJobs = 4

// Executor applies a fully resolved plan against the remote client and the
// local filesystem. Per-path operations are independent; a failure on one
// path never aborts the others. The only cross-path coupling is the bounded
// worker count, which keeps the remote's connection limits respected.
type Executor struct {
	client   RemoteClient
	rootDir  string
	jobs     int
	baseline *BaselineStore // optional; records successful paths
}

func NewExecutor(client RemoteClient, rootDir string, jobs int, baseline *BaselineStore) *Executor {
	if jobs <= 0 {
		jobs = defaultJobs
	}
	return &Executor{
		client:   client,
		rootDir:  rootDir,
		jobs:     jobs,
		baseline: baseline,
	}
}

// Apply executes every operation in the plan and returns the per-path
// report. It refuses to run a plan that still contains conflicts.
func (e *Executor) Apply(ctx context.Context, plan *Plan) (*Report, error) {
	if ops := plan.Conflicts(); len(ops) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrConflictUnresolved, ops[0].Path)
	}

	report := NewReport()

	g := new(errgroup.Group)
	g.SetLimit(e.jobs)

	for _, path := range plan.Paths() {
		op := plan.Ops[path]

		switch op.Decision {
		case NoOp:
			report.add(&Outcome{Path: path, Decision: op.Decision, Status: StatusSkipped})
			continue
		case Ignored:
			report.add(&Outcome{Path: path, Decision: op.Decision, Status: StatusIgnored})
			continue
		}

		g.Go(func() error {
			outcome := e.execute(ctx, op)
			report.add(outcome)

			if outcome.Status == StatusFailed {
				slog.Error("sync", "op", op.Decision, "path", op.Path, "error", outcome.Err)
			} else {
				slog.Info("sync", "op", op.Decision, "path", op.Path, "size", outcome.Size)
			}
			// Worker errors stay in the report; returning nil keeps the
			// group from cancelling unrelated paths.
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}
	return report, nil
}

func (e *Executor) execute(ctx context.Context, op *Operation) *Outcome {
	outcome := &Outcome{Path: op.Path, Decision: op.Decision}

	var err error
	switch op.Decision {
	case UploadLocal, CreateRemote:
		err = e.upload(ctx, op, outcome)
	case DownloadRemote, CreateLocal:
		err = e.download(ctx, op, outcome)
	default:
		err = fmt.Errorf("unexpected decision %q", op.Decision)
	}

	if err != nil {
		outcome.Status = StatusFailed
		outcome.Err = err
		return outcome
	}

	outcome.Status = StatusSynced
	return outcome
}

func (e *Executor) upload(ctx context.Context, op *Operation, outcome *Outcome) error {
	body, err := os.ReadFile(op.Local.AbsPath)
	if err != nil {
		return fmt.Errorf("read local file: %w", err)
	}
	outcome.Size = int64(len(body))

	if err := e.client.Write(ctx, op.Local.RelPath, body); err != nil {
		return err
	}

	e.recordBaseline(op.Path, utils.BytesHash(body), int64(len(body)), op.Local.ModifiedAt)
	return nil
}

func (e *Executor) download(ctx context.Context, op *Operation, outcome *Outcome) error {
	body, err := e.client.Read(ctx, op.Remote.RemoteID)
	if err != nil {
		return err
	}
	outcome.Size = int64(len(body))

	target := e.localTarget(op)
	if err := writeLocalFile(target, body); err != nil {
		return fmt.Errorf("write local file: %w", err)
	}

	e.recordBaseline(op.Path, utils.BytesHash(body), int64(len(body)), time.Now())
	return nil
}

// localTarget picks where a download lands: the existing local file when one
// is there, otherwise the remote path mirrored under the project root.
func (e *Executor) localTarget(op *Operation) string {
	if op.Local != nil && op.Local.AbsPath != "" {
		return op.Local.AbsPath
	}
	return filepath.Join(e.rootDir, filepath.FromSlash(op.Remote.RelPath))
}

func (e *Executor) recordBaseline(path, hash string, size int64, modifiedAt time.Time) {
	if e.baseline == nil {
		return
	}
	if err := e.baseline.Set(&BaselineEntry{
		Path:       path,
		Hash:       hash,
		Size:       size,
		ModifiedAt: modifiedAt,
	}); err != nil {
		slog.Warn("baseline update failed", "path", path, "error", err)
	}
}
