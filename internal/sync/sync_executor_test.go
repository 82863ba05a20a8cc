package sync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	stdsync "sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRemote records every call and serves canned file bodies.
type fakeRemote struct {
	mu     stdsync.Mutex
	files  map[string][]byte
	failOn map[string]error
	reads  []string
	writes []string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		files:  make(map[string][]byte),
		failOn: make(map[string]error),
	}
}

func (f *fakeRemote) List(ctx context.Context) ([]RemoteFileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var listing []RemoteFileInfo
	for path, body := range f.files {
		listing = append(listing, RemoteFileInfo{Path: path, Size: int64(len(body)), ID: path})
	}
	return listing, nil
}

func (f *fakeRemote) Read(ctx context.Context, id string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads = append(f.reads, id)
	if err := f.failOn[id]; err != nil {
		return nil, err
	}
	body, ok := f.files[id]
	if !ok {
		return nil, fmt.Errorf("no such file %s", id)
	}
	return body, nil
}

func (f *fakeRemote) Write(ctx context.Context, relPath string, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, relPath)
	if err := f.failOn[relPath]; err != nil {
		return err
	}
	f.files[relPath] = body
	return nil
}

func TestExecutor_UploadAndDownload(t *testing.T) {
	root := t.TempDir()
	localPath := writeFile(t, root, "main.tex", "local body")

	remote := newFakeRemote()
	remote.files["figure.png"] = []byte("png bytes")

	plan := NewPlan()
	plan.Ops["main.tex"] = &Operation{
		Path:     "main.tex",
		Decision: UploadLocal,
		Local:    &FileEntry{Path: "main.tex", RelPath: "main.tex", AbsPath: localPath, Origin: OriginLocal},
	}
	plan.Ops["figure.png"] = &Operation{
		Path:     "figure.png",
		Decision: CreateLocal,
		Remote:   &FileEntry{Path: "figure.png", RelPath: "figure.png", Origin: OriginRemote, RemoteID: "figure.png"},
	}

	report, err := NewExecutor(remote, root, 2, nil).Apply(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, 2, report.CountStatus(StatusSynced))
	assert.Equal(t, []byte("local body"), remote.files["main.tex"])

	got, err := os.ReadFile(filepath.Join(root, "figure.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("png bytes"), got)
}

func TestExecutor_DownloadCreatesParentDirs(t *testing.T) {
	root := t.TempDir()
	remote := newFakeRemote()
	remote.files["sections/intro.tex"] = []byte("intro")

	plan := NewPlan()
	plan.Ops["sections/intro.tex"] = &Operation{
		Path:     "sections/intro.tex",
		Decision: CreateLocal,
		Remote: &FileEntry{
			Path: "sections/intro.tex", RelPath: "sections/intro.tex",
			Origin: OriginRemote, RemoteID: "sections/intro.tex",
		},
	}

	_, err := NewExecutor(remote, root, 1, nil).Apply(context.Background(), plan)
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(root, "sections", "intro.tex"))
	require.NoError(t, err)
	assert.Equal(t, []byte("intro"), got)
}

func TestExecutor_DownloadOverwritesExistingLocalPath(t *testing.T) {
	root := t.TempDir()
	localPath := writeFile(t, root, "nested/report.tex", "stale")

	remote := newFakeRemote()
	remote.files["report.tex"] = []byte("fresh")

	// Flattened key: the remote knows the file by base name, locally it
	// lives in a subdirectory. The download must land on the existing file.
	plan := NewPlan()
	plan.Ops["report.tex"] = &Operation{
		Path:     "report.tex",
		Decision: DownloadRemote,
		Local:    &FileEntry{Path: "report.tex", RelPath: "nested/report.tex", AbsPath: localPath, Origin: OriginLocal},
		Remote:   &FileEntry{Path: "report.tex", RelPath: "report.tex", Origin: OriginRemote, RemoteID: "report.tex"},
	}

	_, err := NewExecutor(remote, root, 1, nil).Apply(context.Background(), plan)
	require.NoError(t, err)

	got, err := os.ReadFile(localPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("fresh"), got)
}

func TestExecutor_PartialFailureIsolation(t *testing.T) {
	root := t.TempDir()
	goodPath := writeFile(t, root, "good.tex", "ok")
	badPath := writeFile(t, root, "bad.tex", "nope")

	remote := newFakeRemote()
	remote.failOn["bad.tex"] = fmt.Errorf("server said no")

	plan := NewPlan()
	plan.Ops["good.tex"] = &Operation{
		Path: "good.tex", Decision: UploadLocal,
		Local: &FileEntry{Path: "good.tex", RelPath: "good.tex", AbsPath: goodPath},
	}
	plan.Ops["bad.tex"] = &Operation{
		Path: "bad.tex", Decision: UploadLocal,
		Local: &FileEntry{Path: "bad.tex", RelPath: "bad.tex", AbsPath: badPath},
	}

	report, err := NewExecutor(remote, root, 2, nil).Apply(context.Background(), plan)
	require.NoError(t, err, "per-path failures never abort the run")

	assert.Equal(t, 1, report.CountStatus(StatusSynced))
	assert.Equal(t, 1, report.Failed())
	require.NotNil(t, report.Outcome("bad.tex"))
	assert.ErrorContains(t, report.Outcome("bad.tex").Err, "server said no")
	assert.Equal(t, []byte("ok"), remote.files["good.tex"])
}

func TestExecutor_RefusesUnresolvedConflicts(t *testing.T) {
	plan := conflictPlan("report.tex")

	_, err := NewExecutor(newFakeRemote(), t.TempDir(), 1, nil).Apply(context.Background(), plan)
	assert.ErrorIs(t, err, ErrConflictUnresolved)
}

func TestExecutor_LocalOnlyNeverReadsRemote(t *testing.T) {
	root := t.TempDir()
	remote := newFakeRemote()
	remote.files["remote-only.tex"] = []byte("x")
	remote.files["clash.tex"] = []byte("r")
	clashPath := writeFile(t, root, "clash.tex", "l")

	plan := NewPlan()
	plan.Ops["remote-only.tex"] = &Operation{
		Path: "remote-only.tex", Decision: CreateLocal,
		Remote: &FileEntry{Path: "remote-only.tex", RelPath: "remote-only.tex", RemoteID: "remote-only.tex"},
	}
	plan.Ops["clash.tex"] = &Operation{
		Path: "clash.tex", Decision: Conflict,
		Local:  &FileEntry{Path: "clash.tex", RelPath: "clash.tex", AbsPath: clashPath},
		Remote: &FileEntry{Path: "clash.tex", RelPath: "clash.tex", RemoteID: "clash.tex"},
	}

	plan.ApplyMode(ModeLocalOnly)

	report, err := NewExecutor(remote, root, 2, nil).Apply(context.Background(), plan)
	require.NoError(t, err)

	assert.Empty(t, remote.reads, "protected-side operations must not touch the network")
	assert.Equal(t, 2, report.CountStatus(StatusSkipped))
	assert.NoFileExists(t, filepath.Join(root, "remote-only.tex"))
}

func TestExecutor_RecordsBaselineOnSuccess(t *testing.T) {
	root := t.TempDir()
	localPath := writeFile(t, root, "main.tex", "body")

	store := NewBaselineStore(filepath.Join(t.TempDir(), "baseline.db"))
	require.NoError(t, store.Open())
	defer store.Close()

	remote := newFakeRemote()
	plan := NewPlan()
	plan.Ops["main.tex"] = &Operation{
		Path: "main.tex", Decision: CreateRemote,
		Local: &FileEntry{Path: "main.tex", RelPath: "main.tex", AbsPath: localPath},
	}

	_, err := NewExecutor(remote, root, 1, store).Apply(context.Background(), plan)
	require.NoError(t, err)

	entry := store.Lookup("main.tex")
	require.NotNil(t, entry)
	assert.Equal(t, int64(len("body")), entry.Size)
	assert.NotEmpty(t, entry.Hash)
}

func TestBuildRemoteCatalog(t *testing.T) {
	remote := newFakeRemote()
	remote.files["main.tex"] = []byte("body")
	remote.files["figure.png"] = []byte("png")

	catalog, err := BuildRemoteCatalog(context.Background(), remote)
	require.NoError(t, err)

	require.Len(t, catalog, 2)
	assert.Equal(t, OriginRemote, catalog["main.tex"].Origin)
	assert.Equal(t, "main.tex", catalog["main.tex"].RemoteID)
	assert.Equal(t, int64(4), catalog["main.tex"].Size)
}
