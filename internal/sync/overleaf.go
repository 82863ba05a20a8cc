package sync

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	stdsync "sync"

	"github.com/olsync/olsync/internal/olsdk"
	"github.com/olsync/olsync/internal/utils"
)

// OverleafRemote adapts the Overleaf SDK to the RemoteClient interface. The
// remote listing is the project's zip archive, downloaded once per run and
// served from memory; uploads go through the fine-uploader endpoint into the
// folder the namespace strategy dictates.
type OverleafRemote struct {
	sdk       *olsdk.Client
	project   *olsdk.Project
	namespace NamespaceStrategy

	mu      stdsync.Mutex
	archive *zip.Reader
	info    *olsdk.ProjectInfo

	folderMu stdsync.Mutex
	folders  map[string]string // remote dir -> folder id
}

func NewOverleafRemote(sdk *olsdk.Client, project *olsdk.Project, namespace NamespaceStrategy) *OverleafRemote {
	return &OverleafRemote{
		sdk:       sdk,
		project:   project,
		namespace: namespace,
	}
}

// List downloads the project archive and normalizes its entries. Entry
// timestamps come from the archive; entries without one fall back to the
// project-level last-updated time.
func (r *OverleafRemote) List(ctx context.Context) ([]RemoteFileInfo, error) {
	archive, err := r.getArchive(ctx)
	if err != nil {
		return nil, err
	}

	var listing []RemoteFileInfo
	for _, f := range archive.File {
		if f.FileInfo().IsDir() {
			continue
		}

		body, err := readZipEntry(f)
		if err != nil {
			return nil, fmt.Errorf("read archive entry %s: %w", f.Name, err)
		}

		modifiedAt := f.Modified
		if modifiedAt.IsZero() {
			modifiedAt = r.project.LastUpdated
		}

		listing = append(listing, RemoteFileInfo{
			Path:       f.Name,
			Size:       int64(len(body)),
			ModifiedAt: modifiedAt,
			ETag:       utils.BytesHash(body),
			ID:         f.Name,
		})
	}

	return listing, nil
}

// Read returns the bytes of one archive entry; id is the entry name.
func (r *OverleafRemote) Read(ctx context.Context, id string) ([]byte, error) {
	archive, err := r.getArchive(ctx)
	if err != nil {
		return nil, err
	}

	for _, f := range archive.File {
		if f.Name == id {
			return readZipEntry(f)
		}
	}
	return nil, fmt.Errorf("remote file %q not in project archive", id)
}

// Write uploads a file. Under the flatten strategy everything lands in the
// project root under its base name; the mirror strategy creates matching
// remote folders first.
func (r *OverleafRemote) Write(ctx context.Context, relPath string, body []byte) error {
	info, err := r.getProjectInfo(ctx)
	if err != nil {
		return err
	}

	folderID := info.RootFolderID()
	if dir := r.namespace.RemoteDir(relPath); dir != "" {
		folderID, err = r.ensureFolder(ctx, info, dir)
		if err != nil {
			return err
		}
	}

	return r.sdk.Upload(ctx, r.project.ProjectID(), folderID, path.Base(relPath), body)
}

// ensureFolder serializes remote folder creation; concurrent uploads into
// the same directory must not race the folder endpoint.
func (r *OverleafRemote) ensureFolder(ctx context.Context, info *olsdk.ProjectInfo, dir string) (string, error) {
	r.folderMu.Lock()
	defer r.folderMu.Unlock()

	if r.folders == nil {
		r.folders = make(map[string]string)
	}
	if id, ok := r.folders[dir]; ok {
		return id, nil
	}

	id, err := r.sdk.EnsureFolder(ctx, r.project.ProjectID(), info, dir)
	if err != nil {
		return "", err
	}
	r.folders[dir] = id
	return id, nil
}

// getArchive downloads the project zip on first use.
func (r *OverleafRemote) getArchive(ctx context.Context) (*zip.Reader, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.archive != nil {
		return r.archive, nil
	}

	raw, err := r.sdk.DownloadZip(ctx, r.project.ProjectID())
	if err != nil {
		return nil, fmt.Errorf("download project: %w", err)
	}

	archive, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("open project archive: %w", err)
	}

	r.archive = archive
	return archive, nil
}

// getProjectInfo joins the project over the realtime channel on first
// upload; the folder tree and root folder id come from there.
func (r *OverleafRemote) getProjectInfo(ctx context.Context) (*olsdk.ProjectInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.info != nil {
		return r.info, nil
	}

	info, err := r.sdk.JoinProject(ctx, r.project.ProjectID())
	if err != nil {
		return nil, fmt.Errorf("join project: %w", err)
	}

	r.info = info
	return info, nil
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
