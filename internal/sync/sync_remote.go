package sync

import (
	"context"
	"time"
)

// RemoteFileInfo is the raw listing entry returned by a remote client.
type RemoteFileInfo struct {
	Path       string
	Size       int64
	ModifiedAt time.Time
	ETag       string
	ID         string
}

// RemoteClient is the transport the engine drives. List and Read are issued
// while building the catalog and downloading; Write creates or updates a
// remote file (flattening or mirroring is the client's concern).
type RemoteClient interface {
	List(ctx context.Context) ([]RemoteFileInfo, error)
	Read(ctx context.Context, id string) ([]byte, error)
	Write(ctx context.Context, relPath string, body []byte) error
}

// BuildRemoteCatalog normalizes a remote listing into a catalog snapshot.
// No ignore filtering happens here: exclusion is applied by the diff engine
// over the shared namespace.
func BuildRemoteCatalog(ctx context.Context, client RemoteClient) (Catalog, error) {
	listing, err := client.List(ctx)
	if err != nil {
		return nil, err
	}

	catalog := make(Catalog, len(listing))
	for _, f := range listing {
		catalog[f.Path] = &FileEntry{
			Path:       f.Path,
			RelPath:    f.Path,
			Size:       f.Size,
			ModifiedAt: f.ModifiedAt,
			ETag:       f.ETag,
			Origin:     OriginRemote,
			RemoteID:   f.ID,
		}
	}

	return catalog, nil
}
