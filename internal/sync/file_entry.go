package sync

import (
	"time"
)

// Origin tells which side of the sync an entry was observed on.
type Origin string

const (
	OriginLocal  Origin = "local"
	OriginRemote Origin = "remote"
)

// FileEntry is one path's observable state on one side.
type FileEntry struct {
	// Path is the catalog key: slash-normalized and, for local files under
	// the flatten strategy, reduced to the base name.
	Path string

	// RelPath is the walk-relative path (local) or archive entry name
	// (remote). Uploads read file bytes through it, so it survives
	// flattening.
	RelPath string

	// AbsPath is the absolute on-disk path. Empty for remote entries.
	AbsPath string

	Size       int64
	ModifiedAt time.Time

	// ETag is the MD5 of the content. Empty for ignored entries, which are
	// never read.
	ETag string

	Origin Origin

	// RemoteID is the opaque handle needed to read this entry from the
	// remote side. Empty for local entries.
	RemoteID string
}

// Catalog is an immutable snapshot of one side, keyed by path. It is built
// at a single point in time and never updated in place.
type Catalog map[string]*FileEntry
