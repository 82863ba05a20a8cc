package sync

import (
	"path"
)

// NamespaceStrategy maps a local walk-relative path to the name it occupies
// in the shared sync namespace.
type NamespaceStrategy interface {
	// Key returns the catalog key for a local file.
	Key(relPath string) string
	// RemoteDir returns the remote folder an upload should land in, or ""
	// for the project root.
	RemoteDir(relPath string) string
}

// FlattenNamespace discards subdirectory segments: every local file maps to
// its base name at the project's top level. This is the default; most
// Overleaf projects keep their files flat.
type FlattenNamespace struct{}

func (FlattenNamespace) Key(relPath string) string       { return path.Base(relPath) }
func (FlattenNamespace) RemoteDir(relPath string) string { return "" }

// MirrorNamespace preserves subdirectory structure; uploads create matching
// remote folders.
type MirrorNamespace struct{}

func (MirrorNamespace) Key(relPath string) string { return relPath }

func (MirrorNamespace) RemoteDir(relPath string) string {
	dir := path.Dir(relPath)
	if dir == "." {
		return ""
	}
	return dir
}
