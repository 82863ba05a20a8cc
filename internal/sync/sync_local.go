package sync

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/olsync/olsync/internal/utils"
)

// LocalScanner builds the local catalog by walking a project directory.
type LocalScanner struct {
	rootDir   string
	matcher   *IgnoreMatcher
	namespace NamespaceStrategy
	exclude   map[string]struct{} // absolute paths never cataloged
}

// NewLocalScanner creates a scanner rooted at rootDir. The paths in exclude
// (the session store, the baseline db) are sync infrastructure and are
// always skipped, regardless of ignore rules.
func NewLocalScanner(rootDir string, matcher *IgnoreMatcher, namespace NamespaceStrategy, exclude ...string) *LocalScanner {
	excluded := make(map[string]struct{}, len(exclude))
	for _, p := range exclude {
		if abs, err := utils.ResolvePath(p); err == nil {
			excluded[abs] = struct{}{}
		}
	}

	return &LocalScanner{
		rootDir:   rootDir,
		matcher:   matcher,
		namespace: namespace,
		exclude:   excluded,
	}
}

// Scan walks the tree and returns a catalog snapshot. Files matched by the
// ignore rules are cataloged but not hashed; the diff engine classifies them
// as Ignored. Symbolic links are not followed.
func (s *LocalScanner) Scan() (Catalog, error) {
	if !utils.DirExists(s.rootDir) {
		return nil, fmt.Errorf("project directory %q does not exist", s.rootDir)
	}

	catalog := make(Catalog)

	err := filepath.WalkDir(s.rootDir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("walk error: %w", walkErr)
		}

		if d.IsDir() || d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		abs, err := filepath.Abs(p)
		if err != nil {
			// Without an absolute path the exclusion check cannot run, and
			// cataloging the session store or baseline db must never happen.
			slog.Warn("skipping file with unresolvable path", "path", p, "error", err)
			return nil
		}
		if _, skip := s.exclude[abs]; skip {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			slog.Warn("failed to stat file", "path", p, "error", err)
			return nil
		}

		relPath, err := filepath.Rel(s.rootDir, p)
		if err != nil {
			return fmt.Errorf("walk rel path: %w", err)
		}
		relPath = utils.NormPath(relPath)

		entry := &FileEntry{
			Path:       s.namespace.Key(relPath),
			RelPath:    relPath,
			AbsPath:    p,
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
			Origin:     OriginLocal,
		}

		// Ignored files never have their bytes read.
		if !s.matcher.Matches(relPath) {
			etag, err := utils.FileHash(p)
			if err != nil {
				slog.Warn("failed to hash file", "path", p, "error", err)
				return nil
			}
			entry.ETag = etag
		}

		if prev, dup := catalog[entry.Path]; dup {
			slog.Warn("flattened name collision, last file wins",
				"key", entry.Path, "kept", entry.RelPath, "dropped", prev.RelPath)
		}
		catalog[entry.Path] = entry

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("local scan failed: %w", err)
	}

	return catalog, nil
}

// writeLocalFile writes downloaded bytes, creating parent directories.
func writeLocalFile(path string, data []byte) error {
	if err := utils.EnsureParent(path); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
