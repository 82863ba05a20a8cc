package sync

import (
	"bufio"
	"log/slog"
	"os"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// IgnoreMatcher tests paths against gitignore-style exclusion patterns:
// literal fragments, `*`/`**` globs, `!` negation, trailing `/` for
// directories, `#` comments. Later patterns override earlier ones.
type IgnoreMatcher struct {
	ignore *gitignore.GitIgnore
	rules  int
}

// NewIgnoreMatcher compiles a list of pattern lines. Blank lines, comments
// and unusable lines are skipped; a broken pattern is never fatal.
func NewIgnoreMatcher(lines []string) *IgnoreMatcher {
	patterns := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if trimmed == "!" || trimmed == "/" || strings.TrimLeft(trimmed, "!/") == "" {
			slog.Warn("skipping unusable ignore pattern", "pattern", line)
			continue
		}
		patterns = append(patterns, trimmed)
	}

	return &IgnoreMatcher{
		ignore: gitignore.CompileIgnoreLines(patterns...),
		rules:  len(patterns),
	}
}

// LoadIgnoreFile reads pattern lines from an ignore file and compiles them.
// A missing file yields a matcher that ignores nothing; the sync then covers
// every file.
func LoadIgnoreFile(path string) (*IgnoreMatcher, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("no ignore file, syncing all files", "path", path)
			return NewIgnoreMatcher(nil), nil
		}
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	m := NewIgnoreMatcher(lines)
	slog.Info("loaded ignore file", "path", path, "rules", m.rules)
	return m, nil
}

// Matches reports whether path is excluded.
func (m *IgnoreMatcher) Matches(path string) bool {
	if m == nil || m.ignore == nil {
		return false
	}
	return m.ignore.MatchesPath(path)
}

// Rules returns the number of compiled patterns.
func (m *IgnoreMatcher) Rules() int {
	if m == nil {
		return 0
	}
	return m.rules
}
