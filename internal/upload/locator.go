package upload

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// SearchFiles expands pattern relative to dir, or to the current working
// directory when dir is empty, and returns the matching regular files in
// lexical order. Returned paths are relative to dir unless pattern is
// absolute; use resolvePath to open them.
//
// The pattern syntax is that of filepath.Match: '*', '?' and character
// classes. An empty result is not an error.
func SearchFiles(dir, pattern string) ([]string, error) {
	root := dir
	if filepath.IsAbs(pattern) {
		root = ""
	}

	matches, err := filepath.Glob(filepath.Join(escapeMeta(root), pattern))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid pattern %q", pattern)
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		st, err := os.Stat(m)
		if err != nil {
			// vanished or dangling symlink
			slog.Debug("skipping unreadable match", "path", m, "error", err)
			continue
		}
		if st.IsDir() {
			slog.Debug("skipping directory", "path", m)
			continue
		}
		if root != "" {
			if rel, err := filepath.Rel(root, m); err == nil {
				m = rel
			}
		}
		files = append(files, m)
	}

	sort.Strings(files)
	return files, nil
}

// resolvePath returns the path of a SearchFiles result as seen from the
// current working directory.
func resolvePath(dir, p string) string {
	if dir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// escapeMeta quotes glob metacharacters in a literal directory name.
// filepath.Match has no escape character on Windows.
func escapeMeta(s string) string {
	if runtime.GOOS == "windows" || !strings.ContainsAny(s, `*?[\`) {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`*?[\`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
