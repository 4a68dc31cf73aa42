// Package pathsvc lists directory entries for path autocompletion.
package pathsvc

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Lister resolves suggestion queries against a root directory.
type Lister struct {
	// Root is what relative query paths are resolved against.
	Root string

	// Strict confines every resolved path to Root.
	Strict bool
}

// StripPath trims whitespace and one pair of surrounding double quotes,
// which is how paths pasted from a file manager tend to arrive.
func StripPath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimPrefix(p, `"`)
	p = strings.TrimSuffix(p, `"`)
	return p
}

// Resolve turns a query path into an absolute, cleaned path.
func (l Lister) Resolve(p string) (string, error) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(l.Root, p)
	}
	return filepath.Abs(p)
}

// IsSafe reports whether abs may be served. Outside strict mode every
// path is safe.
func (l Lister) IsSafe(abs string) bool {
	if !l.Strict {
		return true
	}

	root, err := filepath.Abs(l.Root)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// ParseExtensions splits a comma-separated extension list, lowercasing
// and dropping empty or malformed entries. A leading dot is allowed.
func ParseExtensions(csv string) []string {
	var out []string
	for _, ext := range strings.Split(csv, ",") {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext == "" || strings.ContainsAny(ext, `*?[]{}\/`) {
			continue
		}
		if !slices.Contains(out, ext) {
			out = append(out, ext)
		}
	}
	return out
}

// extensionPattern builds the doublestar pattern matching any of exts.
func extensionPattern(exts []string) string {
	if len(exts) == 1 {
		return "*." + exts[0]
	}
	return "*.{" + strings.Join(exts, ",") + "}"
}

// List returns the entries completing query. When query names a
// directory, its entries are listed; otherwise its parent is listed and
// the base name is used as a case-insensitive prefix. Directories come
// first and end in a slash. Files are kept only when their extension is
// in the filter; an empty filter keeps every file.
//
// A query that resolves to nothing, or to an unsafe path, yields an
// empty list rather than an error.
func (l Lister) List(query, extensions string) ([]string, error) {
	abs, err := l.Resolve(StripPath(query))
	if err != nil {
		return nil, err
	}

	dir, prefix := abs, ""
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		dir, prefix = filepath.Dir(abs), strings.ToLower(filepath.Base(abs))
	}

	if !l.IsSafe(dir) {
		return []string{}, nil
	}

	// Missing, unreadable, or not a directory at all: nothing to
	// suggest.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return []string{}, nil
	}

	var pattern string
	if exts := ParseExtensions(extensions); len(exts) > 0 {
		pattern = extensionPattern(exts)
	}

	dirs, files := []string{}, []string{}
	for _, e := range entries {
		name := e.Name()
		lower := strings.ToLower(name)
		if prefix != "" && !strings.HasPrefix(lower, prefix) {
			continue
		}

		isDir := e.IsDir()
		if e.Type()&fs.ModeSymlink != 0 {
			info, err := os.Stat(filepath.Join(dir, name))
			if err != nil {
				continue
			}
			isDir = info.IsDir()
		}

		if isDir {
			dirs = append(dirs, name+"/")
			continue
		}

		if pattern != "" {
			ok, err := doublestar.Match(pattern, lower)
			if err != nil || !ok {
				continue
			}
		}
		files = append(files, name)
	}

	// os.ReadDir already sorts by name.
	return append(dirs, files...), nil
}
