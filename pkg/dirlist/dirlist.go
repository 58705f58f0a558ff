// Package dirlist enumerates the regular files of a directory, optionally
// filtered by extension. It is used to discover container files.
package dirlist

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ListFilenames returns the names (not paths) of the non-directory entries
// directly inside dir. If ext is not empty, only names whose extension equals
// ext exactly are returned; ext is given without the leading dot. Names that
// are not valid UTF-8 are skipped.
//
// The order of the result is unspecified.
func ListFilenames(dir string, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if !utf8.ValidString(name) {
			continue
		}
		if ext != "" && Extension(name) != ext {
			continue
		}
		if isDir(dir, entry) {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// Extension returns the part of name after its last dot, without the dot.
// A leading dot does not start an extension, so ".schema" has none.
func Extension(name string) string {
	base := filepath.Base(name)
	i := strings.LastIndexByte(base, '.')
	if i <= 0 {
		return ""
	}
	return base[i+1:]
}

// isDir follows symlinks; a dangling link counts as a file.
func isDir(dir string, entry fs.DirEntry) bool {
	if entry.Type()&fs.ModeSymlink == 0 {
		return entry.IsDir()
	}
	fi, err := os.Stat(filepath.Join(dir, entry.Name()))
	if err != nil {
		return false
	}
	return fi.IsDir()
}
