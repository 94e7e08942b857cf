package bdd2yolo

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// filesByExtInDir returns all regular files with file extension ext found directly in directory
// dirPath, sorted by file name. All files are returned if ext is empty.
func filesByExtInDir(dirPath, ext string) ([]string, error) {
	dirInfo, err := os.Stat(dirPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read directory %q: %w", dirPath, err)
	}
	if !dirInfo.IsDir() {
		return nil, fmt.Errorf("cannot read directory %q: not a directory", dirPath)
	}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access %q: %w", dirPath, err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		// Must be a regular file or a symlink and have the requested extension/suffix.
		if (!e.Type().IsRegular() && e.Type()&os.ModeSymlink == 0) || !strings.HasSuffix(name, ext) {
			continue
		}
		files = append(files, name)
	}

	// Callers rely on name order.
	sort.Strings(files)
	for i, name := range files {
		files[i] = filepath.Join(dirPath, name)
	}

	return files, nil
}

// splitExt splits the base name of path into the name without extension and the extension
// (including the dot). Leading dots never start an extension, so ".hidden" has none.
func splitExt(path string) (baseNoExt, ext string) {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		return "", ""
	}

	i := strings.LastIndexByte(base, '.')
	if i <= 0 || strings.TrimLeft(base[:i], ".") == "" {
		return base, ""
	}
	return base[:i], base[i:]
}

// stem returns the base name of path with the last extension removed.
func stem(path string) string {
	baseNoExt, _ := splitExt(path)
	return baseNoExt
}

// sameDir reports whether a and b name the same directory after cleaning.
func sameDir(a, b string) bool {
	return a != "" && filepath.Clean(a) == filepath.Clean(b)
}

// readFile reads the whole file at path.
func readFile(path string) (data []byte, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer closeWithErrCheck(f, &err)

	return io.ReadAll(f)
}

// closeWithErrCheck calls c.Close(). If it returns an error, and (*e == nil), e is set to that
// error.
func closeWithErrCheck(c io.Closer, e *error) {
	err := c.Close()
	if err != nil && *e == nil {
		*e = err
	}
}
