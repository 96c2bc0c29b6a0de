// Package archive exposes a ZIP container as a read-only virtual filesystem.
//
// Paths are forward-slash separated and relative to the root ".". Directories
// that are only implied by the names of the files below them are reported the
// same way as explicit directory entries. When a name occurs more than once in
// the central directory, or names both a file and a directory, the first entry
// with that name wins.
package archive

import (
	"archive/zip"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/jmgilman/go/errors"
)

const (
	// CodeOpenFailed marks an archive that is missing, unreadable or malformed.
	CodeOpenFailed errors.ErrorCode = "ARCHIVE_OPEN_FAILED"

	// CodeReadFailed marks an entry that could not be read as a file.
	CodeReadFailed errors.ErrorCode = "ARCHIVE_READ_FAILED"
)

// Archive is an open ZIP container. It must be closed when no longer needed.
type Archive struct {
	path string
	rc   *zip.ReadCloser
}

// Open opens the ZIP container at path for reading.
func Open(path string) (*Archive, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		// Entries with unsafe names are hidden by the fs view, the rest of the
		// container stays usable.
		if rc == nil || !errors.Is(err, zip.ErrInsecurePath) {
			if rc != nil {
				_ = rc.Close()
			}
			return nil, errors.Wrapf(err, CodeOpenFailed, "failed to open archive %s", path)
		}
	}

	return &Archive{path: path, rc: rc}, nil
}

// Path returns the location the archive was opened from.
func (a *Archive) Path() string {
	return a.path
}

// Len returns the number of file entries in the container's central directory.
func (a *Archive) Len() int {
	n := 0
	for _, f := range a.rc.File {
		if !f.FileInfo().IsDir() {
			n++
		}
	}
	return n
}

// Close releases the underlying file.
func (a *Archive) Close() error {
	return a.rc.Close()
}

// Exists reports whether name is a file or a directory in the archive.
func (a *Archive) Exists(name string) bool {
	_, err := a.stat(name)
	return err == nil
}

// IsFile reports whether name is a regular file.
func (a *Archive) IsFile(name string) bool {
	info, err := a.stat(name)
	return err == nil && info.Mode().IsRegular()
}

// IsDir reports whether name is a directory.
func (a *Archive) IsDir(name string) bool {
	info, err := a.stat(name)
	return err == nil && info.IsDir()
}

// ListChildren returns the names of the immediate children of dir.
// Callers must not rely on the order.
func (a *Archive) ListChildren(dir string) ([]string, error) {
	dir = Clean(dir)
	entries, err := fs.ReadDir(&a.rc.Reader, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(err, errors.CodeNotFound, "directory %s not found in %s", dir, a.path)
		}
		// fs.ReadDir refuses directories holding duplicate names.
		if names := a.scanChildren(dir); len(names) > 0 {
			return names, nil
		}
		return nil, errors.Wrapf(err, CodeReadFailed, "failed to list %s in %s", dir, a.path)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

// ReadAll returns the full decompressed content of the file at name.
func (a *Archive) ReadAll(name string) ([]byte, error) {
	name = Clean(name)
	info, err := a.stat(name)
	if err != nil {
		return nil, errors.Wrapf(err, CodeReadFailed, "failed to read %s from %s", name, a.path)
	}
	if !info.Mode().IsRegular() {
		return nil, errors.Newf(CodeReadFailed, "%s in %s is not a file", name, a.path)
	}

	data, err := fs.ReadFile(&a.rc.Reader, name)
	if err != nil {
		if f := a.entry(name); f != nil {
			data, err = readEntry(f)
		}
	}
	if err != nil {
		return nil, errors.Wrapf(err, CodeReadFailed, "failed to read %s from %s", name, a.path)
	}
	return data, nil
}

func (a *Archive) stat(name string) (fs.FileInfo, error) {
	name = Clean(name)
	info, err := fs.Stat(&a.rc.Reader, name)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return info, err
	}
	if f := a.entry(name); f != nil {
		return f.FileInfo(), nil
	}
	return nil, err
}

// entry returns the first central directory entry named name.
func (a *Archive) entry(name string) *zip.File {
	for _, f := range a.rc.File {
		if Clean(f.Name) == name {
			return f
		}
	}
	return nil
}

// scanChildren lists the children of dir straight from the central directory.
func (a *Archive) scanChildren(dir string) []string {
	prefix := dir + "/"
	if dir == "." {
		prefix = ""
	}

	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, f := range a.rc.File {
		rest, ok := strings.CutPrefix(Clean(f.Name), prefix)
		if !ok || rest == "." {
			continue
		}
		child, _, _ := strings.Cut(rest, "/")
		if child != "" && !seen[child] {
			seen[child] = true
			names = append(names, child)
		}
	}
	return names
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Clean normalizes an archive path: no leading slash, no "./" prefix, no
// redundant separators. The root is ".".
func Clean(name string) string {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if name == "" {
		return "."
	}
	return name
}
