package walker

import (
	"fmt"
	"path"
	"sort"
)

// Tree is the read-only view Walk needs. *archive.Archive satisfies it.
type Tree interface {
	ListChildren(dir string) ([]string, error)
	IsFile(name string) bool
	IsDir(name string) bool
}

// WalkResult holds the directories and files found by Walk, relative to the
// archive root.
type WalkResult struct {
	Dirs  []string
	Files []string
}

// Walk lists every directory and file below root. Both lists are sorted.
// Entries that are neither files nor directories are skipped.
func Walk(tree Tree, root string) (*WalkResult, error) {
	result := &WalkResult{
		Dirs:  make([]string, 0),
		Files: make([]string, 0),
	}

	pending := []string{root}
	for len(pending) > 0 {
		dir := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		children, err := tree.ListChildren(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
		}

		for _, name := range children {
			p := Join(dir, name)
			switch {
			case tree.IsFile(p):
				result.Files = append(result.Files, p)
			case tree.IsDir(p):
				result.Dirs = append(result.Dirs, p)
				pending = append(pending, p)
			}
		}
	}

	sort.Strings(result.Dirs)
	sort.Strings(result.Files)

	return result, nil
}

// Join returns the path of name inside dir. Children of the root "." get no
// prefix.
func Join(dir, name string) string {
	if dir == "." || dir == "" {
		return name
	}
	return path.Join(dir, name)
}
