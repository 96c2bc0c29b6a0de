// Package tree records the file digests of one archive together with a
// Merkle root that fingerprints the whole content.
package tree

import (
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/jmgilman/go/errors"
	merkletree "github.com/txaty/go-merkletree"

	"zipcmp/internal/archive"
	"zipcmp/internal/hash"
)

type FileData struct {
	Digest hash.Digest `json:"digest"`
	Size   int64       `json:"size"`
}

// Manifest describes the files of an archive. Two manifests with the same
// Root and Algorithm hold the same paths with the same digests.
type Manifest struct {
	Archive   string
	Algorithm hash.Algorithm
	Root      string
	TotalSize int64
	Files     map[string]FileData // path -> FileData
}

// leaf is one (path, digest) pair fed to the Merkle tree.
type leaf struct {
	path   string
	digest hash.Digest
}

func (l leaf) Serialize() ([]byte, error) {
	return []byte(l.path + "\x00" + string(l.digest)), nil
}

// Build creates the manifest of an archive from its file digests.
// Leaves are sorted by path so the root does not depend on map order.
func Build(files map[string]FileData, archivePath string, algo hash.Algorithm) (*Manifest, error) {
	paths := make([]string, 0, len(files))
	var totalSize int64
	for p, data := range files {
		paths = append(paths, p)
		totalSize += data.Size
	}
	sort.Strings(paths)

	root, err := rootOf(paths, files)
	if err != nil {
		return nil, err
	}

	return &Manifest{
		Archive:   archivePath,
		Algorithm: algo,
		Root:      hex.EncodeToString(root),
		TotalSize: totalSize,
		Files:     files,
	}, nil
}

func rootOf(paths []string, files map[string]FileData) ([]byte, error) {
	// go-merkletree needs at least two blocks.
	switch len(paths) {
	case 0:
		return hash.XXHashFunc([]byte("empty-archive"))
	case 1:
		data, _ := leaf{paths[0], files[paths[0]].Digest}.Serialize()
		return hash.XXHashFunc(data)
	}

	blocks := make([]merkletree.DataBlock, 0, len(paths))
	for _, p := range paths {
		blocks = append(blocks, leaf{path: p, digest: files[p].Digest})
	}

	t, err := merkletree.New(&merkletree.Config{
		HashFunc: hash.XXHashFunc,
		Mode:     merkletree.ModeTreeBuild,
	}, blocks)
	if err != nil {
		return nil, fmt.Errorf("failed to build merkle tree: %w", err)
	}
	return t.Root, nil
}

// Paths returns the file paths in lexical order.
func (m *Manifest) Paths() []string {
	paths := make([]string, 0, len(m.Files))
	for p := range m.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// IsFile reports whether the manifest lists a file at name.
func (m *Manifest) IsFile(name string) bool {
	_, ok := m.Files[archive.Clean(name)]
	return ok
}

// ReadAll always fails: a manifest holds digests, not content.
func (m *Manifest) ReadAll(name string) ([]byte, error) {
	return nil, errors.Newf(archive.CodeReadFailed, "manifest of %s holds no content for %s", m.Archive, name)
}

// Digest returns the recorded digest of name. It fails when the manifest
// was built with a different algorithm.
func (m *Manifest) Digest(name string, algo hash.Algorithm) (hash.Digest, error) {
	if algo != m.Algorithm {
		return "", errors.Newf(errors.CodeInvalidInput,
			"manifest of %s uses %s digests, not %s", m.Archive, m.Algorithm, algo)
	}
	data, ok := m.Files[archive.Clean(name)]
	if !ok {
		return "", errors.Newf(archive.CodeReadFailed, "%s not in manifest of %s", name, m.Archive)
	}
	return data.Digest, nil
}
