package tree

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zipcmp/internal/archive"
	"zipcmp/internal/hash"
)

func TestBuild_EmptyFiles(t *testing.T) {
	m, err := Build(map[string]FileData{}, "empty.zip", hash.Default)
	require.NoError(t, err)

	assert.NotEmpty(t, m.Root, "Root hash should not be empty even for empty archive")
	assert.Empty(t, m.Paths())
}

func TestBuild_SingleFile(t *testing.T) {
	files := map[string]FileData{
		"file1.txt": {Digest: "abc123", Size: 100},
	}

	m, err := Build(files, "one.zip", hash.Default)
	require.NoError(t, err)

	assert.NotEmpty(t, m.Root)
	assert.Len(t, m.Files, 1)
	assert.Equal(t, int64(100), m.TotalSize)
}

func TestBuild_MultipleFiles(t *testing.T) {
	files := map[string]FileData{
		"file1.txt":     {Digest: "hash1", Size: 100},
		"dir/file2.txt": {Digest: "hash2", Size: 200},
		"dir/file3.txt": {Digest: "hash3", Size: 300},
	}

	m, err := Build(files, "three.zip", hash.Default)
	require.NoError(t, err)

	assert.NotEmpty(t, m.Root)
	assert.Equal(t, int64(600), m.TotalSize)
	assert.Equal(t, []string{"dir/file2.txt", "dir/file3.txt", "file1.txt"}, m.Paths())
}

func TestBuild_Deterministic(t *testing.T) {
	files := map[string]FileData{
		"file1.txt": {Digest: "hash1", Size: 100},
		"file2.txt": {Digest: "hash2", Size: 200},
		"file3.txt": {Digest: "hash3", Size: 300},
	}

	m1, err := Build(files, "a.zip", hash.Default)
	require.NoError(t, err)
	m2, err := Build(files, "b.zip", hash.Default)
	require.NoError(t, err)

	assert.Equal(t, m1.Root, m2.Root, "Same input should produce same root hash")
}

func TestBuild_DifferentInputsDifferentHash(t *testing.T) {
	base := map[string]FileData{
		"file1.txt": {Digest: "hash1"},
		"file2.txt": {Digest: "hash2"},
	}
	renamed := map[string]FileData{
		"file1.txt": {Digest: "hash1"},
		"file3.txt": {Digest: "hash2"},
	}
	changed := map[string]FileData{
		"file1.txt": {Digest: "hash1"},
		"file2.txt": {Digest: "hash9"},
	}

	m, err := Build(base, "a.zip", hash.Default)
	require.NoError(t, err)
	for _, other := range []map[string]FileData{renamed, changed} {
		o, err := Build(other, "b.zip", hash.Default)
		require.NoError(t, err)
		assert.NotEqual(t, m.Root, o.Root, "Different inputs should produce different root hashes")
	}
}

func TestManifest_Source(t *testing.T) {
	m, err := Build(map[string]FileData{
		"prime/3": {Digest: "d3"},
		"1":       {Digest: "d1"},
	}, "ref.zip", hash.MD5)
	require.NoError(t, err)

	assert.True(t, m.IsFile("prime/3"))
	assert.True(t, m.IsFile("./prime/3"))
	assert.False(t, m.IsFile("prime/7"))

	d, err := m.Digest("1", hash.MD5)
	require.NoError(t, err)
	assert.Equal(t, hash.Digest("d1"), d)

	_, err = m.Digest("1", hash.XXHash)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = m.Digest("prime/7", hash.MD5)
	require.Error(t, err)
	assert.Equal(t, archive.CodeReadFailed, errors.GetCode(err))

	_, err = m.ReadAll("1")
	require.Error(t, err)
	assert.Equal(t, archive.CodeReadFailed, errors.GetCode(err))
}

func TestSaveLoad(t *testing.T) {
	m, err := Build(map[string]FileData{
		"a":   {Digest: "da", Size: 1},
		"b/c": {Digest: "dc", Size: 2048},
	}, "ref.zip", hash.SHA256)
	require.NoError(t, err)

	p := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, Save(m, p))

	raw, err := os.ReadFile(p)
	require.NoError(t, err)
	var serialized SerializedManifest
	require.NoError(t, json.Unmarshal(raw, &serialized))
	assert.Equal(t, "zipcmp", serialized.Generator)
	assert.Equal(t, "2.00 KB", serialized.Size)

	loaded, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, m.Root, loaded.Root)
	assert.Equal(t, m.Files, loaded.Files)
	assert.Equal(t, hash.SHA256, loaded.Algorithm)
	assert.Equal(t, "ref.zip", loaded.Archive)
}

func TestLoad_Tampered(t *testing.T) {
	m, err := Build(map[string]FileData{
		"a": {Digest: "da"},
		"b": {Digest: "db"},
	}, "ref.zip", hash.Default)
	require.NoError(t, err)

	p := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, Save(m, p))

	raw, err := os.ReadFile(p)
	require.NoError(t, err)
	var serialized SerializedManifest
	require.NoError(t, json.Unmarshal(raw, &serialized))
	serialized.Files["b"] = FileData{Digest: "changed"}
	raw, err = json.Marshal(serialized)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(p, raw, 0644))

	_, err = Load(p)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestLoad_Invalid(t *testing.T) {
	p := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, os.WriteFile(p, []byte("{not json"), 0644))

	_, err := Load(p)
	require.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "12 B", formatSize(12))
	assert.Equal(t, "1.50 KB", formatSize(1536))
	assert.Equal(t, "2.00 MB", formatSize(2*1024*1024))
	assert.Equal(t, "1.00 GB", formatSize(1024*1024*1024))
}
