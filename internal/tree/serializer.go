package tree

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jmgilman/go/errors"

	"zipcmp/internal/hash"
)

type SerializedManifest struct {
	Generator string              `json:"generator"`
	Created   time.Time           `json:"created"`
	Archive   string              `json:"archive"`
	Algorithm hash.Algorithm      `json:"algorithm"`
	Root      string              `json:"root"`
	Size      string              `json:"size"`
	Files     map[string]FileData `json:"files"`
}

func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

func Save(m *Manifest, path string) error {
	serialized := SerializedManifest{
		Generator: "zipcmp",
		Created:   time.Now(),
		Archive:   m.Archive,
		Algorithm: m.Algorithm,
		Root:      m.Root,
		Size:      formatSize(m.TotalSize),
		Files:     m.Files,
	}

	data, err := json.MarshalIndent(serialized, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// Load reads a manifest written by Save. The root is recomputed from the
// listed files and must match the stored one.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var serialized SerializedManifest
	if err := json.Unmarshal(data, &serialized); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidInput, "failed to unmarshal manifest")
	}

	algo, err := hash.Parse(string(serialized.Algorithm))
	if err != nil {
		return nil, err
	}

	files := serialized.Files
	if files == nil {
		files = make(map[string]FileData)
	}

	m, err := Build(files, serialized.Archive, algo)
	if err != nil {
		return nil, err
	}
	if m.Root != serialized.Root {
		return nil, errors.Newf(errors.CodeInvalidInput,
			"manifest %s is inconsistent: root %s does not match files (%s)", path, serialized.Root, m.Root)
	}

	return m, nil
}
