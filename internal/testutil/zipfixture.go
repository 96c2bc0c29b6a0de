// Package testutil builds ZIP fixtures for tests.
package testutil

import (
	"archive/zip"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// Reference returns the contents of the reference archive used across the
// test suites: 11 files below the directories even, even/moultiplicityof6
// and prime.
func Reference() map[string]string {
	return map[string]string{
		"1":                              "one",
		"3":                              "three",
		"5.class":                        "\xca\xfe\xba\xbe five",
		"even/2":                         "two",
		"even/4":                         "four",
		"even/moultiplicityof6/6":        "six",
		"even/moultiplicityof6/12.class": "\xca\xfe\xba\xbe twelve",
		"prime/1":                        "one",
		"prime/2":                        "two",
		"prime/3":                        "three",
		"prime/5.class":                  "\xca\xfe\xba\xbe five",
	}
}

// ReferenceFiles returns the sorted file paths of Reference.
func ReferenceFiles() []string {
	return SortedKeys(Reference())
}

// ReferenceDirs returns the sorted directory paths of Reference.
func ReferenceDirs() []string {
	return []string{"even", "even/moultiplicityof6", "prime"}
}

// With returns a copy of files with the given entries set.
func With(files map[string]string, set map[string]string) map[string]string {
	out := make(map[string]string, len(files)+len(set))
	for k, v := range files {
		out[k] = v
	}
	for k, v := range set {
		out[k] = v
	}
	return out
}

// Without returns a copy of files with the given paths removed.
func Without(files map[string]string, remove ...string) map[string]string {
	out := make(map[string]string, len(files))
	for k, v := range files {
		out[k] = v
	}
	for _, k := range remove {
		delete(out, k)
	}
	return out
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WriteZip writes files to dir/name as a ZIP archive and returns its path.
// Entries are written in lexical order. When explicitDirs is set, a
// directory entry is written for every parent directory before its files.
func WriteZip(t *testing.T, dir, name string, files map[string]string, explicitDirs bool) string {
	t.Helper()

	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("Failed to create archive: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	written := make(map[string]bool)
	for _, entry := range SortedKeys(files) {
		if explicitDirs {
			parts := strings.Split(entry, "/")
			for i := 1; i < len(parts); i++ {
				d := strings.Join(parts[:i], "/") + "/"
				if written[d] {
					continue
				}
				if _, err := w.Create(d); err != nil {
					t.Fatalf("Failed to add directory %s: %v", d, err)
				}
				written[d] = true
			}
		}

		fw, err := w.Create(entry)
		if err != nil {
			t.Fatalf("Failed to add file %s: %v", entry, err)
		}
		if _, err := fw.Write([]byte(files[entry])); err != nil {
			t.Fatalf("Failed to write file %s: %v", entry, err)
		}
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Failed to finalize archive: %v", err)
	}
	return p
}

// WriteRaw writes each entry with the given header, so tests can build
// archives with symlinks or unusual names.
func WriteRaw(t *testing.T, dir, name string, headers []*zip.FileHeader, contents []string) string {
	t.Helper()

	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("Failed to create archive: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for i, h := range headers {
		fw, err := w.CreateHeader(h)
		if err != nil {
			t.Fatalf("Failed to add %s: %v", h.Name, err)
		}
		if _, err := fw.Write([]byte(contents[i])); err != nil {
			t.Fatalf("Failed to write %s: %v", h.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to finalize archive: %v", err)
	}
	return p
}
