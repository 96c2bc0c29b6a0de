// Package compare partitions the files of two ZIP archives into identical and
// different sets by content digest.
package compare

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"zipcmp/internal/archive"
	"zipcmp/internal/hash"
	"zipcmp/internal/walker"
)

type ChangeType string

const (
	Added    ChangeType = "ADDED"
	Modified ChangeType = "MODIFIED"
	Deleted  ChangeType = "DELETED"
)

// Change describes one different file, seen from the first archive towards
// the second. OldDigest is empty for additions, NewDigest for deletions.
type Change struct {
	Type      ChangeType  `json:"type"`
	Path      string      `json:"path"`
	OldDigest hash.Digest `json:"old_digest,omitempty"`
	NewDigest hash.Digest `json:"new_digest,omitempty"`
}

// Result is the partition produced by a comparison. Identical and Different
// are disjoint and together hold every file of both archives.
type Result struct {
	Identical []string `json:"identical"`
	Different []string `json:"different"`
	Changes   []Change `json:"changes"`
	Dirs1     []string `json:"dirs1,omitempty"`
	Dirs2     []string `json:"dirs2,omitempty"`
}

func (r *Result) HasChanges() bool {
	return len(r.Different) > 0
}

// ChangesOf returns the changes of the given type in classification order.
func (r *Result) ChangesOf(t ChangeType) []Change {
	out := make([]Change, 0)
	for _, c := range r.Changes {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

// Source is the part of an archive CompareFiles reads from. IsFile must be
// false for directories, so a path that is a file on one side and a
// directory on the other is classified as different.
type Source interface {
	IsFile(name string) bool
	ReadAll(name string) ([]byte, error)
}

type digestPair struct {
	d1 hash.Digest
	d2 hash.Digest
}

// CompareFiles classifies files1 and files2. A path of files1 that is not a
// file in s2, or whose digests differ, is different, otherwise identical. A
// path of files2 that is not a file in s1 is different. The first pass follows the order of files1,
// the additions that follow keep the order of files2.
func CompareFiles(ctx context.Context, s1 Source, files1 []string, s2 Source, files2 []string, opts ...Option) (*Result, error) {
	o := newOptions(opts)

	inBoth := make([]bool, len(files1))
	common := make([]string, 0, len(files1))
	for i, p := range files1 {
		if s2.IsFile(p) {
			inBoth[i] = true
			common = append(common, p)
		}
	}

	digests, err := digestPairs(ctx, o, s1, s2, common)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Identical: make([]string, 0),
		Different: make([]string, 0),
		Changes:   make([]Change, 0),
	}

	next := 0
	for i, p := range files1 {
		if !inBoth[i] {
			result.Different = append(result.Different, p)
			result.Changes = append(result.Changes, Change{Type: Deleted, Path: p})
			continue
		}

		d := digests[next]
		next++
		if d.d1 == d.d2 {
			result.Identical = append(result.Identical, p)
		} else {
			result.Different = append(result.Different, p)
			result.Changes = append(result.Changes, Change{Type: Modified, Path: p, OldDigest: d.d1, NewDigest: d.d2})
		}
	}

	for _, p := range files2 {
		if !s1.IsFile(p) {
			result.Different = append(result.Different, p)
			result.Changes = append(result.Changes, Change{Type: Added, Path: p})
		}
	}

	o.logger.Debug("classified files",
		"identical", len(result.Identical),
		"different", len(result.Different),
		"algorithm", string(o.algorithm))

	return result, nil
}

// digestPairs digests every path in both sources. The result is index
// aligned with paths.
func digestPairs(ctx context.Context, o *options, s1, s2 Source, paths []string) ([]digestPair, error) {
	pairs := make([]digestPair, len(paths))
	if o.progress != nil {
		o.progress.SetTotal(int64(len(paths)))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			d1, err := digest(o.algorithm, s1, p)
			if err != nil {
				return err
			}
			d2, err := digest(o.algorithm, s2, p)
			if err != nil {
				return err
			}
			pairs[i] = digestPair{d1: d1, d2: d2}

			if o.progress != nil {
				o.progress.Done(p)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pairs, nil
}

// Digester is implemented by sources that already know their digests.
type Digester interface {
	Digest(name string, algo hash.Algorithm) (hash.Digest, error)
}

func digest(algo hash.Algorithm, s Source, name string) (hash.Digest, error) {
	if d, ok := s.(Digester); ok {
		return d.Digest(name, algo)
	}
	data, err := s.ReadAll(name)
	if err != nil {
		return "", err
	}
	return algo.Sum(data)
}

// Compare opens both archives, lists their files from the root and
// classifies them with CompareFiles. Both archives are closed before Compare
// returns.
func Compare(ctx context.Context, path1, path2 string, opts ...Option) (*Result, error) {
	o := newOptions(opts)

	a1, err := archive.Open(path1)
	if err != nil {
		return nil, err
	}
	defer a1.Close()

	a2, err := archive.Open(path2)
	if err != nil {
		return nil, err
	}
	defer a2.Close()

	w1, err := walker.Walk(a1, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate %s: %w", path1, err)
	}
	logEnumerated(o, a1, w1)

	w2, err := walker.Walk(a2, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate %s: %w", path2, err)
	}
	logEnumerated(o, a2, w2)

	result, err := CompareFiles(ctx, a1, w1.Files, a2, w2.Files, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to compare %s and %s: %w", path1, path2, err)
	}
	result.Dirs1 = w1.Dirs
	result.Dirs2 = w2.Dirs

	return result, nil
}

func logEnumerated(o *options, a *archive.Archive, w *walker.WalkResult) {
	o.logger.Debug("enumerated archive",
		"path", a.Path(),
		"entries", a.Len(),
		"dirs", len(w.Dirs),
		"files", len(w.Files))
}

// FormatReport renders result as a human readable report.
func FormatReport(result *Result) string {
	if !result.HasChanges() {
		return fmt.Sprintf("No changes detected (%d identical files).", len(result.Identical))
	}

	var b strings.Builder
	b.WriteString("Changes detected:\n\n")

	added := result.ChangesOf(Added)
	modified := result.ChangesOf(Modified)
	deleted := result.ChangesOf(Deleted)

	if len(added) > 0 {
		fmt.Fprintf(&b, "ADDED (%d files):\n", len(added))
		for _, change := range added {
			fmt.Fprintf(&b, "  + %s\n", change.Path)
		}
		b.WriteString("\n")
	}

	if len(modified) > 0 {
		fmt.Fprintf(&b, "MODIFIED (%d files):\n", len(modified))
		for _, change := range modified {
			fmt.Fprintf(&b, "  ~ %s\n", change.Path)
			fmt.Fprintf(&b, "    Old: %s\n", change.OldDigest)
			fmt.Fprintf(&b, "    New: %s\n", change.NewDigest)
		}
		b.WriteString("\n")
	}

	if len(deleted) > 0 {
		fmt.Fprintf(&b, "DELETED (%d files):\n", len(deleted))
		for _, change := range deleted {
			fmt.Fprintf(&b, "  - %s\n", change.Path)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Summary: %d identical, %d added, %d modified, %d deleted\n",
		len(result.Identical), len(added), len(modified), len(deleted))

	return b.String()
}

var _ Source = (*archive.Archive)(nil)
