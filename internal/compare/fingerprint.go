package compare

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"zipcmp/internal/archive"
	"zipcmp/internal/tree"
	"zipcmp/internal/walker"
)

// Fingerprint digests every file of the archive at archivePath and returns
// its manifest.
func Fingerprint(ctx context.Context, archivePath string, opts ...Option) (*tree.Manifest, error) {
	o := newOptions(opts)

	a, err := archive.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	w, err := walker.Walk(a, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate %s: %w", archivePath, err)
	}
	logEnumerated(o, a, w)

	if o.progress != nil {
		o.progress.SetTotal(int64(len(w.Files)))
	}

	var mu sync.Mutex
	files := make(map[string]tree.FileData, len(w.Files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for _, p := range w.Files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			data, err := a.ReadAll(p)
			if err != nil {
				return err
			}
			d, err := o.algorithm.Sum(data)
			if err != nil {
				return err
			}

			mu.Lock()
			files[p] = tree.FileData{Digest: d, Size: int64(len(data))}
			mu.Unlock()

			if o.progress != nil {
				o.progress.Done(p)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fingerprint %s: %w", archivePath, err)
	}

	return tree.Build(files, archivePath, o.algorithm)
}

// Verify compares a saved manifest, as the first side, against the archive
// at archivePath. The manifest's digest algorithm is used for the archive.
func Verify(ctx context.Context, m *tree.Manifest, archivePath string, opts ...Option) (*Result, error) {
	o := newOptions(opts)

	a, err := archive.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	w, err := walker.Walk(a, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate %s: %w", archivePath, err)
	}
	logEnumerated(o, a, w)

	opts = append(opts[:len(opts):len(opts)], WithAlgorithm(m.Algorithm))
	result, err := CompareFiles(ctx, m, m.Paths(), a, w.Files, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to verify %s against manifest of %s: %w", archivePath, m.Archive, err)
	}
	result.Dirs2 = w.Dirs

	return result, nil
}

var (
	_ Source   = (*tree.Manifest)(nil)
	_ Digester = (*tree.Manifest)(nil)
)
