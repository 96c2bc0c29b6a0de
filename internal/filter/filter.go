// Package filter decides whether two archives are equivalent once the
// different files are narrowed by detect and ignore patterns.
package filter

import (
	"context"
	"regexp"

	"github.com/gobwas/glob"
	"github.com/jmgilman/go/errors"

	"zipcmp/internal/compare"
)

// Options selects which different files count against equivalence.
//
// A nil Detect matches every path. A nil Ignore and no IgnoreGlobs ignore
// nothing. With DetectFirstOnly only the first path matching Detect is kept,
// which reproduces the find-first behavior of older tooling; by default every
// matching path is kept.
type Options struct {
	Detect          *regexp.Regexp
	Ignore          *regexp.Regexp
	IgnoreGlobs     []glob.Glob
	DetectFirstOnly bool
}

// Compile builds Options from pattern strings. Empty strings leave the
// corresponding filter unset. Invalid patterns are configuration errors.
func Compile(detect, ignore string, ignoreGlobs []string, detectFirstOnly bool) (Options, error) {
	opts := Options{DetectFirstOnly: detectFirstOnly}

	if detect != "" {
		re, err := regexp.Compile(detect)
		if err != nil {
			return Options{}, errors.Wrapf(err, errors.CodeInvalidConfig, "invalid detect pattern %q", detect)
		}
		opts.Detect = re
	}

	if ignore != "" {
		re, err := regexp.Compile(ignore)
		if err != nil {
			return Options{}, errors.Wrapf(err, errors.CodeInvalidConfig, "invalid ignore pattern %q", ignore)
		}
		opts.Ignore = re
	}

	for _, pattern := range ignoreGlobs {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return Options{}, errors.Wrapf(err, errors.CodeInvalidConfig, "invalid ignore glob %q", pattern)
		}
		opts.IgnoreGlobs = append(opts.IgnoreGlobs, g)
	}

	return opts, nil
}

// Apply returns the paths of different that remain after filtering.
// The input is not modified.
func (o Options) Apply(different []string) []string {
	remaining := make([]string, 0, len(different))

	if o.Detect != nil {
		for _, p := range different {
			if o.Detect.MatchString(p) {
				remaining = append(remaining, p)
				if o.DetectFirstOnly {
					break
				}
			}
		}
	} else {
		remaining = append(remaining, different...)
	}

	kept := remaining[:0]
	for _, p := range remaining {
		if !o.ignored(p) {
			kept = append(kept, p)
		}
	}
	return kept
}

func (o Options) ignored(p string) bool {
	if o.Ignore != nil && o.Ignore.MatchString(p) {
		return true
	}
	for _, g := range o.IgnoreGlobs {
		if g.Match(p) {
			return true
		}
	}
	return false
}

// Identical compares the archives and reports whether no different file
// survives the filter. Identical files are not examined.
func Identical(ctx context.Context, path1, path2 string, opts Options, compareOpts ...compare.Option) (bool, error) {
	result, err := compare.Compare(ctx, path1, path2, compareOpts...)
	if err != nil {
		return false, err
	}
	return len(opts.Apply(result.Different)) == 0, nil
}
