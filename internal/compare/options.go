package compare

import (
	"log/slog"

	"zipcmp/internal/hash"
)

// Progress receives digest progress. *progress.Bar implements it.
type Progress interface {
	SetTotal(total int64)
	Done(entry string)
}

type options struct {
	workers   int
	algorithm hash.Algorithm
	logger    *slog.Logger
	progress  Progress
}

// Option configures Compare, CompareFiles and Fingerprint.
type Option func(*options)

// WithWorkers sets how many entries are digested concurrently.
// Values below 1 are treated as 1.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithAlgorithm selects the content digest.
func WithAlgorithm(algo hash.Algorithm) Option {
	return func(o *options) {
		o.algorithm = algo
	}
}

// WithLogger sets the logger. If logger is nil, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithProgress reports each digested entry to p.
func WithProgress(p Progress) Option {
	return func(o *options) {
		o.progress = p
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		workers:   1,
		algorithm: hash.Default,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.workers < 1 {
		o.workers = 1
	}
	if o.algorithm == "" {
		o.algorithm = hash.Default
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}
