package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"zipcmp/internal/compare"
	"zipcmp/internal/config"
	"zipcmp/internal/progress"
)

const (
	exitOK        = 0
	exitDifferent = 1
	exitFailure   = 2
)

// exitError carries a process exit code. A nil err exits silently.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// usageError is reported on stdout, like the usage text.
type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

// settings holds the flags shared by every command.
type settings struct {
	configPath string
	digest     string
	workers    int
	progress   bool
	verbose    bool
}

func requireArgs(n int, msg string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return &usageError{msg: msg}
		}
		return nil
	}
}

func newRootCmd() *cobra.Command {
	s := &settings{}
	var asJSON, asReport bool

	root := &cobra.Command{
		Use:   "zipcmp [flags] <archive1> <archive2>",
		Short: "Compare the contents of two ZIP archives",
		Long: "Compare the files contained in two ZIP archives by content digest,\n" +
			"without extracting them, and list the identical and different files.",
		Args:          requireArgs(2, "Error. Please provide arguments 1 and 2 (paths to files to compare)"),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd, s, args[0], args[1], asJSON, asReport)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&s.configPath, "config", "c", config.DefaultPath, "Config file path")
	pf.StringVar(&s.digest, "digest", "", "Digest algorithm: xxhash, md5 or sha256")
	pf.IntVarP(&s.workers, "workers", "w", 1, "Number of entries digested concurrently")
	pf.BoolVar(&s.progress, "progress", false, "Show a progress bar on stderr")
	pf.BoolVarP(&s.verbose, "verbose", "v", false, "Log debug information to stderr")

	root.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	root.Flags().BoolVar(&asReport, "report", false, "Print a report of added, modified and deleted files")
	root.MarkFlagsMutuallyExclusive("json", "report")

	root.AddCommand(newIdenticalCmd(s), newManifestCmd(s), newVerifyCmd(s))

	return root
}

// loadConfig reads the config file and applies the flags the user set.
func loadConfig(cmd *cobra.Command, s *settings) (*config.Config, error) {
	cfg, err := config.LoadConfig(s.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("digest") {
		cfg.Digest = s.digest
	}
	if flags.Changed("workers") {
		cfg.Workers = s.workers
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// compareOptions builds the comparator options. The returned bar is nil when
// progress is not shown.
func compareOptions(cmd *cobra.Command, s *settings, cfg *config.Config) ([]compare.Option, *progress.Bar, error) {
	algo, err := cfg.Algorithm()
	if err != nil {
		return nil, nil, err
	}

	opts := []compare.Option{
		compare.WithAlgorithm(algo),
		compare.WithWorkers(cfg.Workers),
		compare.WithLogger(newLogger(cmd.ErrOrStderr(), s.verbose)),
	}

	show := s.progress
	if !cmd.Flags().Changed("progress") {
		f, ok := cmd.ErrOrStderr().(*os.File)
		show = ok && progress.IsTerminal(f)
	}
	if !show {
		return opts, nil, nil
	}

	bar := progress.New(0, cmd.ErrOrStderr())
	return append(opts, compare.WithProgress(bar)), bar, nil
}

func runCompare(cmd *cobra.Command, s *settings, path1, path2 string, asJSON, asReport bool) error {
	cfg, err := loadConfig(cmd, s)
	if err != nil {
		return &exitError{code: exitFailure, err: err}
	}

	opts, bar, err := compareOptions(cmd, s, cfg)
	if err != nil {
		return &exitError{code: exitFailure, err: err}
	}

	result, err := compare.Compare(cmd.Context(), path1, path2, opts...)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return &exitError{code: exitFailure, err: err}
	}

	out := cmd.OutOrStdout()
	switch {
	case asJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return &exitError{code: exitFailure, err: fmt.Errorf("failed to encode result: %w", err)}
		}
	case asReport:
		fmt.Fprintln(out, compare.FormatReport(result))
	default:
		printList(out, "Identical files:", result.Identical)
		printList(out, "Different files:", result.Different)
	}

	return nil
}

func printList(w io.Writer, title string, paths []string) {
	fmt.Fprintln(w, title)
	for _, p := range paths {
		fmt.Fprintf(w, "  %s\n", p)
	}
}

// exitCode reports err and returns the process exit code for it.
func exitCode(err error, stdout, stderr io.Writer) int {
	if err == nil {
		return exitOK
	}

	var usage *usageError
	if errors.As(err, &usage) {
		fmt.Fprintln(stdout, usage.msg)
		return exitFailure
	}

	code := exitFailure
	var ee *exitError
	if errors.As(err, &ee) {
		code = ee.code
		if ee.err == nil {
			return code
		}
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	return code
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	os.Exit(exitCode(err, os.Stdout, os.Stderr))
}
