package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"zipcmp/internal/compare"
	"zipcmp/internal/filter"
	"zipcmp/internal/tree"
)

func newIdenticalCmd(s *settings) *cobra.Command {
	var (
		detect          string
		ignore          string
		ignoreGlobs     []string
		detectFirstOnly bool
	)

	cmd := &cobra.Command{
		Use:   "identical [flags] <archive1> <archive2>",
		Short: "Report whether two archives hold the same files",
		Long: "Compare two archives and exit 0 when no different file is left after\n" +
			"the detect and ignore patterns are applied, 1 otherwise.",
		Args: requireArgs(2, "Error. Please provide arguments 1 and 2 (paths to files to compare)"),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, s)
			if err != nil {
				return &exitError{code: exitFailure, err: err}
			}

			flags := cmd.Flags()
			if flags.Changed("detect") {
				cfg.DetectPattern = detect
			}
			if flags.Changed("ignore") {
				cfg.IgnorePattern = ignore
			}
			if flags.Changed("ignore-glob") {
				cfg.IgnoreGlobs = ignoreGlobs
			}
			if flags.Changed("detect-first-only") {
				cfg.DetectFirstOnly = detectFirstOnly
			}

			filterOpts, err := cfg.Filter()
			if err != nil {
				return &exitError{code: exitFailure, err: err}
			}

			opts, bar, err := compareOptions(cmd, s, cfg)
			if err != nil {
				return &exitError{code: exitFailure, err: err}
			}

			same, err := filter.Identical(cmd.Context(), args[0], args[1], filterOpts, opts...)
			if bar != nil {
				bar.Finish()
			}
			if err != nil {
				return &exitError{code: exitFailure, err: err}
			}

			if !same {
				fmt.Fprintln(cmd.OutOrStdout(), "different")
				return &exitError{code: exitDifferent}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "identical")
			return nil
		},
	}

	cmd.Flags().StringVar(&detect, "detect", "", "Only different files matching this regular expression count")
	cmd.Flags().StringVar(&ignore, "ignore", "", "Different files matching this regular expression are ignored")
	cmd.Flags().StringSliceVar(&ignoreGlobs, "ignore-glob", nil, "Different files matching this glob are ignored (repeatable)")
	cmd.Flags().BoolVar(&detectFirstOnly, "detect-first-only", false, "Keep only the first file matching --detect")

	return cmd
}

func newManifestCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "manifest [flags] <archive> [output-json-filename]",
		Short: "Record the file digests of an archive",
		Long: "Digest every file of an archive and save the digests together with a\n" +
			"Merkle root fingerprint to a JSON file.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 || len(args) > 2 {
				return &usageError{msg: "Error. Please provide the path of the archive and optionally the output file"}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, s)
			if err != nil {
				return &exitError{code: exitFailure, err: err}
			}

			opts, bar, err := compareOptions(cmd, s, cfg)
			if err != nil {
				return &exitError{code: exitFailure, err: err}
			}

			m, err := compare.Fingerprint(cmd.Context(), args[0], opts...)
			if bar != nil {
				bar.Finish()
			}
			if err != nil {
				return &exitError{code: exitFailure, err: err}
			}

			// If no output path specified, use root hash as filename in ./output/
			outputPath := filepath.Join("output", m.Root+".json")
			if len(args) == 2 {
				outputPath = args[1]
			}

			if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
				return &exitError{code: exitFailure, err: fmt.Errorf("failed to create output directory: %w", err)}
			}
			if err := tree.Save(m, outputPath); err != nil {
				return &exitError{code: exitFailure, err: fmt.Errorf("failed to save manifest: %w", err)}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Manifest generated successfully\n")
			fmt.Fprintf(out, "  Root hash: %s\n", m.Root)
			fmt.Fprintf(out, "  Files: %d\n", len(m.Files))
			fmt.Fprintf(out, "  Output: %s\n", outputPath)
			return nil
		},
	}
}

func newVerifyCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "verify [flags] <manifest.json> <archive>",
		Short: "Compare a saved manifest against an archive",
		Long: "Compare the digests recorded in a manifest against the current content\n" +
			"of an archive. Exits 0 when nothing changed, 1 when files changed.",
		Args: requireArgs(2, "Error. Please provide the manifest and the archive to verify"),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := tree.Load(args[0])
			if err != nil {
				return &exitError{code: exitFailure, err: fmt.Errorf("failed to load manifest: %w", err)}
			}

			cfg, err := loadConfig(cmd, s)
			if err != nil {
				return &exitError{code: exitFailure, err: err}
			}

			opts, bar, err := compareOptions(cmd, s, cfg)
			if err != nil {
				return &exitError{code: exitFailure, err: err}
			}

			result, err := compare.Verify(cmd.Context(), m, args[1], opts...)
			if bar != nil {
				bar.Finish()
			}
			if err != nil {
				return &exitError{code: exitFailure, err: err}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Loaded manifest of %s (root: %s)\n", m.Archive, m.Root)
			fmt.Fprintln(cmd.OutOrStdout(), compare.FormatReport(result))

			if result.HasChanges() {
				return &exitError{code: exitDifferent}
			}
			return nil
		},
	}
}
