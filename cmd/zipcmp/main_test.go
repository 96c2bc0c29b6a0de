package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zipcmp/internal/compare"
	"zipcmp/internal/testutil"
)

type cliFixtures struct {
	dir               string
	config            string
	reference         string
	identical         string
	oneFileChanged    string
	modifiedClassFile string
}

func newCLIFixtures(t *testing.T) cliFixtures {
	t.Helper()
	dir := t.TempDir()
	ref := testutil.Reference()

	return cliFixtures{
		dir:            dir,
		config:         filepath.Join(dir, "missing.yaml"),
		reference:      testutil.WriteZip(t, dir, "reference.zip", ref, true),
		identical:      testutil.WriteZip(t, dir, "identical.zip", ref, false),
		oneFileChanged: testutil.WriteZip(t, dir, "one_file_changed.zip", testutil.With(ref, map[string]string{"3": "THREE"}), true),
		modifiedClassFile: testutil.WriteZip(t, dir, "modified_class_file.zip",
			testutil.With(ref, map[string]string{"prime/5.class": "\xca\xfe\xba\xbe FIVE"}), true),
	}
}

func run(t *testing.T, args ...string) (string, string, int) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	err := root.Execute()
	code := exitCode(err, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func TestCompareCommand(t *testing.T) {
	f := newCLIFixtures(t)

	stdout, _, code := run(t, "-c", f.config, f.reference, f.oneFileChanged)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Identical files:\n  1\n")
	assert.Contains(t, stdout, "Different files:\n  3\n")
}

func TestCompareCommand_MissingArguments(t *testing.T) {
	f := newCLIFixtures(t)

	stdout, _, code := run(t, "-c", f.config, f.reference)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stdout, "Please provide arguments 1 and 2")
}

func TestCompareCommand_MissingArchive(t *testing.T) {
	f := newCLIFixtures(t)

	_, stderr, code := run(t, "-c", f.config, f.reference, filepath.Join(f.dir, "missing.zip"))
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "Error:")
	assert.Contains(t, stderr, "ARCHIVE_OPEN_FAILED")
}

func TestCompareCommand_JSON(t *testing.T) {
	f := newCLIFixtures(t)

	stdout, _, code := run(t, "-c", f.config, "--json", "--digest", "sha256", f.reference, f.oneFileChanged)
	require.Equal(t, exitOK, code)

	var result compare.Result
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Len(t, result.Identical, 10)
	assert.Equal(t, []string{"3"}, result.Different)
	require.Len(t, result.Changes, 1)
	assert.Len(t, string(result.Changes[0].OldDigest), 64)
}

func TestCompareCommand_Report(t *testing.T) {
	f := newCLIFixtures(t)

	stdout, _, code := run(t, "-c", f.config, "--report", "-w", "4", f.reference, f.oneFileChanged)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "MODIFIED (1 files):")
}

func TestCompareCommand_Verbose(t *testing.T) {
	f := newCLIFixtures(t)

	_, stderr, code := run(t, "-c", f.config, "-v", f.reference, f.identical)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stderr, "classified files")
}

func TestCompareCommand_Progress(t *testing.T) {
	f := newCLIFixtures(t)

	_, stderr, code := run(t, "-c", f.config, "--progress", f.reference, f.identical)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stderr, "100%")
}

func TestCompareCommand_InvalidDigest(t *testing.T) {
	f := newCLIFixtures(t)

	_, stderr, code := run(t, "-c", f.config, "--digest", "crc32", f.reference, f.identical)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "INVALID_CONFIGURATION")
}

func TestIdenticalCommand(t *testing.T) {
	f := newCLIFixtures(t)

	tests := []struct {
		name   string
		args   []string
		code   int
		output string
	}{
		{"same", []string{f.reference, f.identical}, exitOK, "identical"},
		{"changed", []string{f.reference, f.oneFileChanged}, exitDifferent, "different"},
		{"detect ignores other files", []string{"--detect", `\.class$`, f.reference, f.oneFileChanged}, exitOK, "identical"},
		{"detect sees class file", []string{"--detect", `\.class$`, f.reference, f.modifiedClassFile}, exitDifferent, "different"},
		{"ignore class file", []string{"--ignore", `\.class$`, f.reference, f.modifiedClassFile}, exitOK, "identical"},
		{"ignore glob", []string{"--ignore-glob", "prime/*", f.reference, f.modifiedClassFile}, exitOK, "identical"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"identical", "-c", f.config}, tt.args...)
			stdout, _, code := run(t, args...)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.output+"\n", stdout)
		})
	}
}

func TestIdenticalCommand_InvalidPattern(t *testing.T) {
	f := newCLIFixtures(t)

	_, stderr, code := run(t, "identical", "-c", f.config, "--detect", "(unclosed", f.reference, f.identical)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "INVALID_CONFIGURATION")
}

func TestIdenticalCommand_ConfigFile(t *testing.T) {
	f := newCLIFixtures(t)
	configPath := filepath.Join(f.dir, "zipcmp.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("detect_pattern: '\\.class$'\ndigest: md5\n"), 0644))

	stdout, _, code := run(t, "identical", "-c", configPath, f.reference, f.oneFileChanged)
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "identical\n", stdout)

	// Flags override the file.
	stdout, _, code = run(t, "identical", "-c", configPath, "--detect", "^3$", f.reference, f.oneFileChanged)
	assert.Equal(t, exitDifferent, code)
	assert.Equal(t, "different\n", stdout)
}

func TestManifestAndVerifyCommands(t *testing.T) {
	f := newCLIFixtures(t)
	manifestPath := filepath.Join(f.dir, "manifests", "reference.json")

	stdout, _, code := run(t, "manifest", "-c", f.config, f.reference, manifestPath)
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Files: 11")
	assert.FileExists(t, manifestPath)

	stdout, _, code = run(t, "verify", "-c", f.config, manifestPath, f.identical)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "No changes detected")

	stdout, _, code = run(t, "verify", "-c", f.config, manifestPath, f.oneFileChanged)
	assert.Equal(t, exitDifferent, code)
	assert.Contains(t, stdout, "MODIFIED (1 files):\n  ~ 3")
}

func TestManifestCommand_MissingArguments(t *testing.T) {
	f := newCLIFixtures(t)

	stdout, _, code := run(t, "manifest", "-c", f.config)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stdout, "Please provide the path of the archive")
}

func TestVerifyCommand_MissingManifest(t *testing.T) {
	f := newCLIFixtures(t)

	_, stderr, code := run(t, "verify", "-c", f.config, filepath.Join(f.dir, "missing.json"), f.reference)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "failed to load manifest")
}
