package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
}

// ---------------------------------------------------------------------------
// TestDiscoverFiles - Notebook discovery
// ---------------------------------------------------------------------------

func TestDiscoverFiles_Directory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	touch(t, filepath.Join(root, "a.ipynb"))
	touch(t, filepath.Join(root, "sub", "b.ipynb"))
	touch(t, filepath.Join(root, "sub", "notes.md"))
	touch(t, filepath.Join(root, ".ipynb_checkpoints", "a-checkpoint.ipynb"))

	out := filepath.Join(root, "out")
	got, err := discoverFiles([]string{root}, out, true)
	if err != nil {
		t.Fatalf("discoverFiles() error = %v", err)
	}

	want := []FileToConvert{
		{
			InputPath:  filepath.Join(root, "a.ipynb"),
			OutputPath: filepath.Join(out, "a.md"),
			HTMLPath:   filepath.Join(out, "a.html"),
		},
		{
			InputPath:  filepath.Join(root, "sub", "b.ipynb"),
			OutputPath: filepath.Join(out, "sub", "b.md"),
			HTMLPath:   filepath.Join(out, "sub", "b.html"),
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("discoverFiles() mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscoverFiles_FilesDeduplicated(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	nb := filepath.Join(root, "a.ipynb")
	touch(t, nb)

	got, err := discoverFiles([]string{nb, nb}, "", false)
	if err != nil {
		t.Fatalf("discoverFiles() error = %v", err)
	}
	want := []FileToConvert{{InputPath: nb, OutputPath: filepath.Join(root, "a.md")}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("discoverFiles() mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscoverFiles_Errors(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	md := filepath.Join(root, "notes.md")
	touch(t, md)

	if _, err := discoverFiles([]string{md}, "", false); !errors.Is(err, ErrInvalidExtension) {
		t.Errorf("discoverFiles(.md) error = %v, want ErrInvalidExtension", err)
	}
	if _, err := discoverFiles([]string{filepath.Join(root, "missing.ipynb")}, "", false); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("discoverFiles(missing) error = %v, want os.ErrNotExist", err)
	}
}

func TestResolveOutputPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		outputDir string
		baseDir   string
		want      string
	}{
		{"next to input", filepath.Join("nbs", "a.ipynb"), "", "", filepath.Join("nbs", "a.md")},
		{"flat output dir", filepath.Join("nbs", "a.ipynb"), "docs", "", filepath.Join("docs", "a.md")},
		{"keeps relative dirs", filepath.Join("nbs", "x", "a.ipynb"), "docs", "nbs", filepath.Join("docs", "x", "a.md")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := resolveOutputPath(tt.input, tt.outputDir, tt.baseDir, ".md"); got != tt.want {
				t.Errorf("resolveOutputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateWorkers(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, 8} {
		if err := validateWorkers(n); err != nil {
			t.Errorf("validateWorkers(%d) error = %v", n, err)
		}
	}
	for _, n := range []int{-1, 9} {
		if err := validateWorkers(n); !errors.Is(err, ErrInvalidWorkerCount) {
			t.Errorf("validateWorkers(%d) error = %v, want ErrInvalidWorkerCount", n, err)
		}
	}
}
