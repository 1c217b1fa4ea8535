package fileutil_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alnah/go-nb2md/internal/fileutil"
)

// ---------------------------------------------------------------------------
// TestValidateExtension - Extension validation
// ---------------------------------------------------------------------------

func TestValidateExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		extension string
		wantErr   error
	}{
		{"valid extension md", "md", nil},
		{"valid extension html", "html", nil},
		{"empty extension", "", fileutil.ErrExtensionEmpty},
		{"forward slash path traversal", "../etc/passwd", fileutil.ErrExtensionPathTraversal},
		{"backslash path traversal", "..\\windows\\system32", fileutil.ErrExtensionPathTraversal},
		{"null byte injection", "md\x00exe", fileutil.ErrExtensionPathTraversal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := fileutil.ValidateExtension(tt.extension)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateExtension(%q) = %v, want %v", tt.extension, err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestWriteAtomic - Atomic file replacement
// ---------------------------------------------------------------------------

func TestWriteAtomic(t *testing.T) {
	t.Parallel()

	t.Run("creates file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "out.md")
		if err := fileutil.WriteAtomic(path, []byte("# Title\n"), 0o644); err != nil {
			t.Fatalf("WriteAtomic() error = %v", err)
		}

		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading output: %v", err)
		}
		if string(got) != "# Title\n" {
			t.Errorf("content = %q, want %q", got, "# Title\n")
		}

		entries, _ := os.ReadDir(dir)
		if len(entries) != 1 {
			t.Errorf("directory has %d entries, want 1 (temp file left behind)", len(entries))
		}
	})

	t.Run("replaces existing file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "out.md")
		if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
			t.Fatalf("setup: %v", err)
		}
		if err := fileutil.WriteAtomic(path, []byte("new"), 0o644); err != nil {
			t.Fatalf("WriteAtomic() error = %v", err)
		}
		got, _ := os.ReadFile(path)
		if string(got) != "new" {
			t.Errorf("content = %q, want %q", got, "new")
		}
	})

	t.Run("missing directory fails", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "missing", "out.md")
		if err := fileutil.WriteAtomic(path, []byte("x"), 0o644); err == nil {
			t.Error("WriteAtomic() error = nil, want error")
		}
	})
}

// ---------------------------------------------------------------------------
// TestPathHelpers - Extension and path classification
// ---------------------------------------------------------------------------

func TestReplaceExt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path, ext, want string
	}{
		{"nbs/index.ipynb", ".md", "nbs/index.md"},
		{"a.b.ipynb", ".html", "a.b.html"},
		{"noext", ".md", "noext.md"},
	}
	for _, tt := range tests {
		if got := fileutil.ReplaceExt(tt.path, tt.ext); got != tt.want {
			t.Errorf("ReplaceExt(%q, %q) = %q, want %q", tt.path, tt.ext, got, tt.want)
		}
	}
}

func TestIsNotebook(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"index.ipynb":     true,
		"dir/Index.IPYNB": true,
		"index.md":        false,
		"ipynb":           false,
	}
	for path, want := range tests {
		if got := fileutil.IsNotebook(path); got != want {
			t.Errorf("IsNotebook(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestFileExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if !fileutil.FileExists(file) {
		t.Error("FileExists(file) = false, want true")
	}
	if fileutil.FileExists(dir) {
		t.Error("FileExists(dir) = true, want false")
	}
	if fileutil.FileExists(filepath.Join(dir, "missing")) {
		t.Error("FileExists(missing) = true, want false")
	}
}

func TestIsFilePath(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"docs":            false,
		"my-config":       false,
		"./nb2md.yaml":    true,
		"/abs/nb2md.yaml": true,
		"C:\\nb2md.yaml":  true,
		"sub/dir":         true,
	}
	for s, want := range tests {
		if got := fileutil.IsFilePath(s); got != want {
			t.Errorf("IsFilePath(%q) = %v, want %v", s, got, want)
		}
	}
}

func TestIsURL(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"https://docs.example/api": true,
		"http://localhost":         true,
		"ftp://x":                  false,
		"symbols.yaml":             false,
	}
	for s, want := range tests {
		if got := fileutil.IsURL(s); got != want {
			t.Errorf("IsURL(%q) = %v, want %v", s, got, want)
		}
	}
}
