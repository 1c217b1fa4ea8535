package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	nb2md "github.com/alnah/go-nb2md"
	"github.com/alnah/go-nb2md/internal/fileutil"
)

// Sentinel errors for file discovery.
var (
	ErrInvalidExtension   = errors.New("file must have .ipynb extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
)

// FileToConvert represents a single notebook to process.
type FileToConvert struct {
	InputPath  string
	OutputPath string // markdown
	HTMLPath   string // empty unless --html
}

// discoverFiles finds all notebooks named by inputs. Directories are walked
// recursively, skipping hidden directories such as .ipynb_checkpoints.
func discoverFiles(inputs []string, outputDir string, html bool) ([]FileToConvert, error) {
	var files []FileToConvert
	seen := map[string]bool{}
	add := func(path, baseDir string) {
		if seen[path] {
			return
		}
		seen[path] = true
		f := FileToConvert{InputPath: path, OutputPath: resolveOutputPath(path, outputDir, baseDir, ".md")}
		if html {
			f.HTMLPath = fileutil.ReplaceExt(f.OutputPath, ".html")
		}
		files = append(files, f)
	}

	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if err := validateNotebookExtension(input); err != nil {
				return nil, err
			}
			add(input, "")
			continue
		}

		err = filepath.WalkDir(input, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return fmt.Errorf("scanning %s: %w", path, err)
			}
			if d.IsDir() {
				if path != input && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if fileutil.IsNotebook(path) {
				add(path, input)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// resolveOutputPath determines the output path for a notebook. Relative
// directories below baseInputDir are kept under outputDir.
func resolveOutputPath(inputPath, outputDir, baseInputDir, ext string) string {
	base := fileutil.ReplaceExt(filepath.Base(inputPath), ext)

	if outputDir == "" {
		return filepath.Join(filepath.Dir(inputPath), base)
	}

	if baseInputDir != "" {
		relPath, err := filepath.Rel(baseInputDir, inputPath)
		if err == nil {
			return filepath.Join(outputDir, filepath.Dir(relPath), base)
		}
	}

	return filepath.Join(outputDir, base)
}

// validateNotebookExtension checks that the file has the .ipynb extension.
func validateNotebookExtension(path string) error {
	if !fileutil.IsNotebook(path) {
		return fmt.Errorf("%w: got %q", ErrInvalidExtension, filepath.Ext(path))
	}
	return nil
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > nb2md.MaxWorkers {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, nb2md.MaxWorkers)
	}
	return nil
}
