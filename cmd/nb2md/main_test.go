package main

// Notes:
// - runMain: exit codes and output for each command, plus one end-to-end
//   conversion through the real converter with execution disabled.
// - Signal handling is not exercised; notifyContext is a thin wrapper.

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const titledNotebook = `{
 "nbformat": 4,
 "nbformat_minor": 5,
 "metadata": {"kernelspec": {"name": "python3", "language": "python"}},
 "cells": [
  {"cell_type": "markdown", "metadata": {}, "source": "# Report"},
  {"cell_type": "code", "metadata": {}, "execution_count": 1, "source": "#| hide_input\nprint(1)",
   "outputs": [{"output_type": "stream", "name": "stdout", "text": "1\n"}]}
 ]
}`

func testEnv() (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &Environment{
		Context: context.Background(),
		Now:     time.Now,
		Stdout:  &stdout,
		Stderr:  &stderr,
	}, &stdout, &stderr
}

// ---------------------------------------------------------------------------
// TestRunMain - Command dispatch and exit codes
// ---------------------------------------------------------------------------

func TestRunMain_Commands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{name: "no args", args: nil, wantCode: ExitUsage, wantStderr: "Usage: nb2md"},
		{name: "help", args: []string{"help"}, wantCode: ExitSuccess, wantStdout: "Commands:"},
		{name: "help convert", args: []string{"help", "convert"}, wantCode: ExitSuccess, wantStdout: "--no-exec"},
		{name: "convert --help", args: []string{"convert", "--help"}, wantCode: ExitSuccess, wantStdout: "--output-dir"},
		{name: "version", args: []string{"version"}, wantCode: ExitSuccess, wantStdout: "nb2md dev"},
		{name: "unknown command", args: []string{"frobnicate"}, wantCode: ExitUsage, wantStderr: "unknown command"},
		{name: "bad flag", args: []string{"convert", "--bogus"}, wantCode: ExitUsage, wantStderr: "invalid usage"},
		{name: "no input", args: []string{"convert"}, wantCode: ExitIO, wantStderr: "hint:"},
		{name: "too many workers", args: []string{"convert", "-w", "99", "x.ipynb"}, wantCode: ExitUsage, wantStderr: "invalid worker count"},
		{name: "missing config", args: []string{"convert", "-c", "./nope.yaml", "x.ipynb"}, wantCode: ExitUsage, wantStderr: "config file not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, stdout, stderr := testEnv()
			if got := runMain(tt.args, env); got != tt.wantCode {
				t.Errorf("runMain(%v) = %d, want %d\nstderr: %s", tt.args, got, tt.wantCode, stderr)
			}
			if !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want it to contain %q", stdout, tt.wantStdout)
			}
			if !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr, tt.wantStderr)
			}
		})
	}
}

func TestRunMain_ConvertEndToEnd(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	in := filepath.Join(root, "nbs", "report.ipynb")
	writeNotebook(t, in, titledNotebook)
	out := filepath.Join(root, "docs")

	env, stdout, stderr := testEnv()
	code := runMain([]string{in, "-o", out, "--html", "--no-exec"}, env)
	if code != ExitSuccess {
		t.Fatalf("runMain() = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout.String(), "Created "+filepath.Join(out, "report.md")) {
		t.Errorf("stdout = %q", stdout)
	}

	md, err := os.ReadFile(filepath.Join(out, "report.md"))
	if err != nil {
		t.Fatalf("reading markdown: %v", err)
	}
	for _, want := range []string{"title: \"Report\"", "```\n1\n```"} {
		if !strings.Contains(string(md), want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(string(md), "print(1)") {
		t.Errorf("markdown shows hidden input:\n%s", md)
	}

	page, err := os.ReadFile(filepath.Join(out, "report.html"))
	if err != nil {
		t.Fatalf("reading page: %v", err)
	}
	if !strings.Contains(string(page), "<title>Report</title>") {
		t.Errorf("page has no title:\n%s", page)
	}
}

func TestRunMain_ConvertFailureExitCode(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	good := filepath.Join(root, "good.ipynb")
	bad := filepath.Join(root, "bad.ipynb")
	writeNotebook(t, good, titledNotebook)
	writeNotebook(t, bad, `{"nbformat": 3, "cells": []}`)

	env, stdout, stderr := testEnv()
	code := runMain([]string{"convert", root, "--no-exec"}, env)
	if code != ExitIO {
		t.Errorf("runMain() = %d, want %d", code, ExitIO)
	}
	if !strings.Contains(stderr.String(), "FAILED "+bad) {
		t.Errorf("stderr = %q", stderr)
	}
	if !strings.Contains(stdout.String(), "1 succeeded, 1 failed") {
		t.Errorf("stdout = %q", stdout)
	}
	if _, err := os.Stat(filepath.Join(root, "good.md")); err != nil {
		t.Errorf("good notebook not converted: %v", err)
	}
}
