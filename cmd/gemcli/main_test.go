package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRootCommandRequiresPrompt(t *testing.T) {
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{})
	if err := rootCmd.Execute(); err == nil {
		t.Fatalf("expected an error when no prompt is given")
	} else if !strings.Contains(err.Error(), "no prompt") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHistoryCommandEmptyLog(t *testing.T) {
	t.Setenv("GEMCLI_HISTORY_FILE", filepath.Join(t.TempDir(), "history.json"))

	cmd := newHistoryCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--no-color"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("history command failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No history yet.") {
		t.Fatalf("expected empty-log message, got %q", buf.String())
	}
}

func TestHistoryCommandColorFlagsConflict(t *testing.T) {
	cmd := newHistoryCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--color", "--no-color"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected conflict error for --color with --no-color")
	}
}

func TestClearCommandResetsLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	t.Setenv("GEMCLI_HISTORY_FILE", path)
	if err := os.WriteFile(path, []byte(`[{"timestamp":"t","model":"m","prompt":"p","full_response":"x","text_response":"x"}]`), 0o600); err != nil {
		t.Fatalf("seed history file: %v", err)
	}

	cmd := newClearCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("clear command failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read history file: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "[]" {
		t.Fatalf("expected empty array after clear, got %q", got)
	}
}
