package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseInputs(t *testing.T) {
	inputs, err := parseInputs([]string{"sources=https://example.com/a", "guidance=keep it short"})
	if err != nil {
		t.Fatalf("parseInputs: %v", err)
	}
	if inputs["sources"] != "https://example.com/a" {
		t.Fatalf("sources = %q", inputs["sources"])
	}
	if inputs["guidance"] != "keep it short" {
		t.Fatalf("guidance = %q", inputs["guidance"])
	}
}

func TestParseInputsRejectsMalformedPair(t *testing.T) {
	if _, err := parseInputs([]string{"no-equals"}); err == nil {
		t.Fatal("expected error for pair without =")
	}
	if _, err := parseInputs([]string{"=value"}); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate short = %q", got)
	}
	got := truncate("a very long scene comment indeed", 10)
	if len([]rune(got)) != 10 {
		t.Fatalf("truncated length = %d, want 10", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("truncated value %q missing ellipsis", got)
	}
}

func TestRenderTableIncludesHeadersAndRows(t *testing.T) {
	out := renderTable([]string{"Name", "Version"}, [][]string{{"final_export", "2"}})
	if !strings.Contains(out, "final_export") {
		t.Fatalf("table output missing row: %q", out)
	}
	if !strings.Contains(out, "NAME") && !strings.Contains(out, "Name") {
		t.Fatalf("table output missing header: %q", out)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	cmd := newConfigInitCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--path", target})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(buf.String(), target) {
		t.Fatalf("output %q does not mention %s", buf.String(), target)
	}

	cmd = newConfigInitCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--path", target})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error when config already exists")
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"run", "document", "artifacts", "revisions", "health", "sessions", "config"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd == root {
			t.Fatalf("subcommand %s not registered: %v", name, err)
		}
	}
}
