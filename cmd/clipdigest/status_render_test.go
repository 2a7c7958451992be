package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderStatusLine(t *testing.T) {
	line := renderStatusLine("github", statusOK, "acme/widgets", false)
	if !strings.Contains(line, "github:") {
		t.Fatalf("expected label in line, got %q", line)
	}
	if !strings.Contains(line, "[OK] acme/widgets") {
		t.Fatalf("expected status text, got %q", line)
	}
	if strings.Contains(line, ansiGreen) {
		t.Fatalf("expected no color codes without colorize, got %q", line)
	}

	colored := renderStatusLine("github", statusError, "down", true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected red wrapping, got %q", colored)
	}
}

func TestRenderSectionHeader(t *testing.T) {
	lines := renderSectionHeader("Jobs", false)
	if len(lines) != 2 {
		t.Fatalf("expected header and rule, got %d lines", len(lines))
	}
	if lines[0] != "== Jobs ==" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if len(lines[1]) != len(lines[0]) {
		t.Fatalf("rule length %d does not match header length %d", len(lines[1]), len(lines[0]))
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("buffers must not be colorized")
	}
}

func TestStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Environment ==")
	requireContains(t, out, "no repository configured")
	requireContains(t, out, "== Jobs ==")
	requireContains(t, out, "== Items ==")
}
