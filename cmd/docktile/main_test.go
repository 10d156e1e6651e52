package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/docktile/internal/config"
	"github.com/1broseidon/docktile/internal/daemon"
)

func TestParseSizes(t *testing.T) {
	tests := []struct {
		args    []string
		want    []float64
		wantErr bool
	}{
		{[]string{"30", "70"}, []float64{30, 70}, false},
		{[]string{"1.5", "0.5", "2"}, []float64{1.5, 0.5, 2}, false},
		{[]string{"30", "abc"}, nil, true},
		{[]string{"0", "10"}, nil, true},
		{[]string{"-5", "10"}, nil, true},
	}
	for _, tt := range tests {
		got, err := parseSizes(tt.args)
		if (err != nil) != tt.wantErr {
			t.Fatalf("parseSizes(%v) err = %v, wantErr %v", tt.args, err, tt.wantErr)
		}
		if tt.wantErr {
			continue
		}
		if len(got) != len(tt.want) {
			t.Fatalf("parseSizes(%v) = %v, want %v", tt.args, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Fatalf("parseSizes(%v) = %v, want %v", tt.args, got, tt.want)
			}
		}
	}
}

func TestFormatSource(t *testing.T) {
	tests := []struct {
		src  config.Source
		want string
	}{
		{config.Source{Kind: config.SourceFile, File: "/c.yaml", Line: 3, Column: 5}, "file:/c.yaml:3:5"},
		{config.Source{Kind: config.SourceFile, File: "/c.yaml"}, "file:/c.yaml"},
		{config.Source{Kind: config.SourceBuiltin, Name: "browse"}, "builtin:browse"},
		{config.Source{Kind: config.SourceDefault}, "default"},
	}
	for _, tt := range tests {
		if got := formatSource(tt.src); got != tt.want {
			t.Errorf("formatSource(%+v) = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestCheckLayoutsOnDefaults(t *testing.T) {
	var buf bytes.Buffer
	if failed := checkLayouts(&buf, config.DefaultConfig()); failed {
		t.Fatalf("builtin layouts failed:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "(default): ok") {
		t.Fatalf("output = %q", buf.String())
	}
}

func TestUsageErrors(t *testing.T) {
	t.Setenv("DOCKTILE_SOCKET", filepath.Join(t.TempDir(), "none.sock"))
	tests := []struct {
		cmd  string
		args []string
		want int
	}{
		{"bogus", nil, 2},
		{"help", nil, 0},
		{"tab", nil, 2},
		{"tab", []string{"--help"}, 0},
		{"tab", []string{"teleport"}, 2},
		{"tab", []string{"close"}, 2},
		{"tab", []string{"split", "--position", "center", "g1", "a"}, 2},
		{"group", []string{"resize", "s1", "50"}, 2},
		{"group", []string{"resize", "s1", "50", "x"}, 2},
		{"group", []string{"lock", "--layout", "g1"}, 2},
		{"drop", []string{"a"}, 2},
		{"drop", []string{"a", "--zone", "left"}, 2},
		{"status", []string{"extra"}, 2},
		{"status", []string{"--help"}, 0},
		{"mcp", nil, 2},
		{"config", []string{"explain"}, 2},
		// Well-formed commands fail at runtime without a daemon.
		{"status", nil, 1},
		{"tab", []string{"close", "a"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.cmd+" "+strings.Join(tt.args, " "), func(t *testing.T) {
			if got := quiet(t, func() int { return run(tt.cmd, tt.args) }); got != tt.want {
				t.Fatalf("exit = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCommandsAgainstDaemon(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("storage:\n  backend: memory\n"), 0644); err != nil {
		t.Fatal(err)
	}
	socket := filepath.Join(dir, "d.sock")
	t.Setenv("DOCKTILE_SOCKET", socket)

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- daemon.Run(ctx, daemon.Options{
			ConfigPath: cfgPath,
			Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
			Ready:      func(*daemon.Session) { close(ready) },
		})
	}()
	defer func() {
		cancel()
		<-done
	}()
	select {
	case <-ready:
	case err := <-done:
		t.Fatalf("daemon exited: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not start")
	}

	steps := []struct {
		cmd  string
		args []string
		want int
	}{
		{"status", nil, 0},
		{"views", nil, 0},
		{"tab", []string{"open", "search"}, 0},
		{"tab", []string{"lock", "search"}, 0},
		{"tab", []string{"close", "search"}, 1},
		{"tab", []string{"close", "ghost"}, 1},
		{"tab", []string{"open", "ghost"}, 1},
		{"menu", []string{"layout"}, 0},
		{"group", []string{"lock", "--layout"}, 0},
		{"tab", []string{"open", "queue"}, 1},
		{"group", []string{"lock", "--layout"}, 0},
		{"layout", []string{"show"}, 0},
		{"layout", []string{"reset"}, 0},
		{"group", []string{"maximize"}, 1},
	}
	for _, s := range steps {
		if got := quiet(t, func() int { return run(s.cmd, s.args) }); got != s.want {
			t.Fatalf("%s %v: exit = %d, want %d", s.cmd, s.args, got, s.want)
		}
	}
}

// quiet runs fn with stdout and stderr discarded.
func quiet(t *testing.T, fn func() int) int {
	t.Helper()
	devnull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer devnull.Close()
	stdout, stderr := os.Stdout, os.Stderr
	os.Stdout, os.Stderr = devnull, devnull
	defer func() { os.Stdout, os.Stderr = stdout, stderr }()
	return fn()
}
