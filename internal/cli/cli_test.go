package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yiblet/clipper/internal/clipboard"
	"github.com/yiblet/clipper/internal/clipfs"
	"github.com/yiblet/clipper/internal/config"
	"github.com/yiblet/clipper/internal/store"
)

// newTestCLI builds a CLI over a temporary config file and data directory.
func newTestCLI(t *testing.T, backend, stdin string) (*CLI, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	dataDir := filepath.Join(dir, "data")

	out := &bytes.Buffer{}
	c, err := NewWithIO(&Args{ConfigPath: &configPath, DataDir: &dataDir}, strings.NewReader(stdin), out, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("NewWithIO failed: %v", err)
	}
	c.cfg.Storage.Backend = backend
	return c, out
}

// seed saves texts to the history, newest last, and returns their ids in
// the same order.
func seed(t *testing.T, c *CLI, texts ...string) []string {
	t.Helper()
	ctx := context.Background()
	eng, err := c.openEngine(ctx)
	if err != nil {
		t.Fatalf("openEngine failed: %v", err)
	}
	ids := make([]string, 0, len(texts))
	for _, s := range texts {
		if err := eng.Ingest(ctx, clipboard.Payload{Kind: store.KindText, Data: []byte(s)}); err != nil {
			t.Fatalf("Ingest(%q) failed: %v", s, err)
		}
		ids = append(ids, eng.List(store.ListOptions{Limit: 1})[0].ID)
	}
	if err := eng.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return ids
}

var backends = []string{config.BackendSQLite, config.BackendFile}

func TestNewWithIO_DefaultDataDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	c, err := NewWithIO(&Args{}, strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("NewWithIO failed: %v", err)
	}

	expected := filepath.Join(home, clipfs.ConfigDir)
	if c.cfs.Root() != expected {
		t.Errorf("Expected data directory %s, got %s", expected, c.cfs.Root())
	}
	if c.cm.GetConfigPath() != filepath.Join(expected, "config.yaml") {
		t.Errorf("Unexpected config path %s", c.cm.GetConfigPath())
	}
	if c.cfg.HistoryLimit != 50 {
		t.Errorf("Expected default history limit 50, got %d", c.cfg.HistoryLimit)
	}
}

func TestNewWithIO_Overrides(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	dataDir := filepath.Join(dir, "custom")
	level := "debug"

	if err := config.NewConfigManagerWithPath(configPath).Update("history-limit", "7"); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	c, err := NewWithIO(&Args{ConfigPath: &configPath, DataDir: &dataDir, LogLevel: &level},
		strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("NewWithIO failed: %v", err)
	}

	if c.cfs.Root() != dataDir {
		t.Errorf("Expected data directory %s, got %s", dataDir, c.cfs.Root())
	}
	if _, err := os.Stat(dataDir); err != nil {
		t.Errorf("Data directory should be created: %v", err)
	}
	if c.cfg.HistoryLimit != 7 {
		t.Errorf("Expected history limit from file, got %d", c.cfg.HistoryLimit)
	}
	if c.cfg.Log.Level != "debug" {
		t.Errorf("Expected log level override, got %s", c.cfg.Log.Level)
	}
}

func TestNewWithIO_InvalidConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("history_limit: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewWithIO(&Args{ConfigPath: &configPath}, strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	if err == nil {
		t.Error("Expected invalid config to fail")
	}
}

func TestArgsValidation(t *testing.T) {
	tests := []struct {
		name    string
		args    Args
		wantErr bool
	}{
		{"no command", Args{}, false},
		{"run headless", Args{Run: &RunCmd{Headless: true}}, false},
		{"list", Args{List: &ListCmd{Limit: 5}}, false},
		{"negative list limit", Args{List: &ListCmd{Limit: -1}}, true},
		{"search", Args{Search: &SearchCmd{Term: "git"}}, false},
		{"blank search", Args{Search: &SearchCmd{Term: "  "}}, true},
		{"negative search limit", Args{Search: &SearchCmd{Term: "git", Limit: -2}}, true},
		{"pin", Args{Pin: &IDCmd{ID: "abc"}}, false},
		{"blank unpin", Args{Unpin: &IDCmd{ID: ""}}, true},
		{"blank delete", Args{Delete: &IDCmd{ID: " "}}, true},
		{"clear", Args{Clear: &ClearCmd{KeepPinned: true}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.args.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestArgs_HasCommand(t *testing.T) {
	if (&Args{}).HasCommand() {
		t.Error("Expected no command")
	}
	if !(&Args{Clear: &ClearCmd{}}).HasCommand() {
		t.Error("Expected clear to count as a command")
	}
}

func TestOpenEngine_CorruptHistory(t *testing.T) {
	files := map[string]string{
		config.BackendSQLite: clipfs.HistoryDB,
		config.BackendFile:   clipfs.HistorySnapshot,
	}
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			c, _ := newTestCLI(t, backend, "")
			name := files[backend]
			garbage := bytes.Repeat([]byte("this is not clipboard history\n"), 300)
			if err := c.cfs.WriteFile(name, garbage, 0o644); err != nil {
				t.Fatalf("WriteFile failed: %v", err)
			}

			ctx := context.Background()
			eng, err := c.openEngine(ctx)
			if err != nil {
				t.Fatalf("openEngine with corrupt %s failed: %v", name, err)
			}
			if n := len(eng.List(store.ListOptions{})); n != 0 {
				t.Errorf("expected empty history, got %d entries", n)
			}
			if err := eng.Ingest(ctx, clipboard.Payload{Kind: store.KindText, Data: []byte("fresh")}); err != nil {
				t.Fatalf("Ingest failed: %v", err)
			}
			if err := eng.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}

			if backend == config.BackendSQLite {
				matches, _ := filepath.Glob(c.cfs.Path(clipfs.HistoryDB + ".corrupt-*"))
				if len(matches) != 1 {
					t.Fatalf("expected the corrupt database to be moved aside, found %v", matches)
				}
				kept, err := os.ReadFile(matches[0])
				if err != nil || !bytes.Equal(kept, garbage) {
					t.Errorf("moved-aside file does not hold the original bytes (err=%v)", err)
				}
			}

			eng, err = c.openEngine(ctx)
			if err != nil {
				t.Fatalf("reopen failed: %v", err)
			}
			defer eng.Close()
			list := eng.List(store.ListOptions{})
			if len(list) != 1 || list[0].Text() != "fresh" {
				t.Errorf("expected the new history to persist, got %d entries", len(list))
			}
		})
	}
}

func TestList(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			c, out := newTestCLI(t, backend, "")
			ids := seed(t, c, "first\nsecond line", "other")

			if err := c.Execute(context.Background(), &Args{List: &ListCmd{}}); err != nil {
				t.Fatalf("list failed: %v", err)
			}

			lines := strings.Split(strings.TrimSpace(out.String()), "\n")
			if len(lines) != 2 {
				t.Fatalf("Expected 2 lines, got %q", out.String())
			}
			if lines[0] != ids[1]+"   other" {
				t.Errorf("Unexpected first line %q", lines[0])
			}
			if lines[1] != ids[0]+"   first" {
				t.Errorf("Unexpected second line %q", lines[1])
			}
		})
	}
}

func TestList_FullAndLimit(t *testing.T) {
	c, out := newTestCLI(t, config.BackendSQLite, "")
	seed(t, c, "first\nsecond line", "other")

	if err := c.Execute(context.Background(), &Args{List: &ListCmd{Limit: 1}}); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if strings.Count(out.String(), "\n") != 1 || !strings.Contains(out.String(), "other") {
		t.Errorf("Expected only the newest entry, got %q", out.String())
	}

	out.Reset()
	if err := c.Execute(context.Background(), &Args{List: &ListCmd{Full: true}}); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out.String(), "first\nsecond line") {
		t.Errorf("Expected full payload, got %q", out.String())
	}
}

func TestList_Empty(t *testing.T) {
	c, out := newTestCLI(t, config.BackendFile, "")

	if err := c.Execute(context.Background(), &Args{List: &ListCmd{}}); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if out.String() != "History is empty.\n" {
		t.Errorf("Unexpected output %q", out.String())
	}
}

func TestSearch(t *testing.T) {
	c, out := newTestCLI(t, config.BackendSQLite, "")
	seed(t, c, "git status", "go test ./...", "GIT log")

	if err := c.Execute(context.Background(), &Args{Search: &SearchCmd{Term: "git"}}); err != nil {
		t.Fatalf("search failed: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "GIT log") || !strings.Contains(got, "git status") || strings.Contains(got, "go test") {
		t.Errorf("Unexpected search output %q", got)
	}
	if strings.Index(got, "GIT log") > strings.Index(got, "git status") {
		t.Error("Expected matches in history order")
	}

	err := c.Execute(context.Background(), &Args{Search: &SearchCmd{Term: "nothing"}})
	if err == nil || !strings.Contains(err.Error(), "no matches") {
		t.Errorf("Expected no matches error, got %v", err)
	}
}

func TestPinUnpinDelete(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			c, out := newTestCLI(t, backend, "")
			ids := seed(t, c, "keep me", "other")

			if err := c.Execute(ctx, &Args{Pin: &IDCmd{ID: ids[0]}}); err != nil {
				t.Fatalf("pin failed: %v", err)
			}
			if out.String() != "Pinned "+ids[0]+"\n" {
				t.Errorf("Unexpected pin output %q", out.String())
			}

			out.Reset()
			if err := c.Execute(ctx, &Args{List: &ListCmd{Pinned: true}}); err != nil {
				t.Fatalf("list failed: %v", err)
			}
			if out.String() != ids[0]+" * keep me\n" {
				t.Errorf("Expected pin to persist, got %q", out.String())
			}

			if err := c.Execute(ctx, &Args{Unpin: &IDCmd{ID: ids[0]}}); err != nil {
				t.Fatalf("unpin failed: %v", err)
			}
			if err := c.Execute(ctx, &Args{Delete: &IDCmd{ID: ids[1]}}); err != nil {
				t.Fatalf("delete failed: %v", err)
			}

			out.Reset()
			if err := c.Execute(ctx, &Args{List: &ListCmd{}}); err != nil {
				t.Fatalf("list failed: %v", err)
			}
			if out.String() != ids[0]+"   keep me\n" {
				t.Errorf("Unexpected history after edits %q", out.String())
			}

			err := c.Execute(ctx, &Args{Delete: &IDCmd{ID: "missing"}})
			if !errors.Is(err, store.ErrNotFound) {
				t.Errorf("Expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestEdit_RefusedWhileLocked(t *testing.T) {
	c, _ := newTestCLI(t, config.BackendSQLite, "")
	ids := seed(t, c, "one")

	lock, err := c.cfs.Acquire()
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer lock.Release()

	err = c.Execute(context.Background(), &Args{Pin: &IDCmd{ID: ids[0]}})
	if !errors.Is(err, clipfs.ErrLocked) {
		t.Errorf("Expected ErrLocked, got %v", err)
	}

	// Reads still work while the daemon owns the history.
	if err := c.Execute(context.Background(), &Args{List: &ListCmd{}}); err != nil {
		t.Errorf("list failed while locked: %v", err)
	}
}

func TestClear(t *testing.T) {
	tests := []struct {
		name      string
		stdin     string
		cmd       ClearCmd
		wantOut   string
		remaining int
	}{
		{"declined", "n\n", ClearCmd{}, "Cancelled.", 3},
		{"confirmed", "y\n", ClearCmd{}, "Cleared 3 item(s)", 0},
		{"forced", "", ClearCmd{Force: true}, "Cleared 3 item(s)", 0},
		{"keep pinned", "", ClearCmd{Force: true, KeepPinned: true}, "Cleared 2 item(s)", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			c, out := newTestCLI(t, config.BackendFile, tt.stdin)
			ids := seed(t, c, "one", "two", "three")
			if err := c.Execute(ctx, &Args{Pin: &IDCmd{ID: ids[0]}}); err != nil {
				t.Fatalf("pin failed: %v", err)
			}

			cmd := tt.cmd
			if err := c.Execute(ctx, &Args{Clear: &cmd}); err != nil {
				t.Fatalf("clear failed: %v", err)
			}
			if !strings.Contains(out.String(), tt.wantOut) {
				t.Errorf("Expected output to contain %q, got %q", tt.wantOut, out.String())
			}

			eng, err := c.openEngine(ctx)
			if err != nil {
				t.Fatalf("openEngine failed: %v", err)
			}
			defer eng.Close()
			if n := len(eng.List(store.ListOptions{})); n != tt.remaining {
				t.Errorf("Expected %d entries left, got %d", tt.remaining, n)
			}
		})
	}
}

func TestClear_NothingToClear(t *testing.T) {
	c, out := newTestCLI(t, config.BackendSQLite, "")

	if err := c.Execute(context.Background(), &Args{Clear: &ClearCmd{}}); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if out.String() != "Nothing to clear.\n" {
		t.Errorf("Unexpected output %q", out.String())
	}
}

func TestConfigCommands(t *testing.T) {
	c, out := newTestCLI(t, config.BackendSQLite, "")
	ctx := context.Background()

	if err := c.Execute(ctx, &Args{Config: &ConfigCmd{Set: &ConfigSetCmd{Key: "history-limit", Value: "200"}}}); err != nil {
		t.Fatalf("config set failed: %v", err)
	}
	if out.String() != "Set history-limit = 200\n" {
		t.Errorf("Unexpected set output %q", out.String())
	}

	out.Reset()
	if err := c.Execute(ctx, &Args{Config: &ConfigCmd{Get: &ConfigGetCmd{Key: "history-limit"}}}); err != nil {
		t.Fatalf("config get failed: %v", err)
	}
	if out.String() != "200\n" {
		t.Errorf("Expected 200, got %q", out.String())
	}

	out.Reset()
	if err := c.Execute(ctx, &Args{Config: &ConfigCmd{List: &ConfigListCmd{}}}); err != nil {
		t.Fatalf("config list failed: %v", err)
	}
	listed := out.String()
	for _, key := range config.Keys {
		if !strings.Contains(listed, "  "+key+" = ") {
			t.Errorf("Expected %s in list output", key)
		}
	}
	if strings.Index(listed, "history-limit") > strings.Index(listed, "log-format") {
		t.Error("Expected keys in display order")
	}

	invalid := []ConfigSetCmd{
		{Key: "history-limit", Value: "0"},
		{Key: "history-limit", Value: "abc"},
		{Key: "pin-order", Value: "sideways"},
		{Key: "no-such-key", Value: "1"},
	}
	for _, set := range invalid {
		set := set
		if err := c.Execute(ctx, &Args{Config: &ConfigCmd{Set: &set}}); err == nil {
			t.Errorf("Expected config set %s=%s to fail", set.Key, set.Value)
		}
	}

	if err := c.Execute(ctx, &Args{Config: &ConfigCmd{}}); err == nil {
		t.Error("Expected missing config subcommand to fail")
	}
}
