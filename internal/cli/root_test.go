package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/nextstep/pkg/buildinfo"
	"github.com/matzehuels/nextstep/pkg/graph"
	pkgio "github.com/matzehuels/nextstep/pkg/io"
)

// runCommand executes the root command with args and returns what the
// command wrote to its output.
func runCommand(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("%s: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func TestSetVersion(t *testing.T) {
	v, c, d := buildinfo.Version, buildinfo.Commit, buildinfo.Date
	t.Cleanup(func() { SetVersion(v, c, d) })

	SetVersion("1.0.0", "abc123", "2026-01-01")

	if buildinfo.Version != "1.0.0" {
		t.Errorf("Version = %q, want %q", buildinfo.Version, "1.0.0")
	}
	if buildinfo.Commit != "abc123" {
		t.Errorf("Commit = %q, want %q", buildinfo.Commit, "abc123")
	}
	if buildinfo.Date != "2026-01-01" {
		t.Errorf("Date = %q, want %q", buildinfo.Date, "2026-01-01")
	}
}

func TestRootCommandSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	for _, name := range []string{"serve", "render", "predict", "petri", "matrices", "cache", "config", "completion"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("Find(%q) = %v, %v", name, cmd, err)
		}
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			if out := runCommand(t, "completion", shell); !strings.Contains(out, appName) {
				t.Errorf("completion %s wrote %d bytes without mentioning %s", shell, len(out), appName)
			}
		})
	}
}

func TestConfigCommands(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)

	if out := runCommand(t, "config", "show"); !strings.Contains(out, `matrix = "Simple IOR Choice"`) {
		t.Errorf("config show = %q, want the default matrix", out)
	}

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[graph]\nmatrix = \"Order handling\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if out := runCommand(t, "--config", path, "config", "show"); !strings.Contains(out, `matrix = "Order handling"`) {
		t.Errorf("config show with file = %q, want the file's matrix", out)
	}

	if out := runCommand(t, "config", "path"); out != filepath.Join(configHome, appName, "config.toml")+"\n" {
		t.Errorf("config path = %q", out)
	}
	if out := runCommand(t, "--config", path, "config", "path"); out != path+"\n" {
		t.Errorf("config path with --config = %q, want %q", out, path)
	}

	if out := runCommand(t, "config", "env"); !strings.Contains(out, "NEXTSTEP_MATRIX\n") {
		t.Errorf("config env = %q, want NEXTSTEP_MATRIX listed", out)
	}
}

func TestConfigShowMissingFile(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.toml"), "config", "show"})
	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Error("config show with a missing --config file succeeded")
	}
}

func TestRenderDot(t *testing.T) {
	g := graph.New()
	id, err := g.AddNode(graph.DefaultRootID)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.SetCaption(id, "Check order"); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "order.json")
	if err := pkgio.ExportJSON(g, path); err != nil {
		t.Fatal(err)
	}

	out := runCommand(t, "render", path, "--dot")
	for _, want := range []string{"digraph G {", "Check order"} {
		if !strings.Contains(out, want) {
			t.Errorf("render --dot missing %q:\n%s", want, out)
		}
	}
}

func TestLoadGraphFileRejectsNonJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order.txt")
	if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadGraphFile(path); err == nil {
		t.Error("loadGraphFile(order.txt) succeeded, want an error")
	}
}

func TestPetriCommand(t *testing.T) {
	dir := t.TempDir()
	net := filepath.Join(dir, "net.json")
	data := `{"places":[{"id":"p1","x":0,"y":0},{"id":"p2","x":2,"y":0}],` +
		`"transitions":[{"id":"t1","label":"Pay","x":1,"y":0}],` +
		`"arcs":[{"source":"p1","target":"t1"},{"source":"t1","target":"p2"}]}`
	if err := os.WriteFile(net, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "order.json")
	runCommand(t, "petri", net, "-o", out)

	g, err := loadGraphFile(out)
	if err != nil {
		t.Fatalf("loadGraphFile() error: %v", err)
	}
	if g.NodeCount() != 3 || g.EdgeCount() != 2 {
		t.Errorf("converted graph has %d nodes, %d edges, want 3 and 2", g.NodeCount(), g.EdgeCount())
	}
	if g.Settings().ShowPreview {
		t.Error("converted graph shows previews, want them off")
	}
}
