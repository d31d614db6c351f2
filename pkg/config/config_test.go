package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/cellgraph/pkg/errors"
	"github.com/matzehuels/cellgraph/pkg/store"
)

func TestDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, ".config", appName); dir != want {
		t.Errorf("Dir() = %q, want %q", dir, want)
	}
}

func TestDirXDG(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("XDG_DATA_HOME", filepath.Join(xdg, "data"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(xdg, "cache"))

	path, err := Path()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(xdg, appName, "config.toml"); path != want {
		t.Errorf("Path() = %q, want %q", path, want)
	}
	data, err := DataDir()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(xdg, "data", appName); data != want {
		t.Errorf("DataDir() = %q, want %q", data, want)
	}
	cache, err := CacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(xdg, "cache", appName); cache != want {
		t.Errorf("CacheDir() = %q, want %q", cache, want)
	}
}

func TestLoadMissingDefault(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("XDG_DATA_HOME", xdg)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := Default()
	want.Store.Dir = filepath.Join(xdg, appName, "workbooks")
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMissingExplicit(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeRead) {
		t.Errorf("Load() error = %v, want READ_ERROR", err)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	home, _ := os.UserHomeDir()
	path := writeConfig(t, `
pattern = "^[A-Z][1-9][0-9]?$"

[store]
backend = "sqlite"
dsn = "~/books.db"

[server]
addr = ":9090"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := &Config{
		Pattern: "^[A-Z][1-9][0-9]?$",
		Store:   store.Config{Backend: store.BackendSQLite, DSN: filepath.Join(home, "books.db")},
		Server:  ServerConfig{Addr: ":9090"},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	re, err := cfg.PatternRegexp()
	if err != nil || !re.MatchString("B12") {
		t.Errorf("PatternRegexp() = %v, %v", re, err)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code errors.Code
	}{
		{"syntax", "pattern = ", errors.ErrCodeRead},
		{"unknown key", "colour = \"red\"", errors.ErrCodeInvalidInput},
		{"bad pattern", "pattern = \"[\"", errors.ErrCodeInvalidPattern},
		{"unknown backend", "[store]\nbackend = \"etcd\"", errors.ErrCodeInvalidInput},
		{"sqlite without dsn", "[store]\nbackend = \"sqlite\"", errors.ErrCodeInvalidInput},
		{"redis without addr", "[store]\nbackend = \"redis\"", errors.ErrCodeInvalidInput},
		{"mongo without uri", "[store]\nbackend = \"mongo\"", errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if !errors.Is(err, tt.code) {
				t.Errorf("Load() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, _ := os.UserHomeDir()
	tests := []struct{ in, want string }{
		{"~", home},
		{"~/x/y", filepath.Join(home, "x/y")},
		{"~other/x", "~other/x"},
		{"/abs", "/abs"},
		{"", ""},
	}
	for _, tt := range tests {
		got, err := expandHome(tt.in)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("expandHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWrite(t *testing.T) {
	cfg := Default()
	cfg.Pattern = "^[A-Z][0-9]$"
	var buf bytes.Buffer
	if err := cfg.Write(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "[store]") {
		t.Errorf("Write() output missing [store] table:\n%s", buf.String())
	}
	var back Config
	if _, err := toml.Decode(buf.String(), &back); err != nil {
		t.Fatalf("decode written config: %v", err)
	}
	if diff := cmp.Diff(cfg, &back); diff != "" {
		t.Errorf("written config mismatch (-want +got):\n%s", diff)
	}
}
