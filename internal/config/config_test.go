package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadOverlay(t *testing.T) {
	t.Setenv("PORT", "")
	dir := t.TempDir()
	def := write(t, dir, "config.default.json", `{
		"http": {"port": 3000, "debug": true},
		"render": {"maxScale": 10, "maxCanvas": 2048},
		"download": {"timeout": "5s", "maxBytes": 1000},
		"templates": {"baseDir": "assets", "definitions": {"bee": {"src": "bee.png"}}}
	}`)
	over := write(t, dir, "config.json", `{
		"http": {"port": 4000},
		"templates": {"strict": true, "definitions": {"hat": {"src": "hat.png"}}}
	}`)

	cfg, err := Load(def, over)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTP.Port != 4000 || cfg.HTTP.Debug {
		t.Fatalf("http section should be replaced as a whole: %+v", cfg.HTTP)
	}
	if cfg.Render.MaxCanvas != 2048 || cfg.Download.Timeout.Duration != 5*time.Second {
		t.Fatalf("default sections lost: %+v %+v", cfg.Render, cfg.Download)
	}
	if !cfg.Templates.Strict || cfg.Templates.BaseDir != "templates" {
		t.Fatalf("templates section: %+v", cfg.Templates)
	}
	if !strings.Contains(string(cfg.Templates.Definitions), "hat") || strings.Contains(string(cfg.Templates.Definitions), "bee") {
		t.Fatalf("definitions = %s", cfg.Templates.Definitions)
	}
	if cfg.Commands.MaxTemplates != 4 || cfg.Log.Level != "info" {
		t.Fatalf("built-in defaults missing: %+v %+v", cfg.Commands, cfg.Log)
	}
}

func TestLoadMissingOverride(t *testing.T) {
	t.Setenv("PORT", "9090")
	dir := t.TempDir()
	def := write(t, dir, "config.default.json", `{"download": {"timeout": 2.5}}`)

	cfg, err := Load(def, filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Fatalf("PORT not applied: %d", cfg.HTTP.Port)
	}
	if cfg.Download.Timeout.Duration != 2500*time.Millisecond {
		t.Fatalf("timeout = %v", cfg.Download.Timeout)
	}
	if cfg.HTTP.Addr() != ":9090" {
		t.Fatalf("addr = %q", cfg.HTTP.Addr())
	}
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("PORT", "")
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "nope.json"), ""); err == nil {
		t.Fatal("missing default config accepted")
	}

	bad := write(t, dir, "bad.json", `{"http": `)
	if _, err := Load(bad, ""); err == nil {
		t.Fatal("invalid JSON accepted")
	}

	invalid := write(t, dir, "invalid.json", `{"render": {"maxScale": 0}, "commands": {"maxTemplates": 0}}`)
	_, err := Load(invalid, "")
	if err == nil || !strings.Contains(err.Error(), "maxScale") || !strings.Contains(err.Error(), "maxTemplates") {
		t.Fatalf("expected validation errors, got %v", err)
	}

	t.Setenv("PORT", "eighty")
	ok := write(t, dir, "ok.json", `{}`)
	if _, err := Load(ok, ""); err == nil {
		t.Fatal("non-numeric PORT accepted")
	}
}
