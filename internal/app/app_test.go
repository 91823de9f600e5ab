package app

import (
	"context"
	"encoding/json"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"github.com/youruser/beebot/internal/config"
)

func testConfig(t *testing.T, defs string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	if err := imaging.Save(imaging.New(20, 10, color.NRGBA{R: 255, A: 255}), filepath.Join(dir, "bee.png")); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Templates.BaseDir = dir
	cfg.Templates.Definitions = json.RawMessage(defs)
	return cfg
}

const defs = `{
	"bee": {"src": "bee.png", "anchor": {"x": {"position": 50, "offset": "imgWidth / 10", "size": 100}, "y": {"position": 50, "offset": 0, "size": 100}}},
	"code": {"src": "qr:https://example.com", "anchor": {"x": {"absolute": true, "offset": 0}, "y": {"absolute": true, "offset": 0}}, "filter": "grayscale"},
	"bad": {"src": "bee.png", "filter": "sparkle"}
}`

func TestNew(t *testing.T) {
	a, err := New(context.Background(), testConfig(t, defs), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if got := a.Catalog.Names(); len(got) != 2 || got[0] != "bee" || got[1] != "code" {
		t.Fatalf("names %v", got)
	}
	bee, _ := a.Catalog.Get("bee")
	if w, h := bee[0].Size(); w != 20 || h != 10 {
		t.Fatalf("bee size %vx%v", w, h)
	}
	if res, err := a.Commands.Parse("/bee /code"); err != nil || len(res.Steps) != 2 {
		t.Fatalf("parser not wired to catalog: %v %+v", err, res)
	}
}

func TestNewStrict(t *testing.T) {
	cfg := testConfig(t, defs)
	cfg.Templates.Strict = true
	if _, err := New(context.Background(), cfg, zerolog.Nop()); err == nil {
		t.Fatal("strict mode accepted an invalid template")
	}

	cfg.Templates.Definitions = json.RawMessage(`not json`)
	cfg.Templates.Strict = false
	if _, err := New(context.Background(), cfg, zerolog.Nop()); err == nil {
		t.Fatal("invalid catalog JSON accepted")
	}
}

func TestDefaultConfigFile(t *testing.T) {
	root := filepath.Join("..", "..")
	if _, err := os.Stat(filepath.Join(root, "config.default.json")); err != nil {
		t.Skip("config.default.json not present")
	}
	t.Setenv("PORT", "")
	cfg, err := config.Load(filepath.Join(root, "config.default.json"), "")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Templates.BaseDir = filepath.Join(root, cfg.Templates.BaseDir)
	cfg.Templates.Strict = true
	a, err := New(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("shipped catalog does not load: %v", err)
	}
	if a.Catalog.Len() == 0 {
		t.Fatal("shipped catalog is empty")
	}
}
