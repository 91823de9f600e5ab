package template

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"strings"
	"testing"
)

type stubImages struct {
	loaded []string
}

func (s *stubImages) LoadTemplateImage(_ context.Context, src string) (image.Image, error) {
	if strings.HasPrefix(src, "missing") {
		return nil, fmt.Errorf("no such file")
	}
	s.loaded = append(s.loaded, src)
	return image.NewNRGBA(image.Rect(0, 0, 50, 40)), nil
}

type stubFilters map[string]bool

func (s stubFilters) Has(name string) bool { return s[name] }

const catalogJSON = `{
  "bee": {
    "src": "bee.png",
    "anchor": {
      "x": {"position": 50, "offset": 0, "size": 100},
      "y": {"position": 50, "offset": "imgHeight / 4", "size": 100}
    },
    "z": 2
  },
  "beeparty": [
    {"src": "hat.png", "anchor": {"x": {"position": 0, "offset": 0, "size": 100}, "y": {"position": 0, "offset": 0, "size": 100}}},
    {"src": "bee.png", "anchor": {"x": {"absolute": true, "offset": 5}, "y": {"absolute": true, "offset": 5}}, "filter": "grayscale"}
  ],
  "broken": {"src": "bee.png", "anchor": {"x": {"position": "alert(1)"}}},
  "nofilter": {"src": "bee.png", "filter": "sparkle"},
  "nosrc": {"src": "missing.png"},
  "empty": []
}`

func TestParseCatalog(t *testing.T) {
	images := &stubImages{}
	cat, err := ParseCatalog(context.Background(), []byte(catalogJSON), LoadOptions{
		Images:  images,
		Filters: stubFilters{"grayscale": true},
	})
	if err == nil {
		t.Fatal("expected configuration errors")
	}

	if got := strings.Join(cat.Names(), ","); got != "bee,beeparty" {
		t.Fatalf("unexpected names %q", got)
	}

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %T", err)
	}
	for _, name := range []string{"broken", "nofilter", "nosrc", "empty"} {
		if !strings.Contains(err.Error(), fmt.Sprintf("%q", name)) {
			t.Errorf("error does not mention %s: %v", name, err)
		}
	}

	parts, ok := cat.Get("beeparty")
	if !ok || len(parts) != 2 {
		t.Fatalf("beeparty should have 2 parts, got %d", len(parts))
	}
	if parts[1].Filter != "grayscale" || !parts[1].Anchor.X.Absolute {
		t.Fatalf("second part not parsed: %+v", parts[1])
	}
	for _, p := range parts {
		if p.Image == nil {
			t.Fatal("template image not loaded")
		}
	}

	bee, _ := cat.Get("bee")
	if bee[0].Z != 2 || bee[0].BaseZ() != DefaultImageZ {
		t.Fatalf("unexpected z values: %d %d", bee[0].Z, bee[0].BaseZ())
	}
	if !bee[0].Anchor.Y.Offset.IsFormula() {
		t.Fatal("expected offset formula")
	}

	if _, err := cat.Lookup("wasp"); !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestParseCatalogInvalidJSON(t *testing.T) {
	if _, err := ParseCatalog(context.Background(), []byte(`[1,2]`), LoadOptions{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestResolve(t *testing.T) {
	var p Placement
	err := json.Unmarshal([]byte(`{
		"x": {"position": "50", "offset": "imgWidth / 10", "size": "max(imgWidth, imgHeight)"},
		"y": {"position": 100, "offset": -3, "size": 64, "absolute": true}
	}`), &p)
	if err != nil {
		t.Fatal(err)
	}
	if p.X.Position.IsFormula() {
		t.Fatal("numeric string should be read as a literal")
	}

	r, err := p.Resolve(200, 100)
	if err != nil {
		t.Fatal(err)
	}
	want := Resolved{
		X: Axis{Position: 50, Offset: 20, Size: 200},
		Y: Axis{Position: 100, Offset: -3, Size: 64, Absolute: true},
	}
	if r != want {
		t.Fatalf("got %+v, want %+v", r, want)
	}
}

func TestValueMarshalRoundTrip(t *testing.T) {
	v, err := Expr("imgWidth * 2")
	if err != nil {
		t.Fatal(err)
	}
	out, err := json.Marshal(Anchor{Position: v, Offset: Num(3)})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `"position":"imgWidth * 2"`) || !strings.Contains(string(out), `"offset":3`) {
		t.Fatalf("unexpected JSON %s", out)
	}
}

func TestAttributes(t *testing.T) {
	a := Attributes{"opacity": 0.5, "smoothing": false, "mode": "atop", "bad": "x"}
	if v, err := a.Float("opacity", 1); err != nil || v != 0.5 {
		t.Fatalf("opacity = %v, %v", v, err)
	}
	if v, err := a.Float("missing", 1); err != nil || v != 1 {
		t.Fatalf("default = %v, %v", v, err)
	}
	if _, err := a.Float("bad", 1); err == nil {
		t.Fatal("expected type error")
	}
	if v, err := a.Bool("smoothing", true); err != nil || v {
		t.Fatalf("smoothing = %v, %v", v, err)
	}
	if v, err := a.String("mode", ""); err != nil || v != "atop" {
		t.Fatalf("mode = %v, %v", v, err)
	}
	var nilAttrs Attributes
	if v, err := nilAttrs.Float("opacity", 1); err != nil || v != 1 {
		t.Fatalf("nil attributes = %v, %v", v, err)
	}
}
