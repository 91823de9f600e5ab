// Package template defines the overlay catalog: templates, their anchor
// rules and the loader that validates them at startup.
package template

import (
	"fmt"
	"image"
)

// DefaultImageZ is the paint order of the base image layer.
const DefaultImageZ = 1

// Template describes one overlay graphic. Templates are loaded once and
// never mutated afterwards.
type Template struct {
	Src        string     `json:"src"`
	Anchor     Placement  `json:"anchor"`
	Z          int        `json:"z,omitempty"`
	ImageZ     *int       `json:"imageZ,omitempty"`
	Filter     string     `json:"filter,omitempty"`
	Attributes Attributes `json:"attributes,omitempty"`

	// Image is the decoded src, set by the catalog loader.
	Image image.Image `json:"-"`
}

// BaseZ is the z of the base image layer when rendering this template.
func (t *Template) BaseZ() int {
	if t.ImageZ != nil {
		return *t.ImageZ
	}
	return DefaultImageZ
}

// Size returns the natural size of the template image.
func (t *Template) Size() (width, height float64) {
	if t.Image == nil {
		return 0, 0
	}
	b := t.Image.Bounds()
	return float64(b.Dx()), float64(b.Dy())
}

// Name is used in logs.
func (t *Template) Name() string {
	return "template " + t.Src
}

// Attributes are passed through untouched to the draw or filter step.
type Attributes map[string]any

// Float reads a numeric attribute, returning def when it is absent.
func (a Attributes) Float(key string, def float64) (float64, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("attribute %q: expected number, got %T", key, v)
	}
}

// Bool reads a boolean attribute, returning def when it is absent.
func (a Attributes) Bool(key string, def bool) (bool, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("attribute %q: expected bool, got %T", key, v)
	}
	return b, nil
}

// String reads a string attribute, returning def when it is absent.
func (a Attributes) String(key string, def string) (string, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("attribute %q: expected string, got %T", key, v)
	}
	return s, nil
}
