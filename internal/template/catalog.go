package template

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"sort"
)

// ErrTemplateNotFound is returned for names missing from the catalog.
var ErrTemplateNotFound = errors.New("template not found")

// ImageLoader decodes a template src.
type ImageLoader interface {
	LoadTemplateImage(ctx context.Context, src string) (image.Image, error)
}

// FilterChecker reports whether a filter name is registered.
type FilterChecker interface {
	Has(name string) bool
}

// ConfigError describes a catalog entry that failed validation.
type ConfigError struct {
	Template string
	Part     int
	Err      error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("template %q[%d]: %v", e.Template, e.Part, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Catalog maps template names to the ordered sequence of templates applied
// for that name. A Catalog is read-only once built.
type Catalog struct {
	entries map[string][]*Template
	names   []string
}

// NewCatalog builds a catalog from already validated entries.
func NewCatalog(entries map[string][]*Template) *Catalog {
	c := &Catalog{entries: make(map[string][]*Template, len(entries))}
	for name, parts := range entries {
		if len(parts) == 0 {
			continue
		}
		c.entries[name] = parts
		c.names = append(c.names, name)
	}
	sort.Strings(c.names)
	return c
}

// Get returns the templates registered under name.
func (c *Catalog) Get(name string) ([]*Template, bool) {
	parts, ok := c.entries[name]
	return parts, ok
}

// Lookup is Get with an error for unknown names.
func (c *Catalog) Lookup(name string) ([]*Template, error) {
	parts, ok := c.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	return parts, nil
}

// Names lists the template names in sorted order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Len is the number of template names.
func (c *Catalog) Len() int { return len(c.names) }

// LoadOptions configures ParseCatalog.
type LoadOptions struct {
	Images  ImageLoader
	Filters FilterChecker
}

// ParseCatalog reads a JSON object of name → template or name → [template].
// Entries that fail validation are left out of the catalog and reported
// together in the returned error; the catalog holds every valid entry.
func ParseCatalog(ctx context.Context, data []byte, opts LoadOptions) (*Catalog, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	entries := make(map[string][]*Template, len(raw))
	var errs []error
	for name, msg := range raw {
		parts, err := parseEntry(msg)
		if err != nil {
			errs = append(errs, &ConfigError{Template: name, Err: err})
			continue
		}
		if err := loadEntry(ctx, name, parts, opts); err != nil {
			errs = append(errs, err)
			continue
		}
		entries[name] = parts
	}
	return NewCatalog(entries), errors.Join(errs...)
}

func parseEntry(msg json.RawMessage) ([]*Template, error) {
	msg = bytes.TrimSpace(msg)
	if len(msg) > 0 && msg[0] == '[' {
		var parts []*Template
		if err := json.Unmarshal(msg, &parts); err != nil {
			return nil, err
		}
		if len(parts) == 0 {
			return nil, errors.New("empty template list")
		}
		for i, p := range parts {
			if p == nil {
				return nil, fmt.Errorf("part %d is null", i)
			}
		}
		return parts, nil
	}
	var t Template
	if err := json.Unmarshal(msg, &t); err != nil {
		return nil, err
	}
	return []*Template{&t}, nil
}

func loadEntry(ctx context.Context, name string, parts []*Template, opts LoadOptions) error {
	for i, t := range parts {
		if err := Validate(t, opts.Filters); err != nil {
			return &ConfigError{Template: name, Part: i, Err: err}
		}
		if t.Image != nil || opts.Images == nil {
			continue
		}
		img, err := opts.Images.LoadTemplateImage(ctx, t.Src)
		if err != nil {
			return &ConfigError{Template: name, Part: i, Err: fmt.Errorf("load %s: %w", t.Src, err)}
		}
		t.Image = img
	}
	return nil
}

// Validate checks a single template: src present, formulas limited to the
// image size variables, filter registered.
func Validate(t *Template, filters FilterChecker) error {
	if t.Src == "" && t.Image == nil {
		return errors.New("missing src")
	}
	for path, f := range t.Anchor.formulas() {
		if err := f.Validate(VarWidth, VarHeight); err != nil {
			return fmt.Errorf("anchor %s: %w", path, err)
		}
	}
	if t.Filter != "" && filters != nil && !filters.Has(t.Filter) {
		return fmt.Errorf("unknown filter %q", t.Filter)
	}
	return nil
}
