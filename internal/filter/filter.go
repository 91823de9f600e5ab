// Package filter holds the named pixel filters a template can select in
// place of the direct draw.
package filter

import (
	"image"
	"sort"

	imagepkg "github.com/youruser/beebot/internal/image"
	"github.com/youruser/beebot/internal/template"
)

// Registry maps filter names to implementations. It is built once and only
// read afterwards.
type Registry struct {
	filters map[string]imagepkg.Filter
}

// New returns a registry holding exactly filters.
func New(filters map[string]imagepkg.Filter) *Registry {
	r := &Registry{filters: make(map[string]imagepkg.Filter, len(filters))}
	for name, f := range filters {
		r.filters[name] = f
	}
	return r
}

// Default returns the registry of built-in filters.
func Default() *Registry {
	return New(map[string]imagepkg.Filter{
		"grayscale":  Process(grayscale),
		"invert":     Process(invert),
		"blur":       Process(blur),
		"brightness": Process(brightness),
		"tint":       Process(tint),
		"hue":        Process(hue),
		"posterize":  Process(posterize),
		"dominant":   imagepkg.FilterFunc(dominant),
		"atop":       imagepkg.FilterFunc(atop),
		"behind":     imagepkg.FilterFunc(behind),
	})
}

// Filter implements imagepkg.FilterSet.
func (r *Registry) Filter(name string) (imagepkg.Filter, bool) {
	f, ok := r.filters[name]
	return f, ok
}

// Has implements template.FilterChecker.
func (r *Registry) Has(name string) bool {
	_, ok := r.filters[name]
	return ok
}

// Names lists registered filters in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.filters))
	for name := range r.filters {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ProcessFunc transforms a template image before it is drawn.
type ProcessFunc func(src image.Image, attrs template.Attributes) (image.Image, error)

// Process builds a filter that transforms the template image with fn and
// then draws the result like the direct draw does.
func Process(fn ProcessFunc) imagepkg.Filter {
	return imagepkg.FilterFunc(func(dst *imagepkg.Canvas, src image.Image, x, y float64, opts imagepkg.DrawOptions) (*imagepkg.Canvas, error) {
		out, err := fn(src, opts.Attributes)
		if err != nil {
			return nil, err
		}
		return imagepkg.DirectDraw.Apply(dst, out, x, y, opts)
	})
}
