package imagepkg

import "image"

// Filter replaces the direct draw of a layer. It receives the working
// canvas and returns the canvas subsequent layers are drawn onto, which may
// be the same one.
type Filter interface {
	Apply(dst *Canvas, src image.Image, x, y float64, opts DrawOptions) (*Canvas, error)
}

// FilterFunc adapts a function to Filter.
type FilterFunc func(dst *Canvas, src image.Image, x, y float64, opts DrawOptions) (*Canvas, error)

// Apply calls f.
func (f FilterFunc) Apply(dst *Canvas, src image.Image, x, y float64, opts DrawOptions) (*Canvas, error) {
	return f(dst, src, x, y, opts)
}

// FilterSet looks filters up by name.
type FilterSet interface {
	Filter(name string) (Filter, bool)
}

// DirectDraw is the default variant: a plain scaled draw.
var DirectDraw Filter = FilterFunc(func(dst *Canvas, src image.Image, x, y float64, opts DrawOptions) (*Canvas, error) {
	return dst, dst.DrawImage(src, x, y, opts)
})
