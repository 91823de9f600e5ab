package imagepkg

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/youruser/beebot/internal/template"
)

// Canvas is the drawable surface layers are painted onto.
type Canvas struct {
	img *image.NRGBA
}

// NewCanvas returns a transparent canvas of the given size.
func NewCanvas(width, height int) *Canvas {
	return &Canvas{img: imaging.New(max(width, 0), max(height, 0), color.NRGBA{})}
}

// CanvasFrom wraps an existing image. The image is not copied.
func CanvasFrom(img *image.NRGBA) *Canvas {
	return &Canvas{img: img}
}

// Width in pixels.
func (c *Canvas) Width() int { return c.img.Bounds().Dx() }

// Height in pixels.
func (c *Canvas) Height() int { return c.img.Bounds().Dy() }

// Image exposes the backing pixels.
func (c *Canvas) Image() *image.NRGBA { return c.img }

// Transform is an affine pre-transform applied to draw coordinates:
// p' = Translate + Scale·p. A zero Scale component means 1.
type Transform struct {
	Translate [2]float64 `json:"translate"`
	Scale     [2]float64 `json:"scale"`
}

// FlipTransform mirrors about the vertical axis of a canvas of the given
// width, so content lands in the region it would occupy unflipped.
func FlipTransform(width float64) *Transform {
	return &Transform{Translate: [2]float64{width, 0}, Scale: [2]float64{-1, 1}}
}

// Apply maps a point through the transform.
func (t *Transform) Apply(x, y float64) (float64, float64) {
	if t == nil {
		return x, y
	}
	sx, sy := t.scale()
	return t.Translate[0] + sx*x, t.Translate[1] + sy*y
}

func (t *Transform) scale() (float64, float64) {
	sx, sy := t.Scale[0], t.Scale[1]
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	return sx, sy
}

// then returns t ∘ m for a source-to-destination matrix m.
func (t *Transform) then(m f64.Aff3) f64.Aff3 {
	if t == nil {
		return m
	}
	sx, sy := t.scale()
	return f64.Aff3{
		sx * m[0], sx * m[1], sx*m[2] + t.Translate[0],
		sy * m[3], sy * m[4], sy*m[5] + t.Translate[1],
	}
}

// DrawOptions accompany every draw and filter call.
type DrawOptions struct {
	Width      float64
	Height     float64
	Transform  *Transform
	Attributes template.Attributes
}

// drawAttributes are the attribute keys the direct draw understands.
// Other keys are left for filters.
type drawAttributes struct {
	opacity float64
	interp  xdraw.Interpolator
	op      xdraw.Op
}

func parseDrawAttributes(a template.Attributes) (drawAttributes, error) {
	d := drawAttributes{opacity: 1, interp: xdraw.BiLinear, op: xdraw.Over}

	opacity, err := a.Float("opacity", 1)
	if err != nil {
		return d, err
	}
	if opacity < 0 || opacity > 1 || math.IsNaN(opacity) {
		return d, fmt.Errorf("attribute \"opacity\": %v out of range [0, 1]", opacity)
	}
	d.opacity = opacity

	smooth, err := a.Bool("smoothing", true)
	if err != nil {
		return d, err
	}
	if !smooth {
		d.interp = xdraw.NearestNeighbor
	}

	mode, err := a.String("composite", "source-over")
	if err != nil {
		return d, err
	}
	switch mode {
	case "source-over":
	case "copy":
		d.op = xdraw.Src
	default:
		return d, fmt.Errorf("attribute \"composite\": unsupported mode %q", mode)
	}
	return d, nil
}

// DrawImage paints src scaled to opts.Width × opts.Height with its top-left
// corner at (x, y), after applying opts.Transform.
func (c *Canvas) DrawImage(src image.Image, x, y float64, opts DrawOptions) error {
	if src == nil {
		return errors.New("draw: nil source image")
	}
	for _, v := range []float64{x, y, opts.Width, opts.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("draw: non-finite geometry (%v, %v, %v×%v)", x, y, opts.Width, opts.Height)
		}
	}
	attrs, err := parseDrawAttributes(opts.Attributes)
	if err != nil {
		return fmt.Errorf("draw: %w", err)
	}

	sr := src.Bounds()
	if sr.Empty() || opts.Width <= 0 || opts.Height <= 0 {
		return nil
	}

	sx := opts.Width / float64(sr.Dx())
	sy := opts.Height / float64(sr.Dy())
	m := opts.Transform.then(f64.Aff3{
		sx, 0, x - float64(sr.Min.X)*sx,
		0, sy, y - float64(sr.Min.Y)*sy,
	})

	var o *xdraw.Options
	if attrs.opacity < 1 {
		o = &xdraw.Options{SrcMask: image.NewUniform(color.Alpha16{A: uint16(attrs.opacity * 0xffff)})}
	}
	attrs.interp.Transform(c.img, m, src, sr, attrs.op, o)
	return nil
}

// Clone returns an independent copy of the canvas.
func (c *Canvas) Clone() *Canvas {
	return &Canvas{img: imaging.Clone(c.img)}
}
