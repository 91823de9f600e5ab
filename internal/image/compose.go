package imagepkg

import (
	"cmp"
	"errors"
	"fmt"
	"image"
	"math"
	"slices"

	"github.com/rs/zerolog"

	"github.com/youruser/beebot/internal/template"
)

// Size is an explicit output size for the base image. A zero dimension is
// derived from the other one, keeping the aspect ratio.
type Size struct {
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// Request carries the per-call render inputs.
type Request struct {
	Size  Size
	FlipH bool
}

// Layer is one image placed on the output canvas.
type Layer struct {
	Z          int                 `json:"z"`
	Image      image.Image         `json:"-"`
	X          float64             `json:"x"`
	Y          float64             `json:"y"`
	Width      float64             `json:"width"`
	Height     float64             `json:"height"`
	FlipH      bool                `json:"flipH,omitempty"`
	Filter     string              `json:"filter,omitempty"`
	Attributes template.Attributes `json:"attributes,omitempty"`
	Name       string              `json:"name"`
}

// Calculation records how a template was placed. It is returned with each
// render so callers can inspect it.
type Calculation struct {
	Template    string            `json:"template"`
	ImageWidth  float64           `json:"imageWidth"`
	ImageHeight float64           `json:"imageHeight"`
	Anchor      template.Resolved `json:"anchor"`
	Scale
	Extent
}

// Result is a composed image.
type Result struct {
	Image       *image.NRGBA
	Width       int
	Height      int
	Calculation Calculation
	Layers      []Layer
	// Steps holds the calculation of every template applied by Chain.
	Steps []Calculation
}

// Renderer composes templates onto base images. A Renderer holds only
// read-only configuration and is safe for concurrent use.
type Renderer struct {
	filters   FilterSet
	maxScale  float64
	maxCanvas int
	log       zerolog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithMaxScale sets the upper bound of the template scale factor.
func WithMaxScale(v float64) Option {
	return func(r *Renderer) {
		if v > 0 {
			r.maxScale = v
		}
	}
}

// WithMaxCanvas rejects renders whose canvas exceeds px on either axis.
// Zero disables the check.
func WithMaxCanvas(px int) Option {
	return func(r *Renderer) { r.maxCanvas = px }
}

// WithLogger sets the logger used for calculations and draw failures.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Renderer) { r.log = l }
}

// NewRenderer returns a Renderer resolving filter names through filters.
func NewRenderer(filters FilterSet, opts ...Option) *Renderer {
	r := &Renderer{
		filters:  filters,
		maxScale: DefaultMaxScale,
		log:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Render composes one template onto base.
func (r *Renderer) Render(tpl *template.Template, base image.Image, req Request) (*Result, error) {
	if tpl == nil || tpl.Image == nil {
		return nil, r.fail("template", errors.New("template image not loaded"))
	}
	if base == nil {
		return nil, r.fail("image", errors.New("nil base image"))
	}

	b := base.Bounds()
	imgW, imgH := effectiveSize(float64(b.Dx()), float64(b.Dy()), req.Size)

	anchor, err := tpl.Anchor.Resolve(imgW, imgH)
	if err != nil {
		return nil, r.fail(tpl.Name(), err)
	}
	anchor = finiteAnchor(anchor)

	scale := SolveScale(imgW, imgH, anchor.X, anchor.Y, r.maxScale)
	offX := CalculatePosition(scale.Scale, anchor.X, imgW)
	offY := CalculatePosition(scale.Scale, anchor.Y, imgH)
	tplW, tplH := tpl.Size()
	ext := ComputeExtent(imgW, imgH, tplW, tplH, scale.Scale, offX, offY)

	calc := Calculation{
		Template:    tpl.Src,
		ImageWidth:  imgW,
		ImageHeight: imgH,
		Anchor:      anchor,
		Scale:       scale,
		Extent:      ext,
	}
	r.log.Debug().
		Str("template", tpl.Src).
		Interface("anchor", anchor).
		Float64("xScale", scale.XScale).
		Float64("yScale", scale.YScale).
		Float64("templateScale", scale.Scale).
		Float64("templateOffsetX", ext.TemplateX).
		Float64("templateOffsetY", ext.TemplateY).
		Float64("resultingWidth", ext.Width).
		Float64("resultingHeight", ext.Height).
		Msg("calculated template placement")

	width, height := pixels(ext.Width), pixels(ext.Height)
	if r.maxCanvas > 0 && (width > r.maxCanvas || height > r.maxCanvas) {
		return nil, r.fail(tpl.Name(), fmt.Errorf("%w: %d×%d", ErrCanvasTooLarge, width, height))
	}

	layers := buildLayers(tpl, base, imgW, imgH, scale.Scale, ext, req.FlipH)
	canvas := NewCanvas(width, height)
	for _, l := range layers {
		r.log.Debug().Str("layer", l.Name).Bool("flipped", l.FlipH).Int("z", l.Z).Msg("drawing layer")
		canvas, err = r.drawLayer(canvas, l, ext.Width)
		if err != nil {
			return nil, r.fail(l.Name, err)
		}
	}

	return &Result{
		Image:       canvas.Image(),
		Width:       width,
		Height:      height,
		Calculation: calc,
		Layers:      layers,
		Steps:       []Calculation{calc},
	}, nil
}

// Chain applies templates in order, each step using the previous result as
// its base image. The explicit size only applies to the first step.
func (r *Renderer) Chain(tpls []*template.Template, base image.Image, req Request) (*Result, error) {
	if len(tpls) == 0 {
		return nil, r.fail("chain", errors.New("no templates"))
	}
	var (
		res   *Result
		steps = make([]Calculation, 0, len(tpls))
		img   = base
	)
	for i, tpl := range tpls {
		stepReq := Request{FlipH: req.FlipH}
		if i == 0 {
			stepReq.Size = req.Size
		}
		var err error
		res, err = r.Render(tpl, img, stepReq)
		if err != nil {
			return nil, err
		}
		steps = append(steps, res.Calculation)
		img = res.Image
	}
	res.Steps = steps
	return res, nil
}

// buildLayers returns the base and template layers sorted by z. The sort is
// stable so the base image stays first on equal z.
func buildLayers(tpl *template.Template, base image.Image, imgW, imgH, scale float64, ext Extent, flipH bool) []Layer {
	tplW, tplH := tpl.Size()
	imageX := ext.ImageX
	if flipH {
		imageX = ext.Width - ext.ImageX - imgW
	}
	layers := []Layer{
		{
			Z:      tpl.BaseZ(),
			Image:  base,
			X:      imageX,
			Y:      ext.ImageY,
			Width:  imgW,
			Height: imgH,
			Name:   "image",
		},
		{
			Z:          tpl.Z,
			Image:      tpl.Image,
			X:          ext.TemplateX,
			Y:          ext.TemplateY,
			Width:      tplW * scale,
			Height:     tplH * scale,
			FlipH:      flipH,
			Filter:     tpl.Filter,
			Attributes: tpl.Attributes,
			Name:       tpl.Name(),
		},
	}
	slices.SortStableFunc(layers, func(a, b Layer) int { return cmp.Compare(a.Z, b.Z) })
	return layers
}

func (r *Renderer) drawLayer(c *Canvas, l Layer, flipWidth float64) (out *Canvas, err error) {
	defer func() {
		if p := recover(); p != nil {
			out, err = nil, fmt.Errorf("panic: %v", p)
		}
	}()

	opts := DrawOptions{Width: l.Width, Height: l.Height, Attributes: l.Attributes}
	if l.FlipH {
		opts.Transform = FlipTransform(flipWidth)
	}

	f := DirectDraw
	if l.Filter != "" {
		var ok bool
		if r.filters != nil {
			f, ok = r.filters.Filter(l.Filter)
		}
		if !ok {
			return nil, fmt.Errorf("unknown filter %q", l.Filter)
		}
	}
	out, err = f.Apply(c, l.Image, l.X, l.Y, opts)
	if err == nil && out == nil {
		err = fmt.Errorf("filter %q returned no canvas", l.Filter)
	}
	return out, err
}

func (r *Renderer) fail(layer string, cause error) error {
	r.log.Error().Err(cause).Str("layer", layer).Msg("render failed")
	return &RenderError{Layer: layer, Cause: cause}
}

// effectiveSize applies an explicit size to the natural base image size.
func effectiveSize(w, h float64, size Size) (float64, float64) {
	origW, origH := w, h
	if size.Height > 0 {
		h = size.Height
		if size.Width <= 0 && origH > 0 {
			w = w * size.Height / origH
		}
	}
	if size.Width > 0 {
		w = size.Width
		if size.Height <= 0 && origW > 0 {
			h = origH * size.Width / origW
		}
	}
	return w, h
}

// finiteAnchor zeroes fields a formula evaluated to NaN or ±Inf.
func finiteAnchor(r template.Resolved) template.Resolved {
	fix := func(a template.Axis) template.Axis {
		for _, v := range []*float64{&a.Position, &a.Offset, &a.Size} {
			if math.IsNaN(*v) || math.IsInf(*v, 0) {
				*v = 0
			}
		}
		return a
	}
	return template.Resolved{X: fix(r.X), Y: fix(r.Y)}
}
