package imagepkg

import (
	"math"

	"github.com/youruser/beebot/internal/template"
)

// DefaultMaxScale caps the template scale factor.
const DefaultMaxScale = 10.0

// Scale is the outcome of SolveScale. XScale and YScale are the raw axis
// ratios after non-finite values have been zeroed.
type Scale struct {
	XScale float64 `json:"xScale"`
	YScale float64 `json:"yScale"`
	Scale  float64 `json:"templateScale"`
}

// SolveScale picks the uniform template scale: the larger of the two axis
// ratios image size / anchor size, clamped to [0, maxScale].
func SolveScale(width, height float64, x, y template.Axis, maxScale float64) Scale {
	xs := ratio(width, x.Size)
	ys := ratio(height, y.Size)
	return Scale{
		XScale: xs,
		YScale: ys,
		Scale:  clamp(math.Max(xs, ys), 0, maxScale),
	}
}

func ratio(a, b float64) float64 {
	if a == 0 || b == 0 {
		return 0
	}
	r := a / b
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// CalculatePosition returns the pixel offset of the template origin on one
// axis. Absolute anchors return their offset unchanged.
func CalculatePosition(scale float64, axis template.Axis, imageSize float64) float64 {
	if axis.Absolute {
		return axis.Offset
	}
	return imageSize*axis.Position/100 - axis.Offset*scale
}

// Extent is the canvas size and the layer offsets that keep both layers
// inside it at non-negative coordinates.
type Extent struct {
	Width     float64 `json:"resultingWidth"`
	Height    float64 `json:"resultingHeight"`
	ImageX    float64 `json:"imageOffsetX"`
	ImageY    float64 `json:"imageOffsetY"`
	TemplateX float64 `json:"templateOffsetX"`
	TemplateY float64 `json:"templateOffsetY"`
}

// ComputeExtent grows the canvas around the base image so the scaled
// template fits. A negative template offset shifts the base image by the
// same amount instead; overflow past the far edge grows the canvas.
func ComputeExtent(imgW, imgH, tplW, tplH, scale, offX, offY float64) Extent {
	e := Extent{Width: imgW, Height: imgH, TemplateX: offX, TemplateY: offY}

	if e.TemplateX < 0 {
		e.Width -= e.TemplateX
		e.ImageX = -e.TemplateX
		e.TemplateX = 0
	}
	if e.TemplateY < 0 {
		e.Height -= e.TemplateY
		e.ImageY = -e.TemplateY
		e.TemplateY = 0
	}
	if right := e.TemplateX + tplW*scale; right > e.Width {
		e.Width = right
	}
	if bottom := e.TemplateY + tplH*scale; bottom > e.Height {
		e.Height = bottom
	}
	return e
}

// pixels rounds a canvas extent up to whole pixels. The epsilon keeps
// values like 100.0000000001 from adding a column.
func pixels(v float64) int {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	return int(math.Ceil(v - 1e-9))
}
