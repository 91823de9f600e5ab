package filter

import (
	"fmt"
	"image"
	"math"

	"github.com/cenkalti/dominantcolor"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	imagepkg "github.com/youruser/beebot/internal/image"
	"github.com/youruser/beebot/internal/template"
)

// mapColors applies fn to every visible pixel of src, keeping alpha.
func mapColors(src image.Image, fn func(colorful.Color) colorful.Color) *image.NRGBA {
	out := imaging.Clone(src)
	for i := 0; i+3 < len(out.Pix); i += 4 {
		px := out.Pix[i : i+4 : i+4]
		if px[3] == 0 {
			continue
		}
		c := colorful.Color{
			R: float64(px[0]) / 255,
			G: float64(px[1]) / 255,
			B: float64(px[2]) / 255,
		}
		px[0], px[1], px[2] = fn(c).Clamped().RGB255()
	}
	return out
}

func amount(attrs template.Attributes, def float64) (float64, error) {
	t, err := attrs.Float("amount", def)
	if err != nil {
		return 0, err
	}
	if t < 0 || t > 1 || math.IsNaN(t) {
		return 0, fmt.Errorf("amount %v out of range [0, 1]", t)
	}
	return t, nil
}

// tint blends every pixel towards "color" (hex) by "amount" (0–1,
// default 0.5) in Lab space.
func tint(src image.Image, attrs template.Attributes) (image.Image, error) {
	hex, err := attrs.String("color", "")
	if err != nil {
		return nil, err
	}
	target, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("tint: %w", err)
	}
	t, err := amount(attrs, 0.5)
	if err != nil {
		return nil, fmt.Errorf("tint: %w", err)
	}
	return mapColors(src, func(c colorful.Color) colorful.Color {
		return c.BlendLab(target, t)
	}), nil
}

// hue rotates the hue of every pixel by "degrees" in HCL space.
func hue(src image.Image, attrs template.Attributes) (image.Image, error) {
	deg, err := attrs.Float("degrees", 0)
	if err != nil {
		return nil, err
	}
	return mapColors(src, func(c colorful.Color) colorful.Color {
		h, ch, l := c.Hcl()
		return colorful.Hcl(math.Mod(h+deg+360, 360), ch, l)
	}), nil
}

// dominant tints the template with the dominant color of what is already
// on the canvas, so the overlay picks up the avatar's palette.
func dominant(dst *imagepkg.Canvas, src image.Image, x, y float64, opts imagepkg.DrawOptions) (*imagepkg.Canvas, error) {
	t, err := amount(opts.Attributes, 0.5)
	if err != nil {
		return nil, fmt.Errorf("dominant: %w", err)
	}
	candidates := dominantcolor.FindWeight(dst.Image(), 1)
	if len(candidates) == 0 {
		return imagepkg.DirectDraw.Apply(dst, src, x, y, opts)
	}
	target, ok := colorful.MakeColor(candidates[0].RGBA)
	if !ok {
		return imagepkg.DirectDraw.Apply(dst, src, x, y, opts)
	}
	tinted := mapColors(src, func(c colorful.Color) colorful.Color {
		return c.BlendLab(target, t)
	})
	return imagepkg.DirectDraw.Apply(dst, tinted, x, y, opts)
}
