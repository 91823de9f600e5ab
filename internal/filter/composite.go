package filter

import (
	"image"

	"github.com/disintegration/imaging"

	imagepkg "github.com/youruser/beebot/internal/image"
)

// atop draws the template only where the canvas is already painted
// (source-atop), leaving transparent areas untouched.
func atop(dst *imagepkg.Canvas, src image.Image, x, y float64, opts imagepkg.DrawOptions) (*imagepkg.Canvas, error) {
	layer := imagepkg.NewCanvas(dst.Width(), dst.Height())
	if err := layer.DrawImage(src, x, y, opts); err != nil {
		return nil, err
	}
	d, s := dst.Image().Pix, layer.Image().Pix
	for i := 0; i+3 < len(d) && i+3 < len(s); i += 4 {
		if d[i+3] == 0 || s[i+3] == 0 {
			continue
		}
		sa := float64(s[i+3]) / 255
		for c := 0; c < 3; c++ {
			d[i+c] = uint8(float64(s[i+c])*sa + float64(d[i+c])*(1-sa) + 0.5)
		}
	}
	return dst, nil
}

// behind draws the template underneath everything already on the canvas
// (destination-over). It returns a new canvas.
func behind(dst *imagepkg.Canvas, src image.Image, x, y float64, opts imagepkg.DrawOptions) (*imagepkg.Canvas, error) {
	out := imagepkg.NewCanvas(dst.Width(), dst.Height())
	if err := out.DrawImage(src, x, y, opts); err != nil {
		return nil, err
	}
	return imagepkg.CanvasFrom(imaging.Overlay(out.Image(), dst.Image(), image.Pt(0, 0), 1)), nil
}
