package imagepkg

import (
	"errors"
	"image"
	"io"
	"math"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

const svgFallbackSize = 256

// RasterizeSVG renders an SVG at its viewBox size, one user unit per pixel,
// so anchor offsets can be written in the SVG's own coordinates. SVGs
// without a viewBox are rendered at 256×256.
func RasterizeSVG(r io.Reader) (*image.NRGBA, error) {
	icon, err := oksvg.ReadIconStream(r)
	if err != nil {
		return nil, err
	}
	w, h := icon.ViewBox.W, icon.ViewBox.H
	if w <= 0 || h <= 0 {
		w, h = svgFallbackSize, svgFallbackSize
	}
	width, height := int(math.Ceil(w)), int(math.Ceil(h))
	if width > 8192 || height > 8192 {
		return nil, errors.New("svg: viewBox too large")
	}

	icon.SetTarget(0, 0, w, h)
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	raster := rasterx.NewDasher(width, height, scanner)
	icon.Draw(raster, 1.0)
	return img, nil
}
