package filter

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/muesli/clusters"

	"github.com/youruser/beebot/internal/template"
)

const (
	posterizeMaxSamples = 12000
	posterizeIterations = 16
)

// posterize reduces the template to "levels" colors (default 4) chosen by
// k-means over its visible pixels. Centers are seeded from evenly spaced
// samples so the same template always posterizes the same way.
func posterize(src image.Image, attrs template.Attributes) (image.Image, error) {
	levels, err := attrs.Float("levels", 4)
	if err != nil {
		return nil, err
	}
	k := int(levels)
	if k < 1 || k > 64 {
		return nil, fmt.Errorf("posterize: levels %v out of range [1, 64]", levels)
	}

	out := imaging.Clone(src)
	w, h := out.Rect.Dx(), out.Rect.Dy()
	step := 1
	if w*h > posterizeMaxSamples {
		step = int(math.Sqrt(float64(w*h)/posterizeMaxSamples)) + 1
	}

	var dataset clusters.Observations
	for y := 0; y < h; y += step {
		for x := 0; x < w; x += step {
			px := out.Pix[out.PixOffset(x, y):]
			if px[3] == 0 {
				continue
			}
			dataset = append(dataset, pixelCoordinates(px))
		}
	}
	if len(dataset) == 0 {
		return out, nil
	}

	cc := partition(dataset, min(k, len(dataset)))

	for i := 0; i+3 < len(out.Pix); i += 4 {
		px := out.Pix[i : i+4 : i+4]
		if px[3] == 0 {
			continue
		}
		center := cc[cc.Nearest(pixelCoordinates(px))].Center
		for c := 0; c < 3 && c < len(center); c++ {
			px[c] = uint8(math.Round(max(0, min(1, center[c])) * 255))
		}
	}
	return out, nil
}

func pixelCoordinates(px []uint8) clusters.Coordinates {
	return clusters.Coordinates{
		float64(px[0]) / 255,
		float64(px[1]) / 255,
		float64(px[2]) / 255,
	}
}

// partition runs Lloyd's algorithm from deterministic seeds.
func partition(dataset clusters.Observations, k int) clusters.Clusters {
	cc := make(clusters.Clusters, k)
	for i := range cc {
		cc[i].Center = dataset[i*len(dataset)/k].Coordinates()
	}
	for iter := 0; iter < posterizeIterations; iter++ {
		cc.Reset()
		for _, p := range dataset {
			n := cc.Nearest(p)
			cc[n].Append(p)
		}
		cc.Recenter()
	}
	return cc
}
