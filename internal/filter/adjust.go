package filter

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/youruser/beebot/internal/template"
)

func grayscale(src image.Image, _ template.Attributes) (image.Image, error) {
	return imaging.Grayscale(src), nil
}

func invert(src image.Image, _ template.Attributes) (image.Image, error) {
	return imaging.Invert(src), nil
}

// blur reads "sigma" (default 2).
func blur(src image.Image, attrs template.Attributes) (image.Image, error) {
	sigma, err := attrs.Float("sigma", 2)
	if err != nil {
		return nil, err
	}
	if sigma < 0 {
		return nil, fmt.Errorf("blur: negative sigma %v", sigma)
	}
	return imaging.Blur(src, sigma), nil
}

// brightness reads "amount" in percent, -100 to 100.
func brightness(src image.Image, attrs template.Attributes) (image.Image, error) {
	pct, err := attrs.Float("amount", 0)
	if err != nil {
		return nil, err
	}
	if pct < -100 || pct > 100 {
		return nil, fmt.Errorf("brightness: amount %v out of range", pct)
	}
	return imaging.AdjustBrightness(src, pct), nil
}
