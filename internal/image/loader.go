package imagepkg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// TemplateLoader resolves template sources: qr:<text>, http(s) URLs, or
// file paths relative to BaseDir. Sources ending in .svg are rasterized.
type TemplateLoader struct {
	BaseDir string
	Fetcher *Fetcher
}

// LoadTemplateImage implements template.ImageLoader.
func (l *TemplateLoader) LoadTemplateImage(ctx context.Context, src string) (image.Image, error) {
	switch {
	case strings.HasPrefix(src, QRPrefix):
		text := strings.TrimPrefix(src, QRPrefix)
		if text == "" {
			return nil, errors.New("empty qr text")
		}
		return GenerateQRImage(text, qrTemplateSize)
	case IsHTTPURL(src):
		if l.Fetcher == nil {
			return nil, fmt.Errorf("%s: remote templates disabled", src)
		}
		if isSVG(src) {
			body, err := l.Fetcher.Bytes(ctx, src)
			if err != nil {
				return nil, err
			}
			return RasterizeSVG(bytes.NewReader(body))
		}
		s, err := l.Fetcher.Fetch(ctx, src)
		if err != nil {
			return nil, err
		}
		return s.Frames[0], nil
	}

	path := src
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.BaseDir, path)
	}
	if isSVG(path) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return RasterizeSVG(f)
	}
	return imaging.Open(path)
}

func isSVG(src string) bool {
	if i := strings.IndexAny(src, "?#"); i >= 0 && IsHTTPURL(src) {
		src = src[:i]
	}
	return strings.EqualFold(filepath.Ext(src), ".svg")
}
