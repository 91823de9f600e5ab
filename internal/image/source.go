package imagepkg

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"io"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/youruser/beebot/internal/template"
)

// Source is a decoded base image. Animated GIFs carry one fully composed
// frame per entry; everything else has a single frame.
type Source struct {
	Frames    []*image.NRGBA
	Delays    []int // per frame, in 100ths of a second
	LoopCount int
	Format    string
}

// StaticSource wraps a single image.
func StaticSource(img image.Image) *Source {
	return &Source{Frames: []*image.NRGBA{imaging.Clone(img)}, Format: "png"}
}

// Animated reports whether the source has more than one frame.
func (s *Source) Animated() bool { return len(s.Frames) > 1 }

// Ext is the file extension the rendered source should be encoded with.
func (s *Source) Ext() string {
	if s.Animated() || s.Format == "gif" {
		return "gif"
	}
	return "png"
}

// ContentType matches Ext.
func (s *Source) ContentType() string {
	if s.Ext() == "gif" {
		return "image/gif"
	}
	return "image/png"
}

// Frame returns frame n or an error when it does not exist.
func (s *Source) Frame(n int) (*image.NRGBA, error) {
	if n < 0 || n >= len(s.Frames) {
		return nil, fmt.Errorf("frame %d out of range [0, %d)", n, len(s.Frames))
	}
	return s.Frames[n], nil
}

// Decode reads PNG, JPEG, WebP or GIF data. GIFs keep all their frames.
func Decode(r io.Reader) (*Source, error) {
	br := bufio.NewReader(r)
	magic, _ := br.Peek(6)
	if bytes.HasPrefix(magic, []byte("GIF8")) {
		g, err := gif.DecodeAll(br)
		if err != nil {
			return nil, fmt.Errorf("decode gif: %w", err)
		}
		if len(g.Image) == 0 {
			return nil, errors.New("decode gif: no frames")
		}
		return &Source{
			Frames:    coalesce(g),
			Delays:    g.Delay,
			LoopCount: g.LoopCount,
			Format:    "gif",
		}, nil
	}

	img, err := imaging.Decode(br, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return &Source{Frames: []*image.NRGBA{imaging.Clone(img)}, Format: "png"}, nil
}

// coalesce turns GIF frames, which may cover only part of the logical
// screen, into full frames honouring each frame's disposal method.
func coalesce(g *gif.GIF) []*image.NRGBA {
	w, h := g.Config.Width, g.Config.Height
	if (w == 0 || h == 0) && len(g.Image) > 0 {
		b := g.Image[0].Bounds()
		w, h = b.Max.X, b.Max.Y
	}
	screen := image.NewNRGBA(image.Rect(0, 0, w, h))
	frames := make([]*image.NRGBA, 0, len(g.Image))
	for i, p := range g.Image {
		var disposal byte
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		var previous *image.NRGBA
		if disposal == gif.DisposalPrevious {
			previous = imaging.Clone(screen)
		}

		draw.Draw(screen, p.Bounds(), p, p.Bounds().Min, draw.Over)
		frames = append(frames, imaging.Clone(screen))

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(screen, p.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			screen = previous
		}
	}
	return frames
}

// RenderSource runs every frame of src through Chain. The calculation of
// the first frame is returned alongside the rendered source; all frames of
// a source share the same size and therefore the same placement.
func (r *Renderer) RenderSource(tpls []*template.Template, src *Source, req Request) (*Source, *Result, error) {
	if src == nil || len(src.Frames) == 0 {
		return nil, nil, r.fail("image", errors.New("empty source"))
	}
	out := &Source{
		Frames:    make([]*image.NRGBA, 0, len(src.Frames)),
		Delays:    src.Delays,
		LoopCount: src.LoopCount,
		Format:    src.Format,
	}
	var first *Result
	for _, frame := range src.Frames {
		res, err := r.Chain(tpls, frame, req)
		if err != nil {
			return nil, nil, err
		}
		if first == nil {
			first = res
		}
		out.Frames = append(out.Frames, res.Image)
	}
	return out, first, nil
}

// Encode writes s as PNG, or as an animated GIF when s.Ext() is gif.
func Encode(w io.Writer, s *Source) error {
	if len(s.Frames) == 0 {
		return errors.New("encode: no frames")
	}
	if s.Ext() != "gif" {
		return imaging.Encode(w, s.Frames[0], imaging.PNG)
	}

	pal := append(color.Palette{color.Transparent}, palette.WebSafe...)
	g := &gif.GIF{LoopCount: s.LoopCount}
	for i, frame := range s.Frames {
		p := image.NewPaletted(frame.Bounds(), pal)
		draw.FloydSteinberg.Draw(p, frame.Bounds(), frame, frame.Bounds().Min)
		g.Image = append(g.Image, p)
		delay := 0
		if i < len(s.Delays) {
			delay = s.Delays[i]
		}
		g.Delay = append(g.Delay, delay)
		g.Disposal = append(g.Disposal, gif.DisposalBackground)
	}
	return gif.EncodeAll(w, g)
}
