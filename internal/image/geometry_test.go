package imagepkg

import (
	"math"
	"testing"

	"github.com/youruser/beebot/internal/template"
)

func axis(position, offset, size float64) template.Axis {
	return template.Axis{Position: position, Offset: offset, Size: size}
}

func TestSolveScale(t *testing.T) {
	tests := []struct {
		name          string
		width, height float64
		x, y          template.Axis
		want          float64
	}{
		{"identity", 100, 100, axis(0, 0, 100), axis(0, 0, 100), 1},
		{"larger axis wins", 200, 100, axis(0, 0, 100), axis(0, 0, 100), 2},
		{"zero sizes", 100, 100, axis(0, 0, 0), axis(0, 0, 0), 0},
		{"one zero size", 100, 100, axis(0, 0, 0), axis(0, 0, 50), 2},
		{"clamped high", 1000, 1000, axis(0, 0, 1), axis(0, 0, 1), DefaultMaxScale},
		{"negative clamped", 100, 100, axis(0, 0, -10), axis(0, 0, -10), 0},
		{"zero image", 0, 0, axis(0, 0, 100), axis(0, 0, 100), 0},
		{"infinite size", 100, 100, axis(0, 0, math.Inf(1)), axis(0, 0, 100), 1},
		{"nan size", 100, 100, axis(0, 0, math.NaN()), axis(0, 0, math.NaN()), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SolveScale(tt.width, tt.height, tt.x, tt.y, DefaultMaxScale)
			if got.Scale != tt.want {
				t.Fatalf("scale = %v, want %v (%+v)", got.Scale, tt.want, got)
			}
			if got.Scale < 0 || got.Scale > DefaultMaxScale || math.IsNaN(got.Scale) {
				t.Fatalf("scale %v escaped [0, %v]", got.Scale, DefaultMaxScale)
			}
		})
	}
}

func TestSolveScaleCustomMax(t *testing.T) {
	got := SolveScale(1000, 1000, axis(0, 0, 1), axis(0, 0, 1), 3)
	if got.Scale != 3 {
		t.Fatalf("scale = %v, want 3", got.Scale)
	}
}

func TestCalculatePosition(t *testing.T) {
	abs := template.Axis{Position: 75, Offset: 12, Size: 40, Absolute: true}
	for _, scale := range []float64{0, 0.5, 1, 10} {
		for _, size := range []float64{0, 1, 100, 4096} {
			if got := CalculatePosition(scale, abs, size); got != 12 {
				t.Fatalf("absolute position = %v at scale %v size %v", got, scale, size)
			}
		}
	}

	if got := CalculatePosition(1, axis(50, 0, 100), 100); got != 50 {
		t.Fatalf("position = %v, want 50", got)
	}
	if got := CalculatePosition(2, axis(25, 10, 100), 200); got != 30 {
		t.Fatalf("position = %v, want 30", got)
	}
	if got := CalculatePosition(1, axis(0, 30, 100), 100); got != -30 {
		t.Fatalf("position = %v, want -30", got)
	}
}

func TestComputeExtentCentered(t *testing.T) {
	scale := SolveScale(100, 100, axis(50, 0, 100), axis(50, 0, 100), DefaultMaxScale)
	if scale.XScale != 1 || scale.YScale != 1 || scale.Scale != 1 {
		t.Fatalf("unexpected scale %+v", scale)
	}
	offX := CalculatePosition(scale.Scale, axis(50, 0, 100), 100)
	offY := CalculatePosition(scale.Scale, axis(50, 0, 100), 100)

	got := ComputeExtent(100, 100, 50, 50, scale.Scale, offX, offY)
	want := Extent{Width: 100, Height: 100, TemplateX: 50, TemplateY: 50}
	if got != want {
		t.Fatalf("extent = %+v, want %+v", got, want)
	}
}

func TestComputeExtentNegativeOffset(t *testing.T) {
	offX := CalculatePosition(1, axis(0, 30, 100), 100)
	got := ComputeExtent(100, 100, 50, 50, 1, offX, 0)
	if got.ImageX != 30 || got.Width != 130 || got.TemplateX != 0 {
		t.Fatalf("extent = %+v", got)
	}
	if got.Height != 100 || got.ImageY != 0 {
		t.Fatalf("y axis should be untouched: %+v", got)
	}
}

func TestComputeExtentBothDirections(t *testing.T) {
	// left overflow on x, bottom overflow on y
	got := ComputeExtent(100, 100, 80, 80, 1, -20, 60)
	want := Extent{Width: 120, Height: 140, ImageX: 20, TemplateY: 60}
	if got != want {
		t.Fatalf("extent = %+v, want %+v", got, want)
	}

	// negative offset and a template wider than the grown canvas on the same axis
	got = ComputeExtent(100, 100, 300, 10, 1, -50, 0)
	if got.Width != 300 || got.ImageX != 50 || got.TemplateX != 0 {
		t.Fatalf("extent = %+v", got)
	}
}

func TestComputeExtentBounds(t *testing.T) {
	offsets := []float64{-100000, -250, -1, 0, 1, 99, 5000}
	scales := []float64{0, 0.25, 1, 10}
	for _, ox := range offsets {
		for _, oy := range offsets {
			for _, s := range scales {
				e := ComputeExtent(100, 60, 40, 30, s, ox, oy)
				if e.ImageX < 0 || e.ImageY < 0 || e.TemplateX < 0 || e.TemplateY < 0 {
					t.Fatalf("negative layer offset for (%v, %v, %v): %+v", ox, oy, s, e)
				}
				if e.Width < e.ImageX+100 || e.Height < e.ImageY+60 {
					t.Fatalf("base image outside canvas for (%v, %v, %v): %+v", ox, oy, s, e)
				}
				if e.Width < e.TemplateX+40*s || e.Height < e.TemplateY+30*s {
					t.Fatalf("template outside canvas for (%v, %v, %v): %+v", ox, oy, s, e)
				}
			}
		}
	}
}

func TestPixels(t *testing.T) {
	cases := map[float64]int{0: 0, -5: 0, 1: 1, 100: 100, 100.0000000001: 100, 100.2: 101, math.NaN(): 0}
	for in, want := range cases {
		if got := pixels(in); got != want {
			t.Errorf("pixels(%v) = %d, want %d", in, got, want)
		}
	}
}

func TestFlipTransformIsSelfInverse(t *testing.T) {
	f := FlipTransform(130)
	for _, p := range [][2]float64{{0, 0}, {30, 7}, {129.5, 64}} {
		x, y := f.Apply(p[0], p[1])
		x, y = f.Apply(x, y)
		if x != p[0] || y != p[1] {
			t.Fatalf("flip twice moved %v to (%v, %v)", p, x, y)
		}
	}
	if x, _ := f.Apply(0, 0); x != 130 {
		t.Fatalf("left edge should map to the right edge, got %v", x)
	}
}
