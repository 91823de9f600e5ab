package main

import (
	"context"
	"errors"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/youruser/beebot/internal/template"
)

func baseArgs(t *testing.T) []string {
	t.Helper()
	t.Setenv("PORT", "")
	root := filepath.Join("..", "..")
	return []string{
		"-config", filepath.Join(root, "config.default.json"),
		"-override", "",
		"-templates", filepath.Join(root, "templates"),
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "avatar.png")
	if err := imaging.Save(imaging.New(32, 32, color.NRGBA{B: 255, A: 255}), in); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "nested", "bee.png")

	args := append(baseArgs(t), "-template", "bee", "-in", in, "-out", out, "-flip")
	if err := run(context.Background(), args); err != nil {
		t.Fatal(err)
	}
	img, err := imaging.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() < 32 || b.Dy() < 32 {
		t.Fatalf("output smaller than the base image: %v", b)
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "avatar.png")
	if err := imaging.Save(imaging.New(8, 8, color.NRGBA{A: 255}), in); err != nil {
		t.Fatal(err)
	}

	if err := run(context.Background(), baseArgs(t)); !errors.Is(err, errUsage) {
		t.Fatalf("missing flags: %v", err)
	}
	args := append(baseArgs(t), "-template", "nope", "-in", in, "-out", filepath.Join(dir, "x.png"))
	if err := run(context.Background(), args); !errors.Is(err, template.ErrTemplateNotFound) {
		t.Fatalf("unknown template: %v", err)
	}
	args = append(baseArgs(t), "-template", "bee", "-in", filepath.Join(dir, "missing.png"))
	if err := run(context.Background(), args); err == nil {
		t.Fatal("missing input accepted")
	}
}
