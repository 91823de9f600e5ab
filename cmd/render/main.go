// Command render applies templates to a local image or URL without starting
// the server:
//
//	render -template bee,hat -in avatar.png -out out/bee.png
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/youruser/beebot/internal/app"
	"github.com/youruser/beebot/internal/config"
	imagepkg "github.com/youruser/beebot/internal/image"
	"github.com/youruser/beebot/internal/logging"
	"github.com/youruser/beebot/internal/util"
)

var errUsage = errors.New("-template and -in are required")

func main() {
	err := run(context.Background(), os.Args[1:])
	switch {
	case errors.Is(err, flag.ErrHelp):
		os.Exit(0)
	case errors.Is(err, errUsage):
		fmt.Fprintln(os.Stderr, "render:", err)
		os.Exit(2)
	case err != nil:
		fmt.Fprintln(os.Stderr, "render:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	configPath := fs.String("config", "config.default.json", "default configuration")
	overridePath := fs.String("override", "config.json", "optional configuration merged over -config")
	templatesDir := fs.String("templates", "", "template asset directory (overrides templates.baseDir)")
	names := fs.String("template", "", "comma separated template names, applied in order")
	in := fs.String("in", "", "base image file or http(s) URL")
	out := fs.String("out", "", "output file (default: template names joined, with the source extension)")
	flip := fs.Bool("flip", false, "mirror every template horizontally")
	width := fs.Float64("width", 0, "resize the base image to this width first")
	height := fs.Float64("height", 0, "resize the base image to this height first")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *names == "" || *in == "" {
		fs.Usage()
		return errUsage
	}

	cfg, err := config.Load(*configPath, *overridePath)
	if err != nil {
		return err
	}
	if *templatesDir != "" {
		cfg.Templates.BaseDir = *templatesDir
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}
	src, err := load(ctx, a, *in)
	if err != nil {
		return fmt.Errorf("load %s: %w", *in, err)
	}

	req := imagepkg.Request{FlipH: *flip, Size: imagepkg.Size{Width: *width, Height: *height}}
	list := strings.Split(*names, ",")
	for i, name := range list {
		name = strings.TrimSpace(name)
		tpls, err := a.Catalog.Lookup(name)
		if err != nil {
			return err
		}
		if i > 0 {
			req.Size = imagepkg.Size{}
		}
		src, _, err = a.Renderer.RenderSource(tpls, src, req)
		if err != nil {
			return fmt.Errorf("render %s: %w", name, err)
		}
		list[i] = name
	}

	path := *out
	if path == "" {
		path = strings.Join(list, "") + "." + src.Ext()
	}
	if err := write(path, src); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Info().Str("out", path).Int("frames", len(src.Frames)).Msg("done")
	return nil
}

func load(ctx context.Context, a *app.App, in string) (*imagepkg.Source, error) {
	if imagepkg.IsHTTPURL(in) {
		return a.Fetcher.Fetch(ctx, in)
	}
	f, err := os.Open(in)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return imagepkg.Decode(f)
}

func write(path string, src *imagepkg.Source) error {
	if err := util.EnsureParent(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := imagepkg.Encode(f, src); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
