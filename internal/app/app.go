// Package app wires configuration into the renderer, catalog and command
// parser shared by the server and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/youruser/beebot/internal/command"
	"github.com/youruser/beebot/internal/config"
	"github.com/youruser/beebot/internal/filter"
	imagepkg "github.com/youruser/beebot/internal/image"
	"github.com/youruser/beebot/internal/template"
)

type App struct {
	Config   *config.Config
	Filters  *filter.Registry
	Fetcher  *imagepkg.Fetcher
	Catalog  *template.Catalog
	Renderer *imagepkg.Renderer
	Commands *command.Parser
}

// New loads the template catalog. Invalid templates abort startup when
// templates.strict is set and are skipped with a warning otherwise.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	filters := filter.Default()
	fetcher := imagepkg.NewFetcher(cfg.Download.Timeout.Duration, cfg.Download.MaxBytes)

	catalog, err := template.ParseCatalog(ctx, cfg.Templates.Definitions, template.LoadOptions{
		Images:  &imagepkg.TemplateLoader{BaseDir: cfg.Templates.BaseDir, Fetcher: fetcher},
		Filters: filters,
	})
	if catalog == nil {
		return nil, err
	}
	if err != nil {
		if cfg.Templates.Strict {
			return nil, fmt.Errorf("templates: %w", err)
		}
		log.Warn().Err(err).Msg("some templates were disabled")
	}
	log.Info().Int("templates", catalog.Len()).Strs("names", catalog.Names()).Msg("templates loaded")

	renderer := imagepkg.NewRenderer(filters,
		imagepkg.WithMaxScale(cfg.Render.MaxScale),
		imagepkg.WithMaxCanvas(cfg.Render.MaxCanvas),
		imagepkg.WithLogger(log.With().Str("component", "renderer").Logger()),
	)

	return &App{
		Config:   cfg,
		Filters:  filters,
		Fetcher:  fetcher,
		Catalog:  catalog,
		Renderer: renderer,
		Commands: command.NewParser(catalog, cfg.Commands.MaxTemplates, cfg.Commands.InviteLink),
	}, nil
}
