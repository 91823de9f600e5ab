package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/youruser/beebot/internal/command"
	imagepkg "github.com/youruser/beebot/internal/image"
	"github.com/youruser/beebot/internal/template"
)

// Fetcher loads base images.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*imagepkg.Source, error)
}

// FilterNames lists the registered filters.
type FilterNames interface {
	Names() []string
}

// Server holds everything the handlers share. All of it is read-only after
// construction.
type Server struct {
	catalog  *template.Catalog
	renderer *imagepkg.Renderer
	fetcher  Fetcher
	commands *command.Parser
	filters  FilterNames
	log      zerolog.Logger
	debug    bool
}

// Options configures NewServer.
type Options struct {
	Catalog  *template.Catalog
	Renderer *imagepkg.Renderer
	Fetcher  Fetcher
	Commands *command.Parser
	Filters  FilterNames
	Logger   zerolog.Logger
	// Debug registers the /debug routes.
	Debug bool
}

func NewServer(o Options) *Server {
	return &Server{
		catalog:  o.Catalog,
		renderer: o.Renderer,
		fetcher:  o.Fetcher,
		commands: o.Commands,
		filters:  o.Filters,
		log:      o.Logger,
		debug:    o.Debug,
	}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/", s.listTemplates)
	r.GET("/:templateName/", s.renderTemplate)

	if s.debug {
		debug := r.Group("/debug")
		{
			debug.GET("/frame/", s.debugFrame)
			debug.GET("/calc/:templateName", s.debugCalc)
		}
	}

	api := r.Group("/api")
	{
		api.GET("/health", health)
		api.GET("/filters", s.listFilters)
		api.GET("/qr", qrHandler)
		api.POST("/command", s.commandHandler)
	}
}
