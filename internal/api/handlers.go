package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"

	"github.com/youruser/beebot/internal/command"
	imagepkg "github.com/youruser/beebot/internal/image"
)

const (
	msgInvalidURL      = "Invalid url!"
	msgInvalidTemplate = "Invalid template"
	msgLoadFailed      = "Could not load image"
)

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// listTemplates returns the template names as a JSON array.
func (s *Server) listTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, s.catalog.Names())
}

func (s *Server) listFilters(c *gin.Context) {
	var names []string
	if s.filters != nil {
		names = s.filters.Names()
	}
	c.JSON(http.StatusOK, gin.H{"count": len(names), "filters": names})
}

// renderTemplate applies a template to ?url=, mirrored when reverse=true.
// Optional width and height resize the base image first.
func (s *Server) renderTemplate(c *gin.Context) {
	name := c.Param("templateName")
	tpls, ok := s.catalog.Get(name)
	if !ok {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	req, err := renderRequest(c)
	if err != nil {
		s.fail(c, http.StatusBadRequest, "Invalid size", err)
		return
	}
	src, ok := s.fetch(c, c.Query("url"))
	if !ok {
		return
	}
	s.log.Info().Str("template", name).Bool("flipped", req.FlipH).Str("url", c.Query("url")).Msg("render")

	out, _, err := s.renderer.RenderSource(tpls, src, req)
	if err != nil {
		s.renderFailed(c, err)
		return
	}
	s.writeSource(c, out, "")
}

// debugFrame returns frame ?num= of ?url= as PNG.
func (s *Server) debugFrame(c *gin.Context) {
	num, err := strconv.Atoi(c.DefaultQuery("num", "0"))
	if err != nil {
		s.fail(c, http.StatusBadRequest, "Invalid frame number", err)
		return
	}
	src, ok := s.fetch(c, c.Query("url"))
	if !ok {
		return
	}
	frame, err := src.Frame(num)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err.Error(), err)
		return
	}
	s.writeSource(c, imagepkg.StaticSource(frame), "")
}

// debugCalc renders like renderTemplate but returns the placement of every
// step instead of the image.
func (s *Server) debugCalc(c *gin.Context) {
	name := c.Param("templateName")
	tpls, ok := s.catalog.Get(name)
	if !ok {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	req, err := renderRequest(c)
	if err != nil {
		s.fail(c, http.StatusBadRequest, "Invalid size", err)
		return
	}
	src, ok := s.fetch(c, c.Query("url"))
	if !ok {
		return
	}
	frame, err := src.Frame(0)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err.Error(), err)
		return
	}
	res, err := s.renderer.Chain(tpls, frame, req)
	if err != nil {
		s.renderFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"template": name,
		"width":    res.Width,
		"height":   res.Height,
		"steps":    res.Steps,
		"layers":   res.Layers,
	})
}

type commandRequest struct {
	Text string `json:"text" binding:"required"`
	URL  string `json:"url"`
}

// commandHandler runs a chat message such as "/bee \hat". The base image is
// ?url= or the first custom emote in the text.
func (s *Server) commandHandler(c *gin.Context) {
	var body commandRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		s.fail(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	res, err := s.commands.Parse(body.Text)
	if errors.Is(err, command.ErrNoCommand) {
		s.fail(c, http.StatusBadRequest, "No command", nil)
		return
	}
	if err != nil {
		s.fail(c, http.StatusBadRequest, err.Error(), err)
		return
	}
	if res.Reply != "" {
		c.JSON(http.StatusOK, gin.H{"reply": res.Reply})
		return
	}

	url, base := body.URL, "image"
	if url == "" {
		emote, ok := command.FindEmote(body.Text)
		if !ok {
			s.fail(c, http.StatusBadRequest, "No image", nil)
			return
		}
		url, base = emote.URL, emote.Name
	}
	src, ok := s.fetch(c, url)
	if !ok {
		return
	}
	for _, step := range res.Steps {
		s.log.Info().Str("command", step.Name).Bool("flipped", step.FlipH).Str("url", url).Msg("command")
		src, _, err = s.renderer.RenderSource(step.Templates, src, imagepkg.Request{FlipH: step.FlipH})
		if err != nil {
			s.renderFailed(c, err)
			return
		}
	}
	s.writeSource(c, src, res.FileName(base, src.Ext()))
}

// qrHandler previews a qr: template source.
func qrHandler(c *gin.Context) {
	text := c.DefaultQuery("text", "beebot")
	size := 256
	if v, err := strconv.Atoi(c.Query("size")); err == nil && v > 0 && v <= 2048 {
		size = v
	}
	img, err := imagepkg.GenerateQRImage(text, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": http.StatusInternalServerError, "error": err.Error()})
		return
	}
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.PNG); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": http.StatusInternalServerError, "error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func renderRequest(c *gin.Context) (imagepkg.Request, error) {
	req := imagepkg.Request{FlipH: c.Query("reverse") == "true"}
	for _, p := range []struct {
		key string
		dst *float64
	}{{"width", &req.Size.Width}, {"height", &req.Size.Height}} {
		v := c.Query(p.key)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || n <= 0 || n > 4096 {
			return req, fmt.Errorf("invalid %s %q", p.key, v)
		}
		*p.dst = n
	}
	return req, nil
}

// fetch loads url and writes the error response itself when that fails.
func (s *Server) fetch(c *gin.Context, url string) (*imagepkg.Source, bool) {
	if !imagepkg.IsHTTPURL(url) {
		s.fail(c, http.StatusBadRequest, msgInvalidURL, nil)
		return nil, false
	}
	src, err := s.fetcher.Fetch(c.Request.Context(), url)
	if err != nil {
		if errors.Is(err, imagepkg.ErrInvalidURL) {
			s.fail(c, http.StatusBadRequest, msgInvalidURL, err)
		} else {
			s.fail(c, http.StatusBadRequest, msgLoadFailed, err)
		}
		return nil, false
	}
	return src, true
}

func (s *Server) writeSource(c *gin.Context, src *imagepkg.Source, filename string) {
	buf := new(bytes.Buffer)
	if err := imagepkg.Encode(buf, src); err != nil {
		s.fail(c, http.StatusInternalServerError, "Could not encode image", err)
		return
	}
	if filename != "" {
		c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	}
	c.Data(http.StatusOK, src.ContentType(), buf.Bytes())
}

// renderFailed reports a render error. Only the generic message reaches the
// client; the cause is logged.
func (s *Server) renderFailed(c *gin.Context, err error) {
	var re *imagepkg.RenderError
	if errors.As(err, &re) {
		s.log.Warn().Str("layer", re.Layer).Err(re.Cause).Msg("invalid template")
		_ = c.Error(err)
		c.AbortWithStatusJSON(re.Status(), gin.H{"status": re.Status(), "kind": re.Kind(), "error": msgInvalidTemplate})
		return
	}
	s.fail(c, http.StatusBadRequest, msgInvalidTemplate, err)
}

func (s *Server) fail(c *gin.Context, status int, msg string, err error) {
	if err != nil {
		s.log.Debug().Err(err).Int("status", status).Msg(msg)
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, gin.H{"status": status, "error": msg})
}
