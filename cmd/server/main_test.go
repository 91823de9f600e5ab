package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/youruser/beebot/internal/config"
)

func TestHandlerFromDefaultConfig(t *testing.T) {
	root := filepath.Join("..", "..")
	t.Setenv("PORT", "")
	cfg, err := config.Load(filepath.Join(root, "config.default.json"), "")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Templates.BaseDir = filepath.Join(root, cfg.Templates.BaseDir)

	h, err := newHandler(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health: %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	var names []string
	if err := json.Unmarshal(w.Body.Bytes(), &names); err != nil || len(names) == 0 {
		t.Fatalf("templates: %q %v", w.Body.String(), err)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/frame/", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("debug routes registered by default: %d", w.Code)
	}
}
