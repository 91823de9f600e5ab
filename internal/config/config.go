// Package config loads the service configuration: config.default.json
// overlaid by an optional config.json.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTP      HTTP      `json:"http"`
	Log       Log       `json:"log"`
	Render    Render    `json:"render"`
	Download  Download  `json:"download"`
	Templates Templates `json:"templates"`
	Commands  Commands  `json:"commands"`
}

type HTTP struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	// Debug enables the /debug routes.
	Debug bool `json:"debug"`
}

// Addr is the listen address.
func (h HTTP) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

type Log struct {
	Level  string `json:"level"`
	Pretty bool   `json:"pretty"`
}

type Render struct {
	MaxScale  float64 `json:"maxScale"`
	MaxCanvas int     `json:"maxCanvas"`
}

type Download struct {
	Timeout  Duration `json:"timeout"`
	MaxBytes int64    `json:"maxBytes"`
}

// Templates holds the catalog. Definitions is parsed by the template
// package once the filter registry exists.
type Templates struct {
	Strict      bool            `json:"strict"`
	BaseDir     string          `json:"baseDir"`
	Definitions json.RawMessage `json:"definitions"`
}

type Commands struct {
	MaxTemplates int    `json:"maxTemplates"`
	InviteLink   string `json:"inviteLink"`
}

// Duration reads "12s" style strings or a number of seconds.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		d.Duration = v
		return nil
	}
	var secs float64
	if err := json.Unmarshal(b, &secs); err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	d.Duration = time.Duration(secs * float64(time.Second))
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// Default is used for every key neither file sets.
func Default() *Config {
	return &Config{
		HTTP:     HTTP{Port: 8080},
		Log:      Log{Level: "info"},
		Render:   Render{MaxScale: 10, MaxCanvas: 4096},
		Download: Download{Timeout: Duration{12 * time.Second}, MaxBytes: 8 << 20},
		Templates: Templates{
			BaseDir:     "templates",
			Definitions: json.RawMessage("{}"),
		},
		Commands: Commands{MaxTemplates: 4},
	}
}

// Load reads defaultPath, then overlays overridePath if it exists. Top-level
// sections of the override replace the default section as a whole. The PORT
// environment variable overrides http.port.
func Load(defaultPath, overridePath string) (*Config, error) {
	merged := map[string]json.RawMessage{}
	for i, path := range []string{defaultPath, overridePath} {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if i > 0 && errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("config: %w", err)
		}
		var sections map[string]json.RawMessage
		if err := json.Unmarshal(data, &sections); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
		for k, v := range sections {
			merged[k] = v
		}
	}

	raw, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("config: PORT %q: %w", port, err)
		}
		cfg.HTTP.Port = p
	}
	return cfg, cfg.Validate()
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port %d out of range", c.HTTP.Port))
	}
	if c.Render.MaxScale <= 0 {
		errs = append(errs, fmt.Errorf("render.maxScale must be positive, got %v", c.Render.MaxScale))
	}
	if c.Render.MaxCanvas < 0 {
		errs = append(errs, fmt.Errorf("render.maxCanvas must not be negative"))
	}
	if c.Download.Timeout.Duration <= 0 {
		errs = append(errs, fmt.Errorf("download.timeout must be positive"))
	}
	if c.Commands.MaxTemplates < 1 {
		errs = append(errs, fmt.Errorf("commands.maxTemplates must be at least 1"))
	}
	return errors.Join(errs...)
}
