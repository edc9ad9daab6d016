// Package config loads the YAML session file that seeds every evaluated
// sketch with study metadata, authors and pens, and tunes the CLI.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/chazu/quill/pkg/sketch"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config is the session file.
type Config struct {
	Study   string   `yaml:"study,omitempty"`
	Domain  string   `yaml:"domain,omitempty"`
	Units   string   `yaml:"units,omitempty"`
	Authors []Author `yaml:"authors,omitempty"`
	Pens    []Pen    `yaml:"pens,omitempty"`

	LogLevel    string        `yaml:"log_level,omitempty"`
	EvalTimeout time.Duration `yaml:"eval_timeout,omitempty"`
	Beautify    Beautify      `yaml:"beautify,omitempty"`
}

// Author is declared up front so scripts can refer to it by description.
type Author struct {
	Description string  `yaml:"description"`
	DpiX        float64 `yaml:"dpi_x,omitempty"`
	DpiY        float64 `yaml:"dpi_y,omitempty"`
}

// Pen is declared up front so scripts can refer to it by pen id.
type Pen struct {
	PenID       string `yaml:"pen_id"`
	Brand       string `yaml:"brand,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// Beautify tunes outline construction.
type Beautify struct {
	StrokeWidth float64 `yaml:"stroke_width,omitempty"`
	DotRadius   float64 `yaml:"dot_radius,omitempty"`
	RasterSize  int     `yaml:"raster_size,omitempty"`
	Color       string  `yaml:"color,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel:    "warn",
		EvalTimeout: 5 * time.Second,
		Beautify:    Beautify{StrokeWidth: 2, DotRadius: 3},
	}
}

// Load reads and validates the file at path. Fields the file leaves out
// keep their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read the config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates YAML config data.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var errs []error
	if _, err := sketch.ParseSpaceUnits(c.Units); err != nil {
		errs = append(errs, err)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if c.EvalTimeout < 0 {
		errs = append(errs, fmt.Errorf("eval_timeout %s must not be negative", c.EvalTimeout))
	}
	seen := make(map[string]bool)
	for i, a := range c.Authors {
		if a.Description == "" {
			errs = append(errs, fmt.Errorf("authors[%d]: description is required", i))
		} else if seen[a.Description] {
			errs = append(errs, fmt.Errorf("authors[%d]: duplicate author %q", i, a.Description))
		}
		seen[a.Description] = true
	}
	seen = make(map[string]bool)
	for i, p := range c.Pens {
		if p.PenID == "" {
			errs = append(errs, fmt.Errorf("pens[%d]: pen_id is required", i))
		} else if seen[p.PenID] {
			errs = append(errs, fmt.Errorf("pens[%d]: duplicate pen %q", i, p.PenID))
		}
		seen[p.PenID] = true
	}
	if c.Beautify.StrokeWidth < 0 || c.Beautify.DotRadius < 0 || c.Beautify.RasterSize < 0 {
		errs = append(errs, errors.New("beautify: sizes must not be negative"))
	}
	if c.Beautify.Color != "" {
		if _, err := sketch.ParseHexColor(c.Beautify.Color); err != nil {
			errs = append(errs, fmt.Errorf("beautify: %w", err))
		}
	}
	return errors.Join(errs...)
}

// NewSketch returns an empty sketch carrying the configured metadata,
// authors and pens. It is meant as an engine sketch factory.
func (c *Config) NewSketch() *sketch.Sketch {
	sk := sketch.New()
	sk.Study = c.Study
	sk.Domain = c.Domain
	sk.Units, _ = sketch.ParseSpaceUnits(c.Units)
	for _, a := range c.Authors {
		author := sketch.NewAuthor(a.Description)
		author.DpiX, author.DpiY = a.DpiX, a.DpiY
		sk.AddAuthor(author)
	}
	for _, p := range c.Pens {
		pen := sketch.NewPen(p.PenID)
		pen.Brand, pen.Description = p.Brand, p.Description
		sk.AddPen(pen)
	}
	return sk
}

// Logger builds a console logger at the configured level.
func (c *Config) Logger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).
		Level(level).
		With().Timestamp().Logger()
}
