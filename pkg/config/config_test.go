package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chazu/quill/pkg/sketch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
study: usability
domain: uml
units: himetric
authors:
  - description: ann
    dpi_x: 96
    dpi_y: 96
pens:
  - pen_id: p1
    brand: wacom
log_level: debug
eval_timeout: 2s
beautify:
  raster_size: 64
  color: "#204080"
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, "usability", cfg.Study)
	assert.Equal(t, "himetric", cfg.Units)
	assert.Equal(t, 2*time.Second, cfg.EvalTimeout)
	assert.Equal(t, 64, cfg.Beautify.RasterSize)
	// Unset fields keep their defaults.
	assert.Equal(t, 2.0, cfg.Beautify.StrokeWidth)
	assert.Equal(t, 3.0, cfg.Beautify.DotRadius)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"units", "units: furlong", "furlong"},
		{"log level", "log_level: loud", "log_level"},
		{"timeout", "eval_timeout: -1s", "eval_timeout"},
		{"author description", "authors: [{dpi_x: 3}]", "description is required"},
		{"duplicate author", "authors: [{description: a}, {description: a}]", "duplicate author"},
		{"pen id", "pens: [{brand: x}]", "pen_id is required"},
		{"duplicate pen", "pens: [{pen_id: a}, {pen_id: a}]", "duplicate pen"},
		{"negative size", "beautify: {raster_size: -4}", "negative"},
		{"color", "beautify: {color: teal}", "beautify"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	_, err := Parse([]byte("units: furlong\nlog_level: loud\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "furlong")
	assert.Contains(t, err.Error(), "log_level")
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte("study: [unclosed"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quill.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "uml", cfg.Domain)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewSketch(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	sk := cfg.NewSketch()
	assert.Equal(t, "usability", sk.Study)
	assert.Equal(t, "uml", sk.Domain)
	assert.Equal(t, sketch.UnitsHimetric, sk.Units)
	require.Len(t, sk.Authors(), 1)
	assert.Equal(t, "ann", sk.Authors()[0].Description)
	assert.Equal(t, 96.0, sk.Authors()[0].DpiX)
	require.Len(t, sk.Pens(), 1)
	assert.Equal(t, "wacom", sk.Pens()[0].Brand)

	// Each call yields an independent sketch.
	assert.NotEqual(t, sk.ID(), cfg.NewSketch().ID())
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	log := cfg.Logger(&buf)
	log.Info().Msg("hidden")
	assert.Zero(t, buf.Len())
	log.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")

	cfg.LogLevel = "debug"
	buf.Reset()
	log = cfg.Logger(&buf)
	log.Debug().Str("k", "v").Msg("detail")
	assert.Contains(t, buf.String(), "detail")
}
