package main

import (
	"os"
	"testing"

	"github.com/chazu/quill/pkg/beautify"
	"github.com/chazu/quill/pkg/config"
	"github.com/chazu/quill/pkg/sketch"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	return NewApp(config.Default(), zerolog.Nop())
}

// TestE2EArrowExample exercises the full pipeline: Lisp source -> engine ->
// sketch -> validation -> beautification.
func TestE2EArrowExample(t *testing.T) {
	source, err := os.ReadFile("examples/arrow.quill")
	require.NoError(t, err)

	res := newTestApp(t).Evaluate(string(source), true)
	require.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
	require.True(t, res.OK())

	sk := res.Sketch
	assert.Equal(t, "arrows", sk.Study)
	assert.Equal(t, sketch.UnitsPixel, sk.Units)
	assert.Equal(t, 3, sk.NumStrokes())
	require.Equal(t, 2, sk.NumShapes())

	arrow := sk.Shapes()[0]
	assert.Equal(t, "Arrow", arrow.Label)
	assert.Equal(t, 3, arrow.NumSubShapes())
	assert.Equal(t, 2, arrow.NumAliases())
	for _, c := range arrow.SubShapes() {
		assert.Less(t, c.Order(), arrow.Order())
		assert.Equal(t, sketch.BeautifyShape, c.BeautificationType())
	}

	require.Len(t, res.Shapes, 2)
	assert.Equal(t, beautify.KindComposite.String(), res.Shapes[0].Kind)
	assert.Equal(t, beautify.KindDot.String(), res.Shapes[1].Kind)
	for _, s := range res.Shapes {
		assert.NotEmpty(t, s.Color)
	}

	// The tip of the arrow lies on the beautified outline.
	assert.True(t, insideShape(arrow, 100, 50))
	assert.False(t, insideShape(arrow, 50, 80))
}

func insideShape(sh *sketch.Shape, x, y float64) bool {
	o := sh.BeautifiedShape()
	return o != nil && o.Evaluate(x, y) <= 0
}

// TestE2EEmptySource ensures the pipeline handles empty input gracefully.
func TestE2EEmptySource(t *testing.T) {
	res := newTestApp(t).Evaluate("", true)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Shapes)
	require.NotNil(t, res.Sketch)
	assert.Zero(t, res.Sketch.NumStrokes())
}

// TestE2ESyntaxError ensures eval errors are reported, not fatal errors.
func TestE2ESyntaxError(t *testing.T) {
	res := newTestApp(t).Evaluate(`(defstroke "a"`, true)
	require.NotEmpty(t, res.Errors)
	assert.Nil(t, res.Sketch)
	assert.False(t, res.OK())
	assert.Empty(t, res.Shapes)
}

func TestE2EWithoutBeautify(t *testing.T) {
	res := newTestApp(t).Evaluate(`(add-shape (shape :label "Dot" :strokes (list (stroke (point 1 1)))))`, false)
	require.True(t, res.OK())
	assert.Empty(t, res.Shapes)
	assert.Equal(t, sketch.BeautifyNone, res.Sketch.Shapes()[0].BeautificationType())
}

func TestE2EWarnings(t *testing.T) {
	// Times run backwards and the alias points at a phantom point.
	src := `
(def s (stroke (point 0 0 5) (point 1 1 2)))
(add-shape (shape :strokes (list s) :aliases (list (alias-point "x" (point 9 9)))))
`
	res := newTestApp(t).Evaluate(src, false)
	require.True(t, res.OK())
	assert.Len(t, res.Warnings, 2)
}

func TestE2EConfigSeedsSketch(t *testing.T) {
	cfg, err := config.Load("examples/session.yaml")
	require.NoError(t, err)

	res := NewApp(cfg, zerolog.Nop()).Evaluate(`(stroke (point 0 0) :author "ann")`, false)
	require.True(t, res.OK())
	assert.Equal(t, "arrows", res.Sketch.Study)
	assert.Equal(t, 96.0, res.Sketch.FirstStroke().Author.DpiX)
}

func TestE2ERasterBeautify(t *testing.T) {
	cfg := config.Default()
	cfg.Beautify.RasterSize = 32
	cfg.Beautify.Color = "#ff0000"

	res := NewApp(cfg, zerolog.Nop()).Evaluate(`(add-shape (shape :label "Circle" :strokes (list (stroke (point 0 0) (point 20 0) (point 20 20) (point 0 20)))))`, true)
	require.True(t, res.OK())
	sh := res.Sketch.Shapes()[0]
	assert.Equal(t, sketch.BeautifyImage, sh.BeautificationType())
	img, bounds := sh.BeautifiedImage()
	require.NotNil(t, img)
	require.NotNil(t, bounds)
	assert.NotNil(t, sh.Painter())
}
