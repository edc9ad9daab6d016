package main

import (
	"image/color"

	"github.com/chazu/quill/pkg/beautify"
	"github.com/chazu/quill/pkg/config"
	"github.com/chazu/quill/pkg/engine"
	"github.com/chazu/quill/pkg/kernel"
	"github.com/chazu/quill/pkg/kernel/sdfx"
	"github.com/chazu/quill/pkg/sketch"
	"github.com/rs/zerolog"
)

// colorPalette is a default palette used to assign distinct colors to
// beautified shapes that carry no color of their own.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App ties the pipeline together: source -> engine -> sketch -> validation
// -> beautification.
type App struct {
	cfg    *config.Config
	log    zerolog.Logger
	engine *engine.Engine
	kernel kernel.Kernel
}

// ShapeData summarizes one beautified top-level shape.
type ShapeData struct {
	ShapeID string `json:"shapeId"`
	Label   string `json:"label"`
	Kind    string `json:"kind"`
	Color   string `json:"color"`
}

// EvalErrorData is a located error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result of one evaluation.
type EvalResult struct {
	Sketch   *sketch.Sketch  `json:"-"`
	Shapes   []ShapeData     `json:"shapes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// OK reports whether evaluation produced a sketch without errors.
func (r EvalResult) OK() bool {
	return r.Sketch != nil && len(r.Errors) == 0
}

// NewApp creates an App with an engine seeded from cfg and the sdfx
// kernel. A nil cfg uses config.Default.
func NewApp(cfg *config.Config, log zerolog.Logger) *App {
	if cfg == nil {
		cfg = config.Default()
	}
	return &App{
		cfg: cfg,
		log: log,
		engine: engine.NewEngine(
			engine.WithTimeout(cfg.EvalTimeout),
			engine.WithSketchFactory(cfg.NewSketch),
		),
		kernel: sdfx.New(),
	}
}

// Evaluate turns source into a validated sketch and, when requested,
// beautifies its shapes.
func (a *App) Evaluate(source string, beautifyShapes bool) EvalResult {
	result := EvalResult{
		Shapes:   []ShapeData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	// Step 1: Evaluate the Lisp source into a sketch.
	sk, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		a.log.Error().Err(err).Msg("evaluate failed")
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}
	result.Sketch = sk

	// Step 2: Structural validation.
	vr := sketch.ValidateAll(sk)
	for _, e := range vr.Errors {
		result.Errors = append(result.Errors, EvalErrorData{Message: e.Error()})
	}
	for _, w := range vr.Warnings {
		a.log.Warn().Stringer("id", w.ID).Msg(w.Message)
		result.Warnings = append(result.Warnings, EvalErrorData{Message: w.Error()})
	}
	if !vr.OK() || !beautifyShapes {
		return result
	}

	// Step 3: Replace recognized shapes with clean outlines.
	opts := beautify.Options{
		StrokeWidth: a.cfg.Beautify.StrokeWidth,
		DotRadius:   a.cfg.Beautify.DotRadius,
		RasterSize:  a.cfg.Beautify.RasterSize,
	}
	if c, err := sketch.ParseHexColor(a.cfg.Beautify.Color); err == nil {
		opts.Painter = &beautify.OutlinePainter{Color: c}
	}
	shapes, err := beautify.Beautify(sk, a.kernel, opts)
	if err != nil {
		a.log.Error().Err(err).Msg("beautify failed")
		result.Errors = append(result.Errors, EvalErrorData{Message: "beautify failed: " + err.Error()})
		return result
	}

	// Step 4: Summarize, assigning palette colors to uncolored shapes.
	for i, r := range shapes {
		col := sketch.HexColor(r.Shape.Color)
		if col == "" {
			col = colorPalette[i%len(colorPalette)]
			if c, err := sketch.ParseHexColor(col); err == nil {
				r.Shape.Color = c
			}
		}
		result.Shapes = append(result.Shapes, ShapeData{
			ShapeID: r.Shape.ID().String(),
			Label:   r.Shape.Label,
			Kind:    r.Kind.String(),
			Color:   col,
		})
	}
	a.log.Info().Int("strokes", sk.NumStrokes()).Int("beautified", len(shapes)).Msg("evaluated")
	return result
}

// shapeColor returns the painter fill for sh.
func shapeColor(sh *sketch.Shape) color.Color {
	if sh.Color != nil {
		return sh.Color
	}
	return color.Black
}
