// Package beautify walks a sketch's shapes and replaces their raw ink with
// clean geometry built by a kernel. The outline chosen for a shape depends
// on its label: lines become segments, circles become discs, rectangles
// become boxes, composites become the union of their parts.
package beautify

import (
	"fmt"
	"math"
	"strings"

	"github.com/chazu/quill/pkg/kernel"
	"github.com/chazu/quill/pkg/sketch"
)

// Kind names the geometry chosen for a shape.
type Kind int

const (
	KindNone Kind = iota
	KindSegment
	KindDot
	KindCircle
	KindEllipse
	KindRect
	KindPolyline
	KindComposite
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindSegment:
		return "segment"
	case KindDot:
		return "dot"
	case KindCircle:
		return "circle"
	case KindEllipse:
		return "ellipse"
	case KindRect:
		return "rect"
	case KindPolyline:
		return "polyline"
	case KindComposite:
		return "composite"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Options controls outline construction.
type Options struct {
	StrokeWidth float64        // width of segments and polylines
	DotRadius   float64        // radius of Dot shapes
	RasterSize  int            // longest image side in pixels; 0 keeps outlines
	Force       bool           // rebeautify shapes that already have a replacement
	Painter     sketch.Painter // installed on every beautified shape when set
}

// DefaultOptions returns the options used by the CLI.
func DefaultOptions() Options {
	return Options{StrokeWidth: 2, DotRadius: 3}
}

// Result records what was done to one top-level shape.
type Result struct {
	Shape   *sketch.Shape
	Kind    Kind
	Outline kernel.Outline
}

// Beautify sets a replacement rendering on every top-level shape of sk and
// returns one result per shape that received one. Sub-shapes contribute to
// their parent's outline and are beautified with the same options. Force
// is only consulted for top-level shapes: the sub-shapes of a shape being
// beautified are always rebuilt.
func Beautify(sk *sketch.Sketch, k kernel.Kernel, opts Options) ([]Result, error) {
	if sk == nil {
		return nil, nil
	}
	if opts.StrokeWidth <= 0 {
		opts.StrokeWidth = DefaultOptions().StrokeWidth
	}
	if opts.DotRadius <= 0 {
		opts.DotRadius = DefaultOptions().DotRadius
	}

	var results []Result
	for _, sh := range sk.Shapes() {
		if !opts.Force && sh.BeautificationType() != sketch.BeautifyNone {
			continue
		}
		o, kind, err := walkShape(k, sh, opts)
		if err != nil {
			return nil, fmt.Errorf("beautify: shape %s (%q): %w", sh.ID(), sh.Label, err)
		}
		if o == nil {
			continue
		}
		if err := apply(sh, o, opts); err != nil {
			return nil, fmt.Errorf("beautify: shape %s (%q): %w", sh.ID(), sh.Label, err)
		}
		sketch.Logger().Debug().Stringer("shape", sh.ID()).Str("label", sh.Label).Stringer("kind", kind).
			Msg("beautified shape")
		results = append(results, Result{Shape: sh, Kind: kind, Outline: o})
	}
	return results, nil
}

// walkShape builds the outline for sh, recursing into sub-shapes first.
func walkShape(k kernel.Kernel, sh *sketch.Shape, opts Options) (kernel.Outline, Kind, error) {
	if sh.NumSubShapes() > 0 {
		return handleComposite(k, sh, opts)
	}
	return handleLeaf(k, sh, opts)
}

// handleComposite beautifies every child and unions their outlines.
func handleComposite(k kernel.Kernel, sh *sketch.Shape, opts Options) (kernel.Outline, Kind, error) {
	var parts []kernel.Outline
	for _, c := range sh.SubShapes() {
		o, _, err := walkShape(k, c, opts)
		if err != nil {
			return nil, KindNone, fmt.Errorf("sub-shape %s: %w", c.ID(), err)
		}
		if o == nil {
			continue
		}
		if err := apply(c, o, opts); err != nil {
			return nil, KindNone, err
		}
		parts = append(parts, o)
	}
	if len(parts) == 0 {
		return nil, KindNone, nil
	}
	return k.Union(parts...), KindComposite, nil
}

// handleLeaf picks a primitive from the label prefix.
func handleLeaf(k kernel.Kernel, sh *sketch.Shape, opts Options) (kernel.Outline, Kind, error) {
	bb := sh.BoundingBox()
	if bb == nil {
		return nil, KindNone, nil
	}

	var (
		o    kernel.Outline
		kind Kind
		err  error
	)
	switch label := sh.Label; {
	case strings.HasPrefix(label, "Line"):
		x1, y1, x2, y2 := lineEnds(sh)
		o, err = k.Segment(x1, y1, x2, y2, opts.StrokeWidth)
		kind = KindSegment
	case strings.HasPrefix(label, "Dot"):
		cx, cy := bb.Center()
		o, err = k.Circle(cx, cy, opts.DotRadius)
		kind = KindDot
	case strings.HasPrefix(label, "Circle"):
		cx, cy := bb.Center()
		o, err = k.Circle(cx, cy, (bb.Width()+bb.Height())/4)
		kind = KindCircle
	case strings.HasPrefix(label, "Ellipse"):
		cx, cy := bb.Center()
		o, err = k.Ellipse(cx, cy, bb.Width()/2, bb.Height()/2)
		kind = KindEllipse
	case strings.HasPrefix(label, "Rectangle"), strings.HasPrefix(label, "Square"):
		o, err = k.Rect(bb.MinX(), bb.MinY(), bb.MaxX(), bb.MaxY())
		kind = KindRect
	default:
		return handlePolyline(k, sh, opts)
	}
	if err != nil {
		// Degenerate ink (a flat "circle", a zero-height "rectangle")
		// still gets drawn, just as traced.
		sketch.Logger().Debug().Err(err).Str("label", sh.Label).Msg("primitive failed, tracing ink")
		return handlePolyline(k, sh, opts)
	}
	return o, kind, nil
}

// handlePolyline traces the shape's ink through its parent strokes.
func handlePolyline(k kernel.Kernel, sh *sketch.Shape, opts Options) (kernel.Outline, Kind, error) {
	var parts []kernel.Outline
	for _, s := range sh.RecursiveParentStrokes() {
		if s.NumPoints() == 0 {
			continue
		}
		pts := make([][2]float64, s.NumPoints())
		for i, p := range s.Points() {
			pts[i] = [2]float64{p.X, p.Y}
		}
		o, err := k.Polyline(pts, opts.StrokeWidth)
		if err != nil {
			return nil, KindNone, fmt.Errorf("stroke %s: %w", s.ID(), err)
		}
		parts = append(parts, o)
	}
	if len(parts) == 0 {
		return nil, KindNone, nil
	}
	return k.Union(parts...), KindPolyline, nil
}

// lineEnds prefers the p1/p2 aliases a line recognizer attaches, falling
// back to the ends of the traced ink.
func lineEnds(sh *sketch.Shape) (x1, y1, x2, y2 float64) {
	if a, b := sh.Alias("p1"), sh.Alias("p2"); a != nil && b != nil {
		return a.Point().X, a.Point().Y, b.Point().X, b.Point().Y
	}
	var first, last *sketch.Point
	for _, s := range sh.RecursiveParentStrokes() {
		if s.NumPoints() == 0 {
			continue
		}
		if first == nil {
			first = s.FirstPoint()
		}
		last = s.LastPoint()
	}
	if first == nil {
		bb := sh.BoundingBox()
		return bb.MinX(), bb.MinY(), bb.MaxX(), bb.MaxY()
	}
	return first.X, first.Y, last.X, last.Y
}

// apply stores o on sh, rasterizing it first when requested.
func apply(sh *sketch.Shape, o kernel.Outline, opts Options) error {
	if opts.Painter != nil {
		sh.SetPainter(opts.Painter)
	}
	if opts.RasterSize <= 0 {
		sh.SetBeautifiedShape(o)
		return nil
	}
	min, max := o.BoundingBox()
	w, h := rasterSize(max[0]-min[0], max[1]-min[1], opts.RasterSize)
	img, err := kernel.Rasterize(o, min, max, w, h)
	if err != nil {
		return err
	}
	sh.SetBeautifiedImage(img, sketch.NewBoundingBox(min[0], min[1], max[0], max[1]))
	return nil
}

// rasterSize scales a region so its longest side is n pixels.
func rasterSize(w, h float64, n int) (int, int) {
	if w >= h {
		return n, max(1, int(math.Round(float64(n)*h/w)))
	}
	return max(1, int(math.Round(float64(n)*w/h))), n
}
