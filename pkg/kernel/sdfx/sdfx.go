// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/quill/pkg/kernel"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// sdfxOutline wraps an sdf.SDF2 to implement kernel.Outline.
type sdfxOutline struct {
	s sdf.SDF2
}

// BoundingBox returns the axis-aligned bounding box.
func (o *sdfxOutline) BoundingBox() (min, max [2]float64) {
	bb := o.s.BoundingBox()
	return [2]float64{bb.Min.X, bb.Min.Y}, [2]float64{bb.Max.X, bb.Max.Y}
}

// Evaluate returns the signed distance at (x, y).
func (o *sdfxOutline) Evaluate(x, y float64) float64 {
	return o.s.Evaluate(v2.Vec{X: x, Y: y})
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct{}

// New returns a new SdfxKernel.
func New() *SdfxKernel {
	return &SdfxKernel{}
}

// unwrap extracts the underlying sdf.SDF2 from a kernel.Outline.
func unwrap(o kernel.Outline) sdf.SDF2 {
	return o.(*sdfxOutline).s
}

// wrap creates a kernel.Outline from an sdf.SDF2.
func wrap(s sdf.SDF2) kernel.Outline {
	return &sdfxOutline{s: s}
}

func vec(p [2]float64) v2.Vec {
	return v2.Vec{X: p[0], Y: p[1]}
}

// Segment creates a stroke of the given width from (x1, y1) to (x2, y2)
// as a rotated rectangle. A zero-length segment becomes a dot.
func (k *SdfxKernel) Segment(x1, y1, x2, y2, width float64) (kernel.Outline, error) {
	if width <= 0 {
		return nil, fmt.Errorf("sdfx: segment width %g must be positive", width)
	}
	l := math.Hypot(x2-x1, y2-y1)
	if l == 0 {
		return k.Circle(x1, y1, width/2)
	}
	// Unit normal scaled to half the width.
	nx := -(y2 - y1) / l * width / 2
	ny := (x2 - x1) / l * width / 2
	return k.Polygon([][2]float64{
		{x1 + nx, y1 + ny},
		{x2 + nx, y2 + ny},
		{x2 - nx, y2 - ny},
		{x1 - nx, y1 - ny},
	})
}

// Circle creates a disc centered at (cx, cy).
func (k *SdfxKernel) Circle(cx, cy, r float64) (kernel.Outline, error) {
	if r <= 0 {
		return nil, fmt.Errorf("sdfx: circle radius %g must be positive", r)
	}
	s, err := sdf.Circle2D(r)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Circle2D: %w", err)
	}
	return wrap(sdf.Transform2D(s, sdf.Translate2d(v2.Vec{X: cx, Y: cy}))), nil
}

// Ellipse creates an axis-aligned ellipse by scaling a unit circle. The
// distance field is only approximate, which is enough for inside tests.
func (k *SdfxKernel) Ellipse(cx, cy, rx, ry float64) (kernel.Outline, error) {
	if rx <= 0 || ry <= 0 {
		return nil, fmt.Errorf("sdfx: ellipse radii %g, %g must be positive", rx, ry)
	}
	s, err := sdf.Circle2D(1)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Circle2D: %w", err)
	}
	m := sdf.Translate2d(v2.Vec{X: cx, Y: cy}).Mul(sdf.Scale2d(v2.Vec{X: rx, Y: ry}))
	return wrap(sdf.Transform2D(s, m)), nil
}

// Rect creates an axis-aligned rectangle.
func (k *SdfxKernel) Rect(minX, minY, maxX, maxY float64) (kernel.Outline, error) {
	if maxX <= minX || maxY <= minY {
		return nil, fmt.Errorf("sdfx: empty rectangle [%g,%g]-[%g,%g]", minX, minY, maxX, maxY)
	}
	return k.Polygon([][2]float64{
		{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY},
	})
}

// Polygon creates a closed polygon through pts.
func (k *SdfxKernel) Polygon(pts [][2]float64) (kernel.Outline, error) {
	if len(pts) < 3 {
		return nil, fmt.Errorf("sdfx: polygon needs at least 3 vertices, got %d", len(pts))
	}
	vs := make([]v2.Vec, len(pts))
	for i, p := range pts {
		vs[i] = vec(p)
	}
	s, err := sdf.Polygon2D(vs)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Polygon2D: %w", err)
	}
	return wrap(s), nil
}

// Polyline creates the union of width-wide segments joining pts in order.
func (k *SdfxKernel) Polyline(pts [][2]float64, width float64) (kernel.Outline, error) {
	switch len(pts) {
	case 0:
		return nil, fmt.Errorf("sdfx: polyline needs at least one point")
	case 1:
		return k.Circle(pts[0][0], pts[0][1], width/2)
	}
	parts := make([]kernel.Outline, 0, len(pts)-1)
	for i := 1; i < len(pts); i++ {
		seg, err := k.Segment(pts[i-1][0], pts[i-1][1], pts[i][0], pts[i][1], width)
		if err != nil {
			return nil, fmt.Errorf("polyline segment %d: %w", i, err)
		}
		parts = append(parts, seg)
	}
	return k.Union(parts...), nil
}

// Union returns the union of outlines. A single outline is returned as is
// and no outlines yield nil.
func (k *SdfxKernel) Union(parts ...kernel.Outline) kernel.Outline {
	switch len(parts) {
	case 0:
		return nil
	case 1:
		return parts[0]
	}
	ss := make([]sdf.SDF2, len(parts))
	for i, p := range parts {
		ss[i] = unwrap(p)
	}
	return wrap(sdf.Union2D(ss...))
}

// Translate moves an outline by (dx, dy).
func (k *SdfxKernel) Translate(o kernel.Outline, dx, dy float64) kernel.Outline {
	return wrap(sdf.Transform2D(unwrap(o), sdf.Translate2d(v2.Vec{X: dx, Y: dy})))
}

// Rotate turns an outline by radians about (cx, cy).
func (k *SdfxKernel) Rotate(o kernel.Outline, cx, cy, radians float64) kernel.Outline {
	c := v2.Vec{X: cx, Y: cy}
	m := sdf.Translate2d(c).Mul(sdf.Rotate2d(radians)).Mul(sdf.Translate2d(v2.Vec{X: -cx, Y: -cy}))
	return wrap(sdf.Transform2D(unwrap(o), m))
}
