// Package kernel defines the abstract 2D geometry kernel used to build
// beautified replacements for recognized shapes. Implementations (sdfx)
// provide primitives, unions and transforms behind this interface so the
// sketch model never depends on a particular geometry library.
package kernel

// Outline is an opaque handle to a closed 2D region.
type Outline interface {
	// BoundingBox returns the axis-aligned bounds of the region.
	BoundingBox() (min, max [2]float64)
	// Evaluate returns the signed distance from (x, y) to the boundary,
	// negative inside.
	Evaluate(x, y float64) float64
}

// Kernel is the abstract 2D geometry kernel interface.
type Kernel interface {
	// Primitives
	Segment(x1, y1, x2, y2, width float64) (Outline, error)
	Circle(cx, cy, r float64) (Outline, error)
	Ellipse(cx, cy, rx, ry float64) (Outline, error)
	Rect(minX, minY, maxX, maxY float64) (Outline, error)
	Polygon(pts [][2]float64) (Outline, error)
	Polyline(pts [][2]float64, width float64) (Outline, error)

	// Boolean operations
	Union(parts ...Outline) Outline

	// Transforms
	Translate(o Outline, dx, dy float64) Outline
	Rotate(o Outline, cx, cy, radians float64) Outline // about (cx, cy)
}

// Inside reports whether (x, y) lies inside or on the boundary of o.
func Inside(o Outline, x, y float64) bool {
	return o.Evaluate(x, y) <= 0
}
