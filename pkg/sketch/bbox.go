package sketch

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// BoundingBox is an immutable axis-aligned rectangle. A nil *BoundingBox
// stands for "no geometry". Sketch coordinates follow screen convention:
// y grows downward, so Top is MinY.
type BoundingBox struct {
	box sdf.Box2
}

// NewBoundingBox returns the box spanning the two corners in any order.
func NewBoundingBox(x1, y1, x2, y2 float64) *BoundingBox {
	return &BoundingBox{box: sdf.Box2{
		Min: v2.Vec{X: math.Min(x1, x2), Y: math.Min(y1, y2)},
		Max: v2.Vec{X: math.Max(x1, x2), Y: math.Max(y1, y2)},
	}}
}

// PointBox returns the degenerate box at a single point.
func PointBox(x, y float64) *BoundingBox {
	return NewBoundingBox(x, y, x, y)
}

// FromBox2 wraps an sdfx box.
func FromBox2(b sdf.Box2) *BoundingBox {
	return NewBoundingBox(b.Min.X, b.Min.Y, b.Max.X, b.Max.Y)
}

// Box2 returns the underlying sdfx box.
func (b *BoundingBox) Box2() sdf.Box2 { return b.box }

func (b *BoundingBox) MinX() float64 { return b.box.Min.X }
func (b *BoundingBox) MinY() float64 { return b.box.Min.Y }
func (b *BoundingBox) MaxX() float64 { return b.box.Max.X }
func (b *BoundingBox) MaxY() float64 { return b.box.Max.Y }

func (b *BoundingBox) Left() float64   { return b.box.Min.X }
func (b *BoundingBox) Right() float64  { return b.box.Max.X }
func (b *BoundingBox) Top() float64    { return b.box.Min.Y }
func (b *BoundingBox) Bottom() float64 { return b.box.Max.Y }

// Width returns MaxX - MinX.
func (b *BoundingBox) Width() float64 { return b.box.Size().X }

// Height returns MaxY - MinY.
func (b *BoundingBox) Height() float64 { return b.box.Size().Y }

// Area returns Width * Height.
func (b *BoundingBox) Area() float64 {
	s := b.box.Size()
	return s.X * s.Y
}

// Center returns the box midpoint.
func (b *BoundingBox) Center() (x, y float64) {
	c := b.box.Center()
	return c.X, c.Y
}

// DiagonalLength returns the distance between the min and max corners.
func (b *BoundingBox) DiagonalLength() float64 {
	return math.Hypot(b.Width(), b.Height())
}

// DiagonalAngle returns the angle of the min-to-max diagonal in radians.
func (b *BoundingBox) DiagonalAngle() float64 {
	return math.Atan2(b.Height(), b.Width())
}

// Contains reports whether (x, y) lies inside or on the box.
func (b *BoundingBox) Contains(x, y float64) bool {
	return b.box.Contains(v2.Vec{X: x, Y: y})
}

// ContainsBox reports whether o lies entirely inside b.
func (b *BoundingBox) ContainsBox(o *BoundingBox) bool {
	if o == nil {
		return false
	}
	return b.box.Contains(o.box.Min) && b.box.Contains(o.box.Max)
}

// Intersects reports whether the two boxes overlap or touch.
func (b *BoundingBox) Intersects(o *BoundingBox) bool {
	if o == nil {
		return false
	}
	return b.box.Min.X <= o.box.Max.X && o.box.Min.X <= b.box.Max.X &&
		b.box.Min.Y <= o.box.Max.Y && o.box.Min.Y <= b.box.Max.Y
}

// Include returns a box grown to contain (x, y).
func (b *BoundingBox) Include(x, y float64) *BoundingBox {
	if b == nil {
		return PointBox(x, y)
	}
	return &BoundingBox{box: b.box.Extend(PointBox(x, y).box)}
}

// Expand returns a box grown by d on every side. A negative d shrinks it,
// never past its center.
func (b *BoundingBox) Expand(d float64) *BoundingBox {
	if d < 0 {
		return b.Contract(-d)
	}
	return NewBoundingBox(b.MinX()-d, b.MinY()-d, b.MaxX()+d, b.MaxY()+d)
}

// Contract returns a box shrunk by d on every side, collapsing to the
// center along any axis narrower than 2d.
func (b *BoundingBox) Contract(d float64) *BoundingBox {
	cx, cy := b.Center()
	minX, maxX := b.MinX()+d, b.MaxX()-d
	if minX > maxX {
		minX, maxX = cx, cx
	}
	minY, maxY := b.MinY()+d, b.MaxY()-d
	if minY > maxY {
		minY, maxY = cy, cy
	}
	return NewBoundingBox(minX, minY, maxX, maxY)
}

// IsLeftOf reports whether b ends before o begins horizontally.
func (b *BoundingBox) IsLeftOf(o *BoundingBox) bool { return b.MaxX() < o.MinX() }

// IsRightOf reports whether b begins after o ends horizontally.
func (b *BoundingBox) IsRightOf(o *BoundingBox) bool { return b.MinX() > o.MaxX() }

// IsAbove reports whether b ends before o begins vertically.
func (b *BoundingBox) IsAbove(o *BoundingBox) bool { return b.MaxY() < o.MinY() }

// IsBelow reports whether b begins after o ends vertically.
func (b *BoundingBox) IsBelow(o *BoundingBox) bool { return b.MinY() > o.MaxY() }

// CenterDistance returns the distance between the two box centers.
func (b *BoundingBox) CenterDistance(o *BoundingBox) float64 {
	ax, ay := b.Center()
	bx, by := o.Center()
	return math.Hypot(ax-bx, ay-by)
}

// Equal compares corners exactly. Two nil boxes are equal.
func (b *BoundingBox) Equal(o *BoundingBox) bool {
	if b == nil || o == nil {
		return b == o
	}
	return b.box.Min == o.box.Min && b.box.Max == o.box.Max
}

func (b *BoundingBox) String() string {
	if b == nil {
		return "[empty]"
	}
	return fmt.Sprintf("[%g,%g]-[%g,%g]", b.MinX(), b.MinY(), b.MaxX(), b.MaxY())
}

// UnionBoxes returns the smallest box containing every non-nil input, or
// nil when all inputs are nil.
func UnionBoxes(boxes ...*BoundingBox) *BoundingBox {
	var out *BoundingBox
	for _, b := range boxes {
		switch {
		case b == nil:
		case out == nil:
			out = b
		default:
			out = &BoundingBox{box: out.box.Extend(b.box)}
		}
	}
	return out
}

// boxOfPoints scans points directly.
func boxOfPoints(points []*Point) *BoundingBox {
	if len(points) == 0 {
		return nil
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return NewBoundingBox(minX, minY, maxX, maxY)
}
