package sketch

import (
	"cmp"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Point is a single timestamped pen sample. Coordinates and time are
// plain fields and may be edited in place; the owning Stroke must then be
// told via FlagExternalUpdate.
type Point struct {
	X    float64
	Y    float64
	Time int64 // milliseconds; monotonic within a stroke by convention

	// Optional sample data. Nil means "not recorded".
	Pressure *float64
	TiltX    *float64
	TiltY    *float64
	Name     string

	id uuid.UUID
	attributes
}

// PointKey is a comparable snapshot of a point's identity and position.
// Two points have the same key exactly when Equal reports true.
type PointKey struct {
	ID   uuid.UUID
	X, Y float64
	Time int64
}

// NewPoint returns a point with a fresh UID.
func NewPoint(x, y float64, t int64) *Point {
	return &Point{X: x, Y: y, Time: t, id: newID()}
}

// NewPointWithID returns a point carrying an existing UID.
func NewPointWithID(id uuid.UUID, x, y float64, t int64) *Point {
	return &Point{X: x, Y: y, Time: t, id: id}
}

// ID returns the point's UID.
func (p *Point) ID() uuid.UUID { return p.id }

// SetID replaces the UID. The nil UUID is rejected.
func (p *Point) SetID(id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("point set id: %w", ErrNilID)
	}
	p.id = id
	return nil
}

// Set moves the point.
func (p *Point) Set(x, y float64) {
	p.X, p.Y = x, y
}

// Distance returns the Euclidean distance from p to (x, y).
func (p *Point) Distance(x, y float64) float64 {
	return math.Hypot(p.X-x, p.Y-y)
}

// DistanceTo returns the Euclidean distance between p and o.
func (p *Point) DistanceTo(o *Point) float64 {
	return p.Distance(o.X, o.Y)
}

// EqualXYTime compares position and time only, ignoring identity.
func (p *Point) EqualXYTime(o *Point) bool {
	if o == nil {
		return false
	}
	return p.X == o.X && p.Y == o.Y && p.Time == o.Time
}

// Equal reports identity equality: same UID and same x, y and time. A
// point whose coordinates changed is no longer equal to a stale copy.
func (p *Point) Equal(o *Point) bool {
	if p == o {
		return true
	}
	if p == nil || o == nil {
		return false
	}
	return p.id == o.id && p.EqualXYTime(o)
}

// Key returns the comparable identity of p for use in maps.
func (p *Point) Key() PointKey {
	return PointKey{ID: p.id, X: p.X, Y: p.Y, Time: p.Time}
}

// Compare orders points by time, then x, then y, then UID.
func (p *Point) Compare(o *Point) int {
	if c := cmp.Compare(p.Time, o.Time); c != 0 {
		return c
	}
	if c := cmp.Compare(p.X, o.X); c != 0 {
		return c
	}
	if c := cmp.Compare(p.Y, o.Y); c != 0 {
		return c
	}
	return compareIDs(p.id, o.id)
}

// Copy returns a new object for the same logical sample: UID, x, y and
// time only.
func (p *Point) Copy() *Point {
	return &Point{X: p.X, Y: p.Y, Time: p.Time, id: p.id}
}

// Clone returns a full copy keeping the UID. Optional fields and
// attributes are copied into independent storage.
func (p *Point) Clone() *Point {
	c := p.Copy()
	c.Name = p.Name
	c.Pressure = cloneFloat(p.Pressure)
	c.TiltX = cloneFloat(p.TiltX)
	c.TiltY = cloneFloat(p.TiltY)
	c.attributes = p.cloneAttributes()
	return c
}

func (p *Point) String() string {
	return fmt.Sprintf("<%g, %g, %d>", p.X, p.Y, p.Time)
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// Float returns a pointer to v, for populating optional fields.
func Float(v float64) *float64 {
	return &v
}
