package sketch

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// SpaceUnits is the coordinate system of a sketch.
type SpaceUnits int

const (
	UnitsUnspecified SpaceUnits = iota
	UnitsPixel
	UnitsHimetric // 0.01 mm
)

func (u SpaceUnits) String() string {
	switch u {
	case UnitsUnspecified:
		return "unspecified"
	case UnitsPixel:
		return "pixel"
	case UnitsHimetric:
		return "himetric"
	default:
		return fmt.Sprintf("SpaceUnits(%d)", int(u))
	}
}

// ParseSpaceUnits maps a unit name to SpaceUnits. The empty string is
// UnitsUnspecified.
func ParseSpaceUnits(s string) (SpaceUnits, error) {
	switch s {
	case "", "unspecified":
		return UnitsUnspecified, nil
	case "pixel":
		return UnitsPixel, nil
	case "himetric":
		return UnitsHimetric, nil
	}
	return UnitsUnspecified, fmt.Errorf("unknown space units %q, expected pixel or himetric", s)
}

// Sketch is the top-level document: every stroke, every top-level shape
// and the session metadata. Sketches never nest.
type Sketch struct {
	Study  string
	Domain string
	Units  SpaceUnits
	Speech *Speech

	id      uuid.UUID
	seq     *Sequence
	strokes []*Stroke
	shapes  []*Shape
	authors []*Author
	pens    []*Pen
	attributes
}

// New returns an empty sketch with a fresh UID and its own shape sequence.
func New() *Sketch {
	return &Sketch{id: newID(), seq: NewSequence()}
}

// ID returns the sketch UID.
func (sk *Sketch) ID() uuid.UUID { return sk.id }

// SetID replaces the UID. The nil UUID is rejected.
func (sk *Sketch) SetID(id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("sketch set id: %w", ErrNilID)
	}
	sk.id = id
	return nil
}

// Equal compares UIDs.
func (sk *Sketch) Equal(o *Sketch) bool {
	return o != nil && sk.id == o.id
}

// Sequence returns the sequence that numbers this sketch's shapes.
func (sk *Sketch) Sequence() *Sequence {
	if sk.seq == nil {
		sk.seq = NewSequence()
	}
	return sk.seq
}

// NewShape returns a shape numbered from the sketch's sequence. The shape
// is not added to the sketch.
func (sk *Sketch) NewShape() *Shape {
	return NewShape(sk.Sequence())
}

// ---------------------------------------------------------------------------
// Strokes
// ---------------------------------------------------------------------------

// Strokes returns the live stroke list.
func (sk *Sketch) Strokes() []*Stroke { return sk.strokes }

// NumStrokes returns the number of strokes.
func (sk *Sketch) NumStrokes() int { return len(sk.strokes) }

// AddStroke appends s.
func (sk *Sketch) AddStroke(s *Stroke) error {
	if s == nil {
		return fmt.Errorf("sketch add stroke: %w", ErrNilStroke)
	}
	sk.strokes = append(sk.strokes, s)
	return nil
}

// SetStrokes replaces the stroke list with a copy of strokes.
func (sk *Sketch) SetStrokes(strokes []*Stroke) error {
	if strokes == nil {
		return fmt.Errorf("sketch set strokes: %w", ErrNilList)
	}
	if slices.Contains(strokes, nil) {
		return fmt.Errorf("sketch set strokes: %w", ErrNilStroke)
	}
	sk.strokes = slices.Clone(strokes)
	return nil
}

// Stroke returns the stroke with the given UID, or nil.
func (sk *Sketch) Stroke(id uuid.UUID) *Stroke {
	for _, s := range sk.strokes {
		if s.id == id {
			return s
		}
	}
	return nil
}

// FirstStroke returns the first stroke, or nil.
func (sk *Sketch) FirstStroke() *Stroke {
	if len(sk.strokes) == 0 {
		return nil
	}
	return sk.strokes[0]
}

// LastStroke returns the last stroke, or nil.
func (sk *Sketch) LastStroke() *Stroke {
	if len(sk.strokes) == 0 {
		return nil
	}
	return sk.strokes[len(sk.strokes)-1]
}

// RemoveStroke removes s and every top-level shape that directly contains
// it. It reports whether s was present.
func (sk *Sketch) RemoveStroke(s *Stroke) bool {
	if s == nil {
		return false
	}
	i := slices.IndexFunc(sk.strokes, s.Equal)
	if i < 0 {
		return false
	}
	sk.removeStrokeAt(i)
	return true
}

// RemoveStrokeByID is RemoveStroke by UID. It returns the removed stroke,
// or nil.
func (sk *Sketch) RemoveStrokeByID(id uuid.UUID) *Stroke {
	i := slices.IndexFunc(sk.strokes, func(s *Stroke) bool { return s.id == id })
	if i < 0 {
		return nil
	}
	return sk.removeStrokeAt(i)
}

// RemoveStrokeAt is RemoveStroke by index.
func (sk *Sketch) RemoveStrokeAt(i int) (*Stroke, error) {
	if i < 0 || i >= len(sk.strokes) {
		return nil, fmt.Errorf("sketch remove stroke %d of %d: %w", i, len(sk.strokes), ErrIndexOutOfRange)
	}
	return sk.removeStrokeAt(i), nil
}

func (sk *Sketch) removeStrokeAt(i int) *Stroke {
	s := sk.strokes[i]
	sk.strokes = slices.Delete(sk.strokes, i, i+1)
	sk.shapes = slices.DeleteFunc(sk.shapes, func(sh *Shape) bool {
		if !sh.ContainsStroke(s) {
			return false
		}
		Logger().Debug().Stringer("stroke", s.id).Stringer("shape", sh.id).Str("label", sh.Label).
			Msg("cascade remove shape")
		return true
	})
	return s
}

// ---------------------------------------------------------------------------
// Shapes
// ---------------------------------------------------------------------------

// Shapes returns the live list of top-level shapes.
func (sk *Sketch) Shapes() []*Shape { return sk.shapes }

// NumShapes returns the number of top-level shapes.
func (sk *Sketch) NumShapes() int { return len(sk.shapes) }

// AddShape appends a top-level shape.
func (sk *Sketch) AddShape(sh *Shape) error {
	if sh == nil {
		return fmt.Errorf("sketch add shape: %w", ErrNilShape)
	}
	sk.Sequence().Observe(sh.order)
	sk.shapes = append(sk.shapes, sh)
	return nil
}

// SetShapes replaces the shape list with a copy of shapes.
func (sk *Sketch) SetShapes(shapes []*Shape) error {
	if shapes == nil {
		return fmt.Errorf("sketch set shapes: %w", ErrNilList)
	}
	if slices.Contains(shapes, nil) {
		return fmt.Errorf("sketch set shapes: %w", ErrNilShape)
	}
	seq := sk.Sequence()
	for _, sh := range shapes {
		seq.Observe(sh.order)
	}
	sk.shapes = slices.Clone(shapes)
	return nil
}

// Shape returns the top-level shape with the given UID, or nil.
func (sk *Sketch) Shape(id uuid.UUID) *Shape {
	for _, sh := range sk.shapes {
		if sh.id == id {
			return sh
		}
	}
	return nil
}

// RemoveShape removes sh and reports whether it was present.
func (sk *Sketch) RemoveShape(sh *Shape) bool {
	if sh == nil {
		return false
	}
	i := slices.IndexFunc(sk.shapes, sh.Equal)
	if i < 0 {
		return false
	}
	sk.shapes = slices.Delete(sk.shapes, i, i+1)
	return true
}

// RemoveShapeByID removes the shape with the given UID and returns it, or
// nil.
func (sk *Sketch) RemoveShapeByID(id uuid.UUID) *Shape {
	i := slices.IndexFunc(sk.shapes, func(sh *Shape) bool { return sh.id == id })
	if i < 0 {
		return nil
	}
	sh := sk.shapes[i]
	sk.shapes = slices.Delete(sk.shapes, i, i+1)
	return sh
}

// RemoveShapeAt removes and returns the shape at i.
func (sk *Sketch) RemoveShapeAt(i int) (*Shape, error) {
	if i < 0 || i >= len(sk.shapes) {
		return nil, fmt.Errorf("sketch remove shape %d of %d: %w", i, len(sk.shapes), ErrIndexOutOfRange)
	}
	sh := sk.shapes[i]
	sk.shapes = slices.Delete(sk.shapes, i, i+1)
	return sh, nil
}

// ---------------------------------------------------------------------------
// Derived views
// ---------------------------------------------------------------------------

// Points returns every distinct point of every stroke sorted by time,
// then x, then y, then UID.
func (sk *Sketch) Points() []*Point {
	seen := make(map[PointKey]bool)
	var out []*Point
	for _, s := range sk.strokes {
		for _, p := range s.points {
			k := p.Key()
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, p)
		}
	}
	slices.SortFunc(out, (*Point).Compare)
	return out
}

// BoundingBox scans every point of every stroke. It is not cached.
func (sk *Sketch) BoundingBox() *BoundingBox {
	var b *BoundingBox
	for _, s := range sk.strokes {
		b = UnionBoxes(b, boxOfPoints(s.points))
	}
	return b
}

// Clear removes all strokes and shapes. Metadata, authors, pens, speech
// and attributes are kept.
func (sk *Sketch) Clear() {
	sk.strokes = nil
	sk.shapes = nil
}

// ---------------------------------------------------------------------------
// Session metadata
// ---------------------------------------------------------------------------

// Authors returns the live author list.
func (sk *Sketch) Authors() []*Author { return sk.authors }

// AddAuthor adds a, replacing any author with the same UID.
func (sk *Sketch) AddAuthor(a *Author) {
	if a == nil {
		return
	}
	if i := slices.IndexFunc(sk.authors, func(o *Author) bool { return o.ID == a.ID }); i >= 0 {
		sk.authors[i] = a
		return
	}
	sk.authors = append(sk.authors, a)
}

// Author returns the author with the given UID, or nil.
func (sk *Sketch) Author(id uuid.UUID) *Author {
	for _, a := range sk.authors {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// RemoveAuthor removes the author with the given UID.
func (sk *Sketch) RemoveAuthor(id uuid.UUID) bool {
	n := len(sk.authors)
	sk.authors = slices.DeleteFunc(sk.authors, func(a *Author) bool { return a.ID == id })
	return len(sk.authors) != n
}

// Pens returns the live pen list.
func (sk *Sketch) Pens() []*Pen { return sk.pens }

// AddPen adds p, replacing any pen with the same UID.
func (sk *Sketch) AddPen(p *Pen) {
	if p == nil {
		return
	}
	if i := slices.IndexFunc(sk.pens, func(o *Pen) bool { return o.ID == p.ID }); i >= 0 {
		sk.pens[i] = p
		return
	}
	sk.pens = append(sk.pens, p)
}

// Pen returns the pen with the given UID, or nil.
func (sk *Sketch) Pen(id uuid.UUID) *Pen {
	for _, p := range sk.pens {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// RemovePen removes the pen with the given UID.
func (sk *Sketch) RemovePen(id uuid.UUID) bool {
	n := len(sk.pens)
	sk.pens = slices.DeleteFunc(sk.pens, func(p *Pen) bool { return p.ID == id })
	return len(sk.pens) != n
}

// Clone deep-clones strokes and shapes and copies the metadata. The clone
// keeps the UID and shares the shape sequence.
func (sk *Sketch) Clone() *Sketch {
	c := &Sketch{
		Study:      sk.Study,
		Domain:     sk.Domain,
		Units:      sk.Units,
		Speech:     sk.Speech.Clone(),
		id:         sk.id,
		seq:        sk.Sequence(),
		attributes: sk.cloneAttributes(),
	}
	for _, s := range sk.strokes {
		c.strokes = append(c.strokes, s.Clone())
	}
	for _, sh := range sk.shapes {
		c.shapes = append(c.shapes, sh.Clone())
	}
	for _, a := range sk.authors {
		c.authors = append(c.authors, a.Clone())
	}
	for _, p := range sk.pens {
		c.pens = append(c.pens, p.Clone())
	}
	return c
}

func (sk *Sketch) String() string {
	return fmt.Sprintf("sketch %s (%d strokes, %d shapes)", sk.id, len(sk.strokes), len(sk.shapes))
}
