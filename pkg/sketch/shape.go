package sketch

import (
	"cmp"
	"fmt"
	"image/color"
	"math"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Shape is a labelled grouping of strokes and nested shapes, typically a
// recognizer's interpretation of part of a sketch. Shapes compare by the
// order number drawn from their Sequence at construction, giving a stable
// creation order independent of UIDs.
//
// The bounding box and time are cached against a revision counter bumped
// by every add, remove or replace of strokes or sub-shapes. Edits made
// through the live slices, or to children after they were added, must be
// followed by FlagExternalUpdate.
type Shape struct {
	Label           string
	RecognizerName  string
	Description     string
	Confidence      *float64
	Orientation     *float64
	Color           color.Color
	RecognitionTime int64 // milliseconds spent recognizing

	id        uuid.UUID
	order     uint64
	strokes   []*Stroke
	subShapes []*Shape
	aliases   map[string]*Alias
	hidden    bool
	beautification
	attributes

	rev  uint64
	bbox memo[*BoundingBox]
	time memo[int64]
}

// NewShape returns an empty visible shape numbered from seq. seq must not
// be nil; use Sketch.NewShape to number from a sketch's own sequence.
func NewShape(seq *Sequence) *Shape {
	if seq == nil {
		panic("sketch: NewShape requires a sequence")
	}
	return &Shape{id: newID(), order: seq.Next()}
}

// ---------------------------------------------------------------------------
// Identity and ordering
// ---------------------------------------------------------------------------

// ID returns the shape UID.
func (sh *Shape) ID() uuid.UUID { return sh.id }

// SetID replaces the UID. The nil UUID is rejected.
func (sh *Shape) SetID(id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("shape set id: %w", ErrNilID)
	}
	sh.id = id
	return nil
}

// Order returns the creation order number.
func (sh *Shape) Order() uint64 { return sh.order }

// SetOrder overrides the creation order number. Decoders use it to
// restore persisted ordering.
func (sh *Shape) SetOrder(n uint64) { sh.order = n }

// Equal compares UIDs.
func (sh *Shape) Equal(o *Shape) bool {
	return o != nil && sh.id == o.id
}

// Compare orders shapes by creation order.
func (sh *Shape) Compare(o *Shape) int {
	return cmp.Compare(sh.order, o.order)
}

// ---------------------------------------------------------------------------
// Strokes
// ---------------------------------------------------------------------------

// Strokes returns the live list of direct strokes.
func (sh *Shape) Strokes() []*Stroke { return sh.strokes }

// NumStrokes returns the number of direct strokes.
func (sh *Shape) NumStrokes() int { return len(sh.strokes) }

// AddStroke appends s and folds its box and time into the caches.
func (sh *Shape) AddStroke(s *Stroke) error {
	if s == nil {
		return fmt.Errorf("shape %s add stroke: %w", sh.id, ErrNilStroke)
	}
	old := sh.rev
	sh.strokes = append(sh.strokes, s)
	sh.rev++
	if sh.bbox.fresh(old) {
		sh.bbox.set(sh.rev, UnionBoxes(sh.bbox.peek(), s.BoundingBox()))
	}
	if sh.time.fresh(old) {
		sh.time.set(sh.rev, max(sh.time.peek(), s.Time()))
	}
	return nil
}

// SetStrokes replaces the stroke list and invalidates the caches.
func (sh *Shape) SetStrokes(strokes []*Stroke) error {
	if strokes == nil {
		return fmt.Errorf("shape %s set strokes: %w", sh.id, ErrNilList)
	}
	for i, s := range strokes {
		if s == nil {
			return fmt.Errorf("shape %s set strokes: element %d: %w", sh.id, i, ErrNilStroke)
		}
	}
	sh.strokes = strokes
	sh.FlagExternalUpdate()
	return nil
}

// RemoveStroke removes the first direct stroke equal to s and reports
// whether one was found.
func (sh *Shape) RemoveStroke(s *Stroke) bool {
	if s == nil {
		return false
	}
	i := slices.IndexFunc(sh.strokes, s.Equal)
	if i < 0 {
		return false
	}
	sh.strokes = slices.Delete(sh.strokes, i, i+1)
	sh.FlagExternalUpdate()
	return true
}

// RemoveStrokeAt removes and returns the direct stroke at i.
func (sh *Shape) RemoveStrokeAt(i int) (*Stroke, error) {
	if i < 0 || i >= len(sh.strokes) {
		return nil, fmt.Errorf("shape %s remove stroke %d of %d: %w", sh.id, i, len(sh.strokes), ErrIndexOutOfRange)
	}
	s := sh.strokes[i]
	sh.strokes = slices.Delete(sh.strokes, i, i+1)
	sh.FlagExternalUpdate()
	return s, nil
}

// Stroke returns the direct stroke with the given UID, or nil.
func (sh *Shape) Stroke(id uuid.UUID) *Stroke {
	for _, s := range sh.strokes {
		if s.id == id {
			return s
		}
	}
	return nil
}

// FirstStroke returns the first direct stroke, or nil.
func (sh *Shape) FirstStroke() *Stroke {
	if len(sh.strokes) == 0 {
		return nil
	}
	return sh.strokes[0]
}

// LastStroke returns the last direct stroke, or nil.
func (sh *Shape) LastStroke() *Stroke {
	if len(sh.strokes) == 0 {
		return nil
	}
	return sh.strokes[len(sh.strokes)-1]
}

// ContainsStroke reports whether s, or the stroke s was segmented from, is
// a direct stroke of sh.
func (sh *Shape) ContainsStroke(s *Stroke) bool {
	if s == nil {
		return false
	}
	for _, own := range sh.strokes {
		if own.Equal(s) || own.Equal(s.parent) {
			return true
		}
	}
	return false
}

// ContainsStrokeRecursive is ContainsStroke applied to sh and every
// descendant shape.
func (sh *Shape) ContainsStrokeRecursive(s *Stroke) bool {
	if sh.ContainsStroke(s) {
		return true
	}
	for _, sub := range sh.subShapes {
		if sub.ContainsStrokeRecursive(s) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Sub-shapes
// ---------------------------------------------------------------------------

// SubShapes returns the live list of direct child shapes.
func (sh *Shape) SubShapes() []*Shape { return sh.subShapes }

// NumSubShapes returns the number of direct child shapes.
func (sh *Shape) NumSubShapes() int { return len(sh.subShapes) }

// AddSubShape appends child and invalidates the caches.
func (sh *Shape) AddSubShape(child *Shape) error {
	if child == nil {
		return fmt.Errorf("shape %s add sub-shape: %w", sh.id, ErrNilShape)
	}
	sh.subShapes = append(sh.subShapes, child)
	sh.FlagExternalUpdate()
	return nil
}

// SetSubShapes replaces the child list and invalidates the caches.
func (sh *Shape) SetSubShapes(children []*Shape) error {
	if children == nil {
		return fmt.Errorf("shape %s set sub-shapes: %w", sh.id, ErrNilList)
	}
	for i, c := range children {
		if c == nil {
			return fmt.Errorf("shape %s set sub-shapes: element %d: %w", sh.id, i, ErrNilShape)
		}
	}
	sh.subShapes = children
	sh.FlagExternalUpdate()
	return nil
}

// RemoveSubShape removes the first direct child equal to child and
// reports whether one was found.
func (sh *Shape) RemoveSubShape(child *Shape) bool {
	if child == nil {
		return false
	}
	i := slices.IndexFunc(sh.subShapes, child.Equal)
	if i < 0 {
		return false
	}
	sh.subShapes = slices.Delete(sh.subShapes, i, i+1)
	sh.FlagExternalUpdate()
	return true
}

// RemoveSubShapeAt removes and returns the direct child at i.
func (sh *Shape) RemoveSubShapeAt(i int) (*Shape, error) {
	if i < 0 || i >= len(sh.subShapes) {
		return nil, fmt.Errorf("shape %s remove sub-shape %d of %d: %w", sh.id, i, len(sh.subShapes), ErrIndexOutOfRange)
	}
	c := sh.subShapes[i]
	sh.subShapes = slices.Delete(sh.subShapes, i, i+1)
	sh.FlagExternalUpdate()
	return c, nil
}

// SubShape returns the direct child with the given UID, or nil.
func (sh *Shape) SubShape(id uuid.UUID) *Shape {
	for _, c := range sh.subShapes {
		if c.id == id {
			return c
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Recursive views
// ---------------------------------------------------------------------------

// RecursiveStrokes returns sh's strokes followed, depth first, by the
// strokes of every descendant.
func (sh *Shape) RecursiveStrokes() []*Stroke {
	out := slices.Clone(sh.strokes)
	for _, c := range sh.subShapes {
		out = append(out, c.RecursiveStrokes()...)
	}
	return out
}

// RecursiveSubShapes returns the leaf shapes of the subtree below sh.
func (sh *Shape) RecursiveSubShapes() []*Shape {
	var out []*Shape
	for _, c := range sh.subShapes {
		if len(c.subShapes) > 0 {
			out = append(out, c.RecursiveSubShapes()...)
		} else {
			out = append(out, c)
		}
	}
	return out
}

// RecursiveParentStrokes returns, for every recursive stroke, its parent
// or itself, without duplicates and sorted by stroke order.
func (sh *Shape) RecursiveParentStrokes() []*Stroke {
	seen := make(map[uuid.UUID]bool)
	var out []*Stroke
	for _, s := range sh.RecursiveStrokes() {
		p := s.ParentOrSelf()
		if seen[p.id] {
			continue
		}
		seen[p.id] = true
		out = append(out, p)
	}
	slices.SortFunc(out, (*Stroke).Compare)
	return out
}

// RecursivePoints returns the points of all recursive parent strokes in
// stroke order.
func (sh *Shape) RecursivePoints() []*Point {
	var out []*Point
	for _, s := range sh.RecursiveParentStrokes() {
		out = append(out, s.points...)
	}
	return out
}

// SubShapeComplexity scores the subtree: each leaf labelled Line or Dot
// counts 1 and any other leaf counts 4.
func (sh *Shape) SubShapeComplexity() int {
	n := 0
	for _, leaf := range sh.RecursiveSubShapes() {
		if strings.HasPrefix(leaf.Label, "Line") || strings.HasPrefix(leaf.Label, "Dot") {
			n++
		} else {
			n += 4
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// Cached geometry
// ---------------------------------------------------------------------------

// FlagExternalUpdate invalidates the cached bounding box and time.
func (sh *Shape) FlagExternalUpdate() {
	sh.rev++
}

// BoundingBox returns the union of the direct strokes' and direct
// sub-shapes' boxes, or nil when there is no geometry.
func (sh *Shape) BoundingBox() *BoundingBox {
	return sh.bbox.get(sh.rev, func() *BoundingBox {
		var b *BoundingBox
		for _, s := range sh.strokes {
			b = UnionBoxes(b, s.BoundingBox())
		}
		for _, c := range sh.subShapes {
			b = UnionBoxes(b, c.BoundingBox())
		}
		return b
	})
}

// Time returns the latest direct stroke time, or math.MinInt64 when the
// shape has no strokes.
func (sh *Shape) Time() int64 {
	return sh.time.get(sh.rev, func() int64 {
		t := int64(math.MinInt64)
		for _, s := range sh.strokes {
			t = max(t, s.Time())
		}
		return t
	})
}

// ---------------------------------------------------------------------------
// Aliases
// ---------------------------------------------------------------------------

// AddAlias stores a under its name, replacing any alias of the same name.
func (sh *Shape) AddAlias(a *Alias) error {
	if a == nil {
		return fmt.Errorf("shape %s add alias: %w", sh.id, ErrNilAlias)
	}
	if sh.aliases == nil {
		sh.aliases = make(map[string]*Alias)
	}
	sh.aliases[a.name] = a
	return nil
}

// Alias returns the alias with the given name, or nil.
func (sh *Shape) Alias(name string) *Alias {
	return sh.aliases[name]
}

// RemoveAlias deletes the named alias and returns it, or nil.
func (sh *Shape) RemoveAlias(name string) *Alias {
	a := sh.aliases[name]
	delete(sh.aliases, name)
	return a
}

// Aliases returns a snapshot of all aliases sorted by name. Changes to the
// returned slice do not affect sh; it is empty, never nil.
func (sh *Shape) Aliases() []*Alias {
	out := make([]*Alias, 0, len(sh.aliases))
	for _, a := range sh.aliases {
		out = append(out, a)
	}
	slices.SortFunc(out, (*Alias).Compare)
	return out
}

// NumAliases returns the number of aliases.
func (sh *Shape) NumAliases() int { return len(sh.aliases) }

// ---------------------------------------------------------------------------
// Presentation and copying
// ---------------------------------------------------------------------------

// IsVisible reports whether the shape should be drawn.
func (sh *Shape) IsVisible() bool { return !sh.hidden }

// SetVisible shows or hides the shape.
func (sh *Shape) SetVisible(v bool) { sh.hidden = !v }

// Clone deep-clones strokes, sub-shapes and aliases, keeping the UID and
// order number. Cloned aliases still reference the original points, and
// beautification outlines, images and painters are shared.
func (sh *Shape) Clone() *Shape {
	c := &Shape{
		Label:           sh.Label,
		RecognizerName:  sh.RecognizerName,
		Description:     sh.Description,
		Confidence:      cloneFloat(sh.Confidence),
		Orientation:     cloneFloat(sh.Orientation),
		Color:           sh.Color,
		RecognitionTime: sh.RecognitionTime,
		id:              sh.id,
		order:           sh.order,
		hidden:          sh.hidden,
		beautification:  sh.beautification,
		attributes:      sh.cloneAttributes(),
	}
	if sh.strokes != nil {
		c.strokes = make([]*Stroke, len(sh.strokes))
		for i, s := range sh.strokes {
			c.strokes[i] = s.Clone()
		}
	}
	if sh.subShapes != nil {
		c.subShapes = make([]*Shape, len(sh.subShapes))
		for i, child := range sh.subShapes {
			c.subShapes[i] = child.Clone()
		}
	}
	if sh.aliases != nil {
		c.aliases = make(map[string]*Alias, len(sh.aliases))
		for name, a := range sh.aliases {
			c.aliases[name] = a.Clone()
		}
	}
	return c
}

func (sh *Shape) String() string {
	return fmt.Sprintf("shape %s %q (%d strokes, %d sub-shapes)", sh.id, sh.Label, len(sh.strokes), len(sh.subShapes))
}
