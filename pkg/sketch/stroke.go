package sketch

import (
	"cmp"
	"fmt"
	"image/color"
	"math"
	"slices"

	"github.com/google/uuid"
)

// Stroke is the ordered sequence of points produced by one continuous pen
// motion. Sub-strokes produced by segmentation point back at their parent.
//
// Path length, bounding box and minimum inter-point distance are cached.
// AddPoint keeps the caches current incrementally; every other structural
// change invalidates them. Callers that edit points in place, or the slice
// returned by Points, must call FlagExternalUpdate.
type Stroke struct {
	Label  string
	Author *Author
	Pen    *Pen
	Color  color.Color

	id            uuid.UUID
	points        []*Point
	segmentations []*Segmentation
	parent        *Stroke
	hidden        bool
	attributes

	rev    uint64
	length memo[float64]
	bbox   memo[*BoundingBox]
	minGap memo[float64]
}

// NewStroke returns an empty visible stroke with a fresh UID.
func NewStroke() *Stroke {
	return &Stroke{id: newID()}
}

// NewStrokeWithPoints returns a stroke over points. The slice is used
// directly, not copied.
func NewStrokeWithPoints(points []*Point) (*Stroke, error) {
	s := NewStroke()
	if err := s.SetPoints(points); err != nil {
		return nil, err
	}
	return s, nil
}

// ---------------------------------------------------------------------------
// Identity
// ---------------------------------------------------------------------------

// ID returns the stroke UID.
func (s *Stroke) ID() uuid.UUID { return s.id }

// SetID replaces the UID. The nil UUID is rejected.
func (s *Stroke) SetID(id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("stroke set id: %w", ErrNilID)
	}
	s.id = id
	return nil
}

// Equal compares UIDs.
func (s *Stroke) Equal(o *Stroke) bool {
	return o != nil && s.id == o.id
}

// EqualPoints reports whether both strokes hold the same samples in the
// same order, ignoring every UID.
func (s *Stroke) EqualPoints(o *Stroke) bool {
	if o == nil || len(s.points) != len(o.points) {
		return false
	}
	for i, p := range s.points {
		if !p.EqualXYTime(o.points[i]) {
			return false
		}
	}
	return true
}

// Compare orders strokes by time, then point count, then point by point,
// then UID. Points are assumed to be in temporal order.
func (s *Stroke) Compare(o *Stroke) int {
	if c := cmp.Compare(s.Time(), o.Time()); c != 0 {
		return c
	}
	if c := cmp.Compare(len(s.points), len(o.points)); c != 0 {
		return c
	}
	for i, p := range s.points {
		if c := p.Compare(o.points[i]); c != 0 {
			return c
		}
	}
	return compareIDs(s.id, o.id)
}

// Time returns the time of the last point, or 0 for an empty stroke.
func (s *Stroke) Time() int64 {
	if len(s.points) == 0 {
		return 0
	}
	return s.points[len(s.points)-1].Time
}

// ---------------------------------------------------------------------------
// Points
// ---------------------------------------------------------------------------

// Points returns the live point slice.
func (s *Stroke) Points() []*Point { return s.points }

// NumPoints returns the number of points.
func (s *Stroke) NumPoints() int { return len(s.points) }

// Point returns the point at i, or nil when i is out of range.
func (s *Stroke) Point(i int) *Point {
	if i < 0 || i >= len(s.points) {
		return nil
	}
	return s.points[i]
}

// FirstPoint returns the first point, or nil.
func (s *Stroke) FirstPoint() *Point { return s.Point(0) }

// LastPoint returns the last point, or nil.
func (s *Stroke) LastPoint() *Point { return s.Point(len(s.points) - 1) }

// AddPoint appends p and folds it into any cached geometry without a
// full rescan.
func (s *Stroke) AddPoint(p *Point) error {
	if p == nil {
		return fmt.Errorf("stroke %s add point: %w", s.id, ErrNilPoint)
	}
	var prev *Point
	if n := len(s.points); n > 0 {
		prev = s.points[n-1]
	}
	old := s.rev
	s.points = append(s.points, p)
	s.rev++

	if s.length.fresh(old) {
		l := s.length.peek()
		if prev != nil {
			l += prev.DistanceTo(p)
		}
		s.length.set(s.rev, l)
	}
	if s.bbox.fresh(old) {
		s.bbox.set(s.rev, s.bbox.peek().Include(p.X, p.Y))
	}
	if s.minGap.fresh(old) {
		g := s.minGap.peek()
		if prev != nil {
			g = math.Min(g, prev.DistanceTo(p))
		}
		s.minGap.set(s.rev, g)
	}
	return nil
}

// RemovePoint removes the first point equal to p and reports whether one
// was found.
func (s *Stroke) RemovePoint(p *Point) bool {
	i := s.IndexOf(p)
	if i < 0 {
		return false
	}
	s.points = slices.Delete(s.points, i, i+1)
	s.FlagExternalUpdate()
	return true
}

// RemovePointAt removes and returns the point at i.
func (s *Stroke) RemovePointAt(i int) (*Point, error) {
	if i < 0 || i >= len(s.points) {
		return nil, fmt.Errorf("stroke %s remove point %d of %d: %w", s.id, i, len(s.points), ErrIndexOutOfRange)
	}
	p := s.points[i]
	s.points = slices.Delete(s.points, i, i+1)
	s.FlagExternalUpdate()
	return p, nil
}

// SetPoints replaces the point list. A nil list or element is rejected.
func (s *Stroke) SetPoints(points []*Point) error {
	if points == nil {
		return fmt.Errorf("stroke %s set points: %w", s.id, ErrNilList)
	}
	for i, p := range points {
		if p == nil {
			return fmt.Errorf("stroke %s set points: element %d: %w", s.id, i, ErrNilPoint)
		}
	}
	s.points = points
	s.FlagExternalUpdate()
	return nil
}

// FlagExternalUpdate invalidates all cached geometry.
func (s *Stroke) FlagExternalUpdate() {
	s.rev++
}

// IndexOf returns the index of the first point equal to p, or -1.
func (s *Stroke) IndexOf(p *Point) int {
	return slices.IndexFunc(s.points, p.Equal)
}

// IndexOfXY returns the index of the first point at (x, y), or -1.
func (s *Stroke) IndexOfXY(x, y float64) int {
	return slices.IndexFunc(s.points, func(p *Point) bool {
		return p.X == x && p.Y == y
	})
}

// IndexOfID returns the index of the first point with the given UID, or -1.
func (s *Stroke) IndexOfID(id uuid.UUID) int {
	return slices.IndexFunc(s.points, func(p *Point) bool {
		return p.id == id
	})
}

// ---------------------------------------------------------------------------
// Cached geometry
// ---------------------------------------------------------------------------

// PathLength returns the sum of distances between consecutive points.
func (s *Stroke) PathLength() float64 {
	return s.length.get(s.rev, func() float64 {
		var l float64
		for i := 1; i < len(s.points); i++ {
			l += s.points[i-1].DistanceTo(s.points[i])
		}
		return l
	})
}

// BoundingBox returns the box around all points, or nil when empty.
func (s *Stroke) BoundingBox() *BoundingBox {
	return s.bbox.get(s.rev, func() *BoundingBox {
		Logger().Debug().Stringer("stroke", s.id).Int("points", len(s.points)).Msg("recompute stroke bounding box")
		return boxOfPoints(s.points)
	})
}

// MinInterPointDistance returns the smallest distance between consecutive
// points, or math.MaxFloat64 for strokes with fewer than two points.
func (s *Stroke) MinInterPointDistance() float64 {
	return s.minGap.get(s.rev, func() float64 {
		g := math.MaxFloat64
		for i := 1; i < len(s.points); i++ {
			g = math.Min(g, s.points[i-1].DistanceTo(s.points[i]))
		}
		return g
	})
}

// ---------------------------------------------------------------------------
// Segmentations and hierarchy
// ---------------------------------------------------------------------------

// Parent returns the stroke this one was segmented from, or nil.
func (s *Stroke) Parent() *Stroke { return s.parent }

// SetParent marks s as a sub-stroke of p. The reference is not owning.
func (s *Stroke) SetParent(p *Stroke) { s.parent = p }

// ParentOrSelf returns the parent if there is one, otherwise s.
func (s *Stroke) ParentOrSelf() *Stroke {
	if s.parent != nil {
		return s.parent
	}
	return s
}

// Segmentations returns the live segmentation list.
func (s *Stroke) Segmentations() []*Segmentation { return s.segmentations }

// SetSegmentations replaces the segmentation list. A nil list or element
// is rejected.
func (s *Stroke) SetSegmentations(segs []*Segmentation) error {
	if segs == nil {
		return fmt.Errorf("stroke %s set segmentations: %w", s.id, ErrNilList)
	}
	for i, seg := range segs {
		if seg == nil {
			return fmt.Errorf("stroke %s set segmentations: element %d: %w", s.id, i, ErrNilSegmentation)
		}
	}
	s.segmentations = segs
	return nil
}

// AddSegmentation attaches seg. Sub-strokes do not carry segmentations,
// so the call is ignored when s has a parent.
func (s *Stroke) AddSegmentation(seg *Segmentation) error {
	if seg == nil {
		return fmt.Errorf("stroke %s add segmentation: %w", s.id, ErrNilSegmentation)
	}
	if s.parent != nil {
		Logger().Debug().Stringer("stroke", s.id).Stringer("parent", s.parent.id).
			Msg("ignoring segmentation on sub-stroke")
		return nil
	}
	s.segmentations = append(s.segmentations, seg)
	return nil
}

// RemoveSegmentation detaches seg and reports whether it was present.
func (s *Stroke) RemoveSegmentation(seg *Segmentation) bool {
	if seg == nil {
		return false
	}
	i := slices.IndexFunc(s.segmentations, seg.Equal)
	if i < 0 {
		return false
	}
	s.segmentations = slices.Delete(s.segmentations, i, i+1)
	return true
}

// Segmentation returns the first segmentation produced by the named
// segmenter, or nil.
func (s *Stroke) Segmentation(segmenter string) *Segmentation {
	for _, seg := range s.segmentations {
		if seg.SegmenterName == segmenter {
			return seg
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Presentation
// ---------------------------------------------------------------------------

// IsVisible reports whether the stroke should be drawn.
func (s *Stroke) IsVisible() bool { return !s.hidden }

// SetVisible shows or hides the stroke.
func (s *Stroke) SetVisible(v bool) { s.hidden = !v }

// Clone deep-clones points and segmentations and keeps the UID. The parent
// stays a shared reference.
func (s *Stroke) Clone() *Stroke {
	c := &Stroke{
		Label:      s.Label,
		Author:     s.Author.Clone(),
		Pen:        s.Pen.Clone(),
		Color:      s.Color,
		id:         s.id,
		parent:     s.parent,
		hidden:     s.hidden,
		attributes: s.cloneAttributes(),
	}
	if s.points != nil {
		c.points = make([]*Point, len(s.points))
		for i, p := range s.points {
			c.points[i] = p.Clone()
		}
	}
	if s.segmentations != nil {
		c.segmentations = make([]*Segmentation, len(s.segmentations))
		for i, seg := range s.segmentations {
			c.segmentations[i] = seg.Clone()
		}
	}
	return c
}

func (s *Stroke) String() string {
	return fmt.Sprintf("stroke %s (%d points)", s.id, len(s.points))
}
