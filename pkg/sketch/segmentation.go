package sketch

import (
	"cmp"
	"fmt"

	"github.com/google/uuid"
)

// Segmentation is one proposed split of a stroke into sub-strokes, as
// produced by a corner finder.
type Segmentation struct {
	Label         string
	SegmenterName string
	Confidence    *float64

	id      uuid.UUID
	strokes []*Stroke
	attributes
}

// NewSegmentation returns a segmentation over the given sub-strokes. Its
// UID is assigned lazily on first read.
func NewSegmentation(segmenter string, strokes ...*Stroke) *Segmentation {
	return &Segmentation{SegmenterName: segmenter, strokes: strokes}
}

// ID returns the UID, assigning one if none is set yet.
func (s *Segmentation) ID() uuid.UUID {
	if s.id == uuid.Nil {
		s.id = newID()
	}
	return s.id
}

// SetID replaces the UID. The nil UUID is rejected.
func (s *Segmentation) SetID(id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("segmentation set id: %w", ErrNilID)
	}
	s.id = id
	return nil
}

// Strokes returns the live list of segmented strokes.
func (s *Segmentation) Strokes() []*Stroke { return s.strokes }

// SetStrokes replaces the stroke list. A nil list or element is rejected;
// an empty list is allowed.
func (s *Segmentation) SetStrokes(strokes []*Stroke) error {
	if strokes == nil {
		return fmt.Errorf("segmentation set strokes: %w", ErrNilList)
	}
	for i, st := range strokes {
		if st == nil {
			return fmt.Errorf("segmentation set strokes: element %d: %w", i, ErrNilStroke)
		}
	}
	s.strokes = strokes
	return nil
}

// AddStroke appends a sub-stroke.
func (s *Segmentation) AddStroke(st *Stroke) error {
	if st == nil {
		return fmt.Errorf("segmentation add stroke: %w", ErrNilStroke)
	}
	s.strokes = append(s.strokes, st)
	return nil
}

// Compare orders by confidence, highest first. Segmentations without a
// confidence sort after all scored ones and tie with each other.
func (s *Segmentation) Compare(o *Segmentation) int {
	switch {
	case s.Confidence == nil && o.Confidence == nil:
		return 0
	case s.Confidence == nil:
		return 1
	case o.Confidence == nil:
		return -1
	}
	return cmp.Compare(*o.Confidence, *s.Confidence)
}

// Equal compares UIDs.
func (s *Segmentation) Equal(o *Segmentation) bool {
	return o != nil && s.ID() == o.ID()
}

// Clone deep-clones the sub-strokes and keeps the UID.
func (s *Segmentation) Clone() *Segmentation {
	c := &Segmentation{
		Label:         s.Label,
		SegmenterName: s.SegmenterName,
		Confidence:    cloneFloat(s.Confidence),
		id:            s.ID(),
		attributes:    s.cloneAttributes(),
	}
	if s.strokes != nil {
		c.strokes = make([]*Stroke, len(s.strokes))
		for i, st := range s.strokes {
			c.strokes[i] = st.Clone()
		}
	}
	return c
}

func (s *Segmentation) String() string {
	return fmt.Sprintf("segmentation %s (%s, %d strokes)", s.SegmenterName, s.Label, len(s.strokes))
}
