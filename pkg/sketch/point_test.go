package sketch

import (
	"slices"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointDistance(t *testing.T) {
	p := NewPoint(0, 0, 0)
	q := NewPoint(3, 4, 10)

	assert.Equal(t, 5.0, p.Distance(3, 4))
	assert.Equal(t, 5.0, p.DistanceTo(q))
	assert.Equal(t, 5.0, q.DistanceTo(p))
}

func TestPointEquality(t *testing.T) {
	id := uuid.New()
	a := NewPointWithID(id, 1, 2, 3)
	b := NewPointWithID(id, 1, 2, 3)
	moved := NewPointWithID(id, 1, 5, 3)
	other := NewPoint(1, 2, 3)

	tests := []struct {
		name     string
		p, q     *Point
		equal    bool
		xyTime   bool
		sameKeys bool
	}{
		{"same uid and value", a, b, true, true, true},
		{"same uid moved", a, moved, false, false, false},
		{"different uid same value", a, other, false, true, false},
		{"nil", a, nil, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, tt.p.Equal(tt.q))
			assert.Equal(t, tt.xyTime, tt.p.EqualXYTime(tt.q))
			if tt.q != nil {
				assert.Equal(t, tt.sameKeys, tt.p.Key() == tt.q.Key())
			}
		})
	}
}

func TestPointCompare(t *testing.T) {
	lo, hi := uuid.UUID{1}, uuid.UUID{2}
	pts := []*Point{
		NewPointWithID(hi, 0, 0, 5),
		NewPointWithID(lo, 0, 0, 5),
		NewPointWithID(lo, 0, 1, 5),
		NewPointWithID(lo, 1, 0, 5),
		NewPointWithID(lo, 9, 9, 1),
	}
	slices.SortFunc(pts, (*Point).Compare)

	want := []string{"<9, 9, 1>", "<0, 0, 5>", "<0, 0, 5>", "<0, 1, 5>", "<1, 0, 5>"}
	for i, p := range pts {
		assert.Equal(t, want[i], p.String(), "position %d", i)
	}
	assert.Equal(t, lo, pts[1].ID())
	assert.Equal(t, hi, pts[2].ID())
}

func TestPointSetID(t *testing.T) {
	p := NewPoint(0, 0, 0)
	require.ErrorIs(t, p.SetID(uuid.Nil), ErrNilID)

	id := uuid.New()
	require.NoError(t, p.SetID(id))
	assert.Equal(t, id, p.ID())
}

func TestPointCopyAndClone(t *testing.T) {
	p := NewPoint(1, 2, 3)
	p.Name = "corner"
	p.Pressure = Float(0.5)
	p.TiltX = Float(10)
	require.NoError(t, p.SetAttribute("k", "v"))

	t.Run("copy keeps identity only", func(t *testing.T) {
		c := p.Copy()
		assert.NotSame(t, p, c)
		assert.True(t, p.Equal(c))
		assert.Empty(t, c.Name)
		assert.Nil(t, c.Pressure)
		assert.False(t, c.HasAttribute("k"))
	})

	t.Run("clone copies extended fields independently", func(t *testing.T) {
		c := p.Clone()
		assert.Equal(t, p.ID(), c.ID())
		assert.Equal(t, "corner", c.Name)
		require.NotNil(t, c.Pressure)
		assert.NotSame(t, p.Pressure, c.Pressure)
		assert.Equal(t, 0.5, *c.Pressure)
		assert.NotSame(t, p.TiltX, c.TiltX)
		assert.Nil(t, c.TiltY)

		*c.Pressure = 0.9
		require.NoError(t, c.SetAttribute("k", "changed"))
		assert.Equal(t, 0.5, *p.Pressure)
		v, _ := p.Attribute("k")
		assert.Equal(t, "v", v)
	})
}

func TestAttributes(t *testing.T) {
	var p Point
	assert.Nil(t, p.Attributes())
	_, ok := p.Attribute("missing")
	assert.False(t, ok)

	require.ErrorIs(t, p.SetAttribute("", "x"), ErrEmptyName)
	require.NoError(t, p.SetAttribute("a", "1"))
	assert.True(t, p.HasAttribute("a"))

	v, ok := p.RemoveAttribute("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
	_, ok = p.RemoveAttribute("a")
	assert.False(t, ok)
}

func TestAlias(t *testing.T) {
	p := NewPoint(1, 1, 0)

	t.Run("rejects missing fields", func(t *testing.T) {
		_, err := NewAlias("", p)
		require.ErrorIs(t, err, ErrEmptyName)
		_, err = NewAlias("head", nil)
		require.ErrorIs(t, err, ErrNilPoint)
		assert.Panics(t, func() { MustAlias("", p) })

		a := MustAlias("head", p)
		require.ErrorIs(t, a.SetName(""), ErrEmptyName)
		require.ErrorIs(t, a.SetPoint(nil), ErrNilPoint)
		assert.Equal(t, "head", a.Name())
		assert.Same(t, p, a.Point())
	})

	t.Run("clone shares the point", func(t *testing.T) {
		a := MustAlias("head", p)
		c := a.Clone()
		assert.NotSame(t, a, c)
		assert.Same(t, a.Point(), c.Point())
		assert.True(t, a.Equal(c))
	})

	t.Run("string and order", func(t *testing.T) {
		a := MustAlias("a", p)
		b := MustAlias("b", p)
		assert.Negative(t, a.Compare(b))
		assert.Equal(t, "a = <1, 1, 0>", a.String())
	})
}

func TestSegmentationCompare(t *testing.T) {
	high := &Segmentation{Confidence: Float(0.9)}
	low := &Segmentation{Confidence: Float(0.2)}
	none := &Segmentation{}
	none2 := &Segmentation{}

	segs := []*Segmentation{none, low, high}
	slices.SortStableFunc(segs, (*Segmentation).Compare)
	assert.Equal(t, []*Segmentation{high, low, none}, segs)

	assert.Zero(t, none.Compare(none2))
	assert.Positive(t, none.Compare(low))
	assert.Negative(t, low.Compare(none))
}

func TestSegmentationIdentity(t *testing.T) {
	seg := NewSegmentation("corners")
	id := seg.ID()
	assert.NotEqual(t, uuid.Nil, id)
	assert.Equal(t, id, seg.ID())
	require.ErrorIs(t, seg.SetID(uuid.Nil), ErrNilID)

	other := NewSegmentation("corners")
	assert.False(t, seg.Equal(other))
	require.NoError(t, other.SetID(id))
	assert.True(t, seg.Equal(other))
}

func TestSegmentationStrokes(t *testing.T) {
	seg := NewSegmentation("corners")
	require.ErrorIs(t, seg.AddStroke(nil), ErrNilStroke)
	require.ErrorIs(t, seg.SetStrokes(nil), ErrNilList)
	require.ErrorIs(t, seg.SetStrokes([]*Stroke{NewStroke(), nil}), ErrNilStroke)
	require.NoError(t, seg.SetStrokes([]*Stroke{}))
	assert.Empty(t, seg.Strokes())

	sub := NewStroke()
	require.NoError(t, sub.AddPoint(NewPoint(0, 0, 0)))
	require.NoError(t, seg.AddStroke(sub))
	seg.Label = "split"
	seg.Confidence = Float(0.7)

	c := seg.Clone()
	assert.Equal(t, seg.ID(), c.ID())
	assert.Equal(t, "split", c.Label)
	assert.NotSame(t, seg.Confidence, c.Confidence)
	require.Len(t, c.Strokes(), 1)
	assert.NotSame(t, sub, c.Strokes()[0])
	assert.Equal(t, sub.ID(), c.Strokes()[0].ID())
}
