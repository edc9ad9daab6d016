package sketch

import (
	"math"
	"slices"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shapeWith(t *testing.T, seq *Sequence, label string, strokes ...*Stroke) *Shape {
	t.Helper()
	sh := NewShape(seq)
	sh.Label = label
	for _, s := range strokes {
		require.NoError(t, sh.AddStroke(s))
	}
	return sh
}

func TestShapeCompareFollowsConstruction(t *testing.T) {
	seq := NewSequence()
	line1 := shapeWith(t, seq, "Line1")
	line2 := shapeWith(t, seq, "Line2")

	// Give the later shape the smaller UID.
	require.NoError(t, line1.SetID(uuid.MustParse("ffffffff-ffff-4fff-bfff-ffffffffffff")))
	require.NoError(t, line2.SetID(uuid.MustParse("00000000-0000-4000-8000-000000000001")))

	assert.Negative(t, line1.Compare(line2))
	assert.Positive(t, line2.Compare(line1))

	shapes := []*Shape{line2, line1}
	slices.SortFunc(shapes, (*Shape).Compare)
	assert.Equal(t, "Line1", shapes[0].Label)
	assert.Equal(t, "Line2", shapes[1].Label)
}

func TestNewShapeRequiresSequence(t *testing.T) {
	assert.Panics(t, func() { NewShape(nil) })
}

func TestShapeAliasReplace(t *testing.T) {
	sh := NewShape(NewSequence())
	point := NewPoint(0, 0, 0)
	other := NewPoint(5, 5, 1)

	require.NoError(t, sh.AddAlias(MustAlias("P1", point)))
	require.NoError(t, sh.AddAlias(MustAlias("P1", other)))
	assert.Equal(t, 1, sh.NumAliases())
	assert.Same(t, other, sh.Alias("P1").Point())

	require.ErrorIs(t, sh.AddAlias(nil), ErrNilAlias)
	assert.Nil(t, sh.Alias("missing"))
}

func TestShapeAliasesSnapshot(t *testing.T) {
	sh := NewShape(NewSequence())
	assert.NotNil(t, sh.Aliases())
	assert.Empty(t, sh.Aliases())

	p := NewPoint(0, 0, 0)
	for _, name := range []string{"tail", "head", "mid"} {
		require.NoError(t, sh.AddAlias(MustAlias(name, p)))
	}
	got := sh.Aliases()
	require.Len(t, got, 3)
	assert.Equal(t, "head", got[0].Name())
	assert.Equal(t, "mid", got[1].Name())
	assert.Equal(t, "tail", got[2].Name())

	got[0] = nil
	assert.NotNil(t, sh.Alias("head"), "snapshot edits must not reach the shape")

	removed := sh.RemoveAlias("mid")
	require.NotNil(t, removed)
	assert.Equal(t, "mid", removed.Name())
	assert.Nil(t, sh.RemoveAlias("mid"))
	assert.Equal(t, 2, sh.NumAliases())
}

func TestShapeBoundingBox(t *testing.T) {
	seq := NewSequence()
	a := strokeOf(t, 0, 0, 0, 10, 0, 1)
	b := strokeOf(t, 0, 5, 2, 0, 20, 3)

	sh := shapeWith(t, seq, "Box", a)
	assert.Equal(t, "[0,0]-[10,0]", sh.BoundingBox().String())

	require.NoError(t, sh.AddStroke(b))
	assert.True(t, sh.bbox.fresh(sh.rev), "add stroke folds in the stroke box")
	assert.Equal(t, "[0,0]-[10,20]", sh.BoundingBox().String())

	child := shapeWith(t, seq, "Dot", strokeOf(t, -4, -4, 5))
	require.NoError(t, sh.AddSubShape(child))
	assert.Equal(t, "[-4,-4]-[10,20]", sh.BoundingBox().String(), "sub-shapes invalidate the box")

	require.True(t, sh.RemoveSubShape(child))
	assert.Equal(t, "[0,0]-[10,20]", sh.BoundingBox().String())

	require.NoError(t, sh.SetSubShapes([]*Shape{child}))
	assert.Equal(t, "[-4,-4]-[10,20]", sh.BoundingBox().String())

	require.NoError(t, sh.SetStrokes([]*Stroke{}))
	assert.Equal(t, "[-4,-4]-[-4,-4]", sh.BoundingBox().String())

	_, err := sh.RemoveSubShapeAt(0)
	require.NoError(t, err)
	assert.Nil(t, sh.BoundingBox())
}

func TestShapeBoundingBoxIsUnionOfChildren(t *testing.T) {
	seq := NewSequence()
	leaf1 := shapeWith(t, seq, "Line1", strokeOf(t, 1, 1, 0, 3, 3, 1))
	leaf2 := shapeWith(t, seq, "Line2", strokeOf(t, 7, -2, 2, 8, 0, 3))
	mid := shapeWith(t, seq, "Mid")
	require.NoError(t, mid.AddSubShape(leaf1))
	require.NoError(t, mid.AddSubShape(leaf2))
	top := shapeWith(t, seq, "Top", strokeOf(t, 0, 0, 4, 2, 2, 5))
	require.NoError(t, top.AddSubShape(mid))

	want := UnionBoxes(top.Strokes()[0].BoundingBox(), mid.BoundingBox())
	assert.True(t, want.Equal(top.BoundingBox()))
	assert.Equal(t, "[0,-2]-[8,3]", top.BoundingBox().String())

	// Children edited after being added are only seen once flagged.
	require.NoError(t, leaf2.AddStroke(strokeOf(t, 50, 50, 6)))
	assert.Equal(t, "[0,-2]-[8,3]", top.BoundingBox().String())
	mid.FlagExternalUpdate()
	top.FlagExternalUpdate()
	assert.Equal(t, "[0,-2]-[50,50]", top.BoundingBox().String())
}

func TestShapeTime(t *testing.T) {
	sh := NewShape(NewSequence())
	assert.Equal(t, int64(math.MinInt64), sh.Time())

	require.NoError(t, sh.AddStroke(strokeOf(t, 0, 0, 7)))
	assert.Equal(t, int64(7), sh.Time())
	require.NoError(t, sh.AddStroke(strokeOf(t, 0, 0, 3)))
	assert.Equal(t, int64(7), sh.Time())

	_, err := sh.RemoveStrokeAt(0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), sh.Time())
}

func TestShapeStrokes(t *testing.T) {
	sh := NewShape(NewSequence())
	a := strokeOf(t, 0, 0, 0)
	b := strokeOf(t, 1, 1, 1)
	require.NoError(t, sh.SetStrokes([]*Stroke{a, b}))

	assert.Equal(t, 2, sh.NumStrokes())
	assert.Same(t, a, sh.FirstStroke())
	assert.Same(t, b, sh.LastStroke())
	assert.Same(t, b, sh.Stroke(b.ID()))
	assert.Nil(t, sh.Stroke(uuid.New()))

	assert.False(t, sh.RemoveStroke(nil))
	assert.False(t, sh.RemoveStroke(NewStroke()))
	assert.True(t, sh.RemoveStroke(a))
	assert.Same(t, b, sh.FirstStroke())

	_, err := sh.RemoveStrokeAt(1)
	require.ErrorIs(t, err, ErrIndexOutOfRange)

	empty := NewShape(NewSequence())
	assert.Nil(t, empty.FirstStroke())
	assert.Nil(t, empty.LastStroke())
}

func TestShapePreconditions(t *testing.T) {
	sh := NewShape(NewSequence())

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"add nil stroke", sh.AddStroke(nil), ErrNilStroke},
		{"set nil strokes", sh.SetStrokes(nil), ErrNilList},
		{"set nil stroke element", sh.SetStrokes([]*Stroke{nil}), ErrNilStroke},
		{"add nil sub-shape", sh.AddSubShape(nil), ErrNilShape},
		{"set nil sub-shapes", sh.SetSubShapes(nil), ErrNilList},
		{"set nil sub-shape element", sh.SetSubShapes([]*Shape{nil}), ErrNilShape},
		{"nil id", sh.SetID(uuid.Nil), ErrNilID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.err, tt.want)
		})
	}

	_, err := sh.RemoveSubShapeAt(0)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.False(t, sh.RemoveSubShape(nil))
}

func TestShapeContainsStroke(t *testing.T) {
	seq := NewSequence()
	parent := strokeOf(t, 0, 0, 0, 5, 5, 1)
	sub := strokeOf(t, 0, 0, 0)
	sub.SetParent(parent)
	loose := strokeOf(t, 9, 9, 9)
	deep := strokeOf(t, 7, 7, 7)

	sh := shapeWith(t, seq, "Arrow", parent)
	first := shapeWith(t, seq, "Line1")
	second := shapeWith(t, seq, "Line2")
	grandchild := shapeWith(t, seq, "Dot", deep)
	require.NoError(t, second.AddSubShape(grandchild))
	require.NoError(t, sh.SetSubShapes([]*Shape{first, second}))

	assert.True(t, sh.ContainsStroke(parent))
	assert.True(t, sh.ContainsStroke(sub), "sub-strokes count through their parent")
	assert.False(t, sh.ContainsStroke(loose))
	assert.False(t, sh.ContainsStroke(nil))
	assert.False(t, sh.ContainsStroke(deep), "direct check does not recurse")

	assert.True(t, sh.ContainsStrokeRecursive(deep), "every child is searched, not only the first")
	assert.False(t, sh.ContainsStrokeRecursive(loose))
}

func TestShapeRecursiveViews(t *testing.T) {
	seq := NewSequence()
	whole := strokeOf(t, 0, 0, 0, 5, 0, 1, 5, 5, 2)
	left := strokeOf(t, 0, 0, 0, 5, 0, 1)
	right := strokeOf(t, 5, 0, 1, 5, 5, 2)
	left.SetParent(whole)
	right.SetParent(whole)
	early := strokeOf(t, -1, -1, -5)

	line1 := shapeWith(t, seq, "Line1", left)
	line2 := shapeWith(t, seq, "Line2", right)
	corner := shapeWith(t, seq, "Corner")
	require.NoError(t, corner.SetSubShapes([]*Shape{line1, line2}))
	label := shapeWith(t, seq, "Text", early)
	top := shapeWith(t, seq, "Figure")
	require.NoError(t, top.SetSubShapes([]*Shape{corner, label}))

	assert.Equal(t, []*Stroke{left, right, early}, top.RecursiveStrokes())
	assert.Equal(t, []*Shape{line1, line2, label}, top.RecursiveSubShapes())
	assert.Equal(t, []*Stroke{early, whole}, top.RecursiveParentStrokes())
	assert.Len(t, top.RecursivePoints(), 4)
	assert.Same(t, early.FirstPoint(), top.RecursivePoints()[0])

	// Two lines count 1 each and any other leaf counts 4.
	assert.Equal(t, 6, top.SubShapeComplexity())
	assert.Zero(t, line1.SubShapeComplexity())
	assert.Empty(t, line1.RecursiveSubShapes())
}

func TestShapeClone(t *testing.T) {
	seq := NewSequence()
	p := NewPoint(1, 1, 0)
	child := shapeWith(t, seq, "Line1", strokeOf(t, 0, 0, 0, 2, 2, 1))
	sh := shapeWith(t, seq, "Arrow", strokeOf(t, 0, 0, 0, 4, 0, 1))
	require.NoError(t, sh.AddSubShape(child))
	require.NoError(t, sh.AddAlias(MustAlias("head", p)))
	sh.Confidence = Float(0.8)
	sh.Orientation = Float(1.5)
	sh.RecognizerName = "paleo"
	sh.Description = "an arrow"
	sh.RecognitionTime = 12
	sh.SetVisible(false)
	sh.SetBeautifiedImage(nil, nil)
	require.NoError(t, sh.SetAttribute("k", "v"))

	c := sh.Clone()
	assert.Equal(t, sh.ID(), c.ID())
	assert.Zero(t, sh.Compare(c))
	assert.Equal(t, "Arrow", c.Label)
	assert.Equal(t, "paleo", c.RecognizerName)
	assert.Equal(t, "an arrow", c.Description)
	assert.Equal(t, int64(12), c.RecognitionTime)
	assert.False(t, c.IsVisible())
	assert.NotSame(t, sh.Confidence, c.Confidence)
	assert.Equal(t, 0.8, *c.Confidence)
	assert.Equal(t, 1.5, *c.Orientation)

	require.Len(t, c.Strokes(), 1)
	assert.NotSame(t, sh.Strokes()[0], c.Strokes()[0])
	require.Len(t, c.SubShapes(), 1)
	assert.NotSame(t, child, c.SubShapes()[0])
	assert.True(t, child.Equal(c.SubShapes()[0]))

	assert.NotSame(t, sh.Alias("head"), c.Alias("head"))
	assert.Same(t, p, c.Alias("head").Point(), "aliases keep the original point")

	assert.True(t, sh.BoundingBox().Equal(c.BoundingBox()))
	require.NoError(t, c.AddSubShape(shapeWith(t, seq, "Dot", strokeOf(t, 100, 100, 3))))
	assert.Equal(t, 1, sh.NumSubShapes())
	assert.Equal(t, "[0,0]-[4,2]", sh.BoundingBox().String())
}

func TestShapeSubShapeLookup(t *testing.T) {
	seq := NewSequence()
	sh := NewShape(seq)
	child := NewShape(seq)
	require.NoError(t, sh.AddSubShape(child))
	assert.Same(t, child, sh.SubShape(child.ID()))
	assert.Nil(t, sh.SubShape(uuid.New()))
	assert.Equal(t, uint64(2), child.Order())

	child.SetOrder(40)
	assert.Equal(t, uint64(40), child.Order())
	assert.Positive(t, child.Compare(sh))
}
