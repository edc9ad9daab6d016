package beautify_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/chazu/quill/pkg/beautify"
	"github.com/chazu/quill/pkg/kernel"
	"github.com/chazu/quill/pkg/kernel/sdfx"
	"github.com/chazu/quill/pkg/sketch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newKernel returns a fresh sdfx kernel for testing.
func newKernel() kernel.Kernel {
	return sdfx.New()
}

// addStroke adds a stroke through the given (x, y) pairs to sk.
func addStroke(t *testing.T, sk *sketch.Sketch, xy ...float64) *sketch.Stroke {
	t.Helper()
	s := sketch.NewStroke()
	for i := 0; i+1 < len(xy); i += 2 {
		require.NoError(t, s.AddPoint(sketch.NewPoint(xy[i], xy[i+1], int64(i))))
	}
	require.NoError(t, sk.AddStroke(s))
	return s
}

// makeShape creates an unattached shape over strokes.
func makeShape(t *testing.T, sk *sketch.Sketch, label string, strokes ...*sketch.Stroke) *sketch.Shape {
	t.Helper()
	sh := sk.NewShape()
	sh.Label = label
	for _, s := range strokes {
		require.NoError(t, sh.AddStroke(s))
	}
	return sh
}

func TestBeautifyLeafKinds(t *testing.T) {
	tests := []struct {
		name   string
		label  string
		xy     []float64
		kind   beautify.Kind
		inside [][2]float64
		out    [][2]float64
	}{
		{
			name:   "line from ink ends",
			label:  "Line",
			xy:     []float64{0, 0, 3, 4, 10, 1, 20, 0},
			kind:   beautify.KindSegment,
			inside: [][2]float64{{10, 0}},
			out:    [][2]float64{{3, 4}},
		},
		{
			name:   "dot",
			label:  "Dot",
			xy:     []float64{5, 5},
			kind:   beautify.KindDot,
			inside: [][2]float64{{5, 5}, {7, 5}},
			out:    [][2]float64{{9, 5}},
		},
		{
			name:   "circle from box",
			label:  "Circle",
			xy:     []float64{0, 10, 10, 0, 20, 10, 10, 20, 0, 10},
			kind:   beautify.KindCircle,
			inside: [][2]float64{{10, 10}, {18, 10}},
			out:    [][2]float64{{19, 19}},
		},
		{
			name:   "ellipse",
			label:  "Ellipse",
			xy:     []float64{0, 0, 40, 10},
			kind:   beautify.KindEllipse,
			inside: [][2]float64{{20, 5}, {35, 5}},
			out:    [][2]float64{{39, 9}},
		},
		{
			name:   "rectangle",
			label:  "Rectangle",
			xy:     []float64{0, 0, 30, 0, 30, 10, 0, 10},
			kind:   beautify.KindRect,
			inside: [][2]float64{{29, 9}, {15, 5}},
			out:    [][2]float64{{31, 5}},
		},
		{
			name:   "square by prefix",
			label:  "SquareRotated",
			xy:     []float64{0, 0, 10, 10},
			kind:   beautify.KindRect,
			inside: [][2]float64{{9, 1}},
		},
		{
			name:   "unknown label is traced",
			label:  "Squiggle",
			xy:     []float64{0, 0, 10, 0, 10, 10},
			kind:   beautify.KindPolyline,
			inside: [][2]float64{{5, 0}, {10, 5}},
			out:    [][2]float64{{5, 5}},
		},
		{
			name:   "flat circle falls back to tracing",
			label:  "Circle",
			xy:     []float64{0, 0, 0, 0},
			kind:   beautify.KindPolyline,
			inside: [][2]float64{{0, 0}},
		},
		{
			name:   "flat rectangle falls back to tracing",
			label:  "Rectangle",
			xy:     []float64{0, 0, 10, 0},
			kind:   beautify.KindPolyline,
			inside: [][2]float64{{5, 0}},
			out:    [][2]float64{{5, 5}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sk := sketch.New()
			s := addStroke(t, sk, tt.xy...)
			sh := makeShape(t, sk, tt.label, s)
			require.NoError(t, sk.AddShape(sh))

			results, err := beautify.Beautify(sk, newKernel(), beautify.DefaultOptions())
			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, tt.kind, results[0].Kind)
			assert.Same(t, sh, results[0].Shape)

			assert.Equal(t, sketch.BeautifyShape, sh.BeautificationType())
			o := sh.BeautifiedShape()
			require.NotNil(t, o)
			for _, p := range tt.inside {
				assert.True(t, kernel.Inside(o, p[0], p[1]), "expected (%g, %g) inside", p[0], p[1])
			}
			for _, p := range tt.out {
				assert.False(t, kernel.Inside(o, p[0], p[1]), "expected (%g, %g) outside", p[0], p[1])
			}
		})
	}
}

func TestBeautifyLinePrefersAliases(t *testing.T) {
	sk := sketch.New()
	s := addStroke(t, sk, 0, 0, 5, 5, 10, 0)
	sh := makeShape(t, sk, "Line", s)
	require.NoError(t, sh.AddAlias(sketch.MustAlias("p1", sketch.NewPoint(0, 10, 0))))
	require.NoError(t, sh.AddAlias(sketch.MustAlias("p2", sketch.NewPoint(10, 10, 0))))
	require.NoError(t, sk.AddShape(sh))

	_, err := beautify.Beautify(sk, newKernel(), beautify.DefaultOptions())
	require.NoError(t, err)
	o := sh.BeautifiedShape()
	assert.True(t, kernel.Inside(o, 5, 10))
	assert.False(t, kernel.Inside(o, 5, 0))
}

func TestBeautifyComposite(t *testing.T) {
	sk := sketch.New()
	shaft := makeShape(t, sk, "Line", addStroke(t, sk, 0, 0, 20, 0))
	tip := makeShape(t, sk, "Dot", addStroke(t, sk, 20, 0))
	arrow := makeShape(t, sk, "Arrow")
	require.NoError(t, arrow.AddSubShape(shaft))
	require.NoError(t, arrow.AddSubShape(tip))
	require.NoError(t, sk.AddShape(arrow))

	results, err := beautify.Beautify(sk, newKernel(), beautify.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, beautify.KindComposite, results[0].Kind)

	// Children are beautified too.
	assert.Equal(t, sketch.BeautifyShape, shaft.BeautificationType())
	assert.Equal(t, sketch.BeautifyShape, tip.BeautificationType())

	o := arrow.BeautifiedShape()
	assert.True(t, kernel.Inside(o, 10, 0))
	assert.True(t, kernel.Inside(o, 20, 2.5))
	assert.False(t, kernel.Inside(o, 10, 5))
}

func TestBeautifySkipsEmptyAndBeautified(t *testing.T) {
	sk := sketch.New()
	empty := makeShape(t, sk, "Line")
	require.NoError(t, sk.AddShape(empty))

	done := makeShape(t, sk, "Dot", addStroke(t, sk, 1, 1))
	k := newKernel()
	marker, err := k.Circle(100, 100, 1)
	require.NoError(t, err)
	done.SetBeautifiedShape(marker)
	require.NoError(t, sk.AddShape(done))

	results, err := beautify.Beautify(sk, k, beautify.DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, sketch.BeautifyNone, empty.BeautificationType())
	assert.Same(t, marker, done.BeautifiedShape())

	opts := beautify.DefaultOptions()
	opts.Force = true
	results, err = beautify.Beautify(sk, k, opts)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.NotSame(t, marker, done.BeautifiedShape())
}

func TestBeautifyNilSketch(t *testing.T) {
	results, err := beautify.Beautify(nil, newKernel(), beautify.DefaultOptions())
	assert.NoError(t, err)
	assert.Nil(t, results)
}

func TestBeautifyRaster(t *testing.T) {
	sk := sketch.New()
	sh := makeShape(t, sk, "Rectangle", addStroke(t, sk, 0, 0, 40, 0, 40, 20, 0, 20))
	require.NoError(t, sk.AddShape(sh))

	opts := beautify.DefaultOptions()
	opts.RasterSize = 40
	_, err := beautify.Beautify(sk, newKernel(), opts)
	require.NoError(t, err)

	require.Equal(t, sketch.BeautifyImage, sh.BeautificationType())
	img, bounds := sh.BeautifiedImage()
	require.NotNil(t, img)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 20, img.Bounds().Dy())
	assert.Equal(t, "[0,0]-[40,20]", bounds.String())
	assert.InDelta(t, 1.0, kernel.Coverage(img.(*image.Alpha)), 1e-9)
}

func TestBeautifyRasterReachesSubShapes(t *testing.T) {
	sk := sketch.New()
	shaft := makeShape(t, sk, "Line", addStroke(t, sk, 0, 0, 20, 0))
	tip := makeShape(t, sk, "Dot", addStroke(t, sk, 20, 0))
	arrow := makeShape(t, sk, "Arrow")
	require.NoError(t, arrow.AddSubShape(shaft))
	require.NoError(t, arrow.AddSubShape(tip))
	require.NoError(t, sk.AddShape(arrow))

	opts := beautify.DefaultOptions()
	opts.RasterSize = 16
	_, err := beautify.Beautify(sk, newKernel(), opts)
	require.NoError(t, err)

	for _, sh := range []*sketch.Shape{arrow, shaft, tip} {
		require.Equal(t, sketch.BeautifyImage, sh.BeautificationType(), sh.Label)
		img, bounds := sh.BeautifiedImage()
		require.NotNil(t, img, sh.Label)
		require.NotNil(t, bounds, sh.Label)
		assert.Equal(t, 16, max(img.Bounds().Dx(), img.Bounds().Dy()), sh.Label)
		assert.Nil(t, sh.BeautifiedShape(), sh.Label)
	}
}

func TestOutlinePainter(t *testing.T) {
	sk := sketch.New()
	sh := makeShape(t, sk, "Rectangle", addStroke(t, sk, 2, 2, 6, 2, 6, 6, 2, 6))
	require.NoError(t, sk.AddShape(sh))

	red := color.NRGBA{R: 0xff, A: 0xff}
	opts := beautify.DefaultOptions()
	opts.Painter = &beautify.OutlinePainter{Color: red}
	_, err := beautify.Beautify(sk, newKernel(), opts)
	require.NoError(t, err)
	require.NotNil(t, sh.Painter())

	dst := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	require.NoError(t, sh.Painter().Paint(dst, sh))
	assert.Equal(t, red, dst.NRGBAAt(4, 4))
	assert.Equal(t, color.NRGBA{}, dst.NRGBAAt(8, 8))
}

func TestOutlinePainterImage(t *testing.T) {
	sk := sketch.New()
	sh := makeShape(t, sk, "Rectangle", addStroke(t, sk, 0, 0, 4, 0, 4, 4, 0, 4))
	require.NoError(t, sk.AddShape(sh))

	opts := beautify.DefaultOptions()
	opts.RasterSize = 8
	_, err := beautify.Beautify(sk, newKernel(), opts)
	require.NoError(t, err)

	dst := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	p := &beautify.OutlinePainter{}
	require.NoError(t, p.Paint(dst, sh))
	assert.Equal(t, color.NRGBA{A: 0xff}, dst.NRGBAAt(2, 2))
	assert.Equal(t, color.NRGBA{}, dst.NRGBAAt(6, 6))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "segment", beautify.KindSegment.String())
	assert.Equal(t, "composite", beautify.KindComposite.String())
	assert.Equal(t, "Kind(42)", beautify.Kind(42).String())
}
