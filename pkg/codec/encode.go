package codec

import (
	"maps"

	"github.com/chazu/quill/pkg/sketch"
	"github.com/google/uuid"
)

// encoder assigns table indexes by object identity.
type encoder struct {
	doc     *Document
	points  map[*sketch.Point]int
	strokes map[*sketch.Stroke]int
	shapes  map[*sketch.Shape]int
	authors map[uuid.UUID]bool
	pens    map[uuid.UUID]bool
}

// Encode flattens sk into a Document. Every object reachable from the
// sketch is included, including sub-strokes that only appear in
// segmentations or shapes and authors or pens that only appear on strokes.
func Encode(sk *sketch.Sketch) *Document {
	e := &encoder{
		doc: &Document{
			Version:    Version,
			ID:         sk.ID(),
			Study:      sk.Study,
			Domain:     sk.Domain,
			Points:     []Point{},
			Strokes:    []Stroke{},
			Shapes:     []Shape{},
			TopStrokes: []int{},
			TopShapes:  []int{},
			Attributes: maps.Clone(sk.Attributes()),
		},
		points:  make(map[*sketch.Point]int),
		strokes: make(map[*sketch.Stroke]int),
		shapes:  make(map[*sketch.Shape]int),
		authors: make(map[uuid.UUID]bool),
		pens:    make(map[uuid.UUID]bool),
	}
	if sk.Units != sketch.UnitsUnspecified {
		e.doc.Units = sk.Units.String()
	}
	if sp := sk.Speech; sp != nil {
		e.doc.Speech = &Speech{
			ID:          sp.ID,
			Description: sp.Description,
			Path:        sp.Path,
			StartTime:   sp.StartTime,
			StopTime:    sp.StopTime,
		}
	}
	for _, a := range sk.Authors() {
		e.author(a)
	}
	for _, p := range sk.Pens() {
		e.pen(p)
	}
	for _, s := range sk.Strokes() {
		e.doc.TopStrokes = append(e.doc.TopStrokes, e.stroke(s))
	}
	for _, sh := range sk.Shapes() {
		e.doc.TopShapes = append(e.doc.TopShapes, e.shape(sh))
	}
	return e.doc
}

func (e *encoder) author(a *sketch.Author) *uuid.UUID {
	if a == nil {
		return nil
	}
	if !e.authors[a.ID] {
		e.authors[a.ID] = true
		e.doc.Authors = append(e.doc.Authors, Author{
			ID:          a.ID,
			Description: a.Description,
			DpiX:        a.DpiX,
			DpiY:        a.DpiY,
		})
	}
	id := a.ID
	return &id
}

func (e *encoder) pen(p *sketch.Pen) *uuid.UUID {
	if p == nil {
		return nil
	}
	if !e.pens[p.ID] {
		e.pens[p.ID] = true
		e.doc.Pens = append(e.doc.Pens, Pen{
			ID:          p.ID,
			PenID:       p.PenID,
			Brand:       p.Brand,
			Description: p.Description,
		})
	}
	id := p.ID
	return &id
}

func (e *encoder) point(p *sketch.Point) int {
	if i, ok := e.points[p]; ok {
		return i
	}
	i := len(e.doc.Points)
	e.points[p] = i
	e.doc.Points = append(e.doc.Points, Point{
		ID:         p.ID(),
		X:          p.X,
		Y:          p.Y,
		Time:       p.Time,
		Pressure:   p.Pressure,
		TiltX:      p.TiltX,
		TiltY:      p.TiltY,
		Name:       p.Name,
		Attributes: maps.Clone(p.Attributes()),
	})
	return i
}

// stroke reserves the stroke's slot before visiting its parent and
// segmentations so that references back to it resolve.
func (e *encoder) stroke(s *sketch.Stroke) int {
	if i, ok := e.strokes[s]; ok {
		return i
	}
	i := len(e.doc.Strokes)
	e.strokes[s] = i
	e.doc.Strokes = append(e.doc.Strokes, Stroke{})

	out := Stroke{
		ID:         s.ID(),
		Points:     make([]int, 0, s.NumPoints()),
		Author:     e.author(s.Author),
		Pen:        e.pen(s.Pen),
		Label:      s.Label,
		Color:      sketch.HexColor(s.Color),
		Hidden:     !s.IsVisible(),
		Attributes: maps.Clone(s.Attributes()),
	}
	for _, p := range s.Points() {
		out.Points = append(out.Points, e.point(p))
	}
	if parent := s.Parent(); parent != nil {
		pi := e.stroke(parent)
		out.Parent = &pi
	}
	for _, seg := range s.Segmentations() {
		ds := Segmentation{
			ID:         seg.ID(),
			Label:      seg.Label,
			Segmenter:  seg.SegmenterName,
			Confidence: seg.Confidence,
			Strokes:    make([]int, 0, len(seg.Strokes())),
			Attributes: maps.Clone(seg.Attributes()),
		}
		for _, sub := range seg.Strokes() {
			ds.Strokes = append(ds.Strokes, e.stroke(sub))
		}
		out.Segmentations = append(out.Segmentations, ds)
	}
	e.doc.Strokes[i] = out
	return i
}

func (e *encoder) shape(sh *sketch.Shape) int {
	if i, ok := e.shapes[sh]; ok {
		return i
	}
	i := len(e.doc.Shapes)
	e.shapes[sh] = i
	e.doc.Shapes = append(e.doc.Shapes, Shape{})

	out := Shape{
		ID:              sh.ID(),
		Order:           sh.Order(),
		Label:           sh.Label,
		Recognizer:      sh.RecognizerName,
		Description:     sh.Description,
		Confidence:      sh.Confidence,
		Orientation:     sh.Orientation,
		Color:           sketch.HexColor(sh.Color),
		RecognitionTime: sh.RecognitionTime,
		Hidden:          !sh.IsVisible(),
		Attributes:      maps.Clone(sh.Attributes()),
	}
	for _, s := range sh.Strokes() {
		out.Strokes = append(out.Strokes, e.stroke(s))
	}
	for _, c := range sh.SubShapes() {
		out.SubShapes = append(out.SubShapes, e.shape(c))
	}
	for _, a := range sh.Aliases() {
		out.Aliases = append(out.Aliases, Alias{Name: a.Name(), Point: e.point(a.Point())})
	}
	e.doc.Shapes[i] = out
	return i
}
