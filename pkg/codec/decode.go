package codec

import (
	"errors"
	"fmt"
	"image/color"
	"maps"
	"slices"

	"github.com/chazu/quill/pkg/sketch"
	"github.com/google/uuid"
)

var (
	// ErrVersion is returned for documents written by a newer layout.
	ErrVersion = errors.New("unsupported document version")
	// ErrBadReference is returned when a table index or UID does not resolve.
	ErrBadReference = errors.New("bad reference")
)

// decoder holds the objects rebuilt so far, indexed like the tables.
type decoder struct {
	doc     *Document
	sk      *sketch.Sketch
	points  []*sketch.Point
	strokes []*sketch.Stroke
	shapes  []*sketch.Shape
	authors map[uuid.UUID]*sketch.Author
	pens    map[uuid.UUID]*sketch.Pen
}

// Decode rebuilds a sketch from doc. Every object is created once and
// linked by reference, so sharing in the original sketch is restored.
func Decode(doc *Document) (*sketch.Sketch, error) {
	if doc == nil {
		return nil, errors.New("decode: nil document")
	}
	if doc.Version < 1 || doc.Version > Version {
		return nil, fmt.Errorf("decode: %w %d", ErrVersion, doc.Version)
	}
	d := &decoder{
		doc:     doc,
		sk:      sketch.New(),
		authors: make(map[uuid.UUID]*sketch.Author),
		pens:    make(map[uuid.UUID]*sketch.Pen),
	}
	steps := []func() error{d.meta, d.people, d.pointTable, d.strokeTable, d.shapeTable, d.top}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
	}
	return d.sk, nil
}

func (d *decoder) meta() error {
	if d.doc.ID != uuid.Nil {
		if err := d.sk.SetID(d.doc.ID); err != nil {
			return err
		}
	}
	d.sk.Study = d.doc.Study
	d.sk.Domain = d.doc.Domain
	u, err := sketch.ParseSpaceUnits(d.doc.Units)
	if err != nil {
		return err
	}
	d.sk.Units = u
	if sp := d.doc.Speech; sp != nil {
		d.sk.Speech = &sketch.Speech{
			ID:          sp.ID,
			Description: sp.Description,
			Path:        sp.Path,
			StartTime:   sp.StartTime,
			StopTime:    sp.StopTime,
		}
	}
	return setAttributes(d.sk, d.doc.Attributes)
}

func (d *decoder) people() error {
	for _, a := range d.doc.Authors {
		author := &sketch.Author{ID: a.ID, Description: a.Description, DpiX: a.DpiX, DpiY: a.DpiY}
		d.authors[a.ID] = author
		d.sk.AddAuthor(author)
	}
	for _, p := range d.doc.Pens {
		pen := &sketch.Pen{ID: p.ID, PenID: p.PenID, Brand: p.Brand, Description: p.Description}
		d.pens[p.ID] = pen
		d.sk.AddPen(pen)
	}
	return nil
}

func (d *decoder) pointTable() error {
	d.points = make([]*sketch.Point, len(d.doc.Points))
	for i, dp := range d.doc.Points {
		id := dp.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		p := sketch.NewPointWithID(id, dp.X, dp.Y, dp.Time)
		p.Pressure = dp.Pressure
		p.TiltX = dp.TiltX
		p.TiltY = dp.TiltY
		p.Name = dp.Name
		if err := setAttributes(p, dp.Attributes); err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}
		d.points[i] = p
	}
	return nil
}

// strokeTable creates every stroke before linking, since parents and
// segmentation strokes may appear later in the table.
func (d *decoder) strokeTable() error {
	d.strokes = make([]*sketch.Stroke, len(d.doc.Strokes))
	for i, ds := range d.doc.Strokes {
		s := sketch.NewStroke()
		if ds.ID != uuid.Nil {
			if err := s.SetID(ds.ID); err != nil {
				return err
			}
		}
		d.strokes[i] = s
	}
	for i, ds := range d.doc.Strokes {
		if err := d.linkStroke(d.strokes[i], ds); err != nil {
			return fmt.Errorf("stroke %d: %w", i, err)
		}
	}
	return nil
}

func (d *decoder) linkStroke(s *sketch.Stroke, ds Stroke) error {
	for _, pi := range ds.Points {
		p, err := lookup(d.points, pi, "point")
		if err != nil {
			return err
		}
		if err := s.AddPoint(p); err != nil {
			return err
		}
	}
	if ds.Parent != nil {
		parent, err := lookup(d.strokes, *ds.Parent, "stroke")
		if err != nil {
			return err
		}
		s.SetParent(parent)
	}
	if ds.Author != nil {
		a, ok := d.authors[*ds.Author]
		if !ok {
			return fmt.Errorf("author %s: %w", *ds.Author, ErrBadReference)
		}
		s.Author = a
	}
	if ds.Pen != nil {
		p, ok := d.pens[*ds.Pen]
		if !ok {
			return fmt.Errorf("pen %s: %w", *ds.Pen, ErrBadReference)
		}
		s.Pen = p
	}
	s.Label = ds.Label
	c, err := parseColor(ds.Color)
	if err != nil {
		return err
	}
	s.Color = c
	s.SetVisible(!ds.Hidden)
	if err := setAttributes(s, ds.Attributes); err != nil {
		return err
	}

	for j, dseg := range ds.Segmentations {
		seg := sketch.NewSegmentation(dseg.Segmenter)
		if dseg.ID != uuid.Nil {
			if err := seg.SetID(dseg.ID); err != nil {
				return err
			}
		}
		seg.Label = dseg.Label
		seg.Confidence = dseg.Confidence
		for _, si := range dseg.Strokes {
			sub, err := lookup(d.strokes, si, "stroke")
			if err != nil {
				return fmt.Errorf("segmentation %d: %w", j, err)
			}
			if err := seg.AddStroke(sub); err != nil {
				return fmt.Errorf("segmentation %d: %w", j, err)
			}
		}
		if err := setAttributes(seg, dseg.Attributes); err != nil {
			return fmt.Errorf("segmentation %d: %w", j, err)
		}
		if err := s.AddSegmentation(seg); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) shapeTable() error {
	seq := d.sk.Sequence()
	d.shapes = make([]*sketch.Shape, len(d.doc.Shapes))
	for i, dsh := range d.doc.Shapes {
		sh := sketch.NewShape(seq)
		if dsh.ID != uuid.Nil {
			if err := sh.SetID(dsh.ID); err != nil {
				return err
			}
		}
		sh.SetOrder(dsh.Order)
		d.shapes[i] = sh
	}
	// Shapes made after decoding continue the stored numbering.
	for _, dsh := range d.doc.Shapes {
		seq.Observe(dsh.Order)
	}
	for i, dsh := range d.doc.Shapes {
		if err := d.linkShape(d.shapes[i], dsh); err != nil {
			return fmt.Errorf("shape %d: %w", i, err)
		}
	}
	return d.checkNesting()
}

// checkNesting rejects a shape table in which a shape contains itself,
// using DFS with 3-colour marking over the table indices. Runs after
// linking, so every sub-shape index is known to be in range.
func (d *decoder) checkNesting() error {
	const (
		white = iota
		gray
		black
	)
	mark := make([]int, len(d.doc.Shapes))
	var visit func(i int) error
	visit = func(i int) error {
		switch mark[i] {
		case black:
			return nil
		case gray:
			return fmt.Errorf("shape %d contains itself: %w", i, ErrBadReference)
		}
		mark[i] = gray
		for _, c := range d.doc.Shapes[i].SubShapes {
			if err := visit(c); err != nil {
				return err
			}
		}
		mark[i] = black
		return nil
	}
	for i := range d.doc.Shapes {
		if err := visit(i); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) linkShape(sh *sketch.Shape, dsh Shape) error {
	sh.Label = dsh.Label
	sh.RecognizerName = dsh.Recognizer
	sh.Description = dsh.Description
	sh.Confidence = dsh.Confidence
	sh.Orientation = dsh.Orientation
	sh.RecognitionTime = dsh.RecognitionTime
	c, err := parseColor(dsh.Color)
	if err != nil {
		return err
	}
	sh.Color = c
	sh.SetVisible(!dsh.Hidden)
	if err := setAttributes(sh, dsh.Attributes); err != nil {
		return err
	}
	for _, si := range dsh.Strokes {
		s, err := lookup(d.strokes, si, "stroke")
		if err != nil {
			return err
		}
		if err := sh.AddStroke(s); err != nil {
			return err
		}
	}
	for _, ci := range dsh.SubShapes {
		c, err := lookup(d.shapes, ci, "shape")
		if err != nil {
			return err
		}
		if err := sh.AddSubShape(c); err != nil {
			return err
		}
	}
	for _, da := range dsh.Aliases {
		p, err := lookup(d.points, da.Point, "point")
		if err != nil {
			return fmt.Errorf("alias %q: %w", da.Name, err)
		}
		a, err := sketch.NewAlias(da.Name, p)
		if err != nil {
			return err
		}
		if err := sh.AddAlias(a); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) top() error {
	for _, i := range d.doc.TopStrokes {
		s, err := lookup(d.strokes, i, "stroke")
		if err != nil {
			return fmt.Errorf("top strokes: %w", err)
		}
		if err := d.sk.AddStroke(s); err != nil {
			return err
		}
	}
	for _, i := range d.doc.TopShapes {
		sh, err := lookup(d.shapes, i, "shape")
		if err != nil {
			return fmt.Errorf("top shapes: %w", err)
		}
		if err := d.sk.AddShape(sh); err != nil {
			return err
		}
	}
	return nil
}

func lookup[T any](table []T, i int, what string) (T, error) {
	if i < 0 || i >= len(table) {
		var zero T
		return zero, fmt.Errorf("%s %d of %d: %w", what, i, len(table), ErrBadReference)
	}
	return table[i], nil
}

func parseColor(s string) (color.Color, error) {
	if s == "" {
		return nil, nil
	}
	return sketch.ParseHexColor(s)
}

type attributeSetter interface {
	SetAttribute(name, value string) error
}

func setAttributes(dst attributeSetter, attrs map[string]string) error {
	for _, k := range slices.Sorted(maps.Keys(attrs)) {
		if err := dst.SetAttribute(k, attrs[k]); err != nil {
			return err
		}
	}
	return nil
}
