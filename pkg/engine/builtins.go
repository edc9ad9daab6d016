package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/quill/pkg/sketch"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms Quill Lisp source code before passing it to
// zygomys. It performs three transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: first-point -> first_point
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
//  3. Line comments: ; and ;; become //, which is what zygomys expects.
//
// All transformations respect string literal boundaries.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, kwPrefix...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Only a hyphen between identifier characters is kebab-case; a
		// hyphen elsewhere is the minus operator or a negative literal.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing model objects through the zygomys environment
// ---------------------------------------------------------------------------

type sexpPoint struct {
	p *sketch.Point
}

func (s *sexpPoint) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(point %g %g %d)", s.p.X, s.p.Y, s.p.Time)
}
func (s *sexpPoint) Type() *zygo.RegisteredType { return nil }

type sexpStroke struct {
	s    *sketch.Stroke
	name string // empty for anonymous strokes
}

func (s *sexpStroke) SexpString(ps *zygo.PrintState) string {
	if s.name != "" {
		return fmt.Sprintf("(stroke-ref %q)", s.name)
	}
	return fmt.Sprintf("(stroke %d points)", s.s.NumPoints())
}
func (s *sexpStroke) Type() *zygo.RegisteredType { return nil }

type sexpShape struct {
	sh   *sketch.Shape
	name string
}

func (s *sexpShape) SexpString(ps *zygo.PrintState) string {
	if s.name != "" {
		return fmt.Sprintf("(shape-ref %q)", s.name)
	}
	return fmt.Sprintf("(shape :label %q)", s.sh.Label)
}
func (s *sexpShape) Type() *zygo.RegisteredType { return nil }

type sexpAlias struct {
	a *sketch.Alias
}

func (s *sexpAlias) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(alias-point %q)", s.a.Name())
}
func (s *sexpAlias) Type() *zygo.RegisteredType { return nil }

type sexpSegmentation struct {
	seg *sketch.Segmentation
}

func (s *sexpSegmentation) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(segmentation :segmenter %q)", s.seg.SegmenterName)
}
func (s *sexpSegmentation) Type() *zygo.RegisteredType { return nil }

type sexpAuthor struct {
	a *sketch.Author
}

func (s *sexpAuthor) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(author %q)", s.a.Description)
}
func (s *sexpAuthor) Type() *zygo.RegisteredType { return nil }

type sexpPen struct {
	p *sketch.Pen
}

func (s *sexpPen) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(pen %q)", s.p.PenID)
}
func (s *sexpPen) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Trailing keyword: a flag with no value.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt64 extracts an integer. Floats are accepted only when integral.
func toInt64(s zygo.Sexp) (int64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return v.Val, nil
	case *zygo.SexpFloat:
		if v.Val == float64(int64(v.Val)) {
			return int64(v.Val), nil
		}
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_pixel) and plain strings ("pixel").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toBool treats nil and false as false and anything else as true. A bare
// trailing keyword (:hidden) therefore reads as false; write :hidden true.
func toBool(s zygo.Sexp) bool {
	if s == zygo.SexpNull {
		return false
	}
	if b, ok := s.(*zygo.SexpBool); ok {
		return b.Val
	}
	return true
}

func toPoint(s zygo.Sexp) (*sketch.Point, error) {
	if p, ok := s.(*sexpPoint); ok {
		return p.p, nil
	}
	return nil, fmt.Errorf("expected point, got %T (%s)", s, s.SexpString(nil))
}

func toStroke(s zygo.Sexp) (*sketch.Stroke, error) {
	if st, ok := s.(*sexpStroke); ok {
		return st.s, nil
	}
	return nil, fmt.Errorf("expected stroke, got %T (%s)", s, s.SexpString(nil))
}

func toShape(s zygo.Sexp) (*sketch.Shape, error) {
	if sh, ok := s.(*sexpShape); ok {
		return sh.sh, nil
	}
	return nil, fmt.Errorf("expected shape, got %T (%s)", s, s.SexpString(nil))
}

func toAlias(s zygo.Sexp) (*sketch.Alias, error) {
	if a, ok := s.(*sexpAlias); ok {
		return a.a, nil
	}
	return nil, fmt.Errorf("expected alias, got %T (%s)", s, s.SexpString(nil))
}

func toSegmentation(s zygo.Sexp) (*sketch.Segmentation, error) {
	if seg, ok := s.(*sexpSegmentation); ok {
		return seg.seg, nil
	}
	return nil, fmt.Errorf("expected segmentation, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// mapList converts every element of a list with conv.
func mapList[T any](s zygo.Sexp, conv func(zygo.Sexp) (T, error)) ([]T, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for i, item := range items {
		v, err := conv(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Builder state
// ---------------------------------------------------------------------------

// builder is the sketch under construction plus the name indexes that
// defstroke, defshape, author and pen populate.
type builder struct {
	sk      *sketch.Sketch
	strokes map[string]*sketch.Stroke
	shapes  map[string]*sketch.Shape
	authors map[string]*sketch.Author
	pens    map[string]*sketch.Pen
}

func newBuilder(sk *sketch.Sketch) *builder {
	b := &builder{
		sk:      sk,
		strokes: make(map[string]*sketch.Stroke),
		shapes:  make(map[string]*sketch.Shape),
		authors: make(map[string]*sketch.Author),
		pens:    make(map[string]*sketch.Pen),
	}
	for _, a := range sk.Authors() {
		b.authors[a.Description] = a
	}
	for _, p := range sk.Pens() {
		b.pens[p.PenID] = p
	}
	return b
}

// strokeFromArgs builds a stroke from point arguments and keyword options.
func (b *builder) strokeFromArgs(fn string, pa kwArgs) (*sketch.Stroke, error) {
	st := sketch.NewStroke()
	for i, arg := range pa.positional {
		p, err := toPoint(arg)
		if err != nil {
			return nil, fmt.Errorf("%s: point %d: %w", fn, i, err)
		}
		if err := st.AddPoint(p); err != nil {
			return nil, fmt.Errorf("%s: %w", fn, err)
		}
	}
	if v, ok := pa.kw["points"]; ok {
		pts, err := mapList(v, toPoint)
		if err != nil {
			return nil, fmt.Errorf("%s: points: %w", fn, err)
		}
		for _, p := range pts {
			if err := st.AddPoint(p); err != nil {
				return nil, fmt.Errorf("%s: %w", fn, err)
			}
		}
	}
	if v, ok := pa.kw["label"]; ok {
		s, err := toString(v)
		if err != nil {
			return nil, fmt.Errorf("%s: label: %w", fn, err)
		}
		st.Label = s
	}
	if v, ok := pa.kw["author"]; ok {
		a, err := b.authorArg(v)
		if err != nil {
			return nil, fmt.Errorf("%s: author: %w", fn, err)
		}
		st.Author = a
	}
	if v, ok := pa.kw["pen"]; ok {
		p, err := b.penArg(v)
		if err != nil {
			return nil, fmt.Errorf("%s: pen: %w", fn, err)
		}
		st.Pen = p
	}
	if v, ok := pa.kw["color"]; ok {
		s, err := toString(v)
		if err != nil {
			return nil, fmt.Errorf("%s: color: %w", fn, err)
		}
		c, err := sketch.ParseHexColor(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fn, err)
		}
		st.Color = c
	}
	if v, ok := pa.kw["hidden"]; ok {
		st.SetVisible(!toBool(v))
	}
	return st, nil
}

// authorArg accepts an author value or the description of a declared one.
func (b *builder) authorArg(s zygo.Sexp) (*sketch.Author, error) {
	if a, ok := s.(*sexpAuthor); ok {
		return a.a, nil
	}
	name, err := toString(s)
	if err != nil {
		return nil, err
	}
	a, ok := b.authors[name]
	if !ok {
		return nil, fmt.Errorf("no author named %q", name)
	}
	return a, nil
}

// penArg accepts a pen value or the id of a declared one.
func (b *builder) penArg(s zygo.Sexp) (*sketch.Pen, error) {
	if p, ok := s.(*sexpPen); ok {
		return p.p, nil
	}
	name, err := toString(s)
	if err != nil {
		return nil, err
	}
	p, ok := b.pens[name]
	if !ok {
		return nil, fmt.Errorf("no pen named %q", name)
	}
	return p, nil
}

// subStroke returns a child of parent sharing its points from..to
// inclusive.
func subStroke(parent *sketch.Stroke, from, to int) (*sketch.Stroke, error) {
	if from < 0 || to >= parent.NumPoints() || from > to {
		return nil, fmt.Errorf("range [%d, %d] outside stroke of %d points", from, to, parent.NumPoints())
	}
	pts := make([]*sketch.Point, 0, to-from+1)
	pts = append(pts, parent.Points()[from:to+1]...)
	sub, err := sketch.NewStrokeWithPoints(pts)
	if err != nil {
		return nil, err
	}
	sub.SetParent(parent)
	sub.Author = parent.Author
	sub.Pen = parent.Pen
	sub.Color = parent.Color
	return sub, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs all Quill DSL builtins into a zygomys
// environment. The builtins populate the builder's sketch during
// evaluation.
//
// Source code must be preprocessed with preprocessSource() before
// evaluation so that :keyword tokens become recognizable string literals
// and kebab-case names match the underscore registrations below.
func registerBuiltins(env *zygo.Zlisp, b *builder) {

	// -----------------------------------------------------------------------
	// (point 10 20 3 :pressure 0.5 :tilt-x 0.1 :tilt-y 0.2 :name "tip")
	// -----------------------------------------------------------------------
	env.AddFunction("point", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 2 || len(pa.positional) > 3 {
			return zygo.SexpNull, fmt.Errorf("point requires x, y and optional time, got %d arguments", len(pa.positional))
		}
		x, err := toFloat64(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("point: x: %w", err)
		}
		y, err := toFloat64(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("point: y: %w", err)
		}
		var t int64
		if len(pa.positional) == 3 {
			t, err = toInt64(pa.positional[2])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("point: time: %w", err)
			}
		}
		p := sketch.NewPoint(x, y, t)

		for kw, dst := range map[string]**float64{"pressure": &p.Pressure, "tilt-x": &p.TiltX, "tilt-y": &p.TiltY} {
			if v, ok := pa.kw[kw]; ok {
				f, err := toFloat64(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("point: %s: %w", kw, err)
				}
				*dst = sketch.Float(f)
			}
		}
		if v, ok := pa.kw["name"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("point: name: %w", err)
			}
			p.Name = s
		}
		return &sexpPoint{p: p}, nil
	})

	// -----------------------------------------------------------------------
	// (defstroke "name" (point ...) ... :label "ink" :author "ann" :pen "p1")
	// -----------------------------------------------------------------------
	env.AddFunction("defstroke", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("defstroke requires a name")
		}
		strokeName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defstroke: name: %w", err)
		}
		if _, dup := b.strokes[strokeName]; dup {
			return zygo.SexpNull, fmt.Errorf("defstroke: stroke %q already defined", strokeName)
		}
		st, err := b.strokeFromArgs("defstroke", parseArgs(args[1:]))
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := b.sk.AddStroke(st); err != nil {
			return zygo.SexpNull, fmt.Errorf("defstroke: %w", err)
		}
		b.strokes[strokeName] = st
		return &sexpStroke{s: st, name: strokeName}, nil
	})

	// -----------------------------------------------------------------------
	// (stroke (point ...) ...)  anonymous stroke added to the sketch
	// -----------------------------------------------------------------------
	env.AddFunction("stroke", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		st, err := b.strokeFromArgs("stroke", parseArgs(args))
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := b.sk.AddStroke(st); err != nil {
			return zygo.SexpNull, fmt.Errorf("stroke: %w", err)
		}
		return &sexpStroke{s: st}, nil
	})

	// -----------------------------------------------------------------------
	// (stroke-ref "name")
	// -----------------------------------------------------------------------
	env.AddFunction("stroke_ref", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("stroke-ref requires a name argument")
		}
		n, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("stroke-ref: name: %w", err)
		}
		st, ok := b.strokes[n]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("stroke-ref: no stroke named %q", n)
		}
		return &sexpStroke{s: st, name: n}, nil
	})

	// -----------------------------------------------------------------------
	// (substroke parent 0 4)  points 0..4 inclusive, not added to the sketch
	// -----------------------------------------------------------------------
	env.AddFunction("substroke", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("substroke requires a stroke, a start and an end index")
		}
		parent, err := toStroke(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("substroke: parent: %w", err)
		}
		from, err := toInt64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("substroke: start: %w", err)
		}
		to, err := toInt64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("substroke: end: %w", err)
		}
		sub, err := subStroke(parent, int(from), int(to))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("substroke: %w", err)
		}
		return &sexpStroke{s: sub}, nil
	})

	// -----------------------------------------------------------------------
	// (segmentation parent :segmenter "corners" :split (list 4 9)
	//               :confidence 0.8 :label "polyline")
	// (segmentation parent :strokes (list (substroke ...) ...))
	// -----------------------------------------------------------------------
	env.AddFunction("segmentation", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("segmentation requires exactly one parent stroke")
		}
		parent, err := toStroke(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("segmentation: parent: %w", err)
		}
		seg := sketch.NewSegmentation("")

		if v, ok := pa.kw["segmenter"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("segmentation: segmenter: %w", err)
			}
			seg.SegmenterName = s
		}
		if v, ok := pa.kw["label"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("segmentation: label: %w", err)
			}
			seg.Label = s
		}
		if v, ok := pa.kw["confidence"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("segmentation: confidence: %w", err)
			}
			seg.Confidence = sketch.Float(f)
		}
		if v, ok := pa.kw["split"]; ok {
			corners, err := mapList(v, toInt64)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("segmentation: split: %w", err)
			}
			// Adjacent pieces share their corner point.
			start := 0
			for _, c := range append(corners, int64(parent.NumPoints()-1)) {
				sub, err := subStroke(parent, start, int(c))
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("segmentation: split at %d: %w", c, err)
				}
				if err := seg.AddStroke(sub); err != nil {
					return zygo.SexpNull, fmt.Errorf("segmentation: %w", err)
				}
				start = int(c)
			}
		}
		if v, ok := pa.kw["strokes"]; ok {
			subs, err := mapList(v, toStroke)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("segmentation: strokes: %w", err)
			}
			for _, sub := range subs {
				if sub.Parent() == nil {
					sub.SetParent(parent)
				}
				if err := seg.AddStroke(sub); err != nil {
					return zygo.SexpNull, fmt.Errorf("segmentation: %w", err)
				}
			}
		}
		if err := parent.AddSegmentation(seg); err != nil {
			return zygo.SexpNull, fmt.Errorf("segmentation: %w", err)
		}
		return &sexpSegmentation{seg: seg}, nil
	})

	// -----------------------------------------------------------------------
	// (segment seg 1)  the second sub-stroke of a segmentation
	// -----------------------------------------------------------------------
	env.AddFunction("segment", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("segment requires a segmentation and an index")
		}
		seg, err := toSegmentation(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("segment: %w", err)
		}
		i, err := toInt64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("segment: index: %w", err)
		}
		if i < 0 || int(i) >= len(seg.Strokes()) {
			return zygo.SexpNull, fmt.Errorf("segment: index %d outside %d sub-strokes", i, len(seg.Strokes()))
		}
		return &sexpStroke{s: seg.Strokes()[i]}, nil
	})

	// -----------------------------------------------------------------------
	// (first-point s) (last-point s) (point-at s 3)
	// -----------------------------------------------------------------------
	env.AddFunction("first_point", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return strokePoint("first-point", args, func(st *sketch.Stroke) *sketch.Point { return st.FirstPoint() })
	})
	env.AddFunction("last_point", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return strokePoint("last-point", args, func(st *sketch.Stroke) *sketch.Point { return st.LastPoint() })
	})
	env.AddFunction("point_at", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("point-at requires a stroke and an index")
		}
		i, err := toInt64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("point-at: index: %w", err)
		}
		return strokePoint("point-at", args[:1], func(st *sketch.Stroke) *sketch.Point { return st.Point(int(i)) })
	})

	// -----------------------------------------------------------------------
	// (alias-point "p1" pt)
	// -----------------------------------------------------------------------
	env.AddFunction("alias_point", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("alias-point requires a name and a point")
		}
		n, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("alias-point: name: %w", err)
		}
		p, err := toPoint(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("alias-point: %w", err)
		}
		a, err := sketch.NewAlias(n, p)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("alias-point: %w", err)
		}
		return &sexpAlias{a: a}, nil
	})

	// -----------------------------------------------------------------------
	// (shape :label "Arrow" :strokes (list ...) :subshapes (list ...)
	//        :aliases (list ...) :confidence 0.9 :recognizer "paleo")
	// -----------------------------------------------------------------------
	env.AddFunction("shape", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		sh, err := b.shapeFromArgs(parseArgs(args))
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpShape{sh: sh}, nil
	})

	// -----------------------------------------------------------------------
	// (defshape "name" (shape ...))  adds a named top-level shape
	// -----------------------------------------------------------------------
	env.AddFunction("defshape", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("defshape requires a name and a shape expression")
		}
		shapeName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defshape: name: %w", err)
		}
		if _, dup := b.shapes[shapeName]; dup {
			return zygo.SexpNull, fmt.Errorf("defshape: shape %q already defined", shapeName)
		}
		sh, err := toShape(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defshape: %w", err)
		}
		if err := b.sk.AddShape(sh); err != nil {
			return zygo.SexpNull, fmt.Errorf("defshape: %w", err)
		}
		b.shapes[shapeName] = sh
		return &sexpShape{sh: sh, name: shapeName}, nil
	})

	// -----------------------------------------------------------------------
	// (add-shape (shape ...))  adds an anonymous top-level shape
	// -----------------------------------------------------------------------
	env.AddFunction("add_shape", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("add-shape requires a shape expression")
		}
		sh, err := toShape(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("add-shape: %w", err)
		}
		if err := b.sk.AddShape(sh); err != nil {
			return zygo.SexpNull, fmt.Errorf("add-shape: %w", err)
		}
		return args[0], nil
	})

	// -----------------------------------------------------------------------
	// (shape-ref "name")
	// -----------------------------------------------------------------------
	env.AddFunction("shape_ref", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("shape-ref requires a name argument")
		}
		n, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("shape-ref: name: %w", err)
		}
		sh, ok := b.shapes[n]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("shape-ref: no shape named %q", n)
		}
		return &sexpShape{sh: sh, name: n}, nil
	})

	// -----------------------------------------------------------------------
	// (author "ann" :dpi-x 96 :dpi-y 96)
	// -----------------------------------------------------------------------
	env.AddFunction("author", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("author requires a description")
		}
		desc, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("author: description: %w", err)
		}
		a, ok := b.authors[desc]
		if !ok {
			a = sketch.NewAuthor(desc)
		}
		if v, ok := pa.kw["dpi-x"]; ok {
			if a.DpiX, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("author: dpi-x: %w", err)
			}
		}
		if v, ok := pa.kw["dpi-y"]; ok {
			if a.DpiY, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("author: dpi-y: %w", err)
			}
		}
		b.authors[desc] = a
		b.sk.AddAuthor(a)
		return &sexpAuthor{a: a}, nil
	})

	// -----------------------------------------------------------------------
	// (pen "p1" :brand "wacom" :description "intuos")
	// -----------------------------------------------------------------------
	env.AddFunction("pen", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("pen requires a pen id")
		}
		id, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("pen: id: %w", err)
		}
		p, ok := b.pens[id]
		if !ok {
			p = sketch.NewPen(id)
		}
		if v, ok := pa.kw["brand"]; ok {
			if p.Brand, err = toString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("pen: brand: %w", err)
			}
		}
		if v, ok := pa.kw["description"]; ok {
			if p.Description, err = toString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("pen: description: %w", err)
			}
		}
		b.pens[id] = p
		b.sk.AddPen(p)
		return &sexpPen{p: p}, nil
	})

	// -----------------------------------------------------------------------
	// (sketch-meta :study "usability" :domain "uml" :units :pixel)
	// -----------------------------------------------------------------------
	env.AddFunction("sketch_meta", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if v, ok := pa.kw["study"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sketch-meta: study: %w", err)
			}
			b.sk.Study = s
		}
		if v, ok := pa.kw["domain"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sketch-meta: domain: %w", err)
			}
			b.sk.Domain = s
		}
		if v, ok := pa.kw["units"]; ok {
			s, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sketch-meta: units: %w", err)
			}
			u, err := sketch.ParseSpaceUnits(s)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sketch-meta: %w", err)
			}
			b.sk.Units = u
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (speech "audio/session1.wav" :start 0 :stop 5000 :description "notes")
	// -----------------------------------------------------------------------
	env.AddFunction("speech", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("speech requires a path")
		}
		path, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("speech: path: %w", err)
		}
		sp := sketch.NewSpeech(path, 0, 0)
		if v, ok := pa.kw["start"]; ok {
			if sp.StartTime, err = toInt64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("speech: start: %w", err)
			}
		}
		if v, ok := pa.kw["stop"]; ok {
			if sp.StopTime, err = toInt64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("speech: stop: %w", err)
			}
		}
		if v, ok := pa.kw["description"]; ok {
			if sp.Description, err = toString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("speech: description: %w", err)
			}
		}
		b.sk.Speech = sp
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (set-attr target "key" "value")
	// -----------------------------------------------------------------------
	env.AddFunction("set_attr", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("set-attr requires a target, a key and a value")
		}
		key, err := toString(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("set-attr: key: %w", err)
		}
		val, err := toString(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("set-attr: value: %w", err)
		}
		var target interface {
			SetAttribute(name, value string) error
		}
		switch t := args[0].(type) {
		case *sexpPoint:
			target = t.p
		case *sexpStroke:
			target = t.s
		case *sexpShape:
			target = t.sh
		case *sexpSegmentation:
			target = t.seg
		default:
			return zygo.SexpNull, fmt.Errorf("set-attr: cannot set attributes on %T", args[0])
		}
		if err := target.SetAttribute(key, val); err != nil {
			return zygo.SexpNull, fmt.Errorf("set-attr: %w", err)
		}
		return args[0], nil
	})
}

// strokePoint resolves a single stroke argument and picks a point from it.
func strokePoint(fn string, args []zygo.Sexp, pick func(*sketch.Stroke) *sketch.Point) (zygo.Sexp, error) {
	if len(args) != 1 {
		return zygo.SexpNull, fmt.Errorf("%s requires a stroke", fn)
	}
	st, err := toStroke(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("%s: %w", fn, err)
	}
	p := pick(st)
	if p == nil {
		return zygo.SexpNull, fmt.Errorf("%s: no such point in stroke of %d points", fn, st.NumPoints())
	}
	return &sexpPoint{p: p}, nil
}

// shapeFromArgs builds an unattached shape numbered from the sketch.
func (b *builder) shapeFromArgs(pa kwArgs) (*sketch.Shape, error) {
	sh := b.sk.NewShape()

	strs := map[string]*string{
		"label":       &sh.Label,
		"recognizer":  &sh.RecognizerName,
		"description": &sh.Description,
	}
	for kw, dst := range strs {
		if v, ok := pa.kw[kw]; ok {
			s, err := toString(v)
			if err != nil {
				return nil, fmt.Errorf("shape: %s: %w", kw, err)
			}
			*dst = s
		}
	}
	floats := map[string]**float64{
		"confidence":  &sh.Confidence,
		"orientation": &sh.Orientation,
	}
	for kw, dst := range floats {
		if v, ok := pa.kw[kw]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return nil, fmt.Errorf("shape: %s: %w", kw, err)
			}
			*dst = sketch.Float(f)
		}
	}
	if v, ok := pa.kw["recognition-time"]; ok {
		t, err := toInt64(v)
		if err != nil {
			return nil, fmt.Errorf("shape: recognition-time: %w", err)
		}
		sh.RecognitionTime = t
	}
	if v, ok := pa.kw["color"]; ok {
		s, err := toString(v)
		if err != nil {
			return nil, fmt.Errorf("shape: color: %w", err)
		}
		c, err := sketch.ParseHexColor(s)
		if err != nil {
			return nil, fmt.Errorf("shape: %w", err)
		}
		sh.Color = c
	}
	if v, ok := pa.kw["hidden"]; ok {
		sh.SetVisible(!toBool(v))
	}
	if v, ok := pa.kw["strokes"]; ok {
		strokes, err := mapList(v, toStroke)
		if err != nil {
			return nil, fmt.Errorf("shape: strokes: %w", err)
		}
		for _, st := range strokes {
			if err := sh.AddStroke(st); err != nil {
				return nil, fmt.Errorf("shape: %w", err)
			}
		}
	}
	if v, ok := pa.kw["subshapes"]; ok {
		children, err := mapList(v, toShape)
		if err != nil {
			return nil, fmt.Errorf("shape: subshapes: %w", err)
		}
		for _, c := range children {
			if err := sh.AddSubShape(c); err != nil {
				return nil, fmt.Errorf("shape: %w", err)
			}
		}
	}
	if v, ok := pa.kw["aliases"]; ok {
		aliases, err := mapList(v, toAlias)
		if err != nil {
			return nil, fmt.Errorf("shape: aliases: %w", err)
		}
		for _, a := range aliases {
			if err := sh.AddAlias(a); err != nil {
				return nil, fmt.Errorf("shape: %w", err)
			}
		}
	}
	return sh, nil
}
