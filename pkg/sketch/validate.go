package sketch

import (
	"fmt"

	"github.com/google/uuid"
)

// ValidationSeverity indicates whether a finding makes a sketch unusable
// or is advisory.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // structurally broken
	SeverityWarning                           // suspicious but usable
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	ID       uuid.UUID // entity with the problem (nil if sketch-level)
	Message  string
	Severity ValidationSeverity
}

func (e ValidationError) Error() string {
	if e.ID == uuid.Nil {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.ID, e.Message)
}

// ValidationResult separates blocking errors from warnings.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether there are no errors.
func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

// Validate runs the structural checks and returns every finding of
// error severity. It never mutates the sketch.
func Validate(sk *Sketch) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateNesting(sk)...)
	errs = append(errs, validateUniqueIDs(sk)...)
	errs = append(errs, validateSubStrokes(sk)...)
	return errs
}

// ValidateAll runs the structural checks plus the advisory ones.
func ValidateAll(sk *Sketch) ValidationResult {
	var result ValidationResult
	result.Errors = Validate(sk)
	result.Warnings = append(result.Warnings, validateShapeMembership(sk)...)
	// Alias checks walk recursive strokes and would not terminate on a
	// nesting cycle.
	if len(validateNesting(sk)) == 0 {
		result.Warnings = append(result.Warnings, validateAliases(sk)...)
	}
	result.Warnings = append(result.Warnings, validateTimes(sk)...)
	return result
}

// walkShapes visits every top-level shape and descendant once, in
// depth-first order. Shapes reachable through a cycle are visited once.
func walkShapes(sk *Sketch, fn func(sh *Shape)) {
	seen := make(map[*Shape]bool)
	var visit func(sh *Shape)
	visit = func(sh *Shape) {
		if seen[sh] {
			return
		}
		seen[sh] = true
		fn(sh)
		for _, c := range sh.subShapes {
			visit(c)
		}
	}
	for _, sh := range sk.shapes {
		visit(sh)
	}
}

// validateNesting checks that no shape contains itself, using DFS with
// 3-colour marking. A gray shape met again closes a cycle.
func validateNesting(sk *Sketch) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[*Shape]int)
	var errs []ValidationError

	var visit func(sh *Shape)
	visit = func(sh *Shape) {
		switch color[sh] {
		case black:
			return
		case gray:
			errs = append(errs, ValidationError{
				ID:       sh.id,
				Message:  fmt.Sprintf("shape %q contains itself", sh.Label),
				Severity: SeverityError,
			})
			return
		}
		color[sh] = gray
		for _, c := range sh.subShapes {
			visit(c)
		}
		color[sh] = black
	}

	for _, sh := range sk.shapes {
		visit(sh)
	}
	return errs
}

// validateUniqueIDs checks that distinct stroke objects do not share a
// UID, and likewise for shapes.
func validateUniqueIDs(sk *Sketch) []ValidationError {
	var errs []ValidationError

	strokes := make(map[uuid.UUID]*Stroke)
	for _, s := range sk.strokes {
		if prev, ok := strokes[s.id]; ok && prev != s {
			errs = append(errs, ValidationError{
				ID:       s.id,
				Message:  "two strokes share this id",
				Severity: SeverityError,
			})
			continue
		}
		strokes[s.id] = s
	}

	shapes := make(map[uuid.UUID]*Shape)
	walkShapes(sk, func(sh *Shape) {
		if prev, ok := shapes[sh.id]; ok && prev != sh {
			errs = append(errs, ValidationError{
				ID:       sh.id,
				Message:  fmt.Sprintf("two shapes share this id (%q, %q)", prev.Label, sh.Label),
				Severity: SeverityError,
			})
			return
		}
		shapes[sh.id] = sh
	})
	return errs
}

// validateSubStrokes checks that no sub-stroke carries segmentations.
func validateSubStrokes(sk *Sketch) []ValidationError {
	var errs []ValidationError
	check := func(s *Stroke) {
		if s.parent != nil && len(s.segmentations) > 0 {
			errs = append(errs, ValidationError{
				ID:       s.id,
				Message:  fmt.Sprintf("sub-stroke of %s carries %d segmentations", s.parent.id, len(s.segmentations)),
				Severity: SeverityError,
			})
		}
	}
	for _, s := range sk.strokes {
		check(s)
		for _, seg := range s.segmentations {
			for _, sub := range seg.strokes {
				check(sub)
			}
		}
	}
	return errs
}

// validateShapeMembership warns about shape strokes whose parent-or-self
// is not one of the sketch's strokes.
func validateShapeMembership(sk *Sketch) []ValidationError {
	known := make(map[uuid.UUID]bool, len(sk.strokes))
	for _, s := range sk.strokes {
		known[s.id] = true
	}
	var warns []ValidationError
	walkShapes(sk, func(sh *Shape) {
		for _, s := range sh.strokes {
			if !known[s.ParentOrSelf().id] {
				warns = append(warns, ValidationError{
					ID:       sh.id,
					Message:  fmt.Sprintf("shape %q references stroke %s which is not in the sketch", sh.Label, s.id),
					Severity: SeverityWarning,
				})
			}
		}
	})
	return warns
}

// validateAliases warns about aliases whose point is not on any of the
// shape's recursive strokes. Phantom points are legal but often mistakes.
func validateAliases(sk *Sketch) []ValidationError {
	var warns []ValidationError
	walkShapes(sk, func(sh *Shape) {
		if len(sh.aliases) == 0 {
			return
		}
		onShape := make(map[*Point]bool)
		for _, s := range sh.RecursiveStrokes() {
			for _, p := range s.points {
				onShape[p] = true
			}
			if s.parent != nil {
				for _, p := range s.parent.points {
					onShape[p] = true
				}
			}
		}
		for _, a := range sh.Aliases() {
			if !onShape[a.point] {
				warns = append(warns, ValidationError{
					ID:       sh.id,
					Message:  fmt.Sprintf("alias %q of shape %q refers to a point outside its strokes", a.name, sh.Label),
					Severity: SeverityWarning,
				})
			}
		}
	})
	return warns
}

// validateTimes warns about strokes whose point times go backwards.
func validateTimes(sk *Sketch) []ValidationError {
	var warns []ValidationError
	for _, s := range sk.strokes {
		for i := 1; i < len(s.points); i++ {
			if s.points[i].Time < s.points[i-1].Time {
				warns = append(warns, ValidationError{
					ID:       s.id,
					Message:  fmt.Sprintf("point %d has time %d before previous time %d", i, s.points[i].Time, s.points[i-1].Time),
					Severity: SeverityWarning,
				})
				break
			}
		}
	}
	return warns
}
