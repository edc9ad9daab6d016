package sketch

import (
	"fmt"
	"strings"
)

// Alias names a point of interest on a Shape, such as a corner or an
// arrow head. The point need not belong to any of the shape's strokes.
type Alias struct {
	name  string
	point *Point
}

// NewAlias returns an alias for p. Both arguments are required.
func NewAlias(name string, p *Point) (*Alias, error) {
	a := &Alias{}
	if err := a.SetName(name); err != nil {
		return nil, err
	}
	if err := a.SetPoint(p); err != nil {
		return nil, err
	}
	return a, nil
}

// MustAlias is like NewAlias but panics on invalid arguments.
func MustAlias(name string, p *Point) *Alias {
	a, err := NewAlias(name, p)
	if err != nil {
		panic(err)
	}
	return a
}

// Name returns the alias name.
func (a *Alias) Name() string { return a.name }

// Point returns the referenced point.
func (a *Alias) Point() *Point { return a.point }

// SetName renames the alias. An empty name is rejected.
func (a *Alias) SetName(name string) error {
	if name == "" {
		return fmt.Errorf("alias name: %w", ErrEmptyName)
	}
	a.name = name
	return nil
}

// SetPoint repoints the alias. A nil point is rejected.
func (a *Alias) SetPoint(p *Point) error {
	if p == nil {
		return fmt.Errorf("alias %q point: %w", a.name, ErrNilPoint)
	}
	a.point = p
	return nil
}

// Compare orders aliases by name.
func (a *Alias) Compare(o *Alias) int {
	return strings.Compare(a.name, o.name)
}

// Equal compares names only.
func (a *Alias) Equal(o *Alias) bool {
	return o != nil && a.name == o.name
}

// Clone returns a new alias with the same name that references the same
// point object.
func (a *Alias) Clone() *Alias {
	return &Alias{name: a.name, point: a.point}
}

func (a *Alias) String() string {
	return fmt.Sprintf("%s = %s", a.name, a.point)
}
