package sketch

import (
	"fmt"
	"maps"
)

// attributes is the optional string-keyed map shared by every entity.
// The map is allocated on first write.
type attributes struct {
	attrs map[string]string
}

// Attribute returns the named attribute and whether it is set.
func (a *attributes) Attribute(name string) (string, bool) {
	v, ok := a.attrs[name]
	return v, ok
}

// SetAttribute stores value under name. An empty name is rejected.
func (a *attributes) SetAttribute(name, value string) error {
	if name == "" {
		return fmt.Errorf("set attribute: %w", ErrEmptyName)
	}
	if a.attrs == nil {
		a.attrs = make(map[string]string)
	}
	a.attrs[name] = value
	return nil
}

// HasAttribute reports whether name is set.
func (a *attributes) HasAttribute(name string) bool {
	_, ok := a.attrs[name]
	return ok
}

// RemoveAttribute deletes name and returns the previous value, if any.
func (a *attributes) RemoveAttribute(name string) (string, bool) {
	v, ok := a.attrs[name]
	if ok {
		delete(a.attrs, name)
	}
	return v, ok
}

// Attributes returns the live attribute map, which may be nil.
func (a *attributes) Attributes() map[string]string {
	return a.attrs
}

// cloneAttributes returns an independent copy.
func (a *attributes) cloneAttributes() attributes {
	if a.attrs == nil {
		return attributes{}
	}
	return attributes{attrs: maps.Clone(a.attrs)}
}
