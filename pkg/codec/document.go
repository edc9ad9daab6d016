// Package codec converts sketches to and from a flat document form that
// serializes as JSON or CBOR.
//
// Points, strokes and shapes are stored once each in tables and referred
// to by table index, so an object shared between several owners (a point
// on both a stroke and its sub-strokes, an alias point, a sub-shape used
// twice) is shared again after decoding. Beautification results are not
// stored.
package codec

import "github.com/google/uuid"

// Version is the document layout written by Encode.
const Version = 1

// Document is the serialized form of a sketch.
type Document struct {
	Version    int               `json:"version" cbor:"1,keyasint"`
	ID         uuid.UUID         `json:"id" cbor:"2,keyasint"`
	Study      string            `json:"study,omitempty" cbor:"3,keyasint,omitempty"`
	Domain     string            `json:"domain,omitempty" cbor:"4,keyasint,omitempty"`
	Units      string            `json:"units,omitempty" cbor:"5,keyasint,omitempty"`
	Speech     *Speech           `json:"speech,omitempty" cbor:"6,keyasint,omitempty"`
	Authors    []Author          `json:"authors,omitempty" cbor:"7,keyasint,omitempty"`
	Pens       []Pen             `json:"pens,omitempty" cbor:"8,keyasint,omitempty"`
	Points     []Point           `json:"points" cbor:"9,keyasint"`
	Strokes    []Stroke          `json:"strokes" cbor:"10,keyasint"`
	Shapes     []Shape           `json:"shapes" cbor:"11,keyasint"`
	TopStrokes []int             `json:"top_strokes" cbor:"12,keyasint"`
	TopShapes  []int             `json:"top_shapes" cbor:"13,keyasint"`
	Attributes map[string]string `json:"attributes,omitempty" cbor:"14,keyasint,omitempty"`
}

// Point is one entry of the point table.
type Point struct {
	ID         uuid.UUID         `json:"id" cbor:"1,keyasint"`
	X          float64           `json:"x" cbor:"2,keyasint"`
	Y          float64           `json:"y" cbor:"3,keyasint"`
	Time       int64             `json:"t" cbor:"4,keyasint"`
	Pressure   *float64          `json:"pressure,omitempty" cbor:"5,keyasint,omitempty"`
	TiltX      *float64          `json:"tilt_x,omitempty" cbor:"6,keyasint,omitempty"`
	TiltY      *float64          `json:"tilt_y,omitempty" cbor:"7,keyasint,omitempty"`
	Name       string            `json:"name,omitempty" cbor:"8,keyasint,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty" cbor:"9,keyasint,omitempty"`
}

// Stroke is one entry of the stroke table. Points, Parent and the
// segmentation strokes are table indexes.
type Stroke struct {
	ID            uuid.UUID         `json:"id" cbor:"1,keyasint"`
	Points        []int             `json:"points" cbor:"2,keyasint"`
	Parent        *int              `json:"parent,omitempty" cbor:"3,keyasint,omitempty"`
	Author        *uuid.UUID        `json:"author,omitempty" cbor:"4,keyasint,omitempty"`
	Pen           *uuid.UUID        `json:"pen,omitempty" cbor:"5,keyasint,omitempty"`
	Label         string            `json:"label,omitempty" cbor:"6,keyasint,omitempty"`
	Color         string            `json:"color,omitempty" cbor:"7,keyasint,omitempty"`
	Hidden        bool              `json:"hidden,omitempty" cbor:"8,keyasint,omitempty"`
	Segmentations []Segmentation    `json:"segmentations,omitempty" cbor:"9,keyasint,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty" cbor:"10,keyasint,omitempty"`
}

// Segmentation is stored inline in its parent stroke.
type Segmentation struct {
	ID         uuid.UUID         `json:"id" cbor:"1,keyasint"`
	Label      string            `json:"label,omitempty" cbor:"2,keyasint,omitempty"`
	Segmenter  string            `json:"segmenter,omitempty" cbor:"3,keyasint,omitempty"`
	Confidence *float64          `json:"confidence,omitempty" cbor:"4,keyasint,omitempty"`
	Strokes    []int             `json:"strokes" cbor:"5,keyasint"`
	Attributes map[string]string `json:"attributes,omitempty" cbor:"6,keyasint,omitempty"`
}

// Shape is one entry of the shape table.
type Shape struct {
	ID              uuid.UUID         `json:"id" cbor:"1,keyasint"`
	Order           uint64            `json:"order" cbor:"2,keyasint"`
	Label           string            `json:"label,omitempty" cbor:"3,keyasint,omitempty"`
	Recognizer      string            `json:"recognizer,omitempty" cbor:"4,keyasint,omitempty"`
	Description     string            `json:"description,omitempty" cbor:"5,keyasint,omitempty"`
	Confidence      *float64          `json:"confidence,omitempty" cbor:"6,keyasint,omitempty"`
	Orientation     *float64          `json:"orientation,omitempty" cbor:"7,keyasint,omitempty"`
	Color           string            `json:"color,omitempty" cbor:"8,keyasint,omitempty"`
	RecognitionTime int64             `json:"recognition_time,omitempty" cbor:"9,keyasint,omitempty"`
	Hidden          bool              `json:"hidden,omitempty" cbor:"10,keyasint,omitempty"`
	Strokes         []int             `json:"strokes,omitempty" cbor:"11,keyasint,omitempty"`
	SubShapes       []int             `json:"subshapes,omitempty" cbor:"12,keyasint,omitempty"`
	Aliases         []Alias           `json:"aliases,omitempty" cbor:"13,keyasint,omitempty"`
	Attributes      map[string]string `json:"attributes,omitempty" cbor:"14,keyasint,omitempty"`
}

// Alias names a point of the point table.
type Alias struct {
	Name  string `json:"name" cbor:"1,keyasint"`
	Point int    `json:"point" cbor:"2,keyasint"`
}

type Author struct {
	ID          uuid.UUID `json:"id" cbor:"1,keyasint"`
	Description string    `json:"description,omitempty" cbor:"2,keyasint,omitempty"`
	DpiX        float64   `json:"dpi_x,omitempty" cbor:"3,keyasint,omitempty"`
	DpiY        float64   `json:"dpi_y,omitempty" cbor:"4,keyasint,omitempty"`
}

type Pen struct {
	ID          uuid.UUID `json:"id" cbor:"1,keyasint"`
	PenID       string    `json:"pen_id,omitempty" cbor:"2,keyasint,omitempty"`
	Brand       string    `json:"brand,omitempty" cbor:"3,keyasint,omitempty"`
	Description string    `json:"description,omitempty" cbor:"4,keyasint,omitempty"`
}

type Speech struct {
	ID          uuid.UUID `json:"id" cbor:"1,keyasint"`
	Description string    `json:"description,omitempty" cbor:"2,keyasint,omitempty"`
	Path        string    `json:"path,omitempty" cbor:"3,keyasint,omitempty"`
	StartTime   int64     `json:"start,omitempty" cbor:"4,keyasint,omitempty"`
	StopTime    int64     `json:"stop,omitempty" cbor:"5,keyasint,omitempty"`
}
