package sketch

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/chazu/quill/pkg/kernel"
)

// BeautificationType says what replaces a shape's raw ink when drawn.
type BeautificationType int

const (
	BeautifyNone  BeautificationType = iota // draw the strokes
	BeautifyShape                           // draw a kernel outline
	BeautifyImage                           // draw a raster image
)

func (t BeautificationType) String() string {
	switch t {
	case BeautifyNone:
		return "none"
	case BeautifyShape:
		return "shape"
	case BeautifyImage:
		return "image"
	default:
		return fmt.Sprintf("BeautificationType(%d)", int(t))
	}
}

// Painter draws a shape onto an image. Renderers consult it before
// falling back to the shape's strokes.
type Painter interface {
	Paint(dst draw.Image, sh *Shape) error
}

// beautification is the optional replacement rendering of a Shape. All
// references are shared on clone.
type beautification struct {
	beautyType  BeautificationType
	outline     kernel.Outline
	image       image.Image
	imageBounds *BoundingBox
	painter     Painter
}

// BeautificationType reports which replacement, if any, is active.
func (b *beautification) BeautificationType() BeautificationType { return b.beautyType }

// BeautifiedShape returns the replacement outline, or nil.
func (b *beautification) BeautifiedShape() kernel.Outline { return b.outline }

// BeautifiedImage returns the replacement image and the sketch-space box
// it covers.
func (b *beautification) BeautifiedImage() (image.Image, *BoundingBox) {
	return b.image, b.imageBounds
}

// Painter returns the painter, or nil.
func (b *beautification) Painter() Painter { return b.painter }

// SetBeautifiedShape replaces the ink with an outline. Nil clears the
// beautification.
func (b *beautification) SetBeautifiedShape(o kernel.Outline) {
	b.outline = o
	b.image, b.imageBounds = nil, nil
	if o == nil {
		b.beautyType = BeautifyNone
		return
	}
	b.beautyType = BeautifyShape
}

// SetBeautifiedImage replaces the ink with img drawn over bounds. A nil
// image clears the beautification.
func (b *beautification) SetBeautifiedImage(img image.Image, bounds *BoundingBox) {
	b.image, b.imageBounds = img, bounds
	b.outline = nil
	if img == nil {
		b.imageBounds = nil
		b.beautyType = BeautifyNone
		return
	}
	b.beautyType = BeautifyImage
}

// SetPainter installs a custom painter.
func (b *beautification) SetPainter(p Painter) { b.painter = p }

// ClearBeautification drops any replacement rendering.
func (b *beautification) ClearBeautification() {
	*b = beautification{painter: b.painter}
}
