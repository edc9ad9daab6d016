package beautify

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/chazu/quill/pkg/kernel"
	"github.com/chazu/quill/pkg/sketch"
)

// Compile-time interface check.
var _ sketch.Painter = (*OutlinePainter)(nil)

// OutlinePainter fills a shape's beautified outline, or composites its
// beautified image, onto a destination whose pixels are sketch units.
type OutlinePainter struct {
	Color color.Color
}

// Paint draws sh onto dst. Shapes without a replacement are left alone.
func (p *OutlinePainter) Paint(dst draw.Image, sh *sketch.Shape) error {
	fill := p.Color
	if fill == nil {
		fill = color.Black
	}
	switch sh.BeautificationType() {
	case sketch.BeautifyShape:
		paintOutline(dst, sh.BeautifiedShape(), fill)
	case sketch.BeautifyImage:
		img, bounds := sh.BeautifiedImage()
		paintMask(dst, img, bounds, fill)
	}
	return nil
}

// paintOutline tests every destination pixel inside the outline's bounds.
func paintOutline(dst draw.Image, o kernel.Outline, fill color.Color) {
	min, max := o.BoundingBox()
	r := image.Rect(
		int(math.Floor(min[0])), int(math.Floor(min[1])),
		int(math.Ceil(max[0])), int(math.Ceil(max[1])),
	).Intersect(dst.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if kernel.Inside(o, float64(x)+0.5, float64(y)+0.5) {
				dst.Set(x, y, fill)
			}
		}
	}
}

// paintMask scales a mask image onto its sketch-space bounds.
func paintMask(dst draw.Image, mask image.Image, bounds *sketch.BoundingBox, fill color.Color) {
	if mask == nil || bounds == nil {
		return
	}
	mb := mask.Bounds()
	r := image.Rect(
		int(math.Floor(bounds.MinX())), int(math.Floor(bounds.MinY())),
		int(math.Ceil(bounds.MaxX())), int(math.Ceil(bounds.MaxY())),
	)
	clip := r.Intersect(dst.Bounds())
	if r.Empty() || clip.Empty() {
		return
	}
	for y := clip.Min.Y; y < clip.Max.Y; y++ {
		my := mb.Min.Y + (y-r.Min.Y)*mb.Dy()/r.Dy()
		for x := clip.Min.X; x < clip.Max.X; x++ {
			mx := mb.Min.X + (x-r.Min.X)*mb.Dx()/r.Dx()
			if _, _, _, a := mask.At(mx, my).RGBA(); a != 0 {
				dst.Set(x, y, fill)
			}
		}
	}
}
