package kernel

import (
	"fmt"
	"image"
	"image/color"
)

// Rasterize samples o at pixel centers over the rectangle [min, max] and
// returns a width x height alpha mask, opaque inside the outline. Row 0
// maps to min[1], matching screen coordinates where y grows downward.
func Rasterize(o Outline, min, max [2]float64, width, height int) (*image.Alpha, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("rasterize: invalid size %dx%d", width, height)
	}
	if max[0] <= min[0] || max[1] <= min[1] {
		return nil, fmt.Errorf("rasterize: empty region %v-%v", min, max)
	}
	img := image.NewAlpha(image.Rect(0, 0, width, height))
	dx := (max[0] - min[0]) / float64(width)
	dy := (max[1] - min[1]) / float64(height)
	for j := 0; j < height; j++ {
		y := min[1] + (float64(j)+0.5)*dy
		for i := 0; i < width; i++ {
			x := min[0] + (float64(i)+0.5)*dx
			if Inside(o, x, y) {
				img.SetAlpha(i, j, color.Alpha{A: 0xff})
			}
		}
	}
	return img, nil
}

// Coverage returns the fraction of opaque pixels in a mask.
func Coverage(img *image.Alpha) float64 {
	b := img.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0
	}
	n := 0
	for _, a := range img.Pix {
		if a != 0 {
			n++
		}
	}
	return float64(n) / float64(total)
}
