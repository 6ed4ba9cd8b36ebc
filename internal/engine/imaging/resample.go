package imaging

import (
	"image"

	"golang.org/x/image/draw"
)

// Resize resamples img to width×height with a Catmull-Rom filter.
// Alpha is treated as coverage, so use it on opaque images.
func Resize(img *Image, width, height int) *Image {
	if img.Width == width && img.Height == height {
		return img.Clone()
	}
	dst := image.NewNRGBA64(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img.ToNRGBA64(), img.Bounds(), draw.Src, nil)
	return FromImage(dst)
}
