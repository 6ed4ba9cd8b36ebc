// Package imaging holds the float RGBA images produced and consumed by the
// bake, plus margin padding, PNG persistence and resampling.
package imaging

import (
	"image"
	"image/color"
)

// Image is a float32 RGBA image stored row-major. X follows atlas U and Y
// follows atlas V. Values are nominally in [0,1].
type Image struct {
	Width  int
	Height int
	Pix    []float32
}

// New creates a zeroed image.
func New(width, height int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height*4),
	}
}

// NewFilled creates an image with every pixel set to c.
func NewFilled(width, height int, c [4]float32) *Image {
	img := New(width, height)
	img.Fill(c)
	return img
}

// Fill sets every pixel to c.
func (img *Image) Fill(c [4]float32) {
	for i := 0; i < len(img.Pix); i += 4 {
		copy(img.Pix[i:i+4], c[:])
	}
}

// InBounds reports whether (x, y) is a pixel of img.
func (img *Image) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < img.Width && y < img.Height
}

// RGBA returns the pixel at (x, y).
func (img *Image) RGBA(x, y int) [4]float32 {
	i := (y*img.Width + x) * 4
	return [4]float32{img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3]}
}

// SetRGBA sets the pixel at (x, y).
func (img *Image) SetRGBA(x, y int, c [4]float32) {
	i := (y*img.Width + x) * 4
	copy(img.Pix[i:i+4], c[:])
}

// Value returns channel ch of the pixel at (x, y).
func (img *Image) Value(x, y, ch int) float32 {
	return img.Pix[(y*img.Width+x)*4+ch]
}

// SetValue sets channel ch of the pixel at (x, y).
func (img *Image) SetValue(x, y, ch int, v float32) {
	img.Pix[(y*img.Width+x)*4+ch] = v
}

// ClampedValue reads channel ch with coordinates clamped to the edges.
func (img *Image) ClampedValue(x, y, ch int) float32 {
	x = clampInt(x, 0, img.Width-1)
	y = clampInt(y, 0, img.Height-1)
	return img.Value(x, y, ch)
}

// Clone returns a deep copy.
func (img *Image) Clone() *Image {
	out := &Image{Width: img.Width, Height: img.Height, Pix: make([]float32, len(img.Pix))}
	copy(out.Pix, img.Pix)
	return out
}

// SameSize reports whether both images have the same dimensions.
func (img *Image) SameSize(o *Image) bool {
	return o != nil && img.Width == o.Width && img.Height == o.Height
}

// SampleWrapped returns a bilinear sample at normalized (u, v), wrapping
// both axes so a tile repeats seamlessly.
func (img *Image) SampleWrapped(u, v float32) [4]float32 {
	fx := u*float32(img.Width) - 0.5
	fy := v*float32(img.Height) - 0.5
	x0 := floorInt(fx)
	y0 := floorInt(fy)
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	x1 := wrap(x0+1, img.Width)
	y1 := wrap(y0+1, img.Height)
	x0 = wrap(x0, img.Width)
	y0 = wrap(y0, img.Height)

	a := img.RGBA(x0, y0)
	b := img.RGBA(x1, y0)
	c := img.RGBA(x0, y1)
	d := img.RGBA(x1, y1)
	var out [4]float32
	for i := range out {
		top := a[i] + (b[i]-a[i])*tx
		bottom := c[i] + (d[i]-c[i])*tx
		out[i] = top + (bottom-top)*ty
	}
	return out
}

// ColorModel implements image.Image.
func (img *Image) ColorModel() color.Model {
	return color.NRGBA64Model
}

// Bounds implements image.Image.
func (img *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, img.Width, img.Height)
}

// At implements image.Image. Channels are clamped to [0,1] and alpha is not
// premultiplied.
func (img *Image) At(x, y int) color.Color {
	if !img.InBounds(x, y) {
		return color.NRGBA64{}
	}
	c := img.RGBA(x, y)
	return color.NRGBA64{R: to16(c[0]), G: to16(c[1]), B: to16(c[2]), A: to16(c[3])}
}

// ToNRGBA64 converts to a 16-bit non-premultiplied image.
func (img *Image) ToNRGBA64() *image.NRGBA64 {
	out := image.NewNRGBA64(img.Bounds())
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			out.SetNRGBA64(x, y, img.At(x, y).(color.NRGBA64))
		}
	}
	return out
}

// FromImage converts any image to float RGBA.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	out := New(b.Dx(), b.Dy())
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			c := color.NRGBA64Model.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
			out.SetRGBA(x, y, [4]float32{
				float32(c.R) / 0xffff,
				float32(c.G) / 0xffff,
				float32(c.B) / 0xffff,
				float32(c.A) / 0xffff,
			})
		}
	}
	return out
}

func to16(v float32) uint16 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 0xffff
	}
	return uint16(v*0xffff + 0.5)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func floorInt(f float32) int {
	i := int(f)
	if f < 0 && float32(i) != f {
		i--
	}
	return i
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
