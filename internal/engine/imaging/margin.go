package imaging

import "image"

// AddMargins pads a resolution×resolution atlas image by margin pixels on
// every side. Steps run down a column and continue at the top of the next
// one, so the top margin receives the bottom strip shifted right by one cell
// and the bottom margin receives the top strip shifted left by one cell.
// margin is expected to equal one cell width.
func AddMargins(img *Image, resolution, margin int) *Image {
	size := resolution + 2*margin
	out := New(size, size)

	// Centre.
	for y := 0; y < img.Height && y < resolution; y++ {
		for x := 0; x < img.Width && x < resolution; x++ {
			out.SetRGBA(x+margin, y+margin, img.RGBA(x, y))
		}
	}

	for y := 0; y < margin; y++ {
		top := resolution - margin + y
		for x := 0; x < resolution; x++ {
			// Bottom strip -> top margin, one cell to the right.
			if dx := x + 2*margin; dx < size && top >= 0 && top < img.Height && x < img.Width {
				out.SetRGBA(dx, y, img.RGBA(x, top))
			}
			// Top strip -> bottom margin, one cell to the left.
			if y < img.Height && x < img.Width {
				out.SetRGBA(x, resolution+margin+y, img.RGBA(x, y))
			}
		}
	}
	return out
}

// Crop returns the pixels of img inside r as a new image.
func Crop(img *Image, r image.Rectangle) *Image {
	r = r.Intersect(img.Bounds())
	out := New(r.Dx(), r.Dy())
	for y := 0; y < out.Height; y++ {
		src := ((r.Min.Y+y)*img.Width + r.Min.X) * 4
		copy(out.Pix[y*out.Width*4:(y+1)*out.Width*4], img.Pix[src:src+out.Width*4])
	}
	return out
}

// CropMargins removes a margin of m pixels from every side.
func CropMargins(img *Image, m int) *Image {
	return Crop(img, image.Rect(m, m, img.Width-m, img.Height-m))
}
