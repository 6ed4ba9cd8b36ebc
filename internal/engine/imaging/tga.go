package imaging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TGA image types.
const (
	TGATypeUncompressed = 2  // Uncompressed true-color
	TGATypeRLE          = 10 // RLE compressed true-color
)

// ErrUnsupportedTGA is returned for TGA variants DecodeTGA cannot read.
var ErrUnsupportedTGA = errors.New("imaging: unsupported TGA")

// DecodeTGA decodes an uncompressed or RLE true-color TGA (24 or 32 bit).
// Row 0 of the result is the top of the image whatever the file's origin.
func DecodeTGA(data []byte) (*Image, error) {
	if len(data) < 18 {
		return nil, fmt.Errorf("TGA data too short")
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	topToBottom := data[17]&0x20 != 0

	if colorMapType != 0 {
		return nil, fmt.Errorf("%w: color-mapped", ErrUnsupportedTGA)
	}
	if imageType != TGATypeUncompressed && imageType != TGATypeRLE {
		return nil, fmt.Errorf("%w: type %d", ErrUnsupportedTGA, imageType)
	}
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("%w: %d bits per pixel", ErrUnsupportedTGA, bpp)
	}
	offset := 18 + idLength
	if offset > len(data) || width == 0 || height == 0 {
		return nil, fmt.Errorf("TGA data truncated")
	}

	d := tgaDecoder{
		img:         New(width, height),
		src:         data[offset:],
		bpp:         bpp / 8,
		topToBottom: topToBottom,
	}
	var err error
	if imageType == TGATypeUncompressed {
		err = d.raw(width * height)
	} else {
		err = d.rle()
	}
	if err != nil {
		return nil, err
	}
	return d.img, nil
}

type tgaDecoder struct {
	img         *Image
	src         []byte
	pos         int
	bpp         int
	pixel       int
	topToBottom bool
}

// read returns the next BGR(A) pixel as RGBA in [0,1].
func (d *tgaDecoder) read() ([4]float32, bool) {
	if d.pos+d.bpp > len(d.src) {
		return [4]float32{}, false
	}
	p := d.src[d.pos : d.pos+d.bpp]
	d.pos += d.bpp
	c := [4]float32{float32(p[2]) / 255, float32(p[1]) / 255, float32(p[0]) / 255, 1}
	if d.bpp == 4 {
		c[3] = float32(p[3]) / 255
	}
	return c, true
}

// put writes c at the next pixel in file order.
func (d *tgaDecoder) put(c [4]float32) {
	w, h := d.img.Width, d.img.Height
	x, y := d.pixel%w, d.pixel/w
	if !d.topToBottom {
		y = h - 1 - y
	}
	d.img.SetRGBA(x, y, c)
	d.pixel++
}

func (d *tgaDecoder) raw(n int) error {
	total := d.img.Width * d.img.Height
	for i := 0; i < n && d.pixel < total; i++ {
		c, ok := d.read()
		if !ok {
			return fmt.Errorf("TGA pixel data truncated")
		}
		d.put(c)
	}
	return nil
}

func (d *tgaDecoder) rle() error {
	total := d.img.Width * d.img.Height
	for d.pixel < total {
		if d.pos >= len(d.src) {
			return fmt.Errorf("TGA pixel data truncated")
		}
		packet := d.src[d.pos]
		d.pos++
		count := int(packet&0x7F) + 1

		if packet&0x80 == 0 {
			if err := d.raw(count); err != nil {
				return err
			}
			continue
		}
		// Run packet: one pixel repeated.
		c, ok := d.read()
		if !ok {
			return fmt.Errorf("TGA pixel data truncated")
		}
		for i := 0; i < count && d.pixel < total; i++ {
			d.put(c)
		}
	}
	return nil
}

// LoadImage reads a PNG or TGA file, chosen by extension.
func LoadImage(path string) (*Image, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tga":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		img, err := DecodeTGA(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return img, nil
	default:
		return LoadPNG(path)
	}
}
