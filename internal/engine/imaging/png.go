package imaging

import (
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
)

// EncodePNG writes img as a 16-bit non-premultiplied RGBA PNG.
func EncodePNG(w io.Writer, img *Image) error {
	if err := png.Encode(w, img.ToNRGBA64()); err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return nil
}

// DecodePNG reads a PNG into a float image.
func DecodePNG(r io.Reader) (*Image, error) {
	src, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding PNG: %w", err)
	}
	return FromImage(src), nil
}

// SavePNG writes img to path, creating parent directories.
func SavePNG(path string, img *Image) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	if err := EncodePNG(file, img); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// LoadPNG reads a PNG file.
func LoadPNG(path string) (*Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return DecodePNG(file)
}
