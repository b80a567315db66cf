package project

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

// EncodePaintMask serializes an alpha paint mask as a base64 grayscale PNG.
func EncodePaintMask(mask *image.Alpha) (string, error) {
	if mask == nil {
		return "", nil
	}
	b := mask.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		si := mask.PixOffset(b.Min.X, b.Min.Y+y)
		copy(gray.Pix[y*gray.Stride:(y+1)*gray.Stride], mask.Pix[si:si+b.Dx()])
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, gray, imaging.PNG); err != nil {
		return "", fmt.Errorf("encoding paint mask: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodePaintMask parses a base64 PNG paint mask. Color images are reduced
// to their luminance. Empty data yields a nil mask.
func DecodePaintMask(data string) (*image.Alpha, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decoding paint mask: %w", err)
	}
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decoding paint mask: %w", err)
	}
	gray := imaging.Grayscale(img)

	b := gray.Bounds()
	mask := image.NewAlpha(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		si := gray.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < b.Dx(); x++ {
			mask.Pix[y*mask.Stride+x] = gray.Pix[si+x*4]
		}
	}
	return mask, nil
}

// PaintMask decodes the layer's alpha paint mask.
func (l *LayerState) PaintMask() (*image.Alpha, error) {
	return DecodePaintMask(l.AlphaPaintMaskData)
}

// SetPaintMask stores mask as the layer's alpha paint mask. Nil clears it.
func (l *LayerState) SetPaintMask(mask *image.Alpha) error {
	data, err := EncodePaintMask(mask)
	if err != nil {
		return err
	}
	l.AlphaPaintMaskData = data
	return nil
}
