package qrscan

import "image"

// GrayImage is a LuminanceSource backed by a plain 8-bit luminance buffer.
// It is the concrete input type the pipeline accepts: W*H bytes, row-major,
// 0 (black) to 255 (white).
type GrayImage struct {
	Pix     []byte
	Width_  int
	Height_ int
}

// NewGrayImage wraps an existing row-major luminance buffer. pix must have
// length w*h.
func NewGrayImage(pix []byte, w, h int) *GrayImage {
	return &GrayImage{Pix: pix, Width_: w, Height_: h}
}

// NewGrayImageFromImage converts an image.Image to a GrayImage, using the
// same luminance formula as ZXing's BufferedImageLuminanceSource:
// (306*R + 601*G + 117*B + 0x200) >> 10. Fully transparent pixels are
// forced to white. This is a convenience for tests and callers that
// already have a decoded image.Image; the core pipeline never decodes
// image files itself.
func NewGrayImageFromImage(img image.Image) *GrayImage {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	pix := make([]byte, w*h)

	if gray, ok := img.(*image.Gray); ok && gray.Stride == w && bounds.Min.X == 0 && bounds.Min.Y == 0 {
		copy(pix, gray.Pix[:w*h])
		return &GrayImage{Pix: pix, Width_: w, Height_: h}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.At(bounds.Min.X+x, bounds.Min.Y+y)
			r, g, b, a := c.RGBA()
			if a == 0 {
				pix[y*w+x] = 0xFF
				continue
			}
			r8, g8, b8 := r>>8, g>>8, b>>8
			pix[y*w+x] = byte((306*r8 + 601*g8 + 117*b8 + 0x200) >> 10)
		}
	}
	return &GrayImage{Pix: pix, Width_: w, Height_: h}
}

func (g *GrayImage) Row(y int, row []byte) []byte {
	if y < 0 || y >= g.Height_ {
		return nil
	}
	if row == nil || len(row) < g.Width_ {
		row = make([]byte, g.Width_)
	}
	copy(row, g.Pix[y*g.Width_:(y+1)*g.Width_])
	return row
}

func (g *GrayImage) Matrix() []byte {
	out := make([]byte, len(g.Pix))
	copy(out, g.Pix)
	return out
}

func (g *GrayImage) Width() int  { return g.Width_ }
func (g *GrayImage) Height() int { return g.Height_ }
