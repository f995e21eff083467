package qrscan

import "github.com/quietqr/qrscan/bitutil"

// extractPureBits samples a module grid directly from a binarized image
// that is itself the QR symbol, with no quiet zone or surrounding scene
// to locate finder patterns in. It estimates module size from the
// diagonal run of modules starting at the image's first dark pixel,
// then samples an axis-aligned grid, nudging for any small asymmetry in
// where modules begin versus where the image's bounding box starts.
func extractPureBits(image *bitutil.BitMatrix) (*bitutil.BitMatrix, error) {
	leftTopBlack := image.TopLeftOnBit()
	rightBottomBlack := image.BottomRightOnBit()
	if leftTopBlack == nil || rightBottomBlack == nil {
		return nil, ErrNotFound
	}

	moduleSize, err := moduleSizePure(leftTopBlack, image)
	if err != nil {
		return nil, err
	}

	top := leftTopBlack[1]
	bottom := rightBottomBlack[1]
	left := leftTopBlack[0]
	right := rightBottomBlack[0]
	if right-left != bottom-top {
		// The bottom-right module is light, so the last dark pixel of the
		// bottom row lies short of the symbol's right edge; the symbol is
		// square, so its width is taken from its height.
		right = left + (bottom - top)
		if right >= image.Width() {
			return nil, ErrNotFound
		}
	}

	matrixWidth := int(float64(right-left+1)/moduleSize + 0.5)
	matrixHeight := int(float64(bottom-top+1)/moduleSize + 0.5)
	if matrixWidth <= 0 || matrixHeight <= 0 || matrixWidth != matrixHeight {
		return nil, ErrNotFound
	}

	nudge := int(moduleSize / 2.0)
	top += nudge
	left += nudge

	nudgedTooFarRight := left + int(float64(matrixWidth-1)*moduleSize) - (image.Width() - 1)
	if nudgedTooFarRight > 0 {
		if nudgedTooFarRight > nudge {
			return nil, ErrNotFound
		}
		left -= nudgedTooFarRight
	}
	nudgedTooFarDown := top + int(float64(matrixHeight-1)*moduleSize) - (image.Height() - 1)
	if nudgedTooFarDown > 0 {
		if nudgedTooFarDown > nudge {
			return nil, ErrNotFound
		}
		top -= nudgedTooFarDown
	}

	bits := bitutil.NewBitMatrixWithSize(matrixWidth, matrixHeight)
	for y := 0; y < matrixHeight; y++ {
		iOffset := top + int(float64(y)*moduleSize)
		for x := 0; x < matrixWidth; x++ {
			jOffset := left + int(float64(x)*moduleSize)
			if image.Get(jOffset, iOffset) {
				bits.Set(x, y)
			}
		}
	}
	return bits, nil
}

// moduleSizePure walks the diagonal from the image's first dark pixel,
// counting black/white transitions until the fifth (the far edge of the
// first finder pattern), and divides the diagonal distance covered by
// seven modules.
func moduleSizePure(leftTopBlack []int, image *bitutil.BitMatrix) (float64, error) {
	height := image.Height()
	width := image.Width()
	x := leftTopBlack[0]
	y := leftTopBlack[1]
	inBlack := true
	transitions := 0
	for x < width && y < height {
		if inBlack != image.Get(x, y) {
			transitions++
			if transitions == 5 {
				break
			}
			inBlack = !inBlack
		}
		x++
		y++
	}
	if x == width || y == height {
		return 0, ErrNotFound
	}
	return float64(x-leftTopBlack[0]) / 7.0, nil
}
