package prepare

import "github.com/quietqr/qrscan/bitutil"

const (
	defaultBlockSize   = 8
	defaultBlockWindow = 5
	minimumDimension   = defaultBlockSize * 5
	minDynamicRange    = 24
)

// BlockedMean binarizes each BlockSize x BlockSize tile of the image
// against the mean luminance of a BlockWindow x BlockWindow neighborhood of
// block means centered on it, edge-clamped. It tolerates shadows and
// lighting gradients far better than a single image-wide threshold.
//
// A block whose own min/max luminance spread is at or below a minimum
// dynamic range is considered too flat to threshold locally; BlockedMean falls
// back to the image's global mean luminance for that block instead.
//
// For images smaller than five blocks in either dimension, BlockedMean
// delegates to GlobalHistogram.
type BlockedMean struct {
	// BlockSize is the tile side length in pixels. Zero selects the default (8).
	BlockSize int
	// BlockWindow is the odd window size (in blocks) averaged around each
	// tile when computing its threshold. Zero selects the default (5).
	BlockWindow int

	fallback GlobalHistogram
}

func (b *BlockedMean) Prepare(src LuminanceSource) (*bitutil.BitMatrix, error) {
	blockSize := b.BlockSize
	if blockSize <= 0 {
		blockSize = defaultBlockSize
	}
	window := b.BlockWindow
	if window <= 0 {
		window = defaultBlockWindow
	}
	if window%2 == 0 {
		window++
	}

	width := src.Width()
	height := src.Height()
	if width < blockSize*5 || height < blockSize*5 {
		return b.fallback.Prepare(src)
	}

	luminances := src.Matrix()
	subWidth := width / blockSize
	if width%blockSize != 0 {
		subWidth++
	}
	subHeight := height / blockSize
	if height%blockSize != 0 {
		subHeight++
	}

	globalMean := globalMeanThreshold(src)
	blackPoints := calculateBlockMeans(luminances, subWidth, subHeight, width, height, blockSize, globalMean)

	matrix := bitutil.NewBitMatrixWithSize(width, height)
	thresholdBlocks(luminances, subWidth, subHeight, width, height, blockSize, window, blackPoints, matrix)
	return matrix, nil
}

// calculateBlockMeans computes, for each block, the mean luminance of its
// pixels — or globalMean if the block's dynamic range is too small to
// threshold on its own.
func calculateBlockMeans(luminances []byte, subWidth, subHeight, width, height, blockSize, globalMean int) [][]int {
	maxYOffset := height - blockSize
	maxXOffset := width - blockSize
	blackPoints := make([][]int, subHeight)
	for i := range blackPoints {
		blackPoints[i] = make([]int, subWidth)
	}

	for y := 0; y < subHeight; y++ {
		yoffset := clampOffset(y*blockSize, maxYOffset)
		for x := 0; x < subWidth; x++ {
			xoffset := clampOffset(x*blockSize, maxXOffset)

			sum, mn, mx := 0, 0xFF, 0
			for yy := 0; yy < blockSize; yy++ {
				rowOff := (yoffset+yy)*width + xoffset
				for xx := 0; xx < blockSize; xx++ {
					pixel := int(luminances[rowOff+xx])
					sum += pixel
					if pixel < mn {
						mn = pixel
					}
					if pixel > mx {
						mx = pixel
					}
				}
			}

			if mx-mn <= minDynamicRange {
				blackPoints[y][x] = globalMean
			} else {
				blackPoints[y][x] = sum / (blockSize * blockSize)
			}
		}
	}
	return blackPoints
}

func thresholdBlocks(luminances []byte, subWidth, subHeight, width, height, blockSize, window int,
	blackPoints [][]int, matrix *bitutil.BitMatrix) {
	half := window / 2
	maxYOffset := height - blockSize
	maxXOffset := width - blockSize

	for y := 0; y < subHeight; y++ {
		yoffset := clampOffset(y*blockSize, maxYOffset)
		top := clampIndex(y, half, subHeight-1-half)
		for x := 0; x < subWidth; x++ {
			xoffset := clampOffset(x*blockSize, maxXOffset)
			left := clampIndex(x, half, subWidth-1-half)

			sum := 0
			for z := -half; z <= half; z++ {
				row := blackPoints[top+z]
				for w := -half; w <= half; w++ {
					sum += row[left+w]
				}
			}
			average := sum / (window * window)
			thresholdBlock(luminances, xoffset, yoffset, average, blockSize, width, matrix)
		}
	}
}

func clampOffset(offset, max int) int {
	if offset > max {
		return max
	}
	return offset
}

func clampIndex(value, half, max int) int {
	if value < half {
		return half
	}
	if value > max {
		return max
	}
	return value
}

func thresholdBlock(luminances []byte, xoffset, yoffset, threshold, blockSize, stride int, matrix *bitutil.BitMatrix) {
	for y, offset := 0, yoffset*stride+xoffset; y < blockSize; y, offset = y+1, offset+stride {
		for x := 0; x < blockSize; x++ {
			if int(luminances[offset+x]) <= threshold {
				matrix.Set(xoffset+x, yoffset+y)
			}
		}
	}
}
