// Package extract rectifies a detected finder-pattern triangle into a
// module-aligned bit matrix ready for decode.
package extract

import (
	"errors"
	"math"

	"github.com/quietqr/qrscan/bitutil"
	"github.com/quietqr/qrscan/decode"
	"github.com/quietqr/qrscan/detect"
	"github.com/quietqr/qrscan/transform"
)

var (
	// ErrVersionEstimate is returned when the finder-pattern geometry
	// implies a dimension that doesn't correspond to any QR version.
	ErrVersionEstimate = errors.New("extract: could not estimate version")
	// ErrSamplingOutOfBounds is returned when the sampling grid computed
	// from the perspective transform falls outside the source image.
	ErrSamplingOutOfBounds = errors.New("extract: sampling grid out of bounds")
)

// Extractor rectifies and samples a located QR symbol into a module bit
// matrix, also reporting the version implied by its geometry.
type Extractor interface {
	Extract(img *bitutil.BitMatrix, loc detect.Location) (*bitutil.BitMatrix, *decode.Version, error)
}

// DefaultExtractor is the standard Extractor implementation: it estimates
// module size and dimension from the three finder-pattern centers, looks
// for the fourth (bottom-right) corner via an alignment pattern when the
// version has one, and samples through a single perspective homography.
type DefaultExtractor struct{}

// Extract implements Extractor.
func (DefaultExtractor) Extract(img *bitutil.BitMatrix, loc detect.Location) (*bitutil.BitMatrix, *decode.Version, error) {
	e := &extraction{image: img}
	return e.run(loc)
}

type extraction struct {
	image *bitutil.BitMatrix
}

func (e *extraction) run(loc detect.Location) (*bitutil.BitMatrix, *decode.Version, error) {
	topLeft := loc.TopLeft
	topRight := loc.TopRight
	bottomLeft := loc.BottomLeft

	moduleSize := e.calculateModuleSize(topLeft, topRight, bottomLeft)
	if moduleSize < 1.0 {
		return nil, nil, detect.ErrNotFound
	}

	dimension := computeDimension(topLeft, topRight, bottomLeft, moduleSize)

	provisionalVersion, err := decode.GetProvisionalVersionForDimension(dimension)
	if err != nil {
		return nil, nil, ErrVersionEstimate
	}

	var alignment *alignmentPattern
	if len(provisionalVersion.AlignmentPatternCenters) > 0 {
		bottomRightX := topRight.X - topLeft.X + bottomLeft.X
		bottomRightY := topRight.Y - topLeft.Y + bottomLeft.Y

		modulesBetweenFPCenters := provisionalVersion.DimensionForVersion() - 7
		correctionToTopLeft := 1.0 - 3.0/float64(modulesBetweenFPCenters)
		estAlignmentX := int(topLeft.X + correctionToTopLeft*(bottomRightX-topLeft.X))
		estAlignmentY := int(topLeft.Y + correctionToTopLeft*(bottomRightY-topLeft.Y))

		for i := 4; i <= 16; i <<= 1 {
			if ap := e.findAlignmentInRegion(moduleSize, estAlignmentX, estAlignmentY, float64(i)); ap != nil {
				alignment = ap
				break
			}
		}
		// alignment staying nil here is non-fatal: sampling falls back to
		// the extrapolated bottom-right corner below.
	}

	xform := createTransform(topLeft, topRight, bottomLeft, alignment, dimension)
	sampler := &transform.DefaultGridSampler{}
	bits, err := sampler.SampleGridTransform(e.image, dimension, dimension, xform)
	if err != nil {
		return nil, nil, ErrSamplingOutOfBounds
	}

	return bits, provisionalVersion, nil
}

func computeDimension(topLeft, topRight, bottomLeft detect.Point, moduleSize float64) int {
	tltrCentersDimension := mathRound(distancePt(topLeft, topRight) / moduleSize)
	tlblCentersDimension := mathRound(distancePt(topLeft, bottomLeft) / moduleSize)
	dimension := (tltrCentersDimension+tlblCentersDimension)/2 + 7
	switch dimension & 0x03 {
	case 0:
		dimension++
	case 2:
		dimension--
	case 3:
		dimension -= 2
	}
	return dimension
}

// mathRound matches the rounding used throughout the ZXing lineage:
// (int)(d + 0.5) for positive values.
func mathRound(d float64) int {
	if d < 0 {
		return int(d - 0.5)
	}
	return int(d + 0.5)
}

func distancePt(a, b detect.Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

func createTransform(topLeft, topRight, bottomLeft detect.Point, alignment *alignmentPattern, dimension int) *transform.PerspectiveTransform {
	dimMinusThree := float64(dimension) - 3.5
	var bottomRightX, bottomRightY, sourceBottomRightX, sourceBottomRightY float64

	if alignment != nil {
		bottomRightX = alignment.X
		bottomRightY = alignment.Y
		sourceBottomRightX = dimMinusThree - 3.0
		sourceBottomRightY = sourceBottomRightX
	} else {
		bottomRightX = (topRight.X - topLeft.X) + bottomLeft.X
		bottomRightY = (topRight.Y - topLeft.Y) + bottomLeft.Y
		sourceBottomRightX = dimMinusThree
		sourceBottomRightY = dimMinusThree
	}

	return transform.QuadrilateralToQuadrilateral(
		3.5, 3.5, dimMinusThree, 3.5, sourceBottomRightX, sourceBottomRightY, 3.5, dimMinusThree,
		topLeft.X, topLeft.Y, topRight.X, topRight.Y, bottomRightX, bottomRightY, bottomLeft.X, bottomLeft.Y,
	)
}
