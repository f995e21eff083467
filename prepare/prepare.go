// Package prepare binarizes a grayscale image into a 1-bit-per-module
// bitmap suitable for finder-pattern scanning.
package prepare

import (
	"errors"

	"github.com/quietqr/qrscan/bitutil"
)

// ErrNotFound is returned when an image's luminance histogram has no usable
// black/white separation (e.g. a blank or uniformly-lit image).
var ErrNotFound = errors.New("prepare: no black/white separation found")

// LuminanceSource is the minimal input a Preparer needs. It matches
// qrscan.LuminanceSource without importing the root package, avoiding an
// import cycle between qrscan and its stage packages.
type LuminanceSource interface {
	Row(y int, row []byte) []byte
	Matrix() []byte
	Width() int
	Height() int
}

// Preparer binarizes a LuminanceSource into a BitMatrix where a set bit
// means "dark module".
type Preparer interface {
	Prepare(src LuminanceSource) (*bitutil.BitMatrix, error)
}
