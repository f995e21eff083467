package qrscan

import (
	"github.com/quietqr/qrscan/decode"
	"github.com/quietqr/qrscan/detect"
)

// QRInfo is one decoded QR symbol found in an image.
type QRInfo struct {
	// Text is the decoded payload, with Byte-mode segments converted to
	// UTF-8 per charset.DecodeByteModeSegment.
	Text string
	// RawBytes is the raw, corrected codeword data the bitstream was
	// parsed from.
	RawBytes []byte
	// ByteSegments holds the raw bytes of each Byte-mode segment, in
	// encounter order, before charset decoding.
	ByteSegments [][]byte

	// ECLevel is the symbol's error correction level.
	ECLevel decode.ErrorCorrectionLevel
	// Version is the QR version (1-40) the symbol decoded as.
	Version int
	// ErrorsCorrected is the number of codewords Reed-Solomon correction
	// changed across all data blocks.
	ErrorsCorrected int
	// ErrorBitsCorrected is the number of individual bits flipped by
	// Reed-Solomon correction across all data blocks.
	ErrorBitsCorrected int
	// TotalDataBits is the number of bits consumed by the bitstream parser
	// up to (not including) the terminator.
	TotalDataBits int

	// Location is the finder-pattern triangle the symbol was found at, in
	// the coordinate space of the input image.
	Location detect.Location
}
