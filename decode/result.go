package decode

// Result is the decoded payload of a single QR symbol.
type Result struct {
	// Text is the decoded payload, assembled from every segment.
	Text string
	// RawBytes are the data codewords after Reed-Solomon correction and
	// block de-interleaving, before bitstream parsing.
	RawBytes []byte
	// ByteSegments holds the raw bytes of each byte-mode segment, in order.
	ByteSegments [][]byte
	// ECLevel is the error correction level read from the format info.
	ECLevel ErrorCorrectionLevel
	// ErrorsCorrected is the number of codewords Reed-Solomon correction
	// altered, summed across all data blocks.
	ErrorsCorrected int
	// ErrorBitsCorrected is the number of individual bits Reed-Solomon
	// correction flipped, summed across all corrected codewords.
	ErrorBitsCorrected int
	// TotalDataBits is the number of bitstream bits consumed up to (not
	// including) the terminator, or the full data-codeword bit count if
	// no terminator was present.
	TotalDataBits int
}
