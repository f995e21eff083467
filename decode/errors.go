// Package decode interprets a sampled module grid into a QR payload:
// format and version info, data-mask removal, codeword extraction,
// Reed-Solomon error correction, and bitstream parsing.
package decode

import "errors"

var (
	// ErrFormat is returned when the bit matrix doesn't encode a
	// structurally valid QR symbol (bad format info, wrong codeword
	// count, malformed bitstream).
	ErrFormat = errors.New("decode: invalid format")
	// ErrVersion is returned when, for a V >= 7 matrix, neither copy of
	// the Golay-coded version information decodes to the version whose
	// dimension matches the sampled matrix. Any disagreement with the
	// geometric version estimate fails; a version off by one is not
	// accepted.
	ErrVersion = errors.New("decode: version information mismatch")
	// ErrChecksum is returned when Reed-Solomon correction failed —
	// too many errors for the error-correction level to recover.
	ErrChecksum = errors.New("decode: checksum failed")
	// ErrUnsupportedMode is returned when the bitstream uses a mode
	// outside this package's scope (Kanji, Hanzi, Structured Append,
	// ECI, FNC1). In non-strict mode the accompanying Result carries
	// whatever prefix had already been decoded; in strict mode no Result
	// is returned.
	ErrUnsupportedMode = errors.New("decode: unsupported mode")
	// ErrParseMode is returned when a 4-bit mode indicator doesn't match
	// any known QR mode.
	ErrParseMode = errors.New("decode: unknown mode indicator")
	// ErrParseLength is returned when a segment's length field claims
	// more data than remains in the bitstream.
	ErrParseLength = errors.New("decode: length field exceeds remaining bits")
	// ErrInvalidEncoding is returned when a byte-mode segment can't be
	// decoded as either UTF-8 or Latin-1.
	ErrInvalidEncoding = errors.New("decode: invalid byte-mode encoding")

	errInvalidECLevel = errors.New("decode: invalid error correction level")
	errInvalidMode    = errors.New("decode: invalid mode")
	errInvalidVersion = errors.New("decode: invalid version number")
)
