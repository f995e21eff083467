// Package charset decodes QR byte-mode payloads to UTF-8 text.
package charset

import (
	"errors"

	"golang.org/x/text/encoding/charmap"
)

// ErrInvalidEncoding is returned when a byte-mode segment is neither valid
// UTF-8 nor decodable as Latin-1.
var ErrInvalidEncoding = errors.New("charset: undecodable byte sequence")

// DecodeByteModeSegment converts a raw QR byte-mode segment to a UTF-8
// string. QR's Byte mode carries no encoding indicator by default, so this
// follows the same heuristic ZXing-derived readers use for unlabeled
// segments: bytes that already form valid, genuinely multi-byte UTF-8 are
// passed through as UTF-8; everything else is read as ISO-8859-1 (Latin-1),
// since every byte value maps to a Latin-1 code point and most QR payloads
// in the wild that aren't UTF-8 are Latin-1 text.
func DecodeByteModeSegment(data []byte) (string, error) {
	if looksLikeUTF8(data) {
		return string(data), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", ErrInvalidEncoding
	}
	return string(decoded), nil
}

// looksLikeUTF8 reports whether data is valid UTF-8 and contains at least
// one multi-byte sequence, so plain 7-bit ASCII (valid under both encodings)
// doesn't spuriously win the UTF-8 branch.
func looksLikeUTF8(data []byte) bool {
	multiByteSeen := false
	bytesLeft := 0
	for _, value := range data {
		v := int(value)
		if bytesLeft > 0 {
			if v&0xC0 != 0x80 {
				return false
			}
			bytesLeft--
			continue
		}
		switch {
		case v&0x80 == 0:
			// single-byte ASCII
		case v&0xE0 == 0xC0:
			bytesLeft = 1
			multiByteSeen = true
		case v&0xF0 == 0xE0:
			bytesLeft = 2
			multiByteSeen = true
		case v&0xF8 == 0xF0:
			bytesLeft = 3
			multiByteSeen = true
		default:
			return false
		}
	}
	return multiByteSeen && bytesLeft == 0
}
