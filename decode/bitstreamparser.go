package decode

import (
	"fmt"
	"strings"

	"github.com/quietqr/qrscan/bitutil"
	"github.com/quietqr/qrscan/charset"
)

const alphanumericChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ $%*+-./:"

// DecodeBitStream decodes data bytes into a Result. Only Numeric,
// Alphanumeric, and Byte mode segments are interpreted; a Kanji, Hanzi,
// Structured Append, ECI, or FNC1 mode indicator is recognized (so the
// stream still parses structurally) but is treated as unsupported.
//
// strict controls what happens when an unsupported mode is hit: if true,
// decoding fails outright with ErrUnsupportedMode and a nil Result; if
// false, the Result accumulated up to that point (text, byte segments,
// bits consumed) is returned alongside ErrUnsupportedMode.
func DecodeBitStream(data []byte, version *Version, strict bool) (*Result, error) {
	bs := bitutil.NewBitSource(data)
	totalBits := 8 * len(data)
	var text strings.Builder
	text.Grow(50)
	var byteSegments [][]byte

	partialResult := func() *Result {
		return &Result{
			Text:          text.String(),
			RawBytes:      data,
			ByteSegments:  byteSegments,
			TotalDataBits: totalBits - bs.Available(),
		}
	}

	for {
		if bs.Available() < 4 {
			r := partialResult()
			r.TotalDataBits = totalBits
			return r, nil
		}

		modeBits, err := bs.ReadBits(4)
		if err != nil {
			return nil, ErrFormat
		}
		mode, err := ModeForBits(modeBits)
		if err != nil {
			return nil, ErrParseMode
		}

		if mode == ModeTerminator {
			r := partialResult()
			r.TotalDataBits -= 4
			return r, nil
		}

		if !mode.Supported() {
			if strict {
				return nil, ErrUnsupportedMode
			}
			return partialResult(), ErrUnsupportedMode
		}

		countBits := mode.CharacterCountBits(version)
		count, err := bs.ReadBits(countBits)
		if err != nil {
			return nil, ErrParseLength
		}

		switch mode {
		case ModeNumeric:
			if err := decodeNumericSegment(bs, &text, count); err != nil {
				return nil, err
			}
		case ModeAlphanumeric:
			if err := decodeAlphanumericSegment(bs, &text, count); err != nil {
				return nil, err
			}
		case ModeByte:
			seg, err := decodeByteSegment(bs, &text, count)
			if err != nil {
				return nil, err
			}
			byteSegments = append(byteSegments, seg)
		}
	}
}

func decodeByteSegment(bs *bitutil.BitSource, result *strings.Builder, count int) ([]byte, error) {
	if 8*count > bs.Available() {
		return nil, ErrParseLength
	}
	readBytes := make([]byte, count)
	for i := 0; i < count; i++ {
		val, _ := bs.ReadBits(8)
		readBytes[i] = byte(val)
	}

	decoded, err := charset.DecodeByteModeSegment(readBytes)
	if err != nil {
		return nil, ErrInvalidEncoding
	}
	result.WriteString(decoded)
	return readBytes, nil
}

func toAlphaNumericChar(value int) (byte, error) {
	if value >= len(alphanumericChars) {
		return 0, ErrFormat
	}
	return alphanumericChars[value], nil
}

func decodeAlphanumericSegment(bs *bitutil.BitSource, result *strings.Builder, count int) error {
	for count > 1 {
		if bs.Available() < 11 {
			return ErrParseLength
		}
		nextTwo, _ := bs.ReadBits(11)
		c1, err := toAlphaNumericChar(nextTwo / 45)
		if err != nil {
			return err
		}
		c2, err := toAlphaNumericChar(nextTwo % 45)
		if err != nil {
			return err
		}
		result.WriteByte(c1)
		result.WriteByte(c2)
		count -= 2
	}
	if count == 1 {
		if bs.Available() < 6 {
			return ErrParseLength
		}
		val, _ := bs.ReadBits(6)
		c, err := toAlphaNumericChar(val)
		if err != nil {
			return err
		}
		result.WriteByte(c)
	}
	return nil
}

func decodeNumericSegment(bs *bitutil.BitSource, result *strings.Builder, count int) error {
	for count >= 3 {
		if bs.Available() < 10 {
			return ErrParseLength
		}
		threeDigits, _ := bs.ReadBits(10)
		if threeDigits >= 1000 {
			return ErrFormat
		}
		fmt.Fprintf(result, "%03d", threeDigits)
		count -= 3
	}
	if count == 2 {
		if bs.Available() < 7 {
			return ErrParseLength
		}
		twoDigits, _ := bs.ReadBits(7)
		if twoDigits >= 100 {
			return ErrFormat
		}
		fmt.Fprintf(result, "%02d", twoDigits)
	} else if count == 1 {
		if bs.Available() < 4 {
			return ErrParseLength
		}
		digit, _ := bs.ReadBits(4)
		if digit >= 10 {
			return ErrFormat
		}
		fmt.Fprintf(result, "%d", digit)
	}
	return nil
}
