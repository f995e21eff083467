package decode

import (
	"math/bits"

	"github.com/quietqr/qrscan/bitutil"
	"github.com/quietqr/qrscan/reedsolomon"
)

// Decoder decodes QR codes.
type Decoder struct {
	rsDecoder *reedsolomon.Decoder

	// StrictMode, when true, fails the whole decode as soon as the
	// bitstream hits a mode outside this package's scope (Kanji, Hanzi,
	// Structured Append, ECI, FNC1). When false (the default), the
	// already-decoded prefix is returned alongside ErrUnsupportedMode.
	StrictMode bool
}

// NewDecoder creates a new QR code Decoder.
func NewDecoder() *Decoder {
	return &Decoder{
		rsDecoder: reedsolomon.NewDecoder(reedsolomon.QRCodeField256),
	}
}

// Decode decodes a BitMatrix into a Result.
func (d *Decoder) Decode(bitMatrix *bitutil.BitMatrix) (*Result, error) {
	parser, err := NewBitMatrixParser(bitMatrix)
	if err != nil {
		return nil, err
	}

	result, err := d.decodeParser(parser)
	if err == nil || err == ErrUnsupportedMode {
		// ErrUnsupportedMode means version/format/codewords all read fine
		// and only the payload's mode-switched content fell outside scope;
		// there's nothing a mirrored re-read would fix.
		return result, err
	}

	// Try mirrored reading: some scanners capture symbols off a reflective
	// surface.
	parser.Remask()
	parser.SetMirror(true)

	if _, verr := parser.ReadVersion(); verr != nil {
		return nil, err
	}
	if _, ferr := parser.ReadFormatInformation(); ferr != nil {
		return nil, err
	}

	parser.Mirror()

	result, err2 := d.decodeParser(parser)
	if err2 != nil {
		return nil, err
	}
	return result, nil
}

func (d *Decoder) decodeParser(parser *BitMatrixParser) (*Result, error) {
	version, err := parser.ReadVersion()
	if err != nil {
		return nil, err
	}
	formatInfo, err := parser.ReadFormatInformation()
	if err != nil {
		return nil, err
	}
	ecLevel := formatInfo.ECLevel

	codewords, err := parser.ReadCodewords()
	if err != nil {
		return nil, err
	}

	dataBlocks := GetDataBlocks(codewords, version, ecLevel)

	totalBytes := 0
	for _, db := range dataBlocks {
		totalBytes += db.NumDataCodewords
	}
	resultBytes := make([]byte, totalBytes)
	resultOffset := 0

	errorsCorrected := 0
	errorBitsCorrected := 0
	for _, db := range dataBlocks {
		corrected, bitsCorrected, err := d.correctErrors(db.Codewords, db.NumDataCodewords)
		if err != nil {
			return nil, err
		}
		errorsCorrected += corrected
		errorBitsCorrected += bitsCorrected
		copy(resultBytes[resultOffset:], db.Codewords[:db.NumDataCodewords])
		resultOffset += db.NumDataCodewords
	}

	result, err := DecodeBitStream(resultBytes, version, d.StrictMode)
	if result == nil {
		return nil, err
	}
	result.ECLevel = ecLevel
	result.ErrorsCorrected = errorsCorrected
	result.ErrorBitsCorrected = errorBitsCorrected
	return result, err
}

// correctErrors runs Reed-Solomon correction over a single block in place,
// returning the number of codewords changed and the total number of bits
// flipped across those codewords.
func (d *Decoder) correctErrors(codewordBytes []byte, numDataCodewords int) (int, int, error) {
	numCodewords := len(codewordBytes)
	original := make([]byte, numCodewords)
	copy(original, codewordBytes)

	codewordsInts := make([]int, numCodewords)
	for i := 0; i < numCodewords; i++ {
		codewordsInts[i] = int(codewordBytes[i]) & 0xFF
	}
	corrected, err := d.rsDecoder.Decode(codewordsInts, numCodewords-numDataCodewords)
	if err != nil {
		return 0, 0, ErrChecksum
	}

	bitsCorrected := 0
	for i := 0; i < numCodewords; i++ {
		codewordBytes[i] = byte(codewordsInts[i])
		bitsCorrected += bits.OnesCount8(original[i] ^ codewordBytes[i])
	}
	return corrected, bitsCorrected, nil
}
