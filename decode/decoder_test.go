package decode_test

import (
	"testing"

	"github.com/quietqr/qrscan/decode"
	"github.com/quietqr/qrscan/internal/qrfixture"
)

func TestRoundTripNumeric(t *testing.T) {
	testRoundTrip(t, "1234567890", decode.ECLevelM)
}

func TestRoundTripAlphanumeric(t *testing.T) {
	testRoundTrip(t, "HELLO WORLD", decode.ECLevelL)
}

func TestRoundTripByte(t *testing.T) {
	testRoundTrip(t, "Hello, World! This is a test.", decode.ECLevelQ)
}

func TestRoundTripHighEC(t *testing.T) {
	testRoundTrip(t, "TEST123", decode.ECLevelH)
}

func TestRoundTripAllECLevels(t *testing.T) {
	content := "Testing all EC levels"
	levels := []decode.ErrorCorrectionLevel{
		decode.ECLevelL, decode.ECLevelM, decode.ECLevelQ, decode.ECLevelH,
	}
	for _, ecLevel := range levels {
		t.Run(ecLevel.String(), func(t *testing.T) {
			testRoundTrip(t, content, ecLevel)
		})
	}
}

func TestDecodeCorrectsByteErrors(t *testing.T) {
	symbol, err := qrfixture.Encode("resilient payload", decode.ECLevelH, 0, -1)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	bits := symbol.ToBitMatrix()

	// Flip one module inside the data region; with ECLevelH there is
	// enough redundancy to correct it.
	bits.Flip(9, 9)

	dec := decode.NewDecoder()
	result, err := dec.Decode(bits)
	if err != nil {
		t.Fatalf("Decode failed after single flipped module: %v", err)
	}
	if result.Text != "resilient payload" {
		t.Errorf("got %q, want %q", result.Text, "resilient payload")
	}
	if result.ErrorsCorrected == 0 && result.ErrorBitsCorrected == 0 {
		t.Error("expected a nonzero correction count after flipping a module")
	}
}

func TestDecodeByteModeLatin1Fallback(t *testing.T) {
	content := string([]byte{0xE9, 0xE8, 0xE7}) // "éèç" in ISO-8859-1
	symbol, err := qrfixture.Encode(content, decode.ECLevelM, 0, -1)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	dec := decode.NewDecoder()
	result, err := dec.Decode(symbol.ToBitMatrix())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if result.Text != "éèç" {
		t.Errorf("got %q, want %q", result.Text, "éèç")
	}
}

func TestRoundTripVersion7Numeric(t *testing.T) {
	digits := ""
	for i := 0; i < 100; i++ {
		digits += string(rune('0' + i%10))
	}
	symbol, err := qrfixture.Encode(digits, decode.ECLevelM, 7, -1)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	dec := decode.NewDecoder()
	result, err := dec.Decode(symbol.ToBitMatrix())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if result.Text != digits {
		t.Errorf("round-trip mismatch: got %q, want %q", result.Text, digits)
	}
	if result.ErrorsCorrected != 0 {
		t.Errorf("expected no corrections on a clean symbol, got %d", result.ErrorsCorrected)
	}
}

func TestDecodeCorrectionFailsBeyondCapacity(t *testing.T) {
	symbol, err := qrfixture.Encode("over budget", decode.ECLevelL, 3, -1)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	bits := symbol.ToBitMatrix()

	// ECLevelL on version 3 corrects at most 7 byte errors in its single
	// RS block. Flipping a solid block of modules well clear of the
	// finders, timing lines, format-info bits, and the bottom-right
	// alignment pattern corrupts far more data codewords than that.
	for y := 10; y <= 18; y++ {
		for x := 10; x <= 18; x++ {
			bits.Flip(x, y)
		}
	}

	dec := decode.NewDecoder()
	if _, err := dec.Decode(bits); err != decode.ErrChecksum {
		t.Fatalf("got %v, want ErrChecksum", err)
	}
}

func TestDecodeTotalDataBits(t *testing.T) {
	symbol, err := qrfixture.Encode("AB1", decode.ECLevelL, 0, -1)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	dec := decode.NewDecoder()
	result, err := dec.Decode(symbol.ToBitMatrix())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if result.TotalDataBits <= 0 {
		t.Errorf("expected a positive TotalDataBits, got %d", result.TotalDataBits)
	}
}

func testRoundTrip(t *testing.T, content string, ecLevel decode.ErrorCorrectionLevel) {
	t.Helper()

	symbol, err := qrfixture.Encode(content, ecLevel, 0, -1)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if symbol.Matrix == nil {
		t.Fatal("encoded matrix is nil")
	}

	bits := symbol.ToBitMatrix()

	dec := decode.NewDecoder()
	result, err := dec.Decode(bits)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if result.Text != content {
		t.Errorf("round-trip mismatch: got %q, want %q", result.Text, content)
	}
	if result.ECLevel != ecLevel {
		t.Errorf("ECLevel mismatch: got %v, want %v", result.ECLevel, ecLevel)
	}
}
