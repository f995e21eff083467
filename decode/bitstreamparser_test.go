package decode

import (
	"errors"
	"testing"
)

func TestDecodeBitStreamUnsupportedMode(t *testing.T) {
	version, err := GetVersionForNumber(1)
	if err != nil {
		t.Fatalf("GetVersionForNumber: %v", err)
	}

	tests := []struct {
		name string
		mode int
	}{
		{"Kanji", 0x8},
		{"ECI", 0x7},
		{"StructuredAppend", 0x3},
		{"FNC1First", 0x5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := []byte{byte(tt.mode << 4)}
			_, err := DecodeBitStream(data, version, false)
			if !errors.Is(err, ErrUnsupportedMode) {
				t.Fatalf("got %v, want ErrUnsupportedMode", err)
			}
		})
	}
}

// unsupportedModeAfterAlphanumeric is version 1's 4-bit Alphanumeric mode
// indicator, a 9-bit count of 2, the 11-bit packed pair "AB", and a
// trailing Kanji mode indicator (unsupported), packed MSB-first.
var unsupportedModeAfterAlphanumeric = []byte{0x20, 0x11, 0xCD, 0x80}

func TestDecodeBitStreamUnsupportedModeReturnsPrefix(t *testing.T) {
	version, err := GetVersionForNumber(1)
	if err != nil {
		t.Fatalf("GetVersionForNumber: %v", err)
	}

	result, err := DecodeBitStream(unsupportedModeAfterAlphanumeric, version, false)
	if !errors.Is(err, ErrUnsupportedMode) {
		t.Fatalf("got %v, want ErrUnsupportedMode", err)
	}
	if result == nil {
		t.Fatal("expected a non-nil partial Result in non-strict mode")
	}
	if result.Text != "AB" {
		t.Errorf("got prefix %q, want %q", result.Text, "AB")
	}
}

func TestDecodeBitStreamStrictModeDropsPrefix(t *testing.T) {
	version, err := GetVersionForNumber(1)
	if err != nil {
		t.Fatalf("GetVersionForNumber: %v", err)
	}

	result, err := DecodeBitStream(unsupportedModeAfterAlphanumeric, version, true)
	if !errors.Is(err, ErrUnsupportedMode) {
		t.Fatalf("got %v, want ErrUnsupportedMode", err)
	}
	if result != nil {
		t.Errorf("expected a nil Result in strict mode, got %+v", result)
	}
}

func TestDecodeBitStreamTerminatorStopsCleanly(t *testing.T) {
	version, err := GetVersionForNumber(1)
	if err != nil {
		t.Fatalf("GetVersionForNumber: %v", err)
	}
	data := []byte{0x00, 0x00}
	result, err := DecodeBitStream(data, version, false)
	if err != nil {
		t.Fatalf("DecodeBitStream: %v", err)
	}
	if result.Text != "" {
		t.Errorf("expected empty text, got %q", result.Text)
	}
}

func TestDecodeBitStreamNumericTooShort(t *testing.T) {
	version, err := GetVersionForNumber(1)
	if err != nil {
		t.Fatalf("GetVersionForNumber: %v", err)
	}
	// Numeric mode nibble, then a character count claiming more digits
	// than bits remain.
	data := []byte{0x1F, 0xFF}
	_, err = DecodeBitStream(data, version, false)
	if err == nil {
		t.Fatal("expected an error for truncated numeric segment")
	}
}
