package extract

import (
	"testing"

	"github.com/quietqr/qrscan/decode"
	"github.com/quietqr/qrscan/detect"
	"github.com/quietqr/qrscan/internal/qrfixture"
)

// finderCenters returns the three finder-pattern module centers for a
// symbol of the given dimension, at 1:1 scale (no quiet zone, no
// perspective distortion) — exactly where they'd be if Detect had found
// them perfectly.
func finderCenters(dimension int) detect.Location {
	return detect.Location{
		TopLeft:     detect.Point{X: 3.5, Y: 3.5},
		TopRight:    detect.Point{X: float64(dimension) - 3.5, Y: 3.5},
		BottomLeft:  detect.Point{X: 3.5, Y: float64(dimension) - 3.5},
	}
}

func TestExtractRoundTrip(t *testing.T) {
	symbol, err := qrfixture.Encode("EXTRACT TEST", decode.ECLevelM, 0, -1)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	img := symbol.ToBitMatrix()
	dimension := img.Width()

	sampled, version, err := DefaultExtractor{}.Extract(img, finderCenters(dimension))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if version == nil {
		t.Fatal("expected a non-nil version")
	}
	if version.Number != symbol.Version.Number {
		t.Errorf("version mismatch: got %d, want %d", version.Number, symbol.Version.Number)
	}
	if sampled.Width() != dimension || sampled.Height() != dimension {
		t.Errorf("sampled dimension mismatch: got %dx%d, want %dx%d",
			sampled.Width(), sampled.Height(), dimension, dimension)
	}

	dec := decode.NewDecoder()
	result, err := dec.Decode(sampled)
	if err != nil {
		t.Fatalf("Decode of extracted matrix failed: %v", err)
	}
	if result.Text != "EXTRACT TEST" {
		t.Errorf("got %q, want %q", result.Text, "EXTRACT TEST")
	}
}

func TestComputeDimensionSnapsToValid(t *testing.T) {
	// Version-1 symbol: dimension 21, module size 1.
	topLeft := detect.Point{X: 3.5, Y: 3.5}
	topRight := detect.Point{X: 17.5, Y: 3.5}
	bottomLeft := detect.Point{X: 3.5, Y: 17.5}
	dim := computeDimension(topLeft, topRight, bottomLeft, 1.0)
	if dim != 21 {
		t.Errorf("got dimension %d, want 21", dim)
	}
}

func TestMathRound(t *testing.T) {
	cases := []struct {
		in   float64
		want int
	}{
		{2.4, 2},
		{2.5, 3},
		{2.6, 3},
		{-2.5, -3},
	}
	for _, c := range cases {
		if got := mathRound(c.in); got != c.want {
			t.Errorf("mathRound(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}
