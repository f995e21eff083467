package detect

import (
	"testing"

	"github.com/quietqr/qrscan/bitutil"
	"github.com/quietqr/qrscan/decode"
	"github.com/quietqr/qrscan/internal/qrfixture"
)

// embedWithQuietZone places sym into a larger BitMatrix with a quietModules
// wide unset (light) margin, as a captured image would have around a real
// printed symbol.
func embedWithQuietZone(sym *bitutil.BitMatrix, quietModules int) *bitutil.BitMatrix {
	dim := sym.Width()
	total := dim + 2*quietModules
	out := bitutil.NewBitMatrixWithSize(total, total)
	for y := 0; y < dim; y++ {
		for x := 0; x < dim; x++ {
			if sym.Get(x, y) {
				out.Set(x+quietModules, y+quietModules)
			}
		}
	}
	return out
}

func TestLineScanDetectorFindsSymbol(t *testing.T) {
	symbol, err := qrfixture.Encode("detect test", decode.ECLevelM, 0, -1)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	img := embedWithQuietZone(symbol.ToBitMatrix(), 4)

	locations, err := LineScanDetector{}.Detect(img, Options{})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(locations) == 0 {
		t.Fatal("expected at least one location")
	}

	loc := locations[0]
	wantTopLeft := Point{X: 3.5 + 4, Y: 3.5 + 4}
	if diff := loc.TopLeft.X - wantTopLeft.X; diff > 1.0 || diff < -1.0 {
		t.Errorf("TopLeft.X = %v, want near %v", loc.TopLeft.X, wantTopLeft.X)
	}
	if diff := loc.TopLeft.Y - wantTopLeft.Y; diff > 1.0 || diff < -1.0 {
		t.Errorf("TopLeft.Y = %v, want near %v", loc.TopLeft.Y, wantTopLeft.Y)
	}
}

func TestLineScanDetectorNoSymbol(t *testing.T) {
	blank := bitutil.NewBitMatrixWithSize(100, 100)
	locations, err := LineScanDetector{}.Detect(blank, Options{})
	if err != nil {
		t.Fatalf("got error %v, want nil", err)
	}
	if len(locations) != 0 {
		t.Fatalf("got %d locations, want 0", len(locations))
	}
}

func TestDetectMultiFindsBothSymbols(t *testing.T) {
	symA, err := qrfixture.Encode("SYMBOL A", decode.ECLevelM, 0, -1)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	symB, err := qrfixture.Encode("SYMBOL B", decode.ECLevelM, 0, -1)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	imgA := embedWithQuietZone(symA.ToBitMatrix(), 4)
	imgB := embedWithQuietZone(symB.ToBitMatrix(), 4)

	gap := 10
	width := imgA.Width() + gap + imgB.Width()
	height := imgA.Height()
	combined := bitutil.NewBitMatrixWithSize(width, height)
	for y := 0; y < imgA.Height(); y++ {
		for x := 0; x < imgA.Width(); x++ {
			if imgA.Get(x, y) {
				combined.Set(x, y)
			}
		}
	}
	offsetX := imgA.Width() + gap
	for y := 0; y < imgB.Height(); y++ {
		for x := 0; x < imgB.Width(); x++ {
			if imgB.Get(x, y) {
				combined.Set(x+offsetX, y)
			}
		}
	}

	locations, err := LineScanDetector{}.DetectMulti(combined, Options{})
	if err != nil {
		t.Fatalf("DetectMulti failed: %v", err)
	}
	if len(locations) != 2 {
		t.Fatalf("got %d locations, want 2", len(locations))
	}
}
