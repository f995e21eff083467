package qrscan

import (
	"testing"

	"github.com/quietqr/qrscan/bitutil"
	"github.com/quietqr/qrscan/decode"
	"github.com/quietqr/qrscan/internal/qrfixture"
)

// renderWithQuietZone places a sampled module BitMatrix into a larger
// GrayImage at moduleSize pixels per module, surrounded by a quietModules
// wide margin of pure white — the minimum a real capture needs for Prepare
// and Detect to have anything to binarize and scan.
func renderWithQuietZone(bm *bitutil.BitMatrix, moduleSize, quietModules int) *GrayImage {
	dim := bm.Width()
	imgDim := dim*moduleSize + 2*quietModules*moduleSize
	pix := make([]byte, imgDim*imgDim)
	for i := range pix {
		pix[i] = 0xFF
	}
	offset := quietModules * moduleSize
	for y := 0; y < dim; y++ {
		for x := 0; x < dim; x++ {
			if !bm.Get(x, y) {
				continue
			}
			for dy := 0; dy < moduleSize; dy++ {
				for dx := 0; dx < moduleSize; dx++ {
					py := offset + y*moduleSize + dy
					px := offset + x*moduleSize + dx
					pix[py*imgDim+px] = 0
				}
			}
		}
	}
	return NewGrayImage(pix, imgDim, imgDim)
}

func TestPipelineDecode(t *testing.T) {
	symbol, err := qrfixture.Encode("pipeline end to end", decode.ECLevelM, 0, -1)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	img := renderWithQuietZone(symbol.ToBitMatrix(), 4, 4)

	p := NewPipeline()
	info, err := p.Decode(img, Options{})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if info.Text != "pipeline end to end" {
		t.Errorf("got %q, want %q", info.Text, "pipeline end to end")
	}
	if info.Version != symbol.Version.Number {
		t.Errorf("version mismatch: got %d, want %d", info.Version, symbol.Version.Number)
	}
}

func TestPipelineDecodeNotFound(t *testing.T) {
	blank := NewGrayImage(make([]byte, 200*200), 200, 200)
	for i := range blank.Pix {
		blank.Pix[i] = 0xFF
	}

	p := NewPipeline()
	_, err := p.Decode(blank, Options{})
	if err != ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestPipelineDecodeMultiSorted(t *testing.T) {
	symbolA, err := qrfixture.Encode("SYMBOL A", decode.ECLevelM, 0, -1)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	symbolB, err := qrfixture.Encode("SYMBOL B", decode.ECLevelM, 0, -1)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	imgA := renderWithQuietZone(symbolA.ToBitMatrix(), 4, 4)
	imgB := renderWithQuietZone(symbolB.ToBitMatrix(), 4, 4)

	gap := 20
	width := imgA.Width() + gap + imgB.Width()
	height := imgA.Height()
	if imgB.Height() > height {
		height = imgB.Height()
	}
	pix := make([]byte, width*height)
	for i := range pix {
		pix[i] = 0xFF
	}
	combined := NewGrayImage(pix, width, height)
	for y := 0; y < imgA.Height(); y++ {
		copy(combined.Pix[y*width:y*width+imgA.Width()], imgA.Pix[y*imgA.Width():(y+1)*imgA.Width()])
	}
	bOffsetX := imgA.Width() + gap
	for y := 0; y < imgB.Height(); y++ {
		copy(combined.Pix[y*width+bOffsetX:y*width+bOffsetX+imgB.Width()], imgB.Pix[y*imgB.Width():(y+1)*imgB.Width()])
	}

	p := NewPipeline()
	results, err := p.DecodeMulti(combined, Options{})
	if err != nil {
		t.Fatalf("DecodeMulti failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Err != nil || results[1].Err != nil {
		t.Fatalf("unexpected per-location errors: %v, %v", results[0].Err, results[1].Err)
	}
	if results[0].Info.Text != "SYMBOL A" || results[1].Info.Text != "SYMBOL B" {
		t.Errorf("unexpected order/content: %q, %q", results[0].Info.Text, results[1].Info.Text)
	}
	if results[0].Location.TopLeft.X >= results[1].Location.TopLeft.X {
		t.Errorf("results not sorted by ascending X: %v, %v",
			results[0].Location.TopLeft, results[1].Location.TopLeft)
	}
}

func TestPipelineDecodeRotated180(t *testing.T) {
	symbol, err := qrfixture.Encode("upside down", decode.ECLevelM, 0, -1)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	p := NewPipeline()

	baseline, err := p.Decode(renderWithQuietZone(symbol.ToBitMatrix(), 4, 4), Options{})
	if err != nil {
		t.Fatalf("Decode of un-rotated fixture failed: %v", err)
	}

	rotated := symbol.ToBitMatrix()
	rotated.Rotate180()
	got, err := p.Decode(renderWithQuietZone(rotated, 4, 4), Options{})
	if err != nil {
		t.Fatalf("Decode of 180-rotated fixture failed: %v", err)
	}

	if got.Text != baseline.Text {
		t.Errorf("rotated text = %q, want %q", got.Text, baseline.Text)
	}
	if got.Version != baseline.Version {
		t.Errorf("rotated version = %d, want %d", got.Version, baseline.Version)
	}
	if got.ECLevel != baseline.ECLevel {
		t.Errorf("rotated EC level = %v, want %v", got.ECLevel, baseline.ECLevel)
	}
}

func TestPipelinePureBarcode(t *testing.T) {
	symbol, err := qrfixture.Encode("pure barcode", decode.ECLevelM, 0, -1)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	img := renderWithQuietZone(symbol.ToBitMatrix(), 4, 0)

	p := NewPipeline()
	info, err := p.Decode(img, Options{PureBarcode: true})
	if err != nil {
		t.Fatalf("Decode with PureBarcode failed: %v", err)
	}
	if info.Text != "pure barcode" {
		t.Errorf("got %q, want %q", info.Text, "pure barcode")
	}
}
