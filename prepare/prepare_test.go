package prepare

import "testing"

// testImage is a minimal LuminanceSource backed by a plain byte slice, for
// tests that don't need the full qrscan.GrayImage type (and so don't need
// to import the root package, avoiding an import cycle).
type testImage struct {
	pix           []byte
	width, height int
}

func (t *testImage) Row(y int, row []byte) []byte {
	if row == nil || len(row) < t.width {
		row = make([]byte, t.width)
	}
	copy(row, t.pix[y*t.width:(y+1)*t.width])
	return row
}

func (t *testImage) Matrix() []byte { return t.pix }
func (t *testImage) Width() int     { return t.width }
func (t *testImage) Height() int    { return t.height }

// halfBlackHalfWhite builds a w x h image split vertically: left half at
// darkValue, right half at lightValue.
func halfBlackHalfWhite(w, h int, darkValue, lightValue byte) *testImage {
	pix := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				pix[y*w+x] = darkValue
			} else {
				pix[y*w+x] = lightValue
			}
		}
	}
	return &testImage{pix: pix, width: w, height: h}
}

func TestBlockedMeanSplitsHalves(t *testing.T) {
	img := halfBlackHalfWhite(80, 80, 20, 235)
	b := &BlockedMean{}
	bm, err := b.Prepare(img)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if !bm.Get(5, 40) {
		t.Error("dark half should be set (dark module)")
	}
	if bm.Get(75, 40) {
		t.Error("light half should be unset (light module)")
	}
}

func TestBlockedMeanFallsBackToGlobalHistogramForSmallImages(t *testing.T) {
	img := halfBlackHalfWhite(10, 10, 20, 235)
	b := &BlockedMean{}
	bm, err := b.Prepare(img)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if bm.Width() != 10 || bm.Height() != 10 {
		t.Errorf("got %dx%d, want 10x10", bm.Width(), bm.Height())
	}
}

func TestBlockedMeanDegenerateBlockUsesGlobalMean(t *testing.T) {
	// A flat mid-gray region (dynamic range below the threshold) should
	// resolve via the image's global mean rather than go unset/unlit.
	w, h := 80, 80
	pix := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			switch {
			case x < w/3:
				pix[y*w+x] = 10 // solid dark region, establishes a low global mean contributor
			case x < 2*w/3:
				pix[y*w+x] = 128 // flat, low dynamic range region
			default:
				pix[y*w+x] = 245 // solid light region
			}
		}
	}
	img := &testImage{pix: pix, width: w, height: h}
	b := &BlockedMean{}
	bm, err := b.Prepare(img)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	// Pixel (36, 40) lies in a flat 128 block; against the global mean
	// substituted for the flat blocks around it, it is set.
	if !bm.Get(36, 40) {
		t.Error("flat mid-gray block should be set against the global mean")
	}
}

func TestGlobalHistogramSplitsHalves(t *testing.T) {
	img := halfBlackHalfWhite(40, 40, 20, 235)
	g := &GlobalHistogram{}
	bm, err := g.Prepare(img)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if !bm.Get(5, 20) {
		t.Error("dark half should be set")
	}
	if bm.Get(35, 20) {
		t.Error("light half should be unset")
	}
}
