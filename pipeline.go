package qrscan

import (
	"sort"
	"sync"

	"github.com/quietqr/qrscan/bitutil"
	"github.com/quietqr/qrscan/decode"
	"github.com/quietqr/qrscan/detect"
	"github.com/quietqr/qrscan/extract"
	"github.com/quietqr/qrscan/prepare"
)

// Preparer binarizes a LuminanceSource into a BitMatrix where a set bit
// means "dark module".
type Preparer interface {
	Prepare(src prepare.LuminanceSource) (*bitutil.BitMatrix, error)
}

// Locator finds candidate finder-pattern triangles in a binarized image.
type Locator interface {
	Detect(img *bitutil.BitMatrix, opts detect.Options) ([]detect.Location, error)
	DetectMulti(img *bitutil.BitMatrix, opts detect.Options) ([]detect.Location, error)
}

// Result is one located candidate's decode outcome, as returned by
// DecodeMulti: one per detected finder-pattern triangle, regardless of
// whether that triangle's Extract/Decode chain succeeded. Exactly one of
// two shapes holds:
//   - Err is nil: Info is the fully decoded symbol.
//   - Err is non-nil: the chain failed at Extract or Decode. Info is nil,
//     except when Err is decode.ErrUnsupportedMode (non-strict mode), in
//     which case Info carries the prefix decoded before the unsupported
//     mode indicator was hit.
type Result struct {
	Location detect.Location
	Info     *QRInfo
	Err      error
}

// Pipeline wires together the four QR decoding stages: a Preparer to
// binarize the image, a Locator to find finder-pattern triangles, an
// Extractor to rectify and sample each one into a module grid, and a
// Decoder to interpret the sampled bits.
type Pipeline struct {
	Preparer  Preparer
	Locator   Locator
	Extractor extract.Extractor
	Decoder   *decode.Decoder
}

// NewPipeline builds a Pipeline from the package's default stage
// implementations: BlockedMean, LineScanDetector, DefaultExtractor, and
// decode.Decoder.
func NewPipeline() *Pipeline {
	return &Pipeline{
		Preparer:  &prepare.BlockedMean{},
		Locator:   detect.LineScanDetector{},
		Extractor: extract.DefaultExtractor{},
		Decoder:   decode.NewDecoder(),
	}
}

// Decode locates and decodes the first QR symbol found in src.
func (p *Pipeline) Decode(src LuminanceSource, opts Options) (*QRInfo, error) {
	bm, err := p.prepare(src, opts)
	if err != nil {
		return nil, err
	}

	if opts.PureBarcode {
		sampled, err := extractPureBits(bm)
		if err != nil {
			return nil, err
		}
		return p.decodeSampled(sampled, detect.Location{}, opts)
	}

	locations, err := p.Locator.Detect(bm, detectOptions(opts))
	if err != nil {
		if err == detect.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(locations) == 0 {
		return nil, ErrNotFound
	}

	var partial *QRInfo
	for _, loc := range locations {
		info, err := p.decodeLocation(bm, loc, opts)
		if err == nil {
			return info, nil
		}
		if err == decode.ErrUnsupportedMode && info != nil && partial == nil {
			partial = info
		}
	}
	if partial != nil {
		return partial, decode.ErrUnsupportedMode
	}
	return nil, ErrNotFound
}

// DecodeMulti locates every QR symbol found in src and decodes each
// candidate location concurrently, returning one Result per location —
// including locations whose Extract/Decode chain failed, so a caller can
// tell "found but uncorrectable" apart from "never detected". Results are
// sorted deterministically by the top-left corner of their Location
// (first by Y, then by X), irrespective of completion order.
func (p *Pipeline) DecodeMulti(src LuminanceSource, opts Options) ([]Result, error) {
	bm, err := p.prepare(src, opts)
	if err != nil {
		return nil, err
	}

	if opts.PureBarcode {
		info, err := p.Decode(src, opts)
		if err != nil {
			return nil, err
		}
		return []Result{{Location: info.Location, Info: info}}, nil
	}

	locations, err := p.Locator.DetectMulti(bm, detectOptions(opts))
	if err != nil {
		if err == detect.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(locations) == 0 {
		return nil, ErrNotFound
	}

	results := make([]Result, len(locations))
	var wg sync.WaitGroup
	for i, loc := range locations {
		wg.Add(1)
		go func(i int, loc detect.Location) {
			defer wg.Done()
			info, err := p.decodeLocation(bm, loc, opts)
			results[i] = Result{Location: loc, Info: info, Err: err}
		}(i, loc)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i].Location.TopLeft, results[j].Location.TopLeft
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	return results, nil
}

func (p *Pipeline) prepare(src LuminanceSource, opts Options) (*bitutil.BitMatrix, error) {
	if p.Decoder != nil {
		p.Decoder.StrictMode = opts.DecodeStrictMode
	}
	if src.Width() <= 0 || src.Height() <= 0 {
		return nil, ErrNotFound
	}
	preparer := p.Preparer
	if preparer == nil {
		preparer = &prepare.BlockedMean{}
	}
	if bm, ok := preparer.(*prepare.BlockedMean); ok {
		bm.BlockSize = opts.prepareBlockSize()
		bm.BlockWindow = opts.prepareBlockWindow()
	}
	bm, err := preparer.Prepare(src)
	if err != nil {
		if err == prepare.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return bm, nil
}

func (p *Pipeline) decodeLocation(bm *bitutil.BitMatrix, loc detect.Location, opts Options) (*QRInfo, error) {
	sampled, _, err := p.Extractor.Extract(bm, loc)
	if err != nil {
		return nil, err
	}
	return p.decodeSampled(sampled, loc, opts)
}

func (p *Pipeline) decodeSampled(sampled *bitutil.BitMatrix, loc detect.Location, opts Options) (*QRInfo, error) {
	decoder := p.Decoder
	if decoder == nil {
		decoder = decode.NewDecoder()
	}

	result, err := decoder.Decode(sampled)
	if result == nil {
		return nil, err
	}

	version := 0
	if dim := sampled.Width(); dim > 0 {
		if v, verr := decode.GetProvisionalVersionForDimension(dim); verr == nil {
			version = v.Number
		}
	}

	info := &QRInfo{
		Text:               result.Text,
		RawBytes:           result.RawBytes,
		ByteSegments:       result.ByteSegments,
		ECLevel:            result.ECLevel,
		Version:            version,
		ErrorsCorrected:    result.ErrorsCorrected,
		ErrorBitsCorrected: result.ErrorBitsCorrected,
		TotalDataBits:      result.TotalDataBits,
		Location:           loc,
	}
	return info, err
}

func detectOptions(opts Options) detect.Options {
	return detect.Options{
		RatioTolerance: opts.DetectRatioTolerance,
		TryHarder:      opts.DetectTryHarder,
	}
}
