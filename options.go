package qrscan

// Options tunes the pipeline's stages. The zero value selects sensible
// defaults for all fields.
type Options struct {
	// PrepareBlockSize is the tile size (in pixels) BlockedMean binarization
	// uses. Zero selects the default (8).
	PrepareBlockSize int
	// PrepareBlockWindow is the odd neighborhood size (in blocks) averaged
	// when thresholding a tile. Zero selects the default (5).
	PrepareBlockWindow int

	// DetectRatioTolerance is the fractional slack allowed around the ideal
	// finder-pattern run-length ratio. Zero selects the default (0.5).
	DetectRatioTolerance float64
	// DetectTryHarder starts the finder scan at every third row regardless
	// of image size, instead of a row step scaled to the image height,
	// trading speed for the ability to find smaller or fainter symbols.
	DetectTryHarder bool

	// DecodeStrictMode, when true, fails the whole decode as soon as the
	// bitstream hits a mode outside this package's scope (Kanji, Hanzi,
	// Structured Append, ECI, FNC1). When false (the default), the
	// already-decoded prefix is returned in QRInfo.Text alongside an
	// ErrUnsupportedMode-wrapping error.
	DecodeStrictMode bool

	// PureBarcode indicates the image is a single symbol filling the frame
	// with no quiet-zone margin or surrounding scene, letting the pipeline
	// skip finder-pattern search and sample the grid directly from the
	// image's bounding box. Detect is not run in this mode.
	PureBarcode bool

	// DebugOutputDir, if set, is where intermediate per-stage artifacts
	// would be written. The current implementation does not write any;
	// this field is reserved for future diagnostic tooling.
	DebugOutputDir string
}

func (o Options) prepareBlockSize() int {
	if o.PrepareBlockSize <= 0 {
		return 8
	}
	return o.PrepareBlockSize
}

func (o Options) prepareBlockWindow() int {
	if o.PrepareBlockWindow <= 0 {
		return 5
	}
	return o.PrepareBlockWindow
}
