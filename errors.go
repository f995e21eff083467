package qrscan

import "errors"

// ErrNotFound is returned by Decode and DecodeMulti when no QR symbol could
// be located in the image at all (the image has zero area, or
// Prepare/Detect produced no candidate locations), and by Decode also when
// none of the located candidates could be decoded.
var ErrNotFound = errors.New("qrscan: no QR symbol found")
