package ambient

import "errors"

var (
	ErrUnknownDate       = errors.New("no ambient samples for date")
	ErrEmptySeries       = errors.New("ambient series has no samples")
	ErrUnsupportedFormat = errors.New("unsupported ambient file format")
)
