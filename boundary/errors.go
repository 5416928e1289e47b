package boundary

import "errors"

var (
	ErrMalformedCode       = errors.New("boundary: malformed boundary code")
	ErrUnsupportedBoundary = errors.New("boundary: unsupported boundary combination")
)
