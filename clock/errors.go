package clock

import "errors"

var (
	ErrNoStream        = errors.New("clock: forcing stream not available")
	ErrMalformedStream = errors.New("clock: malformed forcing stream")
)
