package linsolve

import "errors"

var (
	ErrDimension = errors.New("linsolve: dimension mismatch")
	ErrBreakdown = errors.New("linsolve: bicgstab breakdown")
)
