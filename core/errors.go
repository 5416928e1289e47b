package core

import "errors"

var (
	ErrDimensionMismatch = errors.New("core: raster dimensions do not match")
	ErrMalformedHeader   = errors.New("core: malformed ascii grid header")
	ErrShortData         = errors.New("core: ascii grid has fewer values than its header declares")
	ErrNoData            = errors.New("core: raster holds no valid cells")
)
