package hillslope

import "errors"

var ErrBadParameter = errors.New("hillslope: invalid parameter")
