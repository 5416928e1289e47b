package erosion

import "errors"

var ErrNoSteadyState = errors.New("erosion: model has not been brought to steady state")
