package config

import "errors"

var (
	ErrInvalidConfig = errors.New("config: invalid configuration")
	ErrSyntax        = errors.New("config: malformed parameter line")
)
