package config

import "errors"

// ErrInvalidConfig marks a configuration that loaded but failed Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrLoadConfig marks a failure to read or parse a configuration source.
var ErrLoadConfig = errors.New("cannot load configuration")
