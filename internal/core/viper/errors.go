package viper

import "errors"

var (
	ErrInvalidConfig = errors.New("invalid viper configuration")
	ErrInvalidStep   = errors.New("tick step must be positive")
)
