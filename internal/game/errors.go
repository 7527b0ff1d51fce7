package game

import "errors"

var (
	ErrNoFreeSpace = errors.New("no free space to spawn")
	ErrNoSteerer   = errors.New("viper needs a steerer")
)
