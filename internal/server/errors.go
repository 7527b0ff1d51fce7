package server

import "errors"

var (
	ErrServerClosed      = errors.New("server is closed")
	ErrAlreadyRunning    = errors.New("server is already running")
	ErrMaxClientsReached = errors.New("maximum spectators reached")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidConfig     = errors.New("invalid server configuration")
)
