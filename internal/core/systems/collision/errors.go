package collision

import "errors"

var (
	ErrAlreadyRegistered = errors.New("collider already registered")
	ErrNilCollider       = errors.New("nil collider")
)
