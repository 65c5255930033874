package invigilate

import "errors"

var (
	// ErrInvalidUnit is returned when a unit cannot be registered.
	ErrInvalidUnit = errors.New("invalid unit")
	// ErrUnknownMethod is returned by Proxy.Call for a method the registry
	// does not recognize.
	ErrUnknownMethod = errors.New("unknown logger method")
)
