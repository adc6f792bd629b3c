package device

import "errors"

var (
	// ErrUnknownDevice indicates the id is not in the catalog
	ErrUnknownDevice = errors.New("unknown device")

	// ErrKindMismatch indicates the action variant does not fit the control kind
	ErrKindMismatch = errors.New("action does not match control kind")

	// ErrInvalidCatalog indicates a descriptor set that cannot form a registry
	ErrInvalidCatalog = errors.New("invalid catalog")

	// ErrValidation indicates an action payload failed the type check
	ErrValidation = errors.New("validation error")

	// ErrStreamClosed indicates the provider is shut down and cannot open streams
	ErrStreamClosed = errors.New("stream closed")
)
