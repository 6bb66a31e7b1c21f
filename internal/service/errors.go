package service

import "errors"

var (
	// ErrStaleCartVersion means the cart changed while a recomputation was in
	// flight. The result was discarded; the caller may retry.
	ErrStaleCartVersion = errors.New("cart changed during checkout recomputation")

	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrLineNotFound    = errors.New("cart line not found")
	ErrProductNotFound = errors.New("product not found")
)
