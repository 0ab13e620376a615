package graph

import "errors"

var (
	ErrHandlerExists   = errors.New("handler already exists")
	ErrTargetNotFound  = errors.New("target handler does not exist")
	ErrHandlerNotFound = errors.New("handler does not exist")
	ErrInvariant       = errors.New("registry invariant violated")
)
