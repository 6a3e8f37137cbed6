package store

import "errors"

// Sentinel errors returned by the store. Handlers map them onto HTTP status
// codes at the boundary: validation failures to 400, missing entities to 404,
// anything else to 500.
var (
	ErrNotFound       = errors.New("entity not found")
	ErrInvalidID      = errors.New("invalid identifier")
	ErrDuplicateTitle = errors.New("a post with this title already exists")
	ErrDuplicateUser  = errors.New("username or email already taken")
	ErrEmptyPatch     = errors.New("no valid fields to update")
)
