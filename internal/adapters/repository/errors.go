package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNoSnapshot = errors.New("no snapshot fetched yet")
)
