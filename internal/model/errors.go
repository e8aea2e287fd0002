package model

import "errors"

// ErrConflict is returned by Insert when the external ID is already stored.
var ErrConflict = errors.New("listing already exists")

// ErrNotFound is returned by Update and lookups when no row matches the ID.
var ErrNotFound = errors.New("listing not found")
