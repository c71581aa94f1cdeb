package database

import "kml-eagle/internal/errors"

// ErrNotFound is returned when a requested route does not exist.
var ErrNotFound = errors.New("route not found")
