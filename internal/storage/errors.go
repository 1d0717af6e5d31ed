package storage

import "errors"

// Storage errors.
var (
	ErrUnknownLocation = errors.New("unknown location")
	ErrLocationExists  = errors.New("location already exists")
	ErrTileOutOfRange  = errors.New("tile index out of range")
	ErrTileSize        = errors.New("tile size mismatch")
	ErrReadOnly        = errors.New("location is read-only")
	ErrClosed          = errors.New("store is closed")
)
