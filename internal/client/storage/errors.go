package storage

import "errors"

// Common client storage errors
var (
	// ErrSessionNotFound indicates that no session has been saved yet
	ErrSessionNotFound = errors.New("session not found")
)
