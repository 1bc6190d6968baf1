// Package storage provides the shared uploads directory used for imported
// attachments and rendered exports. The System interface is implemented over
// afero so production code writes to the OS filesystem and tests use memory.
package storage

import "errors"

// Storage errors returned by System implementations.
var (
	// ErrNotFound indicates the requested key does not exist in storage.
	ErrNotFound = errors.New("storage: key not found")

	// ErrPermissionDenied indicates insufficient permissions to access the key.
	ErrPermissionDenied = errors.New("storage: permission denied")

	// ErrInvalidKey indicates the key is malformed or contains invalid characters.
	// This includes empty keys and path traversal attempts.
	ErrInvalidKey = errors.New("storage: invalid key")

	// ErrExists indicates the key is already taken. Stored files are never overwritten.
	ErrExists = errors.New("storage: key already exists")

	// ErrTooLarge indicates the content exceeded the configured max upload size.
	ErrTooLarge = errors.New("storage: content exceeds max upload size")
)
