// Package files defines the binary file storage boundary. The core only ever
// downloads; uploads and lifecycle management belong to external tooling.
package files

import (
	"context"
	"errors"
)

// ErrFileNotFound reports that no object exists for the user and name.
var ErrFileNotFound = errors.New("file not found")

// Store retrieves user-scoped binary files.
type Store interface {
	// Download returns the contents of the named file belonging to userID.
	Download(ctx context.Context, userID, name string) ([]byte, error)

	Close() error
}
