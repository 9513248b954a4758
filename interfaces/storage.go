package interfaces

import (
	"context"
	"errors"
)

var (
	// ErrBlobNotFound is returned when no blob exists for a message ID in the
	// storage backend.
	ErrBlobNotFound = errors.New("blob not found")

	// ErrBackendUnavailable is returned when a storage backend is not accessible.
	// This could be due to network issues, authentication failures, or service
	// outages.
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrInvalidLocationURI is returned when a storage location URI is malformed
	// or unsupported. URIs must follow the format:
	// [scheme]://[auth@]host[:port][/path][?params]
	ErrInvalidLocationURI = errors.New("invalid storage location URI")
)

// BlobStore holds the payload bytes for escrowed messages, keyed by message
// ID. Each blob is written once at send time (ciphertext) and overwritten
// once at successful reconstruction (plaintext). The escrow core treats the
// store as opaque byte-addressable storage.
type BlobStore interface {
	// Fetch retrieves the blob for a message.
	Fetch(ctx context.Context, id MessageID) ([]byte, error)

	// Store writes or overwrites the blob for a message.
	Store(ctx context.Context, id MessageID, data []byte) error

	// Available checks if the backend is accessible.
	Available(ctx context.Context) bool

	// Name returns an identifier for logging.
	Name() string

	// LocationURI returns the URI identifying this backend.
	LocationURI() string
}
