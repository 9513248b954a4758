// Package interfaces defines the core types and contracts shared across the
// escrow service.
//
// It holds the participant and message data model, the error taxonomy every
// layer reports through, and the BlobStore contract the storage package
// implements. Keeping these in one dependency-free package lets the protocol
// packages (ledger, sharing, escrow) and the collaborators (repository,
// storage, httpserver) agree on types without importing each other.
//
// Error handling convention: packages wrap the sentinel errors defined here
// with fmt.Errorf("...: %w", ...) and callers branch with errors.Is. The
// HTTP layer maps them onto status codes (ErrValidation to 400, ErrNotFound
// to 404, everything else to 500).
package interfaces
