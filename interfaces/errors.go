package interfaces

import "errors"

var (
	// ErrValidation is returned for malformed input: empty recipient lists,
	// non-positive thresholds, unparsable identifiers. Always raised before
	// any state mutation.
	ErrValidation = errors.New("invalid input")

	// ErrNotFound is returned when a user, message, or ledger entry lookup
	// misses. Surfaced directly to the caller, never retried.
	ErrNotFound = errors.New("not found")

	// ErrIntegrity is returned when ciphertext fails authentication on
	// decrypt, either because it was tampered with or the key is wrong.
	// Fatal for that message's reconstruction attempt; the message stays
	// encrypted.
	ErrIntegrity = errors.New("ciphertext integrity check failed")

	// ErrInsufficientShares is returned when fewer than threshold distinct
	// shares are supplied to recovery. If the coordinator's bookkeeping is
	// correct this never happens; seeing it indicates a defect.
	ErrInsufficientShares = errors.New("not enough shares to reconstruct secret")

	// ErrReconstruction is returned when shares are malformed or mismatched
	// across different split operations. Treated as fatal, never swallowed.
	ErrReconstruction = errors.New("share reconstruction failed")
)
