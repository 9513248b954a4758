// Package sharing wraps Shamir's Secret Sharing for the escrow protocol.
//
// A message's symmetric key is split into one share per recipient; any
// threshold-sized subset of confirmed shares reconstructs the key, while
// smaller subsets reveal nothing (the scheme is information-theoretic).
// The implementation is hashicorp/vault's shamir package over GF(2^8).
//
// The wrapper adds what the escrow layer needs on top of the raw scheme:
//
//   - the 1 <= t <= n parameter domain, including the degenerate t=1 case
//     the underlying library rejects,
//   - quorum accounting, so recovery with fewer than t distinct shares fails
//     with interfaces.ErrInsufficientShares instead of silently producing
//     garbage,
//   - hex transport encoding for shares crossing the API boundary.
//
// Share authenticity is not verified: a returned share is trusted as
// submitted. Corruption that survives recombination is caught by the payload
// cipher's authentication tag, not here.
package sharing
