package sharing

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/hashicorp/vault/shamir"

	"github.com/thresholdshare/escrow-backend/interfaces"
)

// Split divides secret into total shares such that any threshold of them
// suffice to recover it. Fewer than threshold shares reveal nothing about the
// secret. Requires 1 <= threshold <= total.
//
// The underlying Shamir implementation needs threshold >= 2, so a threshold
// of one degenerates to handing every recipient a copy of the secret itself.
func Split(secret []byte, threshold, total int) ([][]byte, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: secret must not be empty", interfaces.ErrValidation)
	}
	if threshold < 1 || threshold > total {
		return nil, fmt.Errorf("%w: threshold %d must be between 1 and %d", interfaces.ErrValidation, threshold, total)
	}

	if threshold == 1 {
		shares := make([][]byte, total)
		for i := range shares {
			shares[i] = append([]byte(nil), secret...)
		}
		return shares, nil
	}

	shares, err := shamir.Split(secret, total, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to split secret: %w", err)
	}
	return shares, nil
}

// Recover reconstructs a secret from shares produced by a single Split call.
// threshold is the value the secret was split with; supplying fewer than
// threshold distinct shares fails with interfaces.ErrInsufficientShares.
// Malformed or mixed-length shares fail with interfaces.ErrReconstruction.
//
// Shares that are well-formed but corrupted, or drawn from a different split
// of a same-length secret, are indistinguishable from valid ones and yield a
// wrong secret. The payload cipher's authentication tag is what catches that
// downstream.
func Recover(shares [][]byte, threshold int) ([]byte, error) {
	if threshold < 1 {
		return nil, fmt.Errorf("%w: threshold %d must be positive", interfaces.ErrValidation, threshold)
	}

	distinct := dedupe(shares)
	if len(distinct) < threshold {
		return nil, fmt.Errorf("%w: have %d distinct shares, need %d",
			interfaces.ErrInsufficientShares, len(distinct), threshold)
	}

	if threshold == 1 {
		return append([]byte(nil), distinct[0]...), nil
	}

	secret, err := shamir.Combine(distinct)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrReconstruction, err)
	}
	return secret, nil
}

// EncodeShare renders a share for transport. Shares cross the API boundary
// hex-encoded.
func EncodeShare(share []byte) string {
	return hex.EncodeToString(share)
}

// DecodeShare parses a hex-encoded share received over the wire.
func DecodeShare(source string) ([]byte, error) {
	share, err := hex.DecodeString(strings.TrimSpace(source))
	if err != nil {
		return nil, fmt.Errorf("%w: share is not valid hex", interfaces.ErrValidation)
	}
	if len(share) == 0 {
		return nil, fmt.Errorf("%w: share must not be empty", interfaces.ErrValidation)
	}
	return share, nil
}

func dedupe(shares [][]byte) [][]byte {
	seen := make(map[string]struct{}, len(shares))
	distinct := make([][]byte, 0, len(shares))
	for _, share := range shares {
		if len(share) == 0 {
			continue
		}
		if _, dup := seen[string(share)]; dup {
			continue
		}
		seen[string(share)] = struct{}{}
		distinct = append(distinct, share)
	}
	return distinct
}
