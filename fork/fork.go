// Package fork detects competing observations of the same chain position
// and deterministically picks the winning branch.
//
// Resolution is a pure, symmetric, total-order tie-break: given the same
// pair, every node names the same winner for the same reason, without a
// central arbiter. Applying the result (discarding the losing branch) is
// the caller's responsibility.
package fork

import (
	"errors"
	"fmt"
	"time"

	"xdao.co/corridor/canonical"
)

const (
	// MaxClockSkew is the timestamp difference under which two branches are
	// treated as effectively simultaneous. Beyond it, the earlier branch is
	// presumed to be the one that propagated first in a well-behaved
	// network and wins outright.
	MaxClockSkew = 5 * time.Minute

	// MaxFutureDrift bounds how far ahead of the local clock a branch
	// timestamp may claim to be at registration time.
	MaxFutureDrift = 2 * time.Minute
)

var (
	ErrNotAFork        = errors.New("fork: branches carry the same receipt digest")
	ErrBadBranch       = errors.New("fork: malformed branch")
	ErrFutureTimestamp = errors.New("fork: branch timestamp exceeds future-drift bound")
)

// Branch is one observed head for a contested chain position.
type Branch struct {
	ReceiptDigest   string
	Timestamp       time.Time
	Attestations    uint32
	ClaimedNextRoot string
}

func (b Branch) validate() error {
	if err := canonical.ValidateHex(b.ReceiptDigest); err != nil {
		return fmt.Errorf("%w: receipt digest: %v", ErrBadBranch, err)
	}
	if b.Timestamp.IsZero() {
		return fmt.Errorf("%w: zero timestamp", ErrBadBranch)
	}
	return nil
}

// Reason records which rule of the tie-break decided a resolution.
type Reason string

const (
	ReasonEarlierTimestamp Reason = "earlier-timestamp"
	ReasonAttestations     Reason = "attestation-count"
	ReasonDigestOrder      Reason = "digest-order"
)

// Resolution names the winning and losing branch digests and the rule that
// decided between them. It is computed, never stored here.
type Resolution struct {
	Winner string
	Loser  string
	Reason Reason
}

// IsFork reports whether two observations disagree on which receipt
// occurred. Identical digests are the same branch regardless of timestamp,
// attestations, or claimed root.
func IsFork(a, b Branch) bool {
	return a.ReceiptDigest != b.ReceiptDigest
}

// Resolve picks the canonical branch, applying in strict order:
//
//  1. if the absolute timestamp difference exceeds MaxClockSkew, the
//     earlier branch wins outright, regardless of attestation count;
//  2. otherwise the higher attestation count wins;
//  3. otherwise the lexicographically smaller receipt digest wins.
//
// Resolve is symmetric: Resolve(a, b) and Resolve(b, a) agree on winner
// and reason. It is a pure computation with no side effects.
func Resolve(a, b Branch) (Resolution, error) {
	if err := a.validate(); err != nil {
		return Resolution{}, err
	}
	if err := b.validate(); err != nil {
		return Resolution{}, err
	}
	if !IsFork(a, b) {
		return Resolution{}, ErrNotAFork
	}

	delta := a.Timestamp.Sub(b.Timestamp)
	if delta < 0 {
		delta = -delta
	}
	if delta > MaxClockSkew {
		if a.Timestamp.Before(b.Timestamp) {
			return resolution(a, b, ReasonEarlierTimestamp), nil
		}
		return resolution(b, a, ReasonEarlierTimestamp), nil
	}

	if a.Attestations != b.Attestations {
		if a.Attestations > b.Attestations {
			return resolution(a, b, ReasonAttestations), nil
		}
		return resolution(b, a, ReasonAttestations), nil
	}

	if a.ReceiptDigest < b.ReceiptDigest {
		return resolution(a, b, ReasonDigestOrder), nil
	}
	return resolution(b, a, ReasonDigestOrder), nil
}

func resolution(winner, loser Branch, why Reason) Resolution {
	return Resolution{Winner: winner.ReceiptDigest, Loser: loser.ReceiptDigest, Reason: why}
}
