// Package anchor commits checkpoint digests to external ledgers for
// independent tamper evidence.
//
// Anchoring is optional and decoupled from chain correctness: appends and
// fork resolution never wait on a target, and a failed anchor leaves the
// checkpoint valid and anchorable again later. Commitments are
// fire-and-forget; callers learn the outcome through poll-based status
// checks.
package anchor

import (
	"context"

	"xdao.co/corridor/canonical"
)

// Status is an anchor target's view of a submitted commitment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusFinalized Status = "finalized"
	StatusFailed    Status = "failed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusFinalized, StatusFailed:
		return true
	}
	return false
}

// Commitment asks a target to record a checkpoint digest.
//
// ChainID is optional; a target with a single backing ledger may ignore it.
type Commitment struct {
	CheckpointDigest string
	ChainID          string
	Height           uint64
}

// Validate checks the commitment shape before submission.
func (c Commitment) Validate() error {
	if err := canonical.ValidateHex(c.CheckpointDigest); err != nil {
		return ErrBadCommitment
	}
	return nil
}

// Receipt is a target's acknowledgment of a commitment.
type Receipt struct {
	ChainID     string
	TxID        string
	BlockNumber uint64
	Status      Status
}

// Target is an external ledger capable of recording commitments.
//
// The interface is sealed: only implementations in this package satisfy it.
// Callers use targets polymorphically but cannot add conforming
// implementations from outside, which keeps the commitment/receipt contract
// under one roof.
type Target interface {
	// Anchor submits a commitment. The returned receipt is typically
	// StatusPending; finality is observed via CheckStatus.
	Anchor(ctx context.Context, c Commitment) (Receipt, error)

	// CheckStatus reports the current status of a submitted transaction.
	CheckStatus(ctx context.Context, txID string) (Status, error)

	sealedTarget()
}
