// Package model defines stable boundary types for persistence and API
// layers.
//
// Protocol identity (canonical bytes, content digests, MMR roots) is
// unaffected by any projection. These structs are the only types intended
// for direct JSON serialization by consumers; the core's own types
// round-trip through them losslessly.
package model

import "xdao.co/corridor/attest"

// ReceiptRecord is the serializable projection of a chain receipt.
// Timestamps are rendered in the canonical form (UTC, whole seconds,
// literal Z).
type ReceiptRecord struct {
	ReceiptType    string   `json:"receiptType"`
	Corridor       string   `json:"corridor"`
	Sequence       uint64   `json:"sequence"`
	Timestamp      string   `json:"timestamp"`
	PrevRoot       string   `json:"prevRoot"`
	NextRoot       string   `json:"nextRoot"`
	LawpackDigests []string `json:"lawpackDigests,omitempty"`
	RulesetDigests []string `json:"rulesetDigests,omitempty"`
}

// CheckpointRecord is the serializable projection of a checkpoint.
type CheckpointRecord struct {
	Height  uint64 `json:"height"`
	MMRRoot string `json:"mmrRoot"`
	Digest  string `json:"digest"`
}

// ChainSnapshot carries everything an external store needs to persist and
// reload one corridor's chain.
type ChainSnapshot struct {
	Corridor    string             `json:"corridor"`
	GenesisRoot string             `json:"genesisRoot"`
	FinalRoot   string             `json:"finalRoot"`
	Receipts    []ReceiptRecord    `json:"receipts"`
	Leaves      []string           `json:"leaves"`
	Checkpoints []CheckpointRecord `json:"checkpoints,omitempty"`
}

// ForkBranchRecord is the serializable projection of one observed branch
// head.
type ForkBranchRecord struct {
	ReceiptDigest   string `json:"receiptDigest"`
	Timestamp       string `json:"timestamp"`
	Attestations    uint32 `json:"attestations"`
	ClaimedNextRoot string `json:"claimedNextRoot,omitempty"`

	// WatcherAttestations, when present, are the signed vouches backing
	// the count. ToBranch then derives Attestations by verifying each one
	// instead of trusting the bare integer.
	WatcherAttestations []attest.Attestation `json:"watcherAttestations,omitempty"`
}

// ForkResolutionRecord reports a resolved fork.
type ForkResolutionRecord struct {
	Winner string `json:"winner"`
	Loser  string `json:"loser"`
	Reason string `json:"reason"`
}

// AnchorCommitment asks an anchor target to commit a checkpoint digest to
// an external ledger.
type AnchorCommitment struct {
	CheckpointDigest string `json:"checkpointDigest"`
	ChainID          string `json:"chainID,omitempty"`
	Height           uint64 `json:"height"`
}

// AnchorReceipt reports the external ledger's acknowledgment.
type AnchorReceipt struct {
	ChainID     string `json:"chainID"`
	TxID        string `json:"txID"`
	BlockNumber uint64 `json:"blockNumber"`
	Status      string `json:"status"`
}
