package model

import (
	"fmt"
	"time"

	"xdao.co/corridor/attest"
	"xdao.co/corridor/chain"
	"xdao.co/corridor/fork"
)

// formatTimestamp renders the canonical timestamp form: UTC, whole seconds,
// literal Z suffix.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05") + "Z"
}

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// FromReceipt projects a chain receipt into its serializable form.
func FromReceipt(r chain.Receipt) ReceiptRecord {
	return ReceiptRecord{
		ReceiptType:    r.Type,
		Corridor:       string(r.Corridor),
		Sequence:       r.Sequence,
		Timestamp:      formatTimestamp(r.Timestamp),
		PrevRoot:       r.PrevRoot,
		NextRoot:       r.NextRoot,
		LawpackDigests: append([]string(nil), r.LawpackDigests...),
		RulesetDigests: append([]string(nil), r.RulesetDigests...),
	}
}

// ToReceipt reconstructs a chain receipt from its serialized form.
func ToReceipt(rec ReceiptRecord) (chain.Receipt, error) {
	ts, err := parseTimestamp(rec.Timestamp)
	if err != nil {
		return chain.Receipt{}, fmt.Errorf("model: bad receipt timestamp: %w", err)
	}
	return chain.Receipt{
		Type:           rec.ReceiptType,
		Corridor:       chain.CorridorID(rec.Corridor),
		Sequence:       rec.Sequence,
		Timestamp:      ts,
		PrevRoot:       rec.PrevRoot,
		NextRoot:       rec.NextRoot,
		LawpackDigests: append([]string(nil), rec.LawpackDigests...),
		RulesetDigests: append([]string(nil), rec.RulesetDigests...),
	}, nil
}

// FromCheckpoint projects a checkpoint into its serializable form.
func FromCheckpoint(cp chain.Checkpoint) CheckpointRecord {
	return CheckpointRecord{
		Height:  cp.Height,
		MMRRoot: cp.MMRRoot,
		Digest:  cp.Digest.String(),
	}
}

// Snapshot projects a whole chain for external persistence.
func Snapshot(c *chain.Chain) ChainSnapshot {
	receipts := c.Receipts()
	recs := make([]ReceiptRecord, len(receipts))
	for i, r := range receipts {
		recs[i] = FromReceipt(r)
	}
	checkpoints := c.Checkpoints()
	cps := make([]CheckpointRecord, len(checkpoints))
	for i, cp := range checkpoints {
		cps[i] = FromCheckpoint(cp)
	}
	return ChainSnapshot{
		Corridor:    c.Corridor().String(),
		GenesisRoot: c.GenesisRoot(),
		FinalRoot:   c.FinalStateRoot(),
		Receipts:    recs,
		Leaves:      c.Leaves(),
		Checkpoints: cps,
	}
}

// Restore rebuilds a chain from a snapshot by replaying every receipt
// through full append validation, recreating checkpoints at the heights
// they were taken. A snapshot that was tampered with in storage
// (resequenced, relinked, or edited receipts or checkpoints) fails here
// rather than producing a silently different chain.
func Restore(s ChainSnapshot) (*chain.Chain, error) {
	c, err := chain.New(chain.CorridorID(s.Corridor), s.GenesisRoot)
	if err != nil {
		return nil, err
	}
	nextCP := 0
	replayCheckpoints := func() error {
		for nextCP < len(s.Checkpoints) && s.Checkpoints[nextCP].Height == c.Height() {
			cp, err := c.CreateCheckpoint()
			if err != nil {
				return err
			}
			if cp.Digest.String() != s.Checkpoints[nextCP].Digest {
				return fmt.Errorf("model: snapshot checkpoint at height %d does not match replayed chain",
					s.Checkpoints[nextCP].Height)
			}
			nextCP++
		}
		return nil
	}
	if err := replayCheckpoints(); err != nil {
		return nil, err
	}
	for _, rec := range s.Receipts {
		r, err := ToReceipt(rec)
		if err != nil {
			return nil, err
		}
		if err := c.Append(r); err != nil {
			return nil, fmt.Errorf("model: replay of receipt %d failed: %w", rec.Sequence, err)
		}
		if err := replayCheckpoints(); err != nil {
			return nil, err
		}
	}
	if nextCP != len(s.Checkpoints) {
		return nil, fmt.Errorf("model: snapshot checkpoint at height %d exceeds replayed chain height",
			s.Checkpoints[nextCP].Height)
	}
	if s.FinalRoot != c.FinalStateRoot() {
		return nil, fmt.Errorf("model: snapshot final root %q does not match replayed chain %q",
			s.FinalRoot, c.FinalStateRoot())
	}
	replayed := c.Leaves()
	for i, want := range s.Leaves {
		if i >= len(replayed) || replayed[i] != want {
			return nil, fmt.Errorf("model: snapshot leaf %d does not match replayed chain", i)
		}
	}
	return c, nil
}

// FromBranch projects a fork branch into its serializable form.
func FromBranch(b fork.Branch) ForkBranchRecord {
	return ForkBranchRecord{
		ReceiptDigest:   b.ReceiptDigest,
		Timestamp:       formatTimestamp(b.Timestamp),
		Attestations:    b.Attestations,
		ClaimedNextRoot: b.ClaimedNextRoot,
	}
}

// ToBranch reconstructs a fork branch from its serialized form. When the
// record carries the watcher attestations themselves, the branch's count is
// the number that verify over the receipt digest; a bare integer is used
// only when no signed vouches accompany it.
func ToBranch(rec ForkBranchRecord) (fork.Branch, error) {
	ts, err := parseTimestamp(rec.Timestamp)
	if err != nil {
		return fork.Branch{}, fmt.Errorf("model: bad branch timestamp: %w", err)
	}
	count := rec.Attestations
	if len(rec.WatcherAttestations) > 0 {
		count = attest.CountValid(rec.ReceiptDigest, rec.WatcherAttestations)
	}
	return fork.Branch{
		ReceiptDigest:   rec.ReceiptDigest,
		Timestamp:       ts,
		Attestations:    count,
		ClaimedNextRoot: rec.ClaimedNextRoot,
	}, nil
}

// FromResolution projects a fork resolution for reporting.
func FromResolution(r fork.Resolution) ForkResolutionRecord {
	return ForkResolutionRecord{
		Winner: r.Winner,
		Loser:  r.Loser,
		Reason: string(r.Reason),
	}
}
