package anchor

import (
	"context"
	"sync"

	"xdao.co/corridor/canonical"
)

// Memory is a deterministic in-process anchor target.
//
// It models an external ledger without any I/O: transaction IDs are derived
// from the commitment contents, block numbers are assigned sequentially, and
// a commitment finalizes after FinalizeAfter status checks. It backs tests
// and offline operation of the anchoring flow.
type Memory struct {
	// ChainID reported in receipts when the commitment leaves it empty.
	ChainID string

	// FinalizeAfter is the number of CheckStatus calls a pending
	// transaction survives before being reported finalized.
	FinalizeAfter int

	mu      sync.Mutex
	entries map[string]*memoryEntry
	nextBlk uint64
}

type memoryEntry struct {
	receipt Receipt
	polls   int
}

func NewMemory(chainID string) *Memory {
	return &Memory{ChainID: chainID, entries: make(map[string]*memoryEntry)}
}

func (m *Memory) sealedTarget() {}

// Anchor records the commitment and returns a pending receipt.
// Re-anchoring the same commitment is idempotent and returns the original
// receipt.
func (m *Memory) Anchor(ctx context.Context, c Commitment) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	if err := c.Validate(); err != nil {
		return Receipt{}, err
	}

	chainID := c.ChainID
	if chainID == "" {
		chainID = m.ChainID
	}
	d, err := canonical.CanonicalDigest(map[string]any{
		"chainID":          chainID,
		"checkpointDigest": c.CheckpointDigest,
		"height":           c.Height,
	})
	if err != nil {
		return Receipt{}, err
	}
	txID := d.Hex()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = make(map[string]*memoryEntry)
	}
	if e, ok := m.entries[txID]; ok {
		return e.receipt, nil
	}

	m.nextBlk++
	r := Receipt{
		ChainID:     chainID,
		TxID:        txID,
		BlockNumber: m.nextBlk,
		Status:      StatusPending,
	}
	m.entries[txID] = &memoryEntry{receipt: r}
	return r, nil
}

// CheckStatus reports the transaction's status, advancing the deterministic
// finality clock by one poll.
func (m *Memory) CheckStatus(ctx context.Context, txID string) (Status, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[txID]
	if !ok {
		return "", ErrUnknownTx
	}
	if e.receipt.Status == StatusPending {
		e.polls++
		if e.polls > m.FinalizeAfter {
			e.receipt.Status = StatusFinalized
		}
	}
	return e.receipt.Status, nil
}

// Fail marks a pending transaction as failed. The checkpoint it carried
// stays valid and may be anchored again under a different commitment.
func (m *Memory) Fail(txID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[txID]
	if !ok {
		return ErrUnknownTx
	}
	e.receipt.Status = StatusFailed
	return nil
}
