package chain

import (
	"fmt"

	"xdao.co/corridor/canonical"
	"xdao.co/corridor/mmr"
)

// Chain is one corridor's append-only receipt history.
//
// Append and CreateCheckpoint are single-writer operations: callers must
// serialize them per corridor (Registry provides the lock). Reads are safe
// against each other and against other corridors' writers.
type Chain struct {
	corridor    CorridorID
	genesisRoot string
	finalRoot   string
	receipts    []Receipt
	mmr         *mmr.MMR
	checkpoints []Checkpoint
}

// New establishes a chain for a corridor with the given genesis root
// (ZeroGenesisRoot for new corridors).
func New(corridor CorridorID, genesisRoot string) (*Chain, error) {
	if corridor == "" {
		return nil, fmt.Errorf("chain: empty corridor id")
	}
	if err := canonical.ValidateHex(genesisRoot); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadGenesis, err)
	}
	return &Chain{
		corridor:    corridor,
		genesisRoot: genesisRoot,
		finalRoot:   genesisRoot,
		mmr:         mmr.New(),
	}, nil
}

// Append validates and appends one sealed receipt.
//
// Validation runs entirely before any mutation, in order: corridor match,
// sequence == height, prev-root == final-state root, and the receipt's
// NextRoot must equal the seal recomputed from its content. A rejected
// receipt leaves the chain observably unchanged, so callers may retry with
// a corrected receipt without risk of duplication.
func (c *Chain) Append(r Receipt) error {
	if r.Corridor != c.corridor {
		return fmt.Errorf("%w: got %q want %q", ErrCorridorMismatch, r.Corridor, c.corridor)
	}
	if r.Timestamp.IsZero() {
		return ErrZeroTimestamp
	}
	if r.Sequence != c.Height() {
		return fmt.Errorf("%w: got %d want %d", ErrSequenceMismatch, r.Sequence, c.Height())
	}
	if r.PrevRoot != c.finalRoot {
		return fmt.Errorf("%w: got %q want %q", ErrPrevRootMismatch, r.PrevRoot, c.finalRoot)
	}
	if !r.Sealed() {
		return fmt.Errorf("%w: receipt is unsealed", ErrSealMismatch)
	}
	digest, err := r.ContentDigest()
	if err != nil {
		return err
	}
	wantRoot, err := sealRoot(r.PrevRoot, digest.Hex())
	if err != nil {
		return err
	}
	if r.NextRoot != wantRoot {
		return fmt.Errorf("%w: got %q want %q", ErrSealMismatch, r.NextRoot, wantRoot)
	}

	// All checks passed; mutate. The leaf is a digest hex this package just
	// computed, so the MMR append cannot reject it.
	if err := c.mmr.Append(digest.Hex()); err != nil {
		return err
	}
	c.receipts = append(c.receipts, r)
	c.finalRoot = r.NextRoot
	return nil
}

// Corridor returns the corridor id.
func (c *Chain) Corridor() CorridorID { return c.corridor }

// Height returns the number of appended receipts.
func (c *Chain) Height() uint64 { return uint64(len(c.receipts)) }

// GenesisRoot returns the root the chain was established with.
func (c *Chain) GenesisRoot() string { return c.genesisRoot }

// FinalStateRoot returns the current backward-linkage root: the genesis
// root for an empty chain, otherwise the NextRoot of the last receipt.
func (c *Chain) FinalStateRoot() string { return c.finalRoot }

// MMRRoot returns the current MMR root ("" while the chain is empty).
func (c *Chain) MMRRoot() string { return c.mmr.Root() }

// Receipts returns a copy of the appended receipts in sequence order.
func (c *Chain) Receipts() []Receipt {
	return append([]Receipt(nil), c.receipts...)
}

// Leaves returns a copy of the MMR leaf digests, for the persistence
// boundary.
func (c *Chain) Leaves() []string { return c.mmr.Leaves() }

// BuildInclusionProof proves that the receipt at seq is committed by the
// current MMR root.
func (c *Chain) BuildInclusionProof(seq uint64) (mmr.InclusionProof, error) {
	return c.mmr.Proof(seq)
}

// VerifyInclusionProof checks a proof against the chain's current MMR root.
func (c *Chain) VerifyInclusionProof(p mmr.InclusionProof) bool {
	return p.Root == c.mmr.Root() && mmr.Verify(p)
}

// CreateCheckpoint snapshots (height, MMR root) at the instant of the call,
// appends the checkpoint to the chain's history, and returns it.
// Checkpoints are never deleted.
func (c *Chain) CreateCheckpoint() (Checkpoint, error) {
	cp, err := newCheckpoint(c.Height(), c.mmr.Root())
	if err != nil {
		return Checkpoint{}, err
	}
	c.checkpoints = append(c.checkpoints, cp)
	return cp, nil
}

// Checkpoints returns a copy of every checkpoint ever created.
func (c *Chain) Checkpoints() []Checkpoint {
	return append([]Checkpoint(nil), c.checkpoints...)
}
