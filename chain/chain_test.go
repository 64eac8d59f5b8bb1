package chain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

const testCorridor = CorridorID("corridor-usd-eur")

func newTestChain(t *testing.T) *Chain {
	t.Helper()
	c, err := New(testCorridor, ZeroGenesisRoot)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func sealedReceipt(t *testing.T, c *Chain, seq uint64) Receipt {
	t.Helper()
	r := Receipt{
		Type:      "settlement",
		Corridor:  c.Corridor(),
		Sequence:  seq,
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(seq) * time.Minute),
		PrevRoot:  c.FinalStateRoot(),
		LawpackDigests: []string{
			fmt.Sprintf("sha256:%064d", seq),
		},
	}
	if err := r.Seal(); err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	return r
}

func TestNew_RejectsBadGenesisRoot(t *testing.T) {
	for _, root := range []string{"", "abcd", ZeroGenesisRoot + "00", "Z" + ZeroGenesisRoot[1:]} {
		if _, err := New(testCorridor, root); !errors.Is(err, ErrBadGenesis) {
			t.Fatalf("genesis %q: expected ErrBadGenesis, got %v", root, err)
		}
	}
	if _, err := New("", ZeroGenesisRoot); err == nil {
		t.Fatalf("expected rejection of empty corridor id")
	}
}

func TestAppend_SequenceMismatchLeavesChainUnchanged(t *testing.T) {
	c := newTestChain(t)
	if err := c.Append(sealedReceipt(t, c, 0)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	rootBefore := c.MMRRoot()

	for _, seq := range []uint64{0, 2, 100} {
		r := sealedReceipt(t, c, seq)
		if seq == c.Height() {
			continue
		}
		if err := c.Append(r); !errors.Is(err, ErrSequenceMismatch) {
			t.Fatalf("seq %d: expected ErrSequenceMismatch, got %v", seq, err)
		}
	}
	if c.Height() != 1 || c.MMRRoot() != rootBefore {
		t.Fatalf("rejected append mutated chain state")
	}
}

func TestAppend_StalePrevRootRejected(t *testing.T) {
	c := newTestChain(t)
	if err := c.Append(sealedReceipt(t, c, 0)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	stale := Receipt{
		Type:      "settlement",
		Corridor:  testCorridor,
		Sequence:  1,
		Timestamp: time.Now().UTC(),
		PrevRoot:  ZeroGenesisRoot, // chain has moved past genesis
	}
	if err := stale.Seal(); err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if err := c.Append(stale); !errors.Is(err, ErrPrevRootMismatch) {
		t.Fatalf("expected ErrPrevRootMismatch, got %v", err)
	}
	if c.Height() != 1 {
		t.Fatalf("rejected append advanced height")
	}
}

func TestAppend_SealIsVerified(t *testing.T) {
	c := newTestChain(t)

	unsealed := sealedReceipt(t, c, 0)
	unsealed.NextRoot = ""
	if err := c.Append(unsealed); !errors.Is(err, ErrSealMismatch) {
		t.Fatalf("unsealed receipt: expected ErrSealMismatch, got %v", err)
	}

	forged := sealedReceipt(t, c, 0)
	forged.NextRoot = ZeroGenesisRoot
	if err := c.Append(forged); !errors.Is(err, ErrSealMismatch) {
		t.Fatalf("forged seal: expected ErrSealMismatch, got %v", err)
	}

	// Mutating sealed content invalidates the seal.
	tampered := sealedReceipt(t, c, 0)
	tampered.Type = "netting"
	if err := c.Append(tampered); !errors.Is(err, ErrSealMismatch) {
		t.Fatalf("tampered content: expected ErrSealMismatch, got %v", err)
	}

	if c.Height() != 0 {
		t.Fatalf("rejected appends mutated chain")
	}
}

func TestAppend_WrongCorridorRejected(t *testing.T) {
	c := newTestChain(t)
	r := sealedReceipt(t, c, 0)
	r.Corridor = "corridor-gbp-jpy"
	if err := r.Seal(); err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if err := c.Append(r); !errors.Is(err, ErrCorridorMismatch) {
		t.Fatalf("expected ErrCorridorMismatch, got %v", err)
	}
}

func TestSeal_IsDeterministicAndContentBound(t *testing.T) {
	c := newTestChain(t)
	a := sealedReceipt(t, c, 0)
	b := sealedReceipt(t, c, 0)
	if a.NextRoot != b.NextRoot {
		t.Fatalf("seal differs for identical content")
	}

	b.Type = "netting"
	if err := b.Seal(); err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if a.NextRoot == b.NextRoot {
		t.Fatalf("seal must change with content")
	}
}

func TestCheckpoint_DistinctAcrossHeights(t *testing.T) {
	c := newTestChain(t)
	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		cp, err := c.CreateCheckpoint()
		if err != nil {
			t.Fatalf("CreateCheckpoint failed: %v", err)
		}
		if cp.Height != c.Height() {
			t.Fatalf("checkpoint height mismatch")
		}
		key := cp.Digest.String()
		if seen[key] {
			t.Fatalf("checkpoint digest repeated at height %d", cp.Height)
		}
		seen[key] = true
		if err := c.Append(sealedReceipt(t, c, uint64(i))); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	if got := len(c.Checkpoints()); got != 5 {
		t.Fatalf("checkpoint history not retained: got %d", got)
	}
}

func TestEndToEnd_TenReceiptsWithProofs(t *testing.T) {
	c := newTestChain(t)
	for i := uint64(0); i < 10; i++ {
		if err := c.Append(sealedReceipt(t, c, i)); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
	}
	if c.Height() != 10 {
		t.Fatalf("height: got %d want 10", c.Height())
	}
	if len(c.MMRRoot()) != 64 {
		t.Fatalf("MMR root must be 64 hex chars, got %q", c.MMRRoot())
	}
	for i := uint64(0); i < 10; i++ {
		p, err := c.BuildInclusionProof(i)
		if err != nil {
			t.Fatalf("BuildInclusionProof(%d) failed: %v", i, err)
		}
		if !c.VerifyInclusionProof(p) {
			t.Fatalf("inclusion proof for receipt %d did not verify", i)
		}
		want, err := c.Receipts()[i].ContentDigest()
		if err != nil {
			t.Fatalf("ContentDigest failed: %v", err)
		}
		if p.Leaf != want.Hex() {
			t.Fatalf("MMR leaf %d is not the receipt's content digest", i)
		}
	}

	// A proof built before the chain grows no longer matches the root.
	p, err := c.BuildInclusionProof(3)
	if err != nil {
		t.Fatalf("BuildInclusionProof failed: %v", err)
	}
	if err := c.Append(sealedReceipt(t, c, 10)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if c.VerifyInclusionProof(p) {
		t.Fatalf("stale proof verified against advanced chain")
	}
}
