package storage_test

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"xdao.co/corridor/chain"
	"xdao.co/corridor/model"
	"xdao.co/corridor/storage"
	"xdao.co/corridor/storage/localfs"
)

func buildChain(t *testing.T, n uint64) *chain.Chain {
	t.Helper()
	c, err := chain.New("corridor-usd-eur", chain.ZeroGenesisRoot)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	for seq := uint64(0); seq < n; seq++ {
		r := chain.Receipt{
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
		if err := c.Append(r); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	return c
}

func TestChainStore_SaveLoadRoundTrip(t *testing.T) {
	cas, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatalf("localfs.New failed: %v", err)
	}
	store := storage.ChainStore{CAS: cas}

	c := buildChain(t, 5)
	id, err := store.Save(c)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Load(id)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Height() != c.Height() {
		t.Fatalf("height mismatch: got %d want %d", got.Height(), c.Height())
	}
	if got.MMRRoot() != c.MMRRoot() {
		t.Fatalf("mmr root mismatch")
	}
	if got.FinalStateRoot() != c.FinalStateRoot() {
		t.Fatalf("final state root mismatch")
	}
}

func TestChainStore_SaveIsDeterministic(t *testing.T) {
	cas, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatalf("localfs.New failed: %v", err)
	}
	store := storage.ChainStore{CAS: cas}

	id1, err := store.Save(buildChain(t, 3))
	if err != nil {
		t.Fatalf("Save(1) failed: %v", err)
	}
	id2, err := store.Save(buildChain(t, 3))
	if err != nil {
		t.Fatalf("Save(2) failed: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("same chain state produced different CIDs: %s vs %s", id1, id2)
	}
}

func TestChainStore_LoadRejectsTamperedSnapshot(t *testing.T) {
	cas, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatalf("localfs.New failed: %v", err)
	}
	store := storage.ChainStore{CAS: cas}

	c := buildChain(t, 4)
	id, err := store.Save(c)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Re-store a snapshot with one receipt's content edited but the original
	// seal kept. The bytes are valid JSON with a valid CID, so Get succeeds;
	// Restore must fail during replay.
	b, err := cas.Get(id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	var snap model.ChainSnapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	snap.Receipts[1].LawpackDigests = []string{fmt.Sprintf("sha256:%064d", 99)}
	tampered, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	tid, err := cas.Put(tampered)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if _, err := store.Load(tid); err == nil {
		t.Fatalf("expected tampered snapshot to fail restore")
	}
}
