package storage

import (
	"encoding/json"

	"github.com/ipfs/go-cid"

	"xdao.co/corridor/canonical"
	"xdao.co/corridor/chain"
	"xdao.co/corridor/model"
)

// ChainStore persists chain snapshots into a CAS.
//
// Snapshots are serialized through the canonicalizer so that the same chain
// state always maps to the same CID. Load replays the stored receipts through
// full append validation, so a tampered snapshot fails to restore.
type ChainStore struct {
	CAS CAS
}

// Save writes the current state of c and returns the snapshot CID.
func (s ChainStore) Save(c *chain.Chain) (cid.Cid, error) {
	if s.CAS == nil {
		return cid.Undef, ErrInvalidCID
	}
	snap := model.Snapshot(c)
	b, err := canonical.Canonicalize(snap)
	if err != nil {
		return cid.Undef, err
	}
	return s.CAS.Put(b.Encoded())
}

// Load fetches the snapshot at id and rebuilds the chain from it.
func (s ChainStore) Load(id cid.Cid) (*chain.Chain, error) {
	if s.CAS == nil {
		return nil, ErrInvalidCID
	}
	b, err := s.CAS.Get(id)
	if err != nil {
		return nil, err
	}
	var snap model.ChainSnapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, err
	}
	return model.Restore(snap)
}
