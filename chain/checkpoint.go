package chain

import "xdao.co/corridor/canonical"

// Checkpoint is an immutable, content-addressed snapshot of chain state.
//
// The digest is computed over (height, MMR root) through the same
// canonicalization pipeline as every other record; height participates in
// the digested content, so two checkpoints at different heights always
// differ even if their roots were to coincide.
type Checkpoint struct {
	Height  uint64
	MMRRoot string
	Digest  canonical.Digest
}

func newCheckpoint(height uint64, root string) (Checkpoint, error) {
	d, err := canonical.CanonicalDigest(map[string]any{
		"height":  height,
		"mmrRoot": root,
	})
	if err != nil {
		return Checkpoint{}, err
	}
	return Checkpoint{Height: height, MMRRoot: root, Digest: d}, nil
}
