package mmr

import (
	"fmt"
	"math/bits"
)

// ProofStep is one sibling hash on the path from a leaf to its mountain
// root. Right reports whether the sibling sits to the right of the running
// hash.
type ProofStep struct {
	Hash  string `json:"hash"`
	Right bool   `json:"right"`
}

// InclusionProof proves that the leaf at Index was present in an MMR of
// Size leaves with the given Root.
//
// Path climbs the leaf's own mountain; PeaksLeft and PeaksRight are the
// roots of the mountains on either side, needed to re-bag the MMR root.
type InclusionProof struct {
	Index      uint64      `json:"index"`
	Leaf       string      `json:"leaf"`
	Size       uint64      `json:"size"`
	Path       []ProofStep `json:"path"`
	PeaksLeft  []string    `json:"peaksLeft"`
	PeaksRight []string    `json:"peaksRight"`
	Root       string      `json:"root"`
}

// Proof builds an inclusion proof for the leaf at index.
func (m *MMR) Proof(index uint64) (InclusionProof, error) {
	if index >= m.Size() {
		return InclusionProof{}, fmt.Errorf("%w: index %d size %d", ErrIndexOutOfRange, index, m.Size())
	}

	p := InclusionProof{
		Index: index,
		Leaf:  m.leaves[index],
		Size:  m.Size(),
		Root:  m.Root(),
	}

	start := uint64(0)
	for i, pk := range m.peaks {
		span := uint64(1) << pk.height
		if index < start+span {
			chunk := m.leaves[start : start+span]
			p.Path = pathInMountain(chunk, index-start)
			for _, left := range m.peaks[:i] {
				p.PeaksLeft = append(p.PeaksLeft, left.hash)
			}
			for _, right := range m.peaks[i+1:] {
				p.PeaksRight = append(p.PeaksRight, right.hash)
			}
			return p, nil
		}
		start += span
	}
	// Peaks always cover all leaves.
	return InclusionProof{}, fmt.Errorf("%w: index %d not covered by peaks", ErrIndexOutOfRange, index)
}

// pathInMountain collects sibling hashes bottom-up for the leaf at idx
// within one perfect mountain.
func pathInMountain(chunk []string, idx uint64) []ProofStep {
	if len(chunk) == 1 {
		return nil
	}
	half := uint64(len(chunk)) / 2
	if idx < half {
		return append(pathInMountain(chunk[:half], idx),
			ProofStep{Hash: mountainRoot(chunk[half:]), Right: true})
	}
	return append(pathInMountain(chunk[half:], idx-half),
		ProofStep{Hash: mountainRoot(chunk[:half]), Right: false})
}

// Verify checks an inclusion proof in isolation: it recomputes the leaf's
// mountain root from the path, re-bags all peaks, and compares against the
// proof's root. The path is bound to Index — the mountain, the path length,
// and every step's orientation are derived from the binary decomposition of
// Size, so a proof cannot be relabeled to a different position. Callers
// must separately confirm that Root matches a root they trust.
func Verify(p InclusionProof) bool {
	if !validLeafHex(p.Leaf) || p.Index >= p.Size || p.Size == 0 {
		return false
	}
	if len(p.PeaksLeft)+1+len(p.PeaksRight) != bits.OnesCount64(p.Size) {
		return false
	}
	for _, h := range p.PeaksLeft {
		if !validLeafHex(h) {
			return false
		}
	}
	for _, h := range p.PeaksRight {
		if !validLeafHex(h) {
			return false
		}
	}

	// Locate Index's mountain: height, peak position, and mountain-local
	// index all follow from Size alone.
	var local uint64
	var height uint
	peakPos := -1
	start := uint64(0)
	pos := 0
	for h := 63; h >= 0; h-- {
		if p.Size&(uint64(1)<<uint(h)) == 0 {
			continue
		}
		span := uint64(1) << uint(h)
		if peakPos < 0 && p.Index < start+span {
			peakPos = pos
			height = uint(h)
			local = p.Index - start
		}
		start += span
		pos++
	}
	if peakPos < 0 || len(p.PeaksLeft) != peakPos {
		return false
	}
	if uint(len(p.Path)) != height {
		return false
	}

	cur := p.Leaf
	for level, step := range p.Path {
		if !validLeafHex(step.Hash) {
			return false
		}
		// A node that is a left child at this level has its sibling on
		// the right; the flag must agree with Index's bit.
		if step.Right != ((local>>uint(level))&1 == 0) {
			return false
		}
		if step.Right {
			cur = hashNodes(cur, step.Hash)
		} else {
			cur = hashNodes(step.Hash, cur)
		}
	}

	peaks := make([]string, 0, len(p.PeaksLeft)+1+len(p.PeaksRight))
	peaks = append(peaks, p.PeaksLeft...)
	peaks = append(peaks, cur)
	peaks = append(peaks, p.PeaksRight...)

	acc := peaks[len(peaks)-1]
	for i := len(peaks) - 2; i >= 0; i-- {
		acc = hashNodes(peaks[i], acc)
	}
	return acc == p.Root
}
