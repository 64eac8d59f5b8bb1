// Package mmr implements an append-only Merkle Mountain Range over
// 64-character lowercase-hex leaf digests.
//
// Leaves accumulate into a forest of perfect binary mountains whose sizes
// follow the binary representation of the leaf count; equal-height peaks
// merge on append, and the root bags all current peaks. Appends are O(log n)
// amortized and inclusion proofs are O(log n) in size, which is why the
// chain uses this structure instead of rehashing the whole sequence.
package mmr

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	ErrMalformedLeaf   = errors.New("mmr: leaf must be 64 lowercase hex characters")
	ErrIndexOutOfRange = errors.New("mmr: leaf index out of range")
)

// MMR is a Merkle Mountain Range. The zero value is not usable; construct
// with New or FromLeaves.
//
// Writes (Append) must be serialized by the caller; reads are safe against
// reads. Two MMRs built from the same ordered leaves always agree on
// (Size, Root), whether built incrementally or in one batch.
type MMR struct {
	leaves []string
	peaks  []peak
}

// peak is the root of one perfect mountain. Peaks are kept left to right in
// strictly decreasing height; a mountain of height h covers 1<<h leaves.
type peak struct {
	hash   string
	height uint
}

// New returns an empty MMR: size 0, root "".
func New() *MMR {
	return &MMR{}
}

// FromLeaves builds an MMR from an ordered leaf sequence in one batch,
// computing each mountain root directly from the binary decomposition of
// the leaf count. The result is identical to appending the same leaves one
// at a time.
func FromLeaves(leaves []string) (*MMR, error) {
	for _, l := range leaves {
		if !validLeafHex(l) {
			return nil, fmt.Errorf("%w: %q", ErrMalformedLeaf, l)
		}
	}
	m := &MMR{leaves: append([]string(nil), leaves...)}
	n := uint64(len(leaves))
	start := uint64(0)
	for h := uint(63); ; h-- {
		if n&(uint64(1)<<h) != 0 {
			end := start + uint64(1)<<h
			m.peaks = append(m.peaks, peak{hash: mountainRoot(m.leaves[start:end]), height: h})
			start = end
		}
		if h == 0 {
			break
		}
	}
	return m, nil
}

// Append adds one leaf digest. A malformed leaf is rejected without
// mutating the peak structure.
func (m *MMR) Append(leaf string) error {
	if !validLeafHex(leaf) {
		return fmt.Errorf("%w: %q", ErrMalformedLeaf, leaf)
	}
	m.leaves = append(m.leaves, leaf)
	m.peaks = append(m.peaks, peak{hash: leaf, height: 0})
	for len(m.peaks) >= 2 {
		a, b := m.peaks[len(m.peaks)-2], m.peaks[len(m.peaks)-1]
		if a.height != b.height {
			break
		}
		m.peaks = m.peaks[:len(m.peaks)-2]
		m.peaks = append(m.peaks, peak{hash: hashNodes(a.hash, b.hash), height: a.height + 1})
	}
	return nil
}

// Size returns the number of leaves.
func (m *MMR) Size() uint64 {
	return uint64(len(m.leaves))
}

// Root returns the bagged peak root as lowercase hex, or "" for an empty
// MMR. The empty string is distinguishable from every valid hash.
func (m *MMR) Root() string {
	if len(m.peaks) == 0 {
		return ""
	}
	acc := m.peaks[len(m.peaks)-1].hash
	for i := len(m.peaks) - 2; i >= 0; i-- {
		acc = hashNodes(m.peaks[i].hash, acc)
	}
	return acc
}

// Leaves returns a copy of the ordered leaf digests, for the persistence
// boundary.
func (m *MMR) Leaves() []string {
	return append([]string(nil), m.leaves...)
}

// mountainRoot computes the root of one perfect mountain. len(chunk) must
// be a power of two.
func mountainRoot(chunk []string) string {
	if len(chunk) == 1 {
		return chunk[0]
	}
	half := len(chunk) / 2
	return hashNodes(mountainRoot(chunk[:half]), mountainRoot(chunk[half:]))
}

// hashNodes hashes the concatenated raw bytes of two child hashes. Inputs
// are trusted hex produced by this package.
func hashNodes(left, right string) string {
	lb, _ := hex.DecodeString(left)
	rb, _ := hex.DecodeString(right)
	sum := sha256.Sum256(append(lb, rb...))
	return hex.EncodeToString(sum[:])
}

func validLeafHex(s string) bool {
	if len(s) != 64 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
