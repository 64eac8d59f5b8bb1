// Package chain implements corridor receipt chains: sequenced, backward-
// linked settlement receipts committed to a per-corridor Merkle Mountain
// Range, with content-addressed checkpoints.
package chain

import (
	"strings"
	"time"

	"xdao.co/corridor/canonical"
)

// CorridorID names one bilateral or multilateral settlement corridor. It is
// assigned when the corridor is established and never changes.
type CorridorID string

func (id CorridorID) String() string { return string(id) }

// ZeroGenesisRoot is the conventional genesis root for a freshly
// established corridor: 32 zero bytes, hex encoded.
const ZeroGenesisRoot = "0000000000000000000000000000000000000000000000000000000000000000"

// Receipt is one sequenced record of a corridor event.
//
// Sequence numbers are zero-based and contiguous within a chain. PrevRoot
// must equal the chain's final-state root at the moment of append; NextRoot
// is derived from the receipt's own content by Seal and is fixed before
// append. LawpackDigests and RulesetDigests are content identifiers
// supplied verbatim by policy collaborators; their order is significant and
// never re-sorted here.
type Receipt struct {
	Type           string
	Corridor       CorridorID
	Sequence       uint64
	Timestamp      time.Time
	PrevRoot       string
	NextRoot       string
	LawpackDigests []string
	RulesetDigests []string
}

// contentBody is the canonical content of the receipt. NextRoot is excluded:
// it is derived from this content and cannot commit to itself.
func (r Receipt) contentBody() map[string]any {
	return map[string]any{
		"receiptType":    r.Type,
		"corridor":       string(r.Corridor),
		"sequence":       r.Sequence,
		"timestamp":      r.Timestamp.UTC().Format(time.RFC3339),
		"prevRoot":       r.PrevRoot,
		"lawpackDigests": r.LawpackDigests,
		"rulesetDigests": r.RulesetDigests,
	}
}

// ContentDigest returns the receipt's content identifier, computed over its
// canonical content through the blessed canonicalization pipeline. This is
// the digest appended as the chain's MMR leaf.
func (r Receipt) ContentDigest() (canonical.Digest, error) {
	return canonical.CanonicalDigest(r.contentBody())
}

// Seal derives and sets NextRoot from the receipt's own content.
//
// The combination is fixed for the lifetime of a corridor: the canonical
// digest of {"prevRoot": PrevRoot, "receiptDigest": ContentDigest().Hex()}.
// Changing it would be a hard compatibility break across every chain.
func (r *Receipt) Seal() error {
	d, err := r.ContentDigest()
	if err != nil {
		return err
	}
	root, err := sealRoot(r.PrevRoot, d.Hex())
	if err != nil {
		return err
	}
	r.NextRoot = root
	return nil
}

// Sealed reports whether NextRoot is populated.
func (r Receipt) Sealed() bool { return strings.TrimSpace(r.NextRoot) != "" }

func sealRoot(prevRoot, receiptDigestHex string) (string, error) {
	d, err := canonical.CanonicalDigest(map[string]any{
		"prevRoot":      prevRoot,
		"receiptDigest": receiptDigestHex,
	})
	if err != nil {
		return "", err
	}
	return d.Hex(), nil
}
