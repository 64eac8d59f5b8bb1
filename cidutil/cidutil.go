// Package cidutil bridges corridor content digests to IPFS-compatible CIDs.
//
// Chain-internal code addresses content by bare lowercase-hex digests; the
// content-addressed persistence boundary keys objects by CIDv1. Both names
// commit to the same sha2-256 hash of the same canonical bytes.
package cidutil

import (
	"crypto/sha256"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// CIDv1RawSHA256 returns a CIDv1 string using the "raw" multicodec
// and a sha2-256 multihash.
func CIDv1RawSHA256(data []byte) string {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		// multihash.Sum only errors for invalid inputs; with SHA2_256 and -1 length,
		// this should be unreachable.
		return ""
	}
	return cid.NewCidV1(cid.Raw, sum).String()
}

// CIDv1RawSHA256CID returns a CIDv1 (raw + sha2-256) derived from data.
func CIDv1RawSHA256CID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// CIDFromSHA256 wraps an already-computed sha2-256 digest as a CIDv1
// (raw multicodec) without rehashing. The input must be exactly 32 bytes.
func CIDFromSHA256(sum []byte) (cid.Cid, error) {
	if len(sum) != sha256.Size {
		return cid.Undef, fmt.Errorf("cidutil: sha2-256 digest must be %d bytes, got %d", sha256.Size, len(sum))
	}
	mh, err := multihash.Encode(sum, multihash.SHA2_256)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, mh), nil
}
