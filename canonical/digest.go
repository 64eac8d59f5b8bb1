package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Algorithm identifies a digest algorithm. All supported algorithms produce
// a 32-byte hash.
type Algorithm string

const (
	// SHA256 is the active default algorithm.
	SHA256 Algorithm = "sha256"
	// SHA3256 is supported for corridors that mandate a SHA-3 family hash.
	SHA3256 Algorithm = "sha3-256"
)

// DigestSize is the hash width, in bytes, of every supported algorithm.
const DigestSize = 32

// Digest is a content identifier: an algorithm tag plus a fixed-width hash
// of canonical bytes.
//
// General call sites obtain a Digest exclusively by digesting Bytes via Sum
// or SumWithAlg. ParseDigest exists only for the persistence boundary, where
// previously-issued identifiers re-enter the core as strings. Equality is
// value-based (the type is comparable).
type Digest struct {
	alg Algorithm
	sum [DigestSize]byte
}

// Sum computes the content identifier of canonical bytes using the active
// default algorithm.
//
// The parameter type is the load-bearing invariant: nothing that did not
// pass Canonicalize can be digested, so two components can never disagree
// on the bytes behind a digest.
func Sum(b Bytes) Digest {
	return Digest{alg: SHA256, sum: sha256.Sum256(b.b)}
}

// SumWithAlg computes the content identifier using an explicit algorithm.
func SumWithAlg(b Bytes, alg Algorithm) (Digest, error) {
	switch alg {
	case SHA256:
		return Digest{alg: SHA256, sum: sha256.Sum256(b.b)}, nil
	case SHA3256:
		return Digest{alg: SHA3256, sum: sha3.Sum256(b.b)}, nil
	default:
		return Digest{}, newError(KindDigest, "CRC-DIGEST-101", "unsupported digest algorithm")
	}
}

// CanonicalDigest canonicalizes v and digests the result with the default
// algorithm. This is the common path for content-addressing whole records.
func CanonicalDigest(v any) (Digest, error) {
	b, err := Canonicalize(v)
	if err != nil {
		return Digest{}, err
	}
	return Sum(b), nil
}

// Algorithm returns the digest's algorithm tag.
func (d Digest) Algorithm() Algorithm { return d.alg }

// Hex returns the 64-character lowercase hex form, used as the chain-internal
// leaf/root encoding and as a storage key component.
func (d Digest) Hex() string {
	return hex.EncodeToString(d.sum[:])
}

// String returns the display form "<algorithm>:<64 lowercase hex>".
func (d Digest) String() string {
	return string(d.alg) + ":" + d.Hex()
}

// SumBytes returns a copy of the raw hash value.
func (d Digest) SumBytes() []byte {
	return append([]byte(nil), d.sum[:]...)
}

// IsZero reports whether d is the zero Digest (no algorithm tag).
func (d Digest) IsZero() bool { return d.alg == "" }

// ParseDigest parses the "<algorithm>:<hex>" display form.
//
// This is the boundary constructor for identifiers reloaded from external
// persistence; it validates shape, not provenance.
func ParseDigest(s string) (Digest, error) {
	algStr, hexStr, ok := strings.Cut(s, ":")
	if !ok {
		return Digest{}, newError(KindDigest, "CRC-DIGEST-102", "digest must be <algorithm>:<hex>")
	}
	return ParseHex(Algorithm(algStr), hexStr)
}

// ParseHex parses a bare 64-character lowercase hex hash under an explicit
// algorithm tag.
func ParseHex(alg Algorithm, hexStr string) (Digest, error) {
	switch alg {
	case SHA256, SHA3256:
	default:
		return Digest{}, newError(KindDigest, "CRC-DIGEST-101", "unsupported digest algorithm")
	}
	if err := ValidateHex(hexStr); err != nil {
		return Digest{}, err
	}
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return Digest{}, wrapError(KindDigest, "CRC-DIGEST-103", "invalid digest hex", err)
	}
	var d Digest
	d.alg = alg
	copy(d.sum[:], raw)
	return d, nil
}

// ValidateHex checks that s is exactly 64 lowercase hexadecimal characters,
// the only accepted leaf/root encoding. Uppercase hex is rejected, not
// folded, so a non-canonical spelling can never alias a canonical one.
func ValidateHex(s string) error {
	if len(s) != DigestSize*2 {
		return newError(KindDigest, "CRC-DIGEST-104", "digest hex must be 64 characters")
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return newError(KindDigest, "CRC-DIGEST-105", "digest hex must be lowercase hexadecimal")
		}
	}
	return nil
}
