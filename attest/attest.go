// Package attest verifies watcher attestations over fork branch digests.
//
// A branch's attestation count only means something if each vouching
// watcher actually signed the branch's receipt digest. This package is
// verify-only: watcher key generation, storage, and signing belong to the
// watcher operators, not the corridor core.
package attest

import (
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"golang.org/x/crypto/sha3"

	"xdao.co/corridor/canonical"
)

var (
	ErrBadWatcherKey   = errors.New("attest: invalid watcher key")
	ErrBadSignature    = errors.New("attest: invalid signature encoding")
	ErrUnsupportedAlg  = errors.New("attest: unsupported algorithm")
	ErrSignatureFailed = errors.New("attest: signature verification failed")
)

// Attestation is one watcher's signed vouch for a branch.
//
// WatcherKey encodes the algorithm and public key as "<alg>:<base64>";
// supported algorithms are ed25519 and dilithium3. HashAlg selects the
// pre-hash over the branch digest bytes: sha256, sha512, or sha3-256.
type Attestation struct {
	WatcherKey string `json:"watcherKey"`
	HashAlg    string `json:"hashAlg"`
	Signature  string `json:"signature"`
}

// Verify checks one attestation over a branch's receipt digest (64
// lowercase hex characters). The signed message is the pre-hash of the
// digest's ASCII hex form, so watchers in any implementation language sign
// the same bytes.
func Verify(branchDigestHex string, a Attestation) error {
	if err := canonical.ValidateHex(branchDigestHex); err != nil {
		return err
	}

	alg, enc, ok := strings.Cut(a.WatcherKey, ":")
	if !ok {
		return fmt.Errorf("%w: must be <alg>:<base64>", ErrBadWatcherKey)
	}
	pub, err := decodeBase64(enc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadWatcherKey, err)
	}
	sig, err := decodeBase64(a.Signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	msg, err := preHash(a.HashAlg, []byte(branchDigestHex))
	if err != nil {
		return err
	}

	switch alg {
	case "ed25519":
		if len(pub) != ed25519.PublicKeySize {
			return fmt.Errorf("%w: bad ed25519 key length", ErrBadWatcherKey)
		}
		if len(sig) != ed25519.SignatureSize {
			return fmt.Errorf("%w: bad ed25519 signature length", ErrBadSignature)
		}
		if !ed25519.Verify(ed25519.PublicKey(pub), msg, sig) {
			return ErrSignatureFailed
		}
		return nil
	case "dilithium3":
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return fmt.Errorf("%w: %v", ErrBadWatcherKey, err)
		}
		if len(sig) != mode3.SignatureSize {
			return fmt.Errorf("%w: bad dilithium3 signature length", ErrBadSignature)
		}
		if !mode3.Verify(&pk, msg, sig) {
			return ErrSignatureFailed
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedAlg, alg)
	}
}

// CountValid returns how many attestations verify over the branch digest.
// Invalid attestations are skipped, not fatal: a branch's count is the
// number of watchers that actually vouched, nothing more.
func CountValid(branchDigestHex string, atts []Attestation) uint32 {
	var n uint32
	for _, a := range atts {
		if Verify(branchDigestHex, a) == nil {
			n++
		}
	}
	return n
}

func preHash(hashAlg string, message []byte) ([]byte, error) {
	switch hashAlg {
	case "sha256":
		s := sha256.Sum256(message)
		return s[:], nil
	case "sha512":
		s := sha512.Sum512(message)
		return s[:], nil
	case "sha3-256":
		s := sha3.Sum256(message)
		return s[:], nil
	default:
		return nil, fmt.Errorf("%w: hash %q", ErrUnsupportedAlg, hashAlg)
	}
}

func decodeBase64(s string) ([]byte, error) {
	// Prefer standard padded encoding, but accept raw encoding too.
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}
