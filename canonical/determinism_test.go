package canonical

import (
	"testing"
)

// receiptLike mirrors the shape of records the chain digests, without
// depending on the chain package.
func receiptLike() map[string]any {
	return map[string]any{
		"receiptType": "settlement",
		"corridor":    "corridor-usd-eur",
		"sequence":    7,
		"timestamp":   "2026-03-01T12:00:00Z",
		"prevRoot":    "0000000000000000000000000000000000000000000000000000000000000000",
		"lawpackDigests": []any{
			"sha256:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
			"sha256:bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		},
	}
}

func TestDeterminism_RepeatedCanonicalizationIsByteIdentical(t *testing.T) {
	var golden string
	for run := 0; run < 50; run++ {
		b, err := Canonicalize(receiptLike())
		if err != nil {
			t.Fatalf("Canonicalize failed: %v", err)
		}
		if golden == "" {
			golden = b.String()
			continue
		}
		if b.String() != golden {
			t.Fatalf("canonical bytes changed across runs")
		}
	}
}

func TestDeterminism_DigestOfIdenticalBytesIsIdentical(t *testing.T) {
	b1, err := Canonicalize(receiptLike())
	if err != nil {
		t.Fatalf("Canonicalize failed: %v", err)
	}
	b2, err := Canonicalize(receiptLike())
	if err != nil {
		t.Fatalf("Canonicalize failed: %v", err)
	}
	if Sum(b1) != Sum(b2) {
		t.Fatalf("digest differs for identical canonical bytes")
	}
}

func TestDeterminism_FieldOrderDoesNotAffectDigest(t *testing.T) {
	a := map[string]any{"x": 1, "y": []any{"p", "q"}, "z": "2026-03-01T12:00:00Z"}
	b := map[string]any{"z": "2026-03-01T14:30:00+02:30", "y": []any{"p", "q"}, "x": 1}

	da, err := CanonicalDigest(a)
	if err != nil {
		t.Fatalf("CanonicalDigest(a) failed: %v", err)
	}
	db, err := CanonicalDigest(b)
	if err != nil {
		t.Fatalf("CanonicalDigest(b) failed: %v", err)
	}
	if da != db {
		t.Fatalf("semantically equal records digest differently: %s vs %s", da, db)
	}
}
