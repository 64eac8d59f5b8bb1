package canonical

import (
	"strings"
	"testing"
)

func TestDigest_DisplayForms(t *testing.T) {
	d := Sum(MustCanonicalize(map[string]any{"k": "v"}))
	if d.Algorithm() != SHA256 {
		t.Fatalf("default algorithm: got %s", d.Algorithm())
	}
	hexForm := d.Hex()
	if len(hexForm) != 64 {
		t.Fatalf("hex form must be 64 chars, got %d", len(hexForm))
	}
	if hexForm != strings.ToLower(hexForm) {
		t.Fatalf("hex form must be lowercase")
	}
	if d.String() != "sha256:"+hexForm {
		t.Fatalf("display form mismatch: %s", d.String())
	}
}

func TestDigest_AlgorithmsDisagree(t *testing.T) {
	b := MustCanonicalize(map[string]any{"k": "v"})
	d1 := Sum(b)
	d2, err := SumWithAlg(b, SHA3256)
	if err != nil {
		t.Fatalf("SumWithAlg failed: %v", err)
	}
	if d1.Hex() == d2.Hex() {
		t.Fatalf("sha256 and sha3-256 should not collide on the same bytes")
	}
	if _, err := SumWithAlg(b, Algorithm("md5")); err == nil {
		t.Fatalf("expected rejection of unsupported algorithm")
	}
}

func TestParseDigest_RoundTrip(t *testing.T) {
	want := Sum(MustCanonicalize([]any{"round", "trip"}))
	got, err := ParseDigest(want.String())
	if err != nil {
		t.Fatalf("ParseDigest failed: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: %s vs %s", got, want)
	}
}

func TestParseDigest_RejectsMalformedInput(t *testing.T) {
	bad := []string{
		"",
		"sha256",
		"sha256:",
		"sha256:abcd",
		"sha256:" + strings.Repeat("g", 64),
		"sha256:" + strings.Repeat("A", 64),
		"md5:" + strings.Repeat("a", 64),
		strings.Repeat("a", 64),
	}
	for _, s := range bad {
		if _, err := ParseDigest(s); err == nil {
			t.Fatalf("expected rejection of %q", s)
		}
	}
}

func TestValidateHex(t *testing.T) {
	good := strings.Repeat("0123456789abcdef", 4)
	if err := ValidateHex(good); err != nil {
		t.Fatalf("valid hex rejected: %v", err)
	}
	bad := []string{
		strings.Repeat("a", 63),
		strings.Repeat("a", 65),
		strings.Repeat("A", 64),
		strings.Repeat("a", 63) + "g",
		"",
	}
	for _, s := range bad {
		if err := ValidateHex(s); err == nil {
			t.Fatalf("expected rejection of %q", s)
		}
	}
}
