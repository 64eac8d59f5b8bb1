package mmr

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"
)

func testLeaf(i int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("leaf-%d", i)))
	return hex.EncodeToString(sum[:])
}

func testLeaves(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = testLeaf(i)
	}
	return out
}

func TestEmptyMMR(t *testing.T) {
	m := New()
	if m.Size() != 0 {
		t.Fatalf("empty size: got %d", m.Size())
	}
	if m.Root() != "" {
		t.Fatalf("empty root must be empty string, got %q", m.Root())
	}
	if _, err := m.Proof(0); err == nil {
		t.Fatalf("expected proof error on empty MMR")
	}
}

func TestAppend_RejectsMalformedLeavesWithoutMutation(t *testing.T) {
	m := New()
	if err := m.Append(testLeaf(0)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	rootBefore, sizeBefore := m.Root(), m.Size()

	bad := []string{
		"",
		"abc",
		strings.Repeat("a", 63),
		strings.Repeat("a", 65),
		strings.Repeat("A", 64),
		strings.Repeat("a", 63) + "z",
	}
	for _, leaf := range bad {
		if err := m.Append(leaf); err == nil {
			t.Fatalf("expected rejection of leaf %q", leaf)
		}
	}
	if m.Root() != rootBefore || m.Size() != sizeBefore {
		t.Fatalf("rejected append mutated state")
	}
}

func TestBatchIncrementalEquivalence(t *testing.T) {
	for n := 0; n <= 40; n++ {
		leaves := testLeaves(n)

		inc := New()
		for _, l := range leaves {
			if err := inc.Append(l); err != nil {
				t.Fatalf("n=%d: Append failed: %v", n, err)
			}
		}
		batch, err := FromLeaves(leaves)
		if err != nil {
			t.Fatalf("n=%d: FromLeaves failed: %v", n, err)
		}

		if inc.Size() != batch.Size() {
			t.Fatalf("n=%d: size mismatch: %d vs %d", n, inc.Size(), batch.Size())
		}
		if inc.Root() != batch.Root() {
			t.Fatalf("n=%d: root mismatch: %s vs %s", n, inc.Root(), batch.Root())
		}
	}
}

func TestRoot_IsPureFunctionOfLeafSequence(t *testing.T) {
	a, err := FromLeaves(testLeaves(5))
	if err != nil {
		t.Fatalf("FromLeaves failed: %v", err)
	}
	b, err := FromLeaves(testLeaves(5))
	if err != nil {
		t.Fatalf("FromLeaves failed: %v", err)
	}
	if a.Root() != b.Root() {
		t.Fatalf("same leaves must give same root")
	}

	reversed := testLeaves(5)
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	c, err := FromLeaves(reversed)
	if err != nil {
		t.Fatalf("FromLeaves failed: %v", err)
	}
	if a.Root() == c.Root() {
		t.Fatalf("leaf order must change the root")
	}
}

func TestRoot_ChangesOnEveryAppend(t *testing.T) {
	m := New()
	seen := map[string]bool{"": true}
	for i := 0; i < 20; i++ {
		if err := m.Append(testLeaf(i)); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		root := m.Root()
		if len(root) != 64 {
			t.Fatalf("root must be 64 hex chars, got %q", root)
		}
		if seen[root] {
			t.Fatalf("root repeated after append %d", i)
		}
		seen[root] = true
	}
}

func TestProof_ValidForEveryIndex(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 7, 8, 11, 16, 21} {
		m, err := FromLeaves(testLeaves(n))
		if err != nil {
			t.Fatalf("FromLeaves failed: %v", err)
		}
		for i := uint64(0); i < uint64(n); i++ {
			p, err := m.Proof(i)
			if err != nil {
				t.Fatalf("n=%d: Proof(%d) failed: %v", n, i, err)
			}
			if !Verify(p) {
				t.Fatalf("n=%d: proof for index %d did not verify", n, i)
			}
		}
		if _, err := m.Proof(uint64(n)); err == nil {
			t.Fatalf("n=%d: expected out-of-range error", n)
		}
	}
}

func TestVerify_RejectsTamperedProofs(t *testing.T) {
	m, err := FromLeaves(testLeaves(11))
	if err != nil {
		t.Fatalf("FromLeaves failed: %v", err)
	}
	good, err := m.Proof(5)
	if err != nil {
		t.Fatalf("Proof failed: %v", err)
	}
	if !Verify(good) {
		t.Fatalf("control proof did not verify")
	}

	tampered := good
	tampered.Leaf = testLeaf(999)
	if Verify(tampered) {
		t.Fatalf("verification passed with substituted leaf")
	}

	tampered = good
	tampered.Root = testLeaf(998)
	if Verify(tampered) {
		t.Fatalf("verification passed with wrong root")
	}

	tampered = good
	if len(tampered.Path) > 0 {
		path := append([]ProofStep(nil), good.Path...)
		path[0].Right = !path[0].Right
		tampered.Path = path
		if Verify(tampered) {
			t.Fatalf("verification passed with flipped sibling side")
		}
	}

	tampered = good
	tampered.Size = good.Size + 1
	if Verify(tampered) {
		t.Fatalf("verification passed with inconsistent size")
	}
}

func TestVerify_RejectsRelabeledIndex(t *testing.T) {
	// 11 leaves: mountains of 8, 2, and 1. Cover relabels inside the same
	// mountain, into other mountains, and across every size's positions.
	for _, size := range []int{2, 3, 8, 11, 16, 21} {
		m, err := FromLeaves(testLeaves(size))
		if err != nil {
			t.Fatalf("FromLeaves(%d) failed: %v", size, err)
		}
		for idx := uint64(0); idx < uint64(size); idx++ {
			good, err := m.Proof(idx)
			if err != nil {
				t.Fatalf("Proof(%d) failed: %v", idx, err)
			}
			if !Verify(good) {
				t.Fatalf("size %d: control proof for %d did not verify", size, idx)
			}
			for other := uint64(0); other < uint64(size); other++ {
				if other == idx {
					continue
				}
				relabeled := good
				relabeled.Index = other
				if Verify(relabeled) {
					t.Fatalf("size %d: proof for leaf %d verified after relabeling index to %d",
						size, idx, other)
				}
			}
		}
	}
}
