package fork

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func branchDigest(name string) string {
	sum := sha256.Sum256([]byte(name))
	return hex.EncodeToString(sum[:])
}

func mkBranch(name string, ts time.Time, atts uint32) Branch {
	return Branch{
		ReceiptDigest:   branchDigest(name),
		Timestamp:       ts,
		Attestations:    atts,
		ClaimedNextRoot: branchDigest(name + "-next"),
	}
}

func TestIsFork(t *testing.T) {
	a := mkBranch("a", t0, 1)
	same := mkBranch("a", t0.Add(time.Hour), 99)
	if IsFork(a, same) {
		t.Fatalf("identical digests must not be a fork")
	}
	if !IsFork(a, mkBranch("b", t0, 1)) {
		t.Fatalf("distinct digests must be a fork")
	}
}

func TestResolve_AttestationCountWithinSkew(t *testing.T) {
	a := mkBranch("a", t0, 2)
	b := mkBranch("b", t0, 7)
	res, err := Resolve(a, b)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Winner != b.ReceiptDigest || res.Reason != ReasonAttestations {
		t.Fatalf("expected b to win by attestation count, got %+v", res)
	}
}

func TestResolve_EarlierTimestampBeatsAttestationsBeyondSkew(t *testing.T) {
	c := mkBranch("c", t0, 1)
	d := mkBranch("d", t0.Add(10*time.Minute), 100)
	res, err := Resolve(c, d)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Winner != c.ReceiptDigest || res.Reason != ReasonEarlierTimestamp {
		t.Fatalf("expected c to win by earlier timestamp, got %+v", res)
	}
}

func TestResolve_SkewToleranceBoundary(t *testing.T) {
	// Exactly at the tolerance: still "effectively simultaneous".
	a := mkBranch("a", t0, 3)
	b := mkBranch("b", t0.Add(MaxClockSkew), 1)
	res, err := Resolve(a, b)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Reason != ReasonAttestations || res.Winner != a.ReceiptDigest {
		t.Fatalf("at tolerance, attestations must decide: %+v", res)
	}

	// One second past it: timestamp decides.
	b = mkBranch("b", t0.Add(MaxClockSkew+time.Second), 100)
	res, err = Resolve(a, b)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Reason != ReasonEarlierTimestamp || res.Winner != a.ReceiptDigest {
		t.Fatalf("past tolerance, earlier timestamp must decide: %+v", res)
	}
}

func TestResolve_DigestOrderBreaksExactTies(t *testing.T) {
	a := mkBranch("a", t0, 4)
	b := mkBranch("b", t0, 4)
	res, err := Resolve(a, b)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Reason != ReasonDigestOrder {
		t.Fatalf("expected digest-order tie break, got %+v", res)
	}
	want := a.ReceiptDigest
	if b.ReceiptDigest < want {
		want = b.ReceiptDigest
	}
	if res.Winner != want {
		t.Fatalf("lexicographically smaller digest must win")
	}
}

func TestResolve_SymmetryAndTotality(t *testing.T) {
	branches := []Branch{
		mkBranch("p", t0, 1),
		mkBranch("q", t0, 1),
		mkBranch("r", t0.Add(time.Minute), 5),
		mkBranch("s", t0.Add(20*time.Minute), 50),
		mkBranch("u", t0.Add(-20*time.Minute), 0),
	}
	for i := range branches {
		for j := range branches {
			if i == j {
				continue
			}
			ab, err := Resolve(branches[i], branches[j])
			if err != nil {
				t.Fatalf("Resolve(%d,%d) failed: %v", i, j, err)
			}
			ba, err := Resolve(branches[j], branches[i])
			if err != nil {
				t.Fatalf("Resolve(%d,%d) failed: %v", j, i, err)
			}
			if ab != ba {
				t.Fatalf("resolution not symmetric for pair (%d,%d): %+v vs %+v", i, j, ab, ba)
			}
			if ab.Winner == ab.Loser {
				t.Fatalf("resolution must name exactly one winner")
			}
		}
	}
}

func TestResolve_RejectsSameBranchAndMalformedDigests(t *testing.T) {
	a := mkBranch("a", t0, 1)
	if _, err := Resolve(a, a); !errors.Is(err, ErrNotAFork) {
		t.Fatalf("expected ErrNotAFork, got %v", err)
	}

	bad := a
	bad.ReceiptDigest = "not-hex"
	if _, err := Resolve(bad, mkBranch("b", t0, 1)); !errors.Is(err, ErrBadBranch) {
		t.Fatalf("expected ErrBadBranch, got %v", err)
	}

	zero := mkBranch("z", time.Time{}, 1)
	if _, err := Resolve(a, zero); !errors.Is(err, ErrBadBranch) {
		t.Fatalf("expected ErrBadBranch for zero timestamp, got %v", err)
	}
}

func TestDetector_QueueAndDrain(t *testing.T) {
	d := NewDetectorWithClock(func() time.Time { return t0 })

	queued, err := d.Observe(mkBranch("a", t0, 1), mkBranch("a", t0, 2))
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if queued {
		t.Fatalf("same branch must not queue a fork")
	}

	for i := 0; i < 3; i++ {
		a := mkBranch(fmt.Sprintf("left-%d", i), t0, 1)
		b := mkBranch(fmt.Sprintf("right-%d", i), t0, 2)
		queued, err := d.Observe(a, b)
		if err != nil {
			t.Fatalf("Observe failed: %v", err)
		}
		if !queued {
			t.Fatalf("expected fork to queue")
		}
	}
	if d.Pending() != 3 {
		t.Fatalf("pending: got %d want 3", d.Pending())
	}

	resolutions, err := d.Drain()
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if len(resolutions) != 3 {
		t.Fatalf("resolutions: got %d want 3", len(resolutions))
	}
	if d.Pending() != 0 {
		t.Fatalf("queue not drained")
	}
}

func TestDetector_EnforcesFutureDriftBound(t *testing.T) {
	d := NewDetectorWithClock(func() time.Time { return t0 })
	future := mkBranch("f", t0.Add(MaxFutureDrift+time.Second), 1)
	if _, err := d.Observe(future, mkBranch("g", t0, 1)); !errors.Is(err, ErrFutureTimestamp) {
		t.Fatalf("expected ErrFutureTimestamp, got %v", err)
	}
	// At the bound is acceptable.
	edge := mkBranch("e", t0.Add(MaxFutureDrift), 1)
	if _, err := d.Observe(edge, mkBranch("g", t0, 1)); err != nil {
		t.Fatalf("Observe at bound failed: %v", err)
	}
}
