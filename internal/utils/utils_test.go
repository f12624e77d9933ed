package utils

import "testing"

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter22", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "hunter22" {
		t.Fatalf("password stored in the clear")
	}
	if !VerifyPassword(hash, "hunter22") {
		t.Fatalf("correct password rejected")
	}
	if VerifyPassword(hash, "hunter23") {
		t.Fatalf("wrong password accepted")
	}
}

func TestHashRefreshRawIsStable(t *testing.T) {
	a := HashRefreshRaw("token")
	b := HashRefreshRaw("token")
	if a != b {
		t.Fatalf("hash not deterministic: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("hash length = %d, want 64 hex chars", len(a))
	}
	if HashRefreshRaw("other") == a {
		t.Fatalf("distinct tokens collide")
	}
}

func TestRandomHexLengthAndUniqueness(t *testing.T) {
	a, err := RandomHex(48)
	if err != nil {
		t.Fatalf("random: %v", err)
	}
	b, err := RandomHex(48)
	if err != nil {
		t.Fatalf("random: %v", err)
	}
	if len(a) != 96 || a == b {
		t.Fatalf("bad random tokens: %q %q", a, b)
	}
}
