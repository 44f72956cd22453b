package core

import (
	"strings"
	"testing"
)

func TestValidPassword(t *testing.T) {
	valid := []string{"abcdef12", "longpassword9", "A1bcdefgh"}
	for _, p := range valid {
		if !validPassword(p) {
			t.Errorf("password %q should be accepted", p)
		}
	}
	invalid := []string{"short1a", "allletters", "12345678", "", "a1"}
	for _, p := range invalid {
		if validPassword(p) {
			t.Errorf("password %q should be rejected", p)
		}
	}
}

func TestSafeRedirectPath(t *testing.T) {
	ok := []string{"/", "/customers", "/sites/3?tab=files"}
	for _, p := range ok {
		if !safeRedirectPath(p) {
			t.Errorf("path %q should be accepted", p)
		}
	}
	bad := []string{"", "customers", "//evil.example/phish", `/\evil.example`,
		"https://evil.example/", "javascript:alert(1)"}
	for _, p := range bad {
		if safeRedirectPath(p) {
			t.Errorf("path %q should be rejected", p)
		}
	}
}

func TestGenerateToken(t *testing.T) {
	a := generateToken(32)
	b := generateToken(32)
	if len(a) != 32 || len(b) != 32 {
		t.Fatalf("unexpected lengths %d, %d", len(a), len(b))
	}
	if a == b {
		t.Error("two tokens should not collide")
	}
}

func TestSessionCookieSigning(t *testing.T) {
	const secret = "test-secret"
	signed := signSessionID(secret, "session-id-123")

	id, ok := verifySessionCookie(secret, signed)
	if !ok {
		t.Fatal("valid signature rejected")
	}
	if id != "session-id-123" {
		t.Errorf("id = %q", id)
	}

	if _, ok := verifySessionCookie("other-secret", signed); ok {
		t.Error("signature from a different secret should be rejected")
	}

	// Flip a character in the mac.
	tampered := signed[:len(signed)-1] + "0"
	if tampered == signed {
		tampered = signed[:len(signed)-1] + "1"
	}
	if _, ok := verifySessionCookie(secret, tampered); ok {
		t.Error("tampered signature should be rejected")
	}

	// Swap the id but keep the old mac.
	idx := strings.LastIndex(signed, ".")
	forged := "other-session" + signed[idx:]
	if _, ok := verifySessionCookie(secret, forged); ok {
		t.Error("forged session id should be rejected")
	}

	if _, ok := verifySessionCookie(secret, "no-separator"); ok {
		t.Error("value without separator should be rejected")
	}
}
