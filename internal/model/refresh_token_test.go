package model

import (
	"strings"
	"testing"
	"time"
)

func TestRefreshTokenValidity(t *testing.T) {
	valid := RefreshToken{ExpiresAt: time.Now().Add(time.Hour)}
	if valid.IsExpired() {
		t.Error("token expiring in an hour reported expired")
	}
	if !valid.IsValid() {
		t.Error("unrevoked unexpired token reported invalid")
	}

	expired := RefreshToken{ExpiresAt: time.Now().Add(-time.Minute)}
	if !expired.IsExpired() {
		t.Error("past token not reported expired")
	}
	if expired.IsValid() {
		t.Error("expired token reported valid")
	}

	revoked := RefreshToken{ExpiresAt: time.Now().Add(time.Hour), Revoked: true}
	if revoked.IsValid() {
		t.Error("revoked token reported valid")
	}
}

func TestGenerateSecureToken(t *testing.T) {
	a := generateSecureToken()
	b := generateSecureToken()
	if a == b {
		t.Error("two generated tokens are identical")
	}
	if len(a) < 32 {
		t.Errorf("token too short: %d chars", len(a))
	}
	if strings.ContainsAny(a, "+/=") {
		t.Errorf("token %q contains non-URL-safe characters", a)
	}
}

func TestGenerateSecureID(t *testing.T) {
	id := generateSecureID("ref_")
	if !strings.HasPrefix(id, "ref_") {
		t.Errorf("id %q missing ref_ prefix", id)
	}
	if id == generateSecureID("ref_") {
		t.Error("two generated IDs are identical")
	}
}
