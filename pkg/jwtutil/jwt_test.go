package jwtutil

import (
	"strings"
	"testing"

	"github.com/xadn01/finnepal/pkg/config"
)

func testConfig(hours int) *config.JWTConfig {
	return &config.JWTConfig{
		SigningKey:      "test-signing-key",
		ExpirationHours: hours,
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	Initialize(testConfig(1))

	token, err := GenerateToken("ram@example.com", 42)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("token does not look like a JWT: %q", token)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.Email != "ram@example.com" || claims.UserID != 42 {
		t.Errorf("claims = %+v, want email/user_id round-tripped", claims)
	}
	if claims.TenantID != nil {
		t.Errorf("TenantID = %v, want nil without tenant context", claims.TenantID)
	}
}

func TestGenerateTokenWithTenant(t *testing.T) {
	Initialize(testConfig(1))

	tenantID := uint(7)
	token, err := GenerateTokenWithTenant("sita@example.com", 9, &tenantID, "Everest Traders", "owner")
	if err != nil {
		t.Fatalf("GenerateTokenWithTenant() error = %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.TenantID == nil || *claims.TenantID != 7 {
		t.Fatalf("TenantID = %v, want 7", claims.TenantID)
	}
	if claims.TenantName != "Everest Traders" || claims.Role != "owner" {
		t.Errorf("tenant claims = %q/%q, want Everest Traders/owner", claims.TenantName, claims.Role)
	}
}

func TestValidateToken_Expired(t *testing.T) {
	// Negative expiration puts ExpiresAt in the past.
	Initialize(testConfig(-1))
	token, err := GenerateToken("old@example.com", 1)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	Initialize(testConfig(1))
	if _, err := ValidateToken(token); err == nil {
		t.Fatalf("ValidateToken() accepted an expired token")
	}
}

func TestValidateToken_WrongKey(t *testing.T) {
	Initialize(testConfig(1))
	token, err := GenerateToken("eve@example.com", 2)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	Initialize(&config.JWTConfig{SigningKey: "other-key", ExpirationHours: 1})
	if _, err := ValidateToken(token); err == nil {
		t.Fatalf("ValidateToken() accepted a token signed with a different key")
	}
}

func TestUninitialized(t *testing.T) {
	jwtConfig = nil
	defer Initialize(testConfig(1))

	if _, err := GenerateToken("a@b.c", 1); err == nil {
		t.Errorf("GenerateToken() succeeded without configuration")
	}
	if _, err := ValidateToken("whatever"); err == nil {
		t.Errorf("ValidateToken() succeeded without configuration")
	}
}
