package services_test

import (
	"testing"
	"time"

	"mining-rewards-backend/internal/services"
)

func TestAdProofService(t *testing.T) {
	svc := services.NewAdProofService("test-secret")
	if !svc.Enabled() {
		t.Fatal("Service with a secret should be enabled")
	}

	token, err := svc.SignAdToken("user-1", "rewarded", time.Minute)
	if err != nil {
		t.Fatalf("Failed to sign ad token: %v", err)
	}

	claims, err := svc.VerifyAdToken(token, "user-1")
	if err != nil {
		t.Fatalf("Failed to verify ad token: %v", err)
	}
	if claims.AdType != "rewarded" {
		t.Errorf("Expected ad type rewarded, got %s", claims.AdType)
	}

	if _, err := svc.VerifyAdToken(token, "user-2"); err == nil {
		t.Error("Token for user-1 should not verify for user-2")
	}

	other := services.NewAdProofService("other-secret")
	if _, err := other.VerifyAdToken(token, "user-1"); err == nil {
		t.Error("Token signed with a different secret should not verify")
	}
}

func TestAdProofServiceDisabled(t *testing.T) {
	svc := services.NewAdProofService("")
	if svc.Enabled() {
		t.Error("Service without a secret should be disabled")
	}
	if _, err := svc.SignAdToken("user-1", "rewarded", time.Minute); err == nil {
		t.Error("Signing should fail when disabled")
	}
	if _, err := svc.VerifyAdToken("whatever", "user-1"); err == nil {
		t.Error("Verification should fail when disabled")
	}
}
