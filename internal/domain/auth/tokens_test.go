package auth

import (
	"testing"
	"time"
)

func TestIssueAndParseToken(t *testing.T) {
	secret := []byte("test-secret")
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

	raw, err := IssueToken(secret, "u-1", "co-1", RoleManager, time.Hour, now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := ParseToken(secret, raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "u-1" || claims.CompanyID != "co-1" || claims.Role != RoleManager {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	raw, err := IssueToken([]byte("secret-a"), "u-1", "co-1", RoleEmployee, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ParseToken([]byte("secret-b"), raw); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestParseTokenExpired(t *testing.T) {
	secret := []byte("test-secret")
	past := time.Now().Add(-2 * time.Hour)
	raw, err := IssueToken(secret, "u-1", "co-1", RoleEmployee, time.Hour, past)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ParseToken(secret, raw); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestHasPermission(t *testing.T) {
	if !HasPermission(RoleAdmin, PermJobsRun) {
		t.Fatal("admin should hold every permission")
	}
	if !HasPermission(RoleHR, PermBalanceAdjust) {
		t.Fatal("hr should adjust balances")
	}
	if HasPermission(RoleEmployee, PermLeaveApprove) {
		t.Fatal("employee must not approve leave")
	}
	if HasPermission(RoleManager, PermBalanceAdjust) {
		t.Fatal("manager must not adjust balances")
	}
}
