package auth

import (
	"testing"
	"time"
)

func TestNextMidnight(t *testing.T) {
	issued := time.Date(2024, 1, 1, 23, 59, 50, 0, time.UTC)
	exp := NextMidnight(issued)
	want := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	if !exp.Equal(want) {
		t.Fatalf("expected %v, got %v", want, exp)
	}
	// a few seconds later the token must already be past expiry
	if !exp.Before(time.Date(2024, 1, 2, 0, 0, 1, 0, time.UTC)) {
		t.Fatalf("expected expiry before 00:00:01")
	}

	early := time.Date(2024, 1, 2, 0, 1, 0, 0, time.UTC)
	if got := NextMidnight(early); got.Sub(early) < 23*time.Hour {
		t.Fatalf("token issued just after midnight should last most of a day, got %v", got.Sub(early))
	}
}

func TestIssueDailyAndParse(t *testing.T) {
	now := time.Now()
	token, exp, err := IssueDaily("user-1", RoleTeacher, "rollbook", "secret", now)
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}
	if !exp.Equal(NextMidnight(now)) {
		t.Fatalf("expected expiry at next midnight, got %v", exp)
	}
	claims, err := Parse(token, "secret", "rollbook")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != RoleTeacher {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseRejectsExpired(t *testing.T) {
	issued := time.Date(2024, 1, 1, 23, 59, 50, 0, time.UTC)
	token, _, err := IssueDaily("user-1", RoleTeacher, "rollbook", "secret", issued)
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}
	if _, err := Parse(token, "secret", "rollbook"); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestParseRejectsWrongKeyAndIssuer(t *testing.T) {
	token, _, err := IssueDaily("user-1", RoleAdmin, "rollbook", "secret", time.Now())
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}
	if _, err := Parse(token, "other-secret", "rollbook"); err == nil {
		t.Fatalf("expected bad signature to be rejected")
	}
	if _, err := Parse(token, "secret", "someone-else"); err == nil {
		t.Fatalf("expected issuer mismatch to be rejected")
	}
}
