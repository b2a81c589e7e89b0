package httpmiddleware

import (
	"testing"
	"time"
)

func TestRateLimiterExhaustsAndRefills(t *testing.T) {
	l := NewRateLimiter(2, 60)
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	if !l.allow("1.2.3.4", now) {
		t.Fatalf("first request should pass")
	}
	if !l.allow("1.2.3.4", now) {
		t.Fatalf("second request should pass")
	}
	if l.allow("1.2.3.4", now) {
		t.Fatalf("bucket should be empty")
	}
	// another client has its own bucket
	if !l.allow("5.6.7.8", now) {
		t.Fatalf("separate client should not be limited")
	}
	// a minute later the bucket has refilled
	if !l.allow("1.2.3.4", now.Add(time.Minute)) {
		t.Fatalf("bucket should refill over time")
	}
}
