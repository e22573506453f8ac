package middleware

import (
	"testing"
	"time"
)

func TestRateLimiterWindow(t *testing.T) {
	rl := &RateLimiter{
		limit:   3,
		window:  time.Minute,
		clients: make(map[string]*clientWindow),
	}
	now := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if !rl.allow("10.0.0.9", now) {
			t.Fatalf("request %d within limit was rejected", i+1)
		}
	}
	if rl.allow("10.0.0.9", now.Add(time.Second)) {
		t.Fatal("request over limit was allowed inside the window")
	}

	// Another IP has its own window.
	if !rl.allow("10.0.0.10", now) {
		t.Fatal("unrelated IP was throttled")
	}

	// Window rollover resets the count.
	if !rl.allow("10.0.0.9", now.Add(2*time.Minute)) {
		t.Fatal("request after window expiry was rejected")
	}
}
