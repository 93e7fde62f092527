package middleware

import (
	"testing"
	"time"
)

func TestRateLimiterWindowSlides(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := newRateLimiter(1, func() time.Time { return now })

	if !rl.allow("a") {
		t.Fatal("first request should pass")
	}
	if rl.allow("a") {
		t.Fatal("second request inside the window should be limited")
	}
	if !rl.allow("b") {
		t.Fatal("keys are limited independently")
	}

	now = now.Add(61 * time.Second)
	if !rl.allow("a") {
		t.Fatal("request after the window should pass")
	}
	if _, ok := rl.requests["b"]; ok {
		t.Error("expected idle key swept")
	}
}
