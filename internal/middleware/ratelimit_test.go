package middleware

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	l := NewInMemoryRateLimiter(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !l.Allow("1.2.3.4") {
			t.Fatalf("request %d denied under limit", i+1)
		}
	}
	if l.Allow("1.2.3.4") {
		t.Error("request over limit allowed")
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	l := NewInMemoryRateLimiter(1, time.Minute)
	if !l.Allow("a") {
		t.Fatal("first key denied")
	}
	if !l.Allow("b") {
		t.Error("second key denied after first key's quota used")
	}
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	l := NewInMemoryRateLimiter(1, 10*time.Millisecond)
	if !l.Allow("a") {
		t.Fatal("first request denied")
	}
	if l.Allow("a") {
		t.Fatal("second request inside window allowed")
	}
	time.Sleep(20 * time.Millisecond)
	if !l.Allow("a") {
		t.Error("request after window expiry denied")
	}
}
