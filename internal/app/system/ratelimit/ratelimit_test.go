package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_AllowsBurstThenBlocks(t *testing.T) {
	l := New(3, time.Minute)
	defer l.Close()

	for i := 0; i < 3; i++ {
		if !l.Allow("k") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if l.Allow("k") {
		t.Error("fourth attempt should be limited")
	}
	if !l.Allow("other") {
		t.Error("keys are limited independently")
	}
	if l.Remaining("k") != 0 {
		t.Errorf("Remaining = %d, want 0", l.Remaining("k"))
	}

	l.Reset("k")
	if !l.Allow("k") {
		t.Error("Reset should restore the budget")
	}
}

func TestLimiter_Refills(t *testing.T) {
	l := New(2, time.Minute)
	defer l.Close()
	now := time.Now()
	l.now = func() time.Time { return now }

	l.Allow("k")
	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("budget should be exhausted")
	}
	now = now.Add(31 * time.Second)
	if !l.Allow("k") {
		t.Error("one token should have refilled after half the window")
	}
}

func TestLoginLimiter(t *testing.T) {
	ll := NewLoginLimiter(10)
	defer ll.Close()

	// email budget is 5 per 5 minutes
	for i := 0; i < 5; i++ {
		if ok, _ := ll.Check("10.0.0.1", "Alice@Example.com"); !ok {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if ok, reason := ll.Check("10.0.0.2", "alice@example.com"); ok || reason == "" {
		t.Error("sixth attempt on the same email should be blocked with a reason")
	}

	ll.ResetEmail("ALICE@example.com")
	if ok, _ := ll.Check("10.0.0.3", "alice@example.com"); !ok {
		t.Error("ResetEmail should restore the email budget")
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	if got := ClientIP(r); got != "192.0.2.1" {
		t.Errorf("ClientIP = %q", got)
	}
	r.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	if got := ClientIP(r); got != "203.0.113.5" {
		t.Errorf("ClientIP with XFF = %q", got)
	}
}
