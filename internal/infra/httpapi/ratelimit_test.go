package httpapi

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiter_PerClient(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)

	if !rl.Allow("10.0.0.1") || !rl.Allow("10.0.0.1") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("10.0.0.1") {
		t.Error("third request should be limited")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("other clients have their own bucket")
	}
}

func TestClientIP_IgnoresForwardingFromUntrustedPeers(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)

	req := httptest.NewRequest("POST", "/api/search", nil)
	req.RemoteAddr = "192.0.2.7:51234"
	if got := rl.clientIP(req); got != "192.0.2.7" {
		t.Errorf("remote addr: got %q", got)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	req.Header.Set("X-Real-IP", "203.0.113.10")
	if got := rl.clientIP(req); got != "192.0.2.7" {
		t.Errorf("spoofed headers must be ignored: got %q", got)
	}
}

func TestClientIP_TrustedProxy(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{"10.0.0.0/8", "192.0.2.1"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	rl := NewRateLimiter(2, time.Hour)
	rl.trusted = trusted

	req := httptest.NewRequest("POST", "/api/search", nil)
	req.RemoteAddr = "10.1.2.3:443"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.1.2.3")
	if got := rl.clientIP(req); got != "203.0.113.9" {
		t.Errorf("forwarded: got %q", got)
	}

	req = httptest.NewRequest("POST", "/api/search", nil)
	req.RemoteAddr = "192.0.2.1:8080"
	req.Header.Set("X-Real-IP", "198.51.100.4")
	if got := rl.clientIP(req); got != "198.51.100.4" {
		t.Errorf("real ip: got %q", got)
	}

	req = httptest.NewRequest("POST", "/api/search", nil)
	req.RemoteAddr = "192.0.2.2:8080"
	req.Header.Set("X-Real-IP", "198.51.100.4")
	if got := rl.clientIP(req); got != "192.0.2.2" {
		t.Errorf("peer outside the trusted set: got %q", got)
	}
}

func TestParseTrustedProxies_Invalid(t *testing.T) {
	if _, err := ParseTrustedProxies([]string{"not-an-ip"}); err == nil {
		t.Error("expected error for invalid entry")
	}
}
