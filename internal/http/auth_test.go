package handlers_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"shopadmin/internal/session"
)

func TestLoginStoresSessionAndSetsCookie(t *testing.T) {
	h := newHarness(t)
	h.get("/login")
	resp := h.postForm("/login", url.Values{"email": {"alice@shop.test"}, "password": {goodPassword}})
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/" {
		t.Fatalf("expected redirect to /, got %q", loc)
	}
	if h.jar["userToken"] != backendToken {
		t.Fatalf("userToken cookie = %q", h.jar["userToken"])
	}

	snap := h.store.For(h.jar["sid"]).(*session.MemoryStorage).Snapshot()
	if len(snap) != 2 || snap[session.TokenKey] != backendToken {
		t.Fatalf("unexpected storage after login: %v", snap)
	}
	if !strings.Contains(snap[session.UserKey], `"email":"alice@shop.test"`) {
		t.Fatalf("user record not stored: %s", snap[session.UserKey])
	}

	e, ok := h.find("auth.login.success")
	if !ok || e.Level != "audit" {
		t.Fatalf("expected audit entry for login, got %+v", h.entries())
	}
	if strings.Contains(h.logs.String(), goodPassword) || strings.Contains(h.logs.String(), backendToken) {
		t.Fatal("log leaked credentials")
	}

	home := h.get("/")
	if home.StatusCode != http.StatusOK {
		t.Fatalf("dashboard after login: %d", home.StatusCode)
	}
	if b := body(t, home); !strings.Contains(b, "alice@shop.test") {
		t.Fatalf("header should show the user; body=%s", b)
	}
}

func TestLoginShowsBackendMessage(t *testing.T) {
	h := newHarness(t)
	h.get("/login")
	resp := h.postForm("/login", url.Values{"email": {"alice@shop.test"}, "password": {"wrong"}})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if b := body(t, resp); !strings.Contains(b, "Invalid credentials") {
		t.Fatalf("backend message missing; body=%s", b)
	}
	if _, ok := h.jar["userToken"]; ok {
		t.Fatal("failed login must not set the session cookie")
	}
	if snap := h.store.For(h.jar["sid"]).(*session.MemoryStorage).Snapshot(); len(snap) != 0 {
		t.Fatalf("failed login stored data: %v", snap)
	}
	if e, ok := h.find("auth.login.fail"); !ok || e.Level != "warn" {
		t.Fatalf("expected security entry, got %+v", h.entries())
	}
}

func TestLoginRejectsMalformedEmailLocally(t *testing.T) {
	h := newHarness(t)
	h.get("/login")
	resp := h.postForm("/login", url.Values{"email": {"not-an-email"}, "password": {goodPassword}})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if b := body(t, resp); !strings.Contains(b, "Please enter a valid email address.") {
		t.Fatalf("format message missing; body=%s", b)
	}
}

func TestLoginThrottle(t *testing.T) {
	h := newHarnessWith(t, harnessOpts{loginMax: 2, importAdminOnly: true})
	h.get("/login")
	for i := 0; i < 2; i++ {
		resp := h.postForm("/login", url.Values{"email": {"alice@shop.test"}, "password": {"wrong"}})
		if resp.StatusCode == http.StatusTooManyRequests {
			t.Fatalf("throttled too early at %d", i)
		}
	}
	resp := h.postForm("/login", url.Values{"email": {"alice@shop.test"}, "password": {"wrong"}})
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
}

func TestLogoutClearsSessionAndRedirects(t *testing.T) {
	h := newHarness(t)
	h.login("alice@shop.test")
	sid := h.jar["sid"]

	resp := h.postForm("/logout", url.Values{})
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %q", loc)
	}
	if _, ok := h.jar["userToken"]; ok {
		t.Fatal("session cookie not cleared")
	}
	if snap := h.store.For(sid).(*session.MemoryStorage).Snapshot(); len(snap) != 0 {
		t.Fatalf("storage not cleared: %v", snap)
	}

	after := h.get("/get-products")
	if after.StatusCode != http.StatusTemporaryRedirect || after.Header.Get("Location") != "/login" {
		t.Fatalf("expected gate redirect after logout, got %d %q", after.StatusCode, after.Header.Get("Location"))
	}
}
