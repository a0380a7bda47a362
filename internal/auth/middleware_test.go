package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var testSecret = []byte("gate-test-secret")

func newTestGate(store Store) *Gate {
	policy := NewDefaultPolicy([]string{"/healthz", "/api/login", "/login.html"}, nil)
	return NewGate(testSecret, store, policy, true)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok:" + SubjectFromContext(r.Context())))
	})
}

func TestGate_APIWithoutSessionIs401JSON(t *testing.T) {
	gate := newTestGate(NewMemoryStore())
	handler := gate.Wrap(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/devices", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected json body: %v", err)
	}
	if body["ok"] != false || body["error"] != "unauthorized" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestGate_PageWithoutSessionRedirects(t *testing.T) {
	gate := newTestGate(NewMemoryStore())
	handler := gate.Wrap(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.Code)
	}
	if loc := resp.Header().Get("Location"); loc != "/login.html" {
		t.Fatalf("expected redirect to login page, got %q", loc)
	}
}

func TestGate_ExemptPathsPass(t *testing.T) {
	gate := newTestGate(NewMemoryStore())
	handler := gate.Wrap(okHandler())

	for _, path := range []string{"/healthz", "/api/login", "/login.html"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("path %s: expected 200, got %d", path, resp.Code)
		}
	}
}

func TestGate_ValidSessionPassesSubject(t *testing.T) {
	store := NewMemoryStore()
	store.Put("s1", Session{Authenticated: true, Subject: "admin", ExpiresAt: time.Now().Add(time.Hour)})
	token, err := NewToken("s1", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}

	gate := newTestGate(store)
	handler := gate.Wrap(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/devices", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "ok:admin") {
		t.Fatalf("expected subject in context, got %q", resp.Body.String())
	}
}

func TestGate_RevokedSessionRejected(t *testing.T) {
	store := NewMemoryStore()
	store.Put("s1", Session{Authenticated: true, Subject: "admin", ExpiresAt: time.Now().Add(time.Hour)})
	token, err := NewToken("s1", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}
	// token still cryptographically valid, but the store entry is gone
	store.Delete("s1")

	gate := newTestGate(store)
	handler := gate.Wrap(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/devices", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after revocation, got %d", resp.Code)
	}
}

func TestGate_DisabledPassesEverything(t *testing.T) {
	gate := NewGate(nil, nil, Policy{}, false)
	handler := gate.Wrap(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/devices", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with gate disabled, got %d", resp.Code)
	}
}
