package auth

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"govee-panel/internal/observability/metrics"

	"github.com/google/uuid"
)

// Credentials is the single shared operator credential.
type Credentials struct {
	Username string
	Password string
}

// Handler serves login and logout.
type Handler struct {
	creds  Credentials
	secret []byte
	store  Store
	ttl    time.Duration
}

// NewHandler constructs a login handler.
func NewHandler(creds Credentials, secret []byte, store Store, ttl time.Duration) (*Handler, error) {
	if store == nil {
		return nil, errors.New("auth handler: nil store")
	}
	if len(secret) == 0 {
		return nil, errors.New("auth handler: empty secret")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Handler{creds: creds, secret: secret, store: store, ttl: ttl}, nil
}

// ServeHTTP handles POST /api/login and POST /api/logout.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	switch r.URL.Path {
	case "/api/login":
		h.handleLogin(w, r)
	case "/api/logout":
		h.handleLogout(w, r)
	default:
		http.NotFound(w, r)
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "invalid json"})
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.creds.Username))
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.creds.Password))
	if userOK&passOK != 1 {
		metrics.IncLogin(metrics.ResultError)
		writeJSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "error": "invalid credentials"})
		return
	}

	sessionID := uuid.NewString()
	h.store.Put(sessionID, Session{
		Authenticated: true,
		Subject:       req.Username,
		ExpiresAt:     time.Now().Add(h.ttl),
	})
	token, err := NewToken(sessionID, h.secret, h.ttl)
	if err != nil {
		h.store.Delete(sessionID)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "session signing failed"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	metrics.IncLogin(metrics.ResultSuccess)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if claims, err := ParseToken(cookie.Value, h.secret); err == nil {
			h.store.Delete(claims.ID)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
