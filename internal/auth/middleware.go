package auth

import (
	"net/http"
	"strings"
)

// Gate rejects requests without an authenticated session. API paths get a
// 401 JSON body, page navigation a redirect to the login page.
type Gate struct {
	Secret  []byte
	Store   Store
	Policy  Policy
	Enabled bool
}

// NewGate constructs a session gate.
func NewGate(secret []byte, store Store, policy Policy, enabled bool) *Gate {
	return &Gate{Secret: secret, Store: store, Policy: policy, Enabled: enabled}
}

// Wrap applies the gate to the handler.
func (g *Gate) Wrap(next http.Handler) http.Handler {
	if g == nil || !g.Enabled {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.Policy.IsExempt(r) {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			g.reject(w, r)
			return
		}
		claims, err := ParseToken(cookie.Value, g.Secret)
		if err != nil {
			g.reject(w, r)
			return
		}
		session, ok := g.Store.Get(claims.ID)
		if !ok || !session.Authenticated {
			g.reject(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), session.Subject)))
	})
}

func (g *Gate) reject(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ok":false,"error":"unauthorized"}`))
		return
	}
	http.Redirect(w, r, "/login.html", http.StatusFound)
}
