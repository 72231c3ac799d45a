package apihandler

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
)

const (
	csrfCookieName = "csrftoken"
	csrfHeaderName = "X-CSRFToken"
	csrfTokenBytes = 32
)

// csrfFailedDetail mirrors the framework wording the panel's backend uses.
const csrfFailedDetail = "CSRF Failed: CSRF token missing or incorrect."

// csrfMiddleware implements the csrftoken handshake: GET responses carry the
// token cookie, and every state-changing request must echo the cookie value
// in the X-CSRFToken header. The names are part of the wire contract.
func csrfMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			ensureCSRFCookie(w, r)
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(csrfCookieName)
		if err != nil || cookie.Value == "" || r.Header.Get(csrfHeaderName) != cookie.Value {
			writeDetail(w, http.StatusForbidden, csrfFailedDetail)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ensureCSRFCookie sets the csrftoken cookie unless the request already
// carries one. The cookie is intentionally readable by scripts; the
// double-submit scheme depends on it.
func ensureCSRFCookie(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(csrfCookieName); err == nil && cookie.Value != "" {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    generateToken(),
		Path:     "/",
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
	})
}

func generateToken() string {
	b := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(b); err != nil {
		panic("csrf: failed to generate random token: " + err.Error())
	}
	return hex.EncodeToString(b)
}
