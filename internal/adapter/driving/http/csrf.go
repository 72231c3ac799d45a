package httphandler

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
)

const (
	csrfCookieName = "csrf_token"
	csrfHeaderName = "X-CSRF-Token"
	csrfTokenBytes = 32
)

// csrfMiddleware applies double-submit CSRF protection to the panel's own
// API: GET requests receive a token cookie, state-changing requests must
// echo it in the X-CSRF-Token header. This is the panel's inbound
// protection; the backend's csrftoken handshake is handled separately by
// the comment API client.
func csrfMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			ensureCSRFCookie(w, r)
			next.ServeHTTP(w, r)
			return
		}

		if !validateCSRF(r) {
			writeError(w, http.StatusForbidden, "invalid or missing CSRF token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ensureCSRFCookie sets a CSRF token cookie on the response unless the
// request already carries one.
func ensureCSRFCookie(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(csrfCookieName); err == nil && cookie.Value != "" {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    generateToken(),
		Path:     "/",
		HttpOnly: false, // readable by the page script to set the header
		SameSite: http.SameSiteStrictMode,
		Secure:   false, // set true when served over HTTPS
	})
}

// validateCSRF checks that the header token matches the cookie. Returns
// true if both are present and equal.
func validateCSRF(r *http.Request) bool {
	cookie, err := r.Cookie(csrfCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}

	token := r.Header.Get(csrfHeaderName)
	return token != "" && token == cookie.Value
}

func generateToken() string {
	b := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(b); err != nil {
		panic("csrf: failed to generate random token: " + err.Error())
	}
	return hex.EncodeToString(b)
}
