package server

import (
	"crypto/subtle"
	"net/http"
)

// Authenticator decides whether a spectator may connect.
type Authenticator interface {
	Authenticate(r *http.Request) error
}

// TokenAuth accepts requests carrying the shared token in the "token" query
// parameter or as a bearer token. An empty token accepts everyone.
type TokenAuth struct {
	Token string
}

func (a TokenAuth) Authenticate(r *http.Request) error {
	if a.Token == "" {
		return nil
	}
	got := r.URL.Query().Get("token")
	if got == "" {
		if h := r.Header.Get("Authorization"); len(h) > 7 && h[:7] == "Bearer " {
			got = h[7:]
		}
	}
	if subtle.ConstantTimeCompare([]byte(got), []byte(a.Token)) != 1 {
		return ErrUnauthorized
	}
	return nil
}
