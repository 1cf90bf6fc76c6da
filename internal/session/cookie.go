package session

import (
	"net/http"
	"time"
)

const DefaultCookieName = "authToken"

// CookieOptions defines how the auth cookie is issued.
type CookieOptions struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

func (o CookieOptions) normalize() CookieOptions {
	if o.Name == "" {
		o.Name = DefaultCookieName
	}
	if o.MaxAge <= 0 {
		o.MaxAge = DefaultTTL
	}
	return o
}

// SetCookie issues the auth cookie carrying token.
func SetCookie(w http.ResponseWriter, token string, opts CookieOptions) {
	opts = opts.normalize()

	http.SetCookie(w, &http.Cookie{
		Name:     opts.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(opts.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie overwrites the auth cookie with an already expired one.
func ClearCookie(w http.ResponseWriter, opts CookieOptions) {
	opts = opts.normalize()

	http.SetCookie(w, &http.Cookie{
		Name:     opts.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
