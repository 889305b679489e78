package rememberme

import (
	"net/http"
	"time"
)

// DefaultCookieName is the cookie used when CookieOptions.Name is empty.
const DefaultCookieName = "rememberme"

// CookieOptions defines how the remember-me cookie is issued.
type CookieOptions struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	HttpOnly bool
	SameSite http.SameSite
}

func (o CookieOptions) normalize() CookieOptions {
	if o.Name == "" {
		o.Name = DefaultCookieName
	}
	if o.Path == "" {
		o.Path = "/"
	}
	if !o.HttpOnly {
		o.HttpOnly = true
	}
	return o
}

// HTTPCookie adapts one request/response pair to the [Cookie] contract.
// Writes go to the response; Value reflects the latest write, falling back
// to the request cookie.
type HTTPCookie struct {
	opts CookieOptions
	r    *http.Request
	w    http.ResponseWriter

	value   string
	written bool
}

func NewHTTPCookie(w http.ResponseWriter, r *http.Request, opts CookieOptions) *HTTPCookie {
	return &HTTPCookie{
		opts: opts.normalize(),
		r:    r,
		w:    w,
	}
}

func (c *HTTPCookie) Value() string {
	if c.written {
		return c.value
	}
	cookie, err := c.r.Cookie(c.opts.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (c *HTTPCookie) Set(value string, expires time.Time) {
	c.value = value
	c.written = true

	http.SetCookie(c.w, &http.Cookie{
		Name:     c.opts.Name,
		Value:    value,
		Path:     c.opts.Path,
		Domain:   c.opts.Domain,
		Expires:  expires,
		HttpOnly: c.opts.HttpOnly,
		Secure:   c.opts.Secure,
		SameSite: c.opts.SameSite,
	})
}

func (c *HTTPCookie) Clear() {
	c.value = ""
	c.written = true

	http.SetCookie(c.w, &http.Cookie{
		Name:     c.opts.Name,
		Value:    "",
		Path:     c.opts.Path,
		Domain:   c.opts.Domain,
		MaxAge:   -1,
		HttpOnly: c.opts.HttpOnly,
		Secure:   c.opts.Secure,
		SameSite: c.opts.SameSite,
	})
}
