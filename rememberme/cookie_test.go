package rememberme

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPCookieReadsRequestValue(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "tok"})

	c := NewHTTPCookie(httptest.NewRecorder(), r, CookieOptions{})
	if c.Value() != "tok" {
		t.Fatalf("expected request cookie value, got %q", c.Value())
	}
}

func TestHTTPCookieSetWritesResponse(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	c := NewHTTPCookie(w, r, CookieOptions{Secure: true})
	expires := time.Now().AddDate(0, 2, 0)
	c.Set("tok", expires)

	if c.Value() != "tok" {
		t.Fatalf("expected write to be visible, got %q", c.Value())
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one Set-Cookie, got %d", len(cookies))
	}
	got := cookies[0]
	if got.Name != DefaultCookieName || got.Value != "tok" {
		t.Fatalf("unexpected cookie: %+v", got)
	}
	if !got.HttpOnly || !got.Secure || got.Path != "/" {
		t.Fatalf("options not applied: %+v", got)
	}
}

func TestHTTPCookieClear(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "tok"})

	c := NewHTTPCookie(w, r, CookieOptions{})
	c.Clear()

	if c.Value() != "" {
		t.Fatalf("expected cleared value, got %q", c.Value())
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge != -1 {
		t.Fatalf("expected expiring Set-Cookie, got %+v", cookies)
	}
}
