package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDetectLocale(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		fallback string
		country  string
		want     string
	}{
		{name: "x-locale overrides country", headers: map[string]string{"X-Locale": "ID"}, country: "US", want: "id"},
		{name: "accept-language english", headers: map[string]string{"Accept-Language": "en-US,en;q=0.9"}, want: "en"},
		{name: "accept-language indonesian", headers: map[string]string{"Accept-Language": "id-ID,en;q=0.8"}, want: "id"},
		{name: "country id", country: "ID", want: "id"},
		{name: "other country", country: "US", fallback: "id", want: "en"},
		{name: "configured fallback", fallback: "id", want: "id"},
		{name: "default english", want: "en"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/predict", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			if got := detectLocale(req, tc.fallback, tc.country); got != tc.want {
				t.Fatalf("detectLocale() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResolveCountry(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		lookup  CountryLookup
		want    string
	}{
		{
			name:    "header precedence",
			headers: map[string]string{"X-Country-Code": "us", "CF-IPCountry": "id"},
			want:    "US",
		},
		{
			name:    "lookup by forwarded ip",
			headers: map[string]string{"X-Forwarded-For": "198.51.100.7, 10.0.0.1"},
			lookup: func(ip string) (string, error) {
				if ip != "198.51.100.7" {
					return "", errors.New("unexpected ip " + ip)
				}
				return "id", nil
			},
			want: "ID",
		},
		{
			name: "lookup by remote addr",
			lookup: func(ip string) (string, error) {
				if ip != "203.0.113.4" {
					return "", errors.New("unexpected ip " + ip)
				}
				return "my", nil
			},
			want: "MY",
		},
		{
			name:   "lookup error",
			lookup: func(string) (string, error) { return "", errors.New("boom") },
			want:   "",
		},
		{name: "nothing known", want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "203.0.113.4:80"
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			if got := ResolveCountry(req, tc.lookup); got != tc.want {
				t.Fatalf("ResolveCountry() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestI18NMiddlewareStoresLocale(t *testing.T) {
	var locale, country string
	h := I18N("en", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale = LocaleFromContext(r.Context())
		country = CountryFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodPost, "/predict", nil)
	req.Header.Set("CF-IPCountry", "id")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if locale != "id" || country != "ID" {
		t.Fatalf("locale = %q country = %q, want id/ID", locale, country)
	}
}

func TestLocaleFromContextDefault(t *testing.T) {
	if got := LocaleFromContext(context.Background()); got != "en" {
		t.Fatalf("LocaleFromContext() = %q, want en", got)
	}
}
