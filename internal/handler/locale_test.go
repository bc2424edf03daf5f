package handler

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newLocaleContext(t *testing.T, target string, headers map[string]string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rr := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rr)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	c.Request = req
	return c, rr
}

func TestResolveLanguageOrder(t *testing.T) {
	api := &API{defaultLanguage: "ko"}

	cases := []struct {
		name    string
		target  string
		headers map[string]string
		want    string
		persist bool
	}{
		{name: "query wins", target: "/?lang=en", headers: map[string]string{"Cookie": "w2d_lang=ko"}, want: "en", persist: true},
		{name: "cookie", target: "/", headers: map[string]string{"Cookie": "w2d_lang=en", "CF-IPCountry": "KR"}, want: "en"},
		{name: "country header", target: "/", headers: map[string]string{"CF-IPCountry": "US", "Accept-Language": "ko-KR"}, want: "en"},
		{name: "korean country", target: "/", headers: map[string]string{"X-Country-Code": "kr"}, want: "ko"},
		{name: "accept language", target: "/", headers: map[string]string{"Accept-Language": "fr-FR, en;q=0.8"}, want: "en"},
		{name: "default", target: "/", want: "ko"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newLocaleContext(t, tc.target, tc.headers)
			got, persist := api.resolveLanguage(c)
			if got != tc.want || persist != tc.persist {
				t.Fatalf("expected (%s,%v), got (%s,%v)", tc.want, tc.persist, got, persist)
			}
		})
	}
}

func TestLocaleMiddlewarePersistsQueryOverride(t *testing.T) {
	gin.SetMode(gin.TestMode)
	api := &API{defaultLanguage: "ko"}
	r := gin.New()
	r.Use(api.LocaleMiddleware())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, api.language(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/?lang=en", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Body.String() != "en" {
		t.Fatalf("expected en, got %q", rr.Body.String())
	}
	if got := rr.Header().Get("Content-Language"); got != "en-US" {
		t.Fatalf("expected Content-Language en-US, got %q", got)
	}
	setCookie := rr.Header().Get("Set-Cookie")
	if !strings.Contains(setCookie, "w2d_lang=en") || !strings.Contains(setCookie, "Secure") {
		t.Fatalf("expected secure language cookie, got %q", setCookie)
	}
	if vary := rr.Header().Get("Vary"); !strings.Contains(vary, "Cookie") || !strings.Contains(vary, "Accept-Language") {
		t.Fatalf("unexpected Vary header %q", vary)
	}
}

func TestDetectScheme(t *testing.T) {
	c, _ := newLocaleContext(t, "/", map[string]string{"X-Forwarded-Proto": "HTTPS, http"})
	if got := detectScheme(c); got != "https" {
		t.Fatalf("expected https from forwarded header, got %q", got)
	}

	c, _ = newLocaleContext(t, "/", nil)
	if got := detectScheme(c); got != "http" {
		t.Fatalf("expected http, got %q", got)
	}

	c.Request.TLS = &tls.ConnectionState{}
	if got := detectScheme(c); got != "https" {
		t.Fatalf("expected https for tls request, got %q", got)
	}
}

func TestProfileLanguageIsUsedWhenNoOverride(t *testing.T) {
	env := newHandlerEnv(t, Options{})
	client := env.client(t)
	client.register(t, "english@example.com")

	rr := client.json(t, http.MethodPut, "/api/profile", map[string]any{"language": "en"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected profile update, got %d: %s", rr.Code, rr.Body.String())
	}

	// 清除语言 cookie 后仍应使用资料中的语言
	base, _ := url.Parse(testBaseURL)
	client.jar.SetCookies(base, []*http.Cookie{{Name: "w2d_lang", Value: "", MaxAge: -1}})
	rr = client.json(t, http.MethodGet, "/api/cert-orgs", nil, "Accept-Language", "ko-KR")
	if got := rr.Header().Get("Content-Language"); got != "en-US" {
		t.Fatalf("expected profile language to win over Accept-Language, got %q", got)
	}
}
