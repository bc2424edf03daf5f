package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/where2dive/internal/locale"
)

const (
	languageContextKey   = "where2dive.language"
	languageCookieName   = "w2d_lang"
	languageCookieMaxAge = 365 * 24 * 60 * 60
)

// CDN 与反向代理写入访客国家的请求头
var countryHeaders = []string{
	"CF-IPCountry",
	"X-Geo-Country",
	"X-Forwarded-Country",
	"X-Country-Code",
}

// languageSource 返回候选语言，以及是否需要写回 cookie
type languageSource func(c *gin.Context) (language string, persist bool)

// LocaleMiddleware 解析请求语言，写入 Content-Language 与 Vary
func (a *API) LocaleMiddleware() gin.HandlerFunc {
	vary := strings.Join(append([]string{"Accept-Language", "Cookie"}, countryHeaders...), ", ")
	return func(c *gin.Context) {
		c.Header("Content-Language", locale.ContentLanguage(a.language(c)))
		mergeVary(c.Writer.Header(), vary)
		c.Next()
	}
}

// language 返回本次请求的语言，结果缓存在 gin.Context 中
func (a *API) language(c *gin.Context) string {
	if cached := c.GetString(languageContextKey); cached != "" {
		return cached
	}
	language, persist := a.resolveLanguage(c)
	if persist {
		a.persistLanguage(c, language)
	}
	c.Set(languageContextKey, language)
	return language
}

// resolveLanguage 顺序：?lang → cookie → 用户资料 → 国家头 → Accept-Language → 默认
func (a *API) resolveLanguage(c *gin.Context) (string, bool) {
	sources := []languageSource{
		func(c *gin.Context) (string, bool) { return locale.NormalizeLanguage(c.Query("lang")), true },
		func(c *gin.Context) (string, bool) { return readLanguageCookie(c), false },
		a.profileLanguage,
		func(c *gin.Context) (string, bool) {
			return locale.LanguageFromCountryCode(countryFromHeaders(c)), false
		},
		func(c *gin.Context) (string, bool) {
			return locale.LanguageFromAcceptLanguage(c.GetHeader("Accept-Language")), false
		},
	}
	for _, source := range sources {
		if language, persist := source(c); language != "" {
			return language, persist
		}
	}
	return a.defaultLanguage, false
}

func readLanguageCookie(c *gin.Context) string {
	value, err := c.Cookie(languageCookieName)
	if err != nil {
		return ""
	}
	return locale.NormalizeLanguage(value)
}

// persistLanguage 将语言写入 cookie，HTTPS 下带 Secure
func (a *API) persistLanguage(c *gin.Context, language string) {
	language = locale.NormalizeLanguage(language)
	if language == "" {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(languageCookieName, language, languageCookieMaxAge, "/", "", detectScheme(c) == "https", true)
}

// profileLanguage 已登录用户在资料中保存的语言，命中后同步到 cookie
func (a *API) profileLanguage(c *gin.Context) (string, bool) {
	userID := currentUserID(c)
	if userID == 0 || a.users == nil {
		return "", false
	}
	user, err := a.users.Get(userID)
	if err != nil {
		_ = c.Error(err)
		return "", false
	}
	return locale.NormalizeLanguage(user.Language), true
}

func detectScheme(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-Proto"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.ToLower(strings.TrimSpace(first))
	}
	if c.Request != nil && c.Request.TLS != nil {
		return "https"
	}
	return "http"
}

func countryFromHeaders(c *gin.Context) string {
	for _, name := range countryHeaders {
		value, _, _ := strings.Cut(c.GetHeader(name), ",")
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
	return ""
}

// mergeVary 追加 Vary 中尚未出现的字段
func mergeVary(header http.Header, values string) {
	tokens := strings.Split(header.Get("Vary"), ",")
	tokens = append(tokens, strings.Split(values, ",")...)

	seen := make(map[string]bool, len(tokens))
	merged := make([]string, 0, len(tokens))
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		key := strings.ToLower(token)
		if token == "" || seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, token)
	}
	header.Set("Vary", strings.Join(merged, ", "))
}
