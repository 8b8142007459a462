package middleware

import (
	"github.com/crm/backend/internal/infrastructure/i18n"
	"github.com/gin-gonic/gin"
)

// LangKey holds the language the response is rendered in
const LangKey = "lang"

// LangQueryParam overrides the resolved language when query overrides are on
const LangQueryParam = "lang"

// LanguageOption tunes Language
type LanguageOption func(*languageOptions)

type languageOptions struct {
	queryOverride bool
}

// WithQueryOverride lets a supported ?lang= value win over every other source
func WithQueryOverride(enabled bool) LanguageOption {
	return func(o *languageOptions) { o.queryOverride = enabled }
}

// Language picks the response language: the sales person language carried
// by the token, then the tenant language, then the best Accept-Language match
func Language(tr *i18n.Translator, opts ...LanguageOption) gin.HandlerFunc {
	var o languageOptions
	for _, opt := range opts {
		opt(&o)
	}
	return func(c *gin.Context) {
		lang := resolveLang(c, tr)
		if o.queryOverride {
			if q := c.Query(LangQueryParam); tr.Supported(q) {
				lang = q
			}
		}
		c.Set(LangKey, lang)
		c.Header("Content-Language", lang)
		c.Next()
	}
}

func resolveLang(c *gin.Context, tr *i18n.Translator) string {
	if claims := GetJWTClaims(c); claims != nil && tr.Supported(claims.Lang) {
		return claims.Lang
	}
	if info := GetTenantInfo(c); info != nil && tr.Supported(info.Lang) {
		return info.Lang
	}
	return tr.Match(c.GetHeader("Accept-Language"))
}

// GetLang returns the language resolved for the request, "" before Language ran
func GetLang(c *gin.Context) string {
	return c.GetString(LangKey)
}
