package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/ZaguanLabs/dyntl"
)

const (
	// QueryLocale selects the target locale explicitly.
	QueryLocale = "locale"
	// HeaderLocale is the response header echoing the resolved locale.
	HeaderLocale = "Content-Language"

	localeKey = "dyntl.locale"
)

// RequestLogger logs one line per request.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		logger.Info().
			Str("sys", "http").
			Str("method", method).
			Str("path", path).
			Int("status_code", c.Writer.Status()).
			Str("locale", c.GetString(localeKey)).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}

// LimitBody caps the request body size.
func LimitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}

// Locale resolves the request's target locale: the ?locale= query
// parameter wins, then Accept-Language negotiated against supported (or
// taken as is when supported is empty), then fallback.
func Locale(fallback string, supported []language.Tag) gin.HandlerFunc {
	var matcher language.Matcher
	if len(supported) > 0 {
		matcher = language.NewMatcher(supported)
	}

	return func(c *gin.Context) {
		locale := strings.TrimSpace(c.Query(QueryLocale))
		if locale == "" {
			locale = negotiate(c.GetHeader("Accept-Language"), matcher, supported)
		}
		if locale == "" {
			locale = fallback
		}

		locale = dyntl.NormalizeLocale(locale)
		c.Set(localeKey, locale)
		c.Header(HeaderLocale, locale)
		c.Next()
	}
}

func negotiate(header string, matcher language.Matcher, supported []language.Tag) string {
	if strings.TrimSpace(header) == "" {
		return ""
	}

	prefs, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(prefs) == 0 {
		return ""
	}

	if matcher == nil {
		return prefs[0].String()
	}

	_, index, confidence := matcher.Match(prefs...)
	if confidence == language.No {
		return ""
	}
	return supported[index].String()
}

// LocaleFrom returns the locale resolved by the Locale middleware.
func LocaleFrom(c *gin.Context) string {
	return c.GetString(localeKey)
}
