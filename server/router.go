// Package server exposes a Translator over HTTP.
package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/ZaguanLabs/dyntl"
	"github.com/ZaguanLabs/dyntl/cache"
)

// DefaultMaxBodyBytes caps request bodies when Options.MaxBodyBytes is unset.
const DefaultMaxBodyBytes = 4 << 20

// Options configures the router.
type Options struct {
	Translator *dyntl.Translator
	Fields     *dyntl.FieldAdapter // Created from Translator when nil

	// SupportedLocales restricts Accept-Language negotiation. When empty,
	// the client's first preference is used as is.
	SupportedLocales []string

	MaxBodyBytes int64
	Logger       zerolog.Logger

	// Health, if set, is consulted by /healthz (e.g. a Redis ping).
	Health func(ctx context.Context) error

	// Debug enables gin's debug mode.
	Debug bool
}

type handler struct {
	translator *dyntl.Translator
	fields     *dyntl.FieldAdapter
	health     func(ctx context.Context) error
	logger     zerolog.Logger
}

// NewRouter builds the gin engine.
func NewRouter(opts Options) *gin.Engine {
	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if opts.Fields == nil {
		opts.Fields = dyntl.NewFieldAdapter(opts.Translator)
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}

	h := &handler{
		translator: opts.Translator,
		fields:     opts.Fields,
		health:     opts.Health,
		logger:     opts.Logger,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(opts.Logger))

	r.GET("/healthz", h.healthz)

	v1 := r.Group("/v1")
	v1.Use(LimitBody(opts.MaxBodyBytes))
	v1.Use(Locale(opts.Translator.DefaultLocale(), supportedTags(opts.SupportedLocales)))

	v1.POST("/translate", h.translatePayload)
	v1.POST("/translate/text", h.translateText)
	v1.GET("/locale", h.locale)

	if _, ok := opts.Translator.Cache().(cache.Enumerable); ok {
		v1.GET("/cache/export", h.exportCache)
	}

	return r
}

func supportedTags(locales []string) []language.Tag {
	var tags []language.Tag
	for _, l := range locales {
		if tag, err := language.Parse(dyntl.NormalizeLocale(l)); err == nil {
			tags = append(tags, tag)
		}
	}
	return tags
}

func errorJSON(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, gin.H{"error": msg})
}

// healthz reports liveness, and the durable tier's health when wired.
func (h *handler) healthz(c *gin.Context) {
	body := gin.H{"status": "ok", "version": dyntl.FullVersion()}

	if h.health != nil {
		if err := h.health(c.Request.Context()); err != nil {
			h.logger.Warn().Err(err).Msg("Health check failed")
			body["status"] = "degraded"
			body["error"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
	}

	c.JSON(http.StatusOK, body)
}
