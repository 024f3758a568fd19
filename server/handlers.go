package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZaguanLabs/dyntl"
	"github.com/ZaguanLabs/dyntl/cache"
)

type translateRequest struct {
	Data      json.RawMessage `json:"data"`
	Locale    string          `json:"locale"`
	Source    string          `json:"source"`
	MinLength int             `json:"min_length"`
}

type translateStats struct {
	TotalLeaves    int   `json:"total_leaves"`
	EligibleLeaves int   `json:"eligible_leaves"`
	Cached         int   `json:"cached"`
	Translated     int   `json:"translated"`
	Failed         int   `json:"failed"`
	UniqueMisses   int   `json:"unique_misses"`
	DurationMillis int64 `json:"duration_ms"`
}

type translateResponse struct {
	Locale string          `json:"locale"`
	Data   json.RawMessage `json:"data"`
	Stats  translateStats  `json:"stats"`
}

func (h *handler) translatePayload(c *gin.Context) {
	var req translateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Data) == 0 {
		errorJSON(c, http.StatusBadRequest, "data is required")
		return
	}
	if req.MinLength < 0 {
		errorJSON(c, http.StatusBadRequest, "min_length cannot be negative")
		return
	}

	locale := req.Locale
	if locale == "" {
		locale = LocaleFrom(c)
	}

	var opts []dyntl.CallOption
	if req.MinLength > 0 {
		opts = append(opts, dyntl.MinLength(req.MinLength))
	}
	if req.Source != "" {
		opts = append(opts, dyntl.SourceHint(req.Source))
	}

	start := time.Now()
	out, result, err := h.translator.TranslateJSON(c.Request.Context(), req.Data, locale, opts...)
	if err != nil {
		var payloadErr *dyntl.PayloadError
		if errors.As(err, &payloadErr) {
			errorJSON(c, http.StatusBadRequest, payloadErr.Error())
			return
		}
		// The client went away or the deadline passed; nothing useful to send.
		h.logger.Debug().Err(err).Str("locale", locale).Msg("Translation pass abandoned")
		errorJSON(c, http.StatusServiceUnavailable, "translation cancelled")
		return
	}

	c.JSON(http.StatusOK, translateResponse{
		Locale: dyntl.NormalizeLocale(locale),
		Data:   out,
		Stats: translateStats{
			TotalLeaves:    result.TotalLeaves,
			EligibleLeaves: result.EligibleLeaves,
			Cached:         result.CachedCount,
			Translated:     result.TranslatedCount,
			Failed:         result.FailedCount,
			UniqueMisses:   result.UniqueMisses,
			DurationMillis: time.Since(start).Milliseconds(),
		},
	})
}

type textRequest struct {
	Text   string `json:"text"`
	Locale string `json:"locale"`
	Wait   bool   `json:"wait"`
}

type textResponse struct {
	Locale  string `json:"locale"`
	Text    string `json:"text"`
	Pending bool   `json:"pending"`
}

// translateText serves single fields. Without wait it never blocks: a miss
// returns the original text with pending=true while the translation is
// fetched in the background.
func (h *handler) translateText(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	locale := req.Locale
	if locale == "" {
		locale = LocaleFrom(c)
	}

	resp := textResponse{Locale: dyntl.NormalizeLocale(locale)}
	if req.Wait {
		resp.Text = h.fields.Fetch(c.Request.Context(), req.Text, locale)
	} else {
		resp.Text, resp.Pending = h.fields.Resolve(req.Text, locale)
	}

	c.JSON(http.StatusOK, resp)
}

func (h *handler) locale(c *gin.Context) {
	locale := LocaleFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"locale":  locale,
		"name":    dyntl.GetLanguageName(locale),
		"default": h.translator.IsDefaultLocale(locale),
	})
}

func (h *handler) exportCache(c *gin.Context) {
	enumerable := h.translator.Cache().(cache.Enumerable)

	c.Header("Content-Type", "application/json")
	c.Status(http.StatusOK)
	err := cache.NewExporter(enumerable).Export(c.Writer, map[string]string{
		"default_locale": h.translator.DefaultLocale(),
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("Cache export failed")
	}
}
