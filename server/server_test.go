package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/ZaguanLabs/dyntl"
	"github.com/ZaguanLabs/dyntl/provider"
)

func newTestRouter(t *testing.T, opts Options) (*gin.Engine, *provider.MockProvider) {
	t.Helper()

	mock := provider.NewMockProvider()
	mock.Translations = map[string]string{
		"Welcome":   "مرحبا",
		"Watch Now": "شاهد الآن",
	}
	if opts.Translator == nil {
		opts.Translator = dyntl.NewTranslator(mock)
	}
	opts.Logger = zerolog.Nop()
	return NewRouter(opts), mock
}

func do(r http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTranslatePayload(t *testing.T) {
	r, mock := newTestRouter(t, Options{})

	body := `{"locale":"ar","data":{"heroTitle":"Welcome","id":12345678901234567890,"items":[{"title":"Watch Now"},{"title":"Watch Now"}]}}`
	w := do(r, http.MethodPost, "/v1/translate", body, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Locale string          `json:"locale"`
		Data   json.RawMessage `json:"data"`
		Stats  translateStats  `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "ar", resp.Locale)
	assert.JSONEq(t, `{"heroTitle":"مرحبا","id":12345678901234567890,"items":[{"title":"شاهد الآن"},{"title":"شاهد الآن"}]}`, string(resp.Data))
	assert.Equal(t, 3, resp.Stats.EligibleLeaves)
	assert.Equal(t, 2, resp.Stats.UniqueMisses)
	assert.Equal(t, 2, mock.CallCount())
}

func TestTranslatePayload_LocaleFromAcceptLanguage(t *testing.T) {
	r, _ := newTestRouter(t, Options{SupportedLocales: []string{"fr", "ar"}})

	w := do(r, http.MethodPost, "/v1/translate", `{"data":["Welcome"]}`, map[string]string{
		"Accept-Language": "de-DE;q=0.9, ar-EG, en;q=0.1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ar", w.Header().Get(HeaderLocale))
	assert.Contains(t, w.Body.String(), "مرحبا")
}

func TestTranslatePayload_DefaultLocaleIsIdentity(t *testing.T) {
	r, mock := newTestRouter(t, Options{})

	w := do(r, http.MethodPost, "/v1/translate?locale=en-US", `{"data":{"title":"Welcome"}}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"Welcome"`)
	assert.Equal(t, 0, mock.CallCount())
}

func TestTranslatePayload_BadRequests(t *testing.T) {
	r, _ := newTestRouter(t, Options{})

	tests := []struct {
		name string
		body string
	}{
		{"not json", `nope`},
		{"missing data", `{"locale":"ar"}`},
		{"negative min length", `{"data":"Welcome","min_length":-1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/v1/translate?locale=ar", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestTranslatePayload_BodyLimit(t *testing.T) {
	r, _ := newTestRouter(t, Options{MaxBodyBytes: 32})

	body := `{"data":"` + strings.Repeat("a", 100) + `"}`
	w := do(r, http.MethodPost, "/v1/translate?locale=ar", body, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTranslateText(t *testing.T) {
	fields := dyntl.NewFieldAdapter(dyntl.NewTranslator(provider.NewMockProvider()))
	r, _ := newTestRouter(t, Options{Fields: fields})

	w := do(r, http.MethodPost, "/v1/translate/text?locale=es", `{"text":"Welcome"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var first textResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.Equal(t, textResponse{Locale: "es", Text: "Welcome", Pending: true}, first)

	fields.Wait()

	w = do(r, http.MethodPost, "/v1/translate/text?locale=es", `{"text":"Welcome"}`, nil)
	var second textResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.Equal(t, textResponse{Locale: "es", Text: "Bienvenido", Pending: false}, second)
}

func TestTranslateText_Wait(t *testing.T) {
	r, _ := newTestRouter(t, Options{})

	w := do(r, http.MethodPost, "/v1/translate/text", `{"text":"Watch Now","locale":"ar","wait":true}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"text":"شاهد الآن"`)
	assert.Contains(t, w.Body.String(), `"pending":false`)
}

func TestLocaleEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, Options{})

	w := do(r, http.MethodGet, "/v1/locale?locale=fr_CA", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"locale":"fr-CA","name":"Canadian French","default":false}`, w.Body.String())
}

func TestHealthz(t *testing.T) {
	r, _ := newTestRouter(t, Options{})
	w := do(r, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	r, _ = newTestRouter(t, Options{Health: func(context.Context) error { return errors.New("redis down") }})
	w = do(r, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis down")
}

func TestExportCache(t *testing.T) {
	r, _ := newTestRouter(t, Options{})

	do(r, http.MethodPost, "/v1/translate?locale=ar", `{"data":"Welcome"}`, nil)
	w := do(r, http.MethodGet, "/v1/cache/export", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var export struct {
		Entries []struct {
			Key   string `json:"key"`
			Value string `json:"value"`
		} `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&export))
	require.Len(t, export.Entries, 1)
	assert.Equal(t, dyntl.DeriveKey("Welcome", "ar"), export.Entries[0].Key)
	assert.Equal(t, "مرحبا", export.Entries[0].Value)
}

func TestNegotiate(t *testing.T) {
	supported := supportedTags([]string{"en", "es-MX", "zh-Hant"})
	matcher := language.NewMatcher(supported)

	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"es-ES", "es-MX"},
		{"zh-TW", "zh-Hant"},
		{"ja", ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, negotiate(tt.header, matcher, supported))
		})
	}

	assert.Equal(t, "pt-BR", negotiate("pt-BR, en;q=0.5", nil, nil))
}
