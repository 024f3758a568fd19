package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"

	"github.com/ZaguanLabs/dyntl"
)

// OpenAIProvider implements Provider using an OpenAI-compatible chat API.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
}

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey      string        // OpenAI API key
	Model       string        // Model to use (default: "gpt-4o-mini")
	Temperature float32       // Temperature for generation (default: 0.3)
	BaseURL     string        // Custom base URL for compatible services (optional)
	Timeout     time.Duration // Per-request HTTP timeout; 0 leaves the client default
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		config.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: temperature,
	}
}

// Translate translates one string.
func (p *OpenAIProvider) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.buildSystemPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: req.Text},
		},
		Temperature: p.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		status, retryable := classifyOpenAIError(err)
		return "", &dyntl.ProviderError{
			Message:    "OpenAI API call failed",
			Cause:      err,
			StatusCode: status,
			Retryable:  retryable && ctx.Err() == nil,
		}
	}

	if len(resp.Choices) == 0 {
		return "", &dyntl.ProviderError{
			Message:   "no response from OpenAI",
			Retryable: true,
		}
	}

	return parseResponse(resp.Choices[0].Message.Content)
}

func (p *OpenAIProvider) buildSystemPrompt(req TranslateRequest) string {
	targetName := dyntl.GetLanguageName(req.TargetLang)

	source := "the source language (detect it)"
	if req.SourceLang != "" && req.SourceLang != dyntl.AutoDetect {
		source = dyntl.GetLanguageName(req.SourceLang)
	}

	contextText := "The text is a string from a web or app content payload (a title, a label, a description)."
	if req.Context != "" {
		contextText = fmt.Sprintf("The text comes from: %s. Adapt the tone to fit.", req.Context)
	}

	return fmt.Sprintf(`# Role
You are an expert native translator into %s.

# Context
%s

# Task
Translate the user's message from %s into idiomatic %s.

# Rules
- Translate naturally; never word for word.
- Do NOT translate URLs, email addresses, or placeholders such as {{name}}, {count}, %%s, $1.
- Preserve leading and trailing whitespace and line breaks.
- If the text is already in %s, return it unchanged.

# Format
Return a JSON object with a single string key "translation".
Example: { "translation": "..." }`, targetName, contextText, source, targetName, targetName)
}

// parseResponse extracts the translation from the model output. A bare
// string is accepted for models that ignore the requested format.
func parseResponse(content string) (string, error) {
	content = strings.TrimSpace(content)

	if gjson.Valid(content) {
		parsed := gjson.Parse(content)
		if parsed.IsObject() {
			if v := parsed.Get("translation"); v.Type == gjson.String {
				return v.String(), nil
			}
			// Fallback: the first string value under any key
			var found string
			parsed.ForEach(func(_, value gjson.Result) bool {
				if value.Type == gjson.String {
					found = value.String()
					return false
				}
				return true
			})
			if found != "" {
				return found, nil
			}
		}
		if parsed.Type == gjson.String {
			return parsed.String(), nil
		}
	}

	return "", &dyntl.ProviderError{Message: "invalid response format from OpenAI"}
}

// classifyOpenAIError returns the HTTP status, when known, and whether the
// error is worth retrying.
func classifyOpenAIError(err error) (int, bool) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode, retryableStatus(apiErr.HTTPStatusCode)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode, retryableStatus(reqErr.HTTPStatusCode)
	}

	return 0, isTimeout(err)
}

var _ Provider = (*OpenAIProvider)(nil)
