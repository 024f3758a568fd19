package dyntl

import "fmt"

// TranslationError is returned when a translation pass cannot complete,
// which only happens when its context is cancelled.
type TranslationError struct {
	Message string
	Cause   error
}

func (e *TranslationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *TranslationError) Unwrap() error {
	return e.Cause
}

// ProviderError indicates a translation provider failure (API error, rate
// limit, malformed response). Providers return it; the Transport absorbs it.
type ProviderError struct {
	Message    string
	Cause      error
	StatusCode int  // HTTP status when the provider is HTTP based, else 0
	Retryable  bool // Whether the operation can be retried
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("provider error: %s", e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// PayloadError indicates raw JSON input or output that could not be
// decoded or encoded.
type PayloadError struct {
	Message string
	Cause   error
}

func (e *PayloadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("payload error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("payload error: %s", e.Message)
}

func (e *PayloadError) Unwrap() error {
	return e.Cause
}
