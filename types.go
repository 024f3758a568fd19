package dyntl

// DefaultLocale is the authoring locale content is stored in unless
// overridden with WithDefaultLocale. Translating into it is the identity.
const DefaultLocale = "en"

// AutoDetect asks the provider to detect the source language.
const AutoDetect = "auto"

// DefaultMinLength is the shortest trimmed string, in runes, considered
// for translation.
const DefaultMinLength = 3

// DefaultConcurrency bounds in-flight provider calls per Translate call.
const DefaultConcurrency = 8

// Result is the outcome of a Translate call.
type Result struct {
	Data            any // Deep copy of the input with eligible leaves translated
	TotalLeaves     int // String leaves visited
	EligibleLeaves  int // String leaves that passed classification
	CachedCount     int // Eligible leaves served from cache
	TranslatedCount int // Unique strings translated by the provider
	FailedCount     int // Unique strings that fell back to the original text
	UniqueMisses    int // Distinct cache-miss strings sent to the transport
}

// callOptions holds per-call overrides.
type callOptions struct {
	minLength  int
	sourceHint string
}

// CallOption overrides translator defaults for a single call.
type CallOption func(*callOptions)

// MinLength overrides the minimum eligible length for one call.
func MinLength(n int) CallOption {
	return func(o *callOptions) {
		o.minLength = n
	}
}

// SourceHint overrides the source-locale hint sent to the provider.
func SourceHint(lang string) CallOption {
	return func(o *callOptions) {
		o.sourceHint = lang
	}
}
