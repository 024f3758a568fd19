package dyntl

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// parseLocale accepts both "es_ES" and "es-ES" spellings.
func parseLocale(code string) (language.Tag, error) {
	return language.Parse(strings.ReplaceAll(strings.TrimSpace(code), "_", "-"))
}

// NormalizeLocale returns the canonical BCP 47 form of a locale code
// (e.g., "es_es" → "es-ES"). Unparsable codes are lower-cased and returned.
func NormalizeLocale(code string) string {
	tag, err := parseLocale(code)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(code))
	}
	return tag.String()
}

// BaseLanguage extracts the base language code (e.g., "pt" from "pt_BR").
func BaseLanguage(code string) string {
	tag, err := parseLocale(code)
	if err != nil {
		parts := strings.FieldsFunc(strings.TrimSpace(code), isLocaleSeparator)
		if len(parts) == 0 {
			return ""
		}
		return strings.ToLower(parts[0])
	}
	base, _ := tag.Base()
	return base.String()
}

func isLocaleSeparator(r rune) bool {
	return r == '_' || r == '-'
}

// SameLanguage reports whether two locale codes denote the same written
// language: same base language and same (possibly inferred) script.
// "en" and "en_US" match; "zh_CN" and "zh_TW" do not.
func SameLanguage(a, b string) bool {
	ta, errA := parseLocale(a)
	tb, errB := parseLocale(b)
	if errA != nil || errB != nil {
		return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
	}

	baseA, _ := ta.Base()
	baseB, _ := tb.Base()
	if baseA != baseB {
		return false
	}

	scriptA, _ := ta.Script()
	scriptB, _ := tb.Script()
	return scriptA == scriptB
}

// GetLanguageName returns the English display name for a locale code, for
// use in provider prompts. Falls back to the code itself.
func GetLanguageName(code string) string {
	tag, err := parseLocale(code)
	if err != nil {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return code
}
