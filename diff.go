package dyntl

import (
	"sort"
	"strconv"
)

// PayloadString is an eligible string leaf and where it sits in a payload.
type PayloadString struct {
	Path string // e.g. $.items[0].title
	Text string
}

// DiffResult represents the difference between two versions of a payload,
// compared by eligible text.
type DiffResult struct {
	// Added contains strings that are new (not in the previous version).
	Added []PayloadString

	// Removed contains strings no longer present in the new version.
	Removed []PayloadString

	// Unchanged contains strings present in both versions.
	Unchanged []PayloadString

	// Modified pairs strings whose text changed at the same path.
	Modified []ModifiedString
}

// ModifiedString represents a string that changed in place.
type ModifiedString struct {
	Old PayloadString
	New PayloadString
}

// DiffStats contains summary statistics for a diff.
type DiffStats struct {
	Added     int
	Removed   int
	Unchanged int
	Modified  int
}

// Stats returns summary statistics for the diff.
func (d *DiffResult) Stats() DiffStats {
	return DiffStats{
		Added:     len(d.Added),
		Removed:   len(d.Removed),
		Unchanged: len(d.Unchanged),
		Modified:  len(d.Modified),
	}
}

// HasChanges returns true if there are any differences.
func (d *DiffResult) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0 || len(d.Modified) > 0
}

// NeedsTranslation returns the distinct texts a cold cache would have to
// translate for the new version: added and modified strings.
func (d *DiffResult) NeedsTranslation() []string {
	seen := make(map[string]struct{})
	var texts []string
	add := func(text string) {
		if _, ok := seen[text]; !ok {
			seen[text] = struct{}{}
			texts = append(texts, text)
		}
	}
	for _, s := range d.Added {
		add(s.Text)
	}
	for _, m := range d.Modified {
		add(m.New.Text)
	}
	return texts
}

// DiffPayloads compares the eligible strings of two payload versions.
// A string is unchanged if its text appears anywhere in the old version,
// since the cache is keyed by text, not position. Among the rest, a new
// string at a path that held a different old string is reported as
// modified.
func DiffPayloads(oldData, newData any, minLength int) *DiffResult {
	oldStrings := PayloadStrings(oldData, minLength)
	newStrings := PayloadStrings(newData, minLength)

	oldTexts := make(map[string]bool, len(oldStrings))
	for _, s := range oldStrings {
		oldTexts[s.Text] = true
	}
	newTexts := make(map[string]bool, len(newStrings))
	for _, s := range newStrings {
		newTexts[s.Text] = true
	}

	result := &DiffResult{}
	removedByPath := make(map[string]PayloadString)
	for _, s := range oldStrings {
		if !newTexts[s.Text] {
			result.Removed = append(result.Removed, s)
			removedByPath[s.Path] = s
		}
	}

	matched := make(map[string]bool)
	for _, s := range newStrings {
		switch {
		case oldTexts[s.Text]:
			result.Unchanged = append(result.Unchanged, s)
		case removedByPath[s.Path].Path != "":
			result.Modified = append(result.Modified, ModifiedString{Old: removedByPath[s.Path], New: s})
			matched[s.Path] = true
		default:
			result.Added = append(result.Added, s)
		}
	}

	if len(matched) > 0 {
		removed := result.Removed[:0]
		for _, s := range result.Removed {
			if !matched[s.Path] {
				removed = append(removed, s)
			}
		}
		result.Removed = removed
	}

	return result
}

// PayloadStrings lists every eligible string leaf in data with its path,
// visiting object keys in sorted order.
func PayloadStrings(data any, minLength int) []PayloadString {
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	var out []PayloadString
	collectStrings(data, "$", minLength, &out)
	return out
}

func collectStrings(v any, path string, minLength int, out *[]PayloadString) {
	switch val := v.(type) {
	case string:
		if IsEligible(val, minLength) {
			*out = append(*out, PayloadString{Path: path, Text: val})
		}
	case map[string]any:
		for _, k := range sortedKeys(val) {
			collectStrings(val[k], path+"."+k, minLength, out)
		}
	case map[string]string:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			collectStrings(val[k], path+"."+k, minLength, out)
		}
	case []any:
		for i, child := range val {
			collectStrings(child, path+"["+strconv.Itoa(i)+"]", minLength, out)
		}
	case []string:
		for i, child := range val {
			collectStrings(child, path+"["+strconv.Itoa(i)+"]", minLength, out)
		}
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
