package dyntl

import (
	"encoding/json"
	"reflect"
)

var numberType = reflect.TypeOf(json.Number(""))

// pendingLeaf is a string position in the cloned payload that still holds
// its original text as a placeholder, waiting for the fill step.
type pendingLeaf struct {
	parent any // map[string]any, []any, map[string]string, []string or a reflect.Value
	key    string
	index  int
	source string

	// Set for reflect.Value parents.
	mapKey reflect.Value
	typ    reflect.Type
}

func (p pendingLeaf) fill(value string) {
	switch c := p.parent.(type) {
	case map[string]any:
		c[p.key] = value
	case []any:
		c[p.index] = value
	case map[string]string:
		c[p.key] = value
	case []string:
		c[p.index] = value
	case reflect.Value:
		v := reflect.ValueOf(value).Convert(p.typ)
		if c.Kind() == reflect.Map {
			c.SetMapIndex(p.mapKey, v)
		} else {
			c.Index(p.index).Set(v)
		}
	}
}

// walker deep-clones a payload. String leaves are copied through unchanged
// (identity or ineligible), replaced from cache, or left as placeholders
// and recorded in pending.
type walker struct {
	identity  bool
	minLength int
	lookup    func(text string) (string, bool)
	pending   []pendingLeaf
	stats     *Result
}

// walkRoot clones data inside a one-element box so that a bare string
// payload is an ordinary leaf with a parent to fill. Read box[0] only
// after pending leaves have been filled.
func (w *walker) walkRoot(data any) []any {
	return w.clone([]any{data}).([]any)
}

func (w *walker) clone(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			if s, ok := child.(string); ok {
				out[k] = w.leaf(s, pendingLeaf{parent: out, key: k})
				continue
			}
			out[k] = w.clone(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			if s, ok := child.(string); ok {
				out[i] = w.leaf(s, pendingLeaf{parent: out, index: i})
				continue
			}
			out[i] = w.clone(child)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(val))
		for k, s := range val {
			out[k] = w.leaf(s, pendingLeaf{parent: out, key: k})
		}
		return out
	case []string:
		out := make([]string, len(val))
		for i, s := range val {
			out[i] = w.leaf(s, pendingLeaf{parent: out, index: i})
		}
		return out
	case nil, bool, float64, string:
		return val
	default:
		return w.cloneReflect(val)
	}
}

// cloneReflect copies maps and slices of other element types, such as
// []map[string]any or map[string][]string built by Go callers. Anything
// else (numbers, structs, pointers, arrays) passes through untouched.
func (w *walker) cloneReflect(v any) any {
	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), w.cloneElem(iter.Value(), pendingLeaf{parent: out, mapKey: iter.Key()}))
		}
		return out.Interface()
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		if !holdsStrings(rv.Type().Elem()) {
			reflect.Copy(out, rv)
			return out.Interface()
		}
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(w.cloneElem(rv.Index(i), pendingLeaf{parent: out, index: i}))
		}
		return out.Interface()
	default:
		return v
	}
}

// holdsStrings reports whether values of type t can contain string leaves.
func holdsStrings(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.String, reflect.Interface, reflect.Map, reflect.Slice:
		return true
	default:
		return false
	}
}

// cloneElem clones one element of a reflected container. at carries the
// parent and position used if the element becomes a pending leaf.
func (w *walker) cloneElem(elem reflect.Value, at pendingLeaf) reflect.Value {
	dyn := elem
	if dyn.Kind() == reflect.Interface {
		if dyn.IsNil() {
			return elem
		}
		dyn = dyn.Elem()
	}

	if dyn.Kind() == reflect.String && dyn.Type() != numberType {
		at.typ = dyn.Type()
		text := w.leaf(dyn.String(), at)
		return reflect.ValueOf(text).Convert(dyn.Type())
	}

	cloned := w.clone(dyn.Interface())
	if cloned == nil {
		return reflect.Zero(elem.Type())
	}
	return reflect.ValueOf(cloned)
}

func (w *walker) leaf(text string, at pendingLeaf) string {
	w.stats.TotalLeaves++
	if w.identity || !IsEligible(text, w.minLength) {
		return text
	}

	w.stats.EligibleLeaves++
	if translated, ok := w.lookup(text); ok {
		w.stats.CachedCount++
		return translated
	}

	at.source = text
	w.pending = append(w.pending, at)
	return text
}

// uniqueSources returns the distinct source texts of pending leaves in
// first-seen order.
func uniqueSources(pending []pendingLeaf) []string {
	seen := make(map[string]struct{}, len(pending))
	var texts []string
	for _, leaf := range pending {
		if _, ok := seen[leaf.source]; ok {
			continue
		}
		seen[leaf.source] = struct{}{}
		texts = append(texts, leaf.source)
	}
	return texts
}
