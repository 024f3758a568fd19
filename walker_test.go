package dyntl

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestWalker_ClonesWithoutAliasing(t *testing.T) {
	inner := []any{"Hello"}
	data := map[string]any{"list": inner}

	w := &walker{identity: true, stats: &Result{}}
	out := w.walkRoot(data)[0].(map[string]any)

	out["list"].([]any)[0] = "changed"
	if inner[0] != "Hello" {
		t.Error("clone shares a slice with the input")
	}
}

func TestWalker_PendingAndFill(t *testing.T) {
	cached := map[string]string{"Cached text": "Texto en caché"}
	stats := &Result{}
	w := &walker{
		minLength: DefaultMinLength,
		lookup: func(text string) (string, bool) {
			v, ok := cached[text]
			return v, ok
		},
		stats: stats,
	}

	data := map[string]any{
		"a": "Cached text",
		"b": []any{"Fresh text", "Fresh text", "no"},
		"c": map[string]string{"k": "Fresh text"},
	}
	box := w.walkRoot(data)

	if len(w.pending) != 3 {
		t.Fatalf("Expected 3 pending leaves, got %d", len(w.pending))
	}
	if got := uniqueSources(w.pending); !reflect.DeepEqual(got, []string{"Fresh text"}) {
		t.Errorf("uniqueSources = %v", got)
	}

	for _, leaf := range w.pending {
		leaf.fill("Texto nuevo")
	}

	want := map[string]any{
		"a": "Texto en caché",
		"b": []any{"Texto nuevo", "Texto nuevo", "no"},
		"c": map[string]string{"k": "Texto nuevo"},
	}
	if !reflect.DeepEqual(box[0], want) {
		t.Errorf("got %#v, want %#v", box[0], want)
	}

	if stats.TotalLeaves != 5 || stats.EligibleLeaves != 4 || stats.CachedCount != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestUniqueSources_Order(t *testing.T) {
	pending := []pendingLeaf{{source: "b"}, {source: "a"}, {source: "b"}, {source: "c"}}
	got := uniqueSources(pending)
	if !reflect.DeepEqual(got, []string{"b", "a", "c"}) {
		t.Errorf("got %v", got)
	}
}

func TestWalker_TypedContainers(t *testing.T) {
	type label string

	item := map[string]any{"title": "Watch Now", "id": 7}
	genres := []string{"Drama"}
	data := map[string]any{
		"items":  []map[string]any{item},
		"tags":   map[string][]string{"genre": genres},
		"labels": []label{"Featured", "no"},
		"counts": map[string]int{"views": 10},
		"price":  json.Number("12345"),
		"prices": map[string]json.Number{"usd": "12345"},
	}

	w := &walker{
		minLength: DefaultMinLength,
		lookup:    func(string) (string, bool) { return "", false },
		stats:     &Result{},
	}
	box := w.walkRoot(data)

	if len(w.pending) != 3 {
		t.Fatalf("Expected 3 pending leaves, got %d", len(w.pending))
	}
	for _, leaf := range w.pending {
		leaf.fill("<" + leaf.source + ">")
	}

	want := map[string]any{
		"items":  []map[string]any{{"title": "<Watch Now>", "id": 7}},
		"tags":   map[string][]string{"genre": {"<Drama>"}},
		"labels": []label{"<Featured>", "no"},
		"counts": map[string]int{"views": 10},
		"price":  json.Number("12345"),
		"prices": map[string]json.Number{"usd": "12345"},
	}
	if !reflect.DeepEqual(box[0], want) {
		t.Fatalf("got %#v, want %#v", box[0], want)
	}

	out := box[0].(map[string]any)
	out["items"].([]map[string]any)[0]["title"] = "changed"
	out["tags"].(map[string][]string)["genre"][0] = "changed"
	if item["title"] != "Watch Now" || genres[0] != "Drama" {
		t.Error("clone shares typed containers with the input")
	}
}

func TestWalker_TypedContainersNil(t *testing.T) {
	data := map[string]any{
		"none":  []map[string]any(nil),
		"holes": []any{nil},
		"named": map[string]any{"x": nil},
	}

	w := &walker{identity: true, stats: &Result{}}
	out := w.walkRoot(data)[0]

	if !reflect.DeepEqual(out, data) {
		t.Errorf("got %#v, want %#v", out, data)
	}
}
