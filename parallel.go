package dyntl

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// translateUnique sends each distinct text to the transport once, at most
// t.concurrency at a time, and caches every outcome. It returns when all
// calls have settled. Transport calls never fail, so the group never
// short-circuits.
func (t *Translator) translateUnique(ctx context.Context, texts []string, target, ns, source string, result *Result) map[string]string {
	outputs := make([]string, len(texts))
	oks := make([]bool, len(texts))

	var g errgroup.Group
	g.SetLimit(t.concurrency)

	for i, text := range texts {
		g.Go(func() error {
			translated, ok := t.transport.Translate(ctx, text, target, source)
			outputs[i], oks[i] = translated, ok
			t.store(ctx, ns, text, translated, ok)
			return nil
		})
	}
	_ = g.Wait()

	translations := make(map[string]string, len(texts))
	for i, text := range texts {
		translations[text] = outputs[i]
		if oks[i] {
			result.TranslatedCount++
		} else {
			result.FailedCount++
		}
	}

	return translations
}
