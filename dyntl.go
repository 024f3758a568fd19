// Package dyntl translates arbitrary JSON-like payloads into a target locale.
//
// Dyntl walks a decoded payload, sends every distinct translatable string
// leaf to a machine-translation provider exactly once, and returns a deep
// copy with the same shape where eligible strings are translated. URLs,
// markup and short tokens are left alone. Translations are kept in a
// two-tier cache (fast in-memory plus a durable store) so repeated content
// never goes back to the network.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "github.com/ZaguanLabs/dyntl"
//	    "github.com/ZaguanLabs/dyntl/cache"
//	    "github.com/ZaguanLabs/dyntl/provider"
//	)
//
//	func main() {
//	    p := provider.NewLibreTranslateProvider(provider.LibreTranslateConfig{
//	        BaseURL: "http://localhost:5000",
//	    })
//
//	    c := cache.NewDualTierCache(cache.NewInMemoryCache(0), durable)
//
//	    t := dyntl.NewTranslator(p,
//	        dyntl.WithCache(c),
//	        dyntl.WithDefaultLocale("en"),
//	    )
//
//	    payload := map[string]any{"heroTitle": "Welcome"}
//	    result, err := t.Translate(context.Background(), payload, "ar")
//	    if err != nil {
//	        log.Fatal(err) // only on cancellation
//	    }
//	    fmt.Println(result.Data) // map[heroTitle:مرحبا]
//	}
package dyntl
