// Command dyntl translates JSON content payloads.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZaguanLabs/dyntl"
	"github.com/ZaguanLabs/dyntl/cache"
	"github.com/ZaguanLabs/dyntl/config"
	"github.com/ZaguanLabs/dyntl/provider"
)

// stdin is replaced in tests.
var stdin io.Reader = os.Stdin

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	targetLang    string
	sourceLang    string
	defaultLocale string
	output        string
	providerKind  string
	baseURL       string
	apiKey        string
	model         string
	contextStr    string
	minLength     int
	concurrency   int
	cachePath     string
	noCache       bool
	quiet         bool
	verbose       bool
	dryRun        bool
	jsonOutput    bool
	diffFile      string
	exportPath    string
	importPath    string
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("dyntl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	fs.StringVar(&o.targetLang, "lang", "", "Target locale (e.g., ar, es-ES, pt_BR)")
	fs.StringVar(&o.sourceLang, "source", dyntl.AutoDetect, "Source language hint")
	fs.StringVar(&o.defaultLocale, "default-locale", dyntl.DefaultLocale, "Locale the content is authored in")
	fs.StringVar(&o.output, "output", "", "Output file (default: stdout)")
	fs.StringVar(&o.output, "o", "", "Output file (short for --output)")
	fs.StringVar(&o.providerKind, "provider", config.ProviderLibreTranslate, "Provider: libretranslate, openai or mock")
	fs.StringVar(&o.baseURL, "url", "", "Provider base URL (default: LIBRETRANSLATE_URL env or http://localhost:5000)")
	fs.StringVar(&o.apiKey, "api-key", "", "Provider API key (default: LIBRETRANSLATE_API_KEY or OPENAI_API_KEY env)")
	fs.StringVar(&o.model, "model", "gpt-4o-mini", "OpenAI model to use")
	fs.StringVar(&o.contextStr, "context", "", "Domain hint for providers that accept one")
	fs.IntVar(&o.minLength, "min-length", dyntl.DefaultMinLength, "Minimum string length to translate")
	fs.IntVar(&o.concurrency, "concurrency", dyntl.DefaultConcurrency, "Maximum concurrent provider calls")
	fs.StringVar(&o.cachePath, "cache", ".dyntl-cache.json", "Durable cache file")
	fs.BoolVar(&o.noCache, "no-cache", false, "Do not read or write the durable cache file")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(&o.quiet, "quiet", false, "Suppress progress output")
	fs.BoolVar(&o.verbose, "verbose", false, "Log provider and cache activity")
	fs.BoolVar(&o.dryRun, "dry-run", false, "List strings that would be translated without calling the provider")
	fs.BoolVar(&o.jsonOutput, "json", false, "Output result and stats as JSON")
	fs.StringVar(&o.diffFile, "diff", "", "Compare with a previous version of the payload and show what needs translation")
	fs.StringVar(&o.exportPath, "export", "", "Write the cache contents to this file after translating")
	fs.StringVar(&o.importPath, "import", "", "Seed the cache from an exported file before translating")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintf(stdout, "%s %s\n", dyntl.Name, dyntl.FullVersion())
		if dyntl.BuildDate != "unknown" && dyntl.BuildDate != "" {
			fmt.Fprintf(stdout, "  built:   %s\n", dyntl.BuildDate)
		}
		return nil
	}

	if o.targetLang == "" && o.diffFile == "" {
		fs.Usage()
		return fmt.Errorf("--lang is required")
	}

	raw, inputName, err := readInput(fs.Arg(0))
	if err != nil {
		return err
	}

	payload, err := decodePayload(raw)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", inputName, err)
	}

	if o.diffFile != "" {
		return runDiff(payload, o.diffFile, inputName, o.minLength, stdout, o.jsonOutput)
	}

	if o.dryRun {
		return runDryRun(payload, inputName, o.targetLang, o.minLength, stdout, o.jsonOutput)
	}

	logger := zerolog.Nop()
	if o.verbose {
		logger = zerolog.New(config.ConsoleWriter(os.Stderr)).With().Timestamp().Logger()
	}

	p, err := buildProvider(o)
	if err != nil {
		return err
	}

	store, err := buildCache(o, logger)
	if err != nil {
		return err
	}
	defer func() {
		if fc, ok := store.Durable().(*cache.FileCache); ok {
			if err := fc.Close(); err != nil {
				fmt.Fprintf(stderr, "warning: saving cache: %v\n", err)
			}
		}
	}()

	if o.importPath != "" {
		res, err := cache.NewImporter(store).ImportFromFile(o.importPath)
		if err != nil {
			return fmt.Errorf("importing cache: %w", err)
		}
		if !o.quiet {
			fmt.Fprintf(stderr, "Imported %d cache entries (%d failed)\n", res.Imported, res.Failed)
		}
	}

	translator := dyntl.NewTranslator(p,
		dyntl.WithCache(store),
		dyntl.WithDefaultLocale(o.defaultLocale),
		dyntl.WithSourceLang(o.sourceLang),
		dyntl.WithMinLength(o.minLength),
		dyntl.WithConcurrency(o.concurrency),
		dyntl.WithContext(o.contextStr),
		dyntl.WithLogger(logger),
	)

	if !o.quiet {
		fmt.Fprintf(stderr, "Translating %s to %s...\n", inputName, o.targetLang)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	result, err := translator.Translate(ctx, payload, o.targetLang)
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}
	elapsed := time.Since(start)

	if o.exportPath != "" {
		if err := cache.NewExporter(store).ExportToFile(o.exportPath, map[string]string{"source": inputName}); err != nil {
			return fmt.Errorf("exporting cache: %w", err)
		}
	}

	var out io.Writer = stdout
	if o.output != "" {
		f, err := os.Create(o.output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if o.jsonOutput {
		return outputJSON(out, o.targetLang, result, elapsed)
	}

	if err := writeJSON(out, result.Data); err != nil {
		return err
	}

	if !o.quiet {
		fmt.Fprintf(stderr, "\nDone in %v\n", elapsed.Round(time.Millisecond))
		fmt.Fprintf(stderr, "  Strings found:  %d\n", result.EligibleLeaves)
		fmt.Fprintf(stderr, "  Translated:     %d\n", result.TranslatedCount)
		fmt.Fprintf(stderr, "  From cache:     %d\n", result.CachedCount)
		if result.FailedCount > 0 {
			fmt.Fprintf(stderr, "  Kept original:  %d\n", result.FailedCount)
		}
	}

	return nil
}

func readInput(path string) ([]byte, string, error) {
	if path == "" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, "", fmt.Errorf("reading stdin: %w", err)
		}
		return data, "stdin", nil
	}

	data, err := os.ReadFile(path) // #nosec G304 - CLI tool reads user-specified files
	if err != nil {
		return nil, "", fmt.Errorf("reading file: %w", err)
	}
	return data, filepath.Base(path), nil
}

func decodePayload(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func buildProvider(o options) (dyntl.Provider, error) {
	var p dyntl.Provider

	switch o.providerKind {
	case config.ProviderLibreTranslate:
		url := o.baseURL
		if url == "" {
			url = os.Getenv("LIBRETRANSLATE_URL")
		}
		if url == "" {
			url = "http://localhost:5000"
		}
		key := o.apiKey
		if key == "" {
			key = os.Getenv("LIBRETRANSLATE_API_KEY")
		}
		p = provider.NewLibreTranslateProvider(provider.LibreTranslateConfig{BaseURL: url, APIKey: key})
	case config.ProviderOpenAI:
		key := o.apiKey
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		if key == "" {
			return nil, fmt.Errorf("OpenAI API key required (--api-key or OPENAI_API_KEY env)")
		}
		p = provider.NewOpenAIProvider(provider.OpenAIConfig{APIKey: key, Model: o.model, BaseURL: o.baseURL})
	case config.ProviderMock:
		return provider.NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", o.providerKind)
	}

	return dyntl.NewRetryableProvider(p, dyntl.DefaultRetryConfig()), nil
}

func buildCache(o options, logger zerolog.Logger) (*cache.DualTierCache, error) {
	if o.noCache || o.cachePath == "" {
		return cache.NewDualTierCache(nil, nil, cache.WithLogger(logger)), nil
	}

	// One write at exit; the process is short-lived.
	durable, err := cache.NewFileCache(cache.FileConfig{Path: o.cachePath, FlushInterval: -1})
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	// Warm the fast tier so repeat runs never touch the file on reads.
	fast := cache.NewInMemoryCache(0)
	for k, v := range durable.Entries() {
		_ = fast.Set(k, v)
	}

	return cache.NewDualTierCache(fast, durable, cache.WithLogger(logger)), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// runDryRun shows what would be translated without calling the provider.
func runDryRun(payload any, inputName, targetLang string, minLength int, stdout io.Writer, jsonOut bool) error {
	leaves := dyntl.PayloadStrings(payload, minLength)
	unique := dyntl.CollectEligible(payload, minLength)

	if jsonOut {
		type dryRunOutput struct {
			InputFile   string   `json:"input_file"`
			TargetLang  string   `json:"target_lang"`
			StringCount int      `json:"string_count"`
			UniqueCount int      `json:"unique_count"`
			Texts       []string `json:"texts"`
		}

		return writeJSON(stdout, dryRunOutput{
			InputFile:   inputName,
			TargetLang:  targetLang,
			StringCount: len(leaves),
			UniqueCount: len(unique),
			Texts:       unique,
		})
	}

	fmt.Fprintf(stdout, "Dry run: %s -> %s\n", inputName, targetLang)
	fmt.Fprintf(stdout, "Found %d translatable strings (%d unique):\n\n", len(leaves), len(unique))

	for i, s := range leaves {
		fmt.Fprintf(stdout, "%3d. %-30s %q\n", i+1, s.Path, truncate(s.Text, 60))
	}

	return nil
}

// runDiff compares the payload with a previous version and shows what a
// translation run would have to send to the provider.
func runDiff(payload any, oldPath, inputName string, minLength int, stdout io.Writer, jsonOut bool) error {
	oldRaw, err := os.ReadFile(oldPath) // #nosec G304 - CLI tool reads user-specified files
	if err != nil {
		return fmt.Errorf("reading previous version: %w", err)
	}
	oldPayload, err := decodePayload(oldRaw)
	if err != nil {
		return fmt.Errorf("parsing previous version: %w", err)
	}

	diff := dyntl.DiffPayloads(oldPayload, payload, minLength)
	stats := diff.Stats()

	if jsonOut {
		type modified struct {
			Path string `json:"path"`
			Old  string `json:"old"`
			New  string `json:"new"`
		}
		type diffOutput struct {
			InputFile        string     `json:"input_file"`
			PreviousFile     string     `json:"previous_file"`
			Stats            any        `json:"stats"`
			NeedsTranslation []string   `json:"needs_translation"`
			Modified         []modified `json:"modified,omitempty"`
		}

		out := diffOutput{
			InputFile:        inputName,
			PreviousFile:     filepath.Base(oldPath),
			NeedsTranslation: diff.NeedsTranslation(),
			Stats: map[string]int{
				"added":     stats.Added,
				"removed":   stats.Removed,
				"modified":  stats.Modified,
				"unchanged": stats.Unchanged,
			},
		}
		for _, m := range diff.Modified {
			out.Modified = append(out.Modified, modified{Path: m.New.Path, Old: m.Old.Text, New: m.New.Text})
		}
		return writeJSON(stdout, out)
	}

	fmt.Fprintf(stdout, "Diff: %s vs %s\n\n", inputName, filepath.Base(oldPath))
	fmt.Fprintf(stdout, "Summary:\n")
	fmt.Fprintf(stdout, "  Unchanged: %d\n", stats.Unchanged)
	fmt.Fprintf(stdout, "  Added:     %d\n", stats.Added)
	fmt.Fprintf(stdout, "  Removed:   %d\n", stats.Removed)
	fmt.Fprintf(stdout, "  Modified:  %d\n\n", stats.Modified)

	if !diff.HasChanges() {
		fmt.Fprintf(stdout, "No changes detected. Cached translations cover this version.\n")
		return nil
	}

	fmt.Fprintf(stdout, "Needs translation: %d strings\n\n", len(diff.NeedsTranslation()))

	for _, s := range diff.Added {
		fmt.Fprintf(stdout, "  + %s %q\n", s.Path, truncate(s.Text, 50))
	}
	for _, m := range diff.Modified {
		fmt.Fprintf(stdout, "  ~ %s %q -> %q\n", m.New.Path, truncate(m.Old.Text, 30), truncate(m.New.Text, 30))
	}
	for _, s := range diff.Removed {
		fmt.Fprintf(stdout, "  - %s %q\n", s.Path, truncate(s.Text, 50))
	}

	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// JSONOutput represents the --json output format.
type JSONOutput struct {
	Locale          string `json:"locale"`
	Data            any    `json:"data"`
	TotalLeaves     int    `json:"total_leaves"`
	EligibleLeaves  int    `json:"eligible_leaves"`
	TranslatedCount int    `json:"translated_count"`
	CachedCount     int    `json:"cached_count"`
	FailedCount     int    `json:"failed_count"`
	ElapsedMs       int64  `json:"elapsed_ms"`
}

// outputJSON writes the result and stats as JSON.
func outputJSON(w io.Writer, locale string, result *dyntl.Result, elapsed time.Duration) error {
	return writeJSON(w, JSONOutput{
		Locale:          dyntl.NormalizeLocale(locale),
		Data:            result.Data,
		TotalLeaves:     result.TotalLeaves,
		EligibleLeaves:  result.EligibleLeaves,
		TranslatedCount: result.TranslatedCount,
		CachedCount:     result.CachedCount,
		FailedCount:     result.FailedCount,
		ElapsedMs:       elapsed.Milliseconds(),
	})
}
