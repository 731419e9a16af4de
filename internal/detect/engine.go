package detect

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/veilware/veil/internal/otel"
	"github.com/veilware/veil/patterns"
)

var tracer = otel.Tracer("github.com/veilware/veil/internal/detect")

// ExternalRecognizer is the collaborator contract for statistical entity
// recognition (person/organization/location). It is invoked once per
// document; retries belong to the caller. A nil or empty span list is
// always tolerated.
type ExternalRecognizer interface {
	Recognize(ctx context.Context, text string) ([]Span, error)
}

// Engine runs every active detector over a document and resolves the
// combined candidate set. Engines are immutable after construction and
// safe for concurrent use.
type Engine struct {
	recognizers []Recognizer
	external    ExternalRecognizer
	dicts       Dictionaries
	thresholds  Thresholds
	enableNames bool
	aggressive  bool
	alphanumIDs bool
}

// Option configures an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	patternFile       string
	customRecognizers []RecognizerConfig
	enabledEntities   []string
	disabledEntities  []string
	external          ExternalRecognizer
	dicts             Dictionaries
	thresholds        Thresholds
	enableNames       bool
	aggressive        bool
	alphanumIDs       bool
}

// WithPatternFile layers recognizers from an operator YAML file over the
// embedded defaults. A missing file is silently skipped.
func WithPatternFile(path string) Option {
	return func(c *engineConfig) { c.patternFile = path }
}

// WithCustomRecognizers adds per-call recognizer definitions on top of
// the embedded and file layers.
func WithCustomRecognizers(recognizers []RecognizerConfig) Option {
	return func(c *engineConfig) { c.customRecognizers = recognizers }
}

// WithEnabledEntities restricts YAML recognizers to a whitelist of
// entity names.
func WithEnabledEntities(entities []string) Option {
	return func(c *engineConfig) { c.enabledEntities = entities }
}

// WithDisabledEntities removes YAML recognizers by entity name.
func WithDisabledEntities(entities []string) Option {
	return func(c *engineConfig) { c.disabledEntities = entities }
}

// WithExternalRecognizer attaches a statistical entity recognizer whose
// spans are merged under the standard priority rules.
func WithExternalRecognizer(r ExternalRecognizer) Option {
	return func(c *engineConfig) { c.external = r }
}

// WithDictionaries gates the name heuristics on first-name/surname sets.
func WithDictionaries(d Dictionaries) Option {
	return func(c *engineConfig) { c.dicts = d }
}

// WithNames toggles the lexical name heuristics.
func WithNames(enabled bool) Option {
	return func(c *engineConfig) { c.enableNames = enabled }
}

// WithGenericNumbers enables the numeric fallback detector with the given
// thresholds.
func WithGenericNumbers(th Thresholds) Option {
	return func(c *engineConfig) {
		c.aggressive = true
		c.thresholds.MinNumericLength = th.MinNumericLength
		c.thresholds.PreserveSmallIntegers = th.PreserveSmallIntegers
		c.thresholds.SmallIntegerMax = th.SmallIntegerMax
	}
}

// WithAlphanumIDs enables the alphanumeric-token fallback detector.
func WithAlphanumIDs(minLength int) Option {
	return func(c *engineConfig) {
		c.alphanumIDs = true
		c.thresholds.AlphanumMinLength = minLength
	}
}

// NewEngine builds a detection engine. Without options it runs the code
// detectors plus the embedded recognizer defaults, names enabled and
// ungated, fallbacks disabled.
func NewEngine(opts ...Option) (*Engine, error) {
	cfg := engineConfig{enableNames: true}
	for _, o := range opts {
		o(&cfg)
	}

	defaults, err := ParseRecognizerFile(patterns.PIIPLYAML())
	if err != nil {
		return nil, fmt.Errorf("parsing embedded recognizers: %w", err)
	}

	var globalRecs []RecognizerConfig
	if cfg.patternFile != "" {
		rf, err := LoadRecognizerFile(cfg.patternFile)
		if err != nil {
			return nil, fmt.Errorf("loading pattern file: %w", err)
		}
		if rf != nil {
			globalRecs = rf.Recognizers
		}
	}

	merged := MergeRecognizers(defaults.Recognizers, globalRecs, cfg.customRecognizers)
	merged = FilterByEntities(merged, cfg.enabledEntities, cfg.disabledEntities)

	compiled, err := CompileRecognizers(merged)
	if err != nil {
		return nil, fmt.Errorf("compiling recognizers: %w", err)
	}

	return &Engine{
		recognizers: compiled,
		external:    cfg.external,
		dicts:       cfg.dicts,
		thresholds:  cfg.thresholds,
		enableNames: cfg.enableNames,
		aggressive:  cfg.aggressive,
		alphanumIDs: cfg.alphanumIDs,
	}, nil
}

// MustNewEngine is NewEngine panicking on error, for zero-config startup
// where the embedded defaults are expected to always compile.
func MustNewEngine(opts ...Option) *Engine {
	e, err := NewEngine(opts...)
	if err != nil {
		panic(fmt.Sprintf("detect.NewEngine: %v", err))
	}
	return e
}

// Placeholder returns the replacement tag for a category, honoring any
// recognizer-level override.
func (e *Engine) Placeholder(cat Category) string {
	for _, r := range e.recognizers {
		if r.Category == cat && r.Placeholder != "" {
			return r.Placeholder
		}
	}
	return cat.Placeholder()
}

// Detect runs all detectors plus the external recognizer and returns the
// resolved, ordered, non-overlapping match list. It never fails over text
// input; external recognizer errors are logged and treated as an empty
// span list.
func (e *Engine) Detect(ctx context.Context, text string) []Match {
	ctx, span := tracer.Start(ctx, "detect.detect")
	defer span.End()

	candidates := e.collect(ctx, text)
	resolved := Resolve(candidates)

	// Fallback detectors only see spans no stricter category claimed.
	if e.aggressive {
		extra := detectGenericNumbers(text, resolved, e.thresholds)
		if len(extra) > 0 {
			resolved = Resolve(append(resolved, extra...))
		}
	}
	if e.alphanumIDs {
		extra := detectAlphanumIDs(text, resolved, e.thresholds)
		if len(extra) > 0 {
			resolved = Resolve(append(resolved, extra...))
		}
	}

	span.SetAttributes(
		attribute.Int("detect.candidates", len(candidates)),
		attribute.Int("detect.matches", len(resolved)),
	)
	return resolved
}

// DetectWithSpans is Detect with pre-computed external spans merged into
// the candidate set (e.g. offline NER output). An attached recognizer
// still runs; its spans and the caller's are resolved together. The span
// list may be nil.
func (e *Engine) DetectWithSpans(ctx context.Context, text string, external []Span) []Match {
	candidates := e.collect(ctx, text)
	candidates = append(candidates, mapExternalSpans(external)...)

	resolved := Resolve(candidates)
	if e.aggressive {
		if extra := detectGenericNumbers(text, resolved, e.thresholds); len(extra) > 0 {
			resolved = Resolve(append(resolved, extra...))
		}
	}
	if e.alphanumIDs {
		if extra := detectAlphanumIDs(text, resolved, e.thresholds); len(extra) > 0 {
			resolved = Resolve(append(resolved, extra...))
		}
	}
	return resolved
}

// collect gathers candidates from every source, including the attached
// external recognizer.
func (e *Engine) collect(ctx context.Context, text string) []Candidate {
	candidates := e.collectStatic(text)

	if e.external != nil {
		spans, err := e.external.Recognize(ctx, text)
		if err != nil {
			log.Warn().Err(err).Msg("external recognizer failed; continuing without its spans")
		}
		candidates = append(candidates, mapExternalSpans(spans)...)
	}
	return candidates
}

// collectStatic runs the code detectors and YAML recognizers. Detectors
// share no mutable state, so their order is irrelevant to the final
// selection.
func (e *Engine) collectStatic(text string) []Candidate {
	var candidates []Candidate
	candidates = append(candidates, detectIBAN(text)...)
	candidates = append(candidates, detectCard(text)...)
	candidates = append(candidates, detectUUID(text)...)
	candidates = append(candidates, detectPESEL(text)...)
	candidates = append(candidates, detectNIP(text)...)
	candidates = append(candidates, detectREGON(text)...)
	candidates = append(candidates, detectIDCard(text)...)
	candidates = append(candidates, detectAddresses(text)...)
	candidates = append(candidates, detectPostalCode(text)...)
	candidates = append(candidates, detectPhones(text)...)
	candidates = append(candidates, detectTransactionIDs(text)...)
	if e.enableNames {
		candidates = append(candidates, detectNames(text, e.dicts)...)
	}
	for i := range e.recognizers {
		candidates = append(candidates, e.recognizers[i].run(text)...)
	}
	return candidates
}

// mapExternalSpans converts recognizer spans into candidates, mapping
// entity tags through the category table. Malformed spans (inverted or
// negative offsets) are dropped.
func mapExternalSpans(spans []Span) []Candidate {
	var out []Candidate
	for _, s := range spans {
		if s.Start < 0 || s.End <= s.Start {
			continue
		}
		cat := MapExternalCategory(s.Category)
		out = append(out, Candidate{
			Start:    s.Start,
			End:      s.End,
			Value:    s.Text,
			Category: cat,
			Priority: cat.Priority(),
		})
	}
	return out
}
