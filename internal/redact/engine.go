package redact

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"

	"go.opentelemetry.io/otel/attribute"

	"github.com/veilware/veil/internal/detect"
	"github.com/veilware/veil/internal/otel"
)

var tracer = otel.Tracer("github.com/veilware/veil/internal/redact")

const (
	maskDigit  = 'X'
	maskLetter = 'x'

	// hashLength is the truncation length of the salted digest embedded
	// in hash-strategy tags.
	hashLength = 10
)

// Finding is the externally visible record of one resolved match: what
// was found, what it became, and where.
type Finding struct {
	Start       int             `json:"start"`
	End         int             `json:"end"`
	Category    detect.Category `json:"category"`
	Original    string          `json:"original"`
	Replacement string          `json:"replacement"`
}

// Result is the output of one anonymization run.
type Result struct {
	Text     string    `json:"text"`
	Findings []Finding `json:"findings"`
}

// Anonymizer binds a detection engine to a validated configuration.
// It is immutable and safe for concurrent use; every run only reads its
// input text and returns a new result.
type Anonymizer struct {
	cfg    Config
	engine *detect.Engine
}

// New builds an Anonymizer. The configuration is validated here so a
// misconfiguration fails before any document is processed. Additional
// detect options (external recognizer, custom recognizers, entity
// filters) are appended after the ones derived from cfg.
func New(cfg Config, detectOpts ...detect.Option) (*Anonymizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid anonymization config: %w", err)
	}

	opts := []detect.Option{
		detect.WithNames(cfg.EnableNames),
		detect.WithDictionaries(detect.Dictionaries{
			FirstNames: toSet(cfg.FirstNames),
			Surnames:   toSet(cfg.Surnames),
		}),
	}
	if cfg.PatternFile != "" {
		opts = append(opts, detect.WithPatternFile(cfg.PatternFile))
	}
	if cfg.AggressiveNumericRedaction {
		opts = append(opts, detect.WithGenericNumbers(detect.Thresholds{
			MinNumericLength:      cfg.MinNumericLength,
			PreserveSmallIntegers: cfg.PreserveSmallIntegers,
			SmallIntegerMax:       cfg.SmallIntegerMax,
		}))
	}
	if cfg.AlphanumericIDRedaction {
		opts = append(opts, detect.WithAlphanumIDs(cfg.AlphanumericMinLength))
	}
	opts = append(opts, detectOpts...)

	engine, err := detect.NewEngine(opts...)
	if err != nil {
		return nil, err
	}
	return &Anonymizer{cfg: cfg, engine: engine}, nil
}

// Detect runs detection and resolution only, no redaction.
func (a *Anonymizer) Detect(ctx context.Context, text string) []detect.Match {
	return a.engine.Detect(ctx, text)
}

// Anonymize runs the full pipeline: detect, resolve, replace. The walk
// copies the untouched slice before each span verbatim and emits the
// strategy's replacement in its place. The input is never mutated.
func (a *Anonymizer) Anonymize(ctx context.Context, text string) *Result {
	ctx, span := tracer.Start(ctx, "redact.anonymize")
	defer span.End()

	matches := a.engine.Detect(ctx, text)
	res := a.apply(text, matches)
	span.SetAttributes(attribute.Int("redact.findings", len(res.Findings)))
	return res
}

// AnonymizeWithSpans is Anonymize with caller-supplied external
// recognizer spans merged into the candidate set. The span list may be
// nil or empty.
func (a *Anonymizer) AnonymizeWithSpans(ctx context.Context, text string, external []detect.Span) *Result {
	_, span := tracer.Start(ctx, "redact.anonymize_with_spans")
	defer span.End()

	matches := a.engine.DetectWithSpans(ctx, text, external)
	res := a.apply(text, matches)
	span.SetAttributes(attribute.Int("redact.findings", len(res.Findings)))
	return res
}

func (a *Anonymizer) apply(text string, matches []detect.Match) *Result {
	findings := make([]Finding, 0, len(matches))
	var out strings.Builder
	out.Grow(len(text))

	last := 0
	for _, m := range matches {
		if m.Start < last {
			continue
		}
		repl := a.replacementFor(m)
		out.WriteString(text[last:m.Start])
		out.WriteString(repl)
		findings = append(findings, Finding{
			Start:       m.Start,
			End:         m.End,
			Category:    m.Category,
			Original:    m.Value,
			Replacement: repl,
		})
		last = m.End
	}
	out.WriteString(text[last:])

	return &Result{Text: out.String(), Findings: findings}
}

// replacementFor computes the replacement per the active strategy plus
// the category refinements (card last-4 retention, generic-number shape
// metadata).
func (a *Anonymizer) replacementFor(m detect.Match) string {
	switch a.cfg.Strategy {
	case StrategyPreserveShape:
		return a.maskShape(m)
	case StrategyHash:
		return a.hashTag(m)
	default:
		return a.placeholderTag(m)
	}
}

func (a *Anonymizer) placeholderTag(m detect.Match) string {
	tag := a.cfg.placeholderFor(a.engine, m.Category)
	switch m.Category {
	case detect.CategoryCard:
		if a.cfg.RetainCardLast4 {
			if last4, ok := lastFourDigits(m.Value); ok {
				return withinBrackets(tag, ":"+last4)
			}
		}
	case detect.CategoryGenericNumber:
		if a.cfg.IncludeShapeMetadata {
			return withinBrackets(tag, fmt.Sprintf("|S=%s|L=%d", digitShape(m.Value), countDigits(m.Value)))
		}
	}
	return tag
}

func (a *Anonymizer) maskShape(m detect.Match) string {
	masked := maskPreserveShape(m.Value)
	if m.Category == detect.CategoryCard && a.cfg.RetainCardLast4 {
		return retainTrailingDigits(m.Value, masked, 4)
	}
	return masked
}

func (a *Anonymizer) hashTag(m detect.Match) string {
	switch m.Category {
	case detect.CategoryCard:
		digest := a.digest(stripNonDigits(m.Value))
		if a.cfg.RetainCardLast4 {
			if last4, ok := lastFourDigits(m.Value); ok {
				return fmt.Sprintf("[%s:%s:%s]", m.Category, digest, last4)
			}
		}
		return fmt.Sprintf("[%s:%s]", m.Category, digest)
	case detect.CategoryGenericNumber:
		digest := a.digest(a.normalizeNumber(m.Value))
		if a.cfg.IncludeShapeMetadata && a.cfg.NormalizationStrategy != NormalizationCanonical {
			return fmt.Sprintf("[%s:%s|S=%s|L=%d]", m.Category, digest, digitShape(m.Value), countDigits(m.Value))
		}
		return fmt.Sprintf("[%s:%s]", m.Category, digest)
	case detect.CategoryAlphanumID:
		digest := a.digest(strings.ToUpper(m.Value))
		return fmt.Sprintf("[%s:%s|L=%d]", m.Category, digest, len(m.Value))
	case detect.CategoryEmail:
		return fmt.Sprintf("[%s:%s]", m.Category, a.digest(strings.ToLower(m.Value)))
	default:
		return fmt.Sprintf("[%s:%s]", m.Category, a.digest(m.Value))
	}
}

// digest is a salted, truncated SHA-256: same input and salt always
// yield the same tag, enabling consistent pseudonymization of a repeated
// identifier within and across documents.
func (a *Anonymizer) digest(value string) string {
	h := sha256.Sum256([]byte(a.cfg.HashSalt + "::" + value))
	return hex.EncodeToString(h[:])[:hashLength]
}

// normalizeNumber canonicalizes a numeric token per the configured
// normalization mode so equal values hash equally regardless of
// formatting.
func (a *Anonymizer) normalizeNumber(value string) string {
	switch a.cfg.NormalizationStrategy {
	case NormalizationDigitsOnly:
		return stripNonDigits(value)
	case NormalizationCanonical:
		return stripNonDigits(value) + "|" + digitShape(value)
	default:
		return value
	}
}

// maskPreserveShape replaces digits and letters with fixed mask
// characters, leaving punctuation and separators in place.
func maskPreserveShape(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			out = append(out, maskDigit)
		case unicode.IsLetter(r):
			out = append(out, maskLetter)
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

// retainTrailingDigits restores the last n digits of the original into
// the masked string, keeping every other position masked.
func retainTrailingDigits(original, masked string, n int) string {
	orig := []rune(original)
	out := []rune(masked)
	kept := 0
	for i := len(orig) - 1; i >= 0 && kept < n; i-- {
		if unicode.IsDigit(orig[i]) {
			out[i] = orig[i]
			kept++
		}
	}
	return string(out)
}

// digitShape renders the token with every digit replaced by a fixed
// marker, preserving everything else ("44-101" -> "DD-DDD").
func digitShape(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsDigit(r) {
			out = append(out, 'D')
		} else {
			out = append(out, r)
		}
	}
	return string(out)
}

// withinBrackets appends suffix inside a bracketed tag ("[CARD_NUMBER]"
// + ":9855" -> "[CARD_NUMBER:9855]"); non-bracketed tags get a plain
// append.
func withinBrackets(tag, suffix string) string {
	if strings.HasSuffix(tag, "]") {
		return tag[:len(tag)-1] + suffix + "]"
	}
	return tag + suffix
}

func lastFourDigits(s string) (string, bool) {
	digits := stripNonDigits(s)
	if len(digits) < 4 {
		return "", false
	}
	return digits[len(digits)-4:], true
}

func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func countDigits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			n++
		}
	}
	return n
}

func toSet(names []string) map[string]struct{} {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		set[capitalizeName(n)] = struct{}{}
	}
	return set
}

func capitalizeName(s string) string {
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
