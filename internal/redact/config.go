// Package redact applies a configured replacement strategy to the spans
// the detection engine resolves, producing redacted text plus an ordered
// findings ledger.
package redact

import (
	"fmt"

	"github.com/veilware/veil/internal/detect"
)

// Strategy selects how resolved spans are replaced.
type Strategy string

const (
	// StrategyPlaceholder replaces each span with its category's fixed
	// bracketed tag, independent of the matched value.
	StrategyPlaceholder Strategy = "placeholder"
	// StrategyPreserveShape masks digits and letters character by
	// character, passing punctuation through, so the replacement mirrors
	// the original's length and punctuation pattern.
	StrategyPreserveShape Strategy = "preserve_shape"
	// StrategyHash embeds a salted, truncated one-way digest of the value
	// in a bracketed tag; same input and salt always produce the same tag.
	StrategyHash Strategy = "hash"
)

// Normalization selects how generic-number values are canonicalized
// before hashing.
type Normalization string

const (
	NormalizationDigitsOnly Normalization = "digits_only"
	NormalizationCanonical  Normalization = "canonical"
	NormalizationNone       Normalization = "none"
)

// Config is the immutable per-run anonymization configuration. The zero
// value is not usable; start from DefaultConfig.
type Config struct {
	Strategy Strategy
	HashSalt string
	// Placeholders overrides the per-category default tags.
	Placeholders map[detect.Category]string

	EnableNames bool
	FirstNames  []string
	Surnames    []string

	AggressiveNumericRedaction bool
	MinNumericLength           int
	PreserveSmallIntegers      bool
	SmallIntegerMax            int

	AlphanumericIDRedaction bool
	AlphanumericMinLength   int

	IncludeShapeMetadata  bool
	RetainCardLast4       bool
	NormalizationStrategy Normalization

	// PatternFile layers operator recognizers over the embedded defaults.
	PatternFile string
}

// DefaultConfig returns the baseline configuration: placeholder strategy,
// names enabled and ungated, fallback detectors off.
func DefaultConfig() Config {
	return Config{
		Strategy:              StrategyPlaceholder,
		HashSalt:              "change-me",
		EnableNames:           true,
		MinNumericLength:      9,
		SmallIntegerMax:       12,
		AlphanumericMinLength: 6,
		RetainCardLast4:       false,
		NormalizationStrategy: NormalizationDigitsOnly,
	}
}

// Validate rejects misconfiguration at construction time so it surfaces
// before any document is processed.
func (c Config) Validate() error {
	switch c.Strategy {
	case StrategyPlaceholder, StrategyPreserveShape, StrategyHash:
	default:
		return fmt.Errorf("unknown strategy %q (want placeholder, preserve_shape or hash)", c.Strategy)
	}
	switch c.NormalizationStrategy {
	case NormalizationDigitsOnly, NormalizationCanonical, NormalizationNone:
	default:
		return fmt.Errorf("unknown normalization strategy %q (want digits_only, canonical or none)", c.NormalizationStrategy)
	}
	if c.Strategy == StrategyHash && c.HashSalt == "" {
		return fmt.Errorf("hash strategy requires a non-empty hash salt")
	}
	if c.AggressiveNumericRedaction && c.MinNumericLength < 1 {
		return fmt.Errorf("min numeric length must be at least 1, got %d", c.MinNumericLength)
	}
	if c.AlphanumericIDRedaction && c.AlphanumericMinLength < 1 {
		return fmt.Errorf("alphanumeric min length must be at least 1, got %d", c.AlphanumericMinLength)
	}
	return nil
}

// placeholderFor resolves a category's tag, preferring per-run overrides.
func (c Config) placeholderFor(engine *detect.Engine, cat detect.Category) string {
	if p, ok := c.Placeholders[cat]; ok {
		return p
	}
	return engine.Placeholder(cat)
}
