package detect

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// RecognizerFile is the top-level YAML structure for a recognizer config
// file (Presidio-style recognizer registry format).
type RecognizerFile struct {
	Recognizers []RecognizerConfig `yaml:"recognizers"`
}

// RecognizerConfig declares one regex-based recognizer. Recognizers cover
// the categories that need no checksum gate or lexical heuristics (email,
// IP address, passport, operator-defined custom IDs); the code-level
// detectors handle the rest.
type RecognizerConfig struct {
	Name            string          `yaml:"name" json:"name"`
	SupportedEntity string          `yaml:"supported_entity" json:"supported_entity"`
	Enabled         *bool           `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Patterns        []PatternConfig `yaml:"patterns,omitempty" json:"patterns,omitempty"`
	// Priority overrides the category priority table for custom entities.
	// Zero means "use the table" (or DefaultPriority for unknown entities).
	Priority int `yaml:"priority,omitempty" json:"priority,omitempty"`
	// Placeholder overrides the replacement tag for custom entities.
	Placeholder string `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
}

// PatternConfig is a single regex pattern within a recognizer.
type PatternConfig struct {
	Name  string `yaml:"name" json:"name"`
	Regex string `yaml:"regex" json:"regex"`
}

// Recognizer is a compiled, ready-to-run recognizer.
type Recognizer struct {
	Name        string
	Category    Category
	Priority    int
	Placeholder string
	patterns    []*regexp.Regexp
}

// isEnabled defaults to true when the field is omitted.
func (r *RecognizerConfig) isEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// ParseRecognizerFile parses recognizer YAML bytes.
func ParseRecognizerFile(data []byte) (*RecognizerFile, error) {
	var rf RecognizerFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing recognizer YAML: %w", err)
	}
	return &rf, nil
}

// LoadRecognizerFile reads and parses a recognizer YAML file from disk.
// Returns nil (not an error) if the file does not exist, so a missing
// operator config is a no-op.
func LoadRecognizerFile(path string) (*RecognizerFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading recognizer file %s: %w", path, err)
	}
	return ParseRecognizerFile(data)
}

// MergeRecognizers layers recognizer lists: embedded defaults, then the
// operator's global file, then per-call custom recognizers. Later layers
// override earlier ones by Name; new recognizers are appended.
func MergeRecognizers(layers ...[]RecognizerConfig) []RecognizerConfig {
	index := make(map[string]int)
	var merged []RecognizerConfig

	for _, layer := range layers {
		for _, rc := range layer {
			if idx, exists := index[rc.Name]; exists {
				merged[idx] = rc
			} else {
				index[rc.Name] = len(merged)
				merged = append(merged, rc)
			}
		}
	}
	return merged
}

// FilterByEntities applies whitelist/blacklist entity filters.
func FilterByEntities(recognizers []RecognizerConfig, enabled, disabled []string) []RecognizerConfig {
	result := recognizers

	if len(enabled) > 0 {
		allowed := make(map[string]bool, len(enabled))
		for _, e := range enabled {
			allowed[e] = true
		}
		var filtered []RecognizerConfig
		for _, r := range result {
			if allowed[r.SupportedEntity] {
				filtered = append(filtered, r)
			}
		}
		result = filtered
	}

	if len(disabled) > 0 {
		blocked := make(map[string]bool, len(disabled))
		for _, e := range disabled {
			blocked[e] = true
		}
		var filtered []RecognizerConfig
		for _, r := range result {
			if !blocked[r.SupportedEntity] {
				filtered = append(filtered, r)
			}
		}
		result = filtered
	}

	return result
}

// CompileRecognizers converts recognizer configs into runnable
// recognizers. Disabled recognizers are skipped; a bad regex is a
// construction-time error, not a silent drop.
func CompileRecognizers(configs []RecognizerConfig) ([]Recognizer, error) {
	var out []Recognizer
	for _, rc := range configs {
		if !rc.isEnabled() || len(rc.Patterns) == 0 {
			continue
		}
		cat := Category(strings.ToUpper(rc.SupportedEntity))
		rec := Recognizer{
			Name:        rc.Name,
			Category:    cat,
			Priority:    rc.Priority,
			Placeholder: rc.Placeholder,
		}
		if rec.Priority == 0 {
			rec.Priority = cat.Priority()
		}
		for _, p := range rc.Patterns {
			compiled, err := regexp.Compile(p.Regex)
			if err != nil {
				return nil, fmt.Errorf("compiling pattern %q in recognizer %q: %w", p.Name, rc.Name, err)
			}
			rec.patterns = append(rec.patterns, compiled)
		}
		out = append(out, rec)
	}
	return out, nil
}

// run produces this recognizer's candidates over text.
func (r *Recognizer) run(text string) []Candidate {
	var out []Candidate
	for _, re := range r.patterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			out = append(out, Candidate{
				Start:    loc[0],
				End:      loc[1],
				Value:    text[loc[0]:loc[1]],
				Category: r.Category,
				Priority: r.Priority,
			})
		}
	}
	return out
}
