// Package patterns provides the embedded default recognizer definitions.
// The YAML uses the Presidio-style recognizer registry format consumed by
// internal/detect; operators layer their own file and per-call custom
// recognizers on top.
package patterns

import _ "embed"

//go:embed pii_pl.yaml
var piiPLYAML []byte

// PIIPLYAML returns the embedded default recognizer definitions.
func PIIPLYAML() []byte { return piiPLYAML }
