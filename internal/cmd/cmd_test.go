package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilware/veil/internal/config"
	"github.com/veilware/veil/internal/detect"
)

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	expected := []string{
		"version",
		"scan",
		"anonymize",
		"validate",
		"serve",
		"audit",
	}
	registered := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		registered[cmd.Name()] = true
	}
	for _, name := range expected {
		assert.True(t, registered[name], "subcommand %q should be registered", name)
	}
}

func TestRootCommand_HelpOutput(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"--help"})

	err := rootCmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "finds and redacts personal data")
	assert.Contains(t, output, "anonymize")
	assert.Contains(t, output, "serve")
}

func TestVersionVars_HaveDefaults(t *testing.T) {
	assert.Equal(t, "dev", Version)
	assert.Equal(t, "none", Commit)
	assert.Equal(t, "unknown", BuildDate)
}

func TestRootCommand_GlobalFlags(t *testing.T) {
	for _, name := range []string{"config", "verbose", "log-level", "log-format", "otel"} {
		flag := rootCmd.PersistentFlags().Lookup(name)
		assert.NotNil(t, flag, "flag %q should be registered", name)
	}
}

func TestRootCommand_UseAndShort(t *testing.T) {
	assert.Equal(t, "veil", rootCmd.Use)
	assert.Equal(t, "PII detection and anonymization for Polish text", rootCmd.Short)
}

func TestAuditCmd_HasSubcommands(t *testing.T) {
	expected := []string{"list", "show", "reveal", "purge"}
	registered := make(map[string]bool)
	for _, cmd := range auditCmd.Commands() {
		registered[cmd.Name()] = true
	}
	for _, name := range expected {
		assert.True(t, registered[name], "audit subcommand %q should be registered", name)
	}
}

func TestAuditListCmd_LimitDefault(t *testing.T) {
	flag := auditListCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "50", flag.DefValue)
}

func TestValidateCmd_RequiresTwoArgs(t *testing.T) {
	require.NotNil(t, validateCmd.Args)
	assert.Error(t, validateCmd.Args(validateCmd, []string{"pesel"}))
	assert.NoError(t, validateCmd.Args(validateCmd, []string{"pesel", "44051401458"}))
}

func TestCLIValidators_KnownVectors(t *testing.T) {
	tests := []struct {
		category string
		value    string
		want     bool
	}{
		{"pesel", "44051401458", true},
		{"pesel", "44051401459", false},
		{"nip", "7740001454", true},
		{"regon", "123456785", true},
		{"regon", "123456786", false},
		{"iban", "PL61109010140000071219812874", true},
		{"card", "4556737586899855", true},
		{"id_card", "ABA300000", true},
	}
	for _, tt := range tests {
		fn, ok := cliValidators[tt.category]
		require.True(t, ok, "validator for %q", tt.category)
		assert.Equal(t, tt.want, fn(tt.value), "%s %s", tt.category, tt.value)
	}
}

func TestAnonymizeCmd_Flags(t *testing.T) {
	for _, name := range []string{
		"strategy", "fake", "seed", "names", "first-names", "surnames",
		"patterns", "aggressive-numeric", "retain-last4", "audit", "json",
	} {
		flag := anonymizeCmd.Flags().Lookup(name)
		assert.NotNil(t, flag, "anonymize flag %q should be registered", name)
	}
}

func TestScanCmd_SharesDetectionFlags(t *testing.T) {
	for _, name := range []string{
		"names", "first-names", "surnames", "patterns",
		"aggressive-numeric", "min-numeric-length",
		"alphanum-ids", "alphanum-min-length", "use-ner",
	} {
		flag := scanCmd.Flags().Lookup(name)
		assert.NotNil(t, flag, "scan flag %q should be registered", name)
	}
}

func TestScanCmd_AggressiveFlagReachesDetection(t *testing.T) {
	prev := anonymizeFlags
	t.Cleanup(func() {
		anonymizeFlags = prev
		require.NoError(t, scanCmd.Flags().Set("aggressive-numeric", "false"))
	})

	require.NoError(t, scanCmd.Flags().Set("aggressive-numeric", "true"))

	operator, err := config.Load()
	require.NoError(t, err)
	a, err := buildAnonymizer(operator)
	require.NoError(t, err)

	matches := a.Detect(context.Background(), "paczka 1234567890 nadana")
	require.Len(t, matches, 1)
	assert.Equal(t, detect.CategoryGenericNumber, matches[0].Category)
}

func TestAnonymizeCmd_StrategyDefault(t *testing.T) {
	flag := anonymizeCmd.Flags().Lookup("strategy")
	require.NotNil(t, flag)
	assert.Equal(t, "placeholder", flag.DefValue)
}
