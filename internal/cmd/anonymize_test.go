package cmd

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilware/veil/internal/checksum"
	"github.com/veilware/veil/internal/config"
	"github.com/veilware/veil/internal/detect"
	"github.com/veilware/veil/internal/faker"
	"github.com/veilware/veil/internal/redact"
)

func testAnonymizer(t *testing.T) *redact.Anonymizer {
	t.Helper()
	cfg := redact.DefaultConfig()
	a, err := redact.New(cfg)
	require.NoError(t, err)
	return a
}

func TestApplyFake_ReplacesWithValidIdentifiers(t *testing.T) {
	a := testAnonymizer(t)
	text := "PESEL 44051401458 oraz NIP 7740001454"
	matches := a.Detect(context.Background(), text)
	require.Len(t, matches, 2)

	res := applyFake(text, matches, faker.New(42))
	require.Len(t, res.Findings, 2)

	assert.NotContains(t, res.Text, "44051401458")
	assert.NotContains(t, res.Text, "7740001454")
	for _, f := range res.Findings {
		switch f.Category {
		case detect.CategoryPESEL:
			assert.True(t, checksum.PESEL(f.Replacement), "fake PESEL %q", f.Replacement)
		case detect.CategoryNIP:
			assert.True(t, checksum.NIP(f.Replacement), "fake NIP %q", f.Replacement)
		}
	}
}

func TestApplyFake_DeterministicUnderSeed(t *testing.T) {
	a := testAnonymizer(t)
	text := "Konto PL61109010140000071219812874, tel. 601 234 567"

	run := func(seed int64) string {
		matches := a.Detect(context.Background(), text)
		return applyFake(text, matches, faker.New(seed)).Text
	}

	assert.Equal(t, run(7), run(7))
	assert.NotEqual(t, run(7), run(8))
}

func TestApplyFake_NoFindingsReturnsInputUnchanged(t *testing.T) {
	text := "zupelnie czysty tekst"
	res := applyFake(text, nil, faker.New(1))
	assert.Equal(t, text, res.Text)
	assert.Empty(t, res.Findings)
}

func TestBuildAnonymizer_FlagOverrides(t *testing.T) {
	t.Setenv("VEIL_HASH_SALT", "operator-salt")

	prev := anonymizeFlags
	t.Cleanup(func() { anonymizeFlags = prev })

	anonymizeFlags.strategy = "hash"
	anonymizeFlags.normalization = "digits_only"
	anonymizeFlags.salt = "flag-salt"
	anonymizeFlags.names = true

	operator, err := config.Load()
	require.NoError(t, err)

	a, err := buildAnonymizer(operator)
	require.NoError(t, err)

	res := a.Anonymize(context.Background(), "PESEL 44051401458")
	require.Len(t, res.Findings, 1)
	assert.Regexp(t, `^\[PESEL:[0-9a-f]{10}\]$`, res.Findings[0].Replacement)
}

func TestBuildAnonymizer_RejectsUnknownStrategy(t *testing.T) {
	prev := anonymizeFlags
	t.Cleanup(func() { anonymizeFlags = prev })

	anonymizeFlags.strategy = "rot13"
	anonymizeFlags.normalization = "digits_only"

	operator, err := config.Load()
	require.NoError(t, err)

	_, err = buildAnonymizer(operator)
	assert.Error(t, err)
}

func TestReadInput_File(t *testing.T) {
	path := t.TempDir() + "/doc.txt"
	require.NoError(t, os.WriteFile(path, []byte("treść dokumentu"), 0o600))

	got, err := readInput([]string{path})
	require.NoError(t, err)
	assert.Equal(t, "treść dokumentu", got)
}

func TestReadInput_MissingFile(t *testing.T) {
	_, err := readInput([]string{t.TempDir() + "/absent.txt"})
	assert.Error(t, err)
}
