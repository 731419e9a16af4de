package faker

import (
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilware/veil/internal/checksum"
	"github.com/veilware/veil/internal/detect"
)

func TestGeneratedIdentifiersPassValidation(t *testing.T) {
	g := New(1)

	for i := 0; i < 50; i++ {
		assert.True(t, checksum.PESEL(g.fakePESEL()), "iteration %d", i)
		assert.True(t, checksum.NIP(g.fakeNIP()), "iteration %d", i)
		assert.True(t, checksum.REGON(g.fakeREGON()), "iteration %d", i)
		assert.True(t, checksum.IBAN(g.fakeIBAN()), "iteration %d", i)
		assert.True(t, checksum.Luhn(g.fakeCard()), "iteration %d", i)
		assert.True(t, checksum.IDCard(g.fakeIDCard()), "iteration %d", i)
	}
}

func TestFakeIBANIsPolishLength(t *testing.T) {
	g := New(3)

	for i := 0; i < 50; i++ {
		iban := g.fakeIBAN()
		assert.Len(t, iban, 28, "iteration %d: %s", i, iban)
		assert.True(t, checksum.IBAN(iban), "iteration %d: %s", i, iban)
	}
}

func TestReplacementFormats(t *testing.T) {
	g := New(7)

	tests := []struct {
		category detect.Category
		original string
		pattern  string
	}{
		{detect.CategoryNIP, "7740001454", `^\d{3}-\d{3}-\d{2}-\d{2}$`},
		{detect.CategoryCard, "4556 7375 8689 9855", `^\d{4} \d{4} \d{4} \d{4}$`},
		{detect.CategoryIBAN, "PL61109010140000071219812874", `^PL\d{26}$`},
		{detect.CategoryPostalCode, "00-950", `^\d{2}-\d{3}$`},
		{detect.CategoryEmail, "jan@example.com", `^[a-z]{8}@[a-z.]+$`},
		{detect.CategoryUUID, "f81d4fae-7dec-41d0-a765-00a0c91e6bf6",
			`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`},
		{detect.CategoryIDCard, "ABA300000", `^[A-Z]{3}\d{6}$`},
	}
	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			got := g.Replacement(tt.category, tt.original)
			assert.Regexp(t, regexp.MustCompile(tt.pattern), got)
			assert.NotEqual(t, tt.original, got)
		})
	}
}

func TestSameOriginalSameReplacement(t *testing.T) {
	g := New(3)

	a := g.Replacement(detect.CategoryPESEL, "44051401458")
	b := g.Replacement(detect.CategoryPESEL, "44051401458")
	assert.Equal(t, a, b)

	c := g.Replacement(detect.CategoryPESEL, "55051401459")
	assert.NotEqual(t, a, c)
}

func TestSeedDeterminism(t *testing.T) {
	requests := []struct {
		cat detect.Category
		val string
	}{
		{detect.CategoryName, "Jan Kowalski"},
		{detect.CategoryPESEL, "44051401458"},
		{detect.CategoryIBAN, "PL61109010140000071219812874"},
		{detect.CategoryEmail, "jan@example.com"},
	}

	run := func(seed int64) []string {
		g := New(seed)
		var out []string
		for _, r := range requests {
			out = append(out, g.Replacement(r.cat, r.val))
		}
		return out
	}

	assert.Equal(t, run(42), run(42))
	assert.NotEqual(t, run(42), run(43))
}

func TestNameGenderMatching(t *testing.T) {
	g := New(5)

	masculine := g.Replacement(detect.CategoryName, "Jan Kowalski")
	assert.False(t, strings.HasSuffix(strings.Fields(masculine)[0], "a"),
		"masculine original got feminine first name %q", masculine)

	feminine := g.Replacement(detect.CategoryName, "Maria Kowalska")
	assert.True(t, strings.HasSuffix(strings.Fields(feminine)[0], "a"),
		"feminine original got masculine first name %q", feminine)
}

func TestPhoneKeepsInternationalPrefix(t *testing.T) {
	g := New(9)

	withPrefix := g.Replacement(detect.CategoryPhone, "+48 600 123 456")
	assert.True(t, strings.HasPrefix(withPrefix, "+48 "))

	bare := g.Replacement(detect.CategoryPhone, "600 123 456")
	assert.False(t, strings.HasPrefix(bare, "+48"))
}

func TestReshapePreservesStructure(t *testing.T) {
	g := New(11)

	got := g.Replacement(detect.CategoryGenericNumber, "1234-567")
	assert.Regexp(t, regexp.MustCompile(`^\d{4}-\d{3}$`), got)

	id := g.Replacement(detect.CategoryAlphanumID, "AB-12cd")
	assert.Regexp(t, regexp.MustCompile(`^[A-Z]{2}-\d{2}[a-z]{2}$`), id)
}

func TestUnknownCategoryFallsBackToPlaceholder(t *testing.T) {
	g := New(13)
	assert.Equal(t, "[REDACTED]", g.Replacement(detect.Category("WIDGET_ID"), "W-123"))
	assert.Equal(t, "[POSTAL_CODE]", detect.CategoryPostalCode.Placeholder())
}

func TestConcurrentAccess(t *testing.T) {
	g := New(17)

	var wg sync.WaitGroup
	results := make([]string, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = g.Replacement(detect.CategoryPESEL, "44051401458")
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(results); i++ {
		require.Equal(t, results[0], results[i])
	}
	assert.True(t, checksum.PESEL(results[0]))
}
