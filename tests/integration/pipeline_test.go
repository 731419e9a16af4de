//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilware/veil/internal/audit"
	"github.com/veilware/veil/internal/detect"
	"github.com/veilware/veil/internal/redact"
	"github.com/veilware/veil/internal/server"
)

const document = `Dane klienta:
Jan Kowalski, PESEL 44051401458, NIP 7740001454.
Kontakt: jan.kowalski@example.com, tel. 601 234 567.
Przelew na PL61109010140000071219812874, karta 4556 7375 8689 9855.`

// TestDocumentWorkflow walks the full anonymization pipeline the way
// "veil anonymize" does: detect, resolve, replace, record.
func TestDocumentWorkflow(t *testing.T) {
	ctx := context.Background()

	cfg := redact.DefaultConfig()
	cfg.HashSalt = "integration-salt"
	anonymizer, err := redact.New(cfg)
	require.NoError(t, err)

	res := anonymizer.Anonymize(ctx, document)

	for _, sensitive := range []string{
		"44051401458", "7740001454", "jan.kowalski@example.com",
		"PL61109010140000071219812874", "4556 7375 8689 9855",
	} {
		assert.NotContains(t, res.Text, sensitive)
	}
	assert.Contains(t, res.Text, "[PESEL]")
	assert.Contains(t, res.Text, "[NIP]")
	assert.Contains(t, res.Text, "[EMAIL]")
	assert.Contains(t, res.Text, "[IBAN]")
	assert.Contains(t, res.Text, "[CARD_NUMBER]")
	assert.Contains(t, res.Text, "[PHONE]")
	assert.Contains(t, res.Text, "[NAME]")

	categories := make(map[detect.Category]bool)
	for _, f := range res.Findings {
		categories[f.Category] = true
		assert.Equal(t, f.Original, document[f.Start:f.End])
	}
	assert.True(t, categories[detect.CategoryPESEL])
	assert.True(t, categories[detect.CategoryIBAN])
}

// TestStrategiesAgreeOnSpans verifies the three replacement strategies
// find identical spans and differ only in the replacement text.
func TestStrategiesAgreeOnSpans(t *testing.T) {
	ctx := context.Background()

	spans := func(strategy redact.Strategy) [][2]int {
		cfg := redact.DefaultConfig()
		cfg.Strategy = strategy
		cfg.HashSalt = "integration-salt"
		a, err := redact.New(cfg)
		require.NoError(t, err)
		res := a.Anonymize(ctx, document)
		out := make([][2]int, len(res.Findings))
		for i, f := range res.Findings {
			out[i] = [2]int{f.Start, f.End}
		}
		return out
	}

	placeholder := spans(redact.StrategyPlaceholder)
	assert.Equal(t, placeholder, spans(redact.StrategyPreserveShape))
	assert.Equal(t, placeholder, spans(redact.StrategyHash))
}

// TestServerWithAuditStore exercises the HTTP API against a real SQLite
// ledger: anonymize over HTTP, then reveal the sealed original directly
// from the store.
func TestServerWithAuditStore(t *testing.T) {
	ctx := context.Background()

	key := bytes.Repeat([]byte{0x5a}, audit.KeySize)
	store, err := audit.NewStore(filepath.Join(t.TempDir(), "audit.db"), key)
	require.NoError(t, err)
	defer store.Close()

	cfg := redact.DefaultConfig()
	cfg.HashSalt = "integration-salt"
	srv, err := server.New(cfg, server.WithAuditStore(store))
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	body, _ := json.Marshal(map[string]any{"text": document, "source": "integration"})
	resp, err := http.Post(ts.URL+"/v1/anonymize", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Text     string           `json:"text"`
		Findings []redact.Finding `json:"findings"`
		RunID    string           `json:"run_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.RunID)
	assert.NotContains(t, out.Text, "44051401458")

	run, err := store.GetRun(ctx, out.RunID)
	require.NoError(t, err)
	assert.Equal(t, "integration", run.Source)
	assert.Equal(t, len(out.Findings), run.FindingCount)

	for i, f := range out.Findings {
		if f.Category == detect.CategoryPESEL {
			original, err := store.RevealOriginal(ctx, out.RunID, i)
			require.NoError(t, err)
			assert.Equal(t, "44051401458", original)
		}
	}
}

// TestRetentionPurgesOldRuns drives the retention sweep's purge path
// against a freshly recorded run.
func TestRetentionPurgesOldRuns(t *testing.T) {
	ctx := context.Background()

	key := bytes.Repeat([]byte{0x5a}, audit.KeySize)
	store, err := audit.NewStore(filepath.Join(t.TempDir(), "audit.db"), key)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.RecordRun(ctx, "doc.txt", "placeholder", []redact.Finding{
		{Start: 0, End: 11, Category: detect.CategoryPESEL, Original: "44051401458", Replacement: "[PESEL]"},
	})
	require.NoError(t, err)

	purged, err := store.PurgeOlderThan(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, purged)

	purged, err = store.PurgeOlderThan(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}
