// Package audit persists an anonymization ledger in SQLite: one record
// per run plus its findings. Original values are sealed with NaCl
// secretbox before they touch disk, so the ledger supports controlled
// re-identification without storing raw PII in plaintext.
package audit

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/otel/attribute"

	"github.com/veilware/veil/internal/detect"
	veilotel "github.com/veilware/veil/internal/otel"
	"github.com/veilware/veil/internal/redact"
)

var tracer = veilotel.Tracer("github.com/veilware/veil/internal/audit")

// KeySize is the required sealing key length in bytes.
const KeySize = 32

// Store persists run and finding records.
type Store struct {
	db  *sql.DB
	key [KeySize]byte
}

// Run is one anonymization invocation.
type Run struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Source       string    `json:"source"`
	Strategy     string    `json:"strategy"`
	FindingCount int       `json:"finding_count"`
}

// Finding is one sealed ledger entry within a run.
type Finding struct {
	RunID       string          `json:"run_id"`
	Index       int             `json:"index"`
	Start       int             `json:"start"`
	End         int             `json:"end"`
	Category    detect.Category `json:"category"`
	Replacement string          `json:"replacement"`
}

// NewStore opens (and if needed creates) the ledger database. The key
// seals original values and must be exactly KeySize bytes.
func NewStore(dbPath string, key []byte) (*Store, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("audit sealing key must be %d bytes, got %d", KeySize, len(key))
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		timestamp TIMESTAMP NOT NULL,
		source TEXT NOT NULL,
		strategy TEXT NOT NULL,
		finding_count INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS findings (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		idx INTEGER NOT NULL,
		start_offset INTEGER NOT NULL,
		end_offset INTEGER NOT NULL,
		category TEXT NOT NULL,
		replacement TEXT NOT NULL,
		sealed_original TEXT NOT NULL,
		PRIMARY KEY (run_id, idx)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);
	CREATE INDEX IF NOT EXISTS idx_findings_category ON findings(category);
	`
	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating audit schema: %w", err)
	}

	s := &Store{db: db}
	copy(s.key[:], key)
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun stores a run and its findings inside one transaction and
// returns the generated run ID.
func (s *Store) RecordRun(ctx context.Context, source, strategy string, findings []redact.Finding) (string, error) {
	ctx, span := tracer.Start(ctx, "audit.record_run")
	defer span.End()

	runID := uuid.NewString()
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning audit transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, timestamp, source, strategy, finding_count) VALUES (?, ?, ?, ?, ?)`,
		runID, now, source, strategy, len(findings))
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	for i, f := range findings {
		sealed, err := s.seal(f.Original)
		if err != nil {
			return "", err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO findings (run_id, idx, start_offset, end_offset, category, replacement, sealed_original)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, i, f.Start, f.End, string(f.Category), f.Replacement, sealed)
		if err != nil {
			return "", fmt.Errorf("inserting finding %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing audit transaction: %w", err)
	}

	span.SetAttributes(attribute.Int("audit.findings", len(findings)))
	return runID, nil
}

// GetRun returns a run record by ID.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	var r Run
	err := s.db.QueryRowContext(ctx,
		`SELECT id, timestamp, source, strategy, finding_count FROM runs WHERE id = ?`, runID).
		Scan(&r.ID, &r.Timestamp, &r.Source, &r.Strategy, &r.FindingCount)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}
	return &r, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, source, strategy, finding_count FROM runs ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Source, &r.Strategy, &r.FindingCount); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Findings returns a run's ledger entries in order, without originals.
func (s *Store) Findings(ctx context.Context, runID string) ([]Finding, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, idx, start_offset, end_offset, category, replacement FROM findings WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying findings: %w", err)
	}
	defer rows.Close()

	var findings []Finding
	for rows.Next() {
		var f Finding
		var cat string
		if err := rows.Scan(&f.RunID, &f.Index, &f.Start, &f.End, &cat, &f.Replacement); err != nil {
			return nil, fmt.Errorf("scanning finding: %w", err)
		}
		f.Category = detect.Category(cat)
		findings = append(findings, f)
	}
	return findings, rows.Err()
}

// RevealOriginal unseals one finding's original value. This is the only
// path back to raw PII and requires the store's key.
func (s *Store) RevealOriginal(ctx context.Context, runID string, index int) (string, error) {
	var sealed string
	err := s.db.QueryRowContext(ctx,
		`SELECT sealed_original FROM findings WHERE run_id = ? AND idx = ?`, runID, index).
		Scan(&sealed)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("finding %d of run %s not found", index, runID)
	}
	if err != nil {
		return "", fmt.Errorf("querying finding: %w", err)
	}
	return s.open(sealed)
}

// PurgeOlderThan deletes runs (and their findings) older than the given
// age. Returns the number of runs removed.
func (s *Store) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-age)

	// SQLite foreign keys are off by default; delete findings explicitly.
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM findings WHERE run_id IN (SELECT id FROM runs WHERE timestamp < ?)`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging findings: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging runs: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) seal(value string) (string, error) {
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}
	sealed := sealBox(nonce, []byte(value), &s.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *Store) open(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decoding sealed value: %w", err)
	}
	plain, err := openBox(raw, &s.key)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
