// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists extraction runs and their kept examples in a local
// SQLite database for inspection and downstream consumption.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/extraction-engine/internal/composer"
	"github.com/pdiddy/extraction-engine/pkg/tensor"
	"github.com/pdiddy/extraction-engine/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "extraction.db"
)

// Store manages the extraction results SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the database at dir/index/extraction.db and
// creates the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	cfg.ApplyDefaults()

	dbDir := filepath.Join(cfg.Dir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, maxResults: cfg.MaxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TEXT NOT NULL,
			records INTEGER NOT NULL DEFAULT 0,
			kept INTEGER NOT NULL DEFAULT 0,
			dropped INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS examples (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			idx INTEGER NOT NULL,
			bucket INTEGER NOT NULL,
			payload TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_examples_run_id ON examples(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_examples_bucket ON examples(run_id, bucket)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// BeginRun records the start of a pipeline run and returns its id.
func (s *Store) BeginRun(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (created_at) VALUES (?)`,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}
	return id, nil
}

// FinishRun stores the final counters of a run.
func (s *Store) FinishRun(ctx context.Context, runID int64, records, kept, dropped, failed int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET records = ?, kept = ?, dropped = ?, failed = ? WHERE id = ?`,
		records, kept, dropped, failed, runID)
	if err != nil {
		return fmt.Errorf("updating run %d: %w", runID, err)
	}
	return nil
}

// fieldPayload is the stored encoding of one output tensor.
type fieldPayload struct {
	DType   string    `yaml:"dtype"`
	Shape   []int     `yaml:"shape"`
	Floats  []float64 `yaml:"floats,omitempty"`
	Ints    []int64   `yaml:"ints,omitempty"`
	Strings []string  `yaml:"strings,omitempty"`
	Bools   []bool    `yaml:"bools,omitempty"`
}

func encodeFields(fields map[string]*tensor.Tensor) ([]byte, error) {
	payload := make(map[string]fieldPayload, len(fields))
	for name, t := range fields {
		fp := fieldPayload{
			DType: t.DType().String(),
			Shape: t.Shape(),
		}
		switch t.DType() {
		case types.DTFloat32, types.DTFloat64:
			fp.Floats = t.Floats()
		case types.DTInt32, types.DTInt64:
			fp.Ints = t.Ints()
		case types.DTString:
			fp.Strings = t.Strings()
		case types.DTBool:
			fp.Bools = t.Bools()
		}
		payload[name] = fp
	}
	return yaml.Marshal(payload)
}

// PutExample stores one kept example under its run.
func (s *Store) PutExample(ctx context.Context, runID int64, idx int, ex *composer.Example) error {
	payload, err := encodeFields(ex.Fields)
	if err != nil {
		return fmt.Errorf("encoding example %d: %w", idx, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO examples (run_id, idx, bucket, payload) VALUES (?, ?, ?, ?)`,
		runID, idx, int(ex.Bucket), string(payload))
	if err != nil {
		return fmt.Errorf("inserting example %d: %w", idx, err)
	}
	return nil
}

// RunInfo summarizes one stored pipeline run.
type RunInfo struct {
	ID        int64
	CreatedAt time.Time
	Records   int
	Kept      int
	Dropped   int
	Failed    int
}

// Runs returns the most recent runs, newest first, capped at the configured
// maximum.
func (s *Store) Runs(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, records, kept, dropped, failed
		 FROM runs ORDER BY id DESC LIMIT ?`, s.maxResults)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var r RunInfo
		var created string
		if err := rows.Scan(&r.ID, &created, &r.Records, &r.Kept, &r.Dropped, &r.Failed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			r.CreatedAt = t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// BucketCounts returns per-bucket example counts for one run.
func (s *Store) BucketCounts(ctx context.Context, runID int64) (map[types.BucketID]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT bucket, count(*) FROM examples WHERE run_id = ? GROUP BY bucket`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying bucket counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[types.BucketID]int)
	for rows.Next() {
		var bucket, n int
		if err := rows.Scan(&bucket, &n); err != nil {
			return nil, fmt.Errorf("scanning bucket count: %w", err)
		}
		counts[types.BucketID(bucket)] = n
	}
	return counts, rows.Err()
}
