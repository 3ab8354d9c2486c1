// Package store keeps a local history of served predictions in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/f3rmion/aimpact/internal/predict"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// DefaultLimit is the number of records Recent returns for a limit <= 0.
const DefaultLimit = 20

// Record is one served prediction.
type Record struct {
	ID        string
	CreatedAt time.Time
	Input     predict.Input
	Result    predict.Result
}

// Store is a prediction history backed by a SQLite file.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the history database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating history dir: %w", err)
		}
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	// sqlite serialises writers anyway
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening history: %w", err)
	}
	if err := ensureSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS predictions (
  id TEXT PRIMARY KEY,
  created_at INTEGER NOT NULL,
  tool TEXT NOT NULL,
  purpose TEXT NOT NULL,
  dependency REAL NOT NULL,
  content_percentage REAL NOT NULL,
  last_exam_score REAL NOT NULL,
  usage_hours REAL NOT NULL,
  study_consistency REAL NOT NULL,
  sleep_hours REAL NOT NULL,
  score_with_ai REAL NOT NULL,
  passed INTEGER NOT NULL,
  impact REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS predictions_created_at ON predictions(created_at);
`

func ensureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add stores a prediction and returns its record. The reference score is
// the input's last exam score.
func (s *Store) Add(ctx context.Context, in predict.Input, res predict.Result) (Record, error) {
	rec := Record{
		ID:        uuid.NewString(),
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
		Input:     in,
		Result:    res,
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO predictions (
  id, created_at, tool, purpose, dependency, content_percentage, last_exam_score,
  usage_hours, study_consistency, sleep_hours, score_with_ai, passed, impact
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CreatedAt.UnixMilli(), in.Tool, in.Purpose, in.Dependency, in.ContentPercentage,
		in.LastExamScore, in.UsageHours, in.StudyConsistency, in.SleepHours,
		res.ScoreWithAI, boolInt(res.Passed), res.Impact,
	)
	if err != nil {
		return Record{}, fmt.Errorf("storing prediction: %w", err)
	}
	return rec, nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, created_at, tool, purpose, dependency, content_percentage, last_exam_score,
       usage_hours, study_consistency, sleep_hours, score_with_ai, passed, impact
FROM predictions
ORDER BY created_at DESC, rowid DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r       Record
			created int64
		)
		if err := rows.Scan(
			&r.ID, &created, &r.Input.Tool, &r.Input.Purpose, &r.Input.Dependency,
			&r.Input.ContentPercentage, &r.Input.LastExamScore, &r.Input.UsageHours,
			&r.Input.StudyConsistency, &r.Input.SleepHours,
			&r.Result.ScoreWithAI, &r.Result.Passed, &r.Result.Impact,
		); err != nil {
			return nil, fmt.Errorf("reading history: %w", err)
		}
		r.CreatedAt = time.UnixMilli(created).UTC()
		r.Result.ReferenceScore = r.Input.LastExamScore
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return out, nil
}

// ErrNotFound is returned by Get for an unknown ID.
var ErrNotFound = errors.New("prediction not found")

// Get returns the record with the given ID.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	var (
		r       Record
		created int64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, created_at, tool, purpose, dependency, content_percentage, last_exam_score,
       usage_hours, study_consistency, sleep_hours, score_with_ai, passed, impact
FROM predictions WHERE id = ?`, id).Scan(
		&r.ID, &created, &r.Input.Tool, &r.Input.Purpose, &r.Input.Dependency,
		&r.Input.ContentPercentage, &r.Input.LastExamScore, &r.Input.UsageHours,
		&r.Input.StudyConsistency, &r.Input.SleepHours,
		&r.Result.ScoreWithAI, &r.Result.Passed, &r.Result.Impact,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("reading prediction %s: %w", id, err)
	}
	r.CreatedAt = time.UnixMilli(created).UTC()
	r.Result.ReferenceScore = r.Input.LastExamScore
	return r, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
