package repo

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/miradorstack/cardio-intel/internal/models"
)

// timeLayout is fixed width so recorded_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteOutcomeLog appends outcomes to a local SQLite database.
type SQLiteOutcomeLog struct {
	db   *sql.DB
	path string
}

// NewSQLiteOutcomeLog opens (creating if needed) the database at path and
// bootstraps its schema.
func NewSQLiteOutcomeLog(path string) (*SQLiteOutcomeLog, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite outcome log: path not configured")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create outcome log directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open outcome log: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteOutcomeLog{db: db, path: path}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS recommendation_outcomes (
		id TEXT PRIMARY KEY,
		patient_id TEXT NOT NULL DEFAULT '',
		experiment_id TEXT NOT NULL,
		variant TEXT NOT NULL,
		outcome TEXT NOT NULL,
		outcome_value REAL,
		status TEXT NOT NULL,
		recorded_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_outcomes_experiment ON recommendation_outcomes(experiment_id, recorded_at);
	`
	_, err := db.Exec(schema)
	return err
}

// AppendOutcome implements OutcomeSink.
func (s *SQLiteOutcomeLog) AppendOutcome(ctx context.Context, rec models.OutcomeRecord) error {
	var value sql.NullFloat64
	if rec.OutcomeValue != nil {
		value = sql.NullFloat64{Float64: *rec.OutcomeValue, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recommendation_outcomes
			(id, patient_id, experiment_id, variant, outcome, outcome_value, status, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.PatientID, rec.ExperimentID, rec.Variant, rec.Outcome, value, rec.Status,
		rec.RecordedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert outcome %s: %w", rec.ID, err)
	}
	return nil
}

// ListOutcomes implements OutcomeSink.
func (s *SQLiteOutcomeLog) ListOutcomes(ctx context.Context, experimentID string, limit int) ([]models.OutcomeRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, patient_id, experiment_id, variant, outcome, outcome_value, status, recorded_at
		FROM recommendation_outcomes
		WHERE (? = '' OR experiment_id = ?)
		ORDER BY recorded_at DESC, rowid DESC
		LIMIT ?`,
		experimentID, experimentID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	out := make([]models.OutcomeRecord, 0)
	for rows.Next() {
		var (
			rec        models.OutcomeRecord
			value      sql.NullFloat64
			recordedAt string
		)
		if err := rows.Scan(&rec.ID, &rec.PatientID, &rec.ExperimentID, &rec.Variant, &rec.Outcome,
			&value, &rec.Status, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		if value.Valid {
			v := value.Float64
			rec.OutcomeValue = &v
		}
		if rec.RecordedAt, err = time.Parse(timeLayout, recordedAt); err != nil {
			return nil, fmt.Errorf("parse recorded_at %q: %w", recordedAt, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close implements OutcomeSink.
func (s *SQLiteOutcomeLog) Close() error {
	return s.db.Close()
}
