// Package execlog persists the append-only monthly execution log and
// enforces the once-per-month idempotency guard.
package execlog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/minsukang/momentum-trader/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS executions (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	date          TEXT NOT NULL,
	month         TEXT NOT NULL,
	selected_code TEXT NOT NULL,
	selected_name TEXT NOT NULL,
	success       INTEGER NOT NULL,
	created_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_executions_month ON executions(month);
`

// Repository stores execution records. Rows are append-only; nothing
// ever updates or deletes them.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates the repository and ensures the schema exists.
func NewRepository(db *sql.DB, log zerolog.Logger) (*Repository, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create executions schema: %w", err)
	}
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "execlog").Logger(),
	}, nil
}

// Append inserts one execution record.
func (r *Repository) Append(rec domain.ExecutionRecord) error {
	_, err := r.db.Exec(
		`INSERT INTO executions (date, month, selected_code, selected_name, success, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Date.Format("2006-01-02"),
		rec.Month,
		rec.SelectedCode,
		rec.SelectedName,
		boolToInt(rec.Success),
		rec.Timestamp.Format(time.RFC3339),
	)
	if err != nil {
		return domain.NewError(domain.KindPersistence, "execlog.Append", err)
	}
	return nil
}

// HasSuccessForMonth reports whether any successful execution exists for
// the given month key.
func (r *Repository) HasSuccessForMonth(month string) (bool, error) {
	var count int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM executions WHERE month = ? AND success = 1`, month,
	).Scan(&count)
	if err != nil {
		return false, domain.NewError(domain.KindPersistence, "execlog.HasSuccessForMonth", err)
	}
	return count > 0, nil
}

// ListForMonth returns all records for a month, oldest first.
func (r *Repository) ListForMonth(month string) ([]domain.ExecutionRecord, error) {
	rows, err := r.db.Query(
		`SELECT date, month, selected_code, selected_name, success, created_at
		 FROM executions WHERE month = ? ORDER BY id`, month,
	)
	if err != nil {
		return nil, domain.NewError(domain.KindPersistence, "execlog.ListForMonth", err)
	}
	defer rows.Close()

	var records []domain.ExecutionRecord
	for rows.Next() {
		var (
			rec            domain.ExecutionRecord
			dateStr, tsStr string
			success        int
		)
		if err := rows.Scan(&dateStr, &rec.Month, &rec.SelectedCode, &rec.SelectedName, &success, &tsStr); err != nil {
			return nil, fmt.Errorf("failed to scan execution record: %w", err)
		}
		rec.Date, _ = time.Parse("2006-01-02", dateStr)
		rec.Timestamp, _ = time.Parse(time.RFC3339, tsStr)
		rec.Success = success == 1
		records = append(records, rec)
	}
	return records, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
