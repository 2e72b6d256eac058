// Package universe stores the instrument master data the ranked
// strategy scans. An external loader refreshes the table from the
// exchange master files; this repository serves eligibility and name
// lookups.
package universe

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/minsukang/momentum-trader/internal/database"
	"github.com/minsukang/momentum-trader/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS instruments (
	code              TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	market            TEXT NOT NULL DEFAULT 'KOSPI',
	momentum_eligible INTEGER NOT NULL DEFAULT 1,
	updated_at        TEXT NOT NULL DEFAULT (datetime('now'))
);
`

// Repository provides instrument lookups backed by sqlite.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates the repository and ensures the schema exists.
func NewRepository(db *sql.DB, log zerolog.Logger) (*Repository, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create instruments schema: %w", err)
	}
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "universe").Logger(),
	}, nil
}

// Instrument is one master-data row.
type Instrument struct {
	Code     string
	Name     string
	Market   string
	Eligible bool
}

// Upsert inserts or replaces a batch of instruments in one transaction.
func (r *Repository) Upsert(instruments []Instrument) error {
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(
			`INSERT INTO instruments (code, name, market, momentum_eligible, updated_at)
			 VALUES (?, ?, ?, ?, datetime('now'))
			 ON CONFLICT(code) DO UPDATE SET
			   name = excluded.name,
			   market = excluded.market,
			   momentum_eligible = excluded.momentum_eligible,
			   updated_at = excluded.updated_at`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, inst := range instruments {
			eligible := 0
			if inst.Eligible {
				eligible = 1
			}
			if _, err := stmt.Exec(inst.Code, inst.Name, inst.Market, eligible); err != nil {
				return fmt.Errorf("upsert %s: %w", inst.Code, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Info().Int("count", len(instruments)).Msg("Upserted instruments")
	return nil
}

// GetEligible returns all momentum-eligible instruments, ordered by
// code.
func (r *Repository) GetEligible() ([]domain.Instrument, error) {
	rows, err := r.db.Query(
		`SELECT code, name FROM instruments WHERE momentum_eligible = 1 ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to query eligible instruments: %w", err)
	}
	defer rows.Close()

	var out []domain.Instrument
	for rows.Next() {
		var inst domain.Instrument
		if err := rows.Scan(&inst.Code, &inst.Name); err != nil {
			return nil, fmt.Errorf("failed to scan instrument: %w", err)
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

// GetName resolves a display name, falling back to the code when the
// instrument is unknown.
func (r *Repository) GetName(code string) string {
	var name string
	err := r.db.QueryRow(`SELECT name FROM instruments WHERE code = ?`, code).Scan(&name)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			r.log.Warn().Err(err).Str("code", code).Msg("Name lookup failed")
		}
		return code
	}
	return name
}
