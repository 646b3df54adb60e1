// Package profiledb persists profiling runs: the per-run metadata, the
// full score table, and the per-family range selections. SQLite keeps
// the whole analysis reproducible from a single file.
package profiledb

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/nemochina2008/frontiers-palaeo-additive-modelling/internal/profiler"

	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// brings the schema up to date.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db := &DB{sqlDB}
	if err := db.MigrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// RunMeta describes one profiling run. A blank RunID gets a fresh UUID
// assigned by RecordRun.
type RunMeta struct {
	RunID     string
	Dataset   string
	Criterion string
	GridMin   float64
	GridMax   float64
	GridCount int
	BasisDim  int
}

// Selection is a stored per-family winner.
type Selection struct {
	Family    string
	BestRange float64
	BestScore float64
	Lambda    float64
	EDF       float64
}

// RecordRun stores the run metadata, every score cell, and the
// per-family selections in one transaction, returning the run ID.
// Families with no viable candidate store their score cells (all NULL)
// but no selection row. Infinite scores are stored as NULL and read
// back as +Inf, keeping grid alignment intact.
func (db *DB) RecordRun(ctx context.Context, meta RunMeta, res *profiler.Result) (string, error) {
	if meta.RunID == "" {
		meta.RunID = uuid.NewString()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO profile_runs (run_id, dataset, criterion, grid_min, grid_max, grid_count, basis_dim)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		meta.RunID, meta.Dataset, meta.Criterion, meta.GridMin, meta.GridMax, meta.GridCount, meta.BasisDim)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, p := range res.Profiles {
		for gi, cell := range p.Scores {
			score := sql.NullFloat64{Float64: cell.Score, Valid: !math.IsInf(cell.Score, 0) && !math.IsNaN(cell.Score)}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO profile_scores (run_id, family, grid_index, range_value, score)
				VALUES (?, ?, ?, ?, ?)`,
				meta.RunID, p.Family.Name(), gi, cell.Range, score)
			if err != nil {
				return "", fmt.Errorf("insert score cell (%s, %d): %w", p.Family.Name(), gi, err)
			}
		}

		if p.Err != nil || p.Model == nil {
			continue
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO profile_selections (run_id, family, best_range, best_score, lambda, edf)
			VALUES (?, ?, ?, ?, ?, ?)`,
			meta.RunID, p.Family.Name(), p.BestRange, p.BestScore, p.Model.Lambda, p.Model.EDF)
		if err != nil {
			return "", fmt.Errorf("insert selection for %s: %w", p.Family.Name(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run %s: %w", meta.RunID, err)
	}
	return meta.RunID, nil
}

// LoadScores returns the stored score table for a run, keyed by family
// name, each curve in grid order. NULL scores come back as +Inf.
func (db *DB) LoadScores(ctx context.Context, runID string) (map[string][]profiler.Cell, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT family, range_value, score
		FROM profile_scores
		WHERE run_id = ?
		ORDER BY family, grid_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("query scores for run %s: %w", runID, err)
	}
	defer rows.Close()

	tables := make(map[string][]profiler.Cell)
	for rows.Next() {
		var family string
		var rangeValue float64
		var score sql.NullFloat64
		if err := rows.Scan(&family, &rangeValue, &score); err != nil {
			return nil, fmt.Errorf("scan score row: %w", err)
		}
		cell := profiler.Cell{Range: rangeValue, Score: math.Inf(1)}
		if score.Valid {
			cell.Score = score.Float64
		}
		tables[family] = append(tables[family], cell)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("no scores stored for run %s", runID)
	}
	return tables, nil
}

// LoadSelections returns the stored per-family winners for a run,
// ordered by family name.
func (db *DB) LoadSelections(ctx context.Context, runID string) ([]Selection, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT family, best_range, best_score, lambda, edf
		FROM profile_selections
		WHERE run_id = ?
		ORDER BY family`, runID)
	if err != nil {
		return nil, fmt.Errorf("query selections for run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []Selection
	for rows.Next() {
		var s Selection
		if err := rows.Scan(&s.Family, &s.BestRange, &s.BestScore, &s.Lambda, &s.EDF); err != nil {
			return nil, fmt.Errorf("scan selection row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
