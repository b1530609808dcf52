package storage

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/codewithboateng/dockscout/internal/ir"
)

// ListRuns returns a lightweight list of runs with verdict counts.
func (db *DB) ListRuns(limit, offset int) ([]RunRow, error) {
	const q = `
		SELECT r.id, r.started_at, r.source, r.ir_version, r.catalog_version,
		       (SELECT COUNT(1) FROM verdicts v WHERE v.run_id = r.id) AS verdicts
		  FROM runs r
		 ORDER BY r.started_at DESC, r.id DESC
		 LIMIT ? OFFSET ?`
	rows, err := db.conn.Query(q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var rr RunRow
		var startedAtStr string
		if err := rows.Scan(&rr.ID, &startedAtStr, &rr.Source, &rr.IRVersion, &rr.CatalogVersion, &rr.Verdicts); err != nil {
			return nil, err
		}
		// Parse RFC3339Nano first, fallback to RFC3339
		if t, err := time.Parse(time.RFC3339Nano, startedAtStr); err == nil {
			rr.StartedAt = t
		} else if t2, err2 := time.Parse(time.RFC3339, startedAtStr); err2 == nil {
			rr.StartedAt = t2
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}

// ListVerdicts returns a run's verdicts, optionally restricted to one of
// the four report buckets (recommended|stretch|maybe|skip).
func (db *DB) ListVerdicts(runID, bucket string) ([]ir.CandidateVerdict, error) {
	q := `SELECT verdict_json FROM verdicts WHERE run_id = ?`
	args := []any{runID}
	switch bucket {
	case "":
		// all
	case "skip":
		q += ` AND tier LIKE 'skip:%'`
	default:
		q += ` AND tier = ?`
		args = append(args, bucket)
	}
	q += ` ORDER BY score DESC, repo`

	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ir.CandidateVerdict
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		var v ir.CandidateVerdict
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// LoadLatestRun returns the most recently started run.
func (db *DB) LoadLatestRun() (ir.Run, error) {
	var id string
	row := db.conn.QueryRow(`SELECT id FROM runs ORDER BY started_at DESC, id DESC LIMIT 1`)
	if err := row.Scan(&id); err != nil {
		return ir.Run{}, err
	}
	return db.LoadRun(id)
}

// HasRun reports whether a run id exists.
func (db *DB) HasRun(id string) (bool, error) {
	const q = `SELECT 1 FROM runs WHERE id = ? LIMIT 1`
	var one int
	err := db.conn.QueryRow(q, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}
