package reporting

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Schema creates the run summary table. The summary itself is kept as JSON.
const Schema = `
CREATE TABLE IF NOT EXISTS run_summaries (
  run_id text PRIMARY KEY,
  client text NOT NULL,
  created_at timestamptz NOT NULL,
  summary jsonb NOT NULL
);
CREATE INDEX IF NOT EXISTS run_summaries_client_created ON run_summaries (client, created_at)`

// PostgresRepo stores run summaries in run_summaries.
type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{DB: db} }

func (r *PostgresRepo) SaveRun(ctx context.Context, s RunSummary) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO run_summaries (run_id, client, created_at, summary)
VALUES ($1, $2, $3, $4::jsonb)
ON CONFLICT (run_id) DO UPDATE SET summary = EXCLUDED.summary
`
	_, err = r.DB.ExecContext(ctx, q, s.RunID, s.Client, s.CreatedAt, string(payload))
	return err
}

func (r *PostgresRepo) ListRuns(ctx context.Context, client string, from, to time.Time) ([]RunSummary, error) {
	const q = `
SELECT summary
FROM run_summaries
WHERE client = $1 AND created_at >= $2 AND created_at < $3
ORDER BY created_at
`
	rows, err := r.DB.QueryContext(ctx, q, client, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var s RunSummary
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
