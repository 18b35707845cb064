package audit

import (
	"context"
	"database/sql"
)

// Schema creates the append-only audit table.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_events (
  id text PRIMARY KEY,
  client text NOT NULL,
  type text NOT NULL,
  actor_user_id text, actor_role text, ip_address text,
  run_id text, input_digest text,
  message text, metadata jsonb,
  created_at timestamptz NOT NULL
)`

// PostgresRepo appends events to audit_events.
type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{DB: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events (id, client, type, actor_user_id, actor_role, ip_address, run_id, input_digest, message, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, '')::jsonb, $11)
`
	_, err := r.DB.ExecContext(ctx, q,
		e.ID,
		e.Client,
		string(e.Type),
		e.ActorUserID,
		e.ActorRole,
		e.IPAddress,
		e.RunID,
		e.InputDigest,
		e.Message,
		e.Metadata,
		e.CreatedAt,
	)
	return err
}
