// Package store archives finalized call records so a client's history survives
// across runs.
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"cdr-reconciler/internal/reconcile"
	"cdr-reconciler/pkg/utils"
)

// Schema creates the archive table. A later run that reports the same call
// replaces the archived row.
const Schema = `
CREATE TABLE IF NOT EXISTS call_records (
  client text NOT NULL,
  final_key text NOT NULL,
  run_id text NOT NULL,
  sequence_id text, user_name text, call_from text, call_to text, call_type text,
  dial_starts_at text, dial_answered_at text, dial_ends_at text,
  ringing_time text, call_duration text, call_memo text, call_charge text,
  carrier text, number_type text, number_region text,
  billed_amount numeric NOT NULL DEFAULT 0,
  round_up_duration integer NOT NULL DEFAULT 0,
  updated_at timestamptz NOT NULL,
  PRIMARY KEY (client, final_key)
)`

var ErrNoClient = errors.New("store: client is required")

// Archive is a Postgres-backed call record archive.
type Archive struct {
	db    *sql.DB
	clock func() time.Time
}

func NewArchive(db *sql.DB) *Archive {
	return &Archive{db: db, clock: time.Now}
}

// archiveRow is the column form of one output row.
type archiveRow struct {
	FinalKey string
	Values   []string // reconcile.Header order
}

func toArchiveRows(rows []reconcile.OutputRow) []archiveRow {
	out := make([]archiveRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, archiveRow{FinalKey: r.Record.FinalKey(), Values: r.Values()})
	}
	return out
}

// Save upserts rows for client in one transaction.
func (a *Archive) Save(ctx context.Context, client, runID string, rows []reconcile.OutputRow) error {
	if client == "" {
		return ErrNoClient
	}
	const q = `
INSERT INTO call_records (
  client, final_key, run_id,
  sequence_id, user_name, call_from, call_to, call_type,
  dial_starts_at, dial_answered_at, dial_ends_at,
  ringing_time, call_duration, call_memo, call_charge,
  carrier, number_type, number_region, billed_amount, round_up_duration,
  updated_at
) VALUES (
  $1, $2, $3,
  $4, $5, $6, $7, $8,
  $9, $10, $11,
  $12, $13, $14, $15,
  $16, $17, $18, $19::numeric, $20::integer,
  $21
)
ON CONFLICT (client, final_key) DO UPDATE SET
  run_id = EXCLUDED.run_id,
  sequence_id = EXCLUDED.sequence_id,
  user_name = EXCLUDED.user_name,
  call_from = EXCLUDED.call_from,
  call_to = EXCLUDED.call_to,
  call_type = EXCLUDED.call_type,
  dial_starts_at = EXCLUDED.dial_starts_at,
  dial_answered_at = EXCLUDED.dial_answered_at,
  dial_ends_at = EXCLUDED.dial_ends_at,
  ringing_time = EXCLUDED.ringing_time,
  call_duration = EXCLUDED.call_duration,
  call_memo = EXCLUDED.call_memo,
  call_charge = EXCLUDED.call_charge,
  carrier = EXCLUDED.carrier,
  number_type = EXCLUDED.number_type,
  number_region = EXCLUDED.number_region,
  billed_amount = EXCLUDED.billed_amount,
  round_up_duration = EXCLUDED.round_up_duration,
  updated_at = EXCLUDED.updated_at
`
	now := a.clock().UTC()
	return utils.WithTx(ctx, a.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, q)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, r := range toArchiveRows(rows) {
			// Values[0] is Client; the archive is keyed by the run's client.
			args := []any{client, r.FinalKey, runID}
			for _, v := range r.Values[1:] {
				args = append(args, v)
			}
			args = append(args, now)
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return err
			}
		}
		return nil
	})
}

// Count returns how many records are archived for client.
func (a *Archive) Count(ctx context.Context, client string) (int, error) {
	const q = `SELECT count(*) FROM call_records WHERE client = $1`
	var n int
	if err := a.db.QueryRowContext(ctx, q, client).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
