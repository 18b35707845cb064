package audit

import "time"

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted.
// - client is required for tenancy isolation.
// - actor and ip capture are best-effort; do not block a run on audit failures.
//
// Storage (Postgres): table audit_events, INSERT-only. See PostgresRepo.

type Event struct {
	ID     string `json:"id" db:"id"`
	Client string `json:"client" db:"client"`

	// Type indicates the business category of the audit record.
	Type EventType `json:"type" db:"type"`

	// ActorUserID is the authenticated user causing the event (empty for CLI runs).
	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`
	ActorRole   string `json:"actor_role,omitempty" db:"actor_role"`

	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	// RunID ties the events of one reconciliation run together.
	RunID string `json:"run_id,omitempty" db:"run_id"`

	// InputDigest is the sha256 of the uploaded files, when known.
	InputDigest string `json:"input_digest,omitempty" db:"input_digest"`

	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeRunStarted   EventType = "run_started"
	EventTypeRunCompleted EventType = "run_completed"
	EventTypeRunFailed    EventType = "run_failed"
	EventTypeCacheHit     EventType = "run_cache_hit"
)
