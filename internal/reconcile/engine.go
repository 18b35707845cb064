// Package reconcile merges dashboard, console and merged-file exports into one
// record per physical call.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"cdr-reconciler/internal/calls"
	"cdr-reconciler/pkg/logger"
)

// Phase is the position of a Set in the ingestion sequence.
type Phase int

const (
	PhaseEmpty Phase = iota
	PhaseDashboard
	PhaseConsole
	PhaseMerged
	PhaseFinalized
)

func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhaseDashboard:
		return "dashboard"
	case PhaseConsole:
		return "console"
	case PhaseMerged:
		return "merged"
	case PhaseFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

var ErrPhaseOrder = errors.New("reconcile: phase out of order")

// Job is the run-level context shared by every row of one client's files.
type Job struct {
	Client  string
	Carrier string
}

// Set accumulates Call Records keyed by final key across the three ingestion
// phases. Phases only move forward; a phase may be skipped but not revisited.
//
// A Set is not safe for concurrent use.
type Set struct {
	job   Job
	phase Phase

	records map[string]*calls.Record
	order   []string
}

func NewSet(job Job) *Set {
	return &Set{job: job, records: make(map[string]*calls.Record)}
}

func (s *Set) Job() Job { return s.job }
func (s *Set) Phase() Phase { return s.phase }
func (s *Set) Len() int { return len(s.order) }

// Records returns the records in first-seen order.
func (s *Set) Records() []*calls.Record {
	out := make([]*calls.Record, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.records[k])
	}
	return out
}

// IngestDashboard runs the dashboard phase.
func (s *Set) IngestDashboard(ctx context.Context, rows []Row) (Stats, error) {
	return s.ingest(ctx, dashboardSource, rows)
}

// IngestConsole runs the console phase.
func (s *Set) IngestConsole(ctx context.Context, rows []Row) (Stats, error) {
	return s.ingest(ctx, consoleSource, rows)
}

// IngestMerged runs the merged-file phase.
func (s *Set) IngestMerged(ctx context.Context, rows []Row) (Stats, error) {
	return s.ingest(ctx, mergedSource, rows)
}

// Stats counts what one phase did.
type Stats struct {
	Source   calls.Source `json:"source"`
	Rows     int          `json:"rows"`
	Inserted int          `json:"inserted"`
	Merged   int          `json:"merged"`
}

func (s *Set) ingest(ctx context.Context, src source, rows []Row) (Stats, error) {
	if err := s.advance(src.phase); err != nil {
		return Stats{}, err
	}
	log := logger.From(ctx).With("client", s.job.Client, "source", string(src.name))

	st := Stats{Source: src.name, Rows: len(rows)}
	for i, row := range rows {
		in, err := src.build(s.job, row)
		if err != nil {
			// Rows are 1-based after the header line.
			return st, fmt.Errorf("%s row %d: %w", src.name, i+1, err)
		}
		key := in.FinalKey()
		if dst, ok := s.records[key]; ok {
			src.merge(dst, in)
			st.Merged++
			continue
		}
		s.records[key] = in
		s.order = append(s.order, key)
		st.Inserted++
	}

	log.Info("phase ingested", "rows", st.Rows, "inserted", st.Inserted, "merged", st.Merged, "records", len(s.order))
	return st, nil
}

func (s *Set) advance(to Phase) error {
	if to <= s.phase {
		return fmt.Errorf("%w: %s after %s", ErrPhaseOrder, to, s.phase)
	}
	s.phase = to
	return nil
}
