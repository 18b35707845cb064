// Package runner executes one reconciliation run end to end: the three ingestion
// phases, finalization, the run summary and the side records (audit, archive).
package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"cdr-reconciler/internal/audit"
	"cdr-reconciler/internal/calls"
	"cdr-reconciler/internal/phone"
	"cdr-reconciler/internal/pricing"
	"cdr-reconciler/internal/reconcile"
	"cdr-reconciler/internal/reporting"
	"cdr-reconciler/pkg/logger"
)

// Inputs are the loaded rows of each source. A nil slice skips that phase.
type Inputs struct {
	Dashboard []reconcile.Row
	Console   []reconcile.Row
	Merged    []reconcile.Row

	// Headers are the header lines of the loaded files. Every present header is
	// checked before any row is ingested.
	Headers map[calls.Source][]string
}

type Request struct {
	// RunID is generated when empty.
	RunID  string
	Job    reconcile.Job
	Inputs Inputs

	Actor  audit.Actor
	Digest string
}

type Result struct {
	RunID   string
	Rows    []reconcile.OutputRow
	Summary reporting.RunSummary
}

// Archiver persists finalized rows.
type Archiver interface {
	Save(ctx context.Context, client, runID string, rows []reconcile.OutputRow) error
}

// Service wires the collaborators of a run. Only Classifier is required; every
// other field may be nil.
type Service struct {
	Classifier    *phone.Classifier
	Pricing       *pricing.Service
	DefaultRegion string

	Audit   *audit.Service
	Reports *reporting.Service
	Archive Archiver
}

var ErrNoInputs = errors.New("runner: no input rows for any source")

// Run executes req. Audit and summary storage are best-effort; the archive is not.
func (s *Service) Run(ctx context.Context, req Request) (Result, error) {
	if req.Inputs.Dashboard == nil && req.Inputs.Console == nil && req.Inputs.Merged == nil {
		return Result{}, ErrNoInputs
	}
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	log := logger.From(ctx).With("run_id", req.RunID, "client", req.Job.Client)
	ctx = logger.With(ctx, log)

	s.audit(ctx, audit.EventTypeRunStarted, req, "run started", nil)

	res, err := s.run(ctx, req)
	if err != nil {
		log.Error("run failed", "err", err)
		s.audit(ctx, audit.EventTypeRunFailed, req, err.Error(), nil)
		return Result{}, err
	}

	if s.Reports != nil {
		if sum, err := s.Reports.Record(ctx, res.Summary); err != nil {
			log.Warn("run summary not stored", "err", err)
		} else {
			res.Summary = sum
		}
	}
	if s.Archive != nil {
		if err := s.Archive.Save(ctx, req.Job.Client, req.RunID, res.Rows); err != nil {
			log.Error("archive failed", "err", err)
			s.audit(ctx, audit.EventTypeRunFailed, req, "archive failed", nil)
			return Result{}, err
		}
	}

	s.audit(ctx, audit.EventTypeRunCompleted, req, "run completed", map[string]any{
		"records":          res.Summary.TotalRecords,
		"round_up_minutes": res.Summary.RoundUpMinutes,
		"billed_amount":    res.Summary.BilledAmount.String(),
	})
	log.Info("run completed", "records", res.Summary.TotalRecords)
	return res, nil
}

func (s *Service) run(ctx context.Context, req Request) (Result, error) {
	set := reconcile.NewSet(req.Job)

	phases := []struct {
		src    calls.Source
		rows   []reconcile.Row
		ingest func(context.Context, []reconcile.Row) (reconcile.Stats, error)
	}{
		{calls.SourceDashboard, req.Inputs.Dashboard, set.IngestDashboard},
		{calls.SourceConsole, req.Inputs.Console, set.IngestConsole},
		{calls.SourceMerged, req.Inputs.Merged, set.IngestMerged},
	}
	for _, p := range phases {
		header, ok := req.Inputs.Headers[p.src]
		if p.rows == nil || !ok {
			continue
		}
		if err := reconcile.CheckHeader(p.src, header); err != nil {
			return Result{}, fmt.Errorf("%s header: %w", p.src, err)
		}
	}

	var stats []reconcile.Stats
	for _, p := range phases {
		if p.rows == nil {
			continue
		}
		st, err := p.ingest(ctx, p.rows)
		if err != nil {
			return Result{}, err
		}
		stats = append(stats, st)
	}

	rows, err := set.Finalize(ctx, reconcile.Finalizer{
		Classifier:    s.Classifier,
		Pricing:       s.Pricing,
		DefaultRegion: s.DefaultRegion,
	})
	if err != nil {
		return Result{}, err
	}
	return Result{
		RunID:   req.RunID,
		Rows:    rows,
		Summary: reporting.Summarize(req.RunID, req.Job, stats, rows),
	}, nil
}

func (s *Service) audit(ctx context.Context, typ audit.EventType, req Request, msg string, meta any) {
	if s.Audit == nil || req.Job.Client == "" {
		return
	}
	if err := s.Audit.LogRun(ctx, typ, req.Job.Client, req.RunID, req.Digest, req.Actor, msg, meta); err != nil {
		logger.From(ctx).Warn("audit append failed", "type", string(typ), "err", err)
	}
}
