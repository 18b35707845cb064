package reporting

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"cdr-reconciler/internal/reconcile"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts run summary storage.
//
// IMPORTANT:
// - Methods must enforce client filtering.
type Repository interface {
	SaveRun(ctx context.Context, s RunSummary) error
	ListRuns(ctx context.Context, client string, from, to time.Time) ([]RunSummary, error)
}

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service { return &Service{repo: repo, clock: time.Now} }

// Summarize builds the summary of one finalized run. It has no side effects.
func Summarize(runID string, job reconcile.Job, phases []reconcile.Stats, rows []reconcile.OutputRow) RunSummary {
	out := RunSummary{
		RunID:        runID,
		Client:       job.Client,
		Carrier:      job.Carrier,
		ByOrigin:     map[string]int{},
		ByNumberType: map[string]int{},
		ByRule:       map[string]int{},
		BilledAmount: decimal.Zero,
		Phases:       phases,
	}
	for _, r := range rows {
		out.TotalRecords++
		out.ByOrigin[string(r.Record.Origin)]++
		out.ByNumberType[r.NumberType]++
		if r.ClassifiedBy != "" {
			out.ByRule[r.ClassifiedBy]++
		}
		out.RoundUpMinutes += r.RoundUpDuration
		out.BilledAmount = out.BilledAmount.Add(r.BilledAmount)
	}
	return out
}

// Record stores s, stamping CreatedAt when unset.
func (s *Service) Record(ctx context.Context, sum RunSummary) (RunSummary, error) {
	if sum.RunID == "" || sum.Client == "" {
		return RunSummary{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return RunSummary{}, errors.New("reporting: repository not configured")
	}
	if sum.CreatedAt.IsZero() {
		sum.CreatedAt = s.clock().UTC()
	}
	if err := s.repo.SaveRun(ctx, sum); err != nil {
		return RunSummary{}, err
	}
	return sum, nil
}

func (s *Service) ClientSummary(ctx context.Context, req ClientSummaryRequest) (ClientSummary, error) {
	if req.Client == "" {
		return ClientSummary{}, ErrInvalidRequest
	}
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return ClientSummary{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return ClientSummary{}, errors.New("reporting: repository not configured")
	}

	runs, err := s.repo.ListRuns(ctx, req.Client, req.Range.From, req.Range.To)
	if err != nil {
		return ClientSummary{}, err
	}

	out := ClientSummary{Client: req.Client, BilledAmount: decimal.Zero, ByNumberType: map[string]int{}}
	for _, r := range runs {
		out.Runs++
		out.TotalRecords += r.TotalRecords
		out.RoundUpMinutes += r.RoundUpMinutes
		out.BilledAmount = out.BilledAmount.Add(r.BilledAmount)
		for label, n := range r.ByNumberType {
			out.ByNumberType[label] += n
		}
	}
	if out.Runs > 0 {
		out.AverageRecordsPerRun = out.TotalRecords / out.Runs
	}
	return out, nil
}
