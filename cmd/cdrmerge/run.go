package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"cdr-reconciler/internal/calls"
	"cdr-reconciler/internal/csvio"
	"cdr-reconciler/internal/lookup"
	"cdr-reconciler/internal/pricing"
	"cdr-reconciler/internal/reconcile"
	"cdr-reconciler/internal/runner"
	"cdr-reconciler/pkg/logger"
)

func (a *app) runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile every job of a jobs file and write the output CSVs",
		Example: `  cdrmerge run --jobs clients.yaml --tables tables.yaml
  cdrmerge run --jobs clients.yaml --client acme --output-dir out/`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.bind(cmd, "jobs", "client", "output-dir")
		},
		RunE: a.runJobs,
	}
	f := cmd.Flags()
	f.String("jobs", "", "client jobs YAML (required)")
	f.String("client", "", "run only this client")
	f.String("output-dir", ".", "directory for jobs without an output path")
	return cmd
}

func (a *app) runJobs(cmd *cobra.Command, _ []string) error {
	path := a.v.GetString("jobs")
	if path == "" {
		return errors.New("--jobs is required")
	}
	jobs, err := lookup.LoadJobs(path)
	if err != nil {
		return err
	}
	classifier, err := a.classifier()
	if err != nil {
		return err
	}
	book, err := jobs.RateBook()
	if err != nil {
		return err
	}
	svc := &runner.Service{
		Classifier:    classifier,
		Pricing:       pricing.NewService(book),
		DefaultRegion: a.v.GetString("region"),
	}

	ctx := logger.With(cmd.Context(), a.log)
	only := a.v.GetString("client")
	var (
		ran  int
		errs []error
	)
	for _, job := range jobs.Clients {
		if only != "" && job.Client != only {
			continue
		}
		ran++
		out := job.Output
		if out == "" {
			out = filepath.Join(a.v.GetString("output-dir"), job.Client+"_merged.csv")
		}
		res, err := a.runJob(ctx, svc, job, out)
		if err != nil {
			a.log.Error("job failed", "client", job.Client, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", job.Client, err))
			continue
		}
		sum := res.Summary
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d records\t%d min\t%s\t%s\n",
			job.Client, sum.TotalRecords, sum.RoundUpMinutes, sum.BilledAmount.String(), out)
	}
	if only != "" && ran == 0 {
		return fmt.Errorf("client %q not found in %s", only, path)
	}
	return errors.Join(errs...)
}

func (a *app) runJob(ctx context.Context, svc *runner.Service, job lookup.Job, out string) (runner.Result, error) {
	inputs := runner.Inputs{Headers: map[calls.Source][]string{}}
	sources := []struct {
		name calls.Source
		path string
		dst  *[]reconcile.Row
	}{
		{calls.SourceDashboard, job.Dashboard, &inputs.Dashboard},
		{calls.SourceConsole, job.Console, &inputs.Console},
		{calls.SourceMerged, job.Merged, &inputs.Merged},
	}
	for _, s := range sources {
		if s.path == "" {
			continue
		}
		tbl, err := csvio.ReadFile(s.path)
		if err != nil {
			return runner.Result{}, err
		}
		for _, w := range tbl.Warnings {
			a.log.Warn("csv row warning", "client", job.Client, "file", s.path, "row", w.Row, "message", w.Message)
		}
		a.log.Debug("source loaded", "client", job.Client, "source", s.name, "rows", len(tbl.Rows), "encoding", tbl.Encoding)
		*s.dst = tbl.Rows
		inputs.Headers[s.name] = tbl.Header
	}

	res, err := svc.Run(ctx, runner.Request{
		Job:    reconcile.Job{Client: job.Client, Carrier: job.Carrier},
		Inputs: inputs,
	})
	if err != nil {
		return runner.Result{}, err
	}
	if err := csvio.WriteFile(out, reconcile.Header, reconcile.Table(res.Rows)); err != nil {
		return runner.Result{}, err
	}
	return res, nil
}
