package runner

import (
	"context"
	"errors"
	"testing"

	"cdr-reconciler/internal/audit"
	"cdr-reconciler/internal/calls"
	"cdr-reconciler/internal/cdrtime"
	"cdr-reconciler/internal/phone"
	"cdr-reconciler/internal/reconcile"
	"cdr-reconciler/internal/reporting"
)

type stubArchive struct {
	rows int
	err  error
}

func (a *stubArchive) Save(ctx context.Context, client, runID string, rows []reconcile.OutputRow) error {
	a.rows += len(rows)
	return a.err
}

func consoleRow(region string) reconcile.Row {
	return reconcile.Row{
		"call_id": "c-1", "used_number": "0215551234", "number": "0811222333",
		"call_type": "OUTGOING_CALL", "dial_starts_at": "2024-03-01 10:00:00",
		"dial_answered_at": "", "dial_ends_at": "", "pbx_region": region,
		"all_duration_of_call_sec_str": "0:00:40", "duration_of_call_sec_str": "0:00:30",
		"discount": "0", "number_type": "",
	}
}

func newService(arch Archiver) (*Service, *audit.MemoryRepo, *reporting.MemoryRepo) {
	auditRepo := audit.NewMemoryRepo()
	reportRepo := reporting.NewMemoryRepo()
	return &Service{
		Classifier: phone.NewClassifier(phone.Tables{}),
		Audit:      audit.NewService(auditRepo),
		Reports:    reporting.NewService(reportRepo),
		Archive:    arch,
	}, auditRepo, reportRepo
}

func TestRun_CompletesAndRecords(t *testing.T) {
	arch := &stubArchive{}
	svc, auditRepo, reportRepo := newService(arch)

	res, err := svc.Run(context.Background(), Request{
		RunID:  "run-1",
		Job:    reconcile.Job{Client: "acme", Carrier: "Telkom"},
		Inputs: Inputs{Console: []reconcile.Row{consoleRow("jkt")}},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(res.Rows) != 1 || res.Summary.TotalRecords != 1 || res.Summary.RoundUpMinutes != 1 {
		t.Fatalf("unexpected result %+v", res.Summary)
	}
	if arch.rows != 1 {
		t.Fatalf("expected archived row")
	}
	if len(reportRepo.Runs) != 1 || reportRepo.Runs[0].CreatedAt.IsZero() {
		t.Fatalf("expected stored summary")
	}
	evs := auditRepo.EventsFor("run-1")
	if len(evs) != 2 || evs[0].Type != audit.EventTypeRunStarted || evs[1].Type != audit.EventTypeRunCompleted {
		t.Fatalf("unexpected audit trail %+v", evs)
	}
}

func TestRun_UnsupportedRegionFailsAndAudits(t *testing.T) {
	svc, auditRepo, _ := newService(nil)
	_, err := svc.Run(context.Background(), Request{
		RunID:  "run-2",
		Job:    reconcile.Job{Client: "acme"},
		Inputs: Inputs{Console: []reconcile.Row{consoleRow("sgp")}},
	})
	if !errors.Is(err, cdrtime.ErrUnsupportedRegion) {
		t.Fatalf("expected ErrUnsupportedRegion, got %v", err)
	}
	evs := auditRepo.EventsFor("run-2")
	if len(evs) != 2 || evs[1].Type != audit.EventTypeRunFailed {
		t.Fatalf("expected run_failed event, got %+v", evs)
	}
}

func TestRun_ArchiveFailureFailsRun(t *testing.T) {
	svc, _, _ := newService(&stubArchive{err: errors.New("db down")})
	_, err := svc.Run(context.Background(), Request{
		Job:    reconcile.Job{Client: "acme"},
		Inputs: Inputs{Console: []reconcile.Row{consoleRow("jkt")}},
	})
	if err == nil {
		t.Fatalf("expected archive error")
	}
}

func TestRun_NoInputs(t *testing.T) {
	svc, _, _ := newService(nil)
	if _, err := svc.Run(context.Background(), Request{Job: reconcile.Job{Client: "acme"}}); !errors.Is(err, ErrNoInputs) {
		t.Fatalf("expected ErrNoInputs, got %v", err)
	}
}

func TestRun_RejectsWrongHeaderOnEmptyFile(t *testing.T) {
	arch := &stubArchive{}
	svc, auditRepo, _ := newService(arch)

	// A dashboard export uploaded as the console file, header line only.
	_, err := svc.Run(context.Background(), Request{
		RunID: "run-3",
		Job:   reconcile.Job{Client: "acme"},
		Inputs: Inputs{
			Console: []reconcile.Row{},
			Headers: map[calls.Source][]string{calls.SourceConsole: reconcile.DashboardColumns},
		},
	})
	if !errors.Is(err, reconcile.ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
	if arch.rows != 0 {
		t.Fatalf("nothing must be archived")
	}
	evs := auditRepo.EventsFor("run-3")
	if len(evs) != 2 || evs[1].Type != audit.EventTypeRunFailed {
		t.Fatalf("expected run_failed event, got %+v", evs)
	}
}

func TestRun_ValidHeaderOnEmptyFile(t *testing.T) {
	svc, _, _ := newService(nil)
	res, err := svc.Run(context.Background(), Request{
		Job: reconcile.Job{Client: "acme"},
		Inputs: Inputs{
			Console: []reconcile.Row{},
			Headers: map[calls.Source][]string{calls.SourceConsole: reconcile.ConsoleColumns},
		},
	})
	if err != nil || len(res.Rows) != 0 {
		t.Fatalf("expected empty run, got %d rows, err %v", len(res.Rows), err)
	}
}
