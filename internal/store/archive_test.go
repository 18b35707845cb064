package store

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"cdr-reconciler/internal/calls"
	"cdr-reconciler/internal/phone"
	"cdr-reconciler/internal/reconcile"
)

func TestToArchiveRows_KeyAndColumnOrder(t *testing.T) {
	rec := calls.NewRecord(calls.Record{Client: "acme", CallFrom: phone.Normalize("101"), CallTo: phone.Normalize("0811")})
	rows := toArchiveRows([]reconcile.OutputRow{{Record: rec, NumberType: "Unknown number type", BilledAmount: decimal.NewFromInt(5), RoundUpDuration: 1}})

	if len(rows) != 1 || rows[0].FinalKey != rec.FinalKey() {
		t.Fatalf("unexpected rows %+v", rows)
	}
	if len(rows[0].Values) != len(reconcile.Header) {
		t.Fatalf("expected %d values, got %d", len(reconcile.Header), len(rows[0].Values))
	}
	// 3 key columns + every value after Client + updated_at
	if n := 3 + len(rows[0].Values) - 1 + 1; n != 21 {
		t.Fatalf("insert expects 21 args, got %d", n)
	}
}

func TestSave_RequiresClient(t *testing.T) {
	a := NewArchive(nil)
	if err := a.Save(context.Background(), "", "run", nil); !errors.Is(err, ErrNoClient) {
		t.Fatalf("expected ErrNoClient, got %v", err)
	}
}
