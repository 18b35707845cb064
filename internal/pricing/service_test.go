package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"cdr-reconciler/internal/phone"
)

func TestRoundUpMinutes(t *testing.T) {
	cases := map[string]int{
		"0:01:30": 2,
		"0:01:00": 1,
		"1:00:01": 61,
		"0:00:00": 0,
		"90":      2,
		"60":      1,
		"0":       0,
		" 61 ":    2,
	}
	for in, want := range cases {
		got, err := RoundUpMinutes(in)
		if err != nil {
			t.Fatalf("%q: unexpected err: %v", in, err)
		}
		if got != want {
			t.Fatalf("%q: expected %d, got %d", in, want, got)
		}
	}
}

func TestRoundUpMinutes_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "1:30", "a:b:c", "1:2:3:4"} {
		if _, err := RoundUpMinutes(in); !errors.Is(err, ErrInvalidDuration) {
			t.Fatalf("%q: expected ErrInvalidDuration, got %v", in, err)
		}
	}
}

func TestRoundUpDuration_InvalidIsZero(t *testing.T) {
	if got := RoundUpDuration(context.Background(), "invalid"); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := RoundUpDuration(context.Background(), "0:01:30"); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
}

func TestDurationSeconds(t *testing.T) {
	got, err := DurationSeconds("0:01:30")
	if err != nil || got != 90 {
		t.Fatalf("expected 90, got %d (%v)", got, err)
	}
	got, err = DurationSeconds("45")
	if err != nil || got != 45 {
		t.Fatalf("expected 45, got %d (%v)", got, err)
	}
}

func testBook() *MemoryBook {
	return &MemoryBook{
		Clients: []ClientRates{{
			Client:              "acme",
			Base:                Rate{Amount: decimal.RequireFromString("700"), Type: RateTypePerMinute},
			ChargeableCallTypes: []string{"Outbound call"},
			Numbers: []NumberRate{{
				Number:              "+62 21 555 0000",
				Rate:                Rate{Amount: decimal.RequireFromString("15.5"), Type: RateTypePerSecond},
				ChargeableCallTypes: []string{"Outbound call", "Inbound call"},
			}},
		}},
		International: InternationalRates{
			"Indosat": {"International - Japan": decimal.RequireFromString("4000")},
		},
	}
}

func TestBilledAmount_BasePerMinute(t *testing.T) {
	svc := NewService(testBook())
	bill, err := svc.BilledAmount(context.Background(), BillRequest{
		Client: "acme", CallType: "Outbound call", CallFrom: phone.Normalize("0215551234"),
		Label: "Jakarta", Duration: "0:01:30",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if bill.Source != RateSourceBase || !bill.Amount.Equal(decimal.NewFromInt(1400)) {
		t.Fatalf("expected base 1400, got %s %s", bill.Source, bill.Amount)
	}
}

func TestBilledAmount_DedicatedNumberPerSecond(t *testing.T) {
	svc := NewService(testBook())
	bill, err := svc.BilledAmount(context.Background(), BillRequest{
		Client: "acme", CallType: "Inbound call", CallFrom: phone.Normalize("0215550000"),
		Label: "Jakarta", Duration: "10",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if bill.Source != RateSourceNumber || !bill.Amount.Equal(decimal.RequireFromString("155")) {
		t.Fatalf("expected number 155, got %s %s", bill.Source, bill.Amount)
	}
}

func TestBilledAmount_International(t *testing.T) {
	svc := NewService(testBook())
	bill, err := svc.BilledAmount(context.Background(), BillRequest{
		Client: "acme", CallType: "Outbound call", Carrier: "Indosat",
		Label: "International - Japan", Duration: "0:00:59",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if bill.Source != RateSourceInternational || !bill.Amount.Equal(decimal.NewFromInt(4000)) {
		t.Fatalf("expected international 4000, got %s %s", bill.Source, bill.Amount)
	}

	// no carrier rate: base applies
	bill, err = svc.BilledAmount(context.Background(), BillRequest{
		Client: "acme", CallType: "Outbound call", Carrier: "Telkom",
		Label: "International - Japan", Duration: "0:00:59",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if bill.Source != RateSourceBase || !bill.Amount.Equal(decimal.NewFromInt(700)) {
		t.Fatalf("expected base 700, got %s %s", bill.Source, bill.Amount)
	}
}

func TestBilledAmount_NotChargeable(t *testing.T) {
	svc := NewService(testBook())
	bill, err := svc.BilledAmount(context.Background(), BillRequest{
		Client: "acme", CallType: "Inbound call", Label: "Jakarta", Duration: "not-a-duration",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if bill.Source != RateSourceNotChargeable || !bill.Amount.IsZero() {
		t.Fatalf("expected zero, got %s %s", bill.Source, bill.Amount)
	}
}

func TestBilledAmount_UnknownClient(t *testing.T) {
	svc := NewService(testBook())
	_, err := svc.BilledAmount(context.Background(), BillRequest{Client: "other", Duration: "1"})
	if !errors.Is(err, ErrPricingNotFound) {
		t.Fatalf("expected ErrPricingNotFound, got %v", err)
	}
	_, err = svc.BilledAmount(context.Background(), BillRequest{Duration: "1"})
	if !errors.Is(err, ErrInvalidPricingReq) {
		t.Fatalf("expected ErrInvalidPricingReq, got %v", err)
	}
}
