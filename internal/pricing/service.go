package pricing

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"cdr-reconciler/internal/phone"
)

// Service computes billed amounts from client-scoped rates.
//
// Contract:
// - A dedicated number rate applies when the caller is that number.
// - International labels use the carrier's per-minute rate when one exists.
// - Everything else uses the client's base rate.
// - Call types outside the chargeable list bill zero.
// - Pure calculation + rate book lookups.
type Service struct {
	book RateBook
}

func NewService(book RateBook) *Service {
	return &Service{book: book}
}

// RateBook abstracts rate storage.
// Implementation can be YAML-loaded memory, Postgres, etc.
type RateBook interface {
	ClientRates(ctx context.Context, client string) (ClientRates, bool, error)
	InternationalRate(ctx context.Context, carrier, label string) (decimal.Decimal, bool, error)
}

type BillRequest struct {
	Client   string
	CallType string
	CallFrom phone.Number
	Carrier  string

	// Label is the classifier label of the destination.
	Label string

	// Duration is the exported call duration ("H:M:S" or seconds).
	Duration string
}

// RateSource names which rate produced a bill.
type RateSource string

const (
	RateSourceNumber        RateSource = "number"
	RateSourceInternational RateSource = "international"
	RateSourceBase          RateSource = "base"
	RateSourceNotChargeable RateSource = "not_chargeable"
)

type Bill struct {
	Client string
	Source RateSource
	Rate   Rate

	BillableMinutes int
	BillableSeconds int

	Amount decimal.Decimal
}

var (
	ErrPricingNotFound   = errors.New("pricing not found")
	ErrInvalidPricingReq = errors.New("invalid pricing request")
)

// BilledAmount prices one call.
func (s *Service) BilledAmount(ctx context.Context, req BillRequest) (Bill, error) {
	if strings.TrimSpace(req.Client) == "" {
		return Bill{}, ErrInvalidPricingReq
	}

	cr, ok, err := s.book.ClientRates(ctx, req.Client)
	if err != nil {
		return Bill{}, err
	}
	if !ok {
		return Bill{}, ErrPricingNotFound
	}

	rate, chargeable, src := cr.Base, cr.ChargeableCallTypes, RateSourceBase
	if nr, ok := cr.numberRate(req.CallFrom); ok {
		rate, src = nr.Rate, RateSourceNumber
		if len(nr.ChargeableCallTypes) > 0 {
			chargeable = nr.ChargeableCallTypes
		}
	} else if strings.HasPrefix(req.Label, phone.LabelInternationalPrefix) {
		amt, found, err := s.book.InternationalRate(ctx, req.Carrier, req.Label)
		if err != nil {
			return Bill{}, err
		}
		if found {
			rate, src = Rate{Amount: amt, Type: RateTypePerMinute}, RateSourceInternational
		}
	}

	bill := Bill{Client: req.Client, Source: src, Rate: rate, Amount: decimal.Zero}
	if !slices.Contains(chargeable, req.CallType) {
		bill.Source = RateSourceNotChargeable
		return bill, nil
	}

	sec, err := DurationSeconds(req.Duration)
	if err != nil {
		return Bill{}, err
	}
	minutes, err := RoundUpMinutes(req.Duration)
	if err != nil {
		return Bill{}, err
	}
	bill.BillableSeconds = max(sec, 0)
	bill.BillableMinutes = max(minutes, 0)

	switch rate.Type {
	case RateTypePerSecond:
		bill.Amount = rate.Amount.Mul(decimal.NewFromInt(int64(bill.BillableSeconds)))
	default:
		bill.Amount = rate.Amount.Mul(decimal.NewFromInt(int64(bill.BillableMinutes)))
	}
	return bill, nil
}

func (cr ClientRates) numberRate(from phone.Number) (NumberRate, bool) {
	if from.IsEmpty() {
		return NumberRate{}, false
	}
	for _, nr := range cr.Numbers {
		if phone.Normalize(nr.Number).Equal(from) {
			return nr, true
		}
	}
	return NumberRate{}, false
}
