package reconcile

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"cdr-reconciler/internal/calls"
	"cdr-reconciler/internal/phone"
	"cdr-reconciler/internal/pricing"
	"cdr-reconciler/pkg/logger"
)

// Header is the output column order.
var Header = []string{
	"Client", "Sequence ID", "User name", "Call from", "Call to", "Call type",
	"Dial starts at", "Dial answered at", "Dial ends at", "Ringing time",
	"Call duration", "Call memo", "Call charge", "Carrier", "Number type",
	"Number region", "Billed amount", "Round up duration",
}

// OutputRow is one finalized record plus its derived columns.
type OutputRow struct {
	Record *calls.Record

	NumberType string

	// ClassifiedBy names the classifier rule that produced NumberType.
	ClassifiedBy    string
	NumberRegion    string
	BilledAmount    decimal.Decimal
	RoundUpDuration int
}

// Values renders r in Header order.
func (r OutputRow) Values() []string {
	rec := r.Record
	return []string{
		rec.Client,
		rec.SequenceID,
		formatUserName(rec.UserName),
		rec.CallFrom.String(),
		rec.CallTo.String(),
		rec.CallType,
		rec.DialStartAt.String(),
		rec.DialAnsweredAt.String(),
		rec.DialEndAt.String(),
		rec.RingingTime,
		rec.CallDuration,
		formatMemo(rec.CallMemo),
		rec.CallCharge,
		rec.Carrier,
		r.NumberType,
		r.NumberRegion,
		r.BilledAmount.String(),
		strconv.Itoa(r.RoundUpDuration),
	}
}

func formatUserName(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatMemo(s string) string {
	if s == "" || s == "nan" {
		return "-"
	}
	return s
}

// Finalizer holds the collaborators used to derive output columns.
// Pricing may be nil, in which case every billed amount is zero.
type Finalizer struct {
	Classifier    *phone.Classifier
	Pricing       *pricing.Service
	DefaultRegion string
}

// Finalize closes the Set and derives one OutputRow per record in first-seen order.
func (s *Set) Finalize(ctx context.Context, f Finalizer) ([]OutputRow, error) {
	if err := s.advance(PhaseFinalized); err != nil {
		return nil, err
	}
	if f.Classifier == nil {
		f.Classifier = phone.NewClassifier(phone.Tables{})
	}
	region := f.DefaultRegion
	if region == "" {
		region = phone.DefaultRegion
	}
	log := logger.From(ctx).With("client", s.job.Client)

	out := make([]OutputRow, 0, len(s.order))
	for _, rec := range s.Records() {
		label, rule := f.Classifier.Explain(phone.Input{
			Number:            rec.CallTo,
			CallType:          rec.CallType,
			CallFrom:          rec.CallFrom,
			CallTo:            rec.CallTo,
			ConsoleNumberType: rec.NumberType,
		})
		row := OutputRow{
			Record:          rec,
			NumberType:      label,
			ClassifiedBy:    rule,
			NumberRegion:    phone.RegionOf(rec.CallTo, region, strings.HasPrefix(label, phone.LabelInternationalPrefix)),
			BilledAmount:    decimal.Zero,
			RoundUpDuration: pricing.RoundUpDuration(ctx, rec.CallDuration),
		}

		if f.Pricing != nil {
			bill, err := f.Pricing.BilledAmount(ctx, pricing.BillRequest{
				Client:   s.job.Client,
				CallType: rec.CallType,
				CallFrom: rec.CallFrom,
				Carrier:  rec.Carrier,
				Label:    label,
				Duration: rec.CallDuration,
			})
			switch {
			case err == nil:
				row.BilledAmount = bill.Amount
			case errors.Is(err, pricing.ErrInvalidDuration):
				log.Warn("billed amount not computed", "final_key", rec.FinalKey(), "err", err)
			case errors.Is(err, pricing.ErrPricingNotFound), errors.Is(err, pricing.ErrInvalidPricingReq):
				// unpriced client
			default:
				return nil, err
			}
		}
		out = append(out, row)
	}

	log.Info("records finalized", "records", len(out))
	return out, nil
}

// Table renders rows in Header order.
func Table(rows []OutputRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Values())
	}
	return out
}
