package pricing

import (
	"context"

	"github.com/shopspring/decimal"
)

// MemoryBook is an in-memory rate book, normally filled from the rates YAML file.
type MemoryBook struct {
	Clients       []ClientRates
	International InternationalRates
}

func (b *MemoryBook) ClientRates(ctx context.Context, client string) (ClientRates, bool, error) {
	_ = ctx
	for _, c := range b.Clients {
		if c.Client == client {
			return c, true, nil
		}
	}
	return ClientRates{}, false, nil
}

func (b *MemoryBook) InternationalRate(ctx context.Context, carrier, label string) (decimal.Decimal, bool, error) {
	_ = ctx
	byLabel, ok := b.International[carrier]
	if !ok {
		return decimal.Zero, false, nil
	}
	amt, ok := byLabel[label]
	return amt, ok, nil
}
