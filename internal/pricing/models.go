package pricing

import "github.com/shopspring/decimal"

// Rates are client-scoped. Amounts are decimals in the carrier's billing currency.

// RateType selects how a rate is applied to a call duration.
type RateType string

const (
	RateTypePerMinute RateType = "per_minute"
	RateTypePerSecond RateType = "per_second"
)

// Valid reports whether t is a known rate type.
func (t RateType) Valid() bool {
	return t == RateTypePerMinute || t == RateTypePerSecond
}

// Rate is an amount plus how it is applied.
type Rate struct {
	Amount decimal.Decimal `json:"amount" yaml:"amount"`
	Type   RateType        `json:"type" yaml:"type"`
}

// NumberRate is a dedicated rate for calls placed from one caller number
// (for example a click-to-call line).
type NumberRate struct {
	Number string `json:"number" yaml:"number"`
	Rate   Rate   `json:"rate" yaml:"rate"`

	// ChargeableCallTypes falls back to the client list when empty.
	ChargeableCallTypes []string `json:"chargeable_call_types,omitempty" yaml:"chargeable_call_types"`
}

// ClientRates is the billing setup of one client.
type ClientRates struct {
	Client string `json:"client" yaml:"client"`

	Base                Rate     `json:"base" yaml:"base"`
	ChargeableCallTypes []string `json:"chargeable_call_types" yaml:"chargeable_call_types"`

	Numbers []NumberRate `json:"numbers,omitempty" yaml:"numbers"`
}

// InternationalRates maps carrier -> classifier label ("International - <country>")
// -> per-minute rate.
type InternationalRates map[string]map[string]decimal.Decimal
