package calls

import (
	"cdr-reconciler/internal/cdrtime"
	"cdr-reconciler/internal/phone"
)

// Source identifies which export a row came from.
type Source string

const (
	SourceDashboard Source = "dashboard"
	SourceConsole   Source = "console"
	SourceMerged    Source = "merged"
)

// Record is the canonical representation of one physical call.
//
// Identity invariant: the final key is derived once, in NewRecord, from CallFrom,
// CallTo and DialStartAt. Later merges may overwrite those fields but never the key.
//
// CallTo invariant: once non-empty it is only replaced by another non-empty value
// (see SetCallTo / FallbackCallTo).
type Record struct {
	Client     string `json:"client"`
	SequenceID string `json:"sequence_id"`
	UserName   string `json:"user_name"`

	CallFrom phone.Number `json:"-"`
	CallTo   phone.Number `json:"-"`
	CallType string       `json:"call_type"`

	DialStartAt    cdrtime.Stamp `json:"-"`
	DialAnsweredAt cdrtime.Stamp `json:"-"`
	DialEndAt      cdrtime.Stamp `json:"-"`

	// RingingTime and CallDuration are kept as exported ("H:M:S" or seconds).
	RingingTime  string `json:"ringing_time"`
	CallDuration string `json:"call_duration"`

	CallMemo   string `json:"call_memo"`
	CallCharge string `json:"call_charge"`
	Carrier    string `json:"carrier"`

	// NumberType is the raw console hint (e.g. OVERSEAS), not the classified label.
	NumberType string `json:"number_type"`

	// Origin is the source that created the record.
	Origin Source `json:"origin"`

	finalKey string
}

// NewRecord fixes the identity of r and returns it.
func NewRecord(r Record) *Record {
	r.finalKey = FinalKey(r.CallFrom, r.CallTo, r.DialStartAt)
	return &r
}

// FinalKey returns the identity assigned at construction.
func (r *Record) FinalKey() string { return r.finalKey }

// SetCallTo overwrites CallTo only with a non-empty value.
func (r *Record) SetCallTo(n phone.Number) {
	if !n.IsEmpty() {
		r.CallTo = n
	}
}

// FallbackCallTo fills CallTo only while it is still empty.
func (r *Record) FallbackCallTo(n phone.Number) {
	r.CallTo = phone.SetIfEmpty(r.CallTo, n)
}
