package reconcile

import (
	"errors"
	"fmt"
	"strings"

	"cdr-reconciler/internal/calls"
	"cdr-reconciler/internal/cdrtime"
	"cdr-reconciler/internal/phone"
)

// Row is one input line addressed by column name.
type Row = map[string]string

var ErrMissingColumn = errors.New("reconcile: required column missing")

// Required input columns per source.
var (
	DashboardColumns = []string{
		"Sequence ID", "User name", "Call from", "Call to", "Call type",
		"Dial begin time", "Call begin time", "Call end time",
		"Ringing time", "Call duration", "Call memo",
	}
	ConsoleColumns = []string{
		"call_id", "used_number", "number", "call_type",
		"dial_starts_at", "dial_answered_at", "dial_ends_at", "pbx_region",
		"all_duration_of_call_sec_str", "duration_of_call_sec_str", "discount", "number_type",
	}
	MergedColumns = []string{
		"User name", "Call from", "Call to", "Call type",
		"Dial starts at", "Dial answered at", "Dial ends at",
		"Ringing time", "Call duration", "Call memo", "Call charge",
	}
	mergedIDColumns = []string{"call_id", "Sequence ID"}
)

var consoleCallTypes = map[string]string{
	"OUTGOING_CALL":         "Outbound call",
	"OUTGOING_CALL_ABSENCE": "Outbound call (Missed)",
}

func requireColumns(row Row, cols []string) error {
	return missingColumns(func(c string) bool { _, ok := row[c]; return ok }, cols)
}

func missingColumns(has func(string) bool, cols []string) error {
	var missing []string
	for _, c := range cols {
		if !has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

// CheckHeader validates a source file's header line. Unlike the per-row check it
// also rejects a file that has a header and no rows.
func CheckHeader(src calls.Source, header []string) error {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[strings.TrimSpace(h)] = true
	}
	has := func(c string) bool { return present[c] }

	switch src {
	case calls.SourceDashboard:
		return missingColumns(has, DashboardColumns)
	case calls.SourceConsole:
		return missingColumns(has, ConsoleColumns)
	case calls.SourceMerged:
		if err := missingColumns(has, MergedColumns); err != nil {
			return err
		}
		for _, c := range mergedIDColumns {
			if has(c) {
				return nil
			}
		}
		return fmt.Errorf("%w: call_id or Sequence ID", ErrMissingColumn)
	default:
		return fmt.Errorf("reconcile: unknown source %q", src)
	}
}

func fromDashboard(job Job, row Row) (*calls.Record, error) {
	if err := requireColumns(row, DashboardColumns); err != nil {
		return nil, err
	}
	return calls.NewRecord(calls.Record{
		Client:         job.Client,
		SequenceID:     row["Sequence ID"],
		UserName:       row["User name"],
		CallFrom:       phone.Normalize(row["Call from"]),
		CallTo:         phone.Normalize(row["Call to"]),
		CallType:       row["Call type"],
		DialStartAt:    cdrtime.Raw(row["Dial begin time"]),
		DialAnsweredAt: cdrtime.Raw(row["Call begin time"]),
		DialEndAt:      cdrtime.Raw(row["Call end time"]),
		RingingTime:    row["Ringing time"],
		CallDuration:   row["Call duration"],
		CallMemo:       row["Call memo"],
		CallCharge:     "0",
		Carrier:        job.Carrier,
		Origin:         calls.SourceDashboard,
	}), nil
}

func fromConsole(job Job, row Row) (*calls.Record, error) {
	if err := requireColumns(row, ConsoleColumns); err != nil {
		return nil, err
	}
	region := row["pbx_region"]
	var stamps [3]cdrtime.Stamp
	for i, col := range []string{"dial_starts_at", "dial_answered_at", "dial_ends_at"} {
		st, err := cdrtime.ParseRegional(row[col], region)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", col, err)
		}
		stamps[i] = st
	}

	callType := row["call_type"]
	if mapped, ok := consoleCallTypes[callType]; ok {
		callType = mapped
	}

	return calls.NewRecord(calls.Record{
		Client:         job.Client,
		SequenceID:     row["call_id"],
		UserName:       "-",
		CallFrom:       phone.Normalize(row["used_number"]),
		CallTo:         phone.Normalize(row["number"]),
		CallType:       callType,
		DialStartAt:    stamps[0],
		DialAnsweredAt: stamps[1],
		DialEndAt:      stamps[2],
		RingingTime:    row["all_duration_of_call_sec_str"],
		CallDuration:   row["duration_of_call_sec_str"],
		CallCharge:     row["discount"],
		Carrier:        job.Carrier,
		NumberType:     row["number_type"],
		Origin:         calls.SourceConsole,
	}), nil
}

func fromMerged(job Job, row Row) (*calls.Record, error) {
	if err := requireColumns(row, MergedColumns); err != nil {
		return nil, err
	}
	seq, hasID := "", false
	for _, c := range mergedIDColumns {
		v, ok := row[c]
		hasID = hasID || ok
		if seq == "" && strings.TrimSpace(v) != "" {
			seq = v
		}
	}
	if !hasID {
		return nil, fmt.Errorf("%w: call_id or Sequence ID", ErrMissingColumn)
	}

	var stamps [3]cdrtime.Stamp
	for i, col := range []string{"Dial starts at", "Dial answered at", "Dial ends at"} {
		st, err := cdrtime.ParseISO(row[col])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", col, err)
		}
		stamps[i] = st
	}

	return calls.NewRecord(calls.Record{
		SequenceID:     seq,
		UserName:       row["User name"],
		CallFrom:       phone.Normalize(row["Call from"]),
		CallTo:         phone.Normalize(row["Call to"]),
		CallType:       row["Call type"],
		DialStartAt:    stamps[0],
		DialAnsweredAt: stamps[1],
		DialEndAt:      stamps[2],
		RingingTime:    row["Ringing time"],
		CallDuration:   row["Call duration"],
		CallMemo:       row["Call memo"],
		CallCharge:     row["Call charge"],
		Carrier:        job.Carrier,
		Origin:         calls.SourceMerged,
	}), nil
}

// Merge rules: how an incoming row updates a record that already holds its key.

func mergeDashboard(dst, in *calls.Record) {
	dst.UserName = in.UserName
	dst.CallMemo = in.CallMemo
	dst.FallbackCallTo(in.CallTo)
}

func mergeConsole(dst, in *calls.Record) {
	dst.SetCallTo(in.CallTo)
	dst.CallType = in.CallType
	dst.DialAnsweredAt = in.DialAnsweredAt
	dst.DialEndAt = in.DialEndAt
	dst.RingingTime = in.RingingTime
	dst.CallDuration = in.CallDuration
	dst.CallCharge = in.CallCharge
	dst.NumberType = in.NumberType
}

func mergeMerged(dst, in *calls.Record) {
	dst.FallbackCallTo(in.CallTo)
	dst.UserName = in.UserName
	dst.CallFrom = in.CallFrom
	dst.CallType = in.CallType
	dst.DialStartAt = in.DialStartAt
	dst.DialAnsweredAt = in.DialAnsweredAt
	dst.DialEndAt = in.DialEndAt
	dst.RingingTime = in.RingingTime
	dst.CallDuration = in.CallDuration
	if strings.TrimSpace(in.CallMemo) != "" {
		dst.CallMemo = in.CallMemo
	}
	dst.CallCharge = in.CallCharge
}

// source ties each phase to its row adapter and merge rule.
type source struct {
	name  calls.Source
	phase Phase
	build func(Job, Row) (*calls.Record, error)
	merge func(dst, in *calls.Record)
}

var (
	dashboardSource = source{calls.SourceDashboard, PhaseDashboard, fromDashboard, mergeDashboard}
	consoleSource   = source{calls.SourceConsole, PhaseConsole, fromConsole, mergeConsole}
	mergedSource    = source{calls.SourceMerged, PhaseMerged, fromMerged, mergeMerged}
)
