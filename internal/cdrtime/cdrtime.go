// Package cdrtime parses the timestamp shapes found in PBX and dashboard exports
// into one comparable representation.
package cdrtime

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// RegionJakarta is the only PBX region supported. Its offset is fixed at +07:00.
const RegionJakarta = "jkt"

// ErrUnsupportedRegion is returned for any PBX region other than RegionJakarta.
// It is a configuration error, not a data-quality issue, and must abort the run.
var ErrUnsupportedRegion = errors.New("cdrtime: timezone not supported, only jakarta time is supported")

// ErrInvalidISO is returned when an ISO timestamp cannot be parsed.
var ErrInvalidISO = errors.New("cdrtime: invalid iso timestamp")

const (
	regionalLayout = "2006-01-02 15:04:05"
	isoOutLayout   = "2006-01-02T15:04:05-07:00"
	naiveOutLayout = "2006-01-02T15:04:05"
	keyLayout      = "2006-01-02T15:04:05+00:00"
)

var jakarta = time.FixedZone("WIB", 7*60*60)

// isoLayouts are tried in order. Layouts without a zone produce naive values.
// Fractional seconds are accepted after the seconds field of any layout. Besides
// the extended form, colon-less and hour-only offsets and the basic (compact)
// form are read.
var isoLayouts = []struct {
	layout string
	naive  bool
}{
	{time.RFC3339Nano, false},
	{"2006-01-02 15:04:05Z07:00", false},
	{"2006-01-02T15:04:05Z0700", false},
	{"2006-01-02 15:04:05Z0700", false},
	{"2006-01-02T15:04:05Z07", false},
	{"2006-01-02 15:04:05Z07", false},
	{"2006-01-02T15:04Z07:00", false},
	{"20060102T150405Z07:00", false},
	{"20060102T150405Z0700", false},
	{"2006-01-02T15:04:05", true},
	{"2006-01-02 15:04:05", true},
	{"2006-01-02T15:04", true},
	{"2006-01-02 15:04", true},
	{"20060102T150405", true},
	{"2006-01-02", true},
	{"20060102", true},
}

// Stamp is one call timestamp. The zero value means absent.
//
// A Stamp holds either a parsed instant (Time, possibly Naive) or, for sources that
// do not normalize their timestamps, the verbatim Raw text.
type Stamp struct {
	Time time.Time
	// Naive is set when the source carried no offset; the wall clock is read as UTC.
	Naive bool
	Raw   string
}

// At wraps an already parsed instant.
func At(t time.Time) Stamp { return Stamp{Time: t} }

// Raw keeps a source string verbatim. Blank input is absent.
func Raw(s string) Stamp {
	if strings.TrimSpace(s) == "" {
		return Stamp{}
	}
	return Stamp{Raw: s}
}

// IsZero reports an absent timestamp.
func (s Stamp) IsZero() bool { return s.Time.IsZero() && s.Raw == "" }

// Parsed reports whether the stamp carries an instant rather than raw text.
func (s Stamp) Parsed() bool { return !s.Time.IsZero() }

// String renders the stamp for output: ISO for parsed values, raw text verbatim,
// "-" when absent.
func (s Stamp) String() string {
	switch {
	case s.Parsed() && s.Naive:
		return s.Time.Format(naiveOutLayout)
	case s.Parsed():
		return s.Time.Format(isoOutLayout)
	case s.Raw != "":
		return s.Raw
	default:
		return "-"
	}
}

// KeyPart is the identity form: the instant in UTC at second precision. Raw text is
// read with the lenient parser; text that still does not parse is used trimmed, and
// an absent stamp contributes "".
func (s Stamp) KeyPart() string {
	t := s.Time
	if !s.Parsed() {
		if s.Raw == "" {
			return ""
		}
		parsed, err := ParseLenient(s.Raw)
		if err != nil {
			return strings.TrimSpace(s.Raw)
		}
		t = parsed
	}
	return t.UTC().Truncate(time.Second).Format(keyLayout)
}

// ParseRegional parses a PBX console timestamp ("2006-01-02 15:04:05", UTC wall
// clock) for the given region and returns it in the region's fixed offset.
//
// Blank and "nan" values are absent. A region other than RegionJakarta fails with
// ErrUnsupportedRegion. Text that does not match the layout is kept raw.
func ParseRegional(s, region string) (Stamp, error) {
	v := strings.TrimSpace(s)
	if v == "" || v == "nan" {
		return Stamp{}, nil
	}
	if region != RegionJakarta {
		return Stamp{}, fmt.Errorf("%w: %q", ErrUnsupportedRegion, region)
	}
	t, err := time.ParseInLocation(regionalLayout, v, time.UTC)
	if err != nil {
		return Raw(s), nil
	}
	return Stamp{Time: t.In(jakarta)}, nil
}

// ParseISO parses an ISO 8601 timestamp as written by a previous merge. Blank and
// "-" are absent; anything else that does not parse is an error.
func ParseISO(s string) (Stamp, error) {
	v := strings.TrimSpace(s)
	if v == "" || v == "-" {
		return Stamp{}, nil
	}
	for _, l := range isoLayouts {
		t, err := time.ParseInLocation(l.layout, v, time.UTC)
		if err == nil {
			return Stamp{Time: t, Naive: l.naive}, nil
		}
	}
	return Stamp{}, fmt.Errorf("%w: %q", ErrInvalidISO, s)
}

// ParseLenient accepts any of the common date shapes. Values without an offset are
// read as UTC.
func ParseLenient(s string) (time.Time, error) {
	return dateparse.ParseIn(strings.TrimSpace(s), time.UTC)
}
