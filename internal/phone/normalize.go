package phone

import (
	"strconv"
	"strings"
)

// ScanCall is the marker some PBX exports put in place of a caller number.
// It is an identity of its own and is never cleaned.
const ScanCall = "scancall"

// Number is a canonical phone number as produced by Normalize.
//
// A Number is either numeric (digits only, no leading zeros, comparable as an
// integer) or textual (whatever was left after cleaning a malformed value).
// The zero value is the empty textual number.
type Number struct {
	text    string
	numeric bool
}

// FromInt returns an already canonical numeric value unchanged.
func FromInt(n int64) Number {
	return Number{text: strconv.FormatInt(n, 10), numeric: true}
}

// Text wraps a value that must not be cleaned (for example ScanCall).
func Text(s string) Number { return Number{text: s} }

var stripChars = strings.NewReplacer("+", "", "-", "", "(", "", ")", "", " ", "")

// Normalize canonicalizes a raw phone string.
//
//   - "scancall" is returned unchanged.
//   - + - ( ) and spaces are removed.
//   - A leading country code 62 is dropped, otherwise a single leading 0 is dropped.
//   - If what is left is an integer the numeric form is returned, else the cleaned text.
//
// Normalize never fails.
func Normalize(raw string) Number {
	if raw == ScanCall {
		return Text(ScanCall)
	}

	cleaned := stripChars.Replace(raw)
	switch {
	case strings.HasPrefix(cleaned, "62"):
		cleaned = cleaned[2:]
	case strings.HasPrefix(cleaned, "0"):
		cleaned = cleaned[1:]
	}

	if isDigits(cleaned) {
		return Number{text: trimLeadingZeros(cleaned), numeric: true}
	}
	return Number{text: cleaned}
}

// String renders the number the way it participates in identity keys and output.
func (n Number) String() string { return n.text }

// IsNumeric reports whether the number parsed as an integer.
func (n Number) IsNumeric() bool { return n.numeric }

// Int returns the integer value for numeric numbers that fit in an int64.
func (n Number) Int() (int64, bool) {
	if !n.numeric {
		return 0, false
	}
	v, err := strconv.ParseInt(n.text, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// IsEmpty reports whether the number carries no destination: the empty string or
// the numeric zero.
func (n Number) IsEmpty() bool {
	return n.text == "" || (n.numeric && n.text == "0")
}

// Len is the length of the canonical text form.
func (n Number) Len() int { return len(n.text) }

// HasPrefix reports whether the canonical text starts with prefix.
func (n Number) HasPrefix(prefix string) bool { return strings.HasPrefix(n.text, prefix) }

// Equal compares canonical forms.
func (n Number) Equal(o Number) bool { return n.text == o.text && n.numeric == o.numeric }

// SetIfEmpty returns next when current is empty and next is not, else current.
func SetIfEmpty(current, next Number) Number {
	if current.IsEmpty() && !next.IsEmpty() {
		return next
	}
	return current
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func trimLeadingZeros(s string) string {
	t := strings.TrimLeft(s, "0")
	if t == "" {
		return "0"
	}
	return t
}
