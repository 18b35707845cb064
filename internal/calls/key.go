package calls

import (
	"strings"

	"cdr-reconciler/internal/cdrtime"
	"cdr-reconciler/internal/phone"
)

const keySep = "|"

// FinalKey derives the identity of a call: normalized caller, normalized
// destination and the dial start instant in UTC at second precision.
//
// Every source adapter must feed already normalized numbers so the same physical
// call yields the same key whichever export reports it.
func FinalKey(from, to phone.Number, dialStart cdrtime.Stamp) string {
	return strings.Join([]string{from.String(), to.String(), dialStart.KeyPart()}, keySep)
}
