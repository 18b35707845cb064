package phone

import (
	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is the region national numbers are interpreted in.
const DefaultRegion = "ID"

// RegionOf resolves the ISO 3166 region of a normalized number using
// libphonenumber metadata. National numbers (country code already stripped by
// Normalize) are read in defaultRegion; anything that does not parse to a valid
// number yields "".
func RegionOf(n Number, defaultRegion string, international bool) string {
	if !n.IsNumeric() || n.IsEmpty() {
		return ""
	}
	raw := n.String()
	if international {
		raw = "+" + raw
	} else {
		raw = "0" + raw
	}
	parsed, err := phonenumbers.Parse(raw, defaultRegion)
	if err != nil {
		return ""
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return ""
	}
	return phonenumbers.GetRegionCodeForNumber(parsed)
}

// E164 formats a normalized number, or returns "" when it is not a valid number.
func E164(n Number, defaultRegion string, international bool) string {
	if !n.IsNumeric() || n.IsEmpty() {
		return ""
	}
	raw := "0" + n.String()
	if international {
		raw = "+" + n.String()
	}
	parsed, err := phonenumbers.Parse(raw, defaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return ""
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}
