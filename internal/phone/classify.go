package phone

import (
	"fmt"
	"sort"
	"strings"
)

// Labels produced by the classifier outside of the configured tables.
const (
	LabelInternal             = "Internal Call"
	LabelInternalNoAnswer     = "Internal Call (No answer)"
	LabelVoicemail            = "Voicemail"
	LabelAutomaticTransfer    = "Automatic Transfer"
	LabelMonitoring           = "Monitoring"
	LabelScanCall             = ScanCall
	LabelInternationalPrefix  = "International - "
	LabelInternationalUnknown = LabelInternationalPrefix + "Unknown"
	LabelFixedMobile          = "Fixed/Mobile"
	LabelUnknown              = "Unknown number type"

	// ConsoleOverseas is the console number_type hint that routes a call to the
	// international table.
	ConsoleOverseas = "OVERSEAS"
)

// specialPrefixes are tried in this order, after the region table.
var specialPrefixes = []string{"211500", "211400", "21150", "21140", "1500", "1400", "800", "84", "31", "21", "8"}

// callTypeLabels maps PBX call types that decide the category on their own.
var callTypeLabels = []struct {
	types []string
	label string
}{
	{[]string{"Internal Call", "EXTENSION"}, LabelInternal},
	{[]string{"Internal Call (No answer)"}, LabelInternalNoAnswer},
	{[]string{"AUTOMATIC_RECORD"}, LabelVoicemail},
	{[]string{"AUTOMATIC_TRANSFER"}, LabelAutomaticTransfer},
	{[]string{"Monitoring"}, LabelMonitoring},
}

// Input is everything the classifier looks at for one call.
type Input struct {
	// Number is the number being classified, normally the normalized call_to.
	Number   Number
	CallType string
	CallFrom Number
	CallTo   Number

	// ConsoleNumberType is the raw number_type column from the PBX console export.
	ConsoleNumberType string
}

// PrefixEntry maps a dialing prefix to a label (region or country).
type PrefixEntry struct {
	Prefix string
	Label  string
}

// EmergencyEntry maps a short service number to its label.
type EmergencyEntry struct {
	Number int64
	Label  string
}

// Tables are the externally configured lookup tables. Order is significant.
type Tables struct {
	Regions   []PrefixEntry
	Countries []PrefixEntry
	Emergency []EmergencyEntry
}

type rule struct {
	name  string
	apply func(c *Classifier, in Input) (string, bool)
}

// rules is the evaluation order. The first rule that answers wins; later rules
// assume the earlier ones did not match.
var rules = []rule{
	{"call_type", (*Classifier).byCallType},
	{"scancall", (*Classifier).byScanCall},
	{"transfer_extension", (*Classifier).byTransferFromExtension},
	{"overseas", (*Classifier).byOverseas},
	{"emergency", (*Classifier).byEmergency},
	{"region_prefix", (*Classifier).byRegionPrefix},
	{"special_prefix", (*Classifier).bySpecialPrefix},
	{"length", (*Classifier).byLength},
}

// Classifier assigns a call category from a fixed, ordered rule list.
// It is immutable after construction and safe to share.
type Classifier struct {
	countries []PrefixEntry
	regions   []PrefixEntry // longest prefix first, ties in table order
	regionOf  map[string]string
	emergency map[int64]string
}

// NewClassifier prepares the lookup tables.
func NewClassifier(t Tables) *Classifier {
	c := &Classifier{
		regionOf:  make(map[string]string, len(t.Regions)),
		emergency: make(map[int64]string, len(t.Emergency)),
	}

	for _, e := range t.Countries {
		p := strings.ReplaceAll(strings.TrimSpace(e.Prefix), "+", "")
		if p == "" {
			continue
		}
		c.countries = append(c.countries, PrefixEntry{Prefix: p, Label: e.Label})
	}

	for _, e := range t.Regions {
		p := strings.TrimSpace(e.Prefix)
		if p == "" {
			continue
		}
		if _, dup := c.regionOf[p]; dup {
			continue
		}
		c.regionOf[p] = e.Label
		c.regions = append(c.regions, PrefixEntry{Prefix: p, Label: e.Label})
	}
	sort.SliceStable(c.regions, func(i, j int) bool {
		return len(c.regions[i].Prefix) > len(c.regions[j].Prefix)
	})

	for _, e := range t.Emergency {
		if _, dup := c.emergency[e.Number]; !dup {
			c.emergency[e.Number] = e.Label
		}
	}
	return c
}

// Classify returns the category label for in.
func (c *Classifier) Classify(in Input) string {
	label, _ := c.Explain(in)
	return label
}

// Explain is Classify plus the name of the rule that decided.
func (c *Classifier) Explain(in Input) (label, ruleName string) {
	for _, r := range rules {
		if l, ok := r.apply(c, in); ok {
			return l, r.name
		}
	}
	// byLength always answers.
	return LabelUnknown, "length"
}

func (c *Classifier) byCallType(in Input) (string, bool) {
	for _, m := range callTypeLabels {
		for _, t := range m.types {
			if in.CallType == t {
				return m.label, true
			}
		}
	}
	return "", false
}

func (c *Classifier) byScanCall(in Input) (string, bool) {
	if in.CallFrom.String() == ScanCall {
		return LabelScanCall, true
	}
	return "", false
}

func (c *Classifier) byTransferFromExtension(in Input) (string, bool) {
	from := in.CallFrom.String()
	if in.CallType == "Call transfer" && len(from) == 3 && isDigits(from) {
		return LabelInternal, true
	}
	return "", false
}

func (c *Classifier) byOverseas(in Input) (string, bool) {
	if !strings.EqualFold(in.ConsoleNumberType, ConsoleOverseas) {
		return "", false
	}
	for _, e := range c.countries {
		if in.Number.HasPrefix(e.Prefix) {
			return LabelInternationalPrefix + e.Label, true
		}
	}
	return LabelInternationalUnknown, true
}

func (c *Classifier) byEmergency(in Input) (string, bool) {
	switch in.Number.Len() {
	case 3, 4, 5:
	default:
		return "", false
	}
	v, ok := in.Number.Int()
	if !ok {
		return "", false
	}
	label, ok := c.emergency[v]
	if !ok || label == "" {
		return "", false
	}
	return label, true
}

func (c *Classifier) byRegionPrefix(in Input) (string, bool) {
	for _, e := range c.regions {
		if in.Number.HasPrefix(e.Prefix) {
			return e.Label, true
		}
	}
	return "", false
}

// bySpecialPrefix decides on the first special prefix the number starts with and
// answers with the region entry for it. A prefix missing from the region table
// yields an empty label.
func (c *Classifier) bySpecialPrefix(in Input) (string, bool) {
	for _, p := range specialPrefixes {
		if in.Number.HasPrefix(p) {
			return c.regionOf[p], true
		}
	}
	return "", false
}

func (c *Classifier) byLength(in Input) (string, bool) {
	if in.Number.Len() >= 8 {
		return LabelFixedMobile, true
	}
	return LabelUnknown, true
}

// String is used in debug logs.
func (c *Classifier) String() string {
	return fmt.Sprintf("classifier(regions=%d countries=%d emergency=%d)", len(c.regions), len(c.countries), len(c.emergency))
}
