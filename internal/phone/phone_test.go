package phone

import "testing"

func TestNormalize_StripsCountryCodeBeforeLeadingZero(t *testing.T) {
	n := Normalize("+62811222333")
	if !n.IsNumeric() || n.String() != "811222333" {
		t.Fatalf("expected numeric 811222333, got %q numeric=%v", n.String(), n.IsNumeric())
	}

	n = Normalize("0062811")
	if n.String() != "62811" {
		t.Fatalf("expected only one leading zero dropped then int form 62811, got %q", n.String())
	}
}

func TestNormalize_Cleaning(t *testing.T) {
	cases := map[string]string{
		"0811-222-333":   "811222333",
		"(021) 555 1234": "215551234",
		"811222333":      "811222333",
		"101":            "101",
		"abc-12":         "abc12",
		"":               "",
	}
	for in, want := range cases {
		if got := Normalize(in).String(); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalize_ScanCallUnchanged(t *testing.T) {
	n := Normalize(ScanCall)
	if n.String() != ScanCall || n.IsNumeric() {
		t.Fatalf("expected scancall marker, got %q", n.String())
	}
}

func TestFromInt_Unchanged(t *testing.T) {
	for _, v := range []int64{0, 7, 62811, 811222333} {
		n := FromInt(v)
		got, ok := n.Int()
		if !ok || got != v {
			t.Fatalf("FromInt(%d) round trip gave %d ok=%v", v, got, ok)
		}
	}
}

func TestNumber_IsEmpty(t *testing.T) {
	if !Normalize("").IsEmpty() {
		t.Fatalf("empty string must be empty")
	}
	if !Normalize("6200").IsEmpty() {
		t.Fatalf("numeric zero must be empty")
	}
	if Normalize("811").IsEmpty() {
		t.Fatalf("811 must not be empty")
	}
}

func TestSetIfEmpty(t *testing.T) {
	a := Normalize("811")
	b := Normalize("822")
	if got := SetIfEmpty(a, b); !got.Equal(a) {
		t.Fatalf("expected current kept, got %q", got)
	}
	if got := SetIfEmpty(Number{}, b); !got.Equal(b) {
		t.Fatalf("expected next used, got %q", got)
	}
	if got := SetIfEmpty(a, Number{}); !got.Equal(a) {
		t.Fatalf("expected current kept on empty next, got %q", got)
	}
}

func testClassifier() *Classifier {
	return NewClassifier(Tables{
		Regions: []PrefixEntry{
			{Prefix: "2", Label: "Short"},
			{Prefix: "11", Label: "Region 11"},
			{Prefix: "21", Label: "Jakarta"},
			{Prefix: "31", Label: "Surabaya"},
			{Prefix: "31", Label: "Duplicate"},
		},
		Countries: []PrefixEntry{
			{Prefix: "+65", Label: "Singapore"},
			{Prefix: "+6", Label: "Oceania"},
		},
		Emergency: []EmergencyEntry{
			{Number: 112, Label: "Emergency"},
			{Number: 110, Label: "Police"},
		},
	})
}

func TestClassify_CallTypeOverridesEverything(t *testing.T) {
	c := testClassifier()
	got := c.Classify(Input{Number: Normalize("112"), CallType: "EXTENSION", CallFrom: Normalize(ScanCall)})
	if got != LabelInternal {
		t.Fatalf("expected %q, got %q", LabelInternal, got)
	}

	for callType, want := range map[string]string{
		"Internal Call":             LabelInternal,
		"Internal Call (No answer)": LabelInternalNoAnswer,
		"AUTOMATIC_RECORD":          LabelVoicemail,
		"AUTOMATIC_TRANSFER":        LabelAutomaticTransfer,
		"Monitoring":                LabelMonitoring,
	} {
		if got := c.Classify(Input{Number: Normalize("0215551234"), CallType: callType}); got != want {
			t.Fatalf("call type %q: expected %q, got %q", callType, want, got)
		}
	}
}

func TestClassify_ScanCallShortCircuits(t *testing.T) {
	c := testClassifier()
	in := Input{Number: Normalize("112"), CallType: "Outbound call", CallFrom: Normalize(ScanCall), ConsoleNumberType: "OVERSEAS"}
	label, rule := c.Explain(in)
	if label != LabelScanCall || rule != "scancall" {
		t.Fatalf("expected scancall, got %q via %q", label, rule)
	}
}

func TestClassify_TransferFromExtension(t *testing.T) {
	c := testClassifier()
	if got := c.Classify(Input{Number: Normalize("0215551234"), CallType: "Call transfer", CallFrom: Normalize("101")}); got != LabelInternal {
		t.Fatalf("expected internal, got %q", got)
	}
	if got := c.Classify(Input{Number: Normalize("0215551234"), CallType: "Call transfer", CallFrom: Normalize("1010")}); got != "Jakarta" {
		t.Fatalf("expected region label for 4-digit caller, got %q", got)
	}
}

func TestClassify_OverseasUsesConfiguredOrder(t *testing.T) {
	c := testClassifier()
	got := c.Classify(Input{Number: Normalize("+6591234567"), ConsoleNumberType: "overseas"})
	if got != "International - Singapore" {
		t.Fatalf("expected Singapore, got %q", got)
	}
	got = c.Classify(Input{Number: Normalize("+4420123456"), ConsoleNumberType: "OVERSEAS"})
	if got != LabelInternationalUnknown {
		t.Fatalf("expected unknown international, got %q", got)
	}
}

func TestClassify_EmergencyPrecedesRegionPrefix(t *testing.T) {
	c := testClassifier()
	label, rule := c.Explain(Input{Number: Normalize("112")})
	if label != "Emergency" || rule != "emergency" {
		t.Fatalf("expected emergency label, got %q via %q", label, rule)
	}
	// Same prefix, not in the emergency table: region table decides.
	if got := c.Classify(Input{Number: Normalize("1199")}); got != "Region 11" {
		t.Fatalf("expected region label, got %q", got)
	}
}

func TestClassify_LongestRegionPrefixWins(t *testing.T) {
	c := testClassifier()
	if got := c.Classify(Input{Number: Normalize("0215551234")}); got != "Jakarta" {
		t.Fatalf("expected Jakarta, got %q", got)
	}
	if got := c.Classify(Input{Number: Normalize("0295551234")}); got != "Short" {
		t.Fatalf("expected Short, got %q", got)
	}
	if got := c.Classify(Input{Number: Normalize("031555123")}); got != "Surabaya" {
		t.Fatalf("expected first table entry to win a duplicate prefix, got %q", got)
	}
}

func TestClassify_Fallbacks(t *testing.T) {
	c := NewClassifier(Tables{})
	if got := c.Classify(Input{Number: Normalize("0612345678")}); got != LabelFixedMobile {
		t.Fatalf("expected fixed/mobile, got %q", got)
	}
	if got := c.Classify(Input{Number: Normalize("7001234")}); got != LabelUnknown {
		t.Fatalf("expected unknown for short number, got %q", got)
	}
	if got := c.Classify(Input{Number: Normalize("")}); got != LabelUnknown {
		t.Fatalf("expected unknown for empty number, got %q", got)
	}
}

func TestClassify_SpecialPrefixUsesRegionEntry(t *testing.T) {
	c := NewClassifier(Tables{Regions: []PrefixEntry{{Prefix: "800", Label: "Toll free"}}})
	label, rule := c.Explain(Input{Number: Normalize("8001234")})
	if label != "Toll free" || rule != "region_prefix" {
		t.Fatalf("expected region table to answer first, got %q via %q", label, rule)
	}
}

func TestClassify_SpecialPrefixDecidesUncoveredNumbers(t *testing.T) {
	c := NewClassifier(Tables{Regions: []PrefixEntry{{Prefix: "811", Label: "Telkomsel"}}})

	// 899... is not in the region table; the "8" special prefix ends the scan.
	label, rule := c.Explain(Input{Number: Normalize("08991234567")})
	if label != "" || rule != "special_prefix" {
		t.Fatalf("expected empty label from special prefix, got %q via %q", label, rule)
	}
	label, rule = c.Explain(Input{Number: Normalize("8001234")})
	if label != "" || rule != "special_prefix" {
		t.Fatalf("expected special prefix to decide short 800 number, got %q via %q", label, rule)
	}
	// Covered numbers still go through the region table.
	if label, rule := c.Explain(Input{Number: Normalize("0811222333")}); label != "Telkomsel" || rule != "region_prefix" {
		t.Fatalf("expected Telkomsel via region_prefix, got %q via %q", label, rule)
	}
	// Not a special prefix: falls through to the length rule.
	if _, rule := c.Explain(Input{Number: Normalize("0612345678")}); rule != "length" {
		t.Fatalf("expected length rule, got %q", rule)
	}
}
