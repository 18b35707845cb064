package lookup

import (
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/shopspring/decimal"
)

// Scalar accepts any YAML scalar (prefix 21, prefix "021", rate 15.5) and keeps its
// text form. Unquoted numbers keep their source spelling, so 021 stays "021"
// rather than being read as octal.
type Scalar string

// UnmarshalYAML implements yaml.BytesUnmarshaler.
func (s *Scalar) UnmarshalYAML(b []byte) error {
	var v any
	if err := yaml.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*s = ""
	case string:
		*s = Scalar(strings.TrimSpace(t))
	case int, int64, uint64, float64, bool:
		*s = Scalar(sourceText(b))
	default:
		return fmt.Errorf("expected a scalar, got %T", v)
	}
	return nil
}

// sourceText is the literal of a plain scalar without a trailing comment.
func sourceText(b []byte) string {
	text := string(b)
	if i := strings.Index(text, " #"); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}

func (s Scalar) String() string { return string(s) }

// Decimal parses s as an amount.
func (s Scalar) Decimal() (decimal.Decimal, error) {
	return decimal.NewFromString(string(s))
}
