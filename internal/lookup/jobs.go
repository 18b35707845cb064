package lookup

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"cdr-reconciler/internal/pricing"
)

// Job is one client's set of exports for a run.
type Job struct {
	Client    string `yaml:"client"`
	Carrier   string `yaml:"carrier"`
	Dashboard string `yaml:"dashboard"`
	Console   string `yaml:"console"`
	Merged    string `yaml:"merged"`
	Output    string `yaml:"output"`

	Rates *RatesSpec `yaml:"rates"`
}

type RatesSpec struct {
	Base                RateSpec     `yaml:"base"`
	ChargeableCallTypes []string     `yaml:"chargeable_call_types"`
	Numbers             []NumberSpec `yaml:"numbers"`
}

type RateSpec struct {
	Amount Scalar `yaml:"amount"`
	Type   string `yaml:"type"`
}

type NumberSpec struct {
	Number              Scalar   `yaml:"number"`
	Rate                RateSpec `yaml:"rate"`
	ChargeableCallTypes []string `yaml:"chargeable_call_types"`
}

// Jobs is the parsed jobs file.
type Jobs struct {
	Clients []Job `yaml:"clients"`

	// International is carrier -> label -> per-minute rate.
	International map[string]map[string]Scalar `yaml:"international"`
}

// LoadJobs reads path. Relative file paths inside are resolved against the
// directory holding path.
func LoadJobs(path string) (*Jobs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "lookup: open jobs %s", path)
	}
	j, err := ParseJobs(data)
	if err != nil {
		return nil, eris.Wrapf(err, "lookup: jobs %s", path)
	}
	j.resolve(filepath.Dir(path))
	return j, nil
}

// ParseJobs decodes and validates a jobs file.
func ParseJobs(data []byte) (*Jobs, error) {
	var j Jobs
	if err := yaml.Unmarshal(data, &j); err != nil {
		return nil, err
	}
	if err := j.Validate(); err != nil {
		return nil, err
	}
	return &j, nil
}

func (j *Jobs) Validate() error {
	seen := map[string]bool{}
	for i, c := range j.Clients {
		switch {
		case strings.TrimSpace(c.Client) == "":
			return fmt.Errorf("%w: clients[%d]: client is required", ErrInvalidConfig, i)
		case seen[c.Client]:
			return fmt.Errorf("%w: clients[%d]: duplicate client %q", ErrInvalidConfig, i, c.Client)
		case c.Dashboard == "" && c.Console == "" && c.Merged == "":
			return fmt.Errorf("%w: client %q: no input files", ErrInvalidConfig, c.Client)
		}
		seen[c.Client] = true
		if c.Rates != nil {
			if _, err := c.Rates.toClientRates(c.Client); err != nil {
				return fmt.Errorf("%w: client %q: %v", ErrInvalidConfig, c.Client, err)
			}
		}
	}
	for carrier, byLabel := range j.International {
		for label, amt := range byLabel {
			if _, err := amt.Decimal(); err != nil {
				return fmt.Errorf("%w: international %s/%s: %v", ErrInvalidConfig, carrier, label, err)
			}
		}
	}
	return nil
}

// Find returns the job of client.
func (j *Jobs) Find(client string) (Job, bool) {
	for _, c := range j.Clients {
		if c.Client == client {
			return c, true
		}
	}
	return Job{}, false
}

// RateBook converts the configured rates for pricing.
func (j *Jobs) RateBook() (*pricing.MemoryBook, error) {
	book := &pricing.MemoryBook{International: pricing.InternationalRates{}}
	for _, c := range j.Clients {
		if c.Rates == nil {
			continue
		}
		cr, err := c.Rates.toClientRates(c.Client)
		if err != nil {
			return nil, fmt.Errorf("%w: client %q: %v", ErrInvalidConfig, c.Client, err)
		}
		book.Clients = append(book.Clients, cr)
	}
	for carrier, byLabel := range j.International {
		book.International[carrier] = map[string]decimal.Decimal{}
		for label, amt := range byLabel {
			d, err := amt.Decimal()
			if err != nil {
				return nil, fmt.Errorf("%w: international %s/%s: %v", ErrInvalidConfig, carrier, label, err)
			}
			book.International[carrier][label] = d
		}
	}
	return book, nil
}

func (r *RatesSpec) toClientRates(client string) (pricing.ClientRates, error) {
	base, err := r.Base.toRate()
	if err != nil {
		return pricing.ClientRates{}, fmt.Errorf("base: %w", err)
	}
	out := pricing.ClientRates{Client: client, Base: base, ChargeableCallTypes: r.ChargeableCallTypes}
	for i, n := range r.Numbers {
		if n.Number == "" {
			continue
		}
		rate, err := n.Rate.toRate()
		if err != nil {
			return pricing.ClientRates{}, fmt.Errorf("numbers[%d]: %w", i, err)
		}
		out.Numbers = append(out.Numbers, pricing.NumberRate{
			Number:              n.Number.String(),
			Rate:                rate,
			ChargeableCallTypes: n.ChargeableCallTypes,
		})
	}
	return out, nil
}

func (r RateSpec) toRate() (pricing.Rate, error) {
	t := pricing.RateType(r.Type)
	if t == "" {
		t = pricing.RateTypePerMinute
	}
	if !t.Valid() {
		return pricing.Rate{}, fmt.Errorf("rate type must be per_minute or per_second, got %q", r.Type)
	}
	amt := decimal.Zero
	if r.Amount != "" {
		d, err := r.Amount.Decimal()
		if err != nil {
			return pricing.Rate{}, fmt.Errorf("amount %q: %w", r.Amount, err)
		}
		amt = d
	}
	return pricing.Rate{Amount: amt, Type: t}, nil
}

func (j *Jobs) resolve(dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	for i := range j.Clients {
		c := &j.Clients[i]
		c.Dashboard = abs(c.Dashboard)
		c.Console = abs(c.Console)
		c.Merged = abs(c.Merged)
		c.Output = abs(c.Output)
	}
}
