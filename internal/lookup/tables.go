// Package lookup loads the YAML files a run is configured with: the classifier
// tables and the client jobs with their rates.
package lookup

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/rotisserie/eris"

	"cdr-reconciler/internal/phone"
)

var ErrInvalidConfig = errors.New("lookup: invalid configuration")

// tablesFile is the on-disk shape. Lists, not maps, so configured order survives.
type tablesFile struct {
	Regions   []prefixEntry    `yaml:"regions"`
	Countries []prefixEntry    `yaml:"countries"`
	Emergency []emergencyEntry `yaml:"emergency"`
}

type prefixEntry struct {
	Prefix Scalar `yaml:"prefix"`
	Label  string `yaml:"label"`
}

type emergencyEntry struct {
	Number Scalar `yaml:"number"`
	Label  string `yaml:"label"`
}

// LoadTables reads the classifier tables from path.
func LoadTables(path string) (phone.Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return phone.Tables{}, eris.Wrapf(err, "lookup: open tables %s", path)
	}
	t, err := ParseTables(data)
	if err != nil {
		return phone.Tables{}, eris.Wrapf(err, "lookup: tables %s", path)
	}
	return t, nil
}

// ParseTables decodes classifier tables.
func ParseTables(data []byte) (phone.Tables, error) {
	var f tablesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return phone.Tables{}, err
	}

	var out phone.Tables
	for i, e := range f.Regions {
		if e.Prefix == "" {
			return phone.Tables{}, fmt.Errorf("%w: regions[%d]: prefix is required", ErrInvalidConfig, i)
		}
		out.Regions = append(out.Regions, phone.PrefixEntry{Prefix: e.Prefix.String(), Label: e.Label})
	}
	for i, e := range f.Countries {
		if e.Prefix == "" || e.Label == "" {
			return phone.Tables{}, fmt.Errorf("%w: countries[%d]: prefix and label are required", ErrInvalidConfig, i)
		}
		out.Countries = append(out.Countries, phone.PrefixEntry{Prefix: e.Prefix.String(), Label: e.Label})
	}
	for i, e := range f.Emergency {
		n, err := strconv.ParseInt(e.Number.String(), 10, 64)
		if err != nil {
			return phone.Tables{}, fmt.Errorf("%w: emergency[%d]: number %q is not an integer", ErrInvalidConfig, i, e.Number)
		}
		out.Emergency = append(out.Emergency, phone.EmergencyEntry{Number: n, Label: e.Label})
	}
	return out, nil
}
