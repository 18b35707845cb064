package csvio

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"
)

// Write writes header followed by rows.
func Write(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "csvio: write header")
	}
	if err := cw.WriteAll(rows); err != nil {
		return eris.Wrap(err, "csvio: write rows")
	}
	return nil
}

// WriteFile creates (or truncates) path and writes the table to it.
func WriteFile(path string, header []string, rows [][]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "csvio: create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = eris.Wrapf(cerr, "csvio: close %s", path)
		}
	}()
	return Write(f, header, rows)
}
