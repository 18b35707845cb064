package csvio

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParse_PadsAndTruncates(t *testing.T) {
	data := []byte("a,b,c\n1,2\n1,2,3,4\n x ,y,z\n")
	tbl, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(tbl.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(tbl.Rows))
	}
	if tbl.Rows[0]["c"] != "" || tbl.Rows[1]["c"] != "3" {
		t.Fatalf("unexpected rows: %v", tbl.Rows)
	}
	if tbl.Rows[2]["a"] != " x " {
		t.Fatalf("cell values must be kept verbatim, got %q", tbl.Rows[2]["a"])
	}
	if len(tbl.Warnings) != 2 || tbl.Warnings[0].Row != 2 {
		t.Fatalf("unexpected warnings: %+v", tbl.Warnings)
	}
}

func TestParse_HeaderOnlyIsEmptyTable(t *testing.T) {
	tbl, err := Parse([]byte("call_id,number\n"))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(tbl.Rows) != 0 || len(tbl.Header) != 2 {
		t.Fatalf("unexpected table: %+v", tbl)
	}

	if _, err := Parse(nil); !errors.Is(err, ErrNoHeader) {
		t.Fatalf("expected ErrNoHeader, got %v", err)
	}
}

func TestDecode_BOMAndLatin1(t *testing.T) {
	out, enc, err := Decode(append([]byte{0xEF, 0xBB, 0xBF}, "Call from\n"...))
	if err != nil || enc != "utf-8-bom" || string(out) != "Call from\n" {
		t.Fatalf("utf-8 bom: %q %q %v", out, enc, err)
	}

	out, enc, err = Decode([]byte{0xFF, 0xFE, 'a', 0x00, ',', 0x00, 'b', 0x00})
	if err != nil || enc != "utf-16le" || string(out) != "a,b" {
		t.Fatalf("utf-16le: %q %q %v", out, enc, err)
	}

	out, enc, err = Decode([]byte{'J', 'o', 's', 0xE9})
	if err != nil || enc != "latin-1" || string(out) != "José" {
		t.Fatalf("latin-1: %q %q %v", out, enc, err)
	}
}

func TestWriteFile_RoundTripsThroughParse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	header := []string{"Client", "Call memo"}
	if err := WriteFile(path, header, [][]string{{"acme", "said \"hi\", left"}}); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	tbl, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tbl.Rows[0]["Call memo"] != "said \"hi\", left" {
		t.Fatalf("unexpected memo %q", tbl.Rows[0]["Call memo"])
	}

	var buf bytes.Buffer
	if err := Write(&buf, header, nil); err != nil || buf.String() != "Client,Call memo\n" {
		t.Fatalf("header only: %q %v", buf.String(), err)
	}
}
