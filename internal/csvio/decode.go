package csvio

import (
	"bytes"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Decode detects the encoding of an export, strips any BOM and returns UTF-8 bytes
// along with the detected encoding name. Spreadsheet tools in the field save CSVs
// as UTF-8 (with or without BOM), UTF-16 with BOM, or Latin-1.
func Decode(data []byte) ([]byte, string, error) {
	switch {
	case len(data) == 0:
		return data, "utf-8", nil
	case bytes.HasPrefix(data, bomUTF8):
		return data[len(bomUTF8):], "utf-8-bom", nil
	case bytes.HasPrefix(data, bomUTF16LE):
		out, err := transcode(unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), data)
		return out, "utf-16le", err
	case bytes.HasPrefix(data, bomUTF16BE):
		out, err := transcode(unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), data)
		return out, "utf-16be", err
	case utf8.Valid(data):
		return data, "utf-8", nil
	default:
		out, err := transcode(charmap.ISO8859_1, data)
		return out, "latin-1", err
	}
}

func transcode(enc encoding.Encoding, data []byte) ([]byte, error) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, eris.Wrap(err, "csvio: decode")
	}
	return out, nil
}
