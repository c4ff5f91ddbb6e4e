package core

import (
	"bytes"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// TextEncoding is a candidate character encoding for delimited files.
type TextEncoding struct {
	Name string
	enc  encoding.Encoding

	// invalid reports the first byte the encoding does not define, or -1.
	invalid func(data []byte) int
}

// DefaultEncodings is the order in which delimited files are decoded.
// The first candidate that decodes the whole file wins.
var DefaultEncodings = []TextEncoding{
	{Name: "utf-8", enc: encoding.Nop, invalid: invalidUTF8},
	{Name: "ISO-8859-1", enc: charmap.ISO8859_1, invalid: invalidLatin1},
	{Name: "Windows-1252", enc: charmap.Windows1252, invalid: invalidWindows1252},
}

// Decode converts data to UTF-8 text, failing on any byte the encoding
// cannot represent. NUL bytes are rejected by every candidate; no text
// export carries them, but UTF-16 files do.
func (e TextEncoding) Decode(data []byte) (string, error) {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		return "", fmt.Errorf("%s: NUL byte at offset %d", e.Name, i)
	}
	if i := e.invalid(data); i >= 0 {
		return "", fmt.Errorf("%s: invalid byte 0x%02x at offset %d", e.Name, data[i], i)
	}
	if e.enc == encoding.Nop {
		return string(data), nil
	}

	out, _, err := transform.Bytes(e.enc.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", e.Name, err)
	}
	return string(out), nil
}

// decodeText tries each candidate in order and returns the first success
// along with the name of the encoding that worked.
func decodeText(logger *slog.Logger, path string, data []byte, candidates []TextEncoding) (string, string, error) {
	var errs []error
	for _, enc := range candidates {
		text, err := enc.Decode(data)
		if err == nil {
			return text, enc.Name, nil
		}
		logger.Warn("encoding failed, trying next", "file", path, "encoding", enc.Name, "error", err)
		errs = append(errs, err)
	}
	return "", "", fmt.Errorf("%w: no candidate encoding decodes %s (%v)", ErrEncoding, path, errs)
}

func invalidUTF8(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return -1
}

// invalidLatin1 rejects the C1 control range, which text files only contain
// when they are really Windows-1252.
func invalidLatin1(data []byte) int {
	for i, b := range data {
		if b >= 0x80 && b <= 0x9F {
			return i
		}
	}
	return -1
}

func invalidWindows1252(data []byte) int {
	for i, b := range data {
		switch b {
		case 0x81, 0x8D, 0x8F, 0x90, 0x9D:
			return i
		}
	}
	return -1
}
