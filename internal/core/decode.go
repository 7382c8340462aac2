package core

// decode.go turns uploaded bytes into text.
//
// Spreadsheet exports on Windows are frequently saved as "ANSI" (Windows-1252)
// or UTF-16 with a BOM rather than UTF-8. DecodeText accepts all three and
// never returns replacement characters when a fallback encoding can read the
// bytes.

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Encoding names reported by DecodeTextWithEncoding.
const (
	EncodingUTF8        = "utf-8"
	EncodingUTF16       = "utf-16"
	EncodingWindows1252 = "windows-1252"
)

// DecodeText returns the text content of data.
//
// A UTF-8 BOM is stripped. Valid UTF-8 is returned as is; UTF-16 is decoded
// when a UTF-16 BOM is present; anything else is decoded as Windows-1252.
// Text that still contains NUL characters is binary and yields a DecodeError.
func DecodeText(data []byte) (string, error) {
	text, _, err := DecodeTextWithEncoding(data)
	return text, err
}

// DecodeTextWithEncoding is DecodeText that also reports which encoding was
// used.
func DecodeTextWithEncoding(data []byte) (string, string, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		data = data[len(bomUTF8):]

	case bytes.HasPrefix(data, bomUTF16LE), bytes.HasPrefix(data, bomUTF16BE):
		dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		out, _, err := transform.Bytes(dec, data)
		if err != nil {
			return "", "", &DecodeError{Reason: "invalid UTF-16 content", Err: err}
		}
		text := string(out)
		if strings.ContainsRune(text, utf8.RuneError) {
			return "", "", &DecodeError{Reason: "invalid UTF-16 content"}
		}
		return checkText(text, EncodingUTF16)
	}

	if utf8.Valid(data) {
		return checkText(string(data), EncodingUTF8)
	}

	out, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return "", "", &DecodeError{Reason: "not UTF-8 or Windows-1252 text", Err: err}
	}
	return checkText(string(out), EncodingWindows1252)
}

func checkText(text, encoding string) (string, string, error) {
	if strings.ContainsRune(text, 0) {
		return "", "", &DecodeError{Reason: "file contains binary data"}
	}
	return text, encoding, nil
}
