package core

import "strings"

// Supported field separators.
const (
	Semicolon rune = ';'
	Comma     rune = ','
)

// firstLine returns text up to the first newline, without a trailing '\r'.
func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSuffix(text, "\r")
}

// DetectDelimiter chooses the field separator from the first line of sample.
//
// Semicolon is preferred: it wins ties and wins whenever it appears, because
// comma doubles as the decimal separator in price columns. Comma is chosen
// only for a line with commas and no semicolons. The result is best-effort; a
// malformed first line can mis-detect the whole file.
func DetectDelimiter(sample string) rune {
	line := firstLine(sample)
	if strings.Count(line, ";") == 0 && strings.Count(line, ",") > 0 {
		return Comma
	}
	return Semicolon
}

// HasDelimiter reports whether the first line of sample holds either
// supported separator.
func HasDelimiter(sample string) bool {
	return strings.ContainsAny(firstLine(sample), ";,")
}

// DelimiterName returns the wire name of a separator ("semicolon" or "comma").
func DelimiterName(r rune) string {
	if r == Comma {
		return "comma"
	}
	return "semicolon"
}

// ParseDelimiterName resolves a format value. Empty or "auto" yields false so
// the caller falls back to detection.
func ParseDelimiterName(name string) (rune, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "semicolon", ";":
		return Semicolon, true
	case "comma", ",":
		return Comma, true
	}
	return 0, false
}
