package core

import (
	"math"
	"testing"
)

// ----------------------------------------------------------------------------
// CleanCell Tests
// ----------------------------------------------------------------------------

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain value", input: "abc", want: "abc"},
		{name: "surrounding whitespace", input: "  abc  ", want: "abc"},
		{name: "quoted value", input: `"abc"`, want: "abc"},
		{name: "excel formula prefix", input: `="0012"`, want: "0012"},
		{name: "stray inner quote", input: `a"b`, want: "ab"},
		{name: "only quotes", input: `""`, want: ""},
		{name: "empty", input: "", want: ""},
		{name: "whitespace inside quotes", input: `" x "`, want: "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// Product Code Tests
// ----------------------------------------------------------------------------

func TestCleanProductCode(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "06211700 (KR27004)", want: "06211700"},
		{input: "011338 ENCOMENDA PEDRACON", want: "011338"},
		{input: "0986B01907", want: "0986B01907"},
		{input: "ABC-12.", want: "ABC-12"},
		{input: "X(1)Y", want: "XY"},
		{input: "BAD ROW", want: "BAD"},
		{input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := CleanProductCode(tt.input); got != tt.want {
				t.Errorf("CleanProductCode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestHasInvalidCodeChars(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{code: "ABC-1/2.3", want: false},
		{code: "0986B01907", want: false},
		{code: "", want: false},
		{code: "AB*C", want: true},
		{code: "PEÇA", want: true},
		{code: "A_B", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := HasInvalidCodeChars(tt.code); got != tt.want {
				t.Errorf("HasInvalidCodeChars(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// Number Tests
// ----------------------------------------------------------------------------

func TestNormalizePrice(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "comma decimal", input: "99,90", want: "99.90"},
		{name: "thousands and comma decimal", input: "1.234,56", want: "1234.56"},
		{name: "multiple thousands", input: "1.234.567,89", want: "1234567.89"},
		{name: "dot decimal", input: "15.5", want: "15.5"},
		{name: "integer", input: "231", want: "231"},
		{name: "trailing semicolon", input: "231;", want: "231"},
		{name: "whitespace", input: " 10,5 ", want: "10.5"},
		{name: "empty", input: "", want: ""},
		{name: "negative", input: "-0,01", want: "-0.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePrice(tt.input); got != tt.want {
				t.Errorf("NormalizePrice(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		input  string
		wantOK bool
		want   string
	}{
		{input: "99.90", wantOK: true, want: "99.9"},
		{input: "0", wantOK: true, want: "0"},
		{input: "-0.01", wantOK: true, want: "-0.01"},
		{input: "abc", wantOK: false},
		{input: "", wantOK: false},
		{input: "1.2.3", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParsePrice(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParsePrice(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got.String() != tt.want {
				t.Errorf("ParsePrice(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseStock(t *testing.T) {
	tests := []struct {
		input  string
		want   int64
		wantOK bool
	}{
		{input: "10", want: 10, wantOK: true},
		{input: "0", want: 0, wantOK: true},
		{input: "-1", want: -1, wantOK: true},
		{input: "2147483648", want: 2147483648, wantOK: true},
		{input: "99999999999999999999", want: math.MaxInt64, wantOK: true},
		{input: "abc", wantOK: false},
		{input: "1.5", wantOK: false},
		{input: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseStock(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseStock(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseStock(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// CNPJ Tests
// ----------------------------------------------------------------------------

func TestValidCNPJ(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{input: "11.222.333/0001-81", want: true},
		{input: "11222333000181", want: true},
		{input: "11111111111111", want: false},
		{input: "00.000.000/0000-00", want: false},
		{input: "123", want: false},
		{input: "112223330001810", want: false},
		{input: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ValidCNPJ(tt.input); got != tt.want {
				t.Errorf("ValidCNPJ(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatCNPJ(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "11222333000181", want: "11.222.333/0001-81"},
		{input: "11.222.333/0001-81", want: "11.222.333/0001-81"},
		{input: "123", want: "123"},
		{input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := FormatCNPJ(tt.input); got != tt.want {
				t.Errorf("FormatCNPJ(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestOnlyDigits(t *testing.T) {
	if got := OnlyDigits("11.222.333/0001-81"); got != "11222333000181" {
		t.Errorf("OnlyDigits() = %q", got)
	}
	if got := OnlyDigits("abc"); got != "" {
		t.Errorf("OnlyDigits(abc) = %q, want empty", got)
	}
}
