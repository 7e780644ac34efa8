package tokenizer

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty string", "", []string{}},
		{"simple name", "Anti Kaljumäe", []string{"anti", "kaljumäe"}},
		{"with punctuation", "Tamm, Jaan!", []string{"tamm", "jaan"}},
		{"with numbers", "Erakond Eesti 200", []string{"erakond", "eesti", "200"}},
		{"leading/trailing spaces", "  Harju  ", []string{"harju"}},
		{"multiple spaces between words", "Lääne   Viru", []string{"lääne", "viru"}},
		{"hyphenated place", "Lääne-Viru maakond", []string{"lääne", "viru", "maakond"}},
		{"all caps word", "ISAMAA Erakond", []string{"isamaa", "erakond"}},
		{"non ascii capitals", "ÜKSIKKANDIDAADID", []string{"üksikkandidaadid"}},
		{"only symbols", "!@#$%^", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFold(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  FoldOptions
		want  string
	}{
		{"lowercases by default", "Anti Kaljumäe", FoldOptions{}, "anti kaljumäe"},
		{"case sensitive keeps case", "Anti", FoldOptions{CaseSensitive: true}, "Anti"},
		{"strips diacritics", "Kaljumäe Õismäe", FoldOptions{IgnoreDiacritics: true}, "kaljumae oismae"},
		{"decomposed input is recomposed", "Kaljuma\u0308e", FoldOptions{}, "kaljumäe"},
		{"decomposed input stripped", "Kaljuma\u0308e", FoldOptions{IgnoreDiacritics: true}, "kaljumae"},
		{"empty", "", FoldOptions{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fold(tt.input, tt.opts); got != tt.want {
				t.Errorf("Fold(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCanonical(t *testing.T) {
	if got := Canonical("  Anti   KALJUMÄE "); got != "anti kaljumäe" {
		t.Errorf("Canonical() = %q", got)
	}
	if got := Canonical("??"); got != "" {
		t.Errorf("Canonical() = %q, want empty", got)
	}
}
