package slug

import (
	"strings"
	"testing"
)

// TestGenerate exercises the slug generator with typical titles, the removed
// punctuation set, unicode, whitespace, and boundary conditions.
func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		// --- Normal titles ---
		{name: "simple two words", input: "Hello World", want: "hello-world"},
		{name: "title with year", input: "Hello World 2026", want: "hello-world-2026"},
		{name: "single word", input: "GoLang", want: "golang"},
		{name: "category name", input: "Tech Notes", want: "tech-notes"},
		{name: "category name with bang", input: "Tech Notes!", want: "tech-notes"},

		// --- Removed punctuation set ---
		{name: "asterisk plus tilde", input: "a*b+c~d", want: "abcd"},
		{name: "dots inside words", input: "Version 2.0.1", want: "version-201"},
		{name: "parentheses", input: "How to Deploy Go (2026 Edition)", want: "how-to-deploy-go-2026-edition"},
		{name: "quotes", input: `It's "quoted"`, want: "its-quoted"},
		{name: "colon", input: "Go: The Complete Developer Guide", want: "go-the-complete-developer-guide"},
		{name: "at sign", input: "Meet @ Noon", want: "meet-noon"},

		// --- Strict mode ---
		{name: "commas and question marks", input: "Hello, World! How's it going?", want: "hello-world-hows-it-going"},
		{name: "brackets", input: "Version (2.0) [Beta]", want: "version-20-beta"},
		{name: "slashes and pipes", input: "Frontend/Backend | Full Stack", want: "frontendbackend-full-stack"},
		{name: "hash and dollar", input: "Issue #42 costs $100", want: "issue-42-costs-100"},
		{name: "plus and equals", input: "1 + 1 = 2", want: "1-1-2"},
		{name: "underscores dropped", input: "snake_case_name", want: "snakecasename"},
		{name: "ampersand spelled out", input: "Rock & Roll", want: "rock-and-roll"},

		// --- Unicode ---
		{name: "french accents", input: "Café résumé naïve", want: "cafe-resume-naive"},
		{name: "german letters", input: "München straße", want: "munchen-strasse"},
		{name: "nordic letters", input: "Smørrebrød Æble", want: "smorrebrod-aeble"},
		{name: "cjk dropped", input: "日本語 Guide", want: "guide"},
		{name: "emoji dropped", input: "Launch 🚀 Day", want: "launch-day"},
		{name: "non-breaking space", input: "hello\u00a0world", want: "hello-world"},

		// --- Whitespace and hyphens ---
		{name: "leading and trailing spaces", input: "  hello world  ", want: "hello-world"},
		{name: "consecutive spaces", input: "hello    world", want: "hello-world"},
		{name: "tabs and newlines", input: "hello\tbig\nworld", want: "hello-big-world"},
		{name: "leading hyphens", input: "---hello world", want: "hello-world"},
		{name: "hyphens between words", input: "hello---world", want: "hello-world"},
		{name: "single hyphen preserved", input: "well-known fact", want: "well-known-fact"},
		{name: "date-like string", input: "2026-02-25", want: "2026-02-25"},

		// --- Edge cases ---
		{name: "empty string", input: "", want: ""},
		{name: "only spaces", input: "     ", want: ""},
		{name: "only hyphens", input: "-----", want: ""},
		{name: "only symbols", input: "!@#$%^*()", want: ""},
		{name: "single character", input: "A", want: "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Generate(tt.input)
			if got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestGenerate_Idempotent verifies generate(generate(x)) == generate(x).
func TestGenerate_Idempotent(t *testing.T) {
	inputs := []string{
		"hello-world",
		"Hello World",
		"  --Weird -- Input--  ",
		"Café & Crème: the *best* (maybe)",
		"München straße 2.0",
		"日本語",
		"a",
		"123",
		"",
		"x - y - z",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			once := Generate(in)
			twice := Generate(once)
			if once != twice {
				t.Errorf("Generate not idempotent for %q: %q then %q", in, once, twice)
			}
		})
	}
}

// TestGenerate_Deterministic verifies repeated calls agree.
func TestGenerate_Deterministic(t *testing.T) {
	const in = "The Quick Brown Fox: Jumps (Again)!"
	first := Generate(in)
	for i := 0; i < 50; i++ {
		if got := Generate(in); got != first {
			t.Fatalf("call %d: got %q, want %q", i, got, first)
		}
	}
}

// TestGenerate_ConsistentCase verifies that slugs are always lowercase
// regardless of input casing.
func TestGenerate_ConsistentCase(t *testing.T) {
	inputs := []string{
		"HELLO WORLD",
		"Hello World",
		"hElLo WoRlD",
		"hello world",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			got := Generate(input)
			if got != "hello-world" {
				t.Errorf("Generate(%q) = %q, want %q", input, got, "hello-world")
			}
		})
	}
}

// TestGenerate_MaxLen verifies that titles which expand during
// transliteration still fit the slug column, with room for a suffix.
func TestGenerate_MaxLen(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "ampersands", input: strings.Repeat("& ", 100), want: strings.TrimSuffix(strings.Repeat("and-", 50), "-")},
		{name: "sharp s", input: strings.Repeat("ß", 200), want: strings.Repeat("s", MaxLen)},
		{name: "cut on word boundary", input: strings.Repeat("abcdefg ", 30), want: strings.TrimSuffix(strings.Repeat("abcdefg-", 25), "-")},
		{name: "exactly at limit", input: strings.Repeat("a", MaxLen), want: strings.Repeat("a", MaxLen)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Generate(tt.input)
			if got != tt.want {
				t.Errorf("Generate = %q (%d bytes), want %q", got, len(got), tt.want)
			}
			if len(got)+len("-1000") > 255 {
				t.Errorf("slug with suffix exceeds column width: %d bytes", len(got))
			}
			if Generate(got) != got {
				t.Errorf("capped slug not idempotent: %q", got)
			}
		})
	}
}
