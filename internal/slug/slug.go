// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings
// and resolution of a slug that is free within a collection.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// removedChars is the punctuation dropped before strict filtering.
	removedChars = regexp.MustCompile(`[*+~.()'"!:@]`)
	// nonStrict matches anything that isn't an ASCII letter, digit, or whitespace.
	nonStrict = regexp.MustCompile(`[^A-Za-z0-9\s]`)
	// whitespaceRun collapses separators into one hyphen.
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// charMap covers letters that do not decompose into base + combining mark.
var charMap = map[rune]string{
	'&': "and",
	'ß': "ss",
	'æ': "ae",
	'Æ': "AE",
	'ø': "o",
	'Ø': "O",
	'œ': "oe",
	'Œ': "OE",
	'đ': "d",
	'Đ': "D",
	'ł': "l",
	'Ł': "L",
	'þ': "th",
	'Þ': "TH",
}

// MaxLen caps a generated slug in bytes. Slug columns are VARCHAR(255),
// which leaves room for the numeric suffix added by Resolve.
const MaxLen = 200

// stripMarks removes combining diacritics: "é" -> "e".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Generate creates a URL-friendly slug from the given string.
// Example: "Hello, World! 2026" -> "hello-world-2026"
func Generate(s string) string {
	result := transliterate(s)
	// Hyphens are separators, same as spaces.
	result = strings.ReplaceAll(result, "-", " ")
	result = removedChars.ReplaceAllString(result, "")
	result = nonStrict.ReplaceAllString(result, "")
	result = strings.TrimSpace(result)
	result = whitespaceRun.ReplaceAllString(result, "-")
	return truncate(strings.ToLower(result))
}

// truncate shortens s to at most MaxLen bytes, cutting at the last hyphen
// when one falls inside the limit. s is ASCII at this point.
func truncate(s string) string {
	if len(s) <= MaxLen {
		return s
	}
	cut := s[:MaxLen]
	if s[MaxLen] != '-' {
		if i := strings.LastIndexByte(cut, '-'); i > 0 {
			cut = cut[:i]
		}
	}
	return strings.TrimRight(cut, "-")
}

// transliterate maps Latin letters to ASCII and normalizes Unicode spaces.
func transliterate(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if mapped, ok := charMap[r]; ok {
			b.WriteString(mapped)
			continue
		}
		if unicode.IsSpace(r) {
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(r)
	}
	out, _, err := transform.String(stripMarks, b.String())
	if err != nil {
		return b.String()
	}
	return out
}
