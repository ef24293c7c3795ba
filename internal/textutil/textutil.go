// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textutil cleans free-form citation text and filenames.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// unsafeFilenameChars are characters that break at least one common
// filesystem or shell when they appear in a filename.
const unsafeFilenameChars = `/\?%*:|"<>`

// CleanString normalizes a string for comparison and display: NFC
// normalization, removal of non-printable runes, and collapse of all
// internal whitespace runs to single spaces.
func CleanString(s string) string {
	s = norm.NFC.String(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsPrint(r) || r == ' ' || r == '\t' {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// CleanFilename returns a filesystem-safe version of name. Unsafe
// characters are dropped rather than replaced so the result stays close
// to what the user typed.
func CleanFilename(name string) string {
	name = CleanString(name)
	if name == "" {
		return name
	}
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if strings.ContainsRune(unsafeFilenameChars, r) || unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	out := strings.TrimSpace(b.String())
	// A name of only dots confuses path handling.
	if strings.Trim(out, ".") == "" {
		return ""
	}
	return out
}
