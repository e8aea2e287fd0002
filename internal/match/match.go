// Package match holds the pure matching rules that gate which listings get
// enriched and stored. No I/O.
package match

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/freese/jobradar/internal/config"
)

// Location reports whether a listing passes the profile's location rules.
// A remote listing always passes. A remote-only profile rejects everything
// else. Otherwise any configured location term matching as a case-insensitive
// substring of the listing's location text passes; an empty location text
// matches nothing.
func Location(location string, remote bool, profile config.SearchProfile) bool {
	if remote {
		return true
	}
	if profile.RemoteOnly {
		return false
	}

	loc := strings.ToLower(location)
	for _, term := range profile.Locations {
		if term == "" {
			continue
		}
		if strings.Contains(loc, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

// Title reports whether a title passes the profile's keyword rules.
// Keywords match as left-word-boundary prefixes, so "referent" also hits
// "Referentin" — deliberate, for inflected job titles. Exclude terms match
// only as full words and always win over a keyword hit.
func Title(title string, profile config.SearchProfile) bool {
	lower := strings.ToLower(title)

	hasKeyword := false
	for _, kw := range profile.TitleKeywords {
		if containsWordPrefix(lower, strings.ToLower(kw)) {
			hasKeyword = true
			break
		}
	}
	if !hasKeyword {
		return false
	}

	for _, ex := range profile.TitleExcludes {
		if containsWord(lower, strings.ToLower(ex)) {
			return false
		}
	}
	return true
}

// containsWordPrefix reports whether term occurs in s starting at a word
// boundary. The right side is unconstrained.
func containsWordPrefix(s, term string) bool {
	return scan(s, term, false)
}

// containsWord reports whether term occurs in s with word boundaries on
// both sides.
func containsWord(s, term string) bool {
	return scan(s, term, true)
}

func scan(s, term string, bothBoundaries bool) bool {
	if term == "" {
		return false
	}
	for from := 0; ; {
		i := strings.Index(s[from:], term)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(term)

		leftOK := start == 0 || !isWordRune(lastRune(s[:start]))
		rightOK := !bothBoundaries || end == len(s) || !isWordRune(firstRune(s[end:]))
		if leftOK && rightOK {
			return true
		}

		from = start + 1
		if from >= len(s) {
			return false
		}
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}
