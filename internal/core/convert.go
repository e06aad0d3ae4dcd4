package core

// convert.go cleans raw cell text before matching and extraction.
//
// Spreadsheet exports carry the usual artifacts: Excel formula prefixes
// (="E001"), stray quotes, non-breaking spaces, full-width characters and
// combining accents. Labels are folded to a comparable key; values keep their
// case but lose the artifacts.

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// numericRegex validates a cleaned amount: integers, decimals and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// currencyMarks are stripped from amounts before parsing.
var currencyMarks = strings.NewReplacer(
	"$", "", "€", "", "£", "", ",", "", " ", "", "\u00a0", "",
	"KES", "", "KSH", "", "Ksh", "", "ksh", "",
)

// CleanCell removes common export artifacts from a cell value:
// surrounding whitespace, the Excel formula prefix (="...") and surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"`))
}

// labelFolder applies compatibility decomposition, drops combining marks and
// recomposes, so "Ｐａｙｅ" and "Payé" compare like "paye".
func labelFolder() transform.Transformer {
	return transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// foldLabel returns the comparison key for a header label or header-like value:
// cleaned, accent-folded, lower-cased, with internal whitespace collapsed.
// A fresh transformer is built per call; transformers carry state.
func foldLabel(s string) string {
	s = CleanCell(s)
	if s == "" {
		return ""
	}
	if folded, _, err := transform.String(labelFolder(), s); err == nil {
		s = folded
	}
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// labelTokens splits a folded label on whitespace and punctuation and keeps
// tokens longer than two runes.
func labelTokens(folded string) []string {
	parts := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := parts[:0]
	for _, p := range parts {
		if len([]rune(p)) > 2 {
			out = append(out, p)
		}
	}
	return out
}

// ParseAmount parses a monetary cell. It accepts thousands separators,
// currency marks and the accounting negative form "(123.45)".
func ParseAmount(s string) (float64, bool) {
	s = CleanCell(s)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = currencyMarks.Replace(s)
	if !numericRegex.MatchString(s) {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}
