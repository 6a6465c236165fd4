package scrape

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// ExtractPrice returns the trimmed text of the first element matching
// selector, or the value of attr on it when attr is not empty.
func ExtractPrice(doc *goquery.Document, selector, attr string) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("%w: %s", ErrSelectorNotFound, selector)
	}

	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", fmt.Errorf("%w: %s", ErrSelectorNotFound, selector)
	}

	if attr != "" {
		val, ok := sel.Attr(attr)
		if !ok {
			return "", fmt.Errorf("%w: %s[%s]", ErrAttributeNotFound, selector, attr)
		}
		return strings.TrimSpace(val), nil
	}

	return strings.Join(strings.Fields(sel.Text()), " "), nil
}

// numberPattern matches a run of digits with grouping or decimal separators.
var numberPattern = regexp.MustCompile(`\d[\d.,'\x{00a0}\x{202f}]*\d|\d`)

// spaceGroupPattern matches a space-separated group of three digits and any
// decimal tail after it, as in the " 299,99" of "1 299,99".
var spaceGroupPattern = regexp.MustCompile(`^ \d{3}(?:[.,'\x{00a0}\x{202f}]+\d(?:[\d.,'\x{00a0}\x{202f}]*\d)?)?`)

// ParsePrice extracts the first number from text such as "$1,299.99",
// "1.299,99 €", "CA$ 12" or "12.5".
//
// A single ASCII space followed by exactly three digits groups thousands
// when it follows a leading group of one to three digits.
// When both '.' and ',' appear, the rightmost one is the decimal separator.
// When only one appears once and is followed by exactly three digits it is
// treated as a grouping separator.
func ParsePrice(text string) (float64, error) {
	loc := numberPattern.FindStringIndex(text)
	if loc == nil {
		return 0, fmt.Errorf("%w: %q", ErrNoPrice, text)
	}
	match := text[loc[0]:extendSpaceGroups(text, loc[0], loc[1])]

	s := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\'', '\u00a0', '\u202f':
			return -1
		}
		return r
	}, match)

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastDot > lastComma {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastComma >= 0:
		s = normalizeSingleSeparator(s, ",")
	case lastDot >= 0:
		s = normalizeSingleSeparator(s, ".")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNoPrice, text)
	}
	return v, nil
}

// extendSpaceGroups returns the end of the number starting at start when its
// digit groups are separated by single spaces. Only a leading group of one
// to three plain digits is extended, and a group must not run into a letter
// or another digit.
func extendSpaceGroups(text string, start, end int) int {
	if end-start > 3 {
		return end
	}
	for strings.Trim(text[start:end], "0123456789 ") == "" {
		m := spaceGroupPattern.FindString(text[end:])
		if m == "" {
			break
		}
		next := end + len(m)
		if r, _ := utf8.DecodeRuneInString(text[next:]); next < len(text) && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			break
		}
		end = next
	}
	return end
}

// normalizeSingleSeparator resolves a number that uses only sep.
func normalizeSingleSeparator(s, sep string) string {
	if strings.Count(s, sep) > 1 {
		return strings.ReplaceAll(s, sep, "")
	}
	idx := strings.Index(s, sep)
	if len(s)-idx-1 == 3 && s[:idx] != "0" {
		return strings.Replace(s, sep, "", 1)
	}
	return strings.Replace(s, sep, ".", 1)
}
