package common

import (
	"strings"
	"unicode"
)

// Filter narrows fetched listings to the ones a watch actually cares about.
// All keywords must appear in the title (case-insensitive); price bounds are
// applied only when the price text parses to a number, so free-text prices
// like "Договірна" pass through unfiltered.
type Filter struct {
	Keywords []string
	MinPrice int64
	MaxPrice int64
}

func (f Filter) Match(title, price string) bool {
	if !ContainsAllKeywords(title, f.Keywords) {
		return false
	}
	if f.MinPrice <= 0 && f.MaxPrice <= 0 {
		return true
	}
	amount, ok := ParsePrice(price)
	if !ok {
		return true
	}
	if f.MinPrice > 0 && amount < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && amount > f.MaxPrice {
		return false
	}
	return true
}

// ContainsAllKeywords reports whether every keyword occurs in the title,
// ignoring case. An empty keyword list matches everything.
func ContainsAllKeywords(title string, keywords []string) bool {
	lowered := strings.ToLower(title)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if !strings.Contains(lowered, kw) {
			return false
		}
	}
	return true
}

// SplitKeywords parses a comma-separated keyword list, dropping empties.
func SplitKeywords(raw string) []string {
	parts := strings.Split(raw, ",")
	keywords := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			keywords = append(keywords, part)
		}
	}
	return keywords
}

// ParsePrice extracts the leading numeric amount from marketplace price text
// such as "5 200 грн." or "1,250 zł". It stops at a decimal separator so
// "1 299.99" parses as 1299. Returns false when the text has no digits.
func ParsePrice(text string) (int64, bool) {
	var amount int64
	seen := false
	for _, r := range text {
		switch {
		case unicode.IsDigit(r):
			amount = amount*10 + int64(r-'0')
			seen = true
		case r == ' ' || r == ' ' || r == ',':
			if !seen {
				continue
			}
			// thousands separators inside the number are skipped
		default:
			if seen {
				return amount, true
			}
		}
	}
	return amount, seen
}
