package util

import "strings"

// NormalizeSymbol uppercases and trims a ticker symbol.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// SymbolSet builds a normalized lookup set, skipping blanks. It returns nil
// when no usable symbol remains so callers can treat nil as "no filter".
func SymbolSet(symbols []string) map[string]struct{} {
	var set map[string]struct{}
	for _, s := range symbols {
		n := NormalizeSymbol(s)
		if n == "" {
			continue
		}
		if set == nil {
			set = make(map[string]struct{}, len(symbols))
		}
		set[n] = struct{}{}
	}
	return set
}

// SplitList splits a comma separated list, dropping empty items.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
