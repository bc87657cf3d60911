package format

import "strings"

// take returns at most n runes of s.
func take(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// lastWord returns the final space-separated token of s.
func lastWord(s string) string {
	idx := strings.LastIndex(s, " ")
	if idx < 0 {
		return s
	}
	return s[idx+1:]
}
