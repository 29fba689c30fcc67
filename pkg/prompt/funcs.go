package prompt

import (
	"strconv"
	"strings"
	"text/template"
)

// Funcs returns the helpers available to planner templates.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"truncate": Truncate,
		"join":     strings.Join,
		"inc":      func(i int) int { return i + 1 },
		"quote":    strconv.Quote,
		"trim":     strings.TrimSpace,
	}
}

// Truncate cuts s to at most n runes. n <= 0 means no limit.
func Truncate(n int, s string) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
