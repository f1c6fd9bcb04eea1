package util

import "fmt"

// Trim keeps the first n items and appends a "k more..." marker for the
// rest. n below 1 is treated as 1. The input slice is not modified.
func Trim(items []string, n int) []string {
	if n < 1 {
		n = 1
	}
	if len(items) <= n {
		return items
	}
	out := make([]string, 0, n+1)
	out = append(out, items[:n]...)
	return append(out, fmt.Sprintf("%d more...", len(items)-n))
}
