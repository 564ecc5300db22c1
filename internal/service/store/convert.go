package store

import (
	"strconv"
	"strings"
)

func itoa(n int) string {
	return strconv.Itoa(n)
}

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}

// priorityFrom reads a stored priority. Blank or invalid values mean unscored.
func priorityFrom(s string) int {
	n, ok := atoi(s)
	if !ok || n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

func priorityString(p int) string {
	if p <= 0 {
		return ""
	}
	return strconv.Itoa(p)
}
