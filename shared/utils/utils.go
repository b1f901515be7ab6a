package utils

import (
	"strconv"
	"strings"
)

// ParseAccountID parses a raw path id. Surrounding whitespace and a leading
// sign are accepted; anything else that is not a base-10 integer is rejected.
func ParseAccountID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
