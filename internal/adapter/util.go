package adapter

import (
	"strings"
)

// cleanText trims text and collapses internal whitespace runs to one space.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
