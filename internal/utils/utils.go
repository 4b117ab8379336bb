// Package utils contains utility functions used across the application.
package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

var whitespaceRegexp = regexp.MustCompile(`\s+`)

// ShortenString shortens s to l characters, appending "..." if something
// was cut off. l == 0 means no limit.
func ShortenString(s string, l int) string {
	if len(s) > l && l != 0 {
		return fmt.Sprintf("%s...", s[:l])
	}
	return s
}

// CollapseWhitespace replaces every run of whitespace in s with a single
// space and trims the result.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRegexp.ReplaceAllString(s, " "))
}

// RandomString returns base suffixed with a '-' and 8 random bytes in hex.
func RandomString(base string) (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s", base, hex.EncodeToString(b)), nil
}
