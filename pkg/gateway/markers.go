package gateway

import (
	"regexp"
	"strings"
)

var userIPPattern = regexp.MustCompile(`USER-IP="[^"]*"`)

// SubstringBetween returns the text after the first occurrence of start and
// before the next occurrence of end. ok is false if either is missing.
func SubstringBetween(s, start, end string) (string, bool) {
	_, rest, found := strings.Cut(s, start)
	if !found {
		return "", false
	}
	value, _, found := strings.Cut(rest, end)
	if !found {
		return "", false
	}
	return value, true
}

// UserCountry extracts the USER-COUNTRY marker from a manifest.
func UserCountry(manifest string) (string, bool) {
	return SubstringBetween(manifest, `USER-COUNTRY="`, `"`)
}

// RedactUserIP replaces every USER-IP marker value with placeholder.
func RedactUserIP(manifest, placeholder string) string {
	return userIPPattern.ReplaceAllLiteralString(manifest, `USER-IP="`+placeholder+`"`)
}
