package logging

import (
	"regexp"
	"strings"
)

const redacted = "REDACTED"

// Redactor removes credentials from log values.
type Redactor struct {
	patterns []*redactPattern
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Built-in pattern names.
const (
	PatternURLQuery    = "url_query"
	PatternURLUserinfo = "url_userinfo"
	PatternUserIP      = "user_ip"
	PatternParam       = "secret_param"
)

var (
	urlQueryPattern    = regexp.MustCompile(`(https?://[^\s?#"'<>]+)\?[^\s"'<>)]*`)
	urlUserinfoPattern = regexp.MustCompile(`(https?|socks5h?)://[^\s/@"'<>]+@`)
)

// NewRedactor creates a Redactor with the built-in patterns. Order matters:
// URLs are handled before loose parameters.
func NewRedactor() *Redactor {
	r := &Redactor{}
	r.add(PatternURLUserinfo, urlUserinfoPattern, "$1://"+redacted+"@")
	r.add(PatternURLQuery, urlQueryPattern, "$1?"+redacted)
	r.add(PatternUserIP, regexp.MustCompile(`USER-IP="[^"]*"`), `USER-IP="`+redacted+`"`)
	r.add(PatternParam, regexp.MustCompile(`\b(token|sig|password|session_key)=[^&\s"']+`), "$1="+redacted)
	return r
}

func (r *Redactor) add(name string, re *regexp.Regexp, replacement string) {
	r.patterns = append(r.patterns, &redactPattern{name: name, regex: re, replacement: replacement})
}

// RedactString redacts credentials from a string value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// IsSensitiveKey reports whether an attribute key names a secret.
func (r *Redactor) IsSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)

	for _, sensitive := range []string{"password", "secret", "token", "agent_key", "authorization"} {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}
	return lowerKey == "sig"
}

// RedactURLs strips query strings and userinfo from every URL in s.
func RedactURLs(s string) string {
	s = urlUserinfoPattern.ReplaceAllString(s, "$1://"+redacted+"@")
	return urlQueryPattern.ReplaceAllString(s, "$1")
}
