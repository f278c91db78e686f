package redact

import (
	"net/url"
	"strings"
)

// String masks a secret, leaving at most its first and last two characters
// visible for secrets long enough to keep them unguessable.
func String(s string) string {
	switch l := len(s); {
	case l == 0:
		return ""
	case l < 12:
		return strings.Repeat("*", l)
	default:
		return s[:2] + strings.Repeat("*", l-4) + s[l-2:]
	}
}

// URL drops the query and fragment of u. Signed media URLs carry their
// credentials in the query.
func URL(u string) string {
	parsed, err := url.Parse(u)
	if nil != err {
		return "<invalid url>"
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	parsed.User = nil

	return parsed.String()
}
