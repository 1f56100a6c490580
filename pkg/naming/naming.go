package naming

import (
	"regexp"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation"
)

var (
	// invalidCharsRegex matches any character that is not alphanumeric, dash, or dot
	invalidCharsRegex = regexp.MustCompile(`[^a-z0-9\-.]`)
	// multiDashRegex matches consecutive dashes
	multiDashRegex = regexp.MustCompile(`-+`)
	// multiDotRegex matches consecutive dots
	multiDotRegex = regexp.MustCompile(`\.+`)
)

// Namespace derives the namespace name downstream consumers use for a cluster
// anchor. RFC 1123 labels must:
//   - contain only lowercase alphanumeric characters or '-'
//   - start and end with an alphanumeric character
//   - be at most 63 characters long
//
// Anchors are usually already compliant ("prod-eu-1"); this lowercases,
// replaces invalid characters with '-', collapses separators, and truncates so
// that arbitrary anchors still map somewhere deterministic. An anchor that
// cannot produce a valid name maps to "x".
func Namespace(anchor string) string {
	if anchor == "" {
		return "x"
	}

	s := strings.ToLower(anchor)
	s = invalidCharsRegex.ReplaceAllString(s, "-")
	s = multiDashRegex.ReplaceAllString(s, "-")
	// Dots separate subdomain segments; namespaces are flat labels.
	s = multiDotRegex.ReplaceAllString(s, "-")
	s = trimNonAlnum(s)

	if s == "" {
		return "x"
	}

	if len(s) > validation.DNS1123LabelMaxLength {
		s = s[:validation.DNS1123LabelMaxLength]
		s = trimNonAlnum(s)
		if s == "" {
			return "x"
		}
	}

	return s
}

// isAlnum returns true if the rune is a lowercase alphanumeric character.
// Note: Input is expected to be already lowercased.
func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

// trimNonAlnum removes leading and trailing non-alphanumeric characters from a string.
func trimNonAlnum(s string) string {
	for len(s) > 0 && !isAlnum(rune(s[0])) {
		s = s[1:]
	}
	for len(s) > 0 && !isAlnum(rune(s[len(s)-1])) {
		s = s[:len(s)-1]
	}
	return s
}
