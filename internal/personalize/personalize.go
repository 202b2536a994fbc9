// Package personalize fills message templates with per-profile values.
//
// Templates recognize exactly two placeholders, {name} and {job_title};
// substitution is literal text replacement, not a templating grammar, so
// unmatched braces pass through untouched.
package personalize

import (
	"strings"
	"unicode"
)

const (
	namePlaceholder     = "{name}"
	jobTitlePlaceholder = "{job_title}"
)

// Apply replaces every {name} with the capitalized username and every
// {job_title} with the job title.
func Apply(template, username, jobTitle string) string {
	out := strings.ReplaceAll(template, namePlaceholder, capitalize(username))
	return strings.ReplaceAll(out, jobTitlePlaceholder, jobTitle)
}

// capitalize upper-cases the first rune and leaves the rest unchanged.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
