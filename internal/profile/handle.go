package profile

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrNotProfileURL indicates a URL that does not point at a member profile.
var ErrNotProfileURL = errors.New("not a profile URL")

// Handle identifies a candidate profile. Two handles refer to the same
// profile iff their Username values are equal; the URL is kept only for
// display and record-keeping.
type Handle struct {
	URL      string `json:"url"`
	Username string `json:"username"`
}

// usernameRe matches the public-profile path segment following /in/.
var usernameRe = regexp.MustCompile(`/in/([^/]+)`)

// Extract normalizes an arbitrary URL into a Handle. The username is the
// path segment after "/in/", case-preserving; protocol, trailing slashes and
// query strings don't affect it. Anything without an /in/ segment fails with
// ErrNotProfileURL.
func Extract(rawURL string) (Handle, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return Handle{}, fmt.Errorf("extract %q: %w", rawURL, ErrNotProfileURL)
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return Handle{}, fmt.Errorf("extract %q: %w", rawURL, ErrNotProfileURL)
	}

	m := usernameRe.FindStringSubmatch(parsed.Path)
	if m == nil {
		return Handle{}, fmt.Errorf("extract %q: %w", rawURL, ErrNotProfileURL)
	}

	return Handle{
		URL:      trimmed,
		Username: m[1],
	}, nil
}

// Username is a convenience wrapper around Extract for callers that only
// need the dedup key.
func Username(rawURL string) (string, error) {
	h, err := Extract(rawURL)
	if err != nil {
		return "", err
	}
	return h.Username, nil
}
