// Package useragent rotates browser User-Agent strings across search
// requests so successive fetches do not present an identical client.
package useragent

import (
	"math/rand"
)

// defaults covers current desktop builds of the major browsers. The search
// engine serves the same results-page markup to all of them.
var defaults = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36 Edg/124.0.0.0",
}

// Pool hands out User-Agent strings for outbound requests.
type Pool struct {
	uas []string
}

// NewPool creates a pool over the given User-Agents, falling back to the
// built-in browser set when none are provided. The input slice is copied.
func NewPool(uas []string) *Pool {
	if len(uas) == 0 {
		uas = defaults
	}
	copied := make([]string, len(uas))
	copy(copied, uas)
	return &Pool{uas: copied}
}

// Random picks a User-Agent uniformly at random. Safe for concurrent use.
func (p *Pool) Random() string {
	if len(p.uas) == 0 {
		return ""
	}
	return p.uas[rand.Intn(len(p.uas))]
}
